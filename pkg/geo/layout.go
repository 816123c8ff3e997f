package geo

import (
	"math"

	"github.com/matzehuels/flowmap/pkg/topo"
)

// Reference frame of the boundary artwork. Viewports keep its aspect ratio
// and never grow taller than it.
const (
	FrameWidth  = 975
	FrameHeight = 610
)

// ViewportHeight returns the height used for a viewport of the given width.
func ViewportHeight(width float64) float64 {
	return math.Min(FrameHeight, math.Ceil(width/FrameWidth*FrameHeight))
}

// Layout is the projected state of the map for one viewport.
type Layout struct {
	Width, Height float64
	Projection    *AlbersUSA

	// Lines is the projected boundary mesh and Boundary its SVG path data.
	Lines    [][]Point
	Boundary string

	// Centroids maps a feature id to its projected centroid. Features
	// outside every inset are absent.
	Centroids map[string]Point
}

// Adapter computes layouts for a fixed set of features.
type Adapter struct {
	features []topo.Feature
	mesh     []topo.Line
}

// NewAdapter returns an adapter for the given features and boundary mesh.
func NewAdapter(features []topo.Feature, mesh []topo.Line) *Adapter {
	return &Adapter{features: features, mesh: mesh}
}

// Features returns the features the adapter projects.
func (a *Adapter) Features() []topo.Feature { return a.features }

// Layout fits the projection to a viewport of the given width and projects
// the mesh and every centroid. It has no side effects, so calling it again
// with the same width yields the same layout.
func (a *Adapter) Layout(width float64) Layout {
	height := ViewportHeight(width)
	proj := NewAlbersUSA().Fit(width, height, a.features)

	lines := make([][]Point, 0, len(a.mesh))
	for _, l := range a.mesh {
		if pts := proj.ProjectLine(l); len(pts) > 0 {
			lines = append(lines, pts)
		}
	}

	centroids := make(map[string]Point, len(a.features))
	for _, f := range a.features {
		if c, ok := Centroid(proj.ProjectFeature(f)); ok {
			centroids[f.ID] = c
		}
	}

	return Layout{
		Width:      width,
		Height:     height,
		Projection: proj,
		Lines:      lines,
		Boundary:   LinesPath(lines),
		Centroids:  centroids,
	}
}
