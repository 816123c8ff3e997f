package geo

import (
	"math"

	"github.com/matzehuels/flowmap/pkg/topo"
)

// fitScale is the scale at which bounds are measured before fitting.
const fitScale = 150

// Bounds is the screen bounding box of projected geometry.
type Bounds struct {
	Min, Max Point
}

// Empty reports whether the bounds contain no point.
func (b Bounds) Empty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y
}

func emptyBounds() Bounds {
	inf := math.Inf(1)
	return Bounds{Min: Point{inf, inf}, Max: Point{-inf, -inf}}
}

func (b *Bounds) add(p Point) {
	b.Min.X = math.Min(b.Min.X, p.X)
	b.Min.Y = math.Min(b.Min.Y, p.Y)
	b.Max.X = math.Max(b.Max.X, p.X)
	b.Max.Y = math.Max(b.Max.Y, p.Y)
}

// FeatureBounds returns the bounds of the projected features.
func (p *AlbersUSA) FeatureBounds(features []topo.Feature) Bounds {
	b := emptyBounds()
	for _, f := range features {
		for _, ring := range p.ProjectFeature(f) {
			for _, q := range ring {
				b.add(q)
			}
		}
	}
	return b
}

// Fit scales and translates the projection so the features fill a
// width×height viewport, centred along the axis with slack. The projection
// is left unchanged when the features are empty.
func (p *AlbersUSA) Fit(width, height float64, features []topo.Feature) *AlbersUSA {
	k0, x0, y0 := p.k, p.x, p.y
	p.ScaleTranslate(fitScale, 0, 0)
	b := p.FeatureBounds(features)
	if b.Empty() {
		return p.ScaleTranslate(k0, x0, y0)
	}

	k := math.Min(width/(b.Max.X-b.Min.X), height/(b.Max.Y-b.Min.Y))
	x := (width - k*(b.Max.X+b.Min.X)) / 2
	y := (height - k*(b.Max.Y+b.Min.Y)) / 2
	return p.ScaleTranslate(fitScale*k, x, y)
}
