package topo

import (
	ferrors "github.com/matzehuels/flowmap/pkg/errors"
)

// Ring is a closed sequence of positions; the first position is repeated
// at the end.
type Ring []Position

// Polygon is an exterior ring followed by its holes.
type Polygon []Ring

// Feature is one geometry of a collection resolved to polygons.
type Feature struct {
	ID         string
	Properties map[string]any
	Polygons   []Polygon
}

// Name returns the "name" property, or "" when absent.
func (f Feature) Name() string {
	if s, ok := f.Properties["name"].(string); ok {
		return s
	}
	return ""
}

// Line is an open polyline.
type Line []Position

// Features resolves the named object into polygon features. A geometry
// collection yields one feature per member; any other object yields a
// single feature. Non-areal members resolve to features without polygons.
func (t *Topology) Features(name string) ([]Feature, error) {
	o, ok := t.Objects[name]
	if !ok || o == nil {
		return nil, ferrors.New(ferrors.ErrCodeInvalidTopology, "topology has no object %q", name)
	}
	if o.Type != "GeometryCollection" {
		return []Feature{t.feature(o)}, nil
	}
	out := make([]Feature, 0, len(o.Geometries))
	for _, g := range o.Geometries {
		if g == nil {
			continue
		}
		out = append(out, t.feature(g))
	}
	return out, nil
}

func (t *Topology) feature(o *Object) Feature {
	f := Feature{ID: o.ID, Properties: o.Properties}
	switch o.Type {
	case "Polygon":
		f.Polygons = []Polygon{t.polygon(o.Polygon)}
	case "MultiPolygon":
		f.Polygons = make([]Polygon, len(o.MultiPolygon))
		for i, p := range o.MultiPolygon {
			f.Polygons[i] = t.polygon(p)
		}
	}
	return f
}

func (t *Topology) polygon(rings [][]int) Polygon {
	p := make(Polygon, len(rings))
	for i, r := range rings {
		p[i] = t.ring(r)
	}
	return p
}

// ring stitches arcs into a closed ring. Consecutive arcs share an end
// point, which is emitted once.
func (t *Topology) ring(refs []int) Ring {
	var pts []Position
	for _, ref := range refs {
		pts = t.appendArc(pts, ref)
	}
	// Degenerate rings are padded so they stay closed.
	for len(pts) > 0 && len(pts) < 4 {
		pts = append(pts, pts[0])
	}
	return Ring(pts)
}

func (t *Topology) appendArc(pts []Position, ref int) []Position {
	if len(pts) > 0 {
		pts = pts[:len(pts)-1]
	}
	if ref >= 0 {
		return append(pts, t.Arcs[ref]...)
	}
	arc := t.Arcs[^ref]
	for i := len(arc) - 1; i >= 0; i-- {
		pts = append(pts, arc[i])
	}
	return pts
}

// Mesh returns every arc of the topology exactly once, as open lines.
// Shared borders are therefore drawn a single time.
func (t *Topology) Mesh() []Line {
	out := make([]Line, 0, len(t.Arcs))
	for _, arc := range t.Arcs {
		if len(arc) < 2 {
			continue
		}
		out = append(out, Line(arc))
	}
	return out
}
