package geo

import (
	"math"

	"github.com/matzehuels/flowmap/pkg/topo"
)

const (
	radians = math.Pi / 180

	// extentEpsilon shrinks the inset extents so neighbouring insets never
	// both claim a point on their shared border.
	extentEpsilon = 1e-6

	// DefaultScale and the default translation centre the lower 48 in a
	// 960×500 frame.
	DefaultScale = 1070
)

// Point is a position in screen space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// extent is an axis-aligned screen rectangle.
type extent struct {
	x0, y0, x1, y1 float64
}

func (e extent) contains(p Point) bool {
	return p.X >= e.x0 && p.X <= e.x1 && p.Y >= e.y0 && p.Y <= e.y1
}

// conic is a conic equal-area projection with its own rotation and centre.
type conic struct {
	n, c, r0 float64
	rotate   float64 // longitude rotation in radians
	cx, cy   float64 // raw projection of the centre

	k      float64
	tx, ty float64
	clip   extent
}

func newConic(parallel0, parallel1, rotate, centerLon, centerLat float64) conic {
	sy0 := math.Sin(parallel0 * radians)
	n := (sy0 + math.Sin(parallel1*radians)) / 2
	c := 1 + sy0*(2*n-sy0)
	p := conic{n: n, c: c, r0: math.Sqrt(c) / n, rotate: rotate * radians}
	p.cx, p.cy = p.raw(centerLon*radians, centerLat*radians)
	return p
}

func (p conic) raw(lambda, phi float64) (float64, float64) {
	r := math.Sqrt(p.c-2*p.n*math.Sin(phi)) / p.n
	x := lambda * p.n
	return r * math.Sin(x), p.r0 - r*math.Cos(x)
}

func (p conic) project(pos topo.Position) Point {
	lambda := pos[0]*radians + p.rotate
	if lambda > math.Pi {
		lambda -= 2 * math.Pi
	} else if lambda < -math.Pi {
		lambda += 2 * math.Pi
	}
	x, y := p.raw(lambda, pos[1]*radians)
	return Point{
		X: p.tx + p.k*(x-p.cx),
		Y: p.ty - p.k*(y-p.cy),
	}
}

// AlbersUSA is the composite lower 48 / Alaska / Hawaii projection.
type AlbersUSA struct {
	k      float64
	x, y   float64
	insets [3]conic // lower 48, Alaska, Hawaii, in routing order
}

// NewAlbersUSA returns the projection at its default scale and translation.
func NewAlbersUSA() *AlbersUSA {
	p := &AlbersUSA{
		insets: [3]conic{
			newConic(29.5, 45.5, 96, -0.6, 38.7),
			newConic(55, 65, 154, -2, 58.5),
			newConic(8, 18, 157, -3, 19.9),
		},
	}
	return p.ScaleTranslate(DefaultScale, 480, 250)
}

// Scale returns the current scale factor.
func (p *AlbersUSA) Scale() float64 { return p.k }

// Translate returns the screen position of the lower 48 centre.
func (p *AlbersUSA) Translate() (x, y float64) { return p.x, p.y }

// ScaleTranslate sets the scale and translation, placing the insets and
// their clip extents relative to the lower 48.
func (p *AlbersUSA) ScaleTranslate(k, x, y float64) *AlbersUSA {
	p.k, p.x, p.y = k, x, y
	e := extentEpsilon

	lower := &p.insets[0]
	lower.k, lower.tx, lower.ty = k, x, y
	lower.clip = extent{x - 0.455*k, y - 0.238*k, x + 0.455*k, y + 0.238*k}

	alaska := &p.insets[1]
	alaska.k, alaska.tx, alaska.ty = k*0.35, x-0.307*k, y+0.201*k
	alaska.clip = extent{x - 0.425*k + e, y + 0.120*k + e, x - 0.214*k - e, y + 0.234*k - e}

	hawaii := &p.insets[2]
	hawaii.k, hawaii.tx, hawaii.ty = k, x-0.205*k, y+0.212*k
	hawaii.clip = extent{x - 0.214*k + e, y + 0.166*k + e, x - 0.115*k - e, y + 0.234*k - e}
	return p
}

// Project maps a longitude/latitude position to the screen. ok is false
// when no inset's extent contains the point.
func (p *AlbersUSA) Project(pos topo.Position) (Point, bool) {
	for _, inset := range p.insets {
		if q := inset.project(pos); inset.clip.contains(q) {
			return q, true
		}
	}
	return Point{}, false
}

// route picks the inset owning the most positions of a ring or line, so a
// whole shape is drawn by one projection. Ties go to the earlier inset.
func (p *AlbersUSA) route(pts []topo.Position) (conic, bool) {
	var votes [3]int
	for _, pos := range pts {
		for i, inset := range p.insets {
			if inset.clip.contains(inset.project(pos)) {
				votes[i]++
				break
			}
		}
	}
	best := -1
	for i, v := range votes {
		if v > 0 && (best < 0 || v > votes[best]) {
			best = i
		}
	}
	if best < 0 {
		return conic{}, false
	}
	return p.insets[best], true
}

// ProjectLine projects every position of a ring or line with the inset that
// owns it. Shapes outside every inset project to nil.
func (p *AlbersUSA) ProjectLine(pts []topo.Position) []Point {
	inset, ok := p.route(pts)
	if !ok {
		return nil
	}
	out := make([]Point, len(pts))
	for i, pos := range pts {
		out[i] = inset.project(pos)
	}
	return out
}

// ProjectFeature projects every ring of every polygon of f.
func (p *AlbersUSA) ProjectFeature(f topo.Feature) [][]Point {
	var rings [][]Point
	for _, poly := range f.Polygons {
		for _, ring := range poly {
			if r := p.ProjectLine(ring); len(r) > 0 {
				rings = append(rings, r)
			}
		}
	}
	return rings
}
