package bezier

import "math"

// Point is a position or a vector in screen space.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Mul scales p by k.
func (p Point) Mul(k float64) Point { return Point{p.X * k, p.Y * k} }

// Dot returns the dot product of p and q.
func (p Point) Dot(q Point) float64 { return p.X*q.X + p.Y*q.Y }

// Len returns the Euclidean length of p.
func (p Point) Len() float64 { return math.Hypot(p.X, p.Y) }

// Dist returns the distance between p and q.
func (p Point) Dist(q Point) float64 { return p.Sub(q).Len() }

// Lerp interpolates linearly between p (t=0) and q (t=1).
func (p Point) Lerp(q Point, t float64) Point {
	return Point{p.X + (q.X-p.X)*t, p.Y + (q.Y-p.Y)*t}
}

// Unit returns p scaled to length 1. The zero vector is returned unchanged.
func (p Point) Unit() Point {
	l := p.Len()
	if l == 0 {
		return p
	}
	return Point{p.X / l, p.Y / l}
}

// angle returns the signed angle at o between the rays o→v1 and o→v2.
func angle(o, v1, v2 Point) float64 {
	d1, d2 := v1.Sub(o), v2.Sub(o)
	cross := d1.X*d2.Y - d1.Y*d2.X
	return math.Atan2(cross, d1.Dot(d2))
}

// intersect returns the intersection of the infinite lines p1p2 and p3p4.
// ok is false when the lines are parallel.
func intersect(p1, p2, p3, p4 Point) (Point, bool) {
	x1, y1, x2, y2 := p1.X, p1.Y, p2.X, p2.Y
	x3, y3, x4, y4 := p3.X, p3.Y, p4.X, p4.Y
	d := (x1-x2)*(y3-y4) - (y1-y2)*(x3-x4)
	if d == 0 {
		return Point{}, false
	}
	a := x1*y2 - y1*x2
	b := x3*y4 - y3*x4
	return Point{
		X: (a*(x3-x4) - (x1-x2)*b) / d,
		Y: (a*(y3-y4) - (y1-y2)*b) / d,
	}, true
}

// remap maps v from [ds, de] onto [ts, te].
func remap(v, ds, de, ts, te float64) float64 {
	return ts + (te-ts)*((v-ds)/(de-ds))
}
