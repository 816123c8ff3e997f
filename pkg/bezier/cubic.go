package bezier

import (
	"errors"
	"math"
	"slices"

	"gonum.org/v1/gonum/integrate/quad"
)

// lengthNodes is the number of Gauss–Legendre nodes used by [Cubic.Length].
const lengthNodes = 24

// ErrDegenerate is returned when an operation needs a direction that the
// curve does not have (zero-length derivative or parallel normals).
var ErrDegenerate = errors.New("bezier: degenerate curve")

// Cubic is a cubic Bézier curve given by its four control points.
type Cubic [4]Point

// Line returns a straight cubic from p to q with control points at thirds.
func Line(p, q Point) Cubic {
	return Cubic{p, p.Lerp(q, 1.0/3), p.Lerp(q, 2.0/3), q}
}

// Start returns the first control point.
func (c Cubic) Start() Point { return c[0] }

// End returns the last control point.
func (c Cubic) End() Point { return c[3] }

// At evaluates the curve at t.
func (c Cubic) At(t float64) Point {
	mt := 1 - t
	a := mt * mt * mt
	b := 3 * mt * mt * t
	d := 3 * mt * t * t
	e := t * t * t
	return Point{
		X: a*c[0].X + b*c[1].X + d*c[2].X + e*c[3].X,
		Y: a*c[0].Y + b*c[1].Y + d*c[2].Y + e*c[3].Y,
	}
}

// derivativePoints returns the control points of the first derivative
// (a quadratic) and of the second derivative (a line).
func (c Cubic) derivativePoints() ([3]Point, [2]Point) {
	var d1 [3]Point
	for i := range d1 {
		d1[i] = c[i+1].Sub(c[i]).Mul(3)
	}
	var d2 [2]Point
	for i := range d2 {
		d2[i] = d1[i+1].Sub(d1[i]).Mul(2)
	}
	return d1, d2
}

// Derivative returns the tangent vector B'(t).
func (c Cubic) Derivative(t float64) Point {
	d, _ := c.derivativePoints()
	mt := 1 - t
	a, b, e := mt*mt, 2*mt*t, t*t
	return Point{
		X: a*d[0].X + b*d[1].X + e*d[2].X,
		Y: a*d[0].Y + b*d[1].Y + e*d[2].Y,
	}
}

// Normal returns the unit normal at t, the tangent rotated by +90°.
func (c Cubic) Normal(t float64) Point {
	d := c.Derivative(t)
	q := d.Len()
	return Point{X: -d.Y / q, Y: d.X / q}
}

// Tangent returns the unit tangent at t.
func (c Cubic) Tangent(t float64) Point {
	return c.Derivative(t).Unit()
}

// Length returns the arc length of the curve.
func (c Cubic) Length() float64 {
	speed := func(t float64) float64 { return c.Derivative(t).Len() }
	return quad.Fixed(speed, 0, 1, lengthNodes, quad.Legendre{}, 0)
}

// Split divides the curve at t using de Casteljau's construction.
func (c Cubic) Split(t float64) (left, right Cubic) {
	p01 := c[0].Lerp(c[1], t)
	p12 := c[1].Lerp(c[2], t)
	p23 := c[2].Lerp(c[3], t)
	p012 := p01.Lerp(p12, t)
	p123 := p12.Lerp(p23, t)
	p := p012.Lerp(p123, t)
	return Cubic{c[0], p01, p012, p}, Cubic{p, p123, p23, c[3]}
}

// Segment returns the part of the curve between t1 and t2.
func (c Cubic) Segment(t1, t2 float64) Cubic {
	if t1 == 0 && t2 != 0 {
		left, _ := c.Split(t2)
		return left
	}
	if t2 == 1 {
		_, right := c.Split(t1)
		return right
	}
	_, right := c.Split(t1)
	left, _ := right.Split(remap(t2, t1, 1, 0, 1))
	return left
}

// Reverse returns the same curve traversed from end to start.
func (c Cubic) Reverse() Cubic {
	return Cubic{c[3], c[2], c[1], c[0]}
}

// Translate moves every control point along v, by d1 at the start blending
// linearly to d2 at the end.
func (c Cubic) Translate(v Point, d1, d2 float64) Cubic {
	var out Cubic
	for i, p := range c {
		f := float64(i) / 3
		d := (1-f)*d1 + f*d2
		out[i] = p.Add(v.Mul(d))
	}
	return out
}

// Clockwise reports whether the first control point lies clockwise of the
// chord, which decides the sign of graduated offsets.
func (c Cubic) Clockwise() bool {
	return angle(c[0], c[3], c[1]) > 0
}

// Linear reports whether the control polygon is within 2% of the chord.
func (c Cubic) Linear() bool {
	base := c[0].Dist(c[3])
	a := -math.Atan2(c[3].Y-c[0].Y, c[3].X-c[0].X)
	sin, cos := math.Sincos(a)
	var sum float64
	for _, p := range c {
		v := p.Sub(c[0])
		sum += math.Abs(v.X*sin + v.Y*cos)
	}
	return sum < base/50
}

// Extrema returns the parameters in [0, 1] where either coordinate of the
// curve or of its derivative reaches an extremum, sorted and deduplicated.
func (c Cubic) Extrema() []float64 {
	d1, d2 := c.derivativePoints()
	var roots []float64
	for _, coord := range []func(Point) float64{
		func(p Point) float64 { return p.X },
		func(p Point) float64 { return p.Y },
	} {
		rs := quadraticRoots(coord(d1[0]), coord(d1[1]), coord(d1[2]))
		rs = append(rs, linearRoots(coord(d2[0]), coord(d2[1]))...)
		for _, r := range rs {
			if r >= 0 && r <= 1 {
				roots = append(roots, r)
			}
		}
	}
	slices.Sort(roots)
	return slices.Compact(roots)
}

// quadraticRoots returns the roots of the Bernstein quadratic a, b, c.
func quadraticRoots(a, b, c float64) []float64 {
	d := a - 2*b + c
	if d != 0 {
		disc := b*b - a*c
		if disc < 0 {
			return nil
		}
		m1 := -math.Sqrt(disc)
		m2 := -a + b
		return []float64{-(m1 + m2) / d, -(-m1 + m2) / d}
	}
	if b != c {
		return []float64{(2*b - c) / (2 * (b - c))}
	}
	return nil
}

// linearRoots returns the root of the Bernstein line a, b.
func linearRoots(a, b float64) []float64 {
	if a != b {
		return []float64{a / (a - b)}
	}
	return nil
}

// Simple reports whether the curve can be offset by moving its control
// points: both control points lie on the same side of the chord and the end
// normals differ by less than 60°.
func (c Cubic) Simple() bool {
	a1 := angle(c[0], c[3], c[1])
	a2 := angle(c[0], c[3], c[2])
	if (a1 > 0 && a2 < 0) || (a1 < 0 && a2 > 0) {
		return false
	}
	n1, n2 := c.Normal(0), c.Normal(1)
	s := math.Max(-1, math.Min(1, n1.Dot(n2)))
	return math.Abs(math.Acos(s)) < math.Pi/3
}

// reduceStep is the parameter increment used when searching for simple
// sub-curves.
const reduceStep = 0.01

// Reduce splits the curve into simple pieces. It first cuts at every
// extremum, then walks each piece in steps of 0.01 and cuts just before the
// sub-curve stops being simple. An empty result means no reduction exists.
func (c Cubic) Reduce() []Cubic {
	ts := c.Extrema()
	if !slices.Contains(ts, 0) {
		ts = append([]float64{0}, ts...)
	}
	if !slices.Contains(ts, 1) {
		ts = append(ts, 1)
	}

	var pass1 []Cubic
	for i := 1; i < len(ts); i++ {
		pass1 = append(pass1, c.Segment(ts[i-1], ts[i]))
	}

	var pass2 []Cubic
	for _, p := range pass1 {
		t1, t2 := 0.0, 0.0
		for t2 <= 1 {
			for t2 = t1 + reduceStep; t2 <= 1+reduceStep; t2 += reduceStep {
				if p.Segment(t1, t2).Simple() {
					continue
				}
				t2 -= reduceStep
				if math.Abs(t1-t2) < reduceStep {
					return nil
				}
				pass2 = append(pass2, p.Segment(t1, t2))
				t1 = t2
				break
			}
		}
		if t1 < 1 {
			pass2 = append(pass2, p.Segment(t1, 1))
		}
	}
	return pass2
}

// offsetProbe is the distance used to build the normal lines whose
// intersection serves as the scaling origin.
const offsetProbe = 10

// scaleOrigin returns the intersection of the normal lines at both ends.
func (c Cubic) scaleOrigin() (Point, bool) {
	s, e := c.At(0), c.At(1)
	return intersect(
		s.Add(c.Normal(0).Mul(offsetProbe)), s,
		e.Add(c.Normal(1).Mul(offsetProbe)), e,
	)
}

// Scale offsets a simple curve by the constant distance d along its normal.
func (c Cubic) Scale(d float64) (Cubic, error) {
	if c.Linear() {
		return c.Translate(c.Normal(0), d, d), nil
	}
	o, ok := c.scaleOrigin()
	if !ok {
		return Cubic{}, ErrDegenerate
	}

	var np Cubic
	np[0] = c[0].Add(c.Normal(0).Mul(d))
	np[3] = c[3].Add(c.Normal(1).Mul(d))

	// Control points sit where the offset end tangents cross the lines from
	// the origin through the original control points.
	for _, t := range []int{0, 1} {
		p := np[t*3]
		p2 := p.Add(c.Derivative(float64(t)))
		q, ok := intersect(p, p2, o, c[t+1])
		if !ok {
			return Cubic{}, ErrDegenerate
		}
		np[t+1] = q
	}
	return np, nil
}

// ScaleFunc offsets a simple curve by a distance that varies with t.
func (c Cubic) ScaleFunc(dist func(t float64) float64) (Cubic, error) {
	r1, r2 := dist(0), dist(1)
	if c.Linear() {
		return c.Translate(c.Normal(0), r1, r2), nil
	}
	o, ok := c.scaleOrigin()
	if !ok {
		return Cubic{}, ErrDegenerate
	}

	var np Cubic
	np[0] = c[0].Add(c.Normal(0).Mul(r1))
	np[3] = c[3].Add(c.Normal(1).Mul(r2))

	clockwise := c.Clockwise()
	for _, t := range []int{0, 1} {
		p := c[t+1]
		ov := p.Sub(o).Unit()
		rc := dist(float64(t+1) / 3)
		if !clockwise {
			rc = -rc
		}
		np[t+1] = p.Add(ov.Mul(rc))
	}
	return np, nil
}

// Outline returns the closed outline of the curve offset by d1 to the left
// and d2 to the right, as a sequence of cubic pieces.
func (c Cubic) Outline(d1, d2 float64) ([]Cubic, error) {
	return c.outline(
		func(float64, float64) func(float64) float64 { return constant(d1) },
		func(float64, float64) func(float64) float64 { return constant(-d2) },
		false,
	)
}

// OutlineGraduated returns an outline whose left offset grows linearly from
// d1 to d3 and whose right offset grows from d2 to d4 along the arc length.
func (c Cubic) OutlineGraduated(d1, d2, d3, d4 float64) ([]Cubic, error) {
	total := c.Length()
	return c.outline(
		func(done, seg float64) func(float64) float64 { return graduated(d1, d3, total, done, seg) },
		func(done, seg float64) func(float64) float64 { return graduated(-d2, -d4, total, done, seg) },
		true,
	)
}

func constant(d float64) func(float64) float64 {
	return func(float64) float64 { return d }
}

// graduated returns the distance function for a piece that starts at arc
// length done and spans seg, interpolating from s to e over total length.
func graduated(s, e, total, done, seg float64) func(float64) float64 {
	f1 := done / total
	f2 := (done + seg) / total
	d := e - s
	return func(v float64) float64 {
		return remap(v, 0, 1, s+f1*d, s+f2*d)
	}
}

func (c Cubic) outline(fwd, back func(done, seg float64) func(float64) float64, varying bool) ([]Cubic, error) {
	reduced := c.Reduce()
	if len(reduced) == 0 {
		return nil, ErrDegenerate
	}

	scale := func(seg Cubic, dist func(float64) float64) (Cubic, error) {
		if varying {
			return seg.ScaleFunc(dist)
		}
		return seg.Scale(dist(0))
	}

	fcurves := make([]Cubic, 0, len(reduced))
	bcurves := make([]Cubic, 0, len(reduced))
	var done float64
	for _, seg := range reduced {
		segLen := seg.Length()
		f, err := scale(seg, fwd(done, segLen))
		if err != nil {
			return nil, err
		}
		b, err := scale(seg, back(done, segLen))
		if err != nil {
			return nil, err
		}
		fcurves = append(fcurves, f)
		bcurves = append(bcurves, b)
		done += segLen
	}

	for i := range bcurves {
		bcurves[i] = bcurves[i].Reverse()
	}
	slices.Reverse(bcurves)

	n := len(reduced)
	fs := fcurves[0].Start()
	fe := fcurves[n-1].End()
	bs := bcurves[n-1].End()
	be := bcurves[0].Start()

	out := make([]Cubic, 0, 2*n+2)
	out = append(out, Line(bs, fs))
	out = append(out, fcurves...)
	out = append(out, Line(fe, be))
	out = append(out, bcurves...)
	return out, nil
}

// EndCapIndex returns the index of the end cap in an outline of n pieces.
func EndCapIndex(n int) int {
	return (n + 1) / 2
}
