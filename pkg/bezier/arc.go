package bezier

import "math"

// quarterKappa is the control distance that best approximates a 90° arc.
const quarterKappa = 0.551915024494

// Arc describes an SVG elliptical arc from From to To.
type Arc struct {
	From, To Point
	RX, RY   float64
	Rotation float64 // x-axis rotation in degrees
	LargeArc bool
	Sweep    bool
}

// ArcToCubics converts an SVG arc into cubic curves, one per quarter turn
// or less. It returns nil when the arc is empty: a zero radius or
// coincident end points.
func ArcToCubics(a Arc) []Cubic {
	if a.RX == 0 || a.RY == 0 {
		return nil
	}
	sinphi, cosphi := math.Sincos(a.Rotation * math.Pi / 180)

	dx := (a.From.X - a.To.X) / 2
	dy := (a.From.Y - a.To.Y) / 2
	pxp := cosphi*dx + sinphi*dy
	pyp := -sinphi*dx + cosphi*dy
	if pxp == 0 && pyp == 0 {
		return nil
	}

	rx, ry := math.Abs(a.RX), math.Abs(a.RY)
	lambda := pxp*pxp/(rx*rx) + pyp*pyp/(ry*ry)
	if lambda > 1 {
		rx *= math.Sqrt(lambda)
		ry *= math.Sqrt(lambda)
	}

	cx, cy, ang1, ang2 := arcCenter(a, rx, ry, sinphi, cosphi, pxp, pyp)

	ratio := math.Abs(ang2) / (math.Pi / 2)
	if math.Abs(1-ratio) < 1e-7 {
		ratio = 1
	}
	segments := max(int(math.Ceil(ratio)), 1)
	ang2 /= float64(segments)

	toEllipse := func(p Point) Point {
		x, y := p.X*rx, p.Y*ry
		return Point{
			X: cosphi*x - sinphi*y + cx,
			Y: sinphi*x + cosphi*y + cy,
		}
	}

	curves := make([]Cubic, 0, segments)
	start := a.From
	for range segments {
		c1, c2, end := unitArc(ang1, ang2)
		cubic := Cubic{start, toEllipse(c1), toEllipse(c2), toEllipse(end)}
		curves = append(curves, cubic)
		start = cubic[3]
		ang1 += ang2
	}
	// Pin the final end point to avoid accumulated rounding.
	curves[len(curves)-1][3] = a.To
	return curves
}

// arcCenter converts the endpoint parameterisation to a centre, a start
// angle and a signed sweep angle.
func arcCenter(a Arc, rx, ry, sinphi, cosphi, pxp, pyp float64) (cx, cy, ang1, ang2 float64) {
	rxsq, rysq := rx*rx, ry*ry
	pxpsq, pypsq := pxp*pxp, pyp*pyp

	radicant := rxsq*rysq - rxsq*pypsq - rysq*pxpsq
	if radicant < 0 {
		radicant = 0
	}
	radicant /= rxsq*pypsq + rysq*pxpsq
	radicant = math.Sqrt(radicant)
	if a.LargeArc == a.Sweep {
		radicant = -radicant
	}

	cxp := radicant * rx / ry * pyp
	cyp := radicant * -ry / rx * pxp

	cx = cosphi*cxp - sinphi*cyp + (a.From.X+a.To.X)/2
	cy = sinphi*cxp + cosphi*cyp + (a.From.Y+a.To.Y)/2

	vx1 := (pxp - cxp) / rx
	vy1 := (pyp - cyp) / ry
	vx2 := (-pxp - cxp) / rx
	vy2 := (-pyp - cyp) / ry

	ang1 = vectorAngle(1, 0, vx1, vy1)
	ang2 = vectorAngle(vx1, vy1, vx2, vy2)
	if !a.Sweep && ang2 > 0 {
		ang2 -= 2 * math.Pi
	}
	if a.Sweep && ang2 < 0 {
		ang2 += 2 * math.Pi
	}
	return cx, cy, ang1, ang2
}

func vectorAngle(ux, uy, vx, vy float64) float64 {
	sign := 1.0
	if ux*vy-uy*vx < 0 {
		sign = -1
	}
	dot := math.Max(-1, math.Min(1, ux*vx+uy*vy))
	return sign * math.Acos(dot)
}

// unitArc approximates the unit-circle arc starting at ang1 and sweeping
// ang2 radians. It returns both control points and the end point.
func unitArc(ang1, ang2 float64) (c1, c2, end Point) {
	var k float64
	switch ang2 {
	case math.Pi / 2:
		k = quarterKappa
	case -math.Pi / 2:
		k = -quarterKappa
	default:
		k = 4.0 / 3 * math.Tan(ang2/4)
	}
	y1, x1 := math.Sincos(ang1)
	y2, x2 := math.Sincos(ang1 + ang2)
	return Point{x1 - y1*k, y1 + x1*k}, Point{x2 + y2*k, y2 - x2*k}, Point{x2, y2}
}
