package scene

import (
	"fmt"
	"io"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/matzehuels/flowmap/pkg/bezier"
)

// Gauge pie dimensions. The gauge sweeps from pieStart to pieEnd, angles
// measured clockwise from twelve o'clock.
const (
	PieWidth  = 64
	PieHeight = 52
	pieMargin = 1

	pieStart = -0.7 * math.Pi
	pieEnd   = 0.7 * math.Pi

	// pieInner is the inner radius relative to the outer one.
	pieInner = 0.6
)

// PieRadius returns the outer radius of a gauge pie.
func PieRadius() float64 {
	return (PieWidth - pieMargin*2) / 2.0
}

// pieAngle maps a share in [0, 1] onto the gauge sweep.
func pieAngle(share float64) float64 {
	return pieStart + math.Max(0, math.Min(1, share))*(pieEnd-pieStart)
}

// PieFillPath returns the path of the filled part of a gauge for the given
// share, centred on the origin. A zero share has no fill.
func PieFillPath(share float64) string {
	r := PieRadius()
	return AnnulusPath(r*pieInner, r, pieStart, pieAngle(share))
}

// PieOutlinePath returns the path of the full gauge track.
func PieOutlinePath() string {
	r := PieRadius()
	return AnnulusPath(r, r, pieStart, pieEnd)
}

// AnnulusPath returns an annular sector between radii r0 and r1 spanning
// angles a0 to a1. When r0 equals r1 only the open arc is drawn.
func AnnulusPath(r0, r1, a0, a1 float64) string {
	if a1 <= a0 || r1 <= 0 {
		return ""
	}
	large := 0
	if a1-a0 > math.Pi {
		large = 1
	}
	polar := func(r, a float64) string {
		return bezier.FormatFloat(r*math.Sin(a)) + "," + bezier.FormatFloat(-r*math.Cos(a))
	}
	num := bezier.FormatFloat

	var b strings.Builder
	fmt.Fprintf(&b, "M%sA%s,%s,0,%d,1,%s", polar(r1, a0), num(r1), num(r1), large, polar(r1, a1))
	if r0 == r1 {
		return b.String()
	}
	if r0 <= 0 {
		b.WriteString("L0,0Z")
		return b.String()
	}
	fmt.Fprintf(&b, "L%sA%s,%s,0,%d,0,%sZ", polar(r0, a1), num(r0), num(r0), large, polar(r0, a0))
	return b.String()
}

// RenderPie writes a gauge pie as an SVG group translated to (x, y), the
// top-left corner of the pie's box.
func RenderPie(w io.Writer, x, y int, share float64, color, class string) {
	canvas := svg.New(w)
	half := PieWidth / 2
	canvas.Gtransform(fmt.Sprintf("translate(%d,%d)", x+half, y+half))
	canvas.Path(PieFillPath(share), `class="flow-pie__fill `+class+`"`, fmt.Sprintf(`fill=%q`, color))
	canvas.Path(PieOutlinePath(), `class="flow-pie__outline"`, `fill="none"`, `stroke="currentColor"`)
	canvas.Text(0, 0, FormatShare(share), `class="flow-pie__label `+class+`"`, `dy="0.32em"`, `text-anchor="middle"`)
	canvas.Gend()
}
