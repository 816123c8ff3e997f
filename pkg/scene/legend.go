package scene

import (
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo"

	"github.com/matzehuels/flowmap/pkg/bezier"
	"github.com/matzehuels/flowmap/pkg/flow"
)

// Legend geometry.
const (
	LegendWidth = 160

	legendRowHeight    = 24
	legendMarginLeft   = 1
	legendMarginRight  = 56
	legendMarginBottom = 16
)

// LegendValues are the magnitudes drawn as legend wedges.
var LegendValues = []float64{100, 1000, 10000, 100000}

// LegendTicks label the two ends of the legend.
var LegendTicks = [2]string{"Outbound", "Inbound"}

// LegendHeight returns the height of the legend.
func LegendHeight() int {
	return legendRowHeight*len(LegendValues) + legendMarginBottom
}

// LegendOrigin returns the top-left corner of the legend in the bottom
// right of a viewport, clamped to the viewport. It reports false when the
// scale has no magnitude of at least one to show.
func LegendOrigin(width, height float64, scale flow.SqrtScale) (x, y int, ok bool) {
	if !(scale.Domain[1] >= 1) {
		return 0, 0, false
	}
	x = max(0, int(width)-LegendWidth)
	y = max(0, int(height)-LegendHeight())
	return x, y, true
}

// legendRowY returns the baseline of row i, the rows spread evenly with
// half a row of padding at both ends.
func legendRowY(i int) int {
	return legendRowHeight*i + legendRowHeight/2
}

// LegendWedgePath returns the wedge of a flow of the given width, narrow at
// the outbound end and wide at the inbound end.
func LegendWedgePath(width float64) string {
	x0 := bezier.FormatFloat(legendMarginLeft)
	x1 := bezier.FormatFloat(LegendWidth - legendMarginRight)
	h := bezier.FormatFloat(width / 2)
	nh := bezier.FormatFloat(-width / 2)
	return "M" + x0 + ",0L" + x1 + "," + nh + "L" + x1 + "," + h + "Z"
}

// RenderLegend writes the legend as an SVG group with its top-left corner at
// (x, y). Wedge widths come from scale, so they match the drawn ribbons.
func RenderLegend(w io.Writer, x, y int, scale flow.WidthScale, p Palette) {
	canvas := svg.New(w)
	height := LegendHeight()
	right := LegendWidth - legendMarginRight

	canvas.Group(`class="flow-legend"`, fmt.Sprintf(`transform="translate(%d,%d)"`, x, y))
	canvas.Def()
	canvas.LinearGradient("flow-legend-gradient", 0, 0, 100, 0, []svg.Offcolor{
		{Offset: 25, Color: p.Outbound, Opacity: 1},
		{Offset: 100, Color: p.Inbound, Opacity: 1},
	})
	canvas.Marker("flow-legend-arrowhead", 10, 5, 5, 5, `viewBox="0 0 10 10"`, `orient="auto"`)
	canvas.Path("M0,0L10,5L0,10")
	canvas.MarkerEnd()
	canvas.DefEnd()

	for i, label := range LegendTicks {
		tx := legendMarginLeft
		if i > 0 {
			tx = right
		}
		canvas.Gtransform(fmt.Sprintf("translate(%d,0)", tx))
		canvas.Line(0, 0, 0, height, `class="flow-legend__tick"`, `stroke="currentColor"`)
		canvas.Text(4, height-4, label, `class="flow-legend__tick-label"`)
		canvas.Gend()
	}

	for i, v := range LegendValues {
		canvas.Gtransform(fmt.Sprintf("translate(0,%d)", legendRowY(i)))
		canvas.Path(LegendWedgePath(scale.Scale(v)), `fill="url(#flow-legend-gradient)"`)
		canvas.Line(legendMarginLeft, 0, right, 0, `stroke="currentColor"`, `marker-end="url(#flow-legend-arrowhead)"`)
		canvas.Text(right+4, 0, FormatValue(v), `dy="0.32em"`)
		canvas.Gend()
	}
	canvas.Gend()
}
