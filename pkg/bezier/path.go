package bezier

import (
	"math"
	"strconv"
	"strings"
)

// precision is the number of decimals kept in path data.
const precision = 3

// AppendPath writes c as SVG path data. When move is true the segment starts
// with a moveto to its first control point.
func AppendPath(b *strings.Builder, c Cubic, move bool) {
	if move {
		b.WriteString("M ")
		writeCoord(b, c[0])
		b.WriteByte(' ')
	}
	b.WriteString("C ")
	writeCoord(b, c[1])
	b.WriteByte(' ')
	writeCoord(b, c[2])
	b.WriteByte(' ')
	writeCoord(b, c[3])
}

// PathString serialises a connected sequence of curves. Only the first curve
// emits a moveto.
func PathString(curves ...Cubic) string {
	var b strings.Builder
	for i, c := range curves {
		if i > 0 {
			b.WriteByte(' ')
		}
		AppendPath(&b, c, i == 0)
	}
	return b.String()
}

func writeCoord(b *strings.Builder, p Point) {
	b.WriteString(FormatFloat(p.X))
	b.WriteByte(' ')
	b.WriteString(FormatFloat(p.Y))
}

// FormatFloat rounds v to the path precision and prints it without trailing
// zeros. Negative zero prints as "0".
func FormatFloat(v float64) string {
	scale := math.Pow10(precision)
	r := math.Round(v*scale) / scale
	if r == 0 {
		r = 0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
