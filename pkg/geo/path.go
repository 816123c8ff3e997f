package geo

import (
	"math"
	"strconv"
	"strings"
)

// pathPrecision is the number of decimals kept in boundary path data.
const pathPrecision = 2

// PathString writes projected rings as closed SVG subpaths.
func PathString(rings [][]Point) string {
	var b strings.Builder
	for _, ring := range rings {
		ring = openRing(ring)
		if len(ring) == 0 {
			continue
		}
		appendPolyline(&b, ring)
		b.WriteByte('Z')
	}
	return b.String()
}

// LinesPath writes projected lines as open SVG subpaths.
func LinesPath(lines [][]Point) string {
	var b strings.Builder
	for _, line := range lines {
		if len(line) < 2 {
			continue
		}
		appendPolyline(&b, line)
	}
	return b.String()
}

func appendPolyline(b *strings.Builder, pts []Point) {
	for i, p := range pts {
		if i == 0 {
			b.WriteByte('M')
		} else {
			b.WriteByte('L')
		}
		b.WriteString(formatCoord(p.X))
		b.WriteByte(',')
		b.WriteString(formatCoord(p.Y))
	}
}

func formatCoord(v float64) string {
	scale := math.Pow10(pathPrecision)
	r := math.Round(v*scale) / scale
	if r == 0 {
		r = 0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// openRing drops the closing duplicate of a closed ring.
func openRing(ring []Point) []Point {
	if n := len(ring); n > 1 && ring[0] == ring[n-1] {
		return ring[:n-1]
	}
	return ring
}

// Centroid returns the planar centroid of projected rings. Rings are
// weighted by signed area, so holes subtract. When the total area is zero
// the centroid of the outlines is used, and failing that the mean of the
// vertices. ok is false when there are no vertices at all.
func Centroid(rings [][]Point) (Point, bool) {
	var areaX, areaY, areaZ float64
	var lineX, lineY, lineZ float64
	var ptX, ptY, ptZ float64

	for _, ring := range rings {
		ring = openRing(ring)
		n := len(ring)
		for i := range n {
			p := ring[i]
			ptX += p.X
			ptY += p.Y
			ptZ++

			q := ring[(i+1)%n]
			l := math.Hypot(q.X-p.X, q.Y-p.Y)
			lineX += l * (p.X + q.X) / 2
			lineY += l * (p.Y + q.Y) / 2
			lineZ += l

			z := p.Y*q.X - p.X*q.Y
			areaX += z * (p.X + q.X)
			areaY += z * (p.Y + q.Y)
			areaZ += z * 3
		}
	}

	switch {
	case areaZ != 0:
		return Point{areaX / areaZ, areaY / areaZ}, true
	case lineZ != 0:
		return Point{lineX / lineZ, lineY / lineZ}, true
	case ptZ != 0:
		return Point{ptX / ptZ, ptY / ptZ}, true
	}
	return Point{}, false
}
