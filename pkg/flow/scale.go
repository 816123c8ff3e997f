package flow

import "math"

// Width range of the default scale, in pixels.
const (
	MinWidth = 1
	MaxWidth = 24
)

// WidthScale maps a magnitude to a ribbon width.
type WidthScale interface {
	Scale(v float64) float64
}

// SqrtScale is a square-root scale: the output grows with the square root
// of the input, so the drawn area grows linearly with magnitude. It is not
// clamped; inputs outside the domain extrapolate.
type SqrtScale struct {
	Domain [2]float64
	Range  [2]float64
}

// NewWidthScale returns the scale mapping [1, maxMagnitude] onto
// [MinWidth, MaxWidth].
func NewWidthScale(maxMagnitude float64) SqrtScale {
	return SqrtScale{
		Domain: [2]float64{1, maxMagnitude},
		Range:  [2]float64{MinWidth, MaxWidth},
	}
}

// Scale implements [WidthScale]. A degenerate domain maps everything to
// the middle of the range.
func (s SqrtScale) Scale(v float64) float64 {
	d0, d1 := signedSqrt(s.Domain[0]), signedSqrt(s.Domain[1])
	t := 0.5
	if d1 != d0 {
		t = (signedSqrt(v) - d0) / (d1 - d0)
	}
	return s.Range[0] + t*(s.Range[1]-s.Range[0])
}

func signedSqrt(v float64) float64 {
	if v < 0 {
		return -math.Sqrt(-v)
	}
	return math.Sqrt(v)
}
