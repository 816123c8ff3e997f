package flow

import (
	"math"

	"github.com/matzehuels/flowmap/pkg/bezier"
	ferrors "github.com/matzehuels/flowmap/pkg/errors"
)

const (
	// EndOffset is the gap left between a flow and its target centroid.
	EndOffset = 12

	// ArrowInset shortens the arrow further so the arrowhead marker does not
	// cover the target.
	ArrowInset = 4

	// minSplit bounds the split parameters of very short flows, which would
	// otherwise vanish or turn backwards.
	minSplit = 0.1
)

// Geometry is the drawable shape of one flow.
type Geometry struct {
	// Curve approximates the arc from source to target.
	Curve  bezier.Cubic `json:"-"`
	Length float64      `json:"length"`

	// Radius is the ribbon half-width.
	Radius float64 `json:"radius"`

	// Arrow is the curve the arrow follows, Ribbon the shorter curve the
	// ribbon is built around and Outline the ribbon's closed outline.
	Arrow   bezier.Cubic   `json:"-"`
	Ribbon  bezier.Cubic   `json:"-"`
	Outline []bezier.Cubic `json:"-"`

	ArrowPath  string `json:"arrowPath"`
	RibbonPath string `json:"ribbonPath"`
	HitPath    string `json:"hitPath"`

	// Rotation orients the colour gradient, in whole degrees.
	Rotation int `json:"rotation"`
}

// GeometryOption customises [BuildGeometry].
type GeometryOption func(*geometryConfig)

type geometryConfig struct {
	taper bool
}

// WithTaper draws ribbons that grow from zero width at the source to their
// full width at the target instead of keeping a constant width.
func WithTaper(taper bool) GeometryOption {
	return func(c *geometryConfig) { c.taper = taper }
}

// Arc returns the cubic approximating the circular arc from source to
// target whose radius equals their distance.
func Arc(source, target bezier.Point) (bezier.Cubic, error) {
	r := source.Dist(target)
	if r == 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		return bezier.Cubic{}, ferrors.New(ferrors.ErrCodeInvalidInput,
			"flow from %v to %v has no length", source, target)
	}
	curves := bezier.ArcToCubics(bezier.Arc{From: source, To: target, RX: r, RY: r})
	if len(curves) == 0 {
		return bezier.Cubic{}, ferrors.New(ferrors.ErrCodeInvalidInput,
			"flow from %v to %v has no arc", source, target)
	}
	c := curves[0]
	return bezier.Cubic{source, c[1], c[2], target}, nil
}

// BuildGeometry computes the arrow, ribbon and hit paths of a flow of the
// given magnitude. It is a pure function of its inputs. Source and target
// must differ.
func BuildGeometry(source, target bezier.Point, magnitude float64, scale WidthScale, opts ...GeometryOption) (Geometry, error) {
	var cfg geometryConfig
	for _, o := range opts {
		o(&cfg)
	}

	curve, err := Arc(source, target)
	if err != nil {
		return Geometry{}, err
	}
	length := curve.Length()
	radius := scale.Scale(magnitude) / 2

	arrow, _ := curve.Split(splitAt(length, EndOffset+ArrowInset))
	ribbon, _ := curve.Split(splitAt(length, EndOffset+radius))

	var outline []bezier.Cubic
	if cfg.taper {
		outline, err = ribbon.OutlineGraduated(0, 0, radius, radius)
	} else {
		outline, err = ribbon.Outline(radius, radius)
	}
	if err != nil {
		return Geometry{}, ferrors.Wrap(ferrors.ErrCodeInternal, err,
			"outline flow from %v to %v", source, target)
	}
	stretchCap(outline, ribbon.Tangent(1), radius)

	arrowPath := bezier.PathString(arrow)
	return Geometry{
		Curve:      curve,
		Length:     length,
		Radius:     radius,
		Arrow:      arrow,
		Ribbon:     ribbon,
		Outline:    outline,
		ArrowPath:  arrowPath,
		RibbonPath: bezier.PathString(outline...),
		HitPath:    arrowPath,
		Rotation:   Rotation(source, target),
	}, nil
}

// splitAt returns the parameter that leaves gap units of a curve of the
// given length before its end.
func splitAt(length, gap float64) float64 {
	return math.Max(minSplit, math.Min(1, (length-gap)/length))
}

// stretchCap pushes the control points of the end cap out along the end
// tangent by r·π/2, rounding the flat cap into an elongated tip.
func stretchCap(outline []bezier.Cubic, tangent bezier.Point, r float64) {
	i := bezier.EndCapIndex(len(outline))
	if i >= len(outline) {
		return
	}
	off := tangent.Mul(r * math.Pi / 2)
	c := &outline[i]
	c[1] = c[0].Add(off)
	c[2] = c[3].Add(off)
}

// Rotation returns the direction from source to target in whole degrees.
func Rotation(source, target bezier.Point) int {
	d := target.Sub(source)
	return int(math.Round(math.Atan2(d.Y, d.X) * 180 / math.Pi))
}
