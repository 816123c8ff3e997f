package sink

import (
	"bytes"
	"image/color"
	"image/png"

	"git.sr.ht/~sbinet/gg"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font/basicfont"

	"github.com/matzehuels/flowmap/pkg/bezier"
	ferrors "github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/geo"
	"github.com/matzehuels/flowmap/pkg/scene"
)

// gradientSteps is the number of Lab-blended stops between the two palette
// colours; gg itself interpolates in RGB.
const gradientSteps = 6

var (
	pngBackground = color.White
	pngBoundary   = color.NRGBA{0xa0, 0xa0, 0xa0, 0xff}
	pngArrow      = color.NRGBA{0x4d, 0x4d, 0x4d, 0xff}
	pngText       = color.NRGBA{0x1a, 0x1a, 0x1a, 0xff}
)

// PNGOption configures PNG rendering.
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	scale     float64
	highlight string
}

// WithScale sets the PNG scale factor (default 2.0 for 2x resolution).
func WithScale(s float64) PNGOption {
	return func(r *pngRenderer) { r.scale = s }
}

// WithHighlight draws the scene as if the flow with the given key were
// hovered.
func WithHighlight(key string) PNGOption {
	return func(r *pngRenderer) { r.highlight = key }
}

// RenderPNG rasterises the scene.
func RenderPNG(s *scene.Scene, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{scale: 2.0}
	for _, opt := range opts {
		opt(&r)
	}
	if r.scale <= 0 {
		return nil, ferrors.New(ferrors.ErrCodeInvalidInput, "png scale must be positive, got %v", r.scale)
	}

	outbound, err := colorful.Hex(s.Palette.Outbound)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "outbound colour %q", s.Palette.Outbound)
	}
	inbound, err := colorful.Hex(s.Palette.Inbound)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "inbound colour %q", s.Palette.Inbound)
	}

	opacity := scene.Reset(s)
	if r.highlight != "" {
		opacity = scene.Highlight(s, r.highlight)
	}

	dc := gg.NewContext(int(s.Width*r.scale+0.5), int(s.Height*r.scale+0.5))
	dc.SetColor(pngBackground)
	dc.Clear()
	dc.Scale(r.scale, r.scale)

	drawBoundary(dc, s.BoundaryLines)
	for _, f := range s.Flows {
		drawRibbon(dc, f, outbound, inbound, opacity[f.Key], r.scale)
	}
	for _, f := range s.Flows {
		drawArrow(dc, f, opacity[f.Key])
	}
	drawLabels(dc, s.Labels)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInternal, err, "encode png")
	}
	return buf.Bytes(), nil
}

func drawBoundary(dc *gg.Context, lines [][]geo.Point) {
	for _, l := range lines {
		for i, p := range l {
			if i == 0 {
				dc.MoveTo(p.X, p.Y)
			} else {
				dc.LineTo(p.X, p.Y)
			}
		}
	}
	dc.SetColor(pngBoundary)
	dc.SetLineWidth(1)
	dc.Stroke()
}

// drawRibbon fills a ribbon with a gradient running from the flow's source
// to its target. Gradients are evaluated in device space, hence the scale.
func drawRibbon(dc *gg.Context, f scene.Flow, outbound, inbound colorful.Color, alpha, scale float64) {
	outline := f.Geometry.Outline
	if len(outline) == 0 {
		return
	}
	start := outline[0].Start()
	dc.MoveTo(start.X, start.Y)
	for _, c := range outline {
		cubicTo(dc, c)
	}
	dc.ClosePath()

	grad := gg.NewLinearGradient(f.From.X*scale, f.From.Y*scale, f.To.X*scale, f.To.Y*scale)
	grad.AddColorStop(0, withAlpha(outbound, alpha))
	for i := 0; i <= gradientSteps; i++ {
		t := float64(i) / gradientSteps
		grad.AddColorStop(0.25+0.75*t, withAlpha(outbound.BlendLab(inbound, t).Clamped(), alpha))
	}
	dc.SetFillStyle(grad)
	dc.Fill()
}

func drawArrow(dc *gg.Context, f scene.Flow, alpha float64) {
	arrow := f.Geometry.Arrow
	start, tip := arrow.Start(), arrow.End()
	if start == tip {
		return
	}
	dc.MoveTo(start.X, start.Y)
	cubicTo(dc, arrow)
	c := pngArrow
	c.A = uint8(alpha*255 + 0.5)
	dc.SetColor(c)
	dc.SetLineWidth(1)
	dc.Stroke()

	d := tip.Sub(arrow[2])
	if d.Len() == 0 {
		return
	}
	dir := d.Unit()
	// The marker is 5 units long and wide with its tip on the path end.
	back := tip.Sub(dir.Mul(5))
	side := bezier.Pt(-dir.Y, dir.X).Mul(2.5)
	dc.MoveTo(tip.X, tip.Y)
	dc.LineTo(back.X+side.X, back.Y+side.Y)
	dc.LineTo(back.X-side.X, back.Y-side.Y)
	dc.ClosePath()
	dc.Fill()
}

func drawLabels(dc *gg.Context, labels []scene.Label) {
	dc.SetFontFace(basicfont.Face7x13)
	for _, l := range labels {
		dc.SetColor(color.White)
		for _, d := range [][2]float64{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
			dc.DrawStringAnchored(l.Text, l.At.X+d[0], l.At.Y+d[1], 0.5, 0.5)
		}
		dc.SetColor(pngText)
		dc.DrawStringAnchored(l.Text, l.At.X, l.At.Y, 0.5, 0.5)
	}
}

func cubicTo(dc *gg.Context, c bezier.Cubic) {
	dc.CubicTo(c[1].X, c[1].Y, c[2].X, c[2].Y, c[3].X, c[3].Y)
}

func withAlpha(c colorful.Color, alpha float64) color.NRGBA {
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: uint8(alpha*255 + 0.5)}
}
