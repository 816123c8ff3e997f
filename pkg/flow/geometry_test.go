package flow

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/matzehuels/flowmap/pkg/bezier"
	ferrors "github.com/matzehuels/flowmap/pkg/errors"
)

func TestSqrtScale(t *testing.T) {
	s := NewWidthScale(10000)

	tests := []struct {
		in   float64
		want float64
	}{
		{1, 1},
		{10000, 24},
		{2500, 1 + 23*(50-1)/(100-1.0)},
	}
	for _, tt := range tests {
		if got := s.Scale(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Scale(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if got := (SqrtScale{Domain: [2]float64{1, 1}, Range: [2]float64{1, 24}}).Scale(1); got != 12.5 {
		t.Errorf("degenerate Scale() = %v, want 12.5", got)
	}
}

func TestSqrtScaleMonotonic(t *testing.T) {
	s := NewWidthScale(86000)
	prev := s.Scale(1)
	for v := 2.0; v <= 86000; v *= 1.7 {
		got := s.Scale(v)
		if got < prev {
			t.Fatalf("Scale(%v) = %v < %v", v, got, prev)
		}
		prev = got
	}
}

func TestBuildGeometry(t *testing.T) {
	scale := NewWidthScale(1000)
	src, dst := bezier.Pt(100, 400), bezier.Pt(600, 150)

	g, err := BuildGeometry(src, dst, 1000, scale)
	if err != nil {
		t.Fatalf("BuildGeometry() error: %v", err)
	}

	if g.Radius != 12 {
		t.Errorf("Radius = %v, want 12", g.Radius)
	}
	if g.Curve.Start() != src || g.Curve.End() != dst {
		t.Errorf("Curve runs %v..%v, want %v..%v", g.Curve.Start(), g.Curve.End(), src, dst)
	}
	// A 60° arc is π/3 times its radius long.
	if want := src.Dist(dst) * math.Pi / 3; math.Abs(g.Length-want) > 0.01 {
		t.Errorf("Length = %v, want ~%v", g.Length, want)
	}
	if g.Rotation != -27 {
		t.Errorf("Rotation = %d, want -27", g.Rotation)
	}
	if g.HitPath != g.ArrowPath {
		t.Error("HitPath should follow the arrow path")
	}
	if !strings.HasPrefix(g.ArrowPath, "M 100 400 C ") {
		t.Errorf("ArrowPath = %q, want it to start at the source", g.ArrowPath)
	}
	if strings.Count(g.ArrowPath, "C") != 1 {
		t.Errorf("ArrowPath should be a single cubic: %q", g.ArrowPath)
	}
	if strings.Count(g.RibbonPath, "M") != 1 || strings.Count(g.RibbonPath, "C") < 4 {
		t.Errorf("RibbonPath is not a closed outline: %q", g.RibbonPath)
	}
}

// pathEnd returns the last point of path data.
func pathEnd(t *testing.T, d string) bezier.Point {
	t.Helper()
	f := strings.Fields(d)
	if len(f) < 2 {
		t.Fatalf("path %q has no end point", d)
	}
	x, errX := strconv.ParseFloat(f[len(f)-2], 64)
	y, errY := strconv.ParseFloat(f[len(f)-1], 64)
	if errX != nil || errY != nil {
		t.Fatalf("path %q does not end in a point", d)
	}
	return bezier.Pt(x, y)
}

func TestBuildGeometryArrowStopsShort(t *testing.T) {
	src, dst := bezier.Pt(0, 0), bezier.Pt(300, 0)
	g, err := BuildGeometry(src, dst, 10, NewWidthScale(100))
	if err != nil {
		t.Fatalf("BuildGeometry() error: %v", err)
	}
	end := pathEnd(t, g.ArrowPath)
	if end.Dist(g.Arrow.End()) > 1e-3 {
		t.Errorf("ArrowPath ends at %v, arrow curve at %v", end, g.Arrow.End())
	}
	want := float64(EndOffset + ArrowInset)
	if gap := end.Dist(dst); math.Abs(gap-want) > 1 {
		t.Errorf("arrow ends %v from the target, want ~%v", gap, want)
	}
}

func TestBuildGeometryRibbonStopsShort(t *testing.T) {
	src, dst := bezier.Pt(0, 0), bezier.Pt(300, 0)
	for _, magnitude := range []float64{1, 25, 100} {
		g, err := BuildGeometry(src, dst, magnitude, NewWidthScale(100))
		if err != nil {
			t.Fatalf("BuildGeometry(%v) error: %v", magnitude, err)
		}
		if g.Ribbon.Start() != src {
			t.Errorf("ribbon starts at %v, want the source", g.Ribbon.Start())
		}
		want := EndOffset + g.Radius
		if gap := g.Ribbon.End().Dist(dst); math.Abs(gap-want) > 1 {
			t.Errorf("magnitude %v: ribbon ends %v from the target, want ~%v", magnitude, gap, want)
		}
		if g.Radius > ArrowInset && g.Ribbon.End().Dist(dst) <= g.Arrow.End().Dist(dst) {
			t.Errorf("magnitude %v: ribbon should stop before the arrow", magnitude)
		}
	}
}

func TestBuildGeometryEndCap(t *testing.T) {
	src, dst := bezier.Pt(100, 400), bezier.Pt(600, 150)
	g, err := BuildGeometry(src, dst, 1000, NewWidthScale(1000))
	if err != nil {
		t.Fatalf("BuildGeometry() error: %v", err)
	}
	i := bezier.EndCapIndex(len(g.Outline))
	if i >= len(g.Outline) {
		t.Fatalf("outline of %d pieces has no end cap", len(g.Outline))
	}
	capCurve := g.Outline[i]
	tangent := g.Ribbon.Tangent(1)
	off := tangent.Mul(g.Radius * math.Pi / 2)

	near := func(a, b bezier.Point) bool { return a.Dist(b) < 1e-9 }
	if !near(capCurve[1], capCurve[0].Add(off)) {
		t.Errorf("cap control 1 = %v, want %v", capCurve[1], capCurve[0].Add(off))
	}
	if !near(capCurve[2], capCurve[3].Add(off)) {
		t.Errorf("cap control 2 = %v, want %v", capCurve[2], capCurve[3].Add(off))
	}

	// The cap spans the ribbon width across its end.
	end := g.Ribbon.End()
	for _, p := range []bezier.Point{capCurve[0], capCurve[3]} {
		if d := p.Dist(end); math.Abs(d-g.Radius) > 0.01 {
			t.Errorf("cap end %v is %v from the ribbon end, want %v", p, d, g.Radius)
		}
	}
	// A flat cap would keep its middle on the ribbon end.
	tip := capCurve.At(0.5).Sub(end).Dot(tangent)
	if want := 0.75 * g.Radius * math.Pi / 2; math.Abs(tip-want) > 0.01 {
		t.Errorf("cap bulges %v past the ribbon end, want %v", tip, want)
	}
	if !strings.Contains(g.RibbonPath, bezier.PathString(capCurve)[len("M "):]) {
		t.Error("RibbonPath does not contain the stretched cap")
	}
}

func TestBuildGeometryDeterministic(t *testing.T) {
	scale := NewWidthScale(50000)
	src, dst := bezier.Pt(123.456, 78.9), bezier.Pt(512.3, 301.7)

	a, err := BuildGeometry(src, dst, 20000, scale)
	if err != nil {
		t.Fatalf("BuildGeometry() error: %v", err)
	}
	b, _ := BuildGeometry(src, dst, 20000, scale)
	if a.ArrowPath != b.ArrowPath || a.RibbonPath != b.RibbonPath || a.Rotation != b.Rotation {
		t.Error("BuildGeometry() is not deterministic")
	}
}

func TestBuildGeometryWidthIndependentOfViewport(t *testing.T) {
	scale := NewWidthScale(50000)
	wide, _ := BuildGeometry(bezier.Pt(100, 100), bezier.Pt(800, 300), 20000, scale)
	narrow, _ := BuildGeometry(bezier.Pt(50, 50), bezier.Pt(400, 150), 20000, scale)
	if wide.Radius != narrow.Radius {
		t.Errorf("radius changed with viewport: %v vs %v", wide.Radius, narrow.Radius)
	}
}

func TestBuildGeometryOppositeFlowsDiffer(t *testing.T) {
	scale := NewWidthScale(100)
	a, b := bezier.Pt(100, 100), bezier.Pt(400, 200)
	ab, _ := BuildGeometry(a, b, 50, scale)
	ba, _ := BuildGeometry(b, a, 50, scale)
	if ab.Curve.At(0.5) == ba.Curve.At(0.5) {
		t.Error("opposite flows overlap")
	}
	if ab.Rotation == ba.Rotation {
		t.Error("opposite flows share a rotation")
	}
}

func TestBuildGeometryTaper(t *testing.T) {
	scale := NewWidthScale(100)
	src, dst := bezier.Pt(0, 0), bezier.Pt(400, 0)
	flat, err := BuildGeometry(src, dst, 100, scale)
	if err != nil {
		t.Fatalf("BuildGeometry() error: %v", err)
	}
	taper, err := BuildGeometry(src, dst, 100, scale, WithTaper(true))
	if err != nil {
		t.Fatalf("BuildGeometry(taper) error: %v", err)
	}
	if flat.RibbonPath == taper.RibbonPath {
		t.Error("taper option has no effect")
	}
	if !strings.HasPrefix(taper.RibbonPath, "M 0 0 ") {
		t.Errorf("tapered ribbon should start at the source: %q", taper.RibbonPath[:20])
	}
}

func TestBuildGeometryZeroLength(t *testing.T) {
	p := bezier.Pt(10, 10)
	_, err := BuildGeometry(p, p, 5, NewWidthScale(10))
	if !ferrors.Is(err, ferrors.ErrCodeInvalidInput) {
		t.Errorf("BuildGeometry() error = %v, want INVALID_INPUT", err)
	}
}

func TestBuildGeometryShortFlow(t *testing.T) {
	g, err := BuildGeometry(bezier.Pt(0, 0), bezier.Pt(5, 0), 1, NewWidthScale(10))
	if err != nil {
		t.Fatalf("BuildGeometry() error: %v", err)
	}
	if g.ArrowPath == "" || g.RibbonPath == "" {
		t.Error("short flow should still produce paths")
	}
}

func TestRotation(t *testing.T) {
	tests := []struct {
		to   bezier.Point
		want int
	}{
		{bezier.Pt(1, 0), 0},
		{bezier.Pt(0, 1), 90},
		{bezier.Pt(-1, 0), 180},
		{bezier.Pt(0, -1), -90},
		{bezier.Pt(1, 1), 45},
	}
	for _, tt := range tests {
		if got := Rotation(bezier.Pt(0, 0), tt.to); got != tt.want {
			t.Errorf("Rotation(0,0 -> %v) = %d, want %d", tt.to, got, tt.want)
		}
	}
}
