package scene

import (
	"bytes"
	"strings"
	"testing"

	ferrors "github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/flow"
	"github.com/matzehuels/flowmap/pkg/geo"
	"github.com/matzehuels/flowmap/pkg/migration"
	"github.com/matzehuels/flowmap/pkg/topo"
)

const sample = `name,California,Texas,New York,Nevada
California,N/A,"38,000",25000,12000
Texas,86000,N/A,19000,12000
New York,30000,9000,N/A,0
Nevada,47000,-5,x,N/A
`

var names = migration.NameIndex{
	"California": "06",
	"Texas":      "48",
	"New York":   "36",
	"Nevada":     "32",
}

// box returns a rectangular feature spanning the given lon/lat range.
func box(id, name string, lon0, lat0, lon1, lat1 float64) topo.Feature {
	return topo.Feature{
		ID:         id,
		Properties: map[string]any{"name": name},
		Polygons: []topo.Polygon{{topo.Ring{
			{lon0, lat0}, {lon1, lat0}, {lon1, lat1}, {lon0, lat1}, {lon0, lat0},
		}}},
	}
}

func features(skip string) []topo.Feature {
	all := []topo.Feature{
		box("06", "California", -124, 34, -118, 40),
		box("48", "Texas", -104, 28, -96, 34),
		box("36", "New York", -78, 41, -74, 44),
		box("32", "Nevada", -118, 36, -114, 41),
	}
	out := all[:0]
	for _, f := range all {
		if f.ID != skip {
			out = append(out, f)
		}
	}
	return out
}

// withSelfLoop adds a flow from California to itself.
var withSelfLoop = strings.Replace(sample, "California,N/A", "California,500", 1)

func newTestComposer(t *testing.T, skip string, opts ...Option) *Composer {
	t.Helper()
	return composerFor(t, sample, skip, opts...)
}

func composerFor(t *testing.T, csv, skip string, opts ...Option) *Composer {
	t.Helper()
	table, err := migration.ReadTable(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ReadTable() error: %v", err)
	}
	g, err := migration.Build(table, names)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return NewComposer(g, geo.NewAdapter(features(skip), nil), opts...)
}

func TestCompose(t *testing.T) {
	c := newTestComposer(t, "")
	s, err := c.Compose(flow.DefaultSelection(), 975)
	if err != nil {
		t.Fatalf("Compose() error: %v", err)
	}

	if s.Width != 975 || s.Height != 610 {
		t.Errorf("viewport = %vx%v, want 975x610", s.Width, s.Height)
	}
	want := []string{"06-48", "06-32", "06-36"}
	got := s.Keys()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
	if len(s.Skipped) != 0 {
		t.Errorf("Skipped = %v, want none", s.Skipped)
	}
	if len(s.Labels) != 4 {
		t.Errorf("Labels = %d, want 4", len(s.Labels))
	}
	for _, f := range s.Flows {
		if f.Source == nil || f.Source.ID != "06" {
			t.Errorf("flow %s has source %v", f.Key, f.Source)
		}
		if f.Geometry.RibbonPath == "" || f.Geometry.ArrowPath == "" {
			t.Errorf("flow %s has empty paths", f.Key)
		}
		if f.Geometry.HitPath != f.Geometry.ArrowPath {
			t.Errorf("flow %s hit path differs from arrow path", f.Key)
		}
	}
}

func TestComposeSkips(t *testing.T) {
	t.Run("outside the map", func(t *testing.T) {
		c := newTestComposer(t, "32")
		s, err := c.Compose(flow.DefaultSelection(), 975)
		if err != nil {
			t.Fatalf("Compose() error: %v", err)
		}
		if _, ok := s.Flow("06-32"); ok {
			t.Error("flow to a location without boundary was drawn")
		}
		if len(s.Skipped) != 1 || s.Skipped[0].Key != "06-32" {
			t.Errorf("Skipped = %v, want [06-32]", s.Skipped)
		}
		if len(s.Labels) != 3 {
			t.Errorf("Labels = %d, want 3", len(s.Labels))
		}
	})

	t.Run("self loop", func(t *testing.T) {
		c := composerFor(t, withSelfLoop, "")
		sel := flow.Selection{Location: "06", Direction: flow.Both, Display: flow.All}
		s, err := c.Compose(sel, 975)
		if err != nil {
			t.Fatalf("Compose() error: %v", err)
		}
		// The self loop appears in both lists: once without length, once
		// as a repeated key.
		if len(s.Skipped) != 2 {
			t.Fatalf("Skipped = %v, want 2 entries", s.Skipped)
		}
		for _, sk := range s.Skipped {
			if sk.Key != "06-06" {
				t.Errorf("skipped %s, want 06-06", sk.Key)
			}
		}
		if s.Skipped[1].Reason != "duplicate id" {
			t.Errorf("second reason = %q, want duplicate id", s.Skipped[1].Reason)
		}
		seen := map[string]bool{}
		for _, k := range s.Keys() {
			if seen[k] {
				t.Errorf("key %s drawn twice", k)
			}
			seen[k] = true
		}
	})
}

func TestComposeErrors(t *testing.T) {
	c := newTestComposer(t, "")
	tests := []struct {
		name  string
		sel   flow.Selection
		width float64
		code  ferrors.Code
	}{
		{"zero width", flow.DefaultSelection(), 0, ferrors.ErrCodeInvalidInput},
		{"negative width", flow.DefaultSelection(), -10, ferrors.ErrCodeInvalidInput},
		{"unknown location", flow.Selection{Location: "99", Direction: flow.Outbound, Display: flow.Top10}, 975, ferrors.ErrCodeNotFound},
		{"bad direction", flow.Selection{Location: "06", Direction: "sideways", Display: flow.Top10}, 975, ferrors.ErrCodeInvalidDirection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Compose(tt.sel, tt.width)
			if !ferrors.Is(err, tt.code) {
				t.Errorf("Compose() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestComposeDeterministic(t *testing.T) {
	c := newTestComposer(t, "")
	a, err := c.Compose(flow.DefaultSelection(), 600)
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.Compose(flow.DefaultSelection(), 600)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Flows {
		if a.Flows[i].Geometry.RibbonPath != b.Flows[i].Geometry.RibbonPath {
			t.Errorf("flow %s ribbon differs between runs", a.Flows[i].Key)
		}
	}
	if a.Height != geo.ViewportHeight(600) {
		t.Errorf("Height = %v, want %v", a.Height, geo.ViewportHeight(600))
	}
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name              string
		prev, next        []string
		enter, upd, exits string
	}{
		{"from nothing", nil, []string{"a", "b"}, "a,b", "", ""},
		{"to nothing", []string{"a", "b"}, nil, "", "", "a,b"},
		{"overlap", []string{"a", "b", "c"}, []string{"c", "d", "a"}, "d", "c,a", "b"},
		{"same", []string{"a"}, []string{"a"}, "", "a", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Diff(tt.prev, tt.next)
			if got := strings.Join(p.Enter, ","); got != tt.enter {
				t.Errorf("Enter = %q, want %q", got, tt.enter)
			}
			if got := strings.Join(p.Update, ","); got != tt.upd {
				t.Errorf("Update = %q, want %q", got, tt.upd)
			}
			if got := strings.Join(p.Exit, ","); got != tt.exits {
				t.Errorf("Exit = %q, want %q", got, tt.exits)
			}
		})
	}

	if !Diff([]string{"a"}, []string{"a"}).Empty() {
		t.Error("identical lists should give an empty patch")
	}
}

func TestDiffScenes(t *testing.T) {
	c := newTestComposer(t, "")
	out, _ := c.Compose(flow.DefaultSelection(), 975)
	in, _ := c.Compose(flow.Selection{Location: "06", Direction: flow.Inbound, Display: flow.Top10}, 975)

	p := DiffScenes(nil, out)
	if len(p.Enter) != len(out.Flows) {
		t.Errorf("first render Enter = %v, want all flows", p.Enter)
	}

	p = DiffScenes(out, in)
	if len(p.Exit) != len(out.Flows) || len(p.Enter) != len(in.Flows) {
		t.Errorf("switching direction: %+v", p)
	}
}

func TestHighlight(t *testing.T) {
	c := newTestComposer(t, "")
	s, _ := c.Compose(flow.DefaultSelection(), 975)

	op := Highlight(s, "06-36")
	for key, v := range op {
		want := DimOpacity
		if key == "06-36" {
			want = 1
		}
		if v != want {
			t.Errorf("opacity of %s = %v, want %v", key, v, want)
		}
	}
	for key, v := range Reset(s) {
		if v != 1 {
			t.Errorf("reset opacity of %s = %v", key, v)
		}
	}
}

func TestFormatShare(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{0, "0%"},
		{0.0005, "<0.1%"},
		{0.001, "0.1%"},
		{0.0123, "1.2%"},
		{0.05, "5%"},
		{0.0996, "10%"},
		{0.456, "46%"},
		{1, "100%"},
	}
	for _, tt := range tests {
		if got := FormatShare(tt.v); got != tt.want {
			t.Errorf("FormatShare(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestNewTooltip(t *testing.T) {
	c := newTestComposer(t, "")
	s, _ := c.Compose(flow.DefaultSelection(), 975)
	f, ok := s.Flow("06-48")
	if !ok {
		t.Fatal("missing flow 06-48")
	}
	tip := NewTooltip(f)

	if tip.Source != "California" || tip.Target != "Texas" {
		t.Errorf("names = %q -> %q", tip.Source, tip.Target)
	}
	if tip.Value != "86,000" {
		t.Errorf("Value = %q, want 86,000", tip.Value)
	}
	// California sends 86000+47000+30000 and Texas receives 86000+19000+12000.
	if want := 86000.0 / 163000; tip.OutboundShare != want {
		t.Errorf("OutboundShare = %v, want %v", tip.OutboundShare, want)
	}
	if want := 86000.0 / 117000; tip.InboundShare != want {
		t.Errorf("InboundShare = %v, want %v", tip.InboundShare, want)
	}
}

func TestShareClamps(t *testing.T) {
	tests := []struct {
		value, total, want float64
	}{
		{5, 10, 0.5},
		{20, 10, 1},
		{5, 0, 0},
		{-1, 10, 0},
	}
	for _, tt := range tests {
		if got := Share(tt.value, tt.total); got != tt.want {
			t.Errorf("Share(%v, %v) = %v, want %v", tt.value, tt.total, got, tt.want)
		}
	}
}

func TestPlace(t *testing.T) {
	tip := Box{Width: 100, Height: 50}
	tests := []struct {
		name   string
		px, py float64
		x, y   float64
	}{
		{"centred above", 300, 200, 250, 142},
		{"clamped left", 10, 200, 0, 142},
		{"clamped right", 590, 200, 500, 142},
		{"flipped below", 300, 30, 250, 38},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := Place(tt.px, tt.py, tip, 600)
			if x != tt.x || y != tt.y {
				t.Errorf("Place() = (%v, %v), want (%v, %v)", x, y, tt.x, tt.y)
			}
		})
	}
}

func TestPiePaths(t *testing.T) {
	if got := PieFillPath(0); got != "" {
		t.Errorf("PieFillPath(0) = %q, want empty", got)
	}

	full := PieFillPath(1)
	if !strings.Contains(full, "A31,31,0,1,1") || !strings.Contains(full, "A18.6,18.6,0,1,0") {
		t.Errorf("PieFillPath(1) = %q", full)
	}
	if !strings.HasSuffix(full, "Z") {
		t.Errorf("PieFillPath(1) is not closed: %q", full)
	}
	if part := PieFillPath(0.3); !strings.Contains(part, "A31,31,0,0,1") {
		t.Errorf("PieFillPath(0.3) should use the small arc: %q", part)
	}
	if outline := PieOutlinePath(); strings.Contains(outline, "Z") || full[:strings.Index(full, "A")] != outline[:strings.Index(outline, "A")] {
		t.Errorf("PieOutlinePath() = %q", outline)
	}
}

func TestRenderPie(t *testing.T) {
	var buf bytes.Buffer
	RenderPie(&buf, 10, 20, 0.25, OutboundColor, "outbound")
	out := buf.String()
	for _, want := range []string{`translate(42,52)`, `fill="#fecd04"`, ">25%<"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderPie() missing %q in %s", want, out)
		}
	}
}

func TestRenderLegend(t *testing.T) {
	var buf bytes.Buffer
	RenderLegend(&buf, 0, 0, flow.NewWidthScale(100000), DefaultPalette())
	out := buf.String()
	for _, want := range []string{
		`id="flow-legend-gradient"`,
		`id="flow-legend-arrowhead"`,
		">Outbound<", ">Inbound<",
		">100<", ">1,000<", ">10,000<", ">100,000<",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderLegend() missing %q", want)
		}
	}
	if got := strings.Count(out, `url(#flow-legend-gradient)`); got != len(LegendValues) {
		t.Errorf("legend has %d wedges, want %d", got, len(LegendValues))
	}
	if LegendHeight() != 112 {
		t.Errorf("LegendHeight() = %d, want 112", LegendHeight())
	}
}

func TestLegendOrigin(t *testing.T) {
	tests := []struct {
		name          string
		width, height float64
		max           float64
		x, y          int
		ok            bool
	}{
		{"full viewport", 975, 610, 86000, 815, 498, true},
		{"narrow viewport", 120, 75, 86000, 0, 0, true},
		{"single person", 975, 610, 1, 815, 498, true},
		{"empty graph", 975, 610, 0, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, ok := LegendOrigin(tt.width, tt.height, flow.NewWidthScale(tt.max))
			if x != tt.x || y != tt.y || ok != tt.ok {
				t.Errorf("LegendOrigin() = (%d, %d, %v), want (%d, %d, %v)", x, y, ok, tt.x, tt.y, tt.ok)
			}
		})
	}
}

func TestLegendWedgePath(t *testing.T) {
	if got := LegendWedgePath(24); got != "M1,0L104,-12L104,12Z" {
		t.Errorf("LegendWedgePath(24) = %q", got)
	}
}

func TestFadeIn(t *testing.T) {
	frames := FadeIn(EnterDuration, 8)
	if len(frames) != 9 {
		t.Fatalf("FadeIn() = %d frames, want 9", len(frames))
	}
	if frames[0] != 0 || frames[8] != 1 {
		t.Errorf("FadeIn() ends = %v, %v", frames[0], frames[8])
	}
	for i := 1; i < len(frames); i++ {
		if frames[i] < frames[i-1] {
			t.Errorf("frame %d decreases: %v", i, frames)
		}
	}
	if got := FadeIn(0, 8); len(got) != 1 || got[0] != 1 {
		t.Errorf("FadeIn(0) = %v, want [1]", got)
	}
}
