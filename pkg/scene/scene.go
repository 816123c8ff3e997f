package scene

import (
	"io"
	"math"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowmap/pkg/bezier"
	ferrors "github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/flow"
	"github.com/matzehuels/flowmap/pkg/geo"
	"github.com/matzehuels/flowmap/pkg/migration"
)

// Default flow colours: a ribbon runs from the outbound colour at its
// source to the inbound colour at its target.
const (
	OutboundColor = "#fecd04"
	InboundColor  = "#00adb3"
)

// Palette holds the two gradient colours.
type Palette struct {
	Outbound string `json:"outbound" toml:"outbound" yaml:"outbound"`
	Inbound  string `json:"inbound" toml:"inbound" yaml:"inbound"`
}

// DefaultPalette returns the default colours.
func DefaultPalette() Palette {
	return Palette{Outbound: OutboundColor, Inbound: InboundColor}
}

// Flow is one drawn flow.
type Flow struct {
	Key      string              `json:"id"`
	Source   *migration.Location `json:"source"`
	Target   *migration.Location `json:"target"`
	From     geo.Point           `json:"from"`
	To       geo.Point           `json:"to"`
	Value    float64             `json:"value"`
	Geometry flow.Geometry       `json:"geometry"`
}

// Label marks a location with its abbreviation at its centroid.
type Label struct {
	ID   string    `json:"id"`
	Text string    `json:"text"`
	At   geo.Point `json:"at"`
}

// Skipped records a selected flow that could not be drawn.
type Skipped struct {
	Key    string `json:"id"`
	Reason string `json:"reason"`
}

// Scene is the full description of one rendering.
type Scene struct {
	Width     float64        `json:"width"`
	Height    float64        `json:"height"`
	Selection flow.Selection `json:"selection"`
	Palette   Palette        `json:"palette"`

	// Boundary is the SVG path data of the location borders, BoundaryLines
	// the same borders as polylines.
	Boundary      string        `json:"boundary"`
	BoundaryLines [][]geo.Point `json:"-"`

	// Flows in drawing order: the first flow is drawn at the bottom.
	Flows   []Flow    `json:"flows"`
	Labels  []Label   `json:"labels"`
	Skipped []Skipped `json:"skipped,omitempty"`

	Scale flow.SqrtScale `json:"scale"`
}

// Flow returns the flow with the given key.
func (s *Scene) Flow(key string) (Flow, bool) {
	for _, f := range s.Flows {
		if f.Key == key {
			return f, true
		}
	}
	return Flow{}, false
}

// Keys returns the flow keys in drawing order.
func (s *Scene) Keys() []string {
	keys := make([]string, len(s.Flows))
	for i, f := range s.Flows {
		keys[i] = f.Key
	}
	return keys
}

// Option configures a [Composer].
type Option func(*Composer)

// WithTaper draws tapered ribbons.
func WithTaper(taper bool) Option { return func(c *Composer) { c.taper = taper } }

// WithPalette overrides the gradient colours.
func WithPalette(p Palette) Option { return func(c *Composer) { c.palette = p } }

// WithLogger sets the logger used to report skipped flows.
func WithLogger(l *log.Logger) Option { return func(c *Composer) { c.logger = l } }

// Composer turns selections into scenes for one dataset.
type Composer struct {
	graph   *migration.Graph
	adapter *geo.Adapter
	scale   flow.SqrtScale
	palette Palette
	taper   bool
	logger  *log.Logger

	mu     sync.Mutex
	layout *geo.Layout
}

// NewComposer returns a composer for the graph and the projected features.
// The width scale spans the largest magnitude of the whole graph, so ribbon
// widths do not depend on the selection.
func NewComposer(g *migration.Graph, a *geo.Adapter, opts ...Option) *Composer {
	c := &Composer{
		graph:   g,
		adapter: a,
		scale:   flow.NewWidthScale(g.MaxMagnitude()),
		palette: DefaultPalette(),
		logger:  log.New(io.Discard),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Graph returns the composer's graph.
func (c *Composer) Graph() *migration.Graph { return c.graph }

// Scale returns the width scale.
func (c *Composer) Scale() flow.SqrtScale { return c.scale }

// Layout returns the projected layout for a viewport width. The most recent
// layout is reused while the width does not change.
func (c *Composer) Layout(width float64) geo.Layout {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.layout == nil || c.layout.Width != width {
		l := c.adapter.Layout(width)
		c.layout = &l
	}
	return *c.layout
}

// Compose selects the flows for sel, builds their geometry for a viewport of
// the given width and returns the resulting scene. Flows whose end points
// have no centroid, repeat an earlier key or have no length are left out
// and listed in Scene.Skipped.
func (c *Composer) Compose(sel flow.Selection, width float64) (*Scene, error) {
	if width <= 0 || math.IsNaN(width) || math.IsInf(width, 0) {
		return nil, ferrors.New(ferrors.ErrCodeInvalidInput, "viewport width must be positive, got %v", width)
	}
	edges, err := flow.Select(c.graph, sel)
	if err != nil {
		return nil, err
	}
	layout := c.Layout(width)

	s := &Scene{
		Width:     layout.Width,
		Height:    layout.Height,
		Selection: sel,
		Palette:   c.palette,
		Scale:     c.scale,
		Flows:     make([]Flow, 0, len(edges)),

		Boundary:      layout.Boundary,
		BoundaryLines: layout.Lines,
	}

	seen := make(map[string]bool, len(edges))
	skip := func(key, reason string) {
		c.logger.Debug("skip flow", "id", key, "reason", reason)
		s.Skipped = append(s.Skipped, Skipped{Key: key, Reason: reason})
	}
	for _, e := range edges {
		key := e.Key()
		if seen[key] {
			skip(key, "duplicate id")
			continue
		}
		seen[key] = true

		from, okFrom := layout.Centroids[e.Source]
		to, okTo := layout.Centroids[e.Target]
		if !okFrom || !okTo {
			skip(key, "location outside the map")
			continue
		}
		g, err := flow.BuildGeometry(toBezier(from), toBezier(to), e.Value, c.scale, flow.WithTaper(c.taper))
		if err != nil {
			skip(key, ferrors.UserMessage(err))
			continue
		}
		src, _ := c.graph.Location(e.Source)
		dst, _ := c.graph.Location(e.Target)
		s.Flows = append(s.Flows, Flow{
			Key:      key,
			Source:   src,
			Target:   dst,
			From:     from,
			To:       to,
			Value:    e.Value,
			Geometry: g,
		})
	}

	for _, l := range c.graph.Locations() {
		at, ok := layout.Centroids[l.ID]
		if !ok {
			continue
		}
		s.Labels = append(s.Labels, Label{ID: l.ID, Text: l.Abbr, At: at})
	}
	return s, nil
}

func toBezier(p geo.Point) bezier.Point { return bezier.Pt(p.X, p.Y) }
