// Package pipeline turns a migration CSV and a state topology into flow map
// artifacts. The CLI and the server both go through a [Runner].
//
// Loading reads the CSV and the topology (a file or a URL) concurrently and
// yields an immutable [Dataset]. Each selection change then composes a
// scene for the viewport width and renders it as SVG, PNG or JSON, with the
// render cache keyed by the dataset hash, the options and the entering
// flows.
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	opts := pipeline.Options{
//	    DataPath:     "data/migration.csv",
//	    TopologyPath: "data/states-10m.json",
//	    Selection:    flow.DefaultSelection(),
//	}
//	ds, err := runner.Load(ctx, opts)
//	...
//	opts.Selection.Direction = flow.Inbound
//	res, err := runner.Run(ctx, ds, opts)
//	svg := res.Artifacts[pipeline.FormatSVG]
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowmap/pkg/cache"
	ferrors "github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/flow"
	"github.com/matzehuels/flowmap/pkg/geo"
	"github.com/matzehuels/flowmap/pkg/httputil"
	"github.com/matzehuels/flowmap/pkg/scene"
)

// =============================================================================
// Defaults
// =============================================================================

const (
	// DefaultObject is the topology object holding the location polygons.
	DefaultObject = "states"

	// DefaultSimplify is the fraction of boundary vertices kept.
	DefaultSimplify = 0.2

	// DefaultWidth is the default viewport width in pixels.
	DefaultWidth = float64(geo.FrameWidth)

	// DefaultScale is the default PNG pixel density.
	DefaultScale = 2.0

	// DefaultFetchTimeout bounds one topology download attempt.
	DefaultFetchTimeout = 30 * time.Second
)

const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatJSON = "json"
)

// Formats lists the supported output formats.
var Formats = []string{FormatSVG, FormatPNG, FormatJSON}

// =============================================================================
// Options
// =============================================================================

// Options configures every stage. Zero fields take the defaults above.
type Options struct {
	DataPath     string  `json:"data,omitempty"`
	TopologyPath string  `json:"topology,omitempty"` // file path or http(s) URL
	Object       string  `json:"object,omitempty"`
	Simplify     float64 `json:"simplify,omitempty"`
	Refresh      bool    `json:"refresh,omitempty"` // bypass cached downloads and artifacts

	Selection flow.Selection `json:"selection"`
	Width     float64        `json:"width,omitempty"`
	Taper     bool           `json:"taper,omitempty"`
	Palette   scene.Palette  `json:"palette"`

	Formats   []string `json:"formats,omitempty"`
	Tooltips  bool     `json:"tooltips,omitempty"`
	Legend    bool     `json:"legend,omitempty"`
	Scale     float64  `json:"scale,omitempty"`     // PNG pixel density
	Highlight string   `json:"highlight,omitempty"` // flow key emphasised in PNG output

	// Previous holds the flow keys of the scene shown before this one.
	// When set, entering flows fade in and JSON output carries the patch.
	Previous []string `json:"previous,omitempty"`

	Logger *log.Logger      `json:"-"`
	HTTP   *httputil.Client `json:"-"`

	validated bool
}

// Result is one composed and rendered selection.
type Result struct {
	Scene *scene.Scene
	// Patch compares Scene with Options.Previous; empty without one.
	Patch       scene.Patch
	DatasetHash string
	// Artifacts maps a format to its encoded bytes.
	Artifacts map[string][]byte
	Stats     Stats
	CacheInfo CacheInfo
}

type Stats struct {
	Locations, Edges, Flows, Skipped    int
	LoadTime, ComposeTime, RenderTime time.Duration
}

// CacheInfo reports which stages were served from cache. RenderHit is set
// only when every requested format was.
type CacheInfo struct {
	TopologyHit bool
	RenderHit   bool
}

// =============================================================================
// Formats
// =============================================================================

// ValidateFormat rejects formats outside [Formats] with INVALID_FORMAT.
func ValidateFormat(format string) error {
	if !slices.Contains(Formats, format) {
		return ferrors.New(ferrors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: %s)", format, strings.Join(Formats, ", "))
	}
	return nil
}

// ValidateFormats applies [ValidateFormat] to each entry.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ParseFormats splits a comma separated format list and validates it.
func ParseFormats(s string) ([]string, error) {
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || slices.Contains(out, f) {
			continue
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil, ferrors.New(ferrors.ErrCodeInvalidFormat, "no output format given")
	}
	return out, ValidateFormats(out)
}

// =============================================================================
// Validation
// =============================================================================

// ValidateAndSetDefaults runs the load and render checks once; later calls
// are no-ops.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks the input paths and applies load defaults.
func (o *Options) ValidateForLoad() error {
	if o.DataPath == "" {
		return ferrors.New(ferrors.ErrCodeInvalidInput, "data path is required")
	}
	if o.TopologyPath == "" {
		return ferrors.New(ferrors.ErrCodeInvalidInput, "topology path is required")
	}
	if o.Object == "" {
		o.Object = DefaultObject
	}
	if o.Simplify == 0 {
		o.Simplify = DefaultSimplify
	}
	if o.Simplify < 0 || o.Simplify > 1 {
		return ferrors.New(ferrors.ErrCodeInvalidInput, "simplify must be in (0, 1], got %v", o.Simplify)
	}
	if o.HTTP == nil {
		o.HTTP = httputil.NewClient(DefaultFetchTimeout)
	}
	return nil
}

// SetRenderDefaults sets default values for composing and rendering.
func (o *Options) SetRenderDefaults() {
	if o.Selection == (flow.Selection{}) {
		o.Selection = flow.DefaultSelection()
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Palette.Outbound == "" {
		o.Palette.Outbound = scene.OutboundColor
	}
	if o.Palette.Inbound == "" {
		o.Palette.Inbound = scene.InboundColor
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
}

// ValidateForRender validates and sets defaults for composing and rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := o.Selection.Validate(); err != nil {
		return err
	}
	if o.Width <= 0 {
		return ferrors.New(ferrors.ErrCodeInvalidInput, "width must be positive, got %v", o.Width)
	}
	if o.Scale <= 0 {
		return ferrors.New(ferrors.ErrCodeInvalidInput, "scale must be positive, got %v", o.Scale)
	}
	return ValidateFormats(o.Formats)
}

func (o *Options) logger() *log.Logger {
	if o.Logger == nil {
		return log.NewWithOptions(io.Discard, log.Options{})
	}
	return o.Logger
}

// SceneKeyOpts returns cache key options for one rendered format.
func (o *Options) SceneKeyOpts(format string, entering []string) cache.SceneKeyOpts {
	k := cache.SceneKeyOpts{
		Location:  o.Selection.Location,
		Direction: string(o.Selection.Direction),
		Display:   string(o.Selection.Display),
		Width:     o.Width,
		Format:    format,
		Taper:     o.Taper,
		Outbound:  o.Palette.Outbound,
		Inbound:   o.Palette.Inbound,
	}
	switch format {
	case FormatSVG:
		k.Tooltips = o.Tooltips
		k.Legend = o.Legend
		k.Entering = entering
	case FormatPNG:
		k.Scale = o.Scale
		k.Highlight = o.Highlight
	case FormatJSON:
		k.Entering = entering
	}
	return k
}

// String summarizes the selection for logs.
func (o *Options) String() string {
	return fmt.Sprintf("%s width=%v formats=%s", o.Selection.Key(), o.Width, strings.Join(o.Formats, ","))
}
