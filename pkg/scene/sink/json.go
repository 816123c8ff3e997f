package sink

import (
	"encoding/json"

	ferrors "github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/flow"
	"github.com/matzehuels/flowmap/pkg/scene"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	patch    *scene.Patch
	boundary bool
	indent   bool
}

// WithJSONPatch records how the scene differs from the previous one.
func WithJSONPatch(p scene.Patch) JSONOption { return func(r *jsonRenderer) { r.patch = &p } }

// WithJSONBoundary includes the boundary path data, which is large and the
// same for every selection.
func WithJSONBoundary() JSONOption { return func(r *jsonRenderer) { r.boundary = true } }

// WithJSONIndent pretty-prints the output.
func WithJSONIndent() JSONOption { return func(r *jsonRenderer) { r.indent = true } }

type jsonOutput struct {
	Selection flow.Selection  `json:"selection"`
	Width     float64         `json:"width"`
	Height    float64         `json:"height"`
	Palette   scene.Palette   `json:"palette"`
	Boundary  string          `json:"boundary,omitempty"`
	Flows     []jsonFlow      `json:"flows"`
	Labels    []scene.Label   `json:"labels"`
	Skipped   []scene.Skipped `json:"skipped,omitempty"`
	Patch     *scene.Patch    `json:"patch,omitempty"`
}

type jsonFlow struct {
	ID       string        `json:"id"`
	Source   string        `json:"source"`
	Target   string        `json:"target"`
	Value    float64       `json:"value"`
	From     [2]float64    `json:"from"`
	To       [2]float64    `json:"to"`
	Geometry flow.Geometry `json:"geometry"`
	Tooltip  scene.Tooltip `json:"tooltip"`
}

// RenderJSON exports the scene's selection, viewport and flows with their
// geometry and tooltip numbers.
func RenderJSON(s *scene.Scene, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	out := jsonOutput{
		Selection: s.Selection,
		Width:     s.Width,
		Height:    s.Height,
		Palette:   s.Palette,
		Flows:     make([]jsonFlow, 0, len(s.Flows)),
		Labels:    s.Labels,
		Skipped:   s.Skipped,
		Patch:     r.patch,
	}
	if r.boundary {
		out.Boundary = s.Boundary
	}
	if out.Labels == nil {
		out.Labels = []scene.Label{}
	}
	for _, f := range s.Flows {
		jf := jsonFlow{
			ID:       f.Key,
			Value:    f.Value,
			From:     [2]float64{f.From.X, f.From.Y},
			To:       [2]float64{f.To.X, f.To.Y},
			Geometry: f.Geometry,
			Tooltip:  scene.NewTooltip(f),
		}
		if f.Source != nil {
			jf.Source = f.Source.ID
		}
		if f.Target != nil {
			jf.Target = f.Target.ID
		}
		out.Flows = append(out.Flows, jf)
	}

	var (
		data []byte
		err  error
	)
	if r.indent {
		data, err = json.MarshalIndent(out, "", "  ")
	} else {
		data, err = json.Marshal(out)
	}
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInternal, err, "encode scene")
	}
	return data, nil
}
