package topo

import (
	"encoding/json"
	"io"
	"os"
	"strconv"

	ferrors "github.com/matzehuels/flowmap/pkg/errors"
)

// Position is a longitude/latitude pair in degrees.
type Position [2]float64

// Transform is the quantisation transform of a topology.
type Transform struct {
	Scale     [2]float64 `json:"scale"`
	Translate [2]float64 `json:"translate"`
}

// Topology is a decoded TopoJSON document. Arcs always hold absolute
// positions: the quantisation transform is applied while decoding.
type Topology struct {
	BBox    []float64          `json:"bbox,omitempty"`
	Objects map[string]*Object `json:"objects"`
	Arcs    [][]Position       `json:"-"`
}

// Object is a TopoJSON geometry object. Only the arc references of the
// geometry types used for boundaries are kept.
type Object struct {
	Type       string         `json:"type"`
	ID         string         `json:"-"`
	Properties map[string]any `json:"properties,omitempty"`
	Geometries []*Object      `json:"geometries,omitempty"`

	// Exactly one of these is set, depending on Type.
	Line         []int     `json:"-"` // LineString
	Lines        [][]int   `json:"-"` // MultiLineString
	Polygon      [][]int   `json:"-"` // Polygon rings
	MultiPolygon [][][]int `json:"-"` // MultiPolygon
}

// Name returns the "name" property, or "" when absent.
func (o *Object) Name() string {
	if s, ok := o.Properties["name"].(string); ok {
		return s
	}
	return ""
}

type rawObject struct {
	Type       string          `json:"type"`
	ID         json.RawMessage `json:"id"`
	Properties map[string]any  `json:"properties"`
	Arcs       json.RawMessage `json:"arcs"`
	Geometries []*Object       `json:"geometries"`
}

// UnmarshalJSON decodes the arcs field according to the geometry type and
// accepts both string and numeric ids.
func (o *Object) UnmarshalJSON(data []byte) error {
	var raw rawObject
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*o = Object{Type: raw.Type, Properties: raw.Properties, Geometries: raw.Geometries}
	o.ID = parseID(raw.ID)

	if len(raw.Arcs) == 0 {
		return nil
	}
	switch raw.Type {
	case "LineString":
		return json.Unmarshal(raw.Arcs, &o.Line)
	case "MultiLineString":
		return json.Unmarshal(raw.Arcs, &o.Lines)
	case "Polygon":
		return json.Unmarshal(raw.Arcs, &o.Polygon)
	case "MultiPolygon":
		return json.Unmarshal(raw.Arcs, &o.MultiPolygon)
	}
	return nil
}

func parseID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return string(raw)
}

type rawTopology struct {
	Type      string             `json:"type"`
	BBox      []float64          `json:"bbox"`
	Transform *Transform         `json:"transform"`
	Objects   map[string]*Object `json:"objects"`
	Arcs      [][][2]float64     `json:"arcs"`
}

// Decode reads a TopoJSON document from r.
func Decode(r io.Reader) (*Topology, error) {
	var raw rawTopology
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidTopology, err, "decode topology")
	}
	if raw.Type != "Topology" {
		return nil, ferrors.New(ferrors.ErrCodeInvalidTopology, "unexpected document type %q", raw.Type)
	}
	t := &Topology{
		BBox:    raw.BBox,
		Objects: raw.Objects,
		Arcs:    make([][]Position, len(raw.Arcs)),
	}
	for i, arc := range raw.Arcs {
		t.Arcs[i] = decodeArc(arc, raw.Transform)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// ReadFile decodes the topology stored at path.
func ReadFile(path string) (*Topology, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.Wrap(ferrors.ErrCodeFileNotFound, err, "topology %s", path)
		}
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()
	return Decode(f)
}

// decodeArc resolves a delta-encoded quantised arc. Without a transform the
// positions are already absolute.
func decodeArc(arc [][2]float64, tr *Transform) []Position {
	out := make([]Position, len(arc))
	if tr == nil {
		for i, p := range arc {
			out[i] = Position(p)
		}
		return out
	}
	var x, y float64
	for i, p := range arc {
		x += p[0]
		y += p[1]
		out[i] = Position{x*tr.Scale[0] + tr.Translate[0], y*tr.Scale[1] + tr.Translate[1]}
	}
	return out
}

// validate checks every arc reference against the arc table.
func (t *Topology) validate() error {
	n := len(t.Arcs)
	check := func(refs []int) error {
		for _, ref := range refs {
			i := ref
			if i < 0 {
				i = ^i
			}
			if i >= n {
				return ferrors.New(ferrors.ErrCodeInvalidTopology, "arc index %d out of range (%d arcs)", ref, n)
			}
		}
		return nil
	}
	var walk func(o *Object) error
	walk = func(o *Object) error {
		if o == nil {
			return nil
		}
		if err := check(o.Line); err != nil {
			return err
		}
		for _, l := range o.Lines {
			if err := check(l); err != nil {
				return err
			}
		}
		for _, r := range o.Polygon {
			if err := check(r); err != nil {
				return err
			}
		}
		for _, p := range o.MultiPolygon {
			for _, r := range p {
				if err := check(r); err != nil {
					return err
				}
			}
		}
		for _, g := range o.Geometries {
			if err := walk(g); err != nil {
				return err
			}
		}
		return nil
	}
	for _, o := range t.Objects {
		if err := walk(o); err != nil {
			return err
		}
	}
	return nil
}
