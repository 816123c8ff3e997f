package migration

import (
	"slices"
	"strings"

	ferrors "github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/topo"
)

// Edge is a directed flow between two locations. Value is always positive.
type Edge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Value  float64 `json:"value"`
}

// Key returns the binding key "<source>-<target>".
func (e Edge) Key() string {
	return e.Source + "-" + e.Target
}

// Location is a node of the graph.
type Location struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Abbr string `json:"abbr"`

	// Edges sorted by descending value; ties keep table order.
	Outbound []Edge `json:"-"`
	Inbound  []Edge `json:"-"`

	OutboundTotal float64 `json:"outboundTotal"`
	InboundTotal  float64 `json:"inboundTotal"`
}

// Graph is the immutable result of ingesting a migration table.
type Graph struct {
	locations []*Location
	byID      map[string]*Location
	edges     []Edge
}

// Locations returns every location: table rows first, then origins that
// only appear as columns.
func (g *Graph) Locations() []*Location { return g.locations }

// Edges returns every edge in table order.
func (g *Graph) Edges() []Edge { return g.edges }

// Location returns the location with the given id.
func (g *Graph) Location(id string) (*Location, bool) {
	l, ok := g.byID[id]
	return l, ok
}

// MaxMagnitude returns the largest edge value, or 0 for an empty graph.
func (g *Graph) MaxMagnitude() float64 {
	var m float64
	for _, e := range g.edges {
		m = max(m, e.Value)
	}
	return m
}

// Resolve finds a location by id, postal abbreviation or name. The last two
// are matched case-insensitively.
func (g *Graph) Resolve(key string) (*Location, error) {
	key = strings.TrimSpace(key)
	if l, ok := g.byID[key]; ok {
		return l, nil
	}
	for _, l := range g.locations {
		if l.Abbr != "" && strings.EqualFold(l.Abbr, key) {
			return l, nil
		}
	}
	for _, l := range g.locations {
		if strings.EqualFold(l.Name, key) {
			return l, nil
		}
	}
	return nil, ferrors.New(ferrors.ErrCodeNotFound, "unknown location %q", key)
}

// NameIndex maps a location name to its feature id.
type NameIndex map[string]string

// IndexNames builds a name index from the "name" property of features.
func IndexNames(features []topo.Feature) NameIndex {
	idx := make(NameIndex, len(features))
	for _, f := range features {
		if name := f.Name(); name != "" && f.ID != "" {
			idx[name] = f.ID
		}
	}
	return idx
}

// Build resolves the table against the name index and assembles the graph.
// A name missing from the index is a NOT_FOUND error.
func Build(t *Table, names NameIndex) (*Graph, error) {
	g := &Graph{byID: make(map[string]*Location)}

	add := func(name string) (*Location, error) {
		id, ok := names[name]
		if !ok {
			return nil, ferrors.New(ferrors.ErrCodeNotFound, "location %q has no boundary in the topology", name)
		}
		if l, ok := g.byID[id]; ok {
			return l, nil
		}
		l := &Location{ID: id, Name: name, Abbr: Abbreviation(id)}
		g.byID[id] = l
		g.locations = append(g.locations, l)
		return l, nil
	}

	for _, row := range t.Rows {
		if _, err := add(row.Target); err != nil {
			return nil, err
		}
	}
	for _, src := range t.Sources {
		if _, err := add(src); err != nil {
			return nil, err
		}
	}

	for _, row := range t.Rows {
		target := names[row.Target]
		for i, v := range row.Values {
			if v <= 0 {
				continue
			}
			e := Edge{Source: names[t.Sources[i]], Target: target, Value: v}
			g.edges = append(g.edges, e)
			src, dst := g.byID[e.Source], g.byID[e.Target]
			src.Outbound = append(src.Outbound, e)
			src.OutboundTotal += v
			dst.Inbound = append(dst.Inbound, e)
			dst.InboundTotal += v
		}
	}

	for _, l := range g.locations {
		SortByValue(l.Outbound)
		SortByValue(l.Inbound)
	}
	return g, nil
}

// SortByValue sorts edges by descending value, keeping the relative order
// of equal values.
func SortByValue(edges []Edge) {
	slices.SortStableFunc(edges, func(a, b Edge) int {
		switch {
		case a.Value > b.Value:
			return -1
		case a.Value < b.Value:
			return 1
		}
		return 0
	})
}
