package flow

import (
	"slices"

	ferrors "github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/migration"
)

// Select returns the edges of the selected location in drawing order:
// sorted by descending value, ties in input order, and capped at [TopN]
// for [Top10]. For [Both] the inbound edges precede the outbound ones
// before sorting; nothing is deduplicated. The result never aliases the
// graph's lists.
func Select(g *migration.Graph, s Selection) ([]migration.Edge, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	loc, ok := g.Location(s.Location)
	if !ok {
		return nil, ferrors.New(ferrors.ErrCodeNotFound, "unknown location %q", s.Location)
	}

	var edges []migration.Edge
	switch s.Direction {
	case Outbound:
		edges = slices.Clone(loc.Outbound)
	case Inbound:
		edges = slices.Clone(loc.Inbound)
	case Both:
		edges = make([]migration.Edge, 0, len(loc.Inbound)+len(loc.Outbound))
		edges = append(edges, loc.Inbound...)
		edges = append(edges, loc.Outbound...)
	}

	migration.SortByValue(edges)
	if s.Display == Top10 && len(edges) > TopN {
		edges = edges[:TopN]
	}
	return edges, nil
}
