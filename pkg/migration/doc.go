// Package migration builds the location graph of a state-to-state migration
// table.
//
// The input is a matrix: one row per destination, one column per origin,
// cells holding the number of people who moved. Cells that are not a
// positive number (the "N/A" diagonal, blanks, zeros) produce no edge.
//
// Row and column headers are location names. They are resolved to the ids
// of the topology features, so every [Location] can be matched with its
// boundary. Each location keeps its inbound and outbound edges sorted by
// descending magnitude together with their totals.
package migration
