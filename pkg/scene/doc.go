// Package scene composes the drawable flow map for a selection and a
// viewport width.
//
// A [Scene] is a retained description of every layer of the map, bottom to
// top: the boundary mesh, the flow ribbons (filled with per-flow
// gradients), the arrows, the invisible hit targets and the location
// labels. Flows and labels are keyed by a stable id ("<source>-<target>"
// for flows, the location id for labels) so consecutive scenes can be
// compared with [Diff] and only the changed elements touched.
//
// # Interaction
//
// Hovering a flow is modelled by [Highlight] and [Reset], which return the
// opacity of every ribbon and arrow, and by [NewTooltip] and [Place], which
// compute the tooltip content and its clamped position. Sinks in
// pkg/scene/sink turn a scene into SVG (with the interaction embedded as
// script), PNG or JSON.
package scene
