// Package flow selects the flows to draw for a focal location and builds
// their curve geometry.
//
// # Selection
//
// A [Selection] names the focal location, the [Direction] of the flows and
// the [Display] cap. [Select] turns it into the ordered edge list to draw:
//
//	edges, err := flow.Select(g, flow.Selection{
//	    Location:  "06",
//	    Direction: flow.Outbound,
//	    Display:   flow.Top10,
//	})
//
// # Geometry
//
// Every flow is drawn along a circular arc whose radius equals the distance
// between its end points, so flows in opposite directions between the same
// pair bend to different sides. [BuildGeometry] derives three paths from
// the arc: a thin arrow that stops short of the target, a ribbon whose
// half-width encodes magnitude through a square-root [WidthScale], and an
// invisible hit path for pointer interaction.
package flow
