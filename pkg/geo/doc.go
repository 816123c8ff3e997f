// Package geo projects geographic boundaries onto the screen.
//
// The projection is the composite Albers USA layout: a conic equal-area
// projection for the lower 48 states, with Alaska and Hawaii drawn by their
// own conic projections and inset below the south-west corner. Each
// sub-projection owns a rectangular extent on screen and a point belongs to
// the first sub-projection whose extent contains it.
//
// # Viewports
//
// A [Layout] is everything the scene needs for one viewport width: the
// fitted projection, the projected boundary mesh and the centroid of every
// location. Computing a layout is a pure function of the width, so resizing
// simply computes a new one:
//
//	a := geo.NewAdapter(features, mesh)
//	layout := a.Layout(975)
//	p := layout.Centroids["06"]
package geo
