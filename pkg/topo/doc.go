// Package topo decodes TopoJSON documents into plain polygon and line
// geometry.
//
// A TopoJSON topology stores shared boundaries once, as arcs, and describes
// each object by the indexes of the arcs that make up its rings. Decoding
// resolves the quantised, delta-encoded arcs into absolute longitude and
// latitude positions; [Topology.Features] and [Topology.Mesh] then stitch
// them into the shapes the projection layer consumes.
//
// # Simplification
//
// Boundaries are usually drawn simplified. [Presimplify] assigns each arc
// vertex its Visvalingam effective area, [Quantile] picks a weight threshold,
// and [Simplify] drops every vertex below it. Arc end points are always kept
// so neighbouring shapes stay watertight:
//
//	w := topo.Presimplify(t)
//	t = topo.Simplify(t, w, topo.Quantile(w, 0.2))
package topo
