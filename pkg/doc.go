// Package pkg provides the libraries behind flowmap, a map of state-to-state
// migration flows.
//
// # Overview
//
// Flowmap draws the flows of one focal location as curved ribbons whose
// width follows the migration volume, on a composite Albers USA projection.
// The pkg directory is organized into four areas:
//
//  1. Core - geography, flow selection, curve geometry and scene composition
//  2. Infrastructure - caching, sessions, HTTP fetching, observability
//  3. Pipeline - orchestration (load → compose → render)
//  4. Support - errors and build info
//
// # Architecture
//
// The data flow through flowmap:
//
//	migration CSV + TopoJSON
//	         ↓
//	    [migration] + [topo] (flow graph, location polygons)
//	         ↓
//	    [geo] (projection, viewport fit, centroids, boundary paths)
//	         ↓
//	    [flow] (selection, curve geometry on [bezier])
//	         ↓
//	    [scene] (layers, tooltips, legend, diff)
//	         ↓
//	    [scene/sink] SVG/PNG/JSON output
//
// # Quick Start
//
//	runner := pipeline.NewRunner(nil, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    DataPath:     "data/migration.csv",
//	    TopologyPath: "data/states-10m.json",
//	    Selection:    flow.Selection{Location: "CA", Direction: flow.Inbound, Display: flow.Top10},
//	    Formats:      []string{"svg", "png"},
//	})
//	svg := result.Artifacts["svg"]
//
// # Main Packages
//
// ## Core
//
// [topo] - TopoJSON decoding, feature and mesh extraction, Visvalingam
// simplification.
//
// [migration] - The migration matrix as a flow graph with per-location
// sorted inbound and outbound lists and totals.
//
// [geo] - Composite Albers USA projection, fitSize, area-weighted centroids
// and SVG path data.
//
// [bezier] - Cubic Bézier toolkit: arc conversion, Gauss-Legendre arc length,
// splitting and outline offsets.
//
// [flow] - Flow selection by direction and display mode, and the curve
// geometry of a flow's arrow, ribbon and hit target.
//
// [scene] - Scene composition, retained-mode diffing, hover and tooltip
// models, legend and gauge pies. [scene/sink] writes scenes as SVG, PNG and
// JSON.
//
// ## Infrastructure
//
// [cache] - Byte caches with expiry: file, SQLite, Redis and a no-op cache.
//
// [session] - Per-browser Selection State in memory, Redis or files.
//
// [httputil] - Topology downloads with retry and exponential backoff.
//
// [observability] - Hook interfaces and Prometheus metrics.
//
// ## Orchestration
//
// [pipeline] - Options, Runner and Result tying the stages together with
// caching. Both the CLI and the server run through it.
//
// ## Support
//
// [errors] - Coded errors mapped to exit messages and HTTP statuses.
//
// [buildinfo] - Version information injected at build time.
package pkg
