// Package sink provides output format renderers for flow map scenes.
//
// # Overview
//
// A "sink" transforms a composed [scene.Scene] into a final output format:
//
//   - SVG: a standalone, interactive document
//   - PNG: a raster image drawn with gg
//   - JSON: the scene's numbers and path data for external tools
//
// # SVG Output
//
// [RenderSVG] writes the layered document: boundaries, ribbons, arrows,
// invisible hit targets and labels, in that order. Every flow path is
// defined once in <defs> and referenced by the layers, so the hit target is
// exactly the arrow path. Hovering a hit target dims every other flow.
//
//	svg := sink.RenderSVG(s,
//	    sink.WithTooltips(),
//	    sink.WithLegend(),
//	    sink.WithTransition(scene.DiffScenes(prev, s), scene.EnterDuration),
//	)
//
// # SVG Options
//
//   - [WithTooltips]: hover tooltip with names, magnitude and two gauge pies
//   - [WithLegend]: magnitude legend in the bottom-right corner
//   - [WithTransition]: fade in the flows a patch marks as entering
//
// # PNG Output
//
// [RenderPNG] draws the same layers without interaction. [WithHighlight]
// renders the hovered state of one flow.
//
// # JSON Output
//
// [RenderJSON] exports the selection, viewport, labels, skipped flows and
// every flow with its geometry and tooltip content.
//
// [scene.Scene]: github.com/matzehuels/flowmap/pkg/scene.Scene
package sink
