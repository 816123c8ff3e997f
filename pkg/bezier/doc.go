// Package bezier provides the cubic Bézier toolkit used to draw flow curves.
//
// # Overview
//
// Flow paths are circular arcs approximated by a single cubic curve. From that
// curve the renderer needs three things:
//
//   - arc length ([Cubic.Length]), integrated with Gauss–Legendre quadrature
//   - parametric splitting ([Cubic.Split], [Cubic.Segment])
//   - offset outlines ([Cubic.Outline], [Cubic.OutlineGraduated]) that turn a
//     centre line into a filled ribbon of a given half-width
//
// [ArcToCubics] converts an SVG elliptical arc into cubic segments of at most
// 90° each, so an arc whose radius equals its chord (60°) is a single curve.
//
// # Outlines
//
// An outline is built the same way stroke expanders do it: the curve is
// first reduced into "simple" pieces (see [Cubic.Reduce]) whose end normals
// differ by less than 60°, each piece is offset to both sides, the back side
// is reversed, and two straight caps close the shape:
//
//	[start cap] [forward offsets...] [end cap] [reversed back offsets...]
//
// The end cap therefore sits at index len(curves)/2 (rounded up), which the
// flow renderer uses to round the arrow end of each ribbon.
//
// # Path Data
//
// [AppendPath] and [PathString] serialise curves as SVG path data with a fixed
// precision so that equal geometry always produces byte-identical strings.
package bezier
