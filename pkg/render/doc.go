// Package render turns frames into pictures.
//
// # Overview
//
// Two renderers are provided:
//
//   - [sketch] draws the geometry of a frame as SVG, the way the editor
//     shows it: filled circles, round-capped lines and pivot markers
//   - [nodelink] draws the topology of a frame through Graphviz: pivots as
//     pinned nodes, shapes as edges, rigid groups as colored subgraphs
//
// Both work on a [frame.Frame] and never modify it.
//
//	svg := sketch.RenderSVG(f, sketch.WithPivots())
//
//	dot := nodelink.ToDOT(f, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [sketch]: github.com/matzehuels/pivotframe/pkg/render/sketch
// [nodelink]: github.com/matzehuels/pivotframe/pkg/render/nodelink
// [frame.Frame]: github.com/matzehuels/pivotframe/pkg/core/frame#Frame
package render
