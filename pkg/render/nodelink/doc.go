// Package nodelink renders the topology of a frame as a node-link diagram.
//
// # Overview
//
// Where package sketch draws a frame's geometry, this package shows its
// structure: pivots are nodes pinned at their positions and shapes are the
// edges between them. Rigid groups, hinges and locked pivots become visible
// at a glance, which helps when a frame does not move the way it should.
//
// # Usage
//
// Convert a frame to DOT, then render to SVG:
//
//	dot := nodelink.ToDOT(f, nodelink.Options{Labels: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # DOT Format
//
// The [ToDOT] function produces Graphviz DOT source that can be:
//
//   - Rendered directly via [RenderSVG]
//   - Saved and processed with external Graphviz tools (neato -n)
//   - Customized before rendering
//
// Node positions carry the "!" suffix so neato keeps them fixed.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package nodelink
