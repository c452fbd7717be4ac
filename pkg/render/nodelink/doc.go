// Package nodelink renders the outline dependency graph of a keyboard
// description as a node-link diagram.
//
// # Overview
//
// Outlines refer to each other by name ("-keys", {what: outline, name: ...}).
// This package collects those references into a [Graph] and produces
// Graphviz output where each outline is a box and each reference an arrow
// from the referring outline to the one it uses.
//
// # Usage
//
// Build the graph from an outline builder, convert it to DOT, then render:
//
//	g, err := nodelink.FromSource(builder)
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Options
//
// The [Options] struct controls diagram generation:
//
//   - Detailed: node labels include the metadata attached to each node
//     (ring count, bounding box size).
//
// References to outlines that are not declared are drawn dashed and grey so
// a broken configuration can still be inspected.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package nodelink
