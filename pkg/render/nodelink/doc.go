// Package nodelink renders lineage tables as node-link diagrams.
//
// # Overview
//
// Every distinct object in a table becomes a box and every edge row becomes an
// arrow in data-flow direction (source feeds target). Root objects, taken from
// the distance-0 self records, are highlighted. Stages are drawn as folders
// and objects whose status is not ACTIVE get a dashed outline.
//
// # Usage
//
// Convert a table to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(res.Table, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Options
//
// The [Options] struct controls diagram generation:
//
//   - Detailed: node labels include domain and status, and arrows are
//     labelled with the hop distance
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. No external Graphviz install is needed.
package nodelink
