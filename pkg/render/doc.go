// Package render groups the visual renderers for lineage tables.
//
// The [nodelink] subpackage draws a table as a directed graph: each object
// becomes a node, each non-self row an arrow pointing in the direction data
// flows. Graphviz lays the graph out.
//
//	dot := nodelink.ToDOT(res.Table, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
package render
