package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/lineagewalk/pkg/lineage"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed includes domain and status in node labels and the distance
	// on edges. When false, only the qualified object name is shown.
	Detailed bool
}

type node struct {
	id     string
	domain string
	status string
	root   bool
}

type arrow struct {
	from, to string
}

// ToDOT converts a lineage table to Graphviz DOT format.
// Nodes are emitted in first-seen order and duplicate arrows are collapsed
// to the smallest distance, so the output is deterministic for a given table.
// The placeholder row contributes nothing.
func ToDOT(t lineage.Table, opts Options) string {
	var (
		nodes    []*node
		byID     = map[string]*node{}
		arrows   []arrow
		distance = map[arrow]int{}
	)
	add := func(ep lineage.Endpoint) (string, bool) {
		key, ok := ep.Key()
		if !ok {
			return "", false
		}
		id := key.String()
		n, seen := byID[id]
		if !seen {
			n = &node{id: id}
			byID[id] = n
			nodes = append(nodes, n)
		}
		if n.domain == "" && ep.Domain != nil {
			n.domain = *ep.Domain
		}
		if n.status == "" && ep.Status != nil {
			n.status = *ep.Status
		}
		return id, true
	}

	for _, e := range t.Rows {
		if e.IsPlaceholder() {
			continue
		}
		from, okFrom := add(e.Source)
		if e.IsSelf() {
			if okFrom {
				byID[from].root = true
			}
			continue
		}
		to, okTo := add(e.Target)
		if !okFrom || !okTo {
			continue
		}
		a := arrow{from, to}
		if d, seen := distance[a]; !seen {
			arrows = append(arrows, a)
			distance[a] = e.Distance
		} else if e.Distance < d {
			distance[a] = e.Distance
		}
	}

	var buf bytes.Buffer
	buf.WriteString("digraph lineage {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [color=\"#555555\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.id, strings.Join(fmtAttrs(n, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for _, a := range arrows {
		if opts.Detailed {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", a.from, a.to, strconv.Itoa(distance[a]))
		} else {
			fmt.Fprintf(&buf, "  %q -> %q;\n", a.from, a.to)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n *node, detailed bool) string {
	if !detailed {
		return n.id
	}
	parts := []string{n.id}
	if n.domain != "" {
		parts = append(parts, n.domain)
	}
	if n.status != "" && n.status != lineage.StatusActive {
		parts = append(parts, n.status)
	}
	return strings.Join(parts, "\n")
}

func fmtAttrs(n *node, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, detailed))}
	style := "rounded,filled"
	if n.status != "" && n.status != lineage.StatusActive {
		style += ",dashed"
	}
	if n.domain == string(lineage.DomainStage) {
		attrs = append(attrs, "shape=folder")
		style = strings.TrimPrefix(style, "rounded,")
	}
	attrs = append(attrs, fmt.Sprintf("style=%q", style))
	if n.root {
		attrs = append(attrs, "fillcolor=\"#dbeafe\"", "penwidth=2")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root svg tag so the diagram scales to its
// container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
