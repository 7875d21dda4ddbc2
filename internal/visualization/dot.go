// Package visualization renders graph snapshots in Graphviz DOT or JSON.
package visualization

import (
	"fmt"
	"strings"

	"github.com/nvandessel/arcprune/internal/graph"
)

// Format specifies the output format for graph rendering.
type Format string

const (
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
)

// ParseFormat maps a flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatDOT, FormatJSON:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown format %q (valid: dot, json)", s)
}

// palette runs from the least to the most weighted vertex.
var palette = []string{"#deebf7", "#9ecae1", "#4292c6", "#08519c", "#08306b"}

// shade picks the palette entry for w relative to the largest weight.
func shade(w, maxW int64) string {
	if maxW <= 0 {
		return palette[0]
	}
	i := int(w * int64(len(palette)-1) / maxW)
	return palette[i]
}

// RenderDOT produces a Graphviz digraph of g. When weights is non-nil it
// must have one entry per vertex; vertices are shaded by it and the value
// shows in their tooltip.
func RenderDOT(g *graph.Digraph, name string, weights []int64) (string, error) {
	n := g.NumVertices()
	if weights != nil && len(weights) != n {
		return "", fmt.Errorf("%d weights for %d vertices", len(weights), n)
	}
	var maxW int64
	for _, w := range weights {
		maxW = max(maxW, w)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "digraph %q {\n", name)
	b.WriteString("  node [shape=circle, style=filled, fontname=\"Helvetica\", fontsize=9];\n")
	b.WriteString("  edge [arrowsize=0.5];\n\n")

	for v := 0; v < n; v++ {
		if weights == nil {
			fmt.Fprintf(&b, "  %d [fillcolor=%q];\n", v, palette[0])
			continue
		}
		fmt.Fprintf(&b, "  %d [fillcolor=%q, tooltip=\"weight=%d\"];\n", v, shade(weights[v], maxW), weights[v])
	}
	b.WriteString("\n")

	for _, e := range g.Edges() {
		fmt.Fprintf(&b, "  %d -> %d;\n", e.From, e.To)
	}
	b.WriteString("}\n")
	return b.String(), nil
}

// RenderJSON produces a JSON-ready graph with nodes and edges arrays.
func RenderJSON(g *graph.Digraph, weights []int64) (map[string]interface{}, error) {
	n := g.NumVertices()
	if weights != nil && len(weights) != n {
		return nil, fmt.Errorf("%d weights for %d vertices", len(weights), n)
	}

	nodes := make([]map[string]interface{}, 0, n)
	for v := 0; v < n; v++ {
		node := map[string]interface{}{
			"id":         v,
			"out_degree": g.OutDegree(v),
			"in_degree":  g.InDegree(v),
		}
		if weights != nil {
			node["weight"] = weights[v]
		}
		nodes = append(nodes, node)
	}

	edges := make([]map[string]interface{}, 0, g.NumEdges())
	for _, e := range g.Edges() {
		edges = append(edges, map[string]interface{}{
			"source": e.From,
			"target": e.To,
		})
	}

	return map[string]interface{}{
		"nodes":      nodes,
		"edges":      edges,
		"node_count": len(nodes),
		"edge_count": len(edges),
	}, nil
}
