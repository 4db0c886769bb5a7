// Package render converts flowcharts to Graphviz DOT and rendered SVG for
// the export endpoint and the CLI render command.
package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/flowboard/pkg/flow"
)

// Format constants for export output.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
)

// ToDOT converts a flowchart to Graphviz DOT format.
// Node labels fall back to the node ID; edges follow declaration order.
// The resulting DOT string can be rendered with [SVG].
func ToDOT(fc *flow.Flowchart) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	for _, n := range fc.Nodes {
		fmt.Fprintf(&buf, "  %q [label=%q];\n", n.ID, n.DisplayLabel())
	}

	buf.WriteString("\n")
	for _, e := range fc.Edges {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// SVG renders a DOT graph to SVG using Graphviz.
func SVG(ctx context.Context, dot string) ([]byte, error) {
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
	return buf.Bytes(), nil
}
