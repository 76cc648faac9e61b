package output

import (
	"depmanifest/internal/engine/graph"
	"fmt"
	"strings"
)

type DOTGenerator struct {
	graph *graph.DependencyGraph
}

func NewDOTGenerator(g *graph.DependencyGraph) *DOTGenerator {
	return &DOTGenerator{graph: g}
}

// Generate renders modules that declare requires as boxes, modules that are
// only required as grey nodes, and raw-expression requires as dashed notes.
func (d *DOTGenerator) Generate() (string, error) {
	var buf strings.Builder

	buf.WriteString("digraph dependencies {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=rounded, fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8, penwidth=1.2];\n")
	buf.WriteString("  overlap=false;\n\n")

	modules := d.graph.Modules()
	declared := make(map[string]bool, len(modules))
	for _, name := range modules {
		declared[name] = true
	}

	buf.WriteString("  subgraph cluster_modules {\n")
	buf.WriteString("    label=\"Modules\";\n")
	buf.WriteString("    style=filled;\n")
	buf.WriteString("    color=\"whitesmoke\";\n")
	buf.WriteString("    node [fillcolor=\"white\", style=\"rounded,filled\"];\n")
	for _, name := range modules {
		label := fmt.Sprintf("%s\\n(%d requires)", name, len(d.graph.Requires(name)))
		buf.WriteString(fmt.Sprintf("    %s [label=%s, color=\"darkslategrey\"];\n", quoteDOT(name), quoteDOT(label)))
	}
	buf.WriteString("  }\n\n")

	leaves := make(map[string]bool)
	var edges strings.Builder
	for _, from := range modules {
		for _, to := range d.graph.Requires(from) {
			if graph.IsRaw(to) {
				expr := strings.TrimPrefix(to, graph.RawMarker)
				id := "expr:" + expr
				if !leaves[id] {
					leaves[id] = true
					buf.WriteString(fmt.Sprintf("  %s [label=%s, shape=note, style=dashed, color=\"grey\"];\n", quoteDOT(id), quoteDOT(expr)))
				}
				edges.WriteString(fmt.Sprintf("  %s -> %s [color=\"grey\", style=dashed];\n", quoteDOT(from), quoteDOT(id)))
				continue
			}
			if !declared[to] && !leaves[to] {
				leaves[to] = true
				buf.WriteString(fmt.Sprintf("  %s [fillcolor=\"gainsboro\", style=\"rounded,filled\", color=\"grey\"];\n", quoteDOT(to)))
			}
			edges.WriteString(fmt.Sprintf("  %s -> %s [color=\"forestgreen\"];\n", quoteDOT(from), quoteDOT(to)))
		}
	}
	buf.WriteString("\n")
	buf.WriteString(edges.String())
	buf.WriteString("}\n")

	return buf.String(), nil
}

func quoteDOT(s string) string {
	return "\"" + strings.ReplaceAll(s, "\"", "\\\"") + "\""
}
