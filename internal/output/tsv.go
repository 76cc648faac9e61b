package output

import (
	"depmanifest/internal/engine/graph"
	"fmt"
	"strings"
)

type TSVGenerator struct {
	graph *graph.DependencyGraph
}

func NewTSVGenerator(g *graph.DependencyGraph) *TSVGenerator {
	return &TSVGenerator{graph: g}
}

// Generate writes one row per require edge. Kind is "module" for named
// requires and "expr" for raw expressions.
func (t *TSVGenerator) Generate() (string, error) {
	var buf strings.Builder

	buf.WriteString("From\tTo\tKind\tPosition\n")
	for _, from := range t.graph.Modules() {
		for i, to := range t.graph.Requires(from) {
			kind := "module"
			if graph.IsRaw(to) {
				kind = "expr"
				to = strings.TrimPrefix(to, graph.RawMarker)
			}
			buf.WriteString(fmt.Sprintf("%s\t%s\t%s\t%d\n", from, sanitizeTSV(to), kind, i))
		}
	}

	return buf.String(), nil
}

func sanitizeTSV(s string) string {
	return strings.NewReplacer("\t", " ", "\n", " ", "\r", " ").Replace(s)
}
