package output

import (
	"depmanifest/internal/engine/graph"
	"strings"
)

const (
	// ManifestPrologue opens the loader configuration call. The guard keeps
	// the manifest inert when the loader is absent.
	ManifestPrologue = "/*Generated by KISSY Module Compiler*/\n" +
		"if(KISSY.Loader){\nKISSY.config('modules', {\n"
	ManifestEpilogue = "\n});\n}"

	entrySeparator = ",\n"
)

type ManifestGenerator struct {
	graph *graph.DependencyGraph
}

func NewManifestGenerator(g *graph.DependencyGraph) *ManifestGenerator {
	return &ManifestGenerator{graph: g}
}

// Entries renders one "'name': {requires: [...]}" fragment per module with
// at least one require, in module name order.
func (m *ManifestGenerator) Entries() []string {
	modules := m.graph.Modules()
	entries := make([]string, 0, len(modules))
	for _, name := range modules {
		requires := m.graph.Requires(name)
		if len(requires) == 0 {
			continue
		}
		entries = append(entries, renderEntry(name, requires))
	}
	return entries
}

func (m *ManifestGenerator) Generate() string {
	var buf strings.Builder
	buf.WriteString(ManifestPrologue)
	buf.WriteString(strings.Join(m.Entries(), entrySeparator))
	buf.WriteString(ManifestEpilogue)
	return buf.String()
}

func renderEntry(name string, requires []string) string {
	var buf strings.Builder
	buf.WriteString("'")
	buf.WriteString(name)
	buf.WriteString("': {requires: [")
	for i, r := range requires {
		if i > 0 {
			buf.WriteString(",")
		}
		if graph.IsRaw(r) {
			buf.WriteString(strings.TrimPrefix(r, graph.RawMarker))
			continue
		}
		buf.WriteString("'")
		buf.WriteString(r)
		buf.WriteString("'")
	}
	buf.WriteString("]}")
	return buf.String()
}
