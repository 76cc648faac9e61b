package graph

import (
	"sort"
	"strings"
)

// RawMarker prefixes a require that is emitted as a raw expression instead of
// a quoted module name.
const RawMarker = "#"

// DependencyGraph maps a module name to the ordered, duplicate-free list of
// modules it requires. A list never contains its own key.
//
// The graph has a single owner: it is filled by one scan, replaced by Merge,
// then only read.
type DependencyGraph struct {
	requires map[string][]string
}

func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{requires: make(map[string][]string)}
}

// Record stores requires under name, replacing any previous entry for that
// exact name. Duplicates and self references are dropped while keeping the
// first-seen order. When nothing is left the name is removed.
func (g *DependencyGraph) Record(name string, requires []string) {
	clean := appendUnique(nil, name, requires)
	if len(clean) == 0 {
		delete(g.requires, name)
		return
	}
	g.requires[name] = clean
}

// Fold appends requires to name's list, skipping entries already present and
// the name itself. Existing entries keep their position.
func (g *DependencyGraph) Fold(name string, requires []string) {
	merged := appendUnique(g.requires[name], name, requires)
	if len(merged) == 0 {
		return
	}
	g.requires[name] = merged
}

// appendUnique returns a fresh slice holding existing followed by the new,
// non-duplicate, non-self entries of extra.
func appendUnique(existing []string, self string, extra []string) []string {
	out := make([]string, 0, len(existing)+len(extra))
	seen := make(map[string]bool, len(existing)+len(extra))
	for _, list := range [][]string{existing, extra} {
		for _, r := range list {
			if r == self || seen[r] {
				continue
			}
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

// Requires returns a copy of the requires recorded for name.
func (g *DependencyGraph) Requires(name string) []string {
	list, ok := g.requires[name]
	if !ok {
		return nil
	}
	out := make([]string, len(list))
	copy(out, list)
	return out
}

func (g *DependencyGraph) Has(name string) bool {
	_, ok := g.requires[name]
	return ok
}

// Modules returns all keys in sorted order.
func (g *DependencyGraph) Modules() []string {
	keys := make([]string, 0, len(g.requires))
	for k := range g.requires {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (g *DependencyGraph) ModuleCount() int {
	return len(g.requires)
}

func (g *DependencyGraph) EdgeCount() int {
	n := 0
	for _, list := range g.requires {
		n += len(list)
	}
	return n
}

// IsRaw reports whether a require is a marker-prefixed raw expression.
func IsRaw(require string) bool {
	return strings.HasPrefix(require, RawMarker)
}
