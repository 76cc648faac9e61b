package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectCycles(t *testing.T) {
	g := NewDependencyGraph()
	g.Record("a", []string{"b"})
	g.Record("b", []string{"c", "#S.UA"})
	g.Record("c", []string{"a", "d"})
	g.Record("d", []string{"ua"})

	assert.Equal(t, [][]string{{"a", "b", "c"}}, g.DetectCycles())
}

func TestDetectCyclesNone(t *testing.T) {
	g := NewDependencyGraph()
	g.Record("overlay", []string{"dom", "event"})
	g.Record("event", []string{"dom"})

	assert.Empty(t, g.DetectCycles())
}

func TestDetectCyclesAfterMerge(t *testing.T) {
	g := NewDependencyGraph()
	g.Record("dom/base", []string{"event"})
	g.Record("event", []string{"dom/ie"})

	rules, err := ParseRules(`(dom)(/.*)?||$1`)
	assert.NoError(t, err)

	merged := Merge(g, rules)
	assert.Equal(t, [][]string{{"dom", "event"}}, merged.DetectCycles())
}
