package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Descent moves from a node to one of its relatives, returning nil when the
// relative does not exist.
type Descent func(*sitter.Node) *sitter.Node

// Field descends into the child stored under a grammar field name.
func Field(name string) Descent {
	return func(n *sitter.Node) *sitter.Node {
		return n.ChildByFieldName(name)
	}
}

// FirstNamed descends into the first named child that is not a comment.
func FirstNamed() Descent {
	return func(n *sitter.Node) *sitter.Node {
		return nthNamed(n, 0, false)
	}
}

// LastNamed descends into the last named child that is not a comment.
func LastNamed() Descent {
	return func(n *sitter.Node) *sitter.Node {
		return nthNamed(n, 0, true)
	}
}

// FirstStatement descends into the first top-level statement, skipping
// comments and a leading hashbang line.
func FirstStatement() Descent {
	return func(n *sitter.Node) *sitter.Node {
		for i := uint(0); i < n.NamedChildCount(); i++ {
			child := n.NamedChild(i)
			if child == nil || isTrivia(child) {
				continue
			}
			return child
		}
		return nil
	}
}

func nthNamed(n *sitter.Node, idx int, fromEnd bool) *sitter.Node {
	count := int(n.NamedChildCount())
	seen := 0
	for j := 0; j < count; j++ {
		i := j
		if fromEnd {
			i = count - 1 - j
		}
		child := n.NamedChild(uint(i))
		if child == nil || isTrivia(child) {
			continue
		}
		if seen == idx {
			return child
		}
		seen++
	}
	return nil
}

func isTrivia(n *sitter.Node) bool {
	switch n.Kind() {
	case "comment", "hash_bang_line":
		return true
	}
	return false
}

// Step is one element of a Path. Descend (when set) moves the cursor; the
// node reached must then have kind Kind and, when Text is set, exactly that
// source text. Capture stores the node under a name.
type Step struct {
	Descend Descent
	Kind    string
	Text    string
	Capture string
}

// Path is an ordered sequence of steps walked from a starting node.
type Path []Step

// Pattern matches Anchor from the starting node and then every Check from the
// node Anchor ended on. Optional paths contribute captures when they match
// but never fail the pattern.
type Pattern struct {
	Anchor   Path
	Checks   []Path
	Optional []Path
}

// Match holds the nodes captured by a successful match.
type Match struct {
	Captures map[string]*sitter.Node
}

func (m *Match) Node(name string) *sitter.Node {
	if m == nil {
		return nil
	}
	return m.Captures[name]
}

// Match runs the pattern against start. It short-circuits on the first
// failing step and never returns an error: a mismatch is just (nil, false).
func (p Pattern) Match(start *sitter.Node, source []byte) (*Match, bool) {
	if start == nil {
		return nil, false
	}
	m := &Match{Captures: make(map[string]*sitter.Node)}
	end, ok := walk(p.Anchor, start, source, m)
	if !ok {
		return nil, false
	}
	for _, check := range p.Checks {
		if _, ok := walk(check, end, source, m); !ok {
			return nil, false
		}
	}
	for _, opt := range p.Optional {
		scratch := &Match{Captures: make(map[string]*sitter.Node)}
		if _, ok := walk(opt, end, source, scratch); ok {
			for k, v := range scratch.Captures {
				m.Captures[k] = v
			}
		}
	}
	return m, true
}

func walk(path Path, node *sitter.Node, source []byte, m *Match) (*sitter.Node, bool) {
	for _, step := range path {
		if step.Descend != nil {
			node = step.Descend(node)
		}
		if node == nil {
			return nil, false
		}
		if step.Kind != "" && node.Kind() != step.Kind {
			return nil, false
		}
		if step.Text != "" && node.Utf8Text(source) != step.Text {
			return nil, false
		}
		if step.Capture != "" {
			m.Captures[step.Capture] = node
		}
	}
	return node, true
}
