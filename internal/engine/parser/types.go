package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Source is a parsed file. Nodes obtained from it are valid until Close.
type Source struct {
	Path     string
	Language string
	Content  []byte

	tree *sitter.Tree
}

func (s *Source) Root() *sitter.Node {
	if s == nil || s.tree == nil {
		return nil
	}
	return s.tree.RootNode()
}

func (s *Source) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return node.Utf8Text(s.Content)
}

func (s *Source) Close() {
	if s != nil && s.tree != nil {
		s.tree.Close()
		s.tree = nil
	}
}

// Declaration is a matched module declaration call.
type Declaration struct {
	// Name is the declared module name, empty when the first argument is not
	// a plain string literal.
	Name string
	// NameNode is the string literal first argument, nil when there is none.
	NameNode *sitter.Node
	// Call is the declaration call_expression.
	Call *sitter.Node
	// Args is the call's arguments node.
	Args *sitter.Node
}

func (d *Declaration) HasName() bool {
	return d != nil && d.Name != ""
}
