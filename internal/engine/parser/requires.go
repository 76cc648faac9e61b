package parser

import (
	"path"
	"strings"

	"depmanifest/internal/engine/graph"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

const requiresKey = "requires"

var requiresPattern = Pattern{
	Anchor: Path{
		{Kind: "arguments"},
		{Descend: LastNamed(), Kind: "object", Capture: "config"},
	},
}

// ExtractRequires returns the raw dependency list of a declaration: the
// elements of the requires array in the config object passed as the last
// argument. String elements are module names, with "./" and "../" resolved
// against moduleName; any other element is kept as a raw expression behind
// graph.RawMarker.
func ExtractRequires(src *Source, decl *Declaration, moduleName string) []string {
	if decl == nil || decl.Args == nil || countArgs(decl.Args) < 2 {
		return nil
	}
	m, ok := requiresPattern.Match(decl.Args, src.Content)
	if !ok {
		return nil
	}
	list := requiresArray(m.Node("config"), src.Content)
	if list == nil {
		return nil
	}

	var out []string
	for i := uint(0); i < list.NamedChildCount(); i++ {
		el := list.NamedChild(i)
		if el == nil || isTrivia(el) {
			continue
		}
		if el.Kind() == "string" {
			name := stringLiteralValue(el, src.Content)
			if name == "" {
				continue
			}
			out = append(out, resolveRelative(moduleName, name))
			continue
		}
		out = append(out, graph.RawMarker+el.Utf8Text(src.Content))
	}
	return out
}

func requiresArray(config *sitter.Node, source []byte) *sitter.Node {
	for i := uint(0); i < config.NamedChildCount(); i++ {
		pair := config.NamedChild(i)
		if pair == nil || pair.Kind() != "pair" {
			continue
		}
		if propertyKey(pair.ChildByFieldName("key"), source) != requiresKey {
			continue
		}
		value := pair.ChildByFieldName("value")
		if value != nil && value.Kind() == "array" {
			return value
		}
	}
	return nil
}

func propertyKey(key *sitter.Node, source []byte) string {
	if key == nil {
		return ""
	}
	switch key.Kind() {
	case "property_identifier":
		return key.Utf8Text(source)
	case "string":
		return stringLiteralValue(key, source)
	}
	return ""
}

func countArgs(args *sitter.Node) int {
	n := 0
	for i := uint(0); i < args.NamedChildCount(); i++ {
		if child := args.NamedChild(i); child != nil && !isTrivia(child) {
			n++
		}
	}
	return n
}

func resolveRelative(moduleName, require string) string {
	if !strings.HasPrefix(require, "./") && !strings.HasPrefix(require, "../") {
		return require
	}
	return path.Join(path.Dir(moduleName), require)
}
