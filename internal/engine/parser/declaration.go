package parser

import (
	"strconv"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

const (
	// SentinelNamespace and DeclareMethod form the module declaration call
	// KISSY.add(...).
	SentinelNamespace = "KISSY"
	DeclareMethod     = "add"
)

var callee = Field("function")

var declarationPattern = Pattern{
	Anchor: Path{
		{Kind: "program"},
		{Descend: FirstStatement(), Kind: "expression_statement"},
		{Descend: FirstNamed(), Kind: "call_expression", Capture: "call"},
	},
	Checks: []Path{
		{
			{Descend: callee, Kind: "member_expression"},
			{Descend: Field("object"), Kind: "identifier", Text: SentinelNamespace},
		},
		{
			{Descend: callee, Kind: "member_expression"},
			{Descend: Field("property"), Kind: "property_identifier", Text: DeclareMethod},
		},
		{
			{Descend: Field("arguments"), Kind: "arguments", Capture: "args"},
		},
	},
	Optional: []Path{
		{
			{Descend: Field("arguments"), Kind: "arguments"},
			{Descend: FirstNamed(), Kind: "string", Capture: "name"},
		},
	},
}

// MatchDeclaration reports whether src is a module declaration file and
// extracts the declared name when the first argument is a string literal.
func MatchDeclaration(src *Source) (*Declaration, bool) {
	m, ok := declarationPattern.Match(src.Root(), src.Content)
	if !ok {
		return nil, false
	}
	decl := &Declaration{
		Call: m.Node("call"),
		Args: m.Node("args"),
	}
	if nameNode := m.Node("name"); nameNode != nil {
		decl.NameNode = nameNode
		decl.Name = stringLiteralValue(nameNode, src.Content)
	}
	return decl, true
}

// stringLiteralValue decodes a JavaScript string node.
func stringLiteralValue(node *sitter.Node, source []byte) string {
	var b strings.Builder
	for i := uint(0); i < node.NamedChildCount(); i++ {
		part := node.NamedChild(i)
		if part == nil {
			continue
		}
		text := part.Utf8Text(source)
		switch part.Kind() {
		case "string_fragment":
			b.WriteString(text)
		case "escape_sequence":
			b.WriteString(decodeEscape(text))
		}
	}
	return b.String()
}

func decodeEscape(seq string) string {
	if len(seq) < 2 {
		return seq
	}
	switch seq[1] {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 'r':
		return "\r"
	case 'b':
		return "\b"
	case 'f':
		return "\f"
	case 'v':
		return "\v"
	case '0':
		if len(seq) == 2 {
			return "\x00"
		}
	case 'x', 'u':
		hex := strings.Trim(seq[2:], "{}")
		if v, err := strconv.ParseUint(hex, 16, 32); err == nil {
			return string(rune(v))
		}
		return seq
	case '\n', '\r':
		return ""
	}
	return seq[1:]
}
