package parser

import (
	"bytes"
	"depmanifest/internal/core/errors"
	"strings"
)

// InsertModuleName returns src's content with name added as the first
// argument of the declaration call: KISSY.add(fn) becomes
// KISSY.add('name', fn). An empty string literal in first position is
// replaced instead.
func InsertModuleName(src *Source, decl *Declaration, name string) ([]byte, error) {
	if decl == nil || decl.Args == nil {
		return nil, errors.New(errors.CodeInternal, "declaration has no argument list")
	}
	if decl.HasName() {
		return nil, errors.AddContext(errors.New(errors.CodeValidationError, "declaration already names its module"), errors.CtxModule, decl.Name)
	}

	literal := quoteName(name)
	if decl.NameNode != nil {
		return splice(src.Content, int(decl.NameNode.StartByte()), int(decl.NameNode.EndByte()), literal)
	}

	// The arguments node starts at its opening parenthesis.
	at := int(decl.Args.StartByte()) + 1
	if countArgs(decl.Args) > 0 {
		literal += ", "
	}
	return splice(src.Content, at, at, literal)
}

// splice replaces content[start:end] with text.
func splice(content []byte, start, end int, text string) ([]byte, error) {
	if start < 0 || start > end || end > len(content) {
		return nil, errors.New(errors.CodeInternal, "rewrite range outside source bounds")
	}
	var out bytes.Buffer
	out.Grow(len(content) - (end - start) + len(text))
	out.Write(content[:start])
	out.WriteString(text)
	out.Write(content[end:])
	return out.Bytes(), nil
}

func quoteName(name string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(name) + "'"
}
