package parser

import (
	"depmanifest/internal/core/errors"
	"depmanifest/internal/shared/observability"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

type Parser struct {
	loader     *GrammarLoader
	extensions map[string]string
	pools      map[string]*ParserPool
}

func NewParser(loader *GrammarLoader) *Parser {
	p := &Parser{
		loader:     loader,
		extensions: make(map[string]string),
		pools:      make(map[string]*ParserPool),
	}
	for lang, spec := range loader.LanguageRegistry() {
		if !spec.Enabled {
			continue
		}
		for _, ext := range spec.Extensions {
			p.extensions[strings.ToLower(ext)] = lang
		}
		if grammar := loader.Language(lang); grammar != nil {
			p.pools[lang] = NewParserPool(grammar)
		}
	}
	return p
}

// Close frees the pooled parsers.
func (p *Parser) Close() {
	for _, pool := range p.pools {
		pool.Close()
	}
}

// ParseFile parses content into a syntax tree. A tree containing error or
// missing nodes is reported as a SYNTAX_ERROR. The caller must Close the
// returned Source.
func (p *Parser) ParseFile(path string, content []byte) (*Source, error) {
	lang := p.GetLanguage(path)
	if lang == "" {
		return nil, errors.AddContext(errors.New(errors.CodeNotSupported, "unsupported language"), errors.CtxPath, path)
	}

	pool := p.pools[lang]
	if pool == nil {
		return nil, errors.New(errors.CodeInternal, fmt.Sprintf("grammar not loaded: %s", lang))
	}

	parser, err := pool.Get()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "set parser language")
	}
	defer pool.Put(parser)

	start := time.Now()
	tree := parser.Parse(content, nil)
	observability.ParsingDuration.WithLabelValues(lang).Observe(time.Since(start).Seconds())
	if tree == nil {
		return nil, errors.AddContext(errors.New(errors.CodeSyntaxError, "parse failed"), errors.CtxPath, path)
	}

	root := tree.RootNode()
	if root == nil || root.HasError() {
		loc := firstErrorLocation(root)
		tree.Close()
		err := errors.New(errors.CodeSyntaxError, fmt.Sprintf("invalid %s file", lang))
		err = errors.AddContext(err, errors.CtxPath, path)
		if loc != "" {
			err = errors.AddContext(err, "position", loc)
		}
		return nil, err
	}

	return &Source{
		Path:     path,
		Language: lang,
		Content:  content,
		tree:     tree,
	}, nil
}

// firstErrorLocation finds the first ERROR or MISSING node in document order.
func firstErrorLocation(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	if node.IsError() || node.IsMissing() {
		pos := node.StartPosition()
		return fmt.Sprintf("%d:%d", pos.Row+1, pos.Column+1)
	}
	if !node.HasError() {
		return ""
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if loc := firstErrorLocation(node.Child(i)); loc != "" {
			return loc
		}
	}
	return ""
}

func (p *Parser) GetLanguage(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	return p.extensions[ext]
}

func (p *Parser) IsSupportedPath(path string) bool {
	return p.GetLanguage(path) != ""
}

func (p *Parser) SupportedExtensions() []string {
	return p.loader.SupportedExtensions()
}
