package parser

import (
	"runtime"
	"sync/atomic"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ParserPool recycles tree-sitter parsers configured for one grammar, so a
// scan does not allocate a parser per file. At most capacity idle parsers
// are kept; parsers returned beyond that are closed. Safe for concurrent use.
type ParserPool struct {
	lang   *sitter.Language
	idle   chan *sitter.Parser
	leased atomic.Int64
}

func NewParserPool(lang *sitter.Language) *ParserPool {
	return NewParserPoolSize(lang, runtime.GOMAXPROCS(0))
}

func NewParserPoolSize(lang *sitter.Language, capacity int) *ParserPool {
	if capacity < 1 {
		capacity = 1
	}
	return &ParserPool{lang: lang, idle: make(chan *sitter.Parser, capacity)}
}

// Get returns a parser set to the pool's grammar.
func (p *ParserPool) Get() (*sitter.Parser, error) {
	var sp *sitter.Parser
	select {
	case sp = <-p.idle:
	default:
		sp = sitter.NewParser()
	}
	if err := sp.SetLanguage(p.lang); err != nil {
		sp.Close()
		return nil, err
	}
	p.leased.Add(1)
	return sp, nil
}

// Put resets sp and returns it to the pool. sp must not be used afterwards.
func (p *ParserPool) Put(sp *sitter.Parser) {
	if sp == nil {
		return
	}
	p.leased.Add(-1)
	sp.Reset()
	select {
	case p.idle <- sp:
	default:
		sp.Close()
	}
}

// InUse returns the number of parsers currently leased.
func (p *ParserPool) InUse() int {
	return int(p.leased.Load())
}

// Idle returns the number of parsers waiting for reuse.
func (p *ParserPool) Idle() int {
	return len(p.idle)
}

// Close frees the idle parsers. Parsers still leased are closed when they
// are put back after Close.
func (p *ParserPool) Close() {
	for {
		select {
		case sp := <-p.idle:
			sp.Close()
		default:
			return
		}
	}
}
