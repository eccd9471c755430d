// # internal/engine/parser/pool.go
package parser

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"codeshape/internal/shared/observability"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ParserPool recycles tree-sitter parsers so parallel extraction workers do
// not allocate and close one per file. At most size idle parsers are kept;
// parsers returned beyond that, or after Close, are closed immediately so
// their C allocations are freed. Safe for concurrent use.
type ParserPool struct {
	lang   *sitter.Language
	leased atomic.Int64

	mu     sync.Mutex
	idle   []*sitter.Parser
	size   int
	closed bool
}

// NewParserPool creates a pool for the given language grammar that keeps up
// to GOMAXPROCS idle parsers.
func NewParserPool(lang *sitter.Language) *ParserPool {
	return NewParserPoolSize(lang, runtime.GOMAXPROCS(0))
}

// NewParserPoolSize creates a pool that keeps at most size idle parsers.
func NewParserPoolSize(lang *sitter.Language, size int) *ParserPool {
	if size < 1 {
		size = 1
	}
	return &ParserPool{lang: lang, size: size, idle: make([]*sitter.Parser, 0, size)}
}

// Get leases a parser configured for the pool's language.
func (p *ParserPool) Get() *sitter.Parser {
	var sp *sitter.Parser
	p.mu.Lock()
	if n := len(p.idle); n > 0 {
		sp = p.idle[n-1]
		p.idle = p.idle[:n-1]
	}
	p.mu.Unlock()

	if sp == nil {
		sp = sitter.NewParser()
	}
	// Reset() elsewhere may have cleared the language.
	_ = sp.SetLanguage(p.lang)

	p.leased.Add(1)
	observability.ParsersLeased.Inc()
	return sp
}

// Put resets sp and returns it to the pool. Callers must not use sp afterwards.
func (p *ParserPool) Put(sp *sitter.Parser) {
	if sp == nil {
		return
	}
	p.leased.Add(-1)
	observability.ParsersLeased.Dec()
	sp.Reset()

	p.mu.Lock()
	if !p.closed && len(p.idle) < p.size {
		p.idle = append(p.idle, sp)
		sp = nil
	}
	p.mu.Unlock()

	if sp != nil {
		sp.Close()
	}
}

// Parse leases a parser for one parse of source. The returned tree does not
// reference the parser and must be closed by the caller.
func (p *ParserPool) Parse(source []byte) (*sitter.Tree, error) {
	sp := p.Get()
	defer p.Put(sp)

	tree := sp.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("parser returned no tree")
	}
	return tree, nil
}

// Close frees every idle parser. Parsers still leased are closed when they
// are returned.
func (p *ParserPool) Close() {
	p.mu.Lock()
	idle := p.idle
	p.idle = nil
	p.closed = true
	p.mu.Unlock()

	for _, sp := range idle {
		sp.Close()
	}
}

// Stats returns the number of currently leased parsers.
func (p *ParserPool) Stats() int {
	return int(p.leased.Load())
}

// Idle returns the number of parsers waiting for reuse.
func (p *ParserPool) Idle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}
