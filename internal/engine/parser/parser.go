package parser

import (
	"bytes"
	"fmt"
	"time"
	"unicode/utf8"

	"codeshape/internal/core/errors"
	"codeshape/internal/shared/observability"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Options configures an Extractor.
type Options struct {
	MethodNameLimit int
	// CacheEntries bounds the content-hash result cache; 0 disables it.
	CacheEntries int
}

// Extractor parses Python source into structural records. It is safe for
// concurrent use.
type Extractor struct {
	pool   *ParserPool
	python *PythonExtractor
	cache  *ResultCache
}

func NewExtractor(opts Options) (*Extractor, error) {
	cache, err := NewResultCache(opts.CacheEntries)
	if err != nil {
		return nil, err
	}
	return &Extractor{
		pool:   NewParserPool(PythonLanguage()),
		python: &PythonExtractor{MethodNameLimit: opts.MethodNameLimit},
		cache:  cache,
	}, nil
}

// Close frees the parsers held by the extractor. The extractor must not be
// used afterwards.
func (x *Extractor) Close() error {
	x.pool.Close()
	return nil
}

// AnalyzeFile extracts records from content, reusing a previous result when
// identical bytes were analyzed before under any path. Failures are
// EXTRACTION_ERROR domain errors tagged with path.
func (x *Extractor) AnalyzeFile(path string, content []byte) (FileResult, error) {
	if cached, ok := x.cache.Get(content); ok {
		observability.ExtractionCacheHitsTotal.Inc()
		if cached.err != nil {
			return FileResult{}, errors.Extraction(path, cached.err)
		}
		return cached.result.withPath(path), nil
	}

	result, cause := x.extract(path, content)
	x.cache.Add(content, cachedResult{result: result, err: cause})
	if cause != nil {
		return FileResult{}, errors.Extraction(path, cause)
	}
	return result.withPath(path), nil
}

// AnalyzeSource extracts records without consulting the cache.
func (x *Extractor) AnalyzeSource(path string, content []byte) (FileResult, error) {
	result, cause := x.extract(path, content)
	if cause != nil {
		return FileResult{}, errors.Extraction(path, cause)
	}
	return result, nil
}

func (x *Extractor) extract(path string, content []byte) (FileResult, error) {
	start := time.Now()
	defer func() {
		observability.ParsingDuration.WithLabelValues(LanguagePython).Observe(time.Since(start).Seconds())
	}()

	if !utf8.Valid(content) {
		return FileResult{}, ErrInvalidEncoding
	}
	content = bytes.TrimPrefix(content, utf8BOM)
	if len(content) == 0 {
		return x.python.Extract(nil, content, path), nil
	}

	tree, err := x.pool.Parse(content)
	if err != nil {
		return FileResult{}, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return FileResult{}, fmt.Errorf("parser returned no root node")
	}
	if root.HasError() {
		return FileResult{}, syntaxError(root)
	}
	if node := firstPython2Statement(root); node != nil {
		return FileResult{}, syntaxErrorAt(node)
	}

	return x.python.Extract(root, content, path), nil
}

// ErrInvalidEncoding is the cause recorded for files that are not valid UTF-8.
var ErrInvalidEncoding = errors.New(errors.CodeValidationError, "source is not valid UTF-8")

// SyntaxError is the cause recorded for files the grammar rejects.
type SyntaxError struct {
	Line   int
	Column int
}

func (e *SyntaxError) Error() string {
	if e.Line == 0 {
		return "invalid syntax"
	}
	return fmt.Sprintf("invalid syntax at line %d, column %d", e.Line, e.Column)
}

func syntaxError(root *sitter.Node) error {
	node := firstErrorNode(root)
	if node == nil {
		return &SyntaxError{}
	}
	return syntaxErrorAt(node)
}

func syntaxErrorAt(node *sitter.Node) error {
	pos := node.StartPosition()
	return &SyntaxError{Line: int(pos.Row) + 1, Column: int(pos.Column) + 1}
}

// python2Statements are accepted by the grammar but invalid in Python 3.
var python2Statements = map[string]bool{
	"print_statement": true,
	"exec_statement":  true,
}

// firstPython2Statement returns the first print or exec statement in source
// order, or nil.
func firstPython2Statement(root *sitter.Node) *sitter.Node {
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if python2Statements[node.Kind()] {
			return node
		}
		for i := node.NamedChildCount(); i > 0; i-- {
			if child := node.NamedChild(i - 1); child != nil {
				stack = append(stack, child)
			}
		}
	}
	return nil
}

// firstErrorNode descends only into subtrees that contain errors.
func firstErrorNode(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || !(child.HasError() || child.IsMissing()) {
			continue
		}
		if found := firstErrorNode(child); found != nil {
			return found
		}
	}
	return nil
}

// CountLines counts lines the way str.splitlines does for \n, \r\n and \r.
func CountLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	lines := 0
	for i := 0; i < len(content); i++ {
		switch content[i] {
		case '\n':
			lines++
		case '\r':
			lines++
			if i+1 < len(content) && content[i+1] == '\n' {
				i++
			}
		}
	}
	last := content[len(content)-1]
	if last != '\n' && last != '\r' {
		lines++
	}
	return lines
}
