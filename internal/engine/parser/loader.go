package parser

import (
	"strings"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// LanguagePython is the only grammar the extractor understands.
const LanguagePython = "python"

var (
	pythonOnce     sync.Once
	pythonLanguage *sitter.Language
)

// PythonLanguage returns the process-wide tree-sitter Python grammar.
func PythonLanguage() *sitter.Language {
	pythonOnce.Do(func() {
		pythonLanguage = sitter.NewLanguage(tree_sitter_python.Language())
	})
	return pythonLanguage
}

// DefaultExtensions lists the file extensions treated as Python source.
func DefaultExtensions() []string {
	return []string{".py"}
}

// HasExtension reports whether path ends with one of exts (case-insensitive).
func HasExtension(path string, exts []string) bool {
	lower := strings.ToLower(path)
	for _, ext := range exts {
		if ext == "" {
			continue
		}
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}
