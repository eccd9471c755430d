package corpus

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"codeshape/internal/engine/parser"

	"github.com/gobwas/glob"
)

// Scanner enumerates the source files of one snapshot. filepath.WalkDir
// visits entries in lexical order, so the file list is deterministic.
type Scanner struct {
	extensions []string
	dirGlobs   []glob.Glob
	fileGlobs  []glob.Glob
}

// NewScanner compiles the exclude patterns. Patterns match the base name of
// a directory or file.
func NewScanner(extensions, excludeDirs, excludeFiles []string) (*Scanner, error) {
	if len(extensions) == 0 {
		extensions = parser.DefaultExtensions()
	}

	dirGlobs, err := compileGlobs(excludeDirs)
	if err != nil {
		return nil, fmt.Errorf("invalid exclude dir pattern %w", err)
	}
	fileGlobs, err := compileGlobs(excludeFiles)
	if err != nil {
		return nil, fmt.Errorf("invalid exclude file pattern %w", err)
	}

	return &Scanner{
		extensions: extensions,
		dirGlobs:   dirGlobs,
		fileGlobs:  fileGlobs,
	}, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// Scan returns every matching file under root. The root itself is never
// excluded, even when its name matches an exclude pattern.
func (s *Scanner) Scan(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		base := filepath.Base(path)
		if d.IsDir() {
			if path == root {
				return nil
			}
			if matchAny(s.dirGlobs, base) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if !parser.HasExtension(path, s.extensions) {
			return nil
		}
		if matchAny(s.fileGlobs, base) {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func matchAny(globs []glob.Glob, name string) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}
