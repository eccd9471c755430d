package corpus

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeshape/internal/core/errors"
	"codeshape/internal/engine/parser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, body := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	return root
}

func newTestAggregator(t *testing.T, opts Options) *Aggregator {
	t.Helper()
	x, err := parser.NewExtractor(parser.Options{CacheEntries: 64})
	require.NoError(t, err)
	agg, err := NewAggregator(x, opts)
	require.NoError(t, err)
	return agg
}

const validA = `import os

def one(a, b):
    return a + b

class Thing(Base):
    def m(self):
        pass
`

const validB = `from typing import List

def two():
    pass

def three(*args, **kwargs):
    pass
`

func TestAnalyzeDirectory_SkipsInvalidFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.py":        validA,
		"pkg/b.py":    validB,
		"pkg/bad.py":  "def broken(:\n",
		"notes.txt":   "def ignored(): pass\n",
		".git/x.py":   "def hidden(): pass\n",
		"venv/lib.py": "def vendored(): pass\n",
	})

	agg := newTestAggregator(t, DefaultOptions())
	summary, err := agg.AnalyzeDirectory(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.FilesAnalyzed)
	assert.Equal(t, 4, summary.TotalFunctions)
	assert.Equal(t, 1, summary.TotalClasses)
	assert.Equal(t, 2, summary.TotalImports)
	assert.Equal(t, 15, summary.TotalLines)
	assert.InDelta(t, 2.0, summary.AvgFunctionsPerFile, 1e-9)
	assert.InDelta(t, 0.5, summary.AvgClassesPerFile, 1e-9)

	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "pkg/bad.py", summary.Failures[0].Path)

	paths := make([]string, 0, len(summary.Files))
	for _, f := range summary.Files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"a.py", "pkg/b.py"}, paths)

	names := make([]string, 0, len(summary.Functions))
	for _, fn := range summary.Functions {
		names = append(names, fn.Name)
	}
	assert.Equal(t, []string{"one", "m", "two", "three"}, names)
}

func TestAnalyzeDirectory_TotalsMatchRecordSums(t *testing.T) {
	root := writeTree(t, map[string]string{"a.py": validA, "b.py": validB})
	summary, err := newTestAggregator(t, DefaultOptions()).AnalyzeDirectory(context.Background(), root)
	require.NoError(t, err)

	var fns, classes, imports int
	for _, f := range summary.Files {
		fns += f.FunctionCount
		classes += f.ClassCount
		imports += f.ImportCount
	}
	assert.Equal(t, summary.TotalFunctions, fns)
	assert.Equal(t, summary.TotalClasses, classes)
	assert.Equal(t, summary.TotalImports, imports)
	assert.Len(t, summary.Functions, summary.TotalFunctions)
	assert.Len(t, summary.Classes, summary.TotalClasses)
	assert.Len(t, summary.Imports, summary.TotalImports)
}

func TestAnalyzeDirectory_Idempotent(t *testing.T) {
	root := writeTree(t, map[string]string{"a.py": validA, "b.py": validB, "c/d.py": validA})
	agg := newTestAggregator(t, DefaultOptions())

	first, err := agg.AnalyzeDirectory(context.Background(), root)
	require.NoError(t, err)
	second, err := agg.AnalyzeDirectory(context.Background(), root)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestAnalyzeDirectory_ParallelMatchesSequential(t *testing.T) {
	files := map[string]string{}
	for i, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		body := validA
		if i%2 == 1 {
			body = validB
		}
		files[name+"/mod.py"] = body
	}
	root := writeTree(t, files)

	seq, err := newTestAggregator(t, DefaultOptions()).AnalyzeDirectory(context.Background(), root)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Workers = 4
	par, err := newTestAggregator(t, opts).AnalyzeDirectory(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, seq.Totals(), par.Totals())
	assert.Equal(t, seq.Files, par.Files)
	assert.Equal(t, seq.Functions, par.Functions)
}

func TestAnalyzeDirectory_EmptySnapshot(t *testing.T) {
	root := writeTree(t, map[string]string{"README.md": "# nothing"})
	summary, err := newTestAggregator(t, DefaultOptions()).AnalyzeDirectory(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.FilesAnalyzed)
	assert.Zero(t, summary.AvgFunctionsPerFile)
	assert.Zero(t, summary.AvgClassesPerFile)
	assert.NotNil(t, summary.Functions)
}

func TestAnalyzeDirectory_MissingRoot(t *testing.T) {
	agg := newTestAggregator(t, DefaultOptions())
	_, err := agg.AnalyzeDirectory(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestAnalyzeDirectory_Cancelled(t *testing.T) {
	root := writeTree(t, map[string]string{"a.py": validA})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestAggregator(t, DefaultOptions()).AnalyzeDirectory(ctx, root)
	require.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeDirectory_RateLimitDeadlineRecordsFailures(t *testing.T) {
	root := writeTree(t, map[string]string{"a.py": validA, "b.py": validB, "c.py": "def c():\n    pass\n"})
	opts := DefaultOptions()
	opts.MaxFilesPerSecond = 0.5
	// The first file uses the burst token; the rest would wait past the deadline.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	summary, err := newTestAggregator(t, opts).AnalyzeDirectory(ctx, root)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.FilesAnalyzed)
	require.Len(t, summary.Files, 1)
	assert.Equal(t, "a.py", summary.Files[0].Path)
	require.Len(t, summary.Failures, 2)
	assert.Equal(t, "b.py", summary.Failures[0].Path)
	assert.Equal(t, "c.py", summary.Failures[1].Path)
	assert.Equal(t, summary.Files[0].FunctionCount, summary.TotalFunctions)
}

func TestAnalyzeDirectory_MaxFileBytes(t *testing.T) {
	root := writeTree(t, map[string]string{"a.py": validA, "small.py": "x = 1\n"})
	opts := DefaultOptions()
	opts.MaxFileBytes = 16
	summary, err := newTestAggregator(t, opts).AnalyzeDirectory(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.FilesAnalyzed)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "a.py", summary.Failures[0].Path)
}

func TestAnalyzeSnapshot_StampsLabel(t *testing.T) {
	root := writeTree(t, map[string]string{"a.py": validA})
	summary, err := newTestAggregator(t, DefaultOptions()).AnalyzeSnapshot(context.Background(), "proj_1.0.0", root)
	require.NoError(t, err)
	assert.Equal(t, "proj_1.0.0", summary.Label)
}

func TestNewAggregator_RejectsBadPattern(t *testing.T) {
	x, err := parser.NewExtractor(parser.Options{})
	require.NoError(t, err)
	opts := DefaultOptions()
	opts.ExcludeFiles = []string{"[unclosed"}
	_, err = NewAggregator(x, opts)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}
