package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"codeshape/internal/core/errors"
	"codeshape/internal/engine/parser"
	"codeshape/internal/shared/observability"
	"codeshape/internal/shared/util"

	"go.opentelemetry.io/otel/codes"
)

// FileAnalyzer extracts the records of a single source file.
type FileAnalyzer interface {
	AnalyzeFile(path string, content []byte) (parser.FileResult, error)
}

type Options struct {
	Extensions   []string
	ExcludeDirs  []string
	ExcludeFiles []string
	// Workers > 1 reads and extracts files in parallel. Results are merged in
	// scan order either way.
	Workers           int
	MaxFilesPerSecond float64
	// MaxFileBytes skips larger files as extraction failures. Zero disables.
	MaxFileBytes int64
}

func DefaultOptions() Options {
	return Options{
		Extensions: parser.DefaultExtensions(),
		ExcludeDirs: []string{
			".git", "__pycache__", ".venv", "venv", ".tox", "node_modules",
		},
		Workers: 1,
	}
}

// Aggregator walks a snapshot directory and folds every file into a
// CorpusSummary.
type Aggregator struct {
	analyzer FileAnalyzer
	scanner  *Scanner
	opts     Options
}

func NewAggregator(analyzer FileAnalyzer, opts Options) (*Aggregator, error) {
	if analyzer == nil {
		return nil, errors.New(errors.CodeValidationError, "corpus aggregator requires a file analyzer")
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	scanner, err := NewScanner(opts.Extensions, opts.ExcludeDirs, opts.ExcludeFiles)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "compile scan patterns")
	}
	return &Aggregator{analyzer: analyzer, scanner: scanner, opts: opts}, nil
}

type fileOutcome struct {
	path   string
	result parser.FileResult
	err    error

	// done is false for slots no worker reached.
	done bool
}

// AnalyzeDirectory extracts every source file under root. Files that fail
// extraction are logged, listed in Failures and excluded from every total.
// An error is returned only when root cannot be walked or ctx is cancelled.
func (a *Aggregator) AnalyzeDirectory(ctx context.Context, root string) (*CorpusSummary, error) {
	start := time.Now()
	ctx, span := observability.Tracer().Start(ctx, "corpus.AnalyzeDirectory")
	defer span.End()
	span.SetAttributes(observability.AttrSnapshotRoot.String(root))

	info, err := os.Stat(root)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stat root")
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "snapshot root unavailable"), errors.CtxPath, root)
	}
	if !info.IsDir() {
		return nil, errors.AddContext(errors.New(errors.CodeValidationError, "snapshot root is not a directory"), errors.CtxPath, root)
	}

	files, err := a.scanner.Scan(root)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scan")
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "walk snapshot"), errors.CtxPath, root)
	}

	outcomes := a.extractAll(ctx, root, files)
	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cancelled")
		return nil, fmt.Errorf("analyze %s: %w", root, err)
	}

	summary := newSummary("")
	for _, out := range outcomes {
		if !out.done {
			continue
		}
		if out.err != nil {
			slog.Warn("skipping file", "path", out.path, "error", out.err)
			observability.ExtractionFailuresTotal.Inc()
			summary.fail(out.path, out.err)
			continue
		}
		observability.FilesAnalyzedTotal.Inc()
		summary.add(out.result)
	}
	summary.finalize()

	span.SetAttributes(
		observability.AttrFileCount.Int(summary.FilesAnalyzed),
		observability.AttrFailureCount.Int(len(summary.Failures)),
	)
	slog.Debug("snapshot analyzed",
		"root", root,
		"files", summary.FilesAnalyzed,
		"failures", len(summary.Failures),
		"duration", time.Since(start))
	return summary, nil
}

// extractAll fills one outcome slot per file. Each worker owns the slots it
// writes, so merging afterwards in index order keeps totals deterministic.
func (a *Aggregator) extractAll(ctx context.Context, root string, files []string) []fileOutcome {
	outcomes := make([]fileOutcome, len(files))
	limiter := util.NewLimiter(a.opts.MaxFilesPerSecond, a.opts.Workers)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < a.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					continue
				}
				if err := limiter.Wait(ctx, 1); err != nil {
					rel := util.RelativeSlashPath(root, files[idx])
					outcomes[idx] = fileOutcome{
						path: rel,
						err:  errors.Extraction(rel, fmt.Errorf("rate limit wait: %w", err)),
						done: true,
					}
					continue
				}
				outcomes[idx] = a.extractOne(root, files[idx])
			}
		}()
	}

	for idx := range files {
		if ctx.Err() != nil {
			break
		}
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

func (a *Aggregator) extractOne(root, path string) fileOutcome {
	rel := util.RelativeSlashPath(root, path)
	out := fileOutcome{path: rel, done: true}

	if a.opts.MaxFileBytes > 0 {
		if info, err := os.Stat(path); err == nil && info.Size() > a.opts.MaxFileBytes {
			out.err = errors.Extraction(rel, fmt.Errorf("file size %d exceeds limit %d", info.Size(), a.opts.MaxFileBytes))
			return out
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		out.err = errors.Extraction(rel, err)
		return out
	}

	out.result, out.err = a.analyzer.AnalyzeFile(rel, content)
	return out
}

// AnalyzeSnapshot is AnalyzeDirectory with the summary stamped with label.
func (a *Aggregator) AnalyzeSnapshot(ctx context.Context, label, root string) (*CorpusSummary, error) {
	start := time.Now()
	summary, err := a.AnalyzeDirectory(ctx, root)
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxLabel, label)
	}
	summary.Label = label
	observability.SnapshotDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	return summary, nil
}
