package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"codeshape/internal/core/config"
	domainerrors "codeshape/internal/core/errors"
	"codeshape/internal/core/ports"
	"codeshape/internal/data/artifact"
	"codeshape/internal/engine/corpus"
	"codeshape/internal/engine/evolution"
	"codeshape/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Service drives the aggregator over snapshots, persists artifacts and
// history, and compares the results.
type Service struct {
	cfg        *config.Config
	aggregator *corpus.Aggregator
	comparator *evolution.Comparator
	sink       ports.ArtifactSink
	history    ports.HistoryStore
	closers    []func() error
}

var _ ports.AnalysisService = (*Service)(nil)

// AnalyzeSnapshots analyzes each source in turn, writes the per-snapshot and
// cross-snapshot artifacts, and evolves the results. A snapshot whose root
// cannot be walked is reported in Failed and skipped. Persistence failures
// are logged and never abort the run. Only cancellation returns an error.
func (s *Service) AnalyzeSnapshots(ctx context.Context, sources []ports.SnapshotSource) (ports.RunResult, error) {
	runID := artifact.NewRunID()
	ctx, span := observability.Tracer().Start(ctx, "app.AnalyzeSnapshots",
		trace.WithAttributes(
			attribute.String("codeshape.run_id", runID),
			attribute.Int("codeshape.snapshots", len(sources)),
		))
	defer span.End()

	result := ports.RunResult{
		RunID:     runID,
		Snapshots: make([]ports.SnapshotResult, 0, len(sources)),
		Failed:    make([]ports.SnapshotFailure, 0),
		Written:   make([]string, 0),
	}

	totals := make(map[string]corpus.Totals, len(sources))
	snaps := make([]evolution.Snapshot, 0, len(sources))

	for _, src := range sources {
		summary, err := s.aggregator.AnalyzeSnapshot(ctx, src.Label, src.Root)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			if domainerrors.IsCode(err, domainerrors.CodeNotFound) {
				slog.Warn("snapshot root not found", "label", src.Label, "path", domainerrors.PathOf(err))
			} else {
				slog.Warn("snapshot analysis failed", "label", src.Label, "root", src.Root, "error", err)
			}
			result.Failed = append(result.Failed, ports.SnapshotFailure{Label: src.Label, Root: src.Root, Error: err.Error()})
			continue
		}

		tables := corpus.BuildFrequencyTables(summary, s.cfg.Summary.TopN)
		result.Snapshots = append(result.Snapshots, ports.SnapshotResult{Summary: summary, Frequencies: tables})
		totals[src.Label] = summary.Totals()
		snaps = append(snaps, evolution.SnapshotFromSummary(summary))

		slog.Info("snapshot analyzed",
			"label", src.Label,
			"files", summary.FilesAnalyzed,
			"functions", summary.TotalFunctions,
			"classes", summary.TotalClasses,
			"imports", summary.TotalImports,
			"skipped", len(summary.Failures))

		s.persistSnapshot(ctx, runID, summary, tables, &result.Written)
	}

	result.Evolution = s.comparator.EvolveContext(ctx, snaps)

	if len(totals) > 0 {
		s.logWriteError(s.writeArtifact(ctx, runID, []string{ComparisonFile}, totals, &result.Written), ComparisonFile)
		s.logWriteError(s.writeArtifact(ctx, runID, []string{EvolutionFile}, result.Evolution, &result.Written), EvolutionFile)
	}

	return result, nil
}

func (s *Service) persistSnapshot(ctx context.Context, runID string, summary *corpus.CorpusSummary, tables corpus.FrequencyTables, written *[]string) {
	label := summary.Label
	s.logWriteError(s.writeArtifact(ctx, runID, []string{label, DetailedFile}, summary, written), label+"/"+DetailedFile)
	s.logWriteError(s.writeArtifact(ctx, runID, []string{label, SummaryFile}, SummaryArtifact{
		Totals:          summary.Totals(),
		FrequencyTables: tables,
	}, written), label+"/"+SummaryFile)

	if s.history == nil {
		return
	}
	if err := s.history.SaveSnapshot(ctx, s.cfg.History.Project, runID, summary); err != nil {
		observability.SinkWriteErrorsTotal.WithLabelValues("history").Inc()
		slog.Warn("history save failed", "label", label, "error", err)
	}
}

func (s *Service) logWriteError(err error, name string) {
	if err != nil {
		slog.Warn("artifact not written", "artifact", name, "error", err)
	}
}

// EvolveFromHistory compares every summary previously saved for the
// configured project without walking any tree.
func (s *Service) EvolveFromHistory(ctx context.Context) (evolution.EvolutionReport, error) {
	if s.history == nil {
		return evolution.EvolutionReport{}, errors.New("history is not enabled")
	}
	snaps, err := s.history.LoadSnapshots(ctx, s.cfg.History.Project)
	if err != nil {
		return evolution.EvolutionReport{}, fmt.Errorf("load history: %w", err)
	}
	return s.comparator.EvolveContext(ctx, snaps), nil
}

// Discover lists snapshot directories under reposDir in version order.
func (s *Service) Discover(reposDir, prefix string) ([]ports.SnapshotSource, error) {
	dirs, err := s.comparator.Discover(reposDir, prefix)
	if err != nil {
		return nil, err
	}
	out := make([]ports.SnapshotSource, 0, len(dirs))
	for _, d := range dirs {
		out = append(out, ports.SnapshotSource{Label: d.Label, Root: d.Root})
	}
	return out, nil
}

func (s *Service) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
