package ports

import (
	"context"

	"codeshape/internal/engine/corpus"
	"codeshape/internal/engine/evolution"
)

// ArtifactSink abstracts where encoded results are written.
type ArtifactSink interface {
	Name() string
	Put(ctx context.Context, runID, path string, content []byte) error
}

// HistoryStore abstracts snapshot summary persistence for evolve-from-history.
type HistoryStore interface {
	SaveSnapshot(ctx context.Context, projectKey, runID string, summary *corpus.CorpusSummary) error
	LoadSnapshots(ctx context.Context, projectKey string) ([]evolution.Snapshot, error)
}

// SnapshotSource names one snapshot tree to analyze.
type SnapshotSource struct {
	Label string
	Root  string
}

// SnapshotFailure records a snapshot that could not be analyzed at all.
type SnapshotFailure struct {
	Label string `json:"label"`
	Root  string `json:"root"`
	Error string `json:"error"`
}

// SnapshotResult is one analyzed snapshot with its frequency tables.
type SnapshotResult struct {
	Summary     *corpus.CorpusSummary
	Frequencies corpus.FrequencyTables
}

// RunResult summarizes a completed multi-snapshot run.
type RunResult struct {
	RunID     string
	Snapshots []SnapshotResult
	Failed    []SnapshotFailure
	Evolution evolution.EvolutionReport
	// Written lists artifact paths the sink accepted.
	Written []string
}

// AnalysisService is the driving port used by the CLI.
type AnalysisService interface {
	AnalyzeSnapshots(ctx context.Context, sources []SnapshotSource) (RunResult, error)
	EvolveFromHistory(ctx context.Context) (evolution.EvolutionReport, error)
	Close() error
}
