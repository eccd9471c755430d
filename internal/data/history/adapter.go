package history

import (
	"context"

	"codeshape/internal/engine/corpus"
	"codeshape/internal/engine/evolution"
)

// Adapter bridges Store to the core HistoryStore port.
type Adapter struct {
	store *Store
}

func NewAdapter(store *Store) *Adapter {
	return &Adapter{store: store}
}

func (a *Adapter) SaveSnapshot(ctx context.Context, projectKey, runID string, summary *corpus.CorpusSummary) error {
	return a.store.SaveSummary(ctx, Record{
		ProjectKey:   projectKey,
		Label:        summary.Label,
		RunID:        runID,
		FailureCount: len(summary.Failures),
		Totals:       summary.Totals(),
	})
}

func (a *Adapter) LoadSnapshots(ctx context.Context, projectKey string) ([]evolution.Snapshot, error) {
	records, err := a.store.LoadSummaries(ctx, projectKey)
	if err != nil {
		return nil, err
	}
	out := make([]evolution.Snapshot, 0, len(records))
	for _, rec := range records {
		out = append(out, evolution.Snapshot{Label: rec.Label, Totals: rec.Totals})
	}
	return out, nil
}

func (a *Adapter) Close() error {
	return a.store.Close()
}
