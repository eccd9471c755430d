package history

import (
	"time"

	"codeshape/internal/engine/corpus"
)

const SchemaVersion = 1

// Record is one finalized snapshot summary as persisted.
type Record struct {
	ProjectKey    string        `json:"project_key"`
	Label         string        `json:"label"`
	RunID         string        `json:"run_id"`
	SchemaVersion int           `json:"schema_version"`
	Timestamp     time.Time     `json:"timestamp"`
	FailureCount  int           `json:"failure_count"`
	Totals        corpus.Totals `json:"totals"`
}
