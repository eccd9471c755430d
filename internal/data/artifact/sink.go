package artifact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	domainerrors "codeshape/internal/core/errors"
	"codeshape/internal/shared/observability"

	"github.com/google/uuid"
)

var ErrNotFound = domainerrors.New(domainerrors.CodeNotFound, "artifact not found")

// Sink receives encoded artifacts keyed by run id and relative path.
type Sink interface {
	Name() string
	Put(ctx context.Context, runID, path string, content []byte) error
}

// NewRunID returns a fresh identifier for one analysis run.
func NewRunID() string {
	return uuid.NewString()
}

// MultiSink fans every Put out to all sinks. A failing sink does not stop
// the others; the joined error reports each failure.
type MultiSink struct {
	sinks []Sink
}

func NewMultiSink(sinks ...Sink) *MultiSink {
	kept := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &MultiSink{sinks: kept}
}

func (m *MultiSink) Name() string { return "multi" }

func (m *MultiSink) Len() int { return len(m.sinks) }

func (m *MultiSink) Put(ctx context.Context, runID, path string, content []byte) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Put(ctx, runID, path, content); err != nil {
			observability.SinkWriteErrorsTotal.WithLabelValues(s.Name()).Inc()
			slog.Warn("artifact write failed", "sink", s.Name(), "path", path, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
