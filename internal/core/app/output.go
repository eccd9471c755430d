package app

import (
	"context"
	"path"

	"codeshape/internal/data/artifact"
	"codeshape/internal/engine/corpus"
)

// Artifact file names, relative to the output directory.
const (
	DetailedFile   = "ast_analysis_detailed.json"
	SummaryFile    = "ast_analysis_summary.json"
	ComparisonFile = "version_comparison.json"
	EvolutionFile  = "evolution_report.json"
)

// SummaryArtifact is the per-snapshot summary file: scalar totals next to
// the most common names.
type SummaryArtifact struct {
	corpus.Totals          `yaml:",inline"`
	corpus.FrequencyTables `yaml:",inline"`
}

// writeArtifact encodes v in the configured format and hands it to the sink.
// Failures are logged by the sink and reported to the caller, never fatal.
func (s *Service) writeArtifact(ctx context.Context, runID string, elems []string, v any, written *[]string) error {
	if s.sink == nil {
		return nil
	}
	format := s.cfg.Output.Format
	elems = append([]string(nil), elems...)
	elems[len(elems)-1] = artifact.FileName(elems[len(elems)-1], format)
	rel := path.Join(elems...)

	data, err := artifact.Encode(format, v)
	if err != nil {
		return err
	}
	if err := s.sink.Put(ctx, runID, rel, data); err != nil {
		return err
	}
	*written = append(*written, rel)
	return nil
}
