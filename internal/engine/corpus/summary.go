package corpus

import (
	"codeshape/internal/engine/parser"
)

// CorpusSummary accumulates the records of one snapshot walk. Averages are
// only meaningful after finalize has run at the end of the walk.
type CorpusSummary struct {
	Label          string `json:"label,omitempty" yaml:"label,omitempty"`
	FilesAnalyzed  int    `json:"files_analyzed" yaml:"files_analyzed"`
	TotalFunctions int    `json:"total_functions" yaml:"total_functions"`
	TotalClasses   int    `json:"total_classes" yaml:"total_classes"`
	TotalImports   int    `json:"total_imports" yaml:"total_imports"`
	TotalLines     int    `json:"total_lines" yaml:"total_lines"`

	AvgFunctionsPerFile float64 `json:"avg_functions_per_file" yaml:"avg_functions_per_file"`
	AvgClassesPerFile   float64 `json:"avg_classes_per_file" yaml:"avg_classes_per_file"`

	Files     []parser.FileStats      `json:"files" yaml:"files"`
	Functions []parser.FunctionRecord `json:"function_details" yaml:"function_details"`
	Classes   []parser.ClassRecord    `json:"class_details" yaml:"class_details"`
	Imports   []parser.ImportRecord   `json:"import_details" yaml:"import_details"`
	// Failures lists files skipped because extraction failed.
	Failures []FileFailure `json:"failures" yaml:"failures"`
}

// FileFailure is the visible diagnostic for a skipped file.
type FileFailure struct {
	Path  string `json:"file" yaml:"file"`
	Error string `json:"error" yaml:"error"`
}

// Totals is the scalar part of a summary, used for comparison and history.
type Totals struct {
	TotalFiles          int     `json:"total_files" yaml:"total_files"`
	TotalFunctions      int     `json:"total_functions" yaml:"total_functions"`
	TotalClasses        int     `json:"total_classes" yaml:"total_classes"`
	TotalImports        int     `json:"total_imports" yaml:"total_imports"`
	TotalLines          int     `json:"total_lines" yaml:"total_lines"`
	AvgFunctionsPerFile float64 `json:"avg_functions_per_file" yaml:"avg_functions_per_file"`
	AvgClassesPerFile   float64 `json:"avg_classes_per_file" yaml:"avg_classes_per_file"`
}

func newSummary(label string) *CorpusSummary {
	return &CorpusSummary{
		Label:     label,
		Files:     make([]parser.FileStats, 0),
		Functions: make([]parser.FunctionRecord, 0),
		Classes:   make([]parser.ClassRecord, 0),
		Imports:   make([]parser.ImportRecord, 0),
		Failures:  make([]FileFailure, 0),
	}
}

func (s *CorpusSummary) add(res parser.FileResult) {
	s.FilesAnalyzed++
	s.TotalFunctions += res.Stats.FunctionCount
	s.TotalClasses += res.Stats.ClassCount
	s.TotalImports += res.Stats.ImportCount
	s.TotalLines += res.Stats.LineCount

	s.Files = append(s.Files, res.Stats)
	s.Functions = append(s.Functions, res.Functions...)
	s.Classes = append(s.Classes, res.Classes...)
	s.Imports = append(s.Imports, res.Imports...)
}

func (s *CorpusSummary) fail(path string, err error) {
	s.Failures = append(s.Failures, FileFailure{Path: path, Error: err.Error()})
}

func (s *CorpusSummary) finalize() {
	s.AvgFunctionsPerFile = average(s.TotalFunctions, s.FilesAnalyzed)
	s.AvgClassesPerFile = average(s.TotalClasses, s.FilesAnalyzed)
}

// average divides by max(n, 1) so an empty snapshot averages to 0.
func average(total, n int) float64 {
	if n < 1 {
		n = 1
	}
	return float64(total) / float64(n)
}

// Totals returns the scalar metrics of the summary.
func (s *CorpusSummary) Totals() Totals {
	return Totals{
		TotalFiles:          s.FilesAnalyzed,
		TotalFunctions:      s.TotalFunctions,
		TotalClasses:        s.TotalClasses,
		TotalImports:        s.TotalImports,
		TotalLines:          s.TotalLines,
		AvgFunctionsPerFile: s.AvgFunctionsPerFile,
		AvgClassesPerFile:   s.AvgClassesPerFile,
	}
}
