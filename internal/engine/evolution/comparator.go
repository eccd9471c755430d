package evolution

import (
	"log/slog"
	"sync"

	"codeshape/internal/engine/corpus"
	"codeshape/internal/shared/observability"
)

// Metric names shared by comparisons and trends.
const (
	MetricFiles           = "total_files"
	MetricFunctions       = "total_functions"
	MetricClasses         = "total_classes"
	MetricImports         = "total_imports"
	MetricFunctionDensity = "function_density"
)

var comparedMetrics = []string{MetricFiles, MetricFunctions, MetricClasses, MetricImports}

// Snapshot is one finalized corpus summary identified by its label.
type Snapshot struct {
	Label  string        `json:"label" yaml:"label"`
	Totals corpus.Totals `json:"totals" yaml:"totals"`
}

// SnapshotFromSummary captures the comparable part of a summary.
func SnapshotFromSummary(s *corpus.CorpusSummary) Snapshot {
	return Snapshot{Label: s.Label, Totals: s.Totals()}
}

func (s Snapshot) metric(name string) float64 {
	switch name {
	case MetricFiles:
		return float64(s.Totals.TotalFiles)
	case MetricFunctions:
		return float64(s.Totals.TotalFunctions)
	case MetricClasses:
		return float64(s.Totals.TotalClasses)
	case MetricImports:
		return float64(s.Totals.TotalImports)
	case MetricFunctionDensity:
		return s.Totals.AvgFunctionsPerFile
	}
	return 0
}

// Delta is the change of one metric between two snapshots.
type Delta struct {
	Metric         string  `json:"metric" yaml:"metric"`
	Before         float64 `json:"before" yaml:"before"`
	After          float64 `json:"after" yaml:"after"`
	AbsoluteChange float64 `json:"absolute_change" yaml:"absolute_change"`
	// PercentChange is 0 when Before is 0.
	PercentChange float64 `json:"percent_change" yaml:"percent_change"`
}

func newDelta(metric string, before, after float64) Delta {
	change := after - before
	percent := 0.0
	if before > 0 {
		percent = change / before * 100
	}
	return Delta{
		Metric:         metric,
		Before:         before,
		After:          after,
		AbsoluteChange: change,
		PercentChange:  percent,
	}
}

// Comparison holds every delta between two snapshots.
type Comparison struct {
	From            string  `json:"from" yaml:"from"`
	To              string  `json:"to" yaml:"to"`
	Deltas          []Delta `json:"deltas" yaml:"deltas"`
	FunctionDensity Delta   `json:"function_density" yaml:"function_density"`
}

// Delta returns the delta recorded for metric.
func (c Comparison) Delta(metric string) (Delta, bool) {
	if metric == MetricFunctionDensity {
		return c.FunctionDensity, true
	}
	for _, d := range c.Deltas {
		if d.Metric == metric {
			return d, true
		}
	}
	return Delta{}, false
}

type Config struct {
	Separator     string
	DegenerateKey VersionKey
	// Recommendations fire when the first-to-last change exceeds these.
	FunctionGrowthThreshold int
	ClassGrowthThreshold    int
}

func DefaultConfig() Config {
	return Config{
		Separator:               DefaultSeparator,
		DegenerateKey:           DegenerateKey(),
		FunctionGrowthThreshold: 50,
		ClassGrowthThreshold:    10,
	}
}

// Comparator orders snapshots by version and derives deltas between them.
// Each malformed label is reported once per Comparator, however often it is
// sorted.
type Comparator struct {
	cfg Config

	mu        sync.Mutex
	malformed map[string]bool
}

func NewComparator(cfg Config) *Comparator {
	if cfg.Separator == "" {
		cfg.Separator = DefaultSeparator
	}
	if len(cfg.DegenerateKey) == 0 {
		cfg.DegenerateKey = DegenerateKey()
	}
	return &Comparator{cfg: cfg, malformed: make(map[string]bool)}
}

// Compare computes the deltas from a to b.
func (c *Comparator) Compare(a, b Snapshot) Comparison {
	deltas := make([]Delta, 0, len(comparedMetrics))
	for _, m := range comparedMetrics {
		deltas = append(deltas, newDelta(m, a.metric(m), b.metric(m)))
	}

	density := newDelta(MetricFunctionDensity, a.metric(MetricFunctionDensity), b.metric(MetricFunctionDensity))

	return Comparison{
		From:            a.Label,
		To:              b.Label,
		Deltas:          deltas,
		FunctionDensity: density,
	}
}

// Sort returns snapshots in version order without modifying the input.
func (c *Comparator) Sort(snaps []Snapshot) []Snapshot {
	return orderByVersion(snaps, func(s Snapshot) string { return s.Label }, c.versionKey)
}

// versionKey parses label, falling back to the degenerate key.
func (c *Comparator) versionKey(label string) VersionKey {
	key, err := ParseVersionKey(label, c.cfg.Separator)
	if err == nil {
		return key
	}

	c.mu.Lock()
	seen := c.malformed[label]
	c.malformed[label] = true
	c.mu.Unlock()

	if !seen {
		slog.Warn("snapshot label has no numeric version; using degenerate sort key",
			"label", label, "key", c.cfg.DegenerateKey.String(), "error", err)
		observability.MalformedLabelsTotal.Inc()
	}
	return c.cfg.DegenerateKey
}

// SortSnapshots orders snapshots by version using the default separator.
func SortSnapshots(snaps []Snapshot) []Snapshot {
	return NewComparator(DefaultConfig()).Sort(snaps)
}
