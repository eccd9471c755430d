package evolution

import (
	"context"
	"fmt"

	"codeshape/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
)

// trendMetrics are the series reported per version.
var trendMetrics = []string{MetricFunctions, MetricClasses, MetricImports}

// StepGrowth condenses one adjacent comparison.
type StepGrowth struct {
	From                  string  `json:"from" yaml:"from"`
	To                    string  `json:"to" yaml:"to"`
	FunctionGrowth        int     `json:"function_growth" yaml:"function_growth"`
	ClassGrowth           int     `json:"class_growth" yaml:"class_growth"`
	FunctionGrowthPercent float64 `json:"function_growth_percent" yaml:"function_growth_percent"`
}

// EvolutionReport describes how a sequence of snapshots changed. With fewer
// than two snapshots the trend and comparison collections are empty.
type EvolutionReport struct {
	Versions        []string         `json:"versions" yaml:"versions"`
	Trends          map[string][]int `json:"trends" yaml:"trends"`
	Stepwise        []Comparison     `json:"stepwise" yaml:"stepwise"`
	Growth          []StepGrowth     `json:"comparisons" yaml:"comparisons"`
	Overall         *Comparison      `json:"overall,omitempty" yaml:"overall,omitempty"`
	Findings        []string         `json:"key_findings" yaml:"key_findings"`
	Recommendations []string         `json:"recommendations" yaml:"recommendations"`
}

func emptyReport() EvolutionReport {
	return EvolutionReport{
		Versions:        make([]string, 0),
		Trends:          make(map[string][]int),
		Stepwise:        make([]Comparison, 0),
		Growth:          make([]StepGrowth, 0),
		Findings:        make([]string, 0),
		Recommendations: make([]string, 0),
	}
}

// Evolve sorts snaps by version, then compares every adjacent pair and the
// first against the last.
func (c *Comparator) Evolve(snaps []Snapshot) EvolutionReport {
	return c.EvolveContext(context.Background(), snaps)
}

// EvolveContext is Evolve with the work recorded as a span under ctx.
func (c *Comparator) EvolveContext(ctx context.Context, snaps []Snapshot) EvolutionReport {
	_, span := observability.Tracer().Start(ctx, "evolution.Evolve")
	defer span.End()
	span.SetAttributes(attribute.Int("codeshape.snapshots", len(snaps)))

	sorted := c.Sort(snaps)
	report := emptyReport()
	for _, s := range sorted {
		report.Versions = append(report.Versions, s.Label)
	}
	if len(sorted) > 0 {
		report.Findings = append(report.Findings, latestFindings(sorted[len(sorted)-1])...)
	}
	if len(sorted) < 2 {
		return report
	}

	for _, m := range trendMetrics {
		series := make([]int, 0, len(sorted))
		for _, s := range sorted {
			series = append(series, int(s.metric(m)))
		}
		report.Trends[m] = series
	}

	for i := 0; i+1 < len(sorted); i++ {
		cmp := c.Compare(sorted[i], sorted[i+1])
		report.Stepwise = append(report.Stepwise, cmp)
		report.Growth = append(report.Growth, stepGrowth(cmp))
	}

	overall := c.Compare(sorted[0], sorted[len(sorted)-1])
	report.Overall = &overall
	report.Findings = append(report.Findings, overallFindings(overall)...)
	report.Recommendations = append(report.Recommendations, c.recommendations(overall)...)
	return report
}

func stepGrowth(cmp Comparison) StepGrowth {
	fns, _ := cmp.Delta(MetricFunctions)
	classes, _ := cmp.Delta(MetricClasses)
	return StepGrowth{
		From:                  cmp.From,
		To:                    cmp.To,
		FunctionGrowth:        int(fns.AbsoluteChange),
		ClassGrowth:           int(classes.AbsoluteChange),
		FunctionGrowthPercent: fns.PercentChange,
	}
}

func latestFindings(s Snapshot) []string {
	t := s.Totals
	return []string{
		fmt.Sprintf("%s contains %d source files", s.Label, t.TotalFiles),
		fmt.Sprintf("%d functions defined, %.2f per file on average", t.TotalFunctions, t.AvgFunctionsPerFile),
		fmt.Sprintf("%d classes defined, %.2f per file on average", t.TotalClasses, t.AvgClassesPerFile),
		fmt.Sprintf("%d import statements", t.TotalImports),
	}
}

func overallFindings(overall Comparison) []string {
	var out []string
	for _, m := range []string{MetricFunctions, MetricClasses} {
		d, _ := overall.Delta(m)
		out = append(out, fmt.Sprintf("%s changed by %+d (%.1f%%) from %s to %s",
			m, int(d.AbsoluteChange), d.PercentChange, overall.From, overall.To))
	}
	return out
}

func (c *Comparator) recommendations(overall Comparison) []string {
	var out []string
	if d, _ := overall.Delta(MetricFunctions); d.AbsoluteChange > float64(c.cfg.FunctionGrowthThreshold) {
		out = append(out, "function count grew significantly; code complexity may be increasing")
	}
	if d, _ := overall.Delta(MetricClasses); d.AbsoluteChange > float64(c.cfg.ClassGrowthThreshold) {
		out = append(out, "class count grew; the object-oriented design may be getting richer")
	}
	return out
}
