package report

import (
	"fmt"
	"strings"

	"codeshape/internal/engine/evolution"
)

const (
	FormatTSV      = "tsv"
	FormatMarkdown = "markdown"
)

// RenderTrends renders report in the named text format.
func RenderTrends(format string, report evolution.EvolutionReport) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatTSV:
		return RenderTrendTSV(report)
	case FormatMarkdown, "md":
		return RenderTrendMarkdown(report)
	default:
		return nil, fmt.Errorf("unsupported trend format %q", format)
	}
}

// RenderTrendTSV writes one row per version followed by one row per
// adjacent step. Step rows leave the per-version columns empty.
func RenderTrendTSV(report evolution.EvolutionReport) ([]byte, error) {
	var buf strings.Builder

	buf.WriteString("Kind\tVersion\tPrevious\tFunctions\tClasses\tImports\tDeltaFunctions\tDeltaClasses\tFunctionGrowthPct\n")
	for i, version := range report.Versions {
		buf.WriteString(fmt.Sprintf("version\t%s\t\t%s\t%s\t%s\t\t\t\n",
			version,
			seriesValue(report, evolution.MetricFunctions, i),
			seriesValue(report, evolution.MetricClasses, i),
			seriesValue(report, evolution.MetricImports, i),
		))
	}
	for _, step := range report.Growth {
		buf.WriteString(fmt.Sprintf("step\t%s\t%s\t\t\t\t%d\t%d\t%.2f\n",
			step.To,
			step.From,
			step.FunctionGrowth,
			step.ClassGrowth,
			step.FunctionGrowthPercent,
		))
	}

	return []byte(buf.String()), nil
}

// RenderTrendMarkdown renders report as a markdown section suitable for
// InjectSection.
func RenderTrendMarkdown(report evolution.EvolutionReport) ([]byte, error) {
	var buf strings.Builder

	buf.WriteString("### Code evolution\n\n")
	if len(report.Versions) == 0 {
		buf.WriteString("_No snapshots analyzed._\n")
		return []byte(buf.String()), nil
	}

	buf.WriteString("| Version | Functions | Classes | Imports |\n")
	buf.WriteString("|---|---:|---:|---:|\n")
	for i, version := range report.Versions {
		buf.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
			escapeCell(version),
			orDash(seriesValue(report, evolution.MetricFunctions, i)),
			orDash(seriesValue(report, evolution.MetricClasses, i)),
			orDash(seriesValue(report, evolution.MetricImports, i)),
		))
	}

	if len(report.Growth) > 0 {
		buf.WriteString("\n| From | To | Δ Functions | Δ Classes | Function growth |\n")
		buf.WriteString("|---|---|---:|---:|---:|\n")
		for _, step := range report.Growth {
			buf.WriteString(fmt.Sprintf("| %s | %s | %+d | %+d | %.2f%% |\n",
				escapeCell(step.From),
				escapeCell(step.To),
				step.FunctionGrowth,
				step.ClassGrowth,
				step.FunctionGrowthPercent,
			))
		}
	}

	writeList(&buf, "Key findings", report.Findings)
	writeList(&buf, "Recommendations", report.Recommendations)
	return []byte(buf.String()), nil
}

// seriesValue is empty when the report carries no trend for metric, which
// happens with fewer than two versions.
func seriesValue(report evolution.EvolutionReport, metric string, i int) string {
	series, ok := report.Trends[metric]
	if !ok || i >= len(series) {
		return ""
	}
	return fmt.Sprintf("%d", series[i])
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

func escapeCell(v string) string {
	return strings.ReplaceAll(v, "|", "\\|")
}

func writeList(buf *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	buf.WriteString(fmt.Sprintf("\n**%s**\n\n", title))
	for _, item := range items {
		buf.WriteString("- " + item + "\n")
	}
}
