package cli

import (
	"fmt"
	"strings"
	"time"

	"codeshape/internal/core/ports"
	"codeshape/internal/engine/corpus"
	"codeshape/internal/engine/evolution"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
)

// topRows is how many frequency entries each snapshot prints.
const topRows = 5

func newTable(title string) table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.SetTitle(title)
	return tbl
}

func count(n int) string {
	return humanize.Comma(int64(n))
}

func renderRun(result ports.RunResult, elapsed time.Duration) string {
	var b strings.Builder

	fmt.Fprintf(&b, "run %s: %d snapshot(s) in %s\n\n", result.RunID, len(result.Snapshots), elapsed.Round(time.Millisecond))
	if len(result.Snapshots) > 0 {
		b.WriteString(renderSummaries(result.Snapshots))
		b.WriteString("\n\n")
		for _, snap := range result.Snapshots {
			b.WriteString(renderFrequencies(snap.Summary.Label, snap.Frequencies))
			b.WriteString("\n\n")
		}
	}
	if len(result.Failed) > 0 {
		tbl := newTable("Snapshots not analyzed")
		tbl.AppendHeader(table.Row{"Label", "Root", "Error"})
		for _, f := range result.Failed {
			tbl.AppendRow(table.Row{f.Label, f.Root, f.Error})
		}
		b.WriteString(tbl.Render())
		b.WriteString("\n\n")
	}
	b.WriteString(renderEvolution(result.Evolution))
	if len(result.Written) > 0 {
		fmt.Fprintf(&b, "\n%d artifact(s) written\n", len(result.Written))
	}
	return b.String()
}

func renderSummaries(snaps []ports.SnapshotResult) string {
	tbl := newTable("Snapshots")
	tbl.AppendHeader(table.Row{"Snapshot", "Files", "Skipped", "Functions", "Classes", "Imports", "Lines", "Fn/File", "Cls/File"})
	for _, snap := range snaps {
		s := snap.Summary
		tbl.AppendRow(table.Row{
			s.Label,
			count(s.FilesAnalyzed),
			count(len(s.Failures)),
			count(s.TotalFunctions),
			count(s.TotalClasses),
			count(s.TotalImports),
			count(s.TotalLines),
			fmt.Sprintf("%.2f", s.AvgFunctionsPerFile),
			fmt.Sprintf("%.2f", s.AvgClassesPerFile),
		})
	}
	return tbl.Render()
}

func renderFrequencies(label string, tables corpus.FrequencyTables) string {
	tbl := newTable("Most common names: " + label)
	tbl.AppendHeader(table.Row{"#", "Function", "Count", "Class", "Count", "Import", "Count"})
	for i := 0; i < topRows; i++ {
		fn, fnCount := entryAt(tables.Functions, i)
		cls, clsCount := entryAt(tables.Classes, i)
		imp, impCount := entryAt(tables.Imports, i)
		if fn == "" && cls == "" && imp == "" {
			break
		}
		tbl.AppendRow(table.Row{i + 1, fn, fnCount, cls, clsCount, imp, impCount})
	}
	return tbl.Render()
}

func entryAt(t corpus.FrequencyTable, i int) (string, string) {
	if i >= len(t) {
		return "", ""
	}
	return t[i].Name, count(t[i].Count)
}

func renderEvolution(report evolution.EvolutionReport) string {
	var b strings.Builder

	if len(report.Stepwise) == 0 {
		b.WriteString("evolution: at least two snapshots are needed for a comparison\n")
	} else {
		tbl := newTable("Version evolution")
		tbl.AppendHeader(table.Row{"From", "To", "Functions", "Classes", "Imports", "Files", "Fn growth %"})
		for _, step := range report.Stepwise {
			tbl.AppendRow(deltaRow(step))
		}
		if report.Overall != nil {
			tbl.AppendFooter(deltaRow(*report.Overall))
		}
		b.WriteString(tbl.Render())
		b.WriteString("\n")
	}

	for _, finding := range report.Findings {
		fmt.Fprintf(&b, "- %s\n", finding)
	}
	for _, rec := range report.Recommendations {
		fmt.Fprintf(&b, "! %s\n", rec)
	}
	return b.String()
}

func deltaRow(cmp evolution.Comparison) table.Row {
	change := func(metric string) string {
		d, _ := cmp.Delta(metric)
		return fmt.Sprintf("%+d", int(d.AbsoluteChange))
	}
	fns, _ := cmp.Delta(evolution.MetricFunctions)
	return table.Row{
		cmp.From,
		cmp.To,
		change(evolution.MetricFunctions),
		change(evolution.MetricClasses),
		change(evolution.MetricImports),
		change(evolution.MetricFiles),
		fmt.Sprintf("%.1f%%", fns.PercentChange),
	}
}
