package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codeshape/internal/core/config"
	"codeshape/internal/core/ports"
	"codeshape/internal/engine/corpus"
	"codeshape/internal/engine/evolution"
)

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions([]string{"--workers", "3", "--format", "yaml", "--history", "a", "b"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if opts.workers != 3 || opts.format != "yaml" || !opts.history {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if len(opts.args) != 2 || opts.args[1] != "b" {
		t.Fatalf("unexpected args: %v", opts.args)
	}
	if opts.configPath != defaultConfigPath {
		t.Fatalf("expected default config path, got %q", opts.configPath)
	}
}

func TestApplyOptions(t *testing.T) {
	cfg, err := config.Default()
	if err != nil {
		t.Fatal(err)
	}
	opts := cliOptions{
		reposDir:    "repos",
		prefix:      "flask_",
		outDir:      "out",
		format:      "YAML",
		workers:     4,
		maxFileSize: "2MiB",
		fromHistory: true,
		project:     "flask",
		topN:        7,
	}
	if err := applyOptions(opts, cfg); err != nil {
		t.Fatalf("applyOptions: %v", err)
	}
	if cfg.Snapshots.ReposDir != "repos" || cfg.Snapshots.Prefix != "flask_" || cfg.Output.Dir != "out" {
		t.Fatalf("unexpected paths: %+v %+v", cfg.Snapshots, cfg.Output)
	}
	if cfg.Output.Format != config.FormatYAML || cfg.Scan.Workers != 4 || cfg.Summary.TopN != 7 {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if cfg.Scan.MaxFileBytes != 2*1024*1024 {
		t.Fatalf("expected 2MiB, got %d", cfg.Scan.MaxFileBytes)
	}
	if !cfg.History.Enabled || cfg.History.Project != "flask" {
		t.Fatalf("expected history enabled for flask, got %+v", cfg.History)
	}
}

func TestApplyOptions_Rejects(t *testing.T) {
	cases := map[string]cliOptions{
		"format":  {format: "xml"},
		"size":    {maxFileSize: "lots"},
		"workers": {workers: -1},
		"top":     {topN: -1},
		"history": {fromHistory: true, args: []string{"x"}},
		"trends":  {trends: "html"},
	}
	for name, opts := range cases {
		t.Run(name, func(t *testing.T) {
			cfg, err := config.Default()
			if err != nil {
				t.Fatal(err)
			}
			if err := applyOptions(opts, cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

type fakeDiscoverer struct{ reposDir, prefix string }

func (f *fakeDiscoverer) Discover(reposDir, prefix string) ([]ports.SnapshotSource, error) {
	f.reposDir, f.prefix = reposDir, prefix
	return []ports.SnapshotSource{{Label: "p_1", Root: reposDir + "/p_1"}}, nil
}

func TestResolveSources(t *testing.T) {
	cfg, err := config.Default()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Snapshots.ReposDir = "repos"
	cfg.Snapshots.Prefix = "p_"

	d := &fakeDiscoverer{}
	sources, err := resolveSources(cliOptions{}, cfg, d)
	if err != nil {
		t.Fatal(err)
	}
	if d.reposDir != "repos" || d.prefix != "p_" || len(sources) != 1 {
		t.Fatalf("expected discovery under repos, got %+v %+v", d, sources)
	}

	sources, err = resolveSources(cliOptions{args: []string{"data/flask_2.0.0/", "other/flask_2.1.0"}}, cfg, d)
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 2 || sources[0].Label != "flask_2.0.0" || sources[1].Root != filepath.Clean("other/flask_2.1.0") {
		t.Fatalf("unexpected sources: %+v", sources)
	}

	if _, err := resolveSources(cliOptions{args: []string{"a/x_1", "b/x_1"}}, cfg, d); err == nil {
		t.Fatal("expected duplicate label error")
	}
}

func TestRenderEvolution(t *testing.T) {
	c := evolution.NewComparator(evolution.DefaultConfig())
	report := c.Evolve([]evolution.Snapshot{
		{Label: "p_1.0", Totals: corpus.Totals{TotalFiles: 10, TotalFunctions: 1000, TotalClasses: 10}},
		{Label: "p_2.0", Totals: corpus.Totals{TotalFiles: 12, TotalFunctions: 1200, TotalClasses: 30}},
	})

	out := strings.ToLower(renderEvolution(report))
	for _, want := range []string{"version evolution", "p_1.0", "+200", "+20", "20.0%", "! "} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	single := renderEvolution(c.Evolve([]evolution.Snapshot{{Label: "p_1.0"}}))
	if !strings.Contains(single, "at least two snapshots") {
		t.Fatalf("unexpected single-snapshot output:\n%s", single)
	}
}

func TestRenderRun(t *testing.T) {
	summary := &corpus.CorpusSummary{Label: "p_1.0", FilesAnalyzed: 3, TotalFunctions: 12345}
	result := ports.RunResult{
		RunID: "run-1",
		Snapshots: []ports.SnapshotResult{{
			Summary: summary,
			Frequencies: corpus.FrequencyTables{
				Functions: corpus.FrequencyTable{{Name: "__init__", Count: 4}},
			},
		}},
		Failed: []ports.SnapshotFailure{{Label: "p_0.9", Root: "gone", Error: "missing"}},
	}
	out := strings.ToLower(renderRun(result, 0))
	for _, want := range []string{"run run-1", "12,345", "__init__", "snapshots not analyzed", "gone"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRun_VersionAndBadFlag(t *testing.T) {
	var out bytes.Buffer
	if code := run([]string{"--version"}, &out); code != 0 {
		t.Fatalf("expected 0, got %d", code)
	}
	if !strings.Contains(out.String(), versionString) {
		t.Fatalf("unexpected version output %q", out.String())
	}
	if code := run([]string{"--no-such-flag"}, &out); code != 2 {
		t.Fatalf("expected 2 for bad flag, got %d", code)
	}
}

func TestRun_AnalyzesSnapshots(t *testing.T) {
	repos := t.TempDir()
	for label, body := range map[string]string{
		"lib_1.0.0": "def a():\n    pass\n",
		"lib_1.1.0": "def a():\n    pass\n\ndef b():\n    pass\n",
	} {
		dir := filepath.Join(repos, label)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "m.py"), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	outDir := filepath.Join(t.TempDir(), "out")
	cfgPath := filepath.Join(t.TempDir(), "codeshape.toml")
	if err := os.WriteFile(cfgPath, []byte("[scan]\nworkers = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	code := run([]string{"--config", cfgPath, "--env-file", filepath.Join(t.TempDir(), "none.env"), "--repos", repos, "--out", outDir, "--trends", "tsv"}, &out)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d\n%s", code, out.String())
	}
	if !strings.Contains(out.String(), "lib_1.1.0") {
		t.Fatalf("expected snapshot in output:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "step\tlib_1.1.0\tlib_1.0.0") {
		t.Fatalf("expected tsv trend step in output:\n%s", out.String())
	}
	if _, err := os.Stat(filepath.Join(outDir, "evolution_report.json")); err != nil {
		t.Fatalf("expected evolution report: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "lib_1.0.0", "ast_analysis_summary.json")); err != nil {
		t.Fatalf("expected summary artifact: %v", err)
	}
}

func TestRun_MissingExplicitConfig(t *testing.T) {
	var out bytes.Buffer
	if code := run([]string{"--config", filepath.Join(t.TempDir(), "nope.toml")}, &out); code != 1 {
		t.Fatalf("expected 1, got %d", code)
	}
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	repos := t.TempDir()
	dir := filepath.Join(repos, "lib_2.0.0")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "m.py"), []byte("class A:\n    pass\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(t.TempDir(), "out")
	cfgPath := filepath.Join(t.TempDir(), "codeshape.toml")
	if err := os.WriteFile(cfgPath, []byte("version = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	code := run([]string{"--config", cfgPath, "--env-file", filepath.Join(t.TempDir(), "none.env"), "--repos", repos, "--out", outDir, "--dry-run"}, &out)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d\n%s", code, out.String())
	}
	if !strings.Contains(out.String(), "lib_2.0.0") {
		t.Fatalf("expected snapshot in output:\n%s", out.String())
	}
	if _, err := os.Stat(outDir); !os.IsNotExist(err) {
		t.Fatalf("expected no output directory, got err=%v", err)
	}
}
