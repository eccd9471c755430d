package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	coreapp "codeshape/internal/core/app"
	"codeshape/internal/core/config"
	"codeshape/internal/core/ports"
	"codeshape/internal/engine/evolution"
	"codeshape/internal/shared/observability"
	"codeshape/internal/ui/report"

	"github.com/dustin/go-humanize"
)

func Run(args []string) int {
	return run(args, os.Stdout)
}

func run(args []string, stdout io.Writer) int {
	opts, err := parseOptions(args)
	if err != nil {
		return 2
	}

	if opts.version {
		fmt.Fprintf(stdout, "codeshape v%s\n", versionString)
		return 0
	}

	configureLogging(opts.verbose)

	if err := config.LoadDotEnv(opts.envFile); err != nil {
		slog.Warn("failed to load env file", "path", opts.envFile, "error", err)
	}

	cfg, cfgPath, err := loadConfig(opts.configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}
	if cfgPath != "" {
		slog.Debug("config loaded", "path", cfgPath)
	}

	if err := applyOptions(opts, cfg); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		OTLPEndpoint: cfg.Observability.OTLPEndpoint,
		Insecure:     cfg.Observability.OTLPInsecure,
		ServiceName:  cfg.Observability.ServiceName,
	})
	if err != nil {
		slog.Warn("tracing disabled", "error", err)
	} else {
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				slog.Warn("tracing shutdown failed", "error", err)
			}
		}()
	}

	if addr := cfg.Observability.MetricsAddr; addr != "" {
		server := NewObservabilityServer(addr)
		if err := server.Start(ctx); err != nil {
			slog.Error("failed to start metrics server", "error", err)
			return 1
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Stop(shutdownCtx)
		}()
	}

	svc, err := coreapp.New(cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return 1
	}
	defer svc.Close()

	if opts.fromHistory {
		ev, err := svc.EvolveFromHistory(ctx)
		if err != nil {
			slog.Error("evolve from history failed", "error", err)
			return 1
		}
		fmt.Fprint(stdout, renderEvolution(ev))
		if err := emitTrends(opts, ev, stdout); err != nil {
			slog.Error("failed to render trends", "error", err)
			return 1
		}
		return 0
	}

	sources, err := resolveSources(opts, cfg, svc)
	if err != nil {
		slog.Error("failed to resolve snapshots", "error", err)
		return 1
	}
	if len(sources) == 0 {
		fmt.Fprintln(os.Stderr, "no snapshots to analyze")
		return 1
	}

	start := time.Now()
	result, err := svc.AnalyzeSnapshots(ctx, sources)
	if err != nil {
		slog.Error("analysis interrupted", "error", err)
		return 1
	}

	fmt.Fprint(stdout, renderRun(result, time.Since(start)))
	if err := emitTrends(opts, result.Evolution, stdout); err != nil {
		slog.Error("failed to render trends", "error", err)
		return 1
	}
	if len(result.Snapshots) == 0 {
		return 1
	}
	return 0
}

// loadConfig reads path. A missing file at the default location falls back
// to built-in defaults; a missing explicit file is an error.
func loadConfig(path string) (*config.Config, string, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, path, nil
	}
	if path == defaultConfigPath && errors.Is(err, os.ErrNotExist) {
		cfg, err = config.Default()
		return cfg, "", err
	}
	return nil, "", err
}

func applyOptions(opts cliOptions, cfg *config.Config) error {
	if opts.reposDir != "" {
		cfg.Snapshots.ReposDir = opts.reposDir
	}
	if opts.prefix != "" {
		cfg.Snapshots.Prefix = opts.prefix
	}
	if opts.outDir != "" {
		cfg.Output.Dir = opts.outDir
	}
	if opts.format != "" {
		format := strings.ToLower(strings.TrimSpace(opts.format))
		if format != config.FormatJSON && format != config.FormatYAML {
			return fmt.Errorf("--format must be json or yaml, got %q", opts.format)
		}
		cfg.Output.Format = format
	}
	if opts.workers < 0 {
		return fmt.Errorf("--workers must be >= 0")
	}
	if opts.workers > 0 {
		cfg.Scan.Workers = opts.workers
	}
	if opts.maxFileSize != "" {
		size, err := humanize.ParseBytes(opts.maxFileSize)
		if err != nil {
			return fmt.Errorf("invalid --max-file-size %q: %w", opts.maxFileSize, err)
		}
		cfg.Scan.MaxFileBytes = int64(size)
	}
	if opts.history || opts.fromHistory {
		cfg.History.Enabled = true
	}
	if opts.project != "" {
		cfg.History.Project = opts.project
	}
	if opts.dryRun {
		cfg.Output.DryRun = true
	}
	if opts.metricsAddr != "" {
		cfg.Observability.MetricsAddr = opts.metricsAddr
	}
	if opts.topN < 0 {
		return fmt.Errorf("--top must be >= 0")
	}
	if opts.topN > 0 {
		cfg.Summary.TopN = opts.topN
	}
	if opts.trends != "" {
		switch strings.ToLower(opts.trends) {
		case report.FormatTSV, report.FormatMarkdown, "md":
		default:
			return fmt.Errorf("--trends must be tsv or markdown, got %q", opts.trends)
		}
	}
	if opts.fromHistory && len(opts.args) > 0 {
		return fmt.Errorf("--from-history does not take snapshot arguments")
	}
	return nil
}

// emitTrends prints the trend in the --trends format and injects the
// markdown rendering into --inject when set.
func emitTrends(opts cliOptions, ev evolution.EvolutionReport, stdout io.Writer) error {
	if opts.trends != "" {
		out, err := report.RenderTrends(opts.trends, ev)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout)
		if _, err := stdout.Write(out); err != nil {
			return err
		}
	}
	if opts.inject != "" {
		section, err := report.RenderTrendMarkdown(ev)
		if err != nil {
			return err
		}
		if err := report.InjectSection(opts.inject, opts.marker, string(section)); err != nil {
			return err
		}
		slog.Info("evolution trend injected", "path", opts.inject, "marker", opts.marker)
	}
	return nil
}

type snapshotDiscoverer interface {
	Discover(reposDir, prefix string) ([]ports.SnapshotSource, error)
}

// resolveSources uses positional snapshot directories when given, labelled
// by their base name, and otherwise discovers snapshots under repos_dir.
func resolveSources(opts cliOptions, cfg *config.Config, d snapshotDiscoverer) ([]ports.SnapshotSource, error) {
	if len(opts.args) == 0 {
		return d.Discover(cfg.Snapshots.ReposDir, cfg.Snapshots.Prefix)
	}

	sources := make([]ports.SnapshotSource, 0, len(opts.args))
	seen := make(map[string]bool, len(opts.args))
	for _, arg := range opts.args {
		root := filepath.Clean(arg)
		label := filepath.Base(root)
		if abs, err := filepath.Abs(root); err == nil {
			label = filepath.Base(abs)
		}
		if seen[label] {
			return nil, fmt.Errorf("duplicate snapshot label %q", label)
		}
		seen[label] = true
		sources = append(sources, ports.SnapshotSource{Label: label, Root: root})
	}
	return sources, nil
}

func configureLogging(verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}
