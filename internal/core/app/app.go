package app

import (
	"errors"
	"fmt"
	"log/slog"

	"codeshape/internal/core/config"
	"codeshape/internal/core/ports"
	"codeshape/internal/data/artifact"
	"codeshape/internal/data/history"
	"codeshape/internal/engine/corpus"
	"codeshape/internal/engine/evolution"
	"codeshape/internal/engine/parser"
)

// Dependencies are the collaborators a Service writes to. Nil members are
// skipped.
type Dependencies struct {
	Sink    ports.ArtifactSink
	History ports.HistoryStore
	// Closers run on Service.Close in order.
	Closers []func() error
}

// New builds a Service and its sinks from cfg: a local sink under
// output.dir, an S3 sink when s3.enabled, and the SQLite history store when
// history.enabled. output.dry_run replaces both sinks with a MemorySink.
func New(cfg *config.Config) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	sinks := []artifact.Sink{artifact.NewLocalSink(cfg.Output.Dir, false)}
	if cfg.Output.DryRun {
		slog.Info("dry run: artifacts are kept in memory")
		sinks = []artifact.Sink{artifact.NewMemorySink()}
	} else if cfg.S3.Enabled {
		s3, err := artifact.NewS3Sink(artifact.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			UseSSL:    cfg.S3.UseSSLEnabled(),
			Prefix:    cfg.S3.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("configure s3 sink: %w", err)
		}
		sinks = append(sinks, s3)
	}

	deps := Dependencies{Sink: artifact.NewMultiSink(sinks...)}
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		adapter := history.NewAdapter(store)
		deps.History = adapter
		deps.Closers = append(deps.Closers, adapter.Close)
	}

	svc, err := NewService(cfg, deps)
	if err != nil {
		for _, c := range deps.Closers {
			_ = c()
		}
		return nil, err
	}
	return svc, nil
}

// NewService wires the extraction engine from cfg with explicit dependencies.
func NewService(cfg *config.Config, deps Dependencies) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	extractor, err := parser.NewExtractor(parser.Options{
		MethodNameLimit: cfg.Extract.MethodNameLimit,
		CacheEntries:    cfg.Scan.CacheEntries,
	})
	if err != nil {
		return nil, fmt.Errorf("create extractor: %w", err)
	}

	aggregator, err := corpus.NewAggregator(extractor, corpus.Options{
		Extensions:        cfg.Scan.Extensions,
		ExcludeDirs:       cfg.Scan.ExcludeDirs,
		ExcludeFiles:      cfg.Scan.ExcludeFiles,
		Workers:           cfg.Scan.Workers,
		MaxFilesPerSecond: cfg.Scan.MaxFilesPerSecond,
		MaxFileBytes:      cfg.Scan.MaxFileBytes,
	})
	if err != nil {
		_ = extractor.Close()
		return nil, err
	}

	comparator := evolution.NewComparator(evolution.Config{
		Separator:               cfg.Versions.Separator,
		DegenerateKey:           evolution.VersionKey(cfg.Versions.DegenerateKey),
		FunctionGrowthThreshold: cfg.Evolution.FunctionGrowthThreshold,
		ClassGrowthThreshold:    cfg.Evolution.ClassGrowthThreshold,
	})

	return &Service{
		cfg:        cfg,
		aggregator: aggregator,
		comparator: comparator,
		sink:       deps.Sink,
		history:    deps.History,
		closers:    append(append([]func() error(nil), deps.Closers...), extractor.Close),
	}, nil
}
