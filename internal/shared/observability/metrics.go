package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "codeshape_parsing_seconds",
		Help:    "Time spent parsing and extracting a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	FilesAnalyzedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codeshape_files_analyzed_total",
		Help: "Total number of source files successfully extracted.",
	})

	ExtractionFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codeshape_extraction_failures_total",
		Help: "Total number of source files skipped because extraction failed.",
	})

	DecoratorFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codeshape_decorator_fallbacks_total",
		Help: "Total number of decorators recorded with a placeholder name.",
	})

	ExtractionCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codeshape_extraction_cache_hits_total",
		Help: "Total number of files served from the content-hash extraction cache.",
	})

	ParsersLeased = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "codeshape_parsers_leased",
		Help: "Tree-sitter parsers currently leased from the parser pool.",
	})

	SnapshotDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "codeshape_snapshot_seconds",
		Help:    "Time spent walking and aggregating one snapshot.",
		Buckets: prometheus.DefBuckets,
	}, []string{"snapshot"})

	MalformedLabelsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codeshape_malformed_version_labels_total",
		Help: "Total number of snapshot labels sorted with the degenerate version key.",
	})

	SinkWriteErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codeshape_sink_write_errors_total",
		Help: "Total number of failed artifact or history writes.",
	}, []string{"sink"})
)
