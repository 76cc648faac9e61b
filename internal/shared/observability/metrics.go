package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Skip reasons recorded on FilesSkippedTotal.
const (
	SkipNotDeclaration = "not_declaration"
	SkipUnresolvedName = "unresolved_name"
	SkipFiltered       = "filtered"
	SkipNoRequires     = "no_requires"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "depmanifest_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	FilesScannedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "depmanifest_files_scanned_total",
		Help: "Total number of source files read and parsed.",
	})

	FilesSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "depmanifest_files_skipped_total",
		Help: "Total number of scanned files that produced no graph entry, by reason.",
	}, []string{"reason"})

	NamesFixedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "depmanifest_names_fixed_total",
		Help: "Total number of source files rewritten with a derived module name.",
	})

	GraphModules = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "depmanifest_graph_modules",
		Help: "Number of modules with dependencies in the last merged graph.",
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "depmanifest_graph_edges",
		Help: "Number of require edges in the last merged graph.",
	})

	RunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "depmanifest_run_seconds",
		Help:    "Time spent on each stage of a manifest run.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "depmanifest_runs_total",
		Help: "Total number of manifest runs, by outcome.",
	}, []string{"outcome"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "depmanifest_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)
