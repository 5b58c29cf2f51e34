package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "slopcheck_parsing_seconds",
		Help:    "Time spent parsing a source file with the syntax-tree facade.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	RuleModuleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "slopcheck_rule_module_seconds",
		Help:    "Time spent running one rule module over the file set.",
		Buckets: prometheus.DefBuckets,
	}, []string{"module"})

	AlertsEmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slopcheck_alerts_emitted_total",
		Help: "Total number of alerts emitted before dedup/filter, by severity.",
	}, []string{"severity"})

	RegistryCacheHitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slopcheck_registry_cache_hit_total",
		Help: "Registry client cache hits, by registry.",
	}, []string{"registry"})

	RegistryCacheMissTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slopcheck_registry_cache_miss_total",
		Help: "Registry client cache misses, by registry.",
	}, []string{"registry"})

	ScorecardCacheHitTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slopcheck_scorecard_cache_hit_total",
		Help: "Scorecard client cache hits.",
	})

	ScorecardCacheMissTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slopcheck_scorecard_cache_miss_total",
		Help: "Scorecard client cache misses.",
	})

	GraphNodesTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "slopcheck_graph_nodes_total",
		Help: "Total number of vertices in the import graph for the current run.",
	})

	GraphEdgesTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "slopcheck_graph_edges_total",
		Help: "Total number of edges in the import graph for the current run.",
	})

	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "slopcheck_scan_seconds",
		Help:    "Total wall-clock time for one analyze() run.",
		Buckets: prometheus.DefBuckets,
	})
)
