package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the paper search service.
// Metrics are organized by subsystem: queries, searches, papers, and exports.
// All metrics register against the registry passed to NewMetrics so tests can
// use isolated registries.
type Metrics struct {
	registry *prometheus.Registry

	// QueriesStarted counts aggregate queries initiated.
	QueriesStarted prometheus.Counter

	// QueriesCompleted counts aggregate queries by outcome ("ok", "all_failed").
	QueriesCompleted *prometheus.CounterVec

	// QueryDuration observes end-to-end query duration in seconds.
	QueryDuration prometheus.Histogram

	// SearchesTotal counts per-source searches by status
	// (success, partial_failure, failure).
	SearchesTotal *prometheus.CounterVec

	// SearchDuration observes per-source search duration in seconds.
	SearchDuration *prometheus.HistogramVec

	// SearchFailures counts failed searches by source and error class.
	SearchFailures *prometheus.CounterVec

	// RetryAttempts counts retry attempts by source. Only attempts beyond
	// the first count as retries.
	RetryAttempts *prometheus.CounterVec

	// PapersFetched counts papers fetched by source.
	PapersFetched *prometheus.CounterVec

	// RecordsDropped counts records rejected during extraction by source.
	RecordsDropped *prometheus.CounterVec

	// PapersDeduplicated counts papers removed by deduplication.
	PapersDeduplicated prometheus.Counter

	// ExportsTotal counts exports by format (csv, xlsx).
	ExportsTotal *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance registered on a fresh registry.
// The namespace prefixes all metric names.
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		QueriesStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_started_total",
			Help:      "Total number of aggregate queries started",
		}),
		QueriesCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_completed_total",
			Help:      "Total number of aggregate queries completed by outcome",
		}, []string{"outcome"}),
		QueryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Duration of aggregate queries in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}),

		SearchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Total number of per-source searches by status",
		}, []string{"source", "status"}),
		SearchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Duration of per-source searches in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"source"}),
		SearchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_failures_total",
			Help:      "Total number of failed searches by source and error class",
		}, []string{"source", "error_class"}),

		RetryAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retry_attempts_total",
			Help:      "Total number of retry attempts by source",
		}, []string{"source"}),

		PapersFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_fetched_total",
			Help:      "Total number of papers fetched by source",
		}, []string{"source"}),
		RecordsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_dropped_total",
			Help:      "Total number of records dropped during extraction by source",
		}, []string{"source"}),
		PapersDeduplicated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_deduplicated_total",
			Help:      "Total number of papers removed by deduplication",
		}),

		ExportsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Total number of result exports by format",
		}, []string{"format"}),
	}
}

// Registry returns the registry the metrics are registered on, for exposing
// via promhttp.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordQueryStarted records that an aggregate query has started.
func (m *Metrics) RecordQueryStarted() {
	m.QueriesStarted.Inc()
}

// RecordQueryCompleted records an aggregate query outcome and duration.
func (m *Metrics) RecordQueryCompleted(outcome string, durationSeconds float64) {
	m.QueriesCompleted.WithLabelValues(outcome).Inc()
	m.QueryDuration.Observe(durationSeconds)
}

// RecordSearch records a finished per-source search.
func (m *Metrics) RecordSearch(source, status string, paperCount, dropped int, durationSeconds float64) {
	m.SearchesTotal.WithLabelValues(source, status).Inc()
	m.SearchDuration.WithLabelValues(source).Observe(durationSeconds)
	m.PapersFetched.WithLabelValues(source).Add(float64(paperCount))
	if dropped > 0 {
		m.RecordsDropped.WithLabelValues(source).Add(float64(dropped))
	}
}

// RecordSearchFailure records a failed search with its error class.
func (m *Metrics) RecordSearchFailure(source, errorClass string) {
	m.SearchFailures.WithLabelValues(source, errorClass).Inc()
}

// RecordRetry records a retry attempt against a source.
func (m *Metrics) RecordRetry(source string) {
	m.RetryAttempts.WithLabelValues(source).Inc()
}

// RecordDeduplicated records papers removed by deduplication.
func (m *Metrics) RecordDeduplicated(count int) {
	m.PapersDeduplicated.Add(float64(count))
}

// RecordExport records a result export.
func (m *Metrics) RecordExport(format string) {
	m.ExportsTotal.WithLabelValues(format).Inc()
}
