// Package observability provides logging and metrics support for the paper
// search service.
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger.Info().Str("query", query).Msg("search started")
//
// Add scoped fields:
//
//	logger = observability.WithQueryContext(logger, queryID, query)
//	logger = observability.WithSourceContext(logger, "arxiv")
//
// # Metrics
//
// Initialize metrics on an isolated registry and expose it:
//
//	metrics := observability.NewMetrics("paperscout")
//	http.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
//
// Record events:
//
//	metrics.RecordQueryStarted()
//	metrics.RecordSearch("arxiv", "success", 10, 0, 1.2)
//
// # Standard Fields
//
// Common fields used across the service:
//
//   - request_id: HTTP request identifier
//   - query_id: Aggregate query identifier
//   - query: User's search query
//   - source: Paper source (arxiv, semantic_scholar, etc.)
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
