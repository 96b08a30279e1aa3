// Package server provides the HTTP REST API for the paper search service.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/roody/paperscout/internal/aggregate"
	"github.com/roody/paperscout/internal/observability"
	"github.com/roody/paperscout/internal/sources"
)

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// MetricsPath exposes the Prometheus registry when non-empty.
	MetricsPath string
}

// Server is the HTTP REST API server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	aggregator *aggregate.Aggregator
	registry   *sources.Registry
	metrics    *observability.Metrics
	logger     zerolog.Logger
}

// NewServer creates a new HTTP server with all dependencies.
func NewServer(
	cfg Config,
	aggregator *aggregate.Aggregator,
	registry *sources.Registry,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Server {
	s := &Server{
		aggregator: aggregator,
		registry:   registry,
		metrics:    metrics,
		logger:     logger.With().Str("component", "http-server").Logger(),
	}

	s.router = s.buildRouter(cfg.MetricsPath)

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter(metricsPath string) chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.healthHandler)
	if metricsPath != "" && s.metrics != nil {
		r.Method(http.MethodGet, metricsPath,
			promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/sources", s.listSources)
		r.Get("/search", s.search)
		r.Get("/search/export", s.exportSearch)
	})

	return r
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler returns basic liveness status. The service holds no stateful
// backends, so liveness is unconditional.
func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	// Headers are already sent, so an encode failure is unrecoverable.
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
