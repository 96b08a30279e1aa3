// Package app wires configuration into the adapter registry and aggregator
// shared by the server and CLI entry points.
package app

import (
	"github.com/rs/zerolog"

	"github.com/roody/paperscout/internal/aggregate"
	"github.com/roody/paperscout/internal/config"
	"github.com/roody/paperscout/internal/domain"
	"github.com/roody/paperscout/internal/observability"
	"github.com/roody/paperscout/internal/sources"
	"github.com/roody/paperscout/internal/sources/arxiv"
	"github.com/roody/paperscout/internal/sources/core"
	"github.com/roody/paperscout/internal/sources/researchgate"
	"github.com/roody/paperscout/internal/sources/scholar"
	"github.com/roody/paperscout/internal/sources/sciencedirect"
	"github.com/roody/paperscout/internal/sources/semanticscholar"
	"github.com/roody/paperscout/internal/sources/springer"
)

// BuildRegistry constructs every adapter from configuration and registers it.
// Disabled adapters are registered too, so they appear in source listings.
func BuildRegistry(cfg *config.Config, identities *sources.IdentityPool) *sources.Registry {
	registry := sources.NewRegistry()

	registry.Register(scholar.New(scholar.Config{
		Enabled:    cfg.Sources.GoogleScholar.Enabled,
		BaseURL:    cfg.Sources.GoogleScholar.BaseURL,
		SerpAPIKey: cfg.Sources.GoogleScholar.APIKey,
	}, httpClient(domain.SourceTypeGoogleScholar, cfg.Sources.GoogleScholar, identities, true)))

	registry.Register(arxiv.New(arxiv.Config{
		Enabled: cfg.Sources.ArXiv.Enabled,
		BaseURL: cfg.Sources.ArXiv.BaseURL,
	}, httpClient(domain.SourceTypeArXiv, cfg.Sources.ArXiv, identities, false)))

	registry.Register(researchgate.New(researchgate.Config{
		Enabled: cfg.Sources.ResearchGate.Enabled,
		BaseURL: cfg.Sources.ResearchGate.BaseURL,
	}, httpClient(domain.SourceTypeResearchGate, cfg.Sources.ResearchGate, identities, true)))

	registry.Register(semanticscholar.New(semanticscholar.Config{
		Enabled: cfg.Sources.SemanticScholar.Enabled,
		BaseURL: cfg.Sources.SemanticScholar.BaseURL,
		APIKey:  cfg.Sources.SemanticScholar.APIKey,
	}, httpClient(domain.SourceTypeSemanticScholar, cfg.Sources.SemanticScholar, identities, false)))

	registry.Register(core.New(core.Config{
		Enabled: cfg.Sources.CORE.Enabled,
		BaseURL: cfg.Sources.CORE.BaseURL,
	}, httpClient(domain.SourceTypeCORE, cfg.Sources.CORE, identities, true)))

	registry.Register(springer.New(springer.Config{
		Enabled: cfg.Sources.Springer.Enabled,
		BaseURL: cfg.Sources.Springer.BaseURL,
	}, httpClient(domain.SourceTypeSpringer, cfg.Sources.Springer, identities, true)))

	registry.Register(sciencedirect.New(sciencedirect.Config{
		Enabled: cfg.Sources.ScienceDirect.Enabled,
		BaseURL: cfg.Sources.ScienceDirect.BaseURL,
	}, httpClient(domain.SourceTypeScienceDirect, cfg.Sources.ScienceDirect, identities, true)))

	return registry
}

// BuildAggregator constructs the aggregator over a registry.
func BuildAggregator(cfg *config.Config, registry *sources.Registry, logger zerolog.Logger, metrics *observability.Metrics) *aggregate.Aggregator {
	return aggregate.New(aggregate.Config{
		MaxConcurrent: cfg.Aggregator.MaxConcurrent,
		QueryTimeout:  cfg.Aggregator.QueryTimeout,
		Retry: aggregate.RetryConfig{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
			MaxDelay:    cfg.Retry.MaxDelay,
		},
	}, registry, logger, metrics)
}

// httpClient builds the shared politeness client for one source. Scrape
// adapters get browser headers; API adapters send plain requests with their
// key when configured.
func httpClient(st domain.SourceType, src config.SourceConfig, identities *sources.IdentityPool, browser bool) *sources.HTTPClient {
	cfg := sources.HTTPClientConfig{
		Source:         st,
		Timeout:        src.Timeout,
		RateLimit:      src.RateLimit,
		BurstSize:      1,
		MinDelay:       src.MinDelay,
		MaxDelay:       src.MaxDelay,
		Identities:     identities,
		BrowserHeaders: browser,
	}
	if st == domain.SourceTypeSemanticScholar && src.APIKey != "" {
		cfg.APIKey = src.APIKey
		cfg.APIKeyHeader = "x-api-key"
	}
	return sources.NewHTTPClient(cfg)
}
