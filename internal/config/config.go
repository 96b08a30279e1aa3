// Package config provides configuration management for the paper search
// service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the paper search service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Aggregator contains fan-out and merge settings.
	Aggregator AggregatorConfig `mapstructure:"aggregator"`
	// Retry contains the per-source retry budget.
	Retry RetryConfig `mapstructure:"retry"`
	// Politeness contains scrape etiquette settings shared by all sources.
	Politeness PolitenessConfig `mapstructure:"politeness"`
	// Sources contains the per-source adapter configurations.
	Sources SourcesConfig `mapstructure:"sources"`
}

// PolitenessConfig holds scrape etiquette settings.
type PolitenessConfig struct {
	// UserAgents is the pool of User-Agent strings rotated across requests.
	// Empty means the built-in browser identity set.
	UserAgents []string `mapstructure:"user_agents"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// ReadTimeout is the maximum duration for reading the request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing the response.
	// Aggregate queries can take minutes against slow sources.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for the metrics endpoint.
	Path string `mapstructure:"path"`
}

// AggregatorConfig holds fan-out settings.
type AggregatorConfig struct {
	// MaxConcurrent bounds how many sources are queried at once.
	MaxConcurrent int `mapstructure:"max_concurrent"`
	// QueryTimeout bounds one aggregate query end to end.
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
}

// RetryConfig holds the per-source retry budget.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts per source, including
	// the first.
	MaxAttempts int `mapstructure:"max_attempts"`
	// BaseDelay is the backoff before the first retry; it doubles per retry.
	BaseDelay time.Duration `mapstructure:"base_delay"`
	// MaxDelay caps the backoff between attempts.
	MaxDelay time.Duration `mapstructure:"max_delay"`
}

// SourcesConfig holds per-source adapter configurations.
type SourcesConfig struct {
	// GoogleScholar contains Google Scholar scrape/SerpAPI settings.
	GoogleScholar SourceConfig `mapstructure:"google_scholar"`
	// ArXiv contains arXiv API settings.
	ArXiv SourceConfig `mapstructure:"arxiv"`
	// ResearchGate contains ResearchGate scrape settings.
	ResearchGate SourceConfig `mapstructure:"researchgate"`
	// SemanticScholar contains Semantic Scholar Graph API settings.
	SemanticScholar SourceConfig `mapstructure:"semantic_scholar"`
	// CORE contains CORE scrape settings.
	CORE SourceConfig `mapstructure:"core"`
	// Springer contains SpringerLink scrape settings.
	Springer SourceConfig `mapstructure:"springer"`
	// ScienceDirect contains ScienceDirect scrape settings.
	ScienceDirect SourceConfig `mapstructure:"sciencedirect"`
}

// SourceConfig holds configuration for a single source adapter.
type SourceConfig struct {
	// Enabled controls whether this source is queried.
	Enabled bool `mapstructure:"enabled"`
	// APIKey is the source API key, loaded exclusively from environment
	// variables (e.g. PAPERSCOUT_SOURCES_SEMANTIC_SCHOLAR_API_KEY).
	APIKey string `mapstructure:"-"`
	// BaseURL overrides the adapter's default endpoint.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the per-request timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second against the source.
	RateLimit float64 `mapstructure:"rate_limit"`
	// MinDelay and MaxDelay bound the random politeness pause inserted
	// after rate limiting. Zero disables the pause.
	MinDelay time.Duration `mapstructure:"min_delay"`
	MaxDelay time.Duration `mapstructure:"max_delay"`
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("PAPERSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/paperscout")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
// These fields are tagged with mapstructure:"-" to prevent loading from
// config files.
func loadSecrets(cfg *Config) {
	cfg.Sources.SemanticScholar.APIKey = os.Getenv("PAPERSCOUT_SOURCES_SEMANTIC_SCHOLAR_API_KEY")
	// Google Scholar has no official API; the key selects the SerpAPI
	// fallback instead of direct scraping.
	cfg.Sources.GoogleScholar.APIKey = os.Getenv("PAPERSCOUT_SOURCES_GOOGLE_SCHOLAR_SERPAPI_KEY")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "3m")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Aggregator defaults
	v.SetDefault("aggregator.max_concurrent", 4)
	v.SetDefault("aggregator.query_timeout", "2m")

	// Retry defaults
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay", "500ms")
	v.SetDefault("retry.max_delay", "10s")

	// Source defaults - Google Scholar (scrapes unless a SerpAPI key is set)
	v.SetDefault("sources.google_scholar.enabled", true)
	v.SetDefault("sources.google_scholar.timeout", "20s")
	v.SetDefault("sources.google_scholar.rate_limit", 0.2)
	v.SetDefault("sources.google_scholar.min_delay", "2s")
	v.SetDefault("sources.google_scholar.max_delay", "5s")

	// Source defaults - arXiv (public API, 3 req/sec recommended maximum)
	v.SetDefault("sources.arxiv.enabled", true)
	v.SetDefault("sources.arxiv.timeout", "30s")
	v.SetDefault("sources.arxiv.rate_limit", 3.0)

	// Source defaults - ResearchGate
	v.SetDefault("sources.researchgate.enabled", true)
	v.SetDefault("sources.researchgate.timeout", "20s")
	v.SetDefault("sources.researchgate.rate_limit", 0.3)
	v.SetDefault("sources.researchgate.min_delay", "1s")
	v.SetDefault("sources.researchgate.max_delay", "3s")

	// Source defaults - Semantic Scholar (public API; key raises the quota)
	v.SetDefault("sources.semantic_scholar.enabled", true)
	v.SetDefault("sources.semantic_scholar.timeout", "30s")
	v.SetDefault("sources.semantic_scholar.rate_limit", 1.0)

	// Source defaults - CORE
	v.SetDefault("sources.core.enabled", true)
	v.SetDefault("sources.core.timeout", "20s")
	v.SetDefault("sources.core.rate_limit", 0.5)
	v.SetDefault("sources.core.min_delay", "1s")
	v.SetDefault("sources.core.max_delay", "2s")

	// Source defaults - SpringerLink
	v.SetDefault("sources.springer.enabled", true)
	v.SetDefault("sources.springer.timeout", "20s")
	v.SetDefault("sources.springer.rate_limit", 0.5)
	v.SetDefault("sources.springer.min_delay", "1s")
	v.SetDefault("sources.springer.max_delay", "2s")

	// Source defaults - ScienceDirect
	v.SetDefault("sources.sciencedirect.enabled", true)
	v.SetDefault("sources.sciencedirect.timeout", "20s")
	v.SetDefault("sources.sciencedirect.rate_limit", 0.3)
	v.SetDefault("sources.sciencedirect.min_delay", "2s")
	v.SetDefault("sources.sciencedirect.max_delay", "4s")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Aggregator.MaxConcurrent <= 0 {
		return fmt.Errorf("aggregator max_concurrent must be positive")
	}
	if c.Aggregator.QueryTimeout <= 0 {
		return fmt.Errorf("aggregator query_timeout must be positive")
	}

	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("retry max_attempts must be positive")
	}
	if c.Retry.BaseDelay <= 0 {
		return fmt.Errorf("retry base_delay must be positive")
	}
	if c.Retry.MaxDelay < c.Retry.BaseDelay {
		return fmt.Errorf("retry max_delay (%s) must be >= base_delay (%s)", c.Retry.MaxDelay, c.Retry.BaseDelay)
	}

	for name, src := range map[string]SourceConfig{
		"google_scholar":   c.Sources.GoogleScholar,
		"arxiv":            c.Sources.ArXiv,
		"researchgate":     c.Sources.ResearchGate,
		"semantic_scholar": c.Sources.SemanticScholar,
		"core":             c.Sources.CORE,
		"springer":         c.Sources.Springer,
		"sciencedirect":    c.Sources.ScienceDirect,
	} {
		if !src.Enabled {
			continue
		}
		if src.RateLimit <= 0 {
			return fmt.Errorf("source %s: rate_limit must be positive", name)
		}
		if src.MaxDelay < src.MinDelay {
			return fmt.Errorf("source %s: max_delay (%s) must be >= min_delay (%s)", name, src.MaxDelay, src.MinDelay)
		}
	}

	return nil
}
