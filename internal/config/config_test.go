package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves the test into an empty directory so a config.yaml in the repo
// root cannot leak into the loaded configuration.
func chdir(t *testing.T) {
	t.Helper()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(cwd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.HTTPAddress())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 4, cfg.Aggregator.MaxConcurrent)
	assert.Equal(t, 2*time.Minute, cfg.Aggregator.QueryTimeout)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)

	assert.True(t, cfg.Sources.ArXiv.Enabled)
	assert.Equal(t, 3.0, cfg.Sources.ArXiv.RateLimit)
	assert.True(t, cfg.Sources.ScienceDirect.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Sources.ScienceDirect.MinDelay)
}

func TestLoadFromEnvironment(t *testing.T) {
	chdir(t)
	t.Setenv("PAPERSCOUT_SERVER_HTTP_PORT", "9999")
	t.Setenv("PAPERSCOUT_LOGGING_LEVEL", "debug")
	t.Setenv("PAPERSCOUT_RETRY_MAX_ATTEMPTS", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.HTTPPort)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
}

func TestLoadSecretsFromEnvironment(t *testing.T) {
	chdir(t)
	t.Setenv("PAPERSCOUT_SOURCES_SEMANTIC_SCHOLAR_API_KEY", "s2-key")
	t.Setenv("PAPERSCOUT_SOURCES_GOOGLE_SCHOLAR_SERPAPI_KEY", "serp-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "s2-key", cfg.Sources.SemanticScholar.APIKey)
	assert.Equal(t, "serp-key", cfg.Sources.GoogleScholar.APIKey)
}

func TestLoadFromFile(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	yaml := `
server:
  http_port: 8181
politeness:
  user_agents:
    - "agent-one"
    - "agent-two"
sources:
  springer:
    enabled: false
  arxiv:
    rate_limit: 1.5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8181, cfg.Server.HTTPPort)
	assert.Equal(t, []string{"agent-one", "agent-two"}, cfg.Politeness.UserAgents)
	assert.False(t, cfg.Sources.Springer.Enabled)
	assert.Equal(t, 1.5, cfg.Sources.ArXiv.RateLimit)
	// Untouched defaults survive a partial file.
	assert.True(t, cfg.Sources.CORE.Enabled)
}

func TestValidate(t *testing.T) {
	valid := func(t *testing.T) *Config {
		chdir(t)
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	t.Run("bad port", func(t *testing.T) {
		cfg := valid(t)
		cfg.Server.HTTPPort = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad log level", func(t *testing.T) {
		cfg := valid(t)
		cfg.Logging.Level = "verbose"
		assert.Error(t, cfg.Validate())
	})

	t.Run("retry delays inverted", func(t *testing.T) {
		cfg := valid(t)
		cfg.Retry.BaseDelay = time.Minute
		cfg.Retry.MaxDelay = time.Second
		assert.Error(t, cfg.Validate())
	})

	t.Run("enabled source needs a rate limit", func(t *testing.T) {
		cfg := valid(t)
		cfg.Sources.CORE.RateLimit = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("disabled sources skip validation", func(t *testing.T) {
		cfg := valid(t)
		cfg.Sources.CORE.Enabled = false
		cfg.Sources.CORE.RateLimit = 0
		assert.NoError(t, cfg.Validate())
	})
}
