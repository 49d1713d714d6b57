package agentui

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
retry:
  max_retries: 5
  initial_delay_ms: 200
  max_delay_ms: 4000
  multiplier: 1.5
  jitter_cap_ms: 250
timeout_ms: 15000
rate_limit:
  max_tokens: 20
  refill_interval_ms: 100
circuit_breaker:
  failure_threshold: 3
  recovery_timeout_ms: 30000
  success_threshold: 1
debug: true
metrics: false
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agentui.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Retry.MaxRetries)
	assert.Equal(t, 200, cfg.Retry.InitialDelayMs)
	assert.Equal(t, 4000, cfg.Retry.MaxDelayMs)
	assert.Equal(t, 1.5, cfg.Retry.Multiplier)
	assert.Equal(t, 250, cfg.Retry.JitterCapMs)
	assert.Equal(t, 15000, cfg.TimeoutMs)
	assert.Equal(t, 20, cfg.RateLimit.MaxTokens)
	assert.Equal(t, 3, cfg.CircuitBreaker.FailureThreshold)
	assert.True(t, cfg.Debug)
	assert.False(t, cfg.Metrics)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("AGENTUI_MAX_RETRIES", "9")
	t.Setenv("AGENTUI_TIMEOUT_MS", "500")
	t.Setenv("AGENTUI_DEBUG", "false")

	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.Retry.MaxRetries, "env must override file value")
	assert.Equal(t, 500, cfg.TimeoutMs)
	assert.False(t, cfg.Debug)
}

func TestLoadConfigEnvOverridesIgnoreGarbage(t *testing.T) {
	t.Setenv("AGENTUI_MAX_RETRIES", "many")

	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Retry.MaxRetries, "non-numeric override must be ignored")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "retry: [not a map"))
	assert.Error(t, err)
}

func TestFileConfigOptions(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	client := New(cfg.Options()...)
	require.True(t, client.IsValid())
	assert.Equal(t, 5, client.maxRetries)
	assert.NotNil(t, client.rateLimiter)
	assert.NotNil(t, client.circuitBreaker)
}

func TestFileConfigOptionsZeroValues(t *testing.T) {
	var cfg FileConfig
	assert.Empty(t, cfg.Options(), "zero config yields no options")
}
