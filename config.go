package agentui

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileConfig is the YAML schema for configuring a Client from a file.
// Durations are milliseconds to match the wire-level retry parameters.
type FileConfig struct {
	Retry struct {
		MaxRetries     int     `yaml:"max_retries"`
		InitialDelayMs int     `yaml:"initial_delay_ms"`
		MaxDelayMs     int     `yaml:"max_delay_ms"`
		Multiplier     float64 `yaml:"multiplier"`
		JitterCapMs    int     `yaml:"jitter_cap_ms"`
	} `yaml:"retry"`

	TimeoutMs int `yaml:"timeout_ms"`

	RateLimit struct {
		MaxTokens        int `yaml:"max_tokens"`
		RefillIntervalMs int `yaml:"refill_interval_ms"`
	} `yaml:"rate_limit"`

	CircuitBreaker struct {
		FailureThreshold  int `yaml:"failure_threshold"`
		RecoveryTimeoutMs int `yaml:"recovery_timeout_ms"`
		SuccessThreshold  int `yaml:"success_threshold"`
	} `yaml:"circuit_breaker"`

	Debug   bool `yaml:"debug"`
	Metrics bool `yaml:"metrics"`
}

// LoadConfig reads a YAML config file. A .env file in the working
// directory, when present, is loaded first; AGENTUI_* environment
// variables override file values.
func LoadConfig(path string) (*FileConfig, error) {
	// Missing .env is fine.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvOverrides()
	return &cfg, nil
}

func (fc *FileConfig) applyEnvOverrides() {
	if v, ok := envInt("AGENTUI_MAX_RETRIES"); ok {
		fc.Retry.MaxRetries = v
	}
	if v, ok := envInt("AGENTUI_TIMEOUT_MS"); ok {
		fc.TimeoutMs = v
	}
	if v := os.Getenv("AGENTUI_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			fc.Debug = b
		}
	}
}

func envInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Options converts the file configuration into client options.
func (fc *FileConfig) Options() []Option {
	var opts []Option

	if fc.Retry.MaxRetries > 0 {
		opts = append(opts, WithMaxRetries(fc.Retry.MaxRetries))
	}
	if fc.Retry.InitialDelayMs > 0 {
		opts = append(opts, WithInitialBackoff(time.Duration(fc.Retry.InitialDelayMs)*time.Millisecond))
	}
	if fc.Retry.MaxDelayMs > 0 {
		opts = append(opts, WithMaxBackoff(time.Duration(fc.Retry.MaxDelayMs)*time.Millisecond))
	}
	if fc.Retry.Multiplier > 0 {
		opts = append(opts, WithBackoffMultiplier(fc.Retry.Multiplier))
	}
	if fc.Retry.JitterCapMs > 0 {
		opts = append(opts, WithJitterCap(time.Duration(fc.Retry.JitterCapMs)*time.Millisecond))
	}
	if fc.TimeoutMs > 0 {
		opts = append(opts, WithTimeout(time.Duration(fc.TimeoutMs)*time.Millisecond))
	}
	if fc.RateLimit.MaxTokens > 0 && fc.RateLimit.RefillIntervalMs > 0 {
		opts = append(opts, WithRateLimiter(fc.RateLimit.MaxTokens,
			time.Duration(fc.RateLimit.RefillIntervalMs)*time.Millisecond))
	}
	if fc.CircuitBreaker.FailureThreshold > 0 {
		opts = append(opts, WithCircuitBreaker(CircuitBreakerConfig{
			FailureThreshold: fc.CircuitBreaker.FailureThreshold,
			RecoveryTimeout:  time.Duration(fc.CircuitBreaker.RecoveryTimeoutMs) * time.Millisecond,
			SuccessThreshold: fc.CircuitBreaker.SuccessThreshold,
		}))
	}
	if fc.Debug {
		opts = append(opts, WithDebug())
	}
	if fc.Metrics {
		opts = append(opts, WithMetrics())
	}
	return opts
}
