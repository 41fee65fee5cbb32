// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults live in New; Load layers a YAML file and AIOPS_* env vars on top.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"strings"
)

// Store drivers accepted by StoreDriver.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DefaultEnvironment is reported by /api/environments as the initial selection.
	DefaultEnvironment string `koanf:"default_environment"`

	// Environments lists the environment keywords offered to the console.
	Environments []string `koanf:"environments"`

	// DefaultRegion is used when no AWS_REGION_{ENV} / AWS_REGION is set.
	DefaultRegion string `koanf:"default_region"`

	// ModelCacheTTLSeconds bounds how long the Bedrock model catalog is reused.
	ModelCacheTTLSeconds int `koanf:"model_cache_ttl_seconds"`

	// ModelCacheRetrySeconds is how long a stale catalog is served after a
	// failed reload before loading again.
	ModelCacheRetrySeconds int `koanf:"model_cache_retry_seconds"`

	// AWSCallTimeoutMS bounds every AWS SDK call.
	AWSCallTimeoutMS int `koanf:"aws_call_timeout_ms"`

	// StoreDriver selects the anomaly detector store: memory or sqlite.
	StoreDriver string `koanf:"store_driver"`

	// StorePath is the sqlite database file when StoreDriver is sqlite.
	StorePath string `koanf:"store_path"`

	// RCAModelID is the Bedrock model used for root cause analysis.
	RCAModelID string `koanf:"rca_model_id"`

	// MaxGenerateTokens caps maxTokens on /api/bedrock/generate.
	MaxGenerateTokens int `koanf:"max_generate_tokens"`

	// MockSeed seeds the data generators; 0 picks a time-based seed.
	MockSeed int64 `koanf:"mock_seed"`

	// StackTokenCacheSize bounds the remembered stack clientRequestTokens.
	StackTokenCacheSize int `koanf:"stack_token_cache_size"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":3000",
		DefaultEnvironment:     "dev",
		Environments:           []string{"dev", "uat", "prod"},
		DefaultRegion:          "us-east-1",
		ModelCacheTTLSeconds:   3600,
		ModelCacheRetrySeconds: 60,
		AWSCallTimeoutMS:       10_000,
		StoreDriver:            StoreMemory,
		StorePath:              "",
		RCAModelID:             "anthropic.claude-3-haiku-20240307-v1:0",
		MaxGenerateTokens:      4096,
		MockSeed:               0,
		StackTokenCacheSize:    10_000,
	}
}

// HasEnvironment reports whether id is one of the configured environments.
func (c *Config) HasEnvironment(id string) bool {
	for _, e := range c.Environments {
		if strings.EqualFold(e, id) {
			return true
		}
	}
	return false
}
