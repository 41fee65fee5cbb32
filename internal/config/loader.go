package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if AIOPS_CONFIG is set
//  3. env (prefix AIOPS_)
//
// List values from env are comma separated, e.g. AIOPS_ENVIRONMENTS=dev,prod.
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("AIOPS_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// AIOPS_MODEL_CACHE_TTL_SECONDS -> model_cache_ttl_seconds (flat keys).
	envProvider := env.ProviderWithValue("AIOPS_", ".", func(key, value string) (string, interface{}) {
		key = strings.TrimPrefix(strings.ToLower(key), "aiops_")
		if key == "config" {
			return "", nil
		}
		if key == "environments" {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ModelCacheTTLSeconds <= 0:
		return fmt.Errorf("%w: model_cache_ttl_seconds must be positive", ErrInvalidConfig)
	case c.ModelCacheRetrySeconds <= 0:
		return fmt.Errorf("%w: model_cache_retry_seconds must be positive", ErrInvalidConfig)
	case c.AWSCallTimeoutMS <= 0:
		return fmt.Errorf("%w: aws_call_timeout_ms must be positive", ErrInvalidConfig)
	case len(c.Environments) == 0:
		return fmt.Errorf("%w: environments must not be empty", ErrInvalidConfig)
	case !c.HasEnvironment(c.DefaultEnvironment):
		return fmt.Errorf("%w: %w: default_environment %q is not in environments", ErrInvalidConfig, ErrDefaultEnvironment, c.DefaultEnvironment)
	}

	switch c.StoreDriver {
	case StoreMemory:
	case StoreSQLite:
		if strings.TrimSpace(c.StorePath) == "" {
			return fmt.Errorf("%w: store_path is required for the sqlite driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: %w %q", ErrInvalidConfig, ErrUnknownStoreDriver, c.StoreDriver)
	}
	return nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
