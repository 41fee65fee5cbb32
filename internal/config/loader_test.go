package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/smartystreets/goconvey/convey"
	"github.com/tgsai/aiops-console/internal/config"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":3000")
				convey.So(cfg.ModelCacheTTLSeconds, convey.ShouldEqual, 3600)
				convey.So(cfg.Environments, convey.ShouldResemble, []string{"dev", "uat", "prod"})
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("AIOPS_ADDR", ":8080")
			_ = os.Setenv("AIOPS_MODEL_CACHE_TTL_SECONDS", "60")
			_ = os.Setenv("AIOPS_MODEL_CACHE_RETRY_SECONDS", "15")
			_ = os.Setenv("AIOPS_ENVIRONMENTS", "dev, Prod ,")
			_ = os.Setenv("AIOPS_DEFAULT_ENVIRONMENT", "prod")
			_ = os.Setenv("AIOPS_MOCK_SEED", "7")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.ModelCacheTTLSeconds, convey.ShouldEqual, 60)
				convey.So(cfg.ModelCacheRetrySeconds, convey.ShouldEqual, 15)
				convey.So(cfg.Environments, convey.ShouldResemble, []string{"dev", "prod"})
				convey.So(cfg.DefaultEnvironment, convey.ShouldEqual, "prod")
				convey.So(cfg.MockSeed, convey.ShouldEqual, 7)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
log_format: json
model_cache_ttl_seconds: 120
environments: [dev, staging]
default_environment: staging
store_driver: sqlite
store_path: /tmp/aiops.db
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("AIOPS_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.ModelCacheTTLSeconds, convey.ShouldEqual, 120)
				convey.So(cfg.Environments, convey.ShouldResemble, []string{"dev", "staging"})
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.StoreSQLite)
				convey.So(cfg.StorePath, convey.ShouldEqual, "/tmp/aiops.db")
			})
		})

		convey.Convey("When both file and environment variables are set", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
aws_call_timeout_ms: 2500
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("AIOPS_CONFIG", tmpFile)
			_ = os.Setenv("AIOPS_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.AWSCallTimeoutMS, convey.ShouldEqual, 2500)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("AIOPS_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("AIOPS_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("AIOPS_MODEL_CACHE_TTL_SECONDS", "an hour")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfigValidation(t *testing.T) {
	convey.Convey("Given config validation", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		cases := []struct {
			name string
			env  map[string]string
			msg  string
			kind error
		}{
			{"empty addr", map[string]string{"AIOPS_ADDR": ""}, "addr must not be empty", nil},
			{"zero ttl", map[string]string{"AIOPS_MODEL_CACHE_TTL_SECONDS": "0"}, "model_cache_ttl_seconds", nil},
			{"zero retry", map[string]string{"AIOPS_MODEL_CACHE_RETRY_SECONDS": "0"}, "model_cache_retry_seconds", nil},
			{"unknown driver", map[string]string{"AIOPS_STORE_DRIVER": "redis"}, `unknown store driver "redis"`, config.ErrUnknownStoreDriver},
			{"sqlite without path", map[string]string{"AIOPS_STORE_DRIVER": "sqlite"}, "store_path is required", nil},
			{"default not listed", map[string]string{"AIOPS_DEFAULT_ENVIRONMENT": "qa"}, "default_environment", config.ErrDefaultEnvironment},
		}

		for _, tc := range cases {
			convey.Convey("When "+tc.name, func() {
				for k, v := range tc.env {
					_ = os.Setenv(k, v)
				}
				defer clearConfigEnvVars()

				cfg, err := config.Load(ctx)

				convey.Convey("Then it should return a validation error", func() {
					convey.So(cfg, convey.ShouldBeNil)
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
					convey.So(err.Error(), convey.ShouldContainSubstring, tc.msg)
					if tc.kind != nil {
						convey.So(errors.Is(err, tc.kind), convey.ShouldBeTrue)
					}
				})
			})
		}
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"AIOPS_CONFIG",
		"AIOPS_ADDR",
		"AIOPS_MODEL_CACHE_TTL_SECONDS",
		"AIOPS_MODEL_CACHE_RETRY_SECONDS",
		"AIOPS_ENVIRONMENTS",
		"AIOPS_DEFAULT_ENVIRONMENT",
		"AIOPS_MOCK_SEED",
		"AIOPS_STORE_DRIVER",
		"AIOPS_STORE_PATH",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "aiops-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
