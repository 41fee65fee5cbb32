package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"

	app "github.com/tgsai/aiops-console/internal/app"
	"github.com/tgsai/aiops-console/internal/config"
	"github.com/tgsai/aiops-console/pkg/logger"
	"github.com/tgsai/aiops-console/pkg/metrics"
)

func noCredentials(string) (string, bool) { return "", false }

func startTestService(t *testing.T, cfg *config.Config) *app.Service {
	t.Helper()
	opts := append(serviceOptions(cfg, logger.Nop()), app.WithCredentialLookup(noCredentials))
	svc := app.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestMainConfiguration(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When configuration comes from the environment", func() {
			_ = os.Setenv("AIOPS_ADDR", ":8080")
			_ = os.Setenv("AIOPS_ENVIRONMENTS", "dev,staging")
			_ = os.Setenv("AIOPS_MOCK_SEED", "7")
			defer func() {
				_ = os.Unsetenv("AIOPS_ADDR")
				_ = os.Unsetenv("AIOPS_ENVIRONMENTS")
				_ = os.Unsetenv("AIOPS_MOCK_SEED")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.Environments, convey.ShouldResemble, []string{"dev", "staging"})
				convey.So(cfg.MockSeed, convey.ShouldEqual, int64(7))
			})

			convey.Convey("Then the service reflects it", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				svc := startTestService(t, cfg)

				envs, def := svc.Environments()
				convey.So(envs, convey.ShouldHaveLength, 2)
				convey.So(envs[1].ID, convey.ShouldEqual, "staging")
				convey.So(def, convey.ShouldEqual, "dev")
			})
		})

		convey.Convey("When the configuration is invalid", func() {
			_ = os.Setenv("AIOPS_ADDR", "")
			_ = os.Setenv("AIOPS_STORE_DRIVER", "postgres")
			defer func() {
				_ = os.Unsetenv("AIOPS_ADDR")
				_ = os.Unsetenv("AIOPS_STORE_DRIVER")
			}()

			convey.Convey("Then configuration loading should fail", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestMainMux(t *testing.T) {
	convey.Convey("Given a started service behind the application mux", t, func() {
		cfg := config.New()
		cfg.MockSeed = 42
		svc := startTestService(t, cfg)
		mux, err := newMux(context.Background(), svc, logger.Nop())
		convey.So(err, convey.ShouldBeNil)

		get := func(path string) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			return w
		}

		convey.Convey("Then the landing page, docs and API are all served", func() {
			convey.So(get("/").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/api-docs").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/openapi.yaml").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/healthz").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/nowhere").Code, convey.ShouldEqual, http.StatusNotFound)
		})

		convey.Convey("Then AWS read routes fall back to mock data without credentials", func() {
			w := get("/api/cost?environment=prod")
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			var body map[string]any
			convey.So(json.Unmarshal(w.Body.Bytes(), &body), convey.ShouldBeNil)
			convey.So(body["source"], convey.ShouldEqual, "mock")
			_, hasErr := body["error"]
			convey.So(hasErr, convey.ShouldBeFalse)
		})

		convey.Convey("Then the stats report the seeded detectors", func() {
			w := get("/stats")
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			var body map[string]any
			convey.So(json.Unmarshal(w.Body.Bytes(), &body), convey.ShouldBeNil)
			convey.So(body["started"], convey.ShouldEqual, true)
			convey.So(body["detectors"], convey.ShouldContainKey, "dev")
		})
	})
}

func TestMainMetricsUpdaters(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When the system metrics updater runs until cancelled", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})

		convey.Convey("When updating system metrics", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("When updating service metrics", func() {
			svc := startTestService(t, config.New())
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)

			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
		})

		convey.Convey("When updating metrics of a service that never started", func() {
			convey.So(func() { updateServiceMetrics(app.New()) }, convey.ShouldNotPanic)
		})

		convey.Convey("When creating a metrics manager on a private registry", func() {
			manager := metrics.NewManager(metrics.WithRegistry(prometheus.NewRegistry()))
			convey.So(manager, convey.ShouldNotBeNil)
		})
	})
}
