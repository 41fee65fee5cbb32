package metrics

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating a manager with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("sub"),
				WithMetricPrefix("x_"),
				WithHTTPBuckets([]float64{0.1, 0.5, 1.0}),
				WithUpstreamBuckets([]float64{100, 1000}),
				WithEnabled(true),
				WithRefreshInterval(5*time.Second),
				WithConstLabels(map[string]string{"stage": "test"}),
				WithRegistry(registry),
			)

			Convey("Then options should be applied", func() {
				So(manager.namespace, ShouldEqual, "test")
				So(manager.subsystem, ShouldEqual, "sub")
				So(manager.metricPrefix, ShouldEqual, "x_")
				So(manager.httpBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
				So(manager.upstreamBuckets, ShouldResemble, []float64{100, 1000})
				So(manager.constLabels, ShouldContainKey, "stage")
				So(manager.refreshInterval, ShouldEqual, 5*time.Second)
			})

			Convey("And metric names should carry namespace, subsystem and prefix", func() {
				manager.catalogHits.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				var names []string
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(strings.Join(names, ","), ShouldContainSubstring, "test_sub_x_model_catalog_cache_hits_total")
			})
		})

		Convey("When options carry empty values", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHTTPBuckets(nil),
				WithUpstreamBuckets(nil),
				WithRefreshInterval(0),
				WithRegistry(registry),
			)

			Convey("Then defaults should be kept", func() {
				So(manager.namespace, ShouldEqual, "aiops")
				So(manager.subsystem, ShouldEqual, "console")
				So(len(manager.httpBuckets), ShouldBeGreaterThan, 0)
				So(manager.upstreamBuckets[0], ShouldBeGreaterThan, manager.httpBuckets[0])
				So(manager.refreshInterval, ShouldEqual, defaultRefreshInterval)
				So(RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording AWS calls", func() {
			before := testutil.ToFloat64(globalManager.awsCalls.WithLabelValues("costexplorer", "GetCostAndUsage", "ok"))
			RecordAWSCall("costexplorer", "GetCostAndUsage", "ok", 12)

			Convey("Then the call counter should increase", func() {
				after := testutil.ToFloat64(globalManager.awsCalls.WithLabelValues("costexplorer", "GetCostAndUsage", "ok"))
				So(after-before, ShouldEqual, 1)
			})
		})

		Convey("When recording catalog refreshes", func() {
			RecordCatalogRefresh("ok", 42)
			RecordCatalogRefresh("error", 0)

			Convey("Then the model gauge should reflect the last successful load", func() {
				So(testutil.ToFloat64(globalManager.catalogModelCount), ShouldEqual, 42)
			})
		})

		Convey("When recording detector toggles", func() {
			before := testutil.ToFloat64(globalManager.detectorToggles.WithLabelValues("false"))
			RecordDetectorToggle(false)

			Convey("Then the disabled label should increase", func() {
				So(testutil.ToFloat64(globalManager.detectorToggles.WithLabelValues("false"))-before, ShouldEqual, 1)
			})
		})

		Convey("When recording the remaining metrics", func() {
			Convey("Then nothing should panic", func() {
				So(func() {
					RecordHTTPRequest("cost", "GET", "200")
					RecordHTTPRequestDuration("cost", "GET", "200", 3)
					RecordErrorByEndpoint("cost", "GET", "client_error")
					RecordErrorByType("client_error", "medium")
					RecordMockFallback("cost", "credentials_missing")
					RecordCatalogHit()
					RecordCatalogMiss()
					RecordBedrockInvocation("anthropic", "bedrock", 420)
					RecordBedrockInvocation("meta", "simulated", 0)
					RecordRCA("simulated")
					UpdateDetectorCount("dev", 12)
					RecordStackSubmission("created")
					UpdateSystemMemoryUsage(1 << 20)
					UpdateSystemGoroutineCount(12)
					RecordSystemGCPauseTime(0.4)
				}, ShouldNotPanic)
			})
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		before := testutil.ToFloat64(globalManager.catalogMisses)
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				RecordCatalogMiss()
			}()
		}
		wg.Wait()

		Convey("Then every increment should be counted", func() {
			So(testutil.ToFloat64(globalManager.catalogMisses)-before, ShouldEqual, 50)
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the custom registry", t, func() {
		RecordCatalogHit()
		families, err := GetRegistry().Gather()

		Convey("Then it should gather console metrics", func() {
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}
