package smoke_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/tgsai/aiops-console/internal/adapters/http/api"
	app "github.com/tgsai/aiops-console/internal/app"
	"github.com/tgsai/aiops-console/internal/smoke"
	"github.com/tgsai/aiops-console/pkg/logger"
)

func startConsole(t *testing.T) *httptest.Server {
	t.Helper()
	svc := app.New(
		app.WithLogger(logger.Nop()),
		app.WithCredentialLookup(func(string) (string, bool) { return "", false }),
		app.WithMockSeed(42),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, svc, api.WithLogger(logger.Nop())).Register(context.Background(), mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		svc.Stop()
	})
	return srv
}

func TestBuildChecks(t *testing.T) {
	Convey("Given two environments", t, func() {
		checks := smoke.BuildChecks([]string{"dev", "prod"})

		Convey("Then every environment route is checked for both", func() {
			var dev, prod, bad int
			for _, c := range checks {
				switch {
				case c.WantStatus == http.StatusBadRequest:
					bad++
				case strings.Contains(c.Path, "environment=dev"):
					dev++
				case strings.Contains(c.Path, "environment=prod"):
					prod++
				}
			}
			So(dev, ShouldEqual, 11)
			So(prod, ShouldEqual, 11)
			So(bad, ShouldBeGreaterThan, 11)
		})

		Convey("Then environments are query escaped", func() {
			checks := smoke.BuildChecks([]string{"a b"})
			So(checks[4].Path, ShouldContainSubstring, "environment=a+b")
		})
	})
}

func TestRunAgainstConsole(t *testing.T) {
	Convey("Given a running console without AWS credentials", t, func() {
		srv := startConsole(t)

		Convey("When the smoke run checks every environment", func() {
			report, err := smoke.Run(context.Background(), smoke.Config{
				BaseURL:      srv.URL,
				Environments: []string{"dev", "uat", "prod", "sandbox"},
				Timeout:      5 * time.Second,
				Workers:      8,
			}, logger.Nop())

			Convey("Then every check passes", func() {
				So(err, ShouldBeNil)
				So(report.Failures(), ShouldBeEmpty)
				So(report.Passed, ShouldEqual, len(report.Results))
			})

			Convey("Then the toggle round-trip was included", func() {
				last := report.Results[len(report.Results)-1]
				So(last.Name, ShouldStartWith, "detector toggle round-trip")
				So(last.Passed(), ShouldBeTrue)
			})

			Convey("Then the summary is printed", func() {
				var buf bytes.Buffer
				report.Print(&buf, true)
				So(buf.String(), ShouldContainSubstring, "0 failed")
				So(buf.String(), ShouldContainSubstring, "/api/cost?environment=sandbox")
			})
		})
	})
}

func TestRunFailures(t *testing.T) {
	Convey("Given a server that is not healthy", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		Convey("Then the run stops before any check", func() {
			report, err := smoke.Run(context.Background(), smoke.Config{BaseURL: srv.URL}, logger.Nop())
			So(errors.Is(err, smoke.ErrUnhealthy), ShouldBeTrue)
			So(report, ShouldBeNil)
		})
	})

	Convey("Given a healthy server that answers every route with an empty object", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		Convey("Then the report lists the failures", func() {
			report, err := smoke.Run(context.Background(), smoke.Config{
				BaseURL:      srv.URL,
				Environments: []string{"dev"},
				SkipToggle:   true,
			}, logger.Nop())
			So(errors.Is(err, smoke.ErrChecksFailed), ShouldBeTrue)
			So(report.Failed, ShouldEqual, len(report.Results))

			var buf bytes.Buffer
			report.Print(&buf, false)
			So(buf.String(), ShouldContainSubstring, "missing key")
			So(buf.String(), ShouldContainSubstring, "status 200, want 400")
		})
	})
}
