package smoke

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tgsai/aiops-console/pkg/logger"
)

// Result is the outcome of one check.
type Result struct {
	Name     string
	Method   string
	Path     string
	Status   int
	Err      error
	Duration time.Duration
}

// Passed reports whether the check succeeded.
func (r Result) Passed() bool { return r.Err == nil }

// Run checks the service at cfg.BaseURL: health first, then every check
// concurrently, then the detector toggle round-trip. The report is returned
// even when checks fail; the error is ErrChecksFailed in that case.
func Run(ctx context.Context, cfg Config, log logger.Logger) (*Report, error) {
	cfg = cfg.withDefaults()
	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)
	report := &Report{StartTime: time.Now()}

	log.Info(ctx, "starting smoke run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Any("environments", cfg.Environments),
		logger.Int("workers", cfg.Workers),
	)

	if err := checkHealth(ctx, client); err != nil {
		return nil, err
	}

	checks := BuildChecks(cfg.Environments)
	results := make([]Result, len(checks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, c := range checks {
		g.Go(func() error {
			results[i] = runCheck(gctx, client, c)
			if cfg.Verbose {
				log.Debug(gctx, "check done",
					logger.String("name", c.Name),
					logger.Int("status", results[i].Status),
					logger.Bool("passed", results[i].Passed()),
				)
			}
			return nil
		})
	}
	_ = g.Wait()
	report.add(results...)

	if !cfg.SkipToggle {
		report.add(toggleRoundTrip(ctx, client, cfg.Environments[0]))
	}

	report.EndTime = time.Now()
	log.Info(ctx, "smoke run finished",
		logger.Int("passed", report.Passed),
		logger.Int("failed", report.Failed),
		logger.Duration("duration", report.EndTime.Sub(report.StartTime)),
	)
	if report.Failed > 0 {
		return report, ErrChecksFailed
	}
	return report, nil
}

func checkHealth(ctx context.Context, client *httpClient) error {
	status, _, err := client.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, status)
	}
	return nil
}

func runCheck(ctx context.Context, client *httpClient, c Check) Result {
	start := time.Now()
	status, body, err := client.do(ctx, c.Method, c.Path, c.Body)
	if err == nil {
		err = c.verify(status, body)
	}
	return Result{Name: c.Name, Method: c.Method, Path: c.Path, Status: status, Err: err, Duration: time.Since(start)}
}

type anomaly struct {
	ID      string `json:"id"`
	Enabled bool   `json:"enabled"`
}

var errToggleNotVisible = errors.New("toggle not visible on next read")

// toggleRoundTrip flips the first detector of env, checks that the next
// read reflects it and restores the original state.
func toggleRoundTrip(ctx context.Context, client *httpClient, env string) Result {
	const path = "/api/anomalies"
	start := time.Now()
	res := Result{Name: "detector toggle round-trip [" + env + "]", Method: http.MethodPut, Path: path}
	finish := func(status int, err error) Result {
		res.Status, res.Err, res.Duration = status, err, time.Since(start)
		return res
	}

	list := func() ([]anomaly, int, error) {
		status, body, err := client.do(ctx, http.MethodGet, path+"?environment="+url.QueryEscape(env), nil)
		if err != nil {
			return nil, status, err
		}
		var out struct {
			Anomalies []anomaly `json:"anomalies"`
		}
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, status, err
		}
		return out.Anomalies, status, nil
	}
	set := func(id string, enabled bool) (int, error) {
		status, _, err := client.do(ctx, http.MethodPut, path, map[string]any{"id": id, "enabled": enabled})
		if err == nil && status != http.StatusOK {
			err = fmt.Errorf("status %d, want %d", status, http.StatusOK)
		}
		return status, err
	}

	before, status, err := list()
	if err != nil {
		return finish(status, err)
	}
	if len(before) == 0 {
		return finish(status, fmt.Errorf("no detectors in %s", env))
	}
	target := before[0]

	if status, err := set(target.ID, !target.Enabled); err != nil {
		return finish(status, err)
	}
	after, status, err := list()
	if err != nil {
		return finish(status, err)
	}
	visible := false
	for _, a := range after {
		if a.ID == target.ID {
			visible = a.Enabled == !target.Enabled
		}
	}

	restoreStatus, restoreErr := set(target.ID, target.Enabled)
	if !visible {
		return finish(status, errToggleNotVisible)
	}
	return finish(restoreStatus, restoreErr)
}
