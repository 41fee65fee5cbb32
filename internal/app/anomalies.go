package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/tgsai/aiops-console/internal/adapters/repository"
	"github.com/tgsai/aiops-console/internal/domain/environment"
	"github.com/tgsai/aiops-console/internal/domain/mockdata"
	"github.com/tgsai/aiops-console/internal/domain/rca"
	"github.com/tgsai/aiops-console/internal/domain/types"
	"github.com/tgsai/aiops-console/pkg/logger"
	"github.com/tgsai/aiops-console/pkg/metrics"
)

const (
	defaultSeriesPoints = 60
	maxSeriesPoints     = 1440
	seriesStep          = 5 * time.Minute
	maxHeatmapSize      = 100
	maxForecastPoints   = 720
)

func clampInt(v, def, hi int) int {
	if v <= 0 {
		return def
	}
	if v > hi {
		return hi
	}
	return v
}

// Recommendations returns the advisor recommendations of env and their summary.
func (s *Service) Recommendations(_ context.Context, env string) ([]types.Recommendation, types.AdvisorSummary, error) {
	recs, err := s.generator.Recommendations(env)
	if err != nil {
		return nil, types.AdvisorSummary{}, err
	}
	return recs, mockdata.Summarize(recs), nil
}

// ListAnomalies returns the detectors of env, optionally narrowed to one
// resource type or resource.
func (s *Service) ListAnomalies(ctx context.Context, env, resourceType, resourceID string) ([]types.Anomaly, error) {
	if err := s.ensureSeeded(ctx, env); err != nil {
		return nil, err
	}
	return s.store.List(ctx, repository.Filter{
		Environment:  env,
		ResourceType: resourceType,
		ResourceID:   resourceID,
	})
}

// SetAnomalyEnabled toggles a detector. The change is visible to the next
// ListAnomalies call.
func (s *Service) SetAnomalyEnabled(ctx context.Context, id string, enabled bool) (types.Anomaly, error) {
	a, err := s.store.SetEnabled(ctx, id, enabled)
	if err != nil {
		return types.Anomaly{}, err
	}
	metrics.RecordDetectorToggle(enabled)
	s.logger.Info(ctx, "detector toggled",
		logger.String("id", id),
		logger.Bool("enabled", enabled),
	)
	return a, nil
}

// TimeSeries returns a metric series for a resource. An empty resourceID
// selects the first resource of the type and an empty metric its first metric.
func (s *Service) TimeSeries(_ context.Context, env, resourceType, resourceID, metric string, points int) (types.TimeSeries, error) {
	rt := strings.ToLower(resourceType)
	if !mockdata.KnownResourceType(rt) {
		return types.TimeSeries{}, fmt.Errorf("%w: %s", mockdata.ErrUnknownResourceType, resourceType)
	}
	if resourceID == "" {
		resourceID = mockdata.ResourceIDs(env, rt, 1)[0]
	}
	if metric == "" {
		metric = mockdata.MetricsFor(rt)[0]
	}
	points = clampInt(points, defaultSeriesPoints, maxSeriesPoints)
	return s.generator.TimeSeries(env, rt, resourceID, metric, points, seriesStep), nil
}

// ResourceHeatmap returns utilisation for count resources of resourceType.
// A non-positive count uses the environment's typical fleet size.
func (s *Service) ResourceHeatmap(_ context.Context, env, resourceType string, count int) ([]types.ResourceHealth, error) {
	rt := strings.ToLower(resourceType)
	if !mockdata.KnownResourceType(rt) {
		return nil, fmt.Errorf("%w: %s", mockdata.ErrUnknownResourceType, resourceType)
	}
	if count > maxHeatmapSize {
		count = maxHeatmapSize
	}
	return s.generator.ResourceHeatmap(env, rt, count), nil
}

// Correlation returns the signal graph around anomalyID, which must be a
// detector of env when set.
func (s *Service) Correlation(ctx context.Context, env, anomalyID string) (types.Correlation, error) {
	if anomalyID != "" {
		if _, err := s.detectorIn(ctx, env, anomalyID); err != nil {
			return types.Correlation{}, err
		}
	}
	return s.generator.Correlation(env, anomalyID), nil
}

// AnalyzeRootCause explains an anomaly of a detector in env. The analysis
// comes from Bedrock when env has credentials and from rules otherwise.
func (s *Service) AnalyzeRootCause(ctx context.Context, env, anomalyID, notes string) (types.Analysis, error) {
	a, err := s.detectorIn(ctx, env, anomalyID)
	if err != nil {
		return types.Analysis{}, err
	}
	series := s.generator.TimeSeries(a.Environment, a.ResourceType, a.ResourceID, a.Metric, defaultSeriesPoints, seriesStep)
	corr := s.generator.Correlation(a.Environment, a.ID)
	return s.analyzer.Analyze(ctx, rca.Context{
		Anomaly:     a,
		Series:      &series,
		Correlation: &corr,
		Notes:       notes,
	})
}

// detectorIn returns the detector anomalyID of env. A detector of another
// environment is reported as not found.
func (s *Service) detectorIn(ctx context.Context, env, anomalyID string) (types.Anomaly, error) {
	if err := s.ensureSeeded(ctx, env); err != nil {
		return types.Anomaly{}, err
	}
	a, err := s.store.Get(ctx, anomalyID)
	if err != nil {
		return types.Anomaly{}, err
	}
	if a.Environment != environment.Normalize(env) {
		return types.Anomaly{}, fmt.Errorf("%w: %s in %s", repository.ErrNotFound, anomalyID, environment.Normalize(env))
	}
	return a, nil
}

// Forecast projects metric for env.
func (s *Service) Forecast(_ context.Context, env, metric string, history, horizon int) types.Forecast {
	history = clampInt(history, 0, maxForecastPoints)
	horizon = clampInt(horizon, 0, maxForecastPoints)
	return s.generator.Forecast(env, metric, history, horizon)
}
