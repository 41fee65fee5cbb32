// Package scoring turns metric deviations into anomaly scores and severities.
package scoring

import (
	"math"
	"strings"
)

// Default scoring configuration constants.
const (
	defaultMetricWeight = 1.0
	maxScoreValue       = 1.0
	// deviations beyond this many band widths saturate the score
	saturationBands = 3.0
)

// Severity thresholds on the [0,1] score.
const (
	CriticalThreshold = 0.85
	HighThreshold     = 0.7
	MediumThreshold   = 0.4
)

// Severity labels.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithMetricWeights sets per-metric weights. Non-positive weights are ignored.
func WithMetricWeights(weights map[string]float64, defaultWeight float64) Option {
	return func(s *Scorer) {
		s.weights = make(map[string]float64, len(weights))
		for metric, w := range weights {
			if w > 0 {
				s.weights[strings.ToLower(metric)] = w
			}
		}
		if defaultWeight > 0 {
			s.defaultWeight = defaultWeight
		}
	}
}

// Input is one observation compared with its expected value.
type Input struct {
	Metric    string
	Observed  float64
	Expected  float64
	BandWidth float64 // half-width of the normal band around Expected
}

// Scorer computes anomaly scores.
type Scorer struct {
	weights       map[string]float64
	defaultWeight float64
}

// New creates a scorer. Error rate and latency deviations count more than
// utilisation by default.
func New(opts ...Option) *Scorer {
	s := &Scorer{
		weights: map[string]float64{
			"cpu":        1.0,
			"memory":     1.0,
			"network":    0.8,
			"disk":       0.8,
			"latency":    1.2,
			"error_rate": 1.4,
		},
		defaultWeight: defaultMetricWeight,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score returns a value in [0,1]. Observations inside the band score
// proportionally low; three band widths out saturates.
func (s *Scorer) Score(in Input) float64 {
	band := in.BandWidth
	if band <= 0 || math.IsNaN(band) {
		band = 1
	}
	deviation := math.Abs(in.Observed-in.Expected) / band
	if math.IsNaN(deviation) || math.IsInf(deviation, 0) {
		return maxScoreValue
	}

	weight, ok := s.weights[strings.ToLower(in.Metric)]
	if !ok {
		weight = s.defaultWeight
	}

	score := (deviation / saturationBands) * weight
	return Clamp(score)
}

// Clamp bounds v to [0,1].
func Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(maxScoreValue, v))
}

// Severity maps a score to its label.
func Severity(score float64) string {
	switch {
	case score >= CriticalThreshold:
		return SeverityCritical
	case score >= HighThreshold:
		return SeverityHigh
	case score >= MediumThreshold:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// IsAnomalous reports whether the observation leaves the band.
func IsAnomalous(in Input) bool {
	return math.Abs(in.Observed-in.Expected) > in.BandWidth
}
