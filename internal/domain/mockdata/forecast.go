package mockdata

import (
	"fmt"
	"math"
	"time"

	"github.com/tgsai/aiops-console/internal/domain/environment"
	"github.com/tgsai/aiops-console/internal/domain/types"
)

// Forecast fits a linear trend to history hourly points of metric and
// projects horizon points ahead with a widening confidence band.
func (g *Generator) Forecast(env, metric string, history, horizon int) types.Forecast {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := environment.Lookup(env)
	if metric == "" {
		metric = "cpu"
	}
	if history <= 1 {
		history = 72
	}
	if horizon <= 0 {
		horizon = 24
	}
	d := defOf(metric)
	resourceID := ResourceIDs(p.ID, ResourceEC2, 1)[0]
	ts := g.timeSeries(p.ID, ResourceEC2, resourceID, metric, history, time.Hour)

	// add a slow drift so the forecast has something to project
	drift := between(g.rng, -0.05, 0.25) * p.Volatility / 10
	hist := make([]types.ForecastPoint, len(ts.Series))
	values := make([]float64, len(ts.Series))
	for i, pt := range ts.Series {
		v := pt.Value + drift*float64(i)
		if d.percent {
			v = clampPct(v)
		}
		values[i] = v
		hist[i] = types.ForecastPoint{Timestamp: pt.Timestamp, Value: round2(v), Lower: pt.Lower, Upper: pt.Upper}
	}

	slope, intercept, resid := fitLine(values)
	last := ts.Series[len(ts.Series)-1].Timestamp
	fc := make([]types.ForecastPoint, horizon)
	for k := range fc {
		x := float64(len(values) + k)
		v := intercept + slope*x
		spread := 1.96 * resid * math.Sqrt(1+float64(k+1)/float64(len(values)))
		lo, hi := v-spread, v+spread
		if d.percent {
			v, lo, hi = clampPct(v), clampPct(lo), clampPct(hi)
		} else {
			v, lo, hi = nonNegative(v), nonNegative(lo), nonNegative(hi)
		}
		fc[k] = types.ForecastPoint{Timestamp: last.Add(time.Duration(k+1) * time.Hour), Value: round2(v), Lower: round2(lo), Upper: round2(hi)}
	}

	return types.Forecast{
		Environment: p.ID,
		Metric:      metric,
		Unit:        d.unit,
		History:     hist,
		Forecast:    fc,
		Predictions: g.predictions(p, metric, last),
	}
}

// predictions projects a trend per resource and flags the ones reaching the
// threshold within a week.
func (g *Generator) predictions(p environment.Profile, metric string, from time.Time) []types.Prediction {
	d := defOf(metric)
	expected, band := baseline(p, metric)
	threshold := 80.0
	if !d.percent {
		threshold = expected + 3*band
	}

	var out []types.Prediction
	for _, id := range ResourceIDs(p.ID, ResourceEC2, p.Resources/2+1) {
		current := expected + g.rng.NormFloat64()*band
		if d.percent {
			current = clampPct(current)
		}
		perHour := between(g.rng, -0.1, 0.6) * p.Volatility / 10
		pred := types.Prediction{ResourceID: id, Metric: metric, Threshold: round2(threshold)}
		if perHour > 0 && current < threshold {
			hours := (threshold - current) / perHour
			if hours <= 7*24 {
				at := from.Add(time.Duration(hours * float64(time.Hour))).Truncate(time.Minute)
				pred.PredictedBreachAt = &at
				pred.Probability = round2(math.Max(0.05, math.Min(0.99, 1-hours/(7*24))))
				pred.Recommendation = fmt.Sprintf("Scale out or raise capacity for %s before %s", id, at.Format(time.RFC822))
			}
		} else if current >= threshold {
			pred.Probability = 1
			pred.Recommendation = fmt.Sprintf("%s already exceeds the %s threshold", id, metric)
		}
		if pred.Probability > 0 {
			out = append(out, pred)
		}
	}
	return out
}

// fitLine returns the least squares slope and intercept over index x and the
// residual standard deviation.
func fitLine(ys []float64) (slope, intercept, resid float64) {
	n := float64(len(ys))
	if n < 2 {
		if n == 1 {
			return 0, ys[0], 0
		}
		return 0, 0, 0
	}
	var sx, sy, sxx, sxy float64
	for i, y := range ys {
		x := float64(i)
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
	}
	den := n*sxx - sx*sx
	if den != 0 {
		slope = (n*sxy - sx*sy) / den
	}
	intercept = (sy - slope*sx) / n
	var ss float64
	for i, y := range ys {
		e := y - (intercept + slope*float64(i))
		ss += e * e
	}
	resid = math.Sqrt(ss / n)
	return slope, intercept, resid
}
