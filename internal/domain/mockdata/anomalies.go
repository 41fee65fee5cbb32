package mockdata

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/tgsai/aiops-console/internal/domain/environment"
	"github.com/tgsai/aiops-console/internal/domain/scoring"
	"github.com/tgsai/aiops-console/internal/domain/types"
)

// Signal sources an anomaly can be detected in.
const (
	SourceLogs    = "logs"
	SourceMetrics = "metrics"
	SourceTraces  = "traces"
)

var descriptions = map[string]string{
	"cpu":         "CPU utilisation of %s deviates from its hourly baseline",
	"memory":      "Memory pressure on %s is climbing faster than usual",
	"disk":        "Disk usage on %s is growing outside the expected band",
	"network":     "Network throughput on %s shows an unusual burst",
	"latency":     "Response latency of %s exceeds its learned envelope",
	"error_rate":  "Error rate on %s spiked above baseline",
	"connections": "Connection count on %s is abnormally high",
	"invocations": "Invocation volume of %s dropped unexpectedly",
	"log_volume":  "Log volume from %s changed sharply",
}

// Anomalies returns the detector records for env. The set and its ids are
// stable per environment and seed.
func (g *Generator) Anomalies(env string) []types.Anomaly {
	p := environment.Lookup(env)
	r := g.envRand(p.ID, "anomalies")
	detected := g.now().UTC().Truncate(time.Minute)

	perType := p.Resources/3 + 1
	out := make([]types.Anomaly, 0, perType*len(ResourceTypes()))
	for _, rt := range ResourceTypes() {
		metrics := MetricsFor(rt)
		for i, resourceID := range ResourceIDs(p.ID, rt, perType) {
			metric := metrics[i%len(metrics)]
			source := SourceMetrics
			switch {
			case metric == "latency" && i%2 == 0:
				source = SourceTraces
			case metric == "error_rate":
				source = SourceLogs
			}

			expected, band := baseline(p, metric)
			observed := expected + band*between(r, 0.5, 4)*sign(r)
			score := g.scorer.Score(scoring.Input{Metric: metric, Observed: observed, Expected: expected, BandWidth: band})

			out = append(out, types.Anomaly{
				ID:           fmt.Sprintf("%s-%s-%s-%02d", p.ID, rt, strings.ReplaceAll(metric, "_", "-"), i+1),
				Environment:  p.ID,
				ResourceType: rt,
				ResourceID:   resourceID,
				Metric:       metric,
				Source:       source,
				Score:        round2(score),
				Severity:     scoring.Severity(score),
				Description:  fmt.Sprintf(descriptions[metric], resourceID),
				Enabled:      r.Float64() >= 0.15,
				DetectedAt:   detected.Add(-time.Duration(r.Intn(72*60)) * time.Minute),
			})
		}
	}
	return out
}

func sign(r *rand.Rand) float64 {
	if r.Intn(2) == 0 {
		return -1
	}
	return 1
}

// baseline returns the expected level and band half-width of metric.
func baseline(p environment.Profile, metric string) (float64, float64) {
	d := defOf(metric)
	expected := p.BaseLoad * d.scale
	band := math.Max(p.Volatility*d.scale*0.6, 0.01)
	if d.percent {
		expected = clampPct(expected)
	}
	return expected, band
}

// TimeSeries returns points ending now, spaced by step.
func (g *Generator) TimeSeries(env, resourceType, resourceID, metric string, points int, step time.Duration) types.TimeSeries {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.timeSeries(env, resourceType, resourceID, metric, points, step)
}

func (g *Generator) timeSeries(env, resourceType, resourceID, metric string, points int, step time.Duration) types.TimeSeries {
	p := environment.Lookup(env)
	if points <= 0 {
		points = 48
	}
	if step <= 0 {
		step = time.Hour
	}
	if metric == "" {
		metric = MetricsFor(resourceType)[0]
	}
	if resourceID == "" {
		resourceID = ResourceIDs(p.ID, resourceType, 1)[0]
	}
	d := defOf(metric)
	expected, band := baseline(p, metric)
	end := g.now().UTC().Truncate(step)

	series := make([]types.SeriesPoint, points)
	for i := range series {
		ts := end.Add(-time.Duration(points-1-i) * step)
		// daily cycle peaking mid-afternoon
		hour := float64(ts.Hour()) + float64(ts.Minute())/60
		exp := expected * (1 + 0.2*math.Sin(2*math.Pi*(hour-9)/24))
		value := exp + g.rng.NormFloat64()*band*0.4
		if g.rng.Float64() < p.AnomalyRate {
			value = exp + band*between(g.rng, 1.5, 3.5)*sign(g.rng)
		}
		upper, lower := exp+band, exp-band
		if d.percent {
			value, exp, upper, lower = clampPct(value), clampPct(exp), clampPct(upper), clampPct(lower)
		} else {
			value, exp, upper, lower = nonNegative(value), nonNegative(exp), nonNegative(upper), nonNegative(lower)
		}
		in := scoring.Input{Metric: metric, Observed: value, Expected: exp, BandWidth: band}
		series[i] = types.SeriesPoint{
			Timestamp: ts,
			Value:     round2(value),
			Expected:  round2(exp),
			Upper:     round2(upper),
			Lower:     round2(lower),
			Score:     round2(g.scorer.Score(in)),
			Anomaly:   scoring.IsAnomalous(in),
		}
	}
	return types.TimeSeries{
		Environment:  p.ID,
		ResourceType: strings.ToLower(resourceType),
		ResourceID:   resourceID,
		Metric:       metric,
		Unit:         d.unit,
		Series:       series,
	}
}

// Resource health status labels.
const (
	StatusHealthy  = "healthy"
	StatusWarning  = "warning"
	StatusCritical = "critical"
)

// ResourceHeatmap returns utilisation for count resources of resourceType.
func (g *Generator) ResourceHeatmap(env, resourceType string, count int) []types.ResourceHealth {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := environment.Lookup(env)
	ids := ResourceIDs(p.ID, resourceType, count)
	out := make([]types.ResourceHealth, len(ids))
	for i, id := range ids {
		cpu := clampPct(p.BaseLoad + g.rng.NormFloat64()*p.Volatility)
		mem := clampPct(p.BaseLoad*1.1 + g.rng.NormFloat64()*p.Volatility)
		net := clampPct(p.BaseLoad*0.7 + g.rng.NormFloat64()*p.Volatility)
		disk := clampPct(p.BaseLoad*0.8 + g.rng.NormFloat64()*p.Volatility*0.5)
		if g.rng.Float64() < p.AnomalyRate*2 {
			cpu = clampPct(cpu + between(g.rng, 25, 45))
		}

		worst := 0.0
		for metric, v := range map[string]float64{"cpu": cpu, "memory": mem, "network": net, "disk": disk} {
			exp, band := baseline(p, metric)
			s := g.scorer.Score(scoring.Input{Metric: metric, Observed: v, Expected: exp, BandWidth: band})
			worst = math.Max(worst, s)
		}
		worst = round2(worst)

		out[i] = types.ResourceHealth{
			ResourceID:   id,
			Name:         fmt.Sprintf("%s %s %d", p.Name, strings.ToUpper(resourceType), i+1),
			ResourceType: strings.ToLower(resourceType),
			CPU:          round2(cpu),
			Memory:       round2(mem),
			Network:      round2(net),
			Disk:         round2(disk),
			AnomalyScore: worst,
			Status:       healthStatus(worst),
		}
	}
	return out
}

func healthStatus(score float64) string {
	switch {
	case score >= scoring.HighThreshold:
		return StatusCritical
	case score >= scoring.MediumThreshold:
		return StatusWarning
	default:
		return StatusHealthy
	}
}

var relatedSignals = []struct {
	label, kind string
}{
	{"Deployment rollout", "change"},
	{"Upstream dependency latency", "traces"},
	{"Connection pool saturation", "metrics"},
	{"OOMKilled containers", "logs"},
	{"Throttled API calls", "metrics"},
	{"Retry storm", "traces"},
	{"Config map update", "change"},
	{"GC pause increase", "metrics"},
}

var eventMessages = []string{
	"Deployment %s started",
	"Autoscaling group adjusted desired capacity",
	"Health check failures reported by load balancer",
	"Error budget burn rate exceeded",
	"Increased 5xx responses from %s",
	"Alarm transitioned to ALARM state",
	"Connection timeouts to downstream service",
}

// Correlation returns the signal graph around anomalyID. An empty id
// produces a graph rooted at a synthetic incident.
func (g *Generator) Correlation(env, anomalyID string) types.Correlation {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := environment.Lookup(env)
	root := anomalyID
	if root == "" {
		root = p.ID + "-incident"
	}
	nodes := []types.CorrelationNode{{ID: root, Label: "Detected anomaly", Type: "anomaly", Score: round2(between(g.rng, 0.6, 1))}}
	var links []types.CorrelationLink

	n := 3 + g.rng.Intn(4)
	perm := g.rng.Perm(len(relatedSignals))
	for i := 0; i < n; i++ {
		sig := relatedSignals[perm[i]]
		id := fmt.Sprintf("%s-signal-%d", root, i+1)
		nodes = append(nodes, types.CorrelationNode{ID: id, Label: sig.label, Type: sig.kind, Score: round2(between(g.rng, 0.2, 0.95))})
		links = append(links, types.CorrelationLink{Source: root, Target: id, Strength: round2(between(g.rng, 0.3, 1))})
		if i > 0 && g.rng.Float64() < 0.4 {
			prev := fmt.Sprintf("%s-signal-%d", root, i)
			links = append(links, types.CorrelationLink{Source: prev, Target: id, Strength: round2(between(g.rng, 0.1, 0.7))})
		}
	}

	now := g.now().UTC().Truncate(time.Minute)
	resource := ResourceIDs(p.ID, ResourceEKS, 1)[0]
	events := make([]types.CorrelatedEvent, 5+g.rng.Intn(4))
	offset := 0
	for i := range events {
		offset += 2 + g.rng.Intn(10)
		msg := pick(g.rng, eventMessages)
		if strings.Contains(msg, "%s") {
			msg = fmt.Sprintf(msg, resource)
		}
		events[len(events)-1-i] = types.CorrelatedEvent{
			Timestamp: now.Add(-time.Duration(offset) * time.Minute),
			Source:    pick(g.rng, []string{SourceLogs, SourceMetrics, SourceTraces}),
			Message:   msg,
			Severity:  scoring.Severity(g.rng.Float64()),
		}
	}

	return types.Correlation{AnomalyID: root, Nodes: nodes, Links: links, Events: events}
}
