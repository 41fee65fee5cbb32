package rca

import (
	"fmt"

	"github.com/tgsai/aiops-console/internal/domain/types"
)

type rule struct {
	rootCause   string
	evidence    []string
	suggestions []string
	confidence  float64
}

var rules = map[string]rule{
	"cpu": {
		rootCause: "Sustained compute saturation on %s, most likely from a traffic increase or a runaway process after the latest deployment.",
		evidence: []string{
			"CPU utilisation left its expected band and stayed above it",
			"Request volume rose in the same window",
		},
		suggestions: []string{
			"Inspect the top processes or pods on the resource",
			"Scale out the autoscaling group or raise the instance size",
			"Roll back the most recent deployment if the spike followed it",
		},
		confidence: 0.72,
	},
	"memory": {
		rootCause: "Memory growth on %s consistent with a leak or an undersized cache.",
		evidence: []string{
			"Memory usage climbs steadily without returning to baseline",
			"Garbage collection pauses lengthened",
		},
		suggestions: []string{
			"Capture a heap profile and compare it with a healthy instance",
			"Set memory limits and restart policies",
		},
		confidence: 0.68,
	},
	"latency": {
		rootCause: "Latency regression on %s driven by a slow downstream dependency.",
		evidence: []string{
			"p95 latency exceeded its learned envelope",
			"Traces show time spent in outbound calls",
		},
		suggestions: []string{
			"Review traces for the slowest spans",
			"Add timeouts and circuit breakers on the dependency",
			"Check connection pool sizing",
		},
		confidence: 0.65,
	},
	"error_rate": {
		rootCause: "Elevated error rate on %s following a configuration or code change.",
		evidence: []string{
			"5xx responses spiked above baseline",
			"Error logs increased in the same window",
		},
		suggestions: []string{
			"Correlate the spike with recent deployments and config changes",
			"Roll back the change and monitor the error budget",
		},
		confidence: 0.7,
	},
	"disk": {
		rootCause: "Disk usage on %s is growing faster than retention removes data.",
		evidence: []string{"Free space trends towards exhaustion", "Log volume increased"},
		suggestions: []string{"Rotate or ship logs off host", "Expand the volume or enable autoscaling storage"},
		confidence: 0.66,
	},
	"network": {
		rootCause: "Unusual network throughput on %s, possibly a batch job or retry storm.",
		evidence: []string{"Bytes transferred exceeded the baseline band", "Retries increased across callers"},
		suggestions: []string{"Identify the top talkers with VPC flow logs", "Add jitter and backoff to client retries"},
		confidence: 0.6,
	},
	"connections": {
		rootCause: "Connection exhaustion on %s caused by clients not reusing connections.",
		evidence: []string{"Open connections approach the configured maximum"},
		suggestions: []string{"Introduce a connection pooler", "Lower idle timeouts on clients"},
		confidence: 0.64,
	},
}

var genericRule = rule{
	rootCause:   "Behaviour of %s deviated from its baseline; no single dominant cause could be identified.",
	evidence:    []string{"The metric left its expected band"},
	suggestions: []string{"Review recent changes to the resource", "Compare with the same period last week"},
	confidence:  0.5,
}

// Fallback returns a rules-based analysis keyed by the anomaly's metric.
func Fallback(a types.Anomaly) types.Analysis {
	r, ok := rules[a.Metric]
	if !ok {
		r = genericRule
	}
	evidence := append([]string{
		fmt.Sprintf("%s anomaly score %.2f (%s)", a.Metric, a.Score, a.Severity),
	}, r.evidence...)
	return types.Analysis{
		RootCause:   fmt.Sprintf(r.rootCause, a.ResourceID),
		Evidence:    evidence,
		Suggestions: append([]string(nil), r.suggestions...),
		Confidence:  r.confidence,
		Source:      types.SourceSimulated,
	}
}
