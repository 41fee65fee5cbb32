package mockdata

import (
	"fmt"
	"strings"

	"github.com/tgsai/aiops-console/internal/domain/environment"
)

// Resource types with generated telemetry.
const (
	ResourceEC2    = "ec2"
	ResourceRDS    = "rds"
	ResourceEKS    = "eks"
	ResourceLambda = "lambda"
	ResourceELB    = "elb"
)

// ResourceTypes lists the resource types known to the generators.
func ResourceTypes() []string {
	return []string{ResourceEC2, ResourceRDS, ResourceEKS, ResourceLambda, ResourceELB}
}

type metricDef struct {
	unit    string
	percent bool
	scale   float64
}

var metricDefs = map[string]metricDef{
	"cpu":         {unit: "percent", percent: true, scale: 1},
	"memory":      {unit: "percent", percent: true, scale: 1.1},
	"disk":        {unit: "percent", percent: true, scale: 0.8},
	"network":     {unit: "MB/s", scale: 2},
	"latency":     {unit: "ms", scale: 4},
	"error_rate":  {unit: "percent", percent: true, scale: 0.05},
	"connections": {unit: "count", scale: 3},
	"invocations": {unit: "count", scale: 20},
	"log_volume":  {unit: "lines/min", scale: 40},
}

var typeMetrics = map[string][]string{
	ResourceEC2:    {"cpu", "memory", "disk", "network"},
	ResourceRDS:    {"cpu", "memory", "connections", "latency"},
	ResourceEKS:    {"cpu", "memory", "network", "error_rate"},
	ResourceLambda: {"invocations", "latency", "error_rate"},
	ResourceELB:    {"latency", "error_rate", "network"},
}

// KnownResourceType reports whether rt has generated telemetry.
func KnownResourceType(rt string) bool {
	_, ok := typeMetrics[strings.ToLower(rt)]
	return ok
}

// MetricsFor returns the metrics tracked for a resource type. Unknown types
// fall back to the EC2 set.
func MetricsFor(resourceType string) []string {
	if m, ok := typeMetrics[strings.ToLower(resourceType)]; ok {
		return m
	}
	return typeMetrics[ResourceEC2]
}

// UnitOf returns the unit of metric.
func UnitOf(metric string) string {
	if d, ok := metricDefs[metric]; ok {
		return d.unit
	}
	return "value"
}

func defOf(metric string) metricDef {
	if d, ok := metricDefs[metric]; ok {
		return d
	}
	return metricDef{unit: "value", scale: 1}
}

// ResourceIDs returns the stable resource identifiers for an environment.
func ResourceIDs(env, resourceType string, count int) []string {
	p := environment.Lookup(env)
	if count <= 0 {
		count = p.Resources
	}
	rt := strings.ToLower(resourceType)
	ids := make([]string, count)
	for i := range ids {
		switch rt {
		case ResourceEC2:
			ids[i] = fmt.Sprintf("i-%s%08x", p.ID, 0xa1b2c000+i)
		case ResourceRDS:
			ids[i] = fmt.Sprintf("%s-db-%02d", p.ID, i+1)
		case ResourceEKS:
			ids[i] = fmt.Sprintf("%s-cluster-%02d", p.ID, i+1)
		case ResourceLambda:
			ids[i] = fmt.Sprintf("%s-fn-%02d", p.ID, i+1)
		default:
			ids[i] = fmt.Sprintf("%s-%s-%02d", p.ID, rt, i+1)
		}
	}
	return ids
}
