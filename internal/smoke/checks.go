package smoke

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Check is one request with its expected status and top-level JSON keys.
type Check struct {
	Name       string
	Method     string
	Path       string
	Body       any
	WantStatus int
	WantKeys   []string
}

// verify checks status and, for JSON answers, decodability and keys.
func (c Check) verify(status int, body []byte) error {
	if status != c.WantStatus {
		return fmt.Errorf("status %d, want %d", status, c.WantStatus)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("body is not a JSON object: %w", err)
	}
	for _, k := range c.WantKeys {
		if _, ok := doc[k]; !ok {
			return fmt.Errorf("missing key %q", k)
		}
	}
	return nil
}

type envRoute struct {
	path  string
	extra string
	keys  []string
}

var envRoutes = []envRoute{
	{path: "/api/advisor", keys: []string{"recommendations", "summary"}},
	{path: "/api/anomalies", keys: []string{"anomalies"}},
	{path: "/api/anomalies/time-series", extra: "&resourceType=ec2", keys: []string{"series", "metric", "unit"}},
	{path: "/api/anomalies/resources", extra: "&resourceType=rds", keys: []string{"resources"}},
	{path: "/api/anomalies/correlation", keys: []string{"nodes", "links", "events"}},
	{path: "/api/stacks", keys: []string{"stacks", "source"}},
	{path: "/api/cost", keys: []string{"total", "currency", "byService", "daily", "source"}},
	{path: "/api/security", keys: []string{"findings", "summary", "score", "source"}},
	{path: "/api/discover", keys: []string{"resources", "counts", "source"}},
	{path: "/api/predictive", keys: []string{"metric", "history", "forecast", "predictions"}},
	{path: "/api/sagemaker/endpoints", keys: []string{"endpoints", "source"}},
}

// BuildChecks returns the read checks for envs followed by the checks that
// must be rejected with 400.
func BuildChecks(envs []string) []Check {
	checks := []Check{
		{Name: "environments", Method: http.MethodGet, Path: "/api/environments", WantStatus: http.StatusOK, WantKeys: []string{"environments", "default"}},
		{Name: "bedrock catalog", Method: http.MethodGet, Path: "/api/bedrock-models", WantStatus: http.StatusOK, WantKeys: []string{"providers", "loadedAt", "expiresAt", "source"}},
		{Name: "bedrock models", Method: http.MethodGet, Path: "/api/bedrock/models", WantStatus: http.StatusOK, WantKeys: []string{"models"}},
		{Name: "stats", Method: http.MethodGet, Path: "/stats", WantStatus: http.StatusOK, WantKeys: []string{"started"}},
	}

	for _, env := range envs {
		q := "?environment=" + url.QueryEscape(env)
		for _, r := range envRoutes {
			checks = append(checks, Check{
				Name:       r.path + " [" + env + "]",
				Method:     http.MethodGet,
				Path:       r.path + q + r.extra,
				WantStatus: http.StatusOK,
				WantKeys:   r.keys,
			})
		}
	}

	bad := func(name, method, path string, body any) Check {
		return Check{Name: name, Method: method, Path: path, Body: body, WantStatus: http.StatusBadRequest, WantKeys: []string{"error", "code"}}
	}
	for _, r := range envRoutes {
		checks = append(checks, bad(r.path+" without environment", http.MethodGet, r.path+"?x=1"+r.extra, nil))
	}
	empty := map[string]any{}
	checks = append(checks,
		bad("time-series without resourceType", http.MethodGet, "/api/anomalies/time-series?environment=dev", nil),
		bad("resources with unknown type", http.MethodGet, "/api/anomalies/resources?environment=dev&resourceType=mainframe", nil),
		bad("toggle without id", http.MethodPut, "/api/anomalies", map[string]any{"enabled": true}),
		bad("rca without anomalyId", http.MethodPost, "/api/anomalies/rca", map[string]any{"environment": "dev"}),
		bad("generate without prompt", http.MethodPost, "/api/bedrock/generate", map[string]any{"modelId": "anthropic.claude-3-haiku-20240307-v1:0"}),
		bad("generate without modelId", http.MethodPost, "/api/bedrock/generate", map[string]any{"prompt": "hi"}),
		bad("create stack without stackName", http.MethodPost, "/api/stacks", map[string]any{"environment": "dev", "templateBody": "{}"}),
		bad("invoke without endpointName", http.MethodPost, "/api/sagemaker/invoke", map[string]any{"environment": "dev", "payload": empty}),
	)
	return checks
}
