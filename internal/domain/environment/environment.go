// Package environment resolves console environment keywords to data profiles
// and AWS credentials.
package environment

import (
	"os"
	"strings"
)

// Well-known environment keywords.
const (
	Dev  = "dev"
	UAT  = "uat"
	Prod = "prod"
)

// Profile shapes the generated data for an environment. Values are fractions
// of full scale unless noted.
type Profile struct {
	ID          string
	Name        string
	Known       bool
	BaseLoad    float64 // typical utilisation, percent
	Volatility  float64 // jitter amplitude, percent
	AnomalyRate float64 // probability a point is anomalous
	CostScale   float64 // multiplier on daily spend
	Resources   int     // typical resources per type
}

var profiles = map[string]Profile{
	Dev:  {ID: Dev, Name: "Development", Known: true, BaseLoad: 25, Volatility: 10, AnomalyRate: 0.04, CostScale: 0.3, Resources: 6},
	UAT:  {ID: UAT, Name: "User Acceptance", Known: true, BaseLoad: 45, Volatility: 12, AnomalyRate: 0.06, CostScale: 0.6, Resources: 9},
	Prod: {ID: Prod, Name: "Production", Known: true, BaseLoad: 62, Volatility: 15, AnomalyRate: 0.08, CostScale: 1.0, Resources: 14},
}

// Lookup returns the profile for id. Unknown keywords get a fallback profile
// carrying the requested id.
func Lookup(id string) Profile {
	key := Normalize(id)
	if p, ok := profiles[key]; ok {
		return p
	}
	return Profile{
		ID:          key,
		Name:        strings.ToUpper(key),
		Known:       false,
		BaseLoad:    35,
		Volatility:  12,
		AnomalyRate: 0.05,
		CostScale:   0.5,
		Resources:   8,
	}
}

// Normalize lowercases and trims an environment keyword.
func Normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Credentials are the AWS credentials configured for an environment.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Region          string
}

// Configured reports whether both key parts are present.
func (c Credentials) Configured() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ResolveCredentials reads AWS_*_{ENV} variables, falling back to the global
// AWS_* variables per field. The region falls back to defaultRegion.
func ResolveCredentials(env string, lookup LookupFunc, defaultRegion string) Credentials {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	suffix := strings.ToUpper(Normalize(env))
	get := func(name string) string {
		if suffix != "" {
			if v, ok := lookup(name + "_" + suffix); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}
		if v, ok := lookup(name); ok {
			return strings.TrimSpace(v)
		}
		return ""
	}

	c := Credentials{
		AccessKeyID:     get("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: get("AWS_SECRET_ACCESS_KEY"),
		SessionToken:    get("AWS_SESSION_TOKEN"),
		Region:          get("AWS_REGION"),
	}
	if c.Region == "" {
		c.Region = defaultRegion
	}
	return c
}
