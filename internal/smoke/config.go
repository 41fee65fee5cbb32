// Package smoke drives a running console over HTTP and checks that every
// read route answers with decodable JSON of the expected shape.
package smoke

import (
	"errors"
	"time"
)

// Defaults used when Config fields are zero.
const (
	DefaultBaseURL = "http://localhost:3000"
	DefaultTimeout = 30 * time.Second
	DefaultWorkers = 4
)

var (
	// ErrChecksFailed is returned by Run when at least one check failed.
	ErrChecksFailed = errors.New("smoke checks failed")
	// ErrUnhealthy is returned when /healthz does not answer 200.
	ErrUnhealthy = errors.New("service is not healthy")
)

// Config controls a smoke run.
type Config struct {
	BaseURL      string
	Environments []string
	Timeout      time.Duration
	Workers      int
	SkipToggle   bool
	Verbose      bool
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if len(c.Environments) == 0 {
		c.Environments = []string{"dev", "uat", "prod"}
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	return c
}
