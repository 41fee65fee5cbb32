package aws

import (
	"context"
	"time"

	"github.com/tgsai/aiops-console/pkg/metrics"
)

// Services performs the console's AWS calls for one environment.
type Services struct {
	clients *Clients
	timeout time.Duration
	region  string
}

// NewServices wraps prebuilt clients.
func NewServices(clients *Clients, timeout time.Duration, region string) *Services {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &Services{clients: clients, timeout: timeout, region: region}
}

// Region returns the region the clients target.
func (s *Services) Region() string { return s.region }

// call bounds fn by the configured timeout and records its outcome.
func (s *Services) call(ctx context.Context, service, operation string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.RecordAWSCall(service, operation, outcome, float64(time.Since(start).Milliseconds()))
	if err != nil {
		return upstream(service, operation, err)
	}
	return nil
}
