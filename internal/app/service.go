// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	awsadapter "github.com/tgsai/aiops-console/internal/adapters/aws"
	repository "github.com/tgsai/aiops-console/internal/adapters/repository"
	"github.com/tgsai/aiops-console/internal/domain/catalog"
	"github.com/tgsai/aiops-console/internal/domain/dedupe"
	"github.com/tgsai/aiops-console/internal/domain/environment"
	"github.com/tgsai/aiops-console/internal/domain/mockdata"
	"github.com/tgsai/aiops-console/internal/domain/rca"
	"github.com/tgsai/aiops-console/internal/domain/types"
	"github.com/tgsai/aiops-console/pkg/logger"
	"github.com/tgsai/aiops-console/pkg/metrics"
)

// Service implements the API dependencies of the console.
type Service struct {
	mu sync.RWMutex

	// Core components
	registry  *environment.Registry
	factory   *awsadapter.Factory
	models    *catalog.Cache
	store     repository.Store
	generator *mockdata.Generator
	analyzer  *rca.Analyzer
	deduper   dedupe.Deduper

	// Configuration
	environments      []string
	defaultEnv        string
	lookup            environment.LookupFunc
	defaultRegion     string
	modelCacheTTL     time.Duration
	modelCacheRetry   time.Duration
	awsTimeout        time.Duration
	awsOptions        []awsadapter.Option
	storeDriver       string
	storePath         string
	rcaModelID        string
	maxGenerateTokens int
	mockSeed          int64
	tokenCacheSize    int
	now               func() time.Time

	// State
	started bool
	seedMu  sync.Mutex
	seeded  map[string]struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithEnvironments sets the environment keywords offered to the console and
// the default selection.
func WithEnvironments(ids []string, def string) Option {
	return func(s *Service) {
		if len(ids) > 0 {
			s.environments = ids
		}
		if def != "" {
			s.defaultEnv = def
		}
	}
}

// WithCredentialLookup replaces os.LookupEnv for AWS credential variables.
func WithCredentialLookup(lookup environment.LookupFunc) Option {
	return func(s *Service) {
		if lookup != nil {
			s.lookup = lookup
		}
	}
}

// WithDefaultRegion sets the region used when none is configured.
func WithDefaultRegion(region string) Option {
	return func(s *Service) {
		if region != "" {
			s.defaultRegion = region
		}
	}
}

// WithModelCacheTTL sets how long the model catalog is reused.
func WithModelCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.modelCacheTTL = ttl
		}
	}
}

// WithModelCacheRetry sets how long a stale catalog is served after a
// failed reload.
func WithModelCacheRetry(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.modelCacheRetry = d
		}
	}
}

// WithAWSCallTimeout bounds every AWS call.
func WithAWSCallTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.awsTimeout = d
		}
	}
}

// WithAWSOptions passes options to the AWS client factory.
func WithAWSOptions(opts ...awsadapter.Option) Option {
	return func(s *Service) {
		s.awsOptions = append(s.awsOptions, opts...)
	}
}

// WithStore selects the detector store driver and its path.
func WithStore(driver, path string) Option {
	return func(s *Service) {
		if driver != "" {
			s.storeDriver = driver
		}
		s.storePath = path
	}
}

// WithRCAModel sets the model used for root cause analysis.
func WithRCAModel(modelID string) Option {
	return func(s *Service) {
		if modelID != "" {
			s.rcaModelID = modelID
		}
	}
}

// WithMaxGenerateTokens caps the tokens a generation may request.
func WithMaxGenerateTokens(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxGenerateTokens = n
		}
	}
}

// WithMockSeed seeds the data generators. Zero picks a time-based seed.
func WithMockSeed(seed int64) Option {
	return func(s *Service) {
		s.mockSeed = seed
	}
}

// WithStackTokenCacheSize bounds the remembered stack submission tokens.
func WithStackTokenCacheSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.tokenCacheSize = size
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		environments:      []string{environment.Dev, environment.UAT, environment.Prod},
		defaultEnv:        environment.Dev,
		defaultRegion:     "us-east-1",
		modelCacheTTL:     time.Hour,
		modelCacheRetry:   time.Minute,
		awsTimeout:        10 * time.Second,
		storeDriver:       repository.DriverMemory,
		rcaModelID:        "anthropic.claude-3-haiku-20240307-v1:0",
		maxGenerateTokens: 4096,
		tokenCacheSize:    10_000,
		now:               time.Now,
		logger:            nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start builds the service components, seeds the detector store for every
// configured environment and warms the model catalog.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting console service...")

	s.registry = environment.NewRegistry(s.environments, s.defaultEnv, s.lookup, s.defaultRegion)
	s.factory = awsadapter.NewFactory(s.registry.Credentials,
		append([]awsadapter.Option{awsadapter.WithTimeout(s.awsTimeout)}, s.awsOptions...)...)
	s.generator = mockdata.New(mockdata.WithSeed(s.mockSeed), mockdata.WithClock(s.now))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.tokenCacheSize), dedupe.WithClock(s.now))

	defaultEnv := s.registry.Default()
	s.models = catalog.NewCache(catalog.BedrockLoader{
		Lister: func() (catalog.ModelLister, error) {
			svc, err := s.factory.Services(context.Background(), defaultEnv)
			if errors.Is(err, awsadapter.ErrCredentialsMissing) {
				return nil, nil
			}
			if err != nil {
				return nil, err
			}
			return svc, nil
		},
		Fallback: catalog.EmbeddedLoader{Now: s.now},
		Now:      s.now,
	}, catalog.WithTTL(s.modelCacheTTL), catalog.WithRetryAfter(s.modelCacheRetry), catalog.WithClock(s.now))

	analyzer, err := rca.New(s, rca.WithModel(s.rcaModelID), rca.WithLogger(s.logger.Named("rca")))
	if err != nil {
		return fmt.Errorf("service: %w", err)
	}
	s.analyzer = analyzer

	store, err := repository.Open(ctx, s.storeDriver, s.storePath)
	if err != nil {
		return fmt.Errorf("service: open %s store: %w", s.storeDriver, err)
	}
	s.store = store
	s.logger.Info(ctx, "using detector store", logger.String("driver", s.storeDriver))

	s.seeded = make(map[string]struct{})
	for _, env := range s.registry.IDs() {
		if err := s.ensureSeeded(ctx, env); err != nil {
			_ = s.store.Close()
			return fmt.Errorf("service: %w", err)
		}
	}

	if c, err := s.models.Get(ctx); err != nil {
		s.logger.Warn(ctx, "model catalog warm-up failed", logger.Error(err))
	} else {
		s.logger.Info(ctx, "model catalog loaded",
			logger.String("source", c.Source),
			logger.Int("models", len(c.Models)),
		)
	}

	s.started = true
	s.logger.Info(ctx, "console service started",
		logger.Any("environments", s.registry.IDs()),
		logger.String("store", s.storeDriver),
		logger.Duration("modelCacheTTL", s.modelCacheTTL),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping console service...")

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(context.Background(), "closing detector store", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(context.Background(), "console service stopped")
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"storeDriver": s.storeDriver,
		"goroutines":  runtime.NumGoroutine(),
	}

	if s.started {
		detectors := map[string]int{}
		for _, env := range s.registry.IDs() {
			n, err := s.store.Count(ctx, env)
			if err != nil {
				continue
			}
			detectors[env] = n
		}
		stats["detectors"] = detectors
		stats["environments"] = s.registry.IDs()
		stats["pendingStackTokens"] = s.deduper.Size()

		if c, err := s.models.Get(ctx); err == nil {
			stats["modelCatalog"] = map[string]interface{}{
				"source":    c.Source,
				"models":    len(c.Models),
				"loadedAt":  c.LoadedAt,
				"expiresAt": c.ExpiresAt,
			}
		}

		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)
		metrics.UpdateSystemMemoryUsage(mem.Alloc)
		metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	}

	return stats
}

// Environments describes the configured environments and the default one.
func (s *Service) Environments() ([]environment.Info, string) {
	return s.registry.List(), s.registry.Default()
}

// maxExtraEnvironments bounds how many keywords outside the configured
// environments get detectors.
const maxExtraEnvironments = 32

// ensureSeeded stores the detectors of env the first time it is seen.
// Keywords outside the configured environments use the fallback profile,
// up to maxExtraEnvironments of them.
func (s *Service) ensureSeeded(ctx context.Context, env string) error {
	key := environment.Normalize(env)
	if key == "" {
		return nil
	}
	s.seedMu.Lock()
	defer s.seedMu.Unlock()
	if _, ok := s.seeded[key]; ok {
		return nil
	}
	if !s.registry.Has(key) && len(s.seeded) >= len(s.registry.IDs())+maxExtraEnvironments {
		s.logger.Warn(ctx, "too many environments, not seeding detectors", logger.String("environment", key))
		return nil
	}
	n, err := s.store.Seed(ctx, s.generator.Anomalies(key))
	if err != nil {
		return fmt.Errorf("seed detectors for %s: %w", key, err)
	}
	s.seeded[key] = struct{}{}
	s.logger.Debug(ctx, "seeded detectors", logger.String("environment", key), logger.Int("inserted", n))
	return nil
}

// services returns the AWS services of env or ErrCredentialsMissing.
func (s *Service) services(ctx context.Context, env string) (*awsadapter.Services, error) {
	return s.factory.Services(ctx, env)
}

// fallback records a mock fallback for route and describes it. Missing
// credentials are expected and carry no error text.
func (s *Service) fallback(ctx context.Context, route string, err error) types.Provenance {
	p := types.Provenance{Source: types.SourceMock}
	reason := "credentials_missing"
	if !errors.Is(err, awsadapter.ErrCredentialsMissing) {
		reason = "upstream_error"
		p.Error = err.Error()
		s.logger.Warn(ctx, "aws call failed, serving mock data",
			logger.String("route", route),
			logger.Error(err),
		)
	}
	metrics.RecordMockFallback(route, reason)
	return p
}
