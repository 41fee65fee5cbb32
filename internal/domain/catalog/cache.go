package catalog

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tgsai/aiops-console/pkg/metrics"
)

const (
	defaultTTL        = time.Hour
	defaultRetryAfter = time.Minute
	flightKey         = "catalog"
)

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithTTL sets how long a loaded catalog is served. Non-positive values are
// ignored.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithRetryAfter sets how long a stale catalog is served after a failed
// reload before the next attempt.
func WithRetryAfter(d time.Duration) CacheOption {
	return func(c *Cache) {
		if d > 0 {
			c.retryAfter = d
		}
	}
}

// Cache serves a catalog for a TTL. Within the TTL every Get returns the same
// pointer. Concurrent misses share a single load.
type Cache struct {
	loader     Loader
	ttl        time.Duration
	retryAfter time.Duration
	now        func() time.Time

	mu      sync.RWMutex
	current *Catalog
	expires time.Time

	group singleflight.Group
}

// NewCache creates a cache over loader.
func NewCache(loader Loader, opts ...CacheOption) *Cache {
	c := &Cache{
		loader:     loader,
		ttl:        defaultTTL,
		retryAfter: defaultRetryAfter,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the configured time to live.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get returns the cached catalog, loading it when absent or expired. When a
// reload fails a copy of the previous catalog is served until the retry
// deadline, with ExpiresAt set to that deadline and Error to the failure;
// with nothing cached the load error is returned.
func (c *Cache) Get(ctx context.Context) (*Catalog, error) {
	if cat, ok := c.fresh(); ok {
		metrics.RecordCatalogHit()
		return cat, nil
	}
	metrics.RecordCatalogMiss()

	v, err, _ := c.group.Do(flightKey, func() (any, error) {
		// another caller may have refreshed while we waited
		if cat, ok := c.fresh(); ok {
			return cat, nil
		}
		return c.reload(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	return v.(*Catalog), nil
}

// Invalidate drops the cached catalog; the next Get reloads.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
	c.expires = time.Time{}
}

func (c *Cache) fresh() (*Catalog, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil || !c.now().Before(c.expires) {
		return nil, false
	}
	return c.current, true
}

func (c *Cache) reload(ctx context.Context) (*Catalog, error) {
	if c.loader == nil {
		return nil, ErrNoLoader
	}
	cat, err := c.loader.Load(ctx)
	if err == nil && (cat == nil || len(cat.Models) == 0) {
		err = ErrEmptyCatalog
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if err != nil {
		metrics.RecordCatalogRefresh("error", 0)
		if c.current == nil {
			return nil, err
		}
		// the stale copy reports when the next reload is attempted
		stale := *c.current
		stale.ExpiresAt = now.Add(c.retryAfter)
		stale.Error = err.Error()
		c.current = &stale
		c.expires = stale.ExpiresAt
		return c.current, nil
	}

	cat.ExpiresAt = now.Add(c.ttl)
	c.current = cat
	c.expires = cat.ExpiresAt
	metrics.RecordCatalogRefresh("ok", len(cat.Models))
	return cat, nil
}
