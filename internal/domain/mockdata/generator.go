// Package mockdata synthesizes the datasets served when AWS is not reachable.
// Output is shaped by the environment profile and bounded: percentages in
// [0,100], scores and probabilities in [0,1], amounts non-negative.
package mockdata

import (
	"hash/fnv"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/tgsai/aiops-console/internal/domain/scoring"
)

const defaultSeed = 42

// Option configures a Generator.
type Option func(*Generator)

// WithSeed seeds the generator. Zero picks a time-based seed.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		g.seed = seed
		g.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // mock data only
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// Generator produces mock datasets. It is safe for concurrent use.
type Generator struct {
	mu     sync.Mutex
	rng    *rand.Rand
	seed   int64
	now    func() time.Time
	scorer *scoring.Scorer
}

// New creates a generator with a fixed default seed.
func New(opts ...Option) *Generator {
	g := &Generator{
		rng:    rand.New(rand.NewSource(defaultSeed)), //nolint:gosec // mock data only
		seed:   defaultSeed,
		now:    time.Now,
		scorer: scoring.New(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// envRand returns a generator private to (env, salt) so that datasets keyed
// by environment stay stable no matter what was generated before.
func (g *Generator) envRand(env, salt string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(env))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(salt))
	return rand.New(rand.NewSource(g.seed ^ int64(h.Sum64()))) //nolint:gosec // mock data only
}

func between(r *rand.Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

func pick[T any](r *rand.Rand, items []T) T {
	return items[r.Intn(len(items))]
}

func clampPct(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
