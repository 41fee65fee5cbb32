package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/tgsai/aiops-console/internal/domain/types"
)

// MemoryStore keeps detectors in a map. State is lost on restart.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]types.Anomaly
	closed bool

	updater metricsUpdater
}

// NewMemoryStore constructs an in-memory store and starts its metrics
// updater, which runs until Close or ctx is done.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	s := &MemoryStore{byID: make(map[string]types.Anomaly)}
	s.updater.start(ctx, o.metricsUpdateInterval, s.counts)
	return s
}

func (s *MemoryStore) counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[string]int{}
	for _, a := range s.byID {
		out[a.Environment]++
	}
	return out
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context, f Filter) ([]types.Anomaly, error) {
	f = f.normalize()
	if f.Environment == "" {
		return nil, ErrNoEnvironment
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	out := []types.Anomaly{}
	for _, a := range s.byID {
		if f.matches(a) {
			out = append(out, a)
		}
	}
	sortAnomalies(out)
	return out, nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (types.Anomaly, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return types.Anomaly{}, ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return types.Anomaly{}, ErrStoreClosed
	}
	a, ok := s.byID[id]
	if !ok {
		return types.Anomaly{}, ErrNotFound
	}
	return a, nil
}

// SetEnabled implements Store.
func (s *MemoryStore) SetEnabled(_ context.Context, id string, enabled bool) (types.Anomaly, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return types.Anomaly{}, ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.Anomaly{}, ErrStoreClosed
	}
	a, ok := s.byID[id]
	if !ok {
		return types.Anomaly{}, ErrNotFound
	}
	a.Enabled = enabled
	s.byID[id] = a
	return a, nil
}

// Seed implements Store.
func (s *MemoryStore) Seed(_ context.Context, detectors []types.Anomaly) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrStoreClosed
	}
	inserted := 0
	for _, a := range detectors {
		if a.ID == "" {
			return inserted, ErrInvalidID
		}
		if _, exists := s.byID[a.ID]; exists {
			continue
		}
		a.Environment = strings.ToLower(a.Environment)
		a.ResourceType = strings.ToLower(a.ResourceType)
		s.byID[a.ID] = a
		inserted++
	}
	return inserted, nil
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context, env string) (int, error) {
	env = strings.ToLower(strings.TrimSpace(env))
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, a := range s.byID {
		if a.Environment == env {
			n++
		}
	}
	return n, nil
}

// Close stops the metrics updater.
func (s *MemoryStore) Close() error {
	s.updater.stop()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
