// Package repository persists anomaly detector state.
package repository

import (
	"context"
	"sort"
	"strings"

	"github.com/tgsai/aiops-console/internal/domain/types"
)

// Filter narrows List. Empty fields match everything except Environment,
// which is required.
type Filter struct {
	Environment  string
	ResourceType string
	ResourceID   string
}

func (f Filter) normalize() Filter {
	return Filter{
		Environment:  strings.ToLower(strings.TrimSpace(f.Environment)),
		ResourceType: strings.ToLower(strings.TrimSpace(f.ResourceType)),
		ResourceID:   strings.TrimSpace(f.ResourceID),
	}
}

func (f Filter) matches(a types.Anomaly) bool {
	return a.Environment == f.Environment &&
		(f.ResourceType == "" || a.ResourceType == f.ResourceType) &&
		(f.ResourceID == "" || a.ResourceID == f.ResourceID)
}

// Store provides read/write access to detector records.
//
// Ordering: score DESC, then id ASC.
type Store interface {
	// List returns the detectors matching f.
	List(ctx context.Context, f Filter) ([]types.Anomaly, error)

	// Get returns one detector. Returns ErrNotFound if the id is unknown.
	Get(ctx context.Context, id string) (types.Anomaly, error)

	// SetEnabled toggles a detector and returns its updated record.
	// Returns ErrNotFound if the id is unknown.
	SetEnabled(ctx context.Context, id string, enabled bool) (types.Anomaly, error)

	// Seed inserts detectors that are not stored yet. Existing records,
	// including their enabled flag, are left untouched. Returns the number
	// inserted.
	Seed(ctx context.Context, detectors []types.Anomaly) (int, error)

	// Count returns the number of detectors stored for env.
	Count(ctx context.Context, env string) (int, error)

	Close() error
}

func sortAnomalies(out []types.Anomaly) {
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
}
