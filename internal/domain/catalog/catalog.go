// Package catalog holds the Bedrock foundation model catalog and its cache.
package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tgsai/aiops-console/internal/domain/types"
)

//go:embed models.yaml
var embeddedModels []byte

// Catalog is an immutable snapshot of the available models. Callers must not
// modify it; the cache hands the same pointer to every reader.
type Catalog struct {
	Providers []types.Provider
	Models    []types.Model
	LoadedAt  time.Time
	ExpiresAt time.Time
	Source    string
	Error     string
}

// New groups models by provider, sorted by provider then model name.
func New(models []types.Model, source string, loadedAt time.Time) *Catalog {
	sorted := make([]types.Model, len(models))
	copy(sorted, models)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Provider != sorted[j].Provider {
			return sorted[i].Provider < sorted[j].Provider
		}
		return sorted[i].ModelName < sorted[j].ModelName
	})

	var providers []types.Provider
	for _, m := range sorted {
		if n := len(providers); n == 0 || providers[n-1].Name != m.Provider {
			providers = append(providers, types.Provider{Name: m.Provider})
		}
		p := &providers[len(providers)-1]
		p.Models = append(p.Models, m)
	}
	return &Catalog{Providers: providers, Models: sorted, LoadedAt: loadedAt, Source: source}
}

// ByProvider returns the models of provider, matched case-insensitively.
// An empty name returns every model.
func (c *Catalog) ByProvider(name string) []types.Model {
	if name == "" {
		return c.Models
	}
	for _, p := range c.Providers {
		if strings.EqualFold(p.Name, name) {
			return p.Models
		}
	}
	return []types.Model{}
}

// Find returns the model with id.
func (c *Catalog) Find(modelID string) (types.Model, bool) {
	for _, m := range c.Models {
		if m.ModelID == modelID {
			return m, true
		}
	}
	return types.Model{}, false
}

// Loader produces a fresh catalog.
type Loader interface {
	Load(ctx context.Context) (*Catalog, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) (*Catalog, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context) (*Catalog, error) { return f(ctx) }

// EmbeddedLoader serves the catalog compiled into the binary.
type EmbeddedLoader struct {
	Now func() time.Time
}

// Load parses the embedded catalog.
func (l EmbeddedLoader) Load(context.Context) (*Catalog, error) {
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	models, err := ParseModels(embeddedModels)
	if err != nil {
		return nil, err
	}
	return New(models, types.SourceMock, now()), nil
}

// ParseModels decodes a YAML model list.
func ParseModels(data []byte) ([]types.Model, error) {
	var doc struct {
		Models []types.Model `yaml:"models"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: parse models: %w", err)
	}
	if len(doc.Models) == 0 {
		return nil, ErrEmptyCatalog
	}
	return doc.Models, nil
}

// ModelLister lists the foundation models of the account.
type ModelLister interface {
	ListFoundationModels(ctx context.Context) ([]types.Model, error)
}

// ListerFunc resolves the lister to use for a load. It returns nil when no
// credentials are configured.
type ListerFunc func() (ModelLister, error)

// BedrockLoader lists models from Bedrock and falls back to another loader
// when credentials are missing or the call fails.
type BedrockLoader struct {
	Lister   ListerFunc
	Fallback Loader
	Now      func() time.Time
}

// Load implements Loader.
func (l BedrockLoader) Load(ctx context.Context) (*Catalog, error) {
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	fallback := func(cause error) (*Catalog, error) {
		if l.Fallback == nil {
			if cause == nil {
				cause = ErrNoLoader
			}
			return nil, cause
		}
		c, err := l.Fallback.Load(ctx)
		if err != nil {
			return nil, err
		}
		if cause != nil {
			c.Error = cause.Error()
		}
		return c, nil
	}

	if l.Lister == nil {
		return fallback(nil)
	}
	lister, err := l.Lister()
	if err != nil {
		return fallback(err)
	}
	if lister == nil {
		return fallback(nil)
	}
	models, err := lister.ListFoundationModels(ctx)
	if err != nil {
		return fallback(err)
	}
	if len(models) == 0 {
		return fallback(ErrEmptyCatalog)
	}
	return New(models, types.SourceAWS, now()), nil
}
