package mockdata

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/tgsai/aiops-console/internal/domain/environment"
	"github.com/tgsai/aiops-console/internal/domain/types"
)

//go:embed advisor_checks.yaml
var advisorChecksYAML []byte

type advisorCheck struct {
	Key          string     `yaml:"key"`
	Category     string     `yaml:"category"`
	Title        string     `yaml:"title"`
	Description  string     `yaml:"description"`
	Impact       string     `yaml:"impact"`
	ResourceType string     `yaml:"resourceType"`
	Savings      [2]float64 `yaml:"savings"`
}

var (
	checksOnce sync.Once
	checks     []advisorCheck
	checksErr  error
)

func loadChecks() ([]advisorCheck, error) {
	checksOnce.Do(func() {
		var doc struct {
			Checks []advisorCheck `yaml:"checks"`
		}
		if err := yaml.Unmarshal(advisorChecksYAML, &doc); err != nil {
			checksErr = fmt.Errorf("mockdata: parse advisor checks: %w", err)
			return
		}
		checks = doc.Checks
	})
	return checks, checksErr
}

// Recommendation statuses.
const (
	StatusOpen      = "open"
	StatusDismissed = "dismissed"
)

// Recommendations returns advisor findings for env. Ids are stable per
// environment and check.
func (g *Generator) Recommendations(env string) ([]types.Recommendation, error) {
	cs, err := loadChecks()
	if err != nil {
		return nil, err
	}
	p := environment.Lookup(env)
	r := g.envRand(p.ID, "advisor")

	out := make([]types.Recommendation, 0, len(cs))
	for _, c := range cs {
		// smaller environments trip fewer checks
		if r.Float64() > 0.45+p.CostScale/2 {
			continue
		}
		n := 1 + r.Intn(3)
		ids := ResourceIDs(p.ID, c.ResourceType, n)
		savings := 0.0
		if c.Savings[1] > 0 {
			savings = round2(between(r, c.Savings[0], c.Savings[1]) * p.CostScale * float64(n))
		}
		status := StatusOpen
		if r.Float64() < 0.1 {
			status = StatusDismissed
		}
		out = append(out, types.Recommendation{
			ID:                      uuid.NewSHA1(uuid.NameSpaceOID, []byte(p.ID+"/"+c.Key)).String(),
			Category:                c.Category,
			Title:                   c.Title,
			Description:             c.Description,
			Impact:                  c.Impact,
			Status:                  status,
			EstimatedMonthlySavings: savings,
			ResourceIDs:             ids,
		})
	}
	return out, nil
}

// Summarize aggregates recommendations. Dismissed items do not count towards
// the savings total.
func Summarize(recs []types.Recommendation) types.AdvisorSummary {
	s := types.AdvisorSummary{
		Total:      len(recs),
		ByCategory: map[string]int{},
		ByImpact:   map[string]int{},
	}
	for _, r := range recs {
		s.ByCategory[r.Category]++
		s.ByImpact[r.Impact]++
		if r.Status != StatusDismissed {
			s.EstimatedMonthlySavings += r.EstimatedMonthlySavings
		}
	}
	s.EstimatedMonthlySavings = round2(s.EstimatedMonthlySavings)
	return s
}
