package scoring

import (
	"math"
	"strings"

	"github.com/tgsai/aiops-console/internal/domain/types"
)

// Security Hub severity labels.
const (
	FindingCritical      = "CRITICAL"
	FindingHigh          = "HIGH"
	FindingMedium        = "MEDIUM"
	FindingLow           = "LOW"
	FindingInformational = "INFORMATIONAL"
)

var findingPenalty = map[string]float64{
	FindingCritical:      15,
	FindingHigh:          8,
	FindingMedium:        3,
	FindingLow:           1,
	FindingInformational: 0,
}

// SecurityPosture counts findings per severity and derives a score in
// [0,100]. Resolved findings are counted but carry no penalty.
func SecurityPosture(findings []types.Finding) (map[string]int, float64) {
	summary := map[string]int{
		FindingCritical:      0,
		FindingHigh:          0,
		FindingMedium:        0,
		FindingLow:           0,
		FindingInformational: 0,
	}
	penalty := 0.0
	for _, f := range findings {
		sev := strings.ToUpper(f.Severity)
		if _, ok := summary[sev]; !ok {
			sev = FindingInformational
		}
		summary[sev]++
		if strings.EqualFold(f.Status, "RESOLVED") {
			continue
		}
		penalty += findingPenalty[sev]
	}
	return summary, math.Max(0, math.Round(100-penalty))
}
