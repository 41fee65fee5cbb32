package aws

import (
	"context"
	"math"
	"sort"
	"strconv"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"

	"github.com/tgsai/aiops-console/internal/domain/types"
)

const (
	costMetric   = "UnblendedCost"
	maxCostPages = 10
)

// CostReport returns daily unblended cost per service for the last days
// days, ending yesterday. Cost Explorer's end date is exclusive.
func (s *Services) CostReport(ctx context.Context, now time.Time, days int) (types.CostReport, error) {
	if days <= 0 {
		days = 30
	}
	end := now.UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -days)
	input := &costexplorer.GetCostAndUsageInput{
		TimePeriod: &cetypes.DateInterval{
			Start: sdkaws.String(start.Format(time.DateOnly)),
			End:   sdkaws.String(end.Format(time.DateOnly)),
		},
		Granularity: cetypes.GranularityDaily,
		Metrics:     []string{costMetric},
		GroupBy: []cetypes.GroupDefinition{
			{Type: cetypes.GroupDefinitionTypeDimension, Key: sdkaws.String("SERVICE")},
		},
	}

	var results []cetypes.ResultByTime
	err := s.call(ctx, "costexplorer", "GetCostAndUsage", func(ctx context.Context) error {
		for page := 0; page < maxCostPages; page++ {
			out, err := s.clients.CostExplorer.GetCostAndUsage(ctx, input)
			if err != nil {
				return err
			}
			results = append(results, out.ResultsByTime...)
			if out.NextPageToken == nil || *out.NextPageToken == "" {
				return nil
			}
			input.NextPageToken = out.NextPageToken
		}
		return nil
	})
	if err != nil {
		return types.CostReport{}, err
	}
	return buildCostReport(results), nil
}

func buildCostReport(results []cetypes.ResultByTime) types.CostReport {
	report := types.CostReport{
		Provenance: types.Provenance{Source: types.SourceAWS},
		Currency:   "USD",
		ByService:  []types.ServiceCost{},
		Daily:      []types.DailyCost{},
	}
	byService := map[string]float64{}
	for _, r := range results {
		day := 0.0
		for _, g := range r.Groups {
			mv, ok := g.Metrics[costMetric]
			if !ok || len(g.Keys) == 0 {
				continue
			}
			amt := parseAmount(mv.Amount)
			if mv.Unit != nil && *mv.Unit != "" {
				report.Currency = *mv.Unit
			}
			byService[g.Keys[0]] += amt
			day += amt
		}
		if len(r.Groups) == 0 {
			if mv, ok := r.Total[costMetric]; ok {
				day = parseAmount(mv.Amount)
			}
		}
		date := ""
		if r.TimePeriod != nil && r.TimePeriod.Start != nil {
			date = *r.TimePeriod.Start
		}
		report.Daily = append(report.Daily, types.DailyCost{Date: date, Amount: round2(day)})
		report.Total += day
	}
	for svc, amt := range byService {
		report.ByService = append(report.ByService, types.ServiceCost{Service: svc, Amount: round2(amt)})
	}
	sort.Slice(report.ByService, func(i, j int) bool {
		if report.ByService[i].Amount != report.ByService[j].Amount {
			return report.ByService[i].Amount > report.ByService[j].Amount
		}
		return report.ByService[i].Service < report.ByService[j].Service
	})
	report.Total = round2(report.Total)
	return report
}

func parseAmount(s *string) float64 {
	if s == nil {
		return 0
	}
	v, err := strconv.ParseFloat(*s, 64)
	if err != nil || v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
