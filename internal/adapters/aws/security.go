package aws

import (
	"context"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/securityhub"
	shtypes "github.com/aws/aws-sdk-go-v2/service/securityhub/types"

	"github.com/tgsai/aiops-console/internal/domain/types"
)

const maxFindingPages = 5

// SecurityFindings returns the active Security Hub findings.
func (s *Services) SecurityFindings(ctx context.Context) ([]types.Finding, error) {
	input := &securityhub.GetFindingsInput{
		Filters: &shtypes.AwsSecurityFindingFilters{
			RecordState: []shtypes.StringFilter{
				{Comparison: shtypes.StringFilterComparisonEquals, Value: sdkaws.String("ACTIVE")},
			},
		},
	}

	out := []types.Finding{}
	err := s.call(ctx, "securityhub", "GetFindings", func(ctx context.Context) error {
		for page := 0; page < maxFindingPages; page++ {
			resp, err := s.clients.SecurityHub.GetFindings(ctx, input)
			if err != nil {
				return err
			}
			for _, f := range resp.Findings {
				out = append(out, toFinding(f))
			}
			if resp.NextToken == nil || *resp.NextToken == "" {
				return nil
			}
			input.NextToken = resp.NextToken
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func toFinding(f shtypes.AwsSecurityFinding) types.Finding {
	out := types.Finding{
		ID:        sdkaws.ToString(f.Id),
		Title:     sdkaws.ToString(f.Title),
		Severity:  "INFORMATIONAL",
		Status:    "NEW",
		UpdatedAt: sdkaws.ToString(f.UpdatedAt),
	}
	if f.Severity != nil && f.Severity.Label != "" {
		out.Severity = string(f.Severity.Label)
	}
	if len(f.Resources) > 0 {
		out.ResourceType = sdkaws.ToString(f.Resources[0].Type)
		out.ResourceID = sdkaws.ToString(f.Resources[0].Id)
	}
	if f.Workflow != nil && f.Workflow.Status != "" {
		out.Status = string(f.Workflow.Status)
	}
	return out
}
