package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	awsadapter "github.com/tgsai/aiops-console/internal/adapters/aws"
	"github.com/tgsai/aiops-console/internal/domain/dedupe"
	"github.com/tgsai/aiops-console/internal/domain/environment"
	"github.com/tgsai/aiops-console/internal/domain/scoring"
	"github.com/tgsai/aiops-console/internal/domain/types"
	"github.com/tgsai/aiops-console/pkg/logger"
	"github.com/tgsai/aiops-console/pkg/metrics"
)

const defaultCostDays = 30

// Cost returns the spend of env from Cost Explorer, or generated spend when
// that is not possible.
func (s *Service) Cost(ctx context.Context, env string, days int) types.CostReport {
	if days <= 0 || days > 365 {
		days = defaultCostDays
	}
	svc, err := s.services(ctx, env)
	if err == nil {
		var report types.CostReport
		if report, err = svc.CostReport(ctx, s.now(), days); err == nil {
			report.Environment = environment.Normalize(env)
			return report
		}
	}
	report := s.generator.Cost(env, days)
	report.Provenance = s.fallback(ctx, "cost", err)
	return report
}

// Security returns the active Security Hub findings of env with their
// posture score, or generated findings when that is not possible.
func (s *Service) Security(ctx context.Context, env string) types.SecurityReport {
	svc, err := s.services(ctx, env)
	if err == nil {
		var findings []types.Finding
		if findings, err = svc.SecurityFindings(ctx); err == nil {
			summary, score := scoring.SecurityPosture(findings)
			return types.SecurityReport{
				Provenance:  types.Provenance{Source: types.SourceAWS},
				Environment: environment.Normalize(env),
				Findings:    findings,
				Summary:     summary,
				Score:       score,
			}
		}
	}
	report := s.generator.Security(env)
	report.Provenance = s.fallback(ctx, "security", err)
	return report
}

// Discover inventories the resources of env.
func (s *Service) Discover(ctx context.Context, env string) types.Inventory {
	svc, err := s.services(ctx, env)
	if err == nil {
		var res types.Resources
		if res, err = svc.Discover(ctx); err == nil {
			return types.Inventory{
				Provenance:  types.Provenance{Source: types.SourceAWS},
				Environment: environment.Normalize(env),
				Resources:   res,
				Counts:      res.Counts(),
			}
		}
	}
	inv := s.generator.Inventory(env)
	inv.Provenance = s.fallback(ctx, "discover", err)
	return inv
}

// Stacks lists the CloudFormation stacks of env.
func (s *Service) Stacks(ctx context.Context, env string) types.StackList {
	svc, err := s.services(ctx, env)
	if err == nil {
		var stacks []types.Stack
		if stacks, err = svc.ListStacks(ctx); err == nil {
			return types.StackList{Provenance: types.Provenance{Source: types.SourceAWS}, Stacks: stacks}
		}
	}
	return types.StackList{Provenance: s.fallback(ctx, "stacks", err), Stacks: s.generator.Stacks(env)}
}

// CreateStack submits a stack. Submissions are keyed by ClientRequestToken:
// a repeated token returns the first submission's stack id with duplicate
// set instead of calling CloudFormation again. A token is generated when
// the request carries none. Failed submissions release their token.
func (s *Service) CreateStack(ctx context.Context, in types.CreateStackInput) (stackID string, duplicate bool, err error) {
	if in.ClientRequestToken == "" {
		in.ClientRequestToken = uuid.NewString()
	}
	token := environment.Normalize(in.Environment) + "/" + in.ClientRequestToken

	if s.deduper.SeenAndRecord(ctx, token) {
		if id, ok := s.deduper.Result(ctx, token); ok {
			metrics.RecordStackSubmission("duplicate")
			return id, true, nil
		}
		return "", false, dedupe.ErrInFlight
	}

	svc, err := s.services(ctx, in.Environment)
	if err == nil {
		stackID, err = svc.CreateStack(ctx, in)
	}
	if err != nil {
		s.deduper.Unrecord(ctx, token)
		outcome := "error"
		if errors.Is(err, awsadapter.ErrCredentialsMissing) {
			outcome = "credentials_missing"
		}
		metrics.RecordStackSubmission(outcome)
		return "", false, err
	}

	s.deduper.Complete(ctx, token, stackID)
	metrics.RecordStackSubmission("created")
	s.logger.Info(ctx, "stack submitted",
		logger.String("environment", in.Environment),
		logger.String("stack", in.StackName),
		logger.String("stack_id", stackID),
	)
	return stackID, false, nil
}

// DeleteStack deletes stackName from env.
func (s *Service) DeleteStack(ctx context.Context, env, stackName string) error {
	svc, err := s.services(ctx, env)
	if err != nil {
		return err
	}
	if err := svc.DeleteStack(ctx, stackName); err != nil {
		return err
	}
	s.logger.Info(ctx, "stack deletion requested",
		logger.String("environment", env),
		logger.String("stack", stackName),
	)
	return nil
}

// Endpoints lists the SageMaker endpoints of env.
func (s *Service) Endpoints(ctx context.Context, env string) types.EndpointList {
	svc, err := s.services(ctx, env)
	if err == nil {
		var endpoints []types.Endpoint
		if endpoints, err = svc.ListEndpoints(ctx); err == nil {
			return types.EndpointList{Provenance: types.Provenance{Source: types.SourceAWS}, Endpoints: endpoints}
		}
	}
	return types.EndpointList{Provenance: s.fallback(ctx, "sagemaker_endpoints", err), Endpoints: s.generator.SageMakerEndpoints(env)}
}

// InvokeEndpoint sends a payload to a SageMaker endpoint of in.Environment.
func (s *Service) InvokeEndpoint(ctx context.Context, in types.InvokeEndpointInput) (types.InvokeEndpointOutput, error) {
	svc, err := s.services(ctx, in.Environment)
	if err != nil {
		return types.InvokeEndpointOutput{}, err
	}
	return svc.InvokeEndpoint(ctx, in)
}
