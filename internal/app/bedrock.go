package service

import (
	"context"
	"errors"
	"time"

	awsadapter "github.com/tgsai/aiops-console/internal/adapters/aws"
	"github.com/tgsai/aiops-console/internal/domain/bedrock"
	"github.com/tgsai/aiops-console/internal/domain/catalog"
	"github.com/tgsai/aiops-console/internal/domain/types"
	"github.com/tgsai/aiops-console/pkg/logger"
	"github.com/tgsai/aiops-console/pkg/metrics"
)

// Catalog returns the cached Bedrock model catalog.
func (s *Service) Catalog(ctx context.Context) (*catalog.Catalog, error) {
	return s.models.Get(ctx)
}

// Generate runs a prompt against a Bedrock model. When the environment has
// no credentials, or the invocation or its response fails, the result is a
// simulated completion and Error describes the failure. Unknown model
// families return bedrock.ErrUnsupportedModel.
func (s *Service) Generate(ctx context.Context, in types.GenerateInput) (types.Generation, error) {
	family := bedrock.FamilyOf(in.ModelID)
	if family == bedrock.Unknown {
		return types.Generation{}, bedrock.ErrUnsupportedModel
	}
	env := in.Environment
	if env == "" {
		env = s.registry.Default()
	}

	start := time.Now()
	simulate := func(cause error) types.Generation {
		gen := bedrock.Simulate(family, in.ModelID, in.Prompt)
		if cause != nil && !errors.Is(cause, awsadapter.ErrCredentialsMissing) {
			gen.Error = cause.Error()
			s.logger.Warn(ctx, "bedrock invocation failed, simulating",
				logger.String("model_id", in.ModelID),
				logger.Error(cause),
			)
		}
		metrics.RecordBedrockInvocation(string(family), types.SourceSimulated, float64(time.Since(start).Milliseconds()))
		return gen
	}

	svc, err := s.services(ctx, env)
	if err != nil {
		return simulate(err), nil
	}
	body, err := bedrock.BuildRequest(family, in, bedrock.ParamsFor(in, s.maxGenerateTokens))
	if err != nil {
		return types.Generation{}, err
	}
	raw, err := svc.InvokeModel(ctx, in.ModelID, body)
	if err != nil {
		return simulate(err), nil
	}
	text, usage, err := bedrock.ParseResponse(family, raw)
	if err != nil {
		return simulate(err), nil
	}

	metrics.RecordBedrockInvocation(string(family), types.SourceBedrock, float64(time.Since(start).Milliseconds()))
	return types.Generation{
		Completion: text,
		ModelID:    in.ModelID,
		Provider:   family.Provider(),
		Source:     types.SourceBedrock,
		Usage:      usage,
	}, nil
}
