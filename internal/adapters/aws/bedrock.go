package aws

import (
	"context"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrock"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrock/types"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/tgsai/aiops-console/internal/domain/types"
)

// ListFoundationModels returns the text generation models of the region.
func (s *Services) ListFoundationModels(ctx context.Context) ([]types.Model, error) {
	var out []types.Model
	err := s.call(ctx, "bedrock", "ListFoundationModels", func(ctx context.Context) error {
		resp, err := s.clients.Bedrock.ListFoundationModels(ctx, &bedrock.ListFoundationModelsInput{
			ByOutputModality: brtypes.ModelModalityText,
		})
		if err != nil {
			return err
		}
		for _, m := range resp.ModelSummaries {
			out = append(out, types.Model{
				ModelID:          sdkaws.ToString(m.ModelId),
				ModelName:        sdkaws.ToString(m.ModelName),
				Provider:         sdkaws.ToString(m.ProviderName),
				InputModalities:  modalities(m.InputModalities),
				OutputModalities: modalities(m.OutputModalities),
				Streaming:        sdkaws.ToBool(m.ResponseStreamingSupported),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func modalities(in []brtypes.ModelModality) []string {
	out := make([]string, len(in))
	for i, m := range in {
		out[i] = string(m)
	}
	return out
}

// InvokeModel sends a JSON body to modelID and returns the response body.
func (s *Services) InvokeModel(ctx context.Context, modelID string, body []byte) ([]byte, error) {
	var out []byte
	err := s.call(ctx, "bedrockruntime", "InvokeModel", func(ctx context.Context) error {
		resp, err := s.clients.BedrockRuntime.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
			ModelId:     sdkaws.String(modelID),
			Body:        body,
			ContentType: sdkaws.String("application/json"),
			Accept:      sdkaws.String("application/json"),
		})
		if err != nil {
			return err
		}
		out = resp.Body
		return nil
	})
	return out, err
}
