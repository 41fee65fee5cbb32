package aws

import (
	"context"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sagemakerruntime"

	"github.com/tgsai/aiops-console/internal/domain/types"
)

// ListEndpoints returns the SageMaker inference endpoints.
func (s *Services) ListEndpoints(ctx context.Context) ([]types.Endpoint, error) {
	out := []types.Endpoint{}
	err := s.call(ctx, "sagemaker", "ListEndpoints", func(ctx context.Context) error {
		p := sagemaker.NewListEndpointsPaginator(s.clients.SageMaker, &sagemaker.ListEndpointsInput{})
		for p.HasMorePages() {
			page, err := p.NextPage(ctx)
			if err != nil {
				return err
			}
			for _, e := range page.Endpoints {
				out = append(out, types.Endpoint{
					Name:      sdkaws.ToString(e.EndpointName),
					Status:    string(e.EndpointStatus),
					CreatedAt: e.CreationTime,
				})
			}
		}
		return nil
	})
	return out, err
}

// InvokeEndpoint sends payload to a SageMaker endpoint.
func (s *Services) InvokeEndpoint(ctx context.Context, in types.InvokeEndpointInput) (types.InvokeEndpointOutput, error) {
	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	var out types.InvokeEndpointOutput
	err := s.call(ctx, "sagemakerruntime", "InvokeEndpoint", func(ctx context.Context) error {
		resp, err := s.clients.SageMakerRuntime.InvokeEndpoint(ctx, &sagemakerruntime.InvokeEndpointInput{
			EndpointName: sdkaws.String(in.EndpointName),
			Body:         in.Payload,
			ContentType:  sdkaws.String(contentType),
			Accept:       sdkaws.String("application/json"),
		})
		if err != nil {
			return err
		}
		out = types.InvokeEndpointOutput{Body: string(resp.Body), ContentType: sdkaws.ToString(resp.ContentType)}
		return nil
	})
	return out, err
}
