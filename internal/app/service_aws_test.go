package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrock"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrock/types"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/securityhub"
	"github.com/aws/smithy-go"
	. "github.com/smartystreets/goconvey/convey"

	awsadapter "github.com/tgsai/aiops-console/internal/adapters/aws"
	repository "github.com/tgsai/aiops-console/internal/adapters/repository"
	service "github.com/tgsai/aiops-console/internal/app"
	"github.com/tgsai/aiops-console/internal/domain/environment"
	"github.com/tgsai/aiops-console/internal/domain/types"
)

type fakeCostExplorer struct{}

func (fakeCostExplorer) GetCostAndUsage(context.Context, *costexplorer.GetCostAndUsageInput, ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error) {
	return nil, errors.New("throttled")
}

type fakeSecurityHub struct{}

func (fakeSecurityHub) GetFindings(context.Context, *securityhub.GetFindingsInput, ...func(*securityhub.Options)) (*securityhub.GetFindingsOutput, error) {
	return nil, &smithy.GenericAPIError{Code: "InvalidAccessException", Message: "Security Hub is not enabled"}
}

type fakeCloudFormation struct {
	awsadapter.CloudFormationAPI
	creates atomic.Int32
}

func (f *fakeCloudFormation) CreateStack(_ context.Context, in *cloudformation.CreateStackInput, _ ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error) {
	f.creates.Add(1)
	return &cloudformation.CreateStackOutput{StackId: sdkaws.String("arn:aws:cloudformation:us-east-1:1:stack/" + *in.StackName + "/1")}, nil
}

type fakeBedrock struct{ completion string }

func (fakeBedrock) ListFoundationModels(context.Context, *bedrock.ListFoundationModelsInput, ...func(*bedrock.Options)) (*bedrock.ListFoundationModelsOutput, error) {
	return &bedrock.ListFoundationModelsOutput{ModelSummaries: []brtypes.FoundationModelSummary{{
		ModelId:          sdkaws.String("anthropic.claude-3-haiku-20240307-v1:0"),
		ModelName:        sdkaws.String("Claude 3 Haiku"),
		ProviderName:     sdkaws.String("Anthropic"),
		OutputModalities: []brtypes.ModelModality{brtypes.ModelModalityText},
	}}}, nil
}

func (f fakeBedrock) InvokeModel(context.Context, *bedrockruntime.InvokeModelInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	body, err := json.Marshal(map[string]any{
		"content": []map[string]string{{"type": "text", "text": f.completion}},
		"usage":   map[string]int{"input_tokens": 11, "output_tokens": 7},
	})
	if err != nil {
		return nil, err
	}
	return &bedrockruntime.InvokeModelOutput{Body: body}, nil
}

func prodCredentials(key string) (string, bool) {
	v, ok := map[string]string{
		"AWS_ACCESS_KEY_ID_PROD":     "AKIAPROD",
		"AWS_SECRET_ACCESS_KEY_PROD": "secret",
		"AWS_REGION_PROD":            "us-east-1",
	}[key]
	return v, ok
}

func newAWSService(clients *awsadapter.Clients, opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithCredentialLookup(prodCredentials),
		service.WithEnvironments([]string{"dev", "prod"}, "prod"),
		service.WithAWSOptions(
			awsadapter.WithConfigLoader(func(_ context.Context, c environment.Credentials) (sdkaws.Config, error) {
				return sdkaws.Config{Region: c.Region}, nil
			}),
			awsadapter.WithClientBuilder(func(sdkaws.Config) *awsadapter.Clients { return clients }),
		),
	}
	return newStartedService(append(base, opts...)...)
}

func TestService_AWSBacked(t *testing.T) {
	Convey("Given a service with prod credentials and fake AWS clients", t, func() {
		cfn := &fakeCloudFormation{}
		br := fakeBedrock{completion: `Analysis follows. {"rootCause":"Connection pool exhausted","evidence":["p99 latency up"],"suggestions":["raise pool size"],"confidence":80}`}
		svc := newAWSService(&awsadapter.Clients{
			CostExplorer:   fakeCostExplorer{},
			SecurityHub:    fakeSecurityHub{},
			CloudFormation: cfn,
			Bedrock:        br,
			BedrockRuntime: br,
		})
		defer svc.Stop()
		ctx := context.Background()

		Convey("When an AWS read fails", func() {
			cost := svc.Cost(ctx, "prod", 7)
			sec := svc.Security(ctx, "prod")

			Convey("Then mock data should be served with the upstream error", func() {
				So(cost.Source, ShouldEqual, types.SourceMock)
				So(cost.Error, ShouldContainSubstring, "throttled")
				So(len(cost.Daily), ShouldEqual, 7)
				So(sec.Source, ShouldEqual, types.SourceMock)
				So(sec.Error, ShouldContainSubstring, "Security Hub is not enabled")
			})
		})

		Convey("When an environment has no credentials", func() {
			cost := svc.Cost(ctx, "dev", 7)

			Convey("Then mock data should be served without an error", func() {
				So(cost.Source, ShouldEqual, types.SourceMock)
				So(cost.Error, ShouldBeEmpty)
			})
		})

		Convey("When submitting a stack twice with the same token", func() {
			in := types.CreateStackInput{Environment: "prod", StackName: "web", TemplateBody: "{}", ClientRequestToken: "tok-1"}
			id1, dup1, err1 := svc.CreateStack(ctx, in)
			id2, dup2, err2 := svc.CreateStack(ctx, in)

			Convey("Then CloudFormation should be called once", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(dup1, ShouldBeFalse)
				So(dup2, ShouldBeTrue)
				So(id2, ShouldEqual, id1)
				So(cfn.creates.Load(), ShouldEqual, int32(1))
			})

			Convey("And a different environment should not share the token", func() {
				_, _, err := svc.CreateStack(ctx, types.CreateStackInput{Environment: "dev", StackName: "web", TemplateBody: "{}", ClientRequestToken: "tok-1"})
				So(errors.Is(err, awsadapter.ErrCredentialsMissing), ShouldBeTrue)
			})
		})

		Convey("When generating text", func() {
			gen, err := svc.Generate(ctx, types.GenerateInput{ModelID: "us.anthropic.claude-3-haiku-20240307-v1:0", Prompt: "hi"})

			Convey("Then Bedrock should answer", func() {
				So(err, ShouldBeNil)
				So(gen.Source, ShouldEqual, types.SourceBedrock)
				So(gen.Provider, ShouldEqual, "Anthropic")
				So(gen.Usage.InputTokens, ShouldEqual, 11)
			})
		})

		Convey("When loading the catalog", func() {
			c, err := svc.Catalog(ctx)

			Convey("Then it should come from Bedrock", func() {
				So(err, ShouldBeNil)
				So(c.Source, ShouldEqual, types.SourceAWS)
				So(len(c.Models), ShouldEqual, 1)
			})
		})

		Convey("When analyzing a prod anomaly", func() {
			list, err := svc.ListAnomalies(ctx, "prod", "", "")
			So(err, ShouldBeNil)
			analysis, err := svc.AnalyzeRootCause(ctx, "prod", list[0].ID, "deploy at 10:00")

			Convey("Then the model's analysis should be used", func() {
				So(err, ShouldBeNil)
				So(analysis.Source, ShouldEqual, types.SourceBedrock)
				So(analysis.RootCause, ShouldEqual, "Connection pool exhausted")
				So(analysis.Confidence, ShouldEqual, 0.8)
			})
		})
	})
}

func TestService_SQLiteStore(t *testing.T) {
	Convey("Given a service backed by sqlite", t, func() {
		path := filepath.Join(t.TempDir(), "detectors.db")
		svc := newStartedService(service.WithStore(repository.DriverSQLite, path))
		ctx := context.Background()

		list, err := svc.ListAnomalies(ctx, "uat", "", "")
		So(err, ShouldBeNil)
		target := list[0]
		_, err = svc.SetAnomalyEnabled(ctx, target.ID, !target.Enabled)
		So(err, ShouldBeNil)
		svc.Stop()

		Convey("When the service restarts on the same file", func() {
			restarted := newStartedService(service.WithStore(repository.DriverSQLite, path))
			defer restarted.Stop()
			again, err := restarted.ListAnomalies(ctx, "uat", "", "")

			Convey("Then the toggle should survive reseeding", func() {
				So(err, ShouldBeNil)
				for _, a := range again {
					if a.ID == target.ID {
						So(a.Enabled, ShouldEqual, !target.Enabled)
					}
				}
			})
		})
	})
}
