package aws

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrock"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrock/types"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	ekstypes "github.com/aws/aws-sdk-go-v2/service/eks/types"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	smtypes "github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
	"github.com/aws/aws-sdk-go-v2/service/sagemakerruntime"
	"github.com/aws/aws-sdk-go-v2/service/securityhub"
	shtypes "github.com/aws/aws-sdk-go-v2/service/securityhub/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/require"

	"github.com/tgsai/aiops-console/internal/domain/environment"
	"github.com/tgsai/aiops-console/internal/domain/types"
)

type fakeCE struct {
	pages []*costexplorer.GetCostAndUsageOutput
	calls int
}

func (f *fakeCE) GetCostAndUsage(_ context.Context, _ *costexplorer.GetCostAndUsageInput, _ ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error) {
	out := f.pages[f.calls]
	f.calls++
	return out, nil
}

type fakeSH struct{ out *securityhub.GetFindingsOutput }

func (f fakeSH) GetFindings(context.Context, *securityhub.GetFindingsInput, ...func(*securityhub.Options)) (*securityhub.GetFindingsOutput, error) {
	return f.out, nil
}

type fakeCFN struct {
	stacks      []cftypes.StackSummary
	describeErr error
	createErr   error
	created     *cloudformation.CreateStackInput
	deleted     string
}

func (f *fakeCFN) ListStacks(_ context.Context, in *cloudformation.ListStacksInput, _ ...func(*cloudformation.Options)) (*cloudformation.ListStacksOutput, error) {
	// two pages: first stack, then the rest
	if in.NextToken == nil {
		return &cloudformation.ListStacksOutput{StackSummaries: f.stacks[:1], NextToken: sdkaws.String("p2")}, nil
	}
	return &cloudformation.ListStacksOutput{StackSummaries: f.stacks[1:]}, nil
}

func (f *fakeCFN) DescribeStacks(_ context.Context, in *cloudformation.DescribeStacksInput, _ ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error) {
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	return &cloudformation.DescribeStacksOutput{Stacks: []cftypes.Stack{{StackName: in.StackName, StackStatus: cftypes.StackStatusCreateComplete}}}, nil
}

func (f *fakeCFN) CreateStack(_ context.Context, in *cloudformation.CreateStackInput, _ ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = in
	return &cloudformation.CreateStackOutput{StackId: sdkaws.String("arn:stack/" + *in.StackName)}, nil
}

func (f *fakeCFN) DeleteStack(_ context.Context, in *cloudformation.DeleteStackInput, _ ...func(*cloudformation.Options)) (*cloudformation.DeleteStackOutput, error) {
	f.deleted = *in.StackName
	return &cloudformation.DeleteStackOutput{}, nil
}

type fakeInventory struct{ ec2Err error }

func (f fakeInventory) DescribeInstances(context.Context, *ec2.DescribeInstancesInput, ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	if f.ec2Err != nil {
		return nil, f.ec2Err
	}
	return &ec2.DescribeInstancesOutput{Reservations: []ec2types.Reservation{{Instances: []ec2types.Instance{{
		InstanceId:   sdkaws.String("i-1"),
		InstanceType: ec2types.InstanceTypeT3Medium,
		State:        &ec2types.InstanceState{Name: ec2types.InstanceStateNameRunning},
		Placement:    &ec2types.Placement{AvailabilityZone: sdkaws.String("us-east-1a")},
		Tags:         []ec2types.Tag{{Key: sdkaws.String("Name"), Value: sdkaws.String("web")}},
	}}}}}, nil
}

func (fakeInventory) DescribeDBInstances(context.Context, *rds.DescribeDBInstancesInput, ...func(*rds.Options)) (*rds.DescribeDBInstancesOutput, error) {
	return &rds.DescribeDBInstancesOutput{DBInstances: []rdstypes.DBInstance{{
		DBInstanceIdentifier: sdkaws.String("db-1"),
		DBInstanceClass:      sdkaws.String("db.t3.medium"),
		Engine:               sdkaws.String("postgres"),
		DBInstanceStatus:     sdkaws.String("available"),
	}}}, nil
}

func (fakeInventory) ListClusters(context.Context, *eks.ListClustersInput, ...func(*eks.Options)) (*eks.ListClustersOutput, error) {
	return &eks.ListClustersOutput{Clusters: []string{"c1", "c2"}}, nil
}

func (fakeInventory) DescribeCluster(_ context.Context, in *eks.DescribeClusterInput, _ ...func(*eks.Options)) (*eks.DescribeClusterOutput, error) {
	return &eks.DescribeClusterOutput{Cluster: &ekstypes.Cluster{Name: in.Name, Version: sdkaws.String("1.30"), Status: ekstypes.ClusterStatusActive}}, nil
}

func (fakeInventory) ListBuckets(context.Context, *s3.ListBucketsInput, ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
	return &s3.ListBucketsOutput{Buckets: []s3types.Bucket{{Name: sdkaws.String("zeta")}, {Name: sdkaws.String("alpha")}}}, nil
}

func (fakeInventory) ListTables(context.Context, *dynamodb.ListTablesInput, ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error) {
	return &dynamodb.ListTablesOutput{TableNames: []string{"orders"}}, nil
}

type fakeAI struct{ invoked *bedrockruntime.InvokeModelInput }

func (fakeAI) ListFoundationModels(context.Context, *bedrock.ListFoundationModelsInput, ...func(*bedrock.Options)) (*bedrock.ListFoundationModelsOutput, error) {
	return &bedrock.ListFoundationModelsOutput{ModelSummaries: []brtypes.FoundationModelSummary{{
		ModelId:                    sdkaws.String("anthropic.claude-3-haiku-20240307-v1:0"),
		ModelName:                  sdkaws.String("Claude 3 Haiku"),
		ProviderName:               sdkaws.String("Anthropic"),
		InputModalities:            []brtypes.ModelModality{brtypes.ModelModalityText, brtypes.ModelModalityImage},
		OutputModalities:           []brtypes.ModelModality{brtypes.ModelModalityText},
		ResponseStreamingSupported: sdkaws.Bool(true),
	}}}, nil
}

func (f *fakeAI) InvokeModel(_ context.Context, in *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.invoked = in
	return &bedrockruntime.InvokeModelOutput{Body: []byte(`{"ok":true}`)}, nil
}

func (fakeAI) ListEndpoints(context.Context, *sagemaker.ListEndpointsInput, ...func(*sagemaker.Options)) (*sagemaker.ListEndpointsOutput, error) {
	return &sagemaker.ListEndpointsOutput{Endpoints: []smtypes.EndpointSummary{{
		EndpointName:   sdkaws.String("forecaster"),
		EndpointStatus: smtypes.EndpointStatusInService,
	}}}, nil
}

func (fakeAI) InvokeEndpoint(_ context.Context, in *sagemakerruntime.InvokeEndpointInput, _ ...func(*sagemakerruntime.Options)) (*sagemakerruntime.InvokeEndpointOutput, error) {
	return &sagemakerruntime.InvokeEndpointOutput{Body: append([]byte("echo:"), in.Body...), ContentType: in.ContentType}, nil
}

func newTestServices(c *Clients) *Services {
	return NewServices(c, time.Second, "us-east-1")
}

func TestFactory(t *testing.T) {
	creds := map[string]environment.Credentials{
		"prod": {AccessKeyID: "k", SecretAccessKey: "s", Region: "eu-west-1"},
	}
	loads := 0
	f := NewFactory(
		func(env string) environment.Credentials { return creds[env] },
		WithConfigLoader(func(_ context.Context, c environment.Credentials) (sdkaws.Config, error) {
			loads++
			return sdkaws.Config{Region: c.Region}, nil
		}),
		WithClientBuilder(func(sdkaws.Config) *Clients { return &Clients{} }),
	)
	ctx := context.Background()

	_, err := f.Services(ctx, "dev")
	require.ErrorIs(t, err, ErrCredentialsMissing)
	require.False(t, f.Configured("dev"))

	svc, err := f.Services(ctx, "PROD")
	require.NoError(t, err)
	require.Equal(t, "eu-west-1", svc.Region())

	again, err := f.Services(ctx, "prod")
	require.NoError(t, err)
	require.Same(t, svc, again)
	require.Equal(t, 1, loads)

	creds["prod"] = environment.Credentials{AccessKeyID: "k2", SecretAccessKey: "s", Region: "eu-west-1"}
	rotated, err := f.Services(ctx, "prod")
	require.NoError(t, err)
	require.NotSame(t, svc, rotated)
	require.Equal(t, 2, loads)
}

func TestCostReport(t *testing.T) {
	group := func(svc, amt string) cetypes.Group {
		return cetypes.Group{Keys: []string{svc}, Metrics: map[string]cetypes.MetricValue{
			costMetric: {Amount: sdkaws.String(amt), Unit: sdkaws.String("USD")},
		}}
	}
	ce := &fakeCE{pages: []*costexplorer.GetCostAndUsageOutput{
		{
			ResultsByTime: []cetypes.ResultByTime{{
				TimePeriod: &cetypes.DateInterval{Start: sdkaws.String("2026-01-01")},
				Groups:     []cetypes.Group{group("EC2", "10.004"), group("S3", "1.5")},
			}},
			NextPageToken: sdkaws.String("next"),
		},
		{
			ResultsByTime: []cetypes.ResultByTime{{
				TimePeriod: &cetypes.DateInterval{Start: sdkaws.String("2026-01-02")},
				Groups:     []cetypes.Group{group("EC2", "5"), group("S3", "bogus")},
			}},
		},
	}}
	svc := newTestServices(&Clients{CostExplorer: ce})

	report, err := svc.CostReport(context.Background(), time.Date(2026, 1, 3, 8, 0, 0, 0, time.UTC), 2)
	require.NoError(t, err)
	require.Equal(t, 2, ce.calls)
	require.Equal(t, types.SourceAWS, report.Source)
	require.Equal(t, 16.5, report.Total)
	require.Equal(t, []types.ServiceCost{{Service: "EC2", Amount: 15}, {Service: "S3", Amount: 1.5}}, report.ByService)
	require.Equal(t, []types.DailyCost{{Date: "2026-01-01", Amount: 11.5}, {Date: "2026-01-02", Amount: 5}}, report.Daily)
}

func TestSecurityFindings(t *testing.T) {
	svc := newTestServices(&Clients{SecurityHub: fakeSH{out: &securityhub.GetFindingsOutput{Findings: []shtypes.AwsSecurityFinding{
		{
			Id:        sdkaws.String("f-1"),
			Title:     sdkaws.String("Open SSH"),
			Severity:  &shtypes.Severity{Label: shtypes.SeverityLabelCritical},
			Resources: []shtypes.Resource{{Type: sdkaws.String("AwsEc2SecurityGroup"), Id: sdkaws.String("sg-1")}},
			Workflow:  &shtypes.Workflow{Status: shtypes.WorkflowStatusNotified},
			UpdatedAt: sdkaws.String("2026-01-01T00:00:00Z"),
		},
		{Id: sdkaws.String("f-2")},
	}}}})

	findings, err := svc.SecurityFindings(context.Background())
	require.NoError(t, err)
	require.Len(t, findings, 2)
	require.Equal(t, types.Finding{
		ID: "f-1", Title: "Open SSH", Severity: "CRITICAL", ResourceType: "AwsEc2SecurityGroup",
		ResourceID: "sg-1", Status: "NOTIFIED", UpdatedAt: "2026-01-01T00:00:00Z",
	}, findings[0])
	require.Equal(t, "INFORMATIONAL", findings[1].Severity)
	require.Equal(t, "NEW", findings[1].Status)
}

func TestStacks(t *testing.T) {
	older := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(48 * time.Hour)
	cfn := &fakeCFN{stacks: []cftypes.StackSummary{
		{StackName: sdkaws.String("old"), StackId: sdkaws.String("id-old"), StackStatus: cftypes.StackStatusCreateComplete, CreationTime: &older},
		{StackName: sdkaws.String("new"), StackId: sdkaws.String("id-new"), StackStatus: cftypes.StackStatusUpdateComplete, CreationTime: &newer},
	}}
	svc := newTestServices(&Clients{CloudFormation: cfn})
	ctx := context.Background()

	stacks, err := svc.ListStacks(ctx)
	require.NoError(t, err)
	require.Len(t, stacks, 2)
	require.Equal(t, "new", stacks[0].StackName)
	require.Equal(t, "UPDATE_COMPLETE", stacks[0].Status)

	id, err := svc.CreateStack(ctx, types.CreateStackInput{
		Environment:        "dev",
		StackName:          "demo",
		TemplateURL:        "https://example.com/t.yaml",
		Parameters:         map[string]string{"B": "2", "A": "1"},
		Capabilities:       []string{"CAPABILITY_IAM"},
		ClientRequestToken: "tok",
	})
	require.NoError(t, err)
	require.Equal(t, "arn:stack/demo", id)
	require.Nil(t, cfn.created.TemplateBody)
	require.Equal(t, "tok", *cfn.created.ClientRequestToken)
	require.Equal(t, "A", *cfn.created.Parameters[0].ParameterKey)
	require.Equal(t, cftypes.CapabilityCapabilityIam, cfn.created.Capabilities[0])

	cfn.createErr = &smithy.GenericAPIError{Code: "AlreadyExistsException", Message: "Stack [demo] already exists"}
	_, err = svc.CreateStack(ctx, types.CreateStackInput{StackName: "demo", TemplateBody: "{}"})
	require.ErrorIs(t, err, ErrStackExists)
	require.ErrorIs(t, err, ErrUpstream)

	require.NoError(t, svc.DeleteStack(ctx, "demo"))
	require.Equal(t, "demo", cfn.deleted)

	cfn.describeErr = &smithy.GenericAPIError{Code: "ValidationError", Message: "Stack with id ghost does not exist"}
	require.ErrorIs(t, svc.DeleteStack(ctx, "ghost"), ErrStackNotFound)

	cfn.describeErr = &smithy.GenericAPIError{Code: "AccessDenied", Message: "nope"}
	err = svc.DeleteStack(ctx, "demo")
	require.ErrorIs(t, err, ErrUpstream)
	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	require.Equal(t, "AccessDenied", ue.Code)
}

func TestDiscover(t *testing.T) {
	inv := fakeInventory{}
	clients := &Clients{EC2: inv, RDS: inv, EKS: inv, S3: inv, DynamoDB: inv}

	res, err := newTestServices(clients).Discover(context.Background())
	require.NoError(t, err)
	require.Equal(t, map[string]int{"ec2": 1, "rds": 1, "eks": 2, "s3": 2, "dynamodb": 1}, res.Counts())
	require.Equal(t, "web", res.EC2[0].Name)
	require.Equal(t, "running", res.EC2[0].State)
	require.Equal(t, "c1", res.EKS[0].Name)
	require.Equal(t, "ACTIVE", res.EKS[0].Status)
	require.Equal(t, "alpha", res.S3[0].Name)

	clients.EC2 = fakeInventory{ec2Err: errors.New("throttled")}
	_, err = newTestServices(clients).Discover(context.Background())
	require.ErrorIs(t, err, ErrUpstream)
}

func TestBedrockAndSageMaker(t *testing.T) {
	ai := &fakeAI{}
	svc := newTestServices(&Clients{Bedrock: ai, BedrockRuntime: ai, SageMaker: ai, SageMakerRuntime: ai})
	ctx := context.Background()

	models, err := svc.ListFoundationModels(ctx)
	require.NoError(t, err)
	require.Equal(t, []types.Model{{
		ModelID: "anthropic.claude-3-haiku-20240307-v1:0", ModelName: "Claude 3 Haiku", Provider: "Anthropic",
		InputModalities: []string{"TEXT", "IMAGE"}, OutputModalities: []string{"TEXT"}, Streaming: true,
	}}, models)

	body, err := svc.InvokeModel(ctx, "m", []byte(`{}`))
	require.NoError(t, err)
	require.JSONEq(t, `{"ok":true}`, string(body))
	require.Equal(t, "application/json", *ai.invoked.ContentType)

	endpoints, err := svc.ListEndpoints(ctx)
	require.NoError(t, err)
	require.Equal(t, "InService", endpoints[0].Status)

	out, err := svc.InvokeEndpoint(ctx, types.InvokeEndpointInput{EndpointName: "forecaster", Payload: []byte("x")})
	require.NoError(t, err)
	require.Equal(t, types.InvokeEndpointOutput{Body: "echo:x", ContentType: "application/json"}, out)
}
