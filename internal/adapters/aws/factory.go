package aws

import (
	"context"
	"fmt"
	"sync"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrock"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sagemakerruntime"
	"github.com/aws/aws-sdk-go-v2/service/securityhub"

	"github.com/tgsai/aiops-console/internal/domain/environment"
)

const defaultCallTimeout = 10 * time.Second

// Clients holds one client per service.
type Clients struct {
	CostExplorer     CostExplorerAPI
	SecurityHub      SecurityHubAPI
	CloudFormation   CloudFormationAPI
	EC2              EC2API
	RDS              RDSAPI
	EKS              EKSAPI
	S3               S3API
	DynamoDB         DynamoDBAPI
	Bedrock          BedrockAPI
	BedrockRuntime   BedrockRuntimeAPI
	SageMaker        SageMakerAPI
	SageMakerRuntime SageMakerRuntimeAPI
}

// NewClients builds SDK clients from cfg.
func NewClients(cfg sdkaws.Config) *Clients {
	return &Clients{
		CostExplorer:     costexplorer.NewFromConfig(cfg),
		SecurityHub:      securityhub.NewFromConfig(cfg),
		CloudFormation:   cloudformation.NewFromConfig(cfg),
		EC2:              ec2.NewFromConfig(cfg),
		RDS:              rds.NewFromConfig(cfg),
		EKS:              eks.NewFromConfig(cfg),
		S3:               s3.NewFromConfig(cfg),
		DynamoDB:         dynamodb.NewFromConfig(cfg),
		Bedrock:          bedrock.NewFromConfig(cfg),
		BedrockRuntime:   bedrockruntime.NewFromConfig(cfg),
		SageMaker:        sagemaker.NewFromConfig(cfg),
		SageMakerRuntime: sagemakerruntime.NewFromConfig(cfg),
	}
}

// CredentialsFunc resolves the credentials of an environment.
type CredentialsFunc func(env string) environment.Credentials

// ConfigLoader turns credentials into an SDK config.
type ConfigLoader func(ctx context.Context, creds environment.Credentials) (sdkaws.Config, error)

// Option configures a Factory.
type Option func(*Factory)

// WithTimeout bounds every AWS call.
func WithTimeout(d time.Duration) Option {
	return func(f *Factory) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithConfigLoader overrides how SDK configs are loaded.
func WithConfigLoader(l ConfigLoader) Option {
	return func(f *Factory) {
		if l != nil {
			f.load = l
		}
	}
}

// WithClientBuilder overrides how clients are built from a config.
func WithClientBuilder(b func(sdkaws.Config) *Clients) Option {
	return func(f *Factory) {
		if b != nil {
			f.build = b
		}
	}
}

type cached struct {
	creds    environment.Credentials
	services *Services
}

// Factory builds per-environment services from injected credentials and
// caches them until the credentials change.
type Factory struct {
	resolve CredentialsFunc
	timeout time.Duration
	load    ConfigLoader
	build   func(sdkaws.Config) *Clients

	mu    sync.Mutex
	cache map[string]cached
}

// NewFactory creates a factory resolving credentials through resolve.
func NewFactory(resolve CredentialsFunc, opts ...Option) *Factory {
	f := &Factory{
		resolve: resolve,
		timeout: defaultCallTimeout,
		load:    LoadConfig,
		build:   NewClients,
		cache:   make(map[string]cached),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// LoadConfig loads an SDK config pinned to static credentials.
func LoadConfig(ctx context.Context, creds environment.Credentials) (sdkaws.Config, error) {
	provider := credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken)
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(creds.Region),
		config.WithCredentialsProvider(provider),
	)
	if err != nil {
		return sdkaws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

// Configured reports whether env has credentials.
func (f *Factory) Configured(env string) bool {
	return f.resolve != nil && f.resolve(env).Configured()
}

// Services returns the services of env. It returns ErrCredentialsMissing
// when env has no credentials.
func (f *Factory) Services(ctx context.Context, env string) (*Services, error) {
	if f.resolve == nil {
		return nil, ErrCredentialsMissing
	}
	env = environment.Normalize(env)
	creds := f.resolve(env)
	if !creds.Configured() {
		return nil, ErrCredentialsMissing
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.cache[env]; ok && c.creds == creds {
		return c.services, nil
	}
	cfg, err := f.load(ctx, creds)
	if err != nil {
		return nil, err
	}
	svc := &Services{clients: f.build(cfg), timeout: f.timeout, region: creds.Region}
	f.cache[env] = cached{creds: creds, services: svc}
	return svc, nil
}
