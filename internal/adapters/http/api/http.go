// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	awsadapter "github.com/tgsai/aiops-console/internal/adapters/aws"
	repository "github.com/tgsai/aiops-console/internal/adapters/repository"
	"github.com/tgsai/aiops-console/internal/domain/bedrock"
	"github.com/tgsai/aiops-console/internal/domain/catalog"
	"github.com/tgsai/aiops-console/internal/domain/dedupe"
	"github.com/tgsai/aiops-console/internal/domain/environment"
	"github.com/tgsai/aiops-console/internal/domain/mockdata"
	"github.com/tgsai/aiops-console/internal/domain/types"
	"github.com/tgsai/aiops-console/pkg/logger"
)

// EnvironmentDependencies describes the configured environments.
type EnvironmentDependencies interface {
	Environments() ([]environment.Info, string)
}

// AdvisorDependencies produces advisor recommendations.
type AdvisorDependencies interface {
	Recommendations(ctx context.Context, env string) ([]types.Recommendation, types.AdvisorSummary, error)
}

// AnomalyDependencies backs the anomaly detection routes.
type AnomalyDependencies interface {
	ListAnomalies(ctx context.Context, env, resourceType, resourceID string) ([]types.Anomaly, error)
	SetAnomalyEnabled(ctx context.Context, id string, enabled bool) (types.Anomaly, error)
	TimeSeries(ctx context.Context, env, resourceType, resourceID, metric string, points int) (types.TimeSeries, error)
	ResourceHeatmap(ctx context.Context, env, resourceType string, count int) ([]types.ResourceHealth, error)
	Correlation(ctx context.Context, env, anomalyID string) (types.Correlation, error)
	AnalyzeRootCause(ctx context.Context, env, anomalyID, notes string) (types.Analysis, error)
}

// BedrockDependencies backs the model catalog and playground routes.
type BedrockDependencies interface {
	Catalog(ctx context.Context) (*catalog.Catalog, error)
	Generate(ctx context.Context, in types.GenerateInput) (types.Generation, error)
}

// StackDependencies backs the CloudFormation routes.
type StackDependencies interface {
	Stacks(ctx context.Context, env string) types.StackList
	CreateStack(ctx context.Context, in types.CreateStackInput) (string, bool, error)
	DeleteStack(ctx context.Context, env, stackName string) error
}

// CloudDependencies backs the read-only AWS views and the forecast.
type CloudDependencies interface {
	Cost(ctx context.Context, env string, days int) types.CostReport
	Security(ctx context.Context, env string) types.SecurityReport
	Discover(ctx context.Context, env string) types.Inventory
	Forecast(ctx context.Context, env, metric string, history, horizon int) types.Forecast
}

// SageMakerDependencies backs the SageMaker routes.
type SageMakerDependencies interface {
	Endpoints(ctx context.Context, env string) types.EndpointList
	InvokeEndpoint(ctx context.Context, in types.InvokeEndpointInput) (types.InvokeEndpointOutput, error)
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	EnvironmentDependencies
	AdvisorDependencies
	AnomalyDependencies
	BedrockDependencies
	StackDependencies
	CloudDependencies
	SageMakerDependencies
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the logger used for request and error logging.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	logger       logger.Logger
	maxBodyBytes int64

	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	environmentHandler *EnvironmentHandler
	advisorHandler     *AdvisorHandler
	anomalyHandler     *AnomalyHandler
	bedrockHandler     *BedrockHandler
	stackHandler       *StackHandler
	cloudHandler       *CloudHandler
	sagemakerHandler   *SageMakerHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{maxBodyBytes: defaultMaxBodyBytes}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("api")
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.environmentHandler = NewEnvironmentHandler(deps)
	s.advisorHandler = NewAdvisorHandler(deps)
	s.anomalyHandler = NewAnomalyHandler(deps, s.maxBodyBytes)
	s.bedrockHandler = NewBedrockHandler(deps, s.maxBodyBytes)
	s.stackHandler = NewStackHandler(deps, s.maxBodyBytes)
	s.cloudHandler = NewCloudHandler(deps)
	s.sagemakerHandler = NewSageMakerHandler(deps, s.maxBodyBytes)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, MetricsMiddleware(RequestIDMiddleware(h, s.logger), endpoint))
	}

	route("/healthz", "healthz", s.healthHandler.HandleHealth)
	route("/stats", "stats", s.statsHandler.HandleStats)

	route("/api/environments", "environments", s.environmentHandler.HandleList)
	route("/api/advisor", "advisor", s.advisorHandler.HandleRecommendations)

	route("/api/anomalies", "anomalies", s.anomalyHandler.HandleAnomalies)
	route("/api/anomalies/time-series", "anomalies_time_series", s.anomalyHandler.HandleTimeSeries)
	route("/api/anomalies/resources", "anomalies_resources", s.anomalyHandler.HandleResources)
	route("/api/anomalies/correlation", "anomalies_correlation", s.anomalyHandler.HandleCorrelation)
	route("/api/anomalies/rca", "anomalies_rca", s.anomalyHandler.HandleRootCause)

	route("/api/bedrock-models", "bedrock_catalog", s.bedrockHandler.HandleCatalog)
	route("/api/bedrock/models", "bedrock_models", s.bedrockHandler.HandleModels)
	route("/api/bedrock/generate", "bedrock_generate", s.bedrockHandler.HandleGenerate)

	route("/api/stacks", "stacks", s.stackHandler.HandleStacks)
	route("/api/stacks/{stackName}", "stacks_delete", s.stackHandler.HandleDelete)

	route("/api/cost", "cost", s.cloudHandler.HandleCost)
	route("/api/security", "security", s.cloudHandler.HandleSecurity)
	route("/api/discover", "discover", s.cloudHandler.HandleDiscover)
	route("/api/predictive", "predictive", s.cloudHandler.HandlePredictive)

	route("/api/sagemaker/endpoints", "sagemaker_endpoints", s.sagemakerHandler.HandleEndpoints)
	route("/api/sagemaker/invoke", "sagemaker_invoke", s.sagemakerHandler.HandleInvoke)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// statusFor maps an error to its HTTP status and machine code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge, "body_too_large"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, repository.ErrInvalidID),
		errors.Is(err, repository.ErrNoEnvironment):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, mockdata.ErrUnknownResourceType):
		return http.StatusBadRequest, "unknown_resource_type"
	case errors.Is(err, bedrock.ErrUnsupportedModel):
		return http.StatusBadRequest, "unsupported_model"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "detector_not_found"
	case errors.Is(err, awsadapter.ErrStackNotFound):
		return http.StatusNotFound, "stack_not_found"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, awsadapter.ErrStackExists):
		return http.StatusConflict, "stack_exists"
	case errors.Is(err, dedupe.ErrInFlight):
		return http.StatusConflict, "request_in_progress"
	case errors.Is(err, awsadapter.ErrCredentialsMissing):
		return http.StatusServiceUnavailable, "credentials_missing"
	case errors.Is(err, awsadapter.ErrUpstream):
		return http.StatusBadGateway, "upstream_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// fail writes err with its mapped status. Server errors are logged.
func fail(ctx context.Context, w http.ResponseWriter, op string, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		loggerFrom(ctx).Error(ctx, "request failed", logger.String("op", op), logger.Error(err))
	}
	writeError(w, status, code, Wrap(op, err))
}
