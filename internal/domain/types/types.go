// Package types contains the response shapes shared by the domain and HTTP layers.
package types

import "time"

// Data sources reported in Provenance.Source.
const (
	SourceAWS       = "aws"
	SourceMock      = "mock"
	SourceBedrock   = "bedrock"
	SourceSimulated = "simulated"
)

// Provenance records where a payload came from. Error is set when an AWS
// call failed and the payload fell back to generated data.
type Provenance struct {
	Source string `json:"source"`
	Error  string `json:"error,omitempty"`
}

// Anomaly is a scored irregularity together with its detector state.
type Anomaly struct {
	ID           string    `json:"id"`
	Environment  string    `json:"environment"`
	ResourceType string    `json:"resourceType"`
	ResourceID   string    `json:"resourceId"`
	Metric       string    `json:"metric"`
	Source       string    `json:"source"` // logs, metrics or traces
	Score        float64   `json:"score"`
	Severity     string    `json:"severity"`
	Description  string    `json:"description"`
	Enabled      bool      `json:"enabled"`
	DetectedAt   time.Time `json:"detectedAt"`
}

// SeriesPoint is one chart-ready observation with its expected band.
type SeriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Expected  float64   `json:"expected"`
	Upper     float64   `json:"upper"`
	Lower     float64   `json:"lower"`
	Score     float64   `json:"score"`
	Anomaly   bool      `json:"anomaly"`
}

// TimeSeries is a metric series for one resource.
type TimeSeries struct {
	Environment  string        `json:"environment"`
	ResourceType string        `json:"resourceType"`
	ResourceID   string        `json:"resourceId"`
	Metric       string        `json:"metric"`
	Unit         string        `json:"unit"`
	Series       []SeriesPoint `json:"series"`
}

// ResourceHealth is one heatmap cell row.
type ResourceHealth struct {
	ResourceID   string  `json:"resourceId"`
	Name         string  `json:"name"`
	ResourceType string  `json:"resourceType"`
	CPU          float64 `json:"cpu"`
	Memory       float64 `json:"memory"`
	Network      float64 `json:"network"`
	Disk         float64 `json:"disk"`
	AnomalyScore float64 `json:"anomalyScore"`
	Status       string  `json:"status"` // healthy, warning, critical
}

// CorrelationNode is a signal participating in a correlation graph.
type CorrelationNode struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	Type  string  `json:"type"`
	Score float64 `json:"score"`
}

// CorrelationLink connects two nodes with a strength in [0,1].
type CorrelationLink struct {
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Strength float64 `json:"strength"`
}

// CorrelatedEvent is a timeline entry near the anomaly.
type CorrelatedEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Message   string    `json:"message"`
	Severity  string    `json:"severity"`
}

// Correlation groups the signals related to an anomaly.
type Correlation struct {
	AnomalyID string            `json:"anomalyId"`
	Nodes     []CorrelationNode `json:"nodes"`
	Links     []CorrelationLink `json:"links"`
	Events    []CorrelatedEvent `json:"events"`
}

// Analysis is a root cause analysis result.
type Analysis struct {
	RootCause   string   `json:"rootCause"`
	Evidence    []string `json:"evidence"`
	Suggestions []string `json:"suggestions"`
	Confidence  float64  `json:"confidence"`
	Source      string   `json:"source"`
	ModelID     string   `json:"modelId,omitempty"`
}

// Recommendation is an advisor finding.
type Recommendation struct {
	ID                      string   `json:"id"`
	Category                string   `json:"category"`
	Title                   string   `json:"title"`
	Description             string   `json:"description"`
	Impact                  string   `json:"impact"`
	Status                  string   `json:"status"`
	EstimatedMonthlySavings float64  `json:"estimatedMonthlySavings"`
	ResourceIDs             []string `json:"resourceIds"`
}

// AdvisorSummary aggregates recommendations.
type AdvisorSummary struct {
	Total                   int            `json:"total"`
	ByCategory              map[string]int `json:"byCategory"`
	ByImpact                map[string]int `json:"byImpact"`
	EstimatedMonthlySavings float64        `json:"estimatedMonthlySavings"`
}

// ServiceCost is spend for one AWS service.
type ServiceCost struct {
	Service string  `json:"service"`
	Amount  float64 `json:"amount"`
}

// DailyCost is spend for one day.
type DailyCost struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// CostReport is the /api/cost payload.
type CostReport struct {
	Provenance
	Environment string        `json:"environment"`
	Currency    string        `json:"currency"`
	Total       float64       `json:"total"`
	ByService   []ServiceCost `json:"byService"`
	Daily       []DailyCost   `json:"daily"`
}

// Finding is a security finding.
type Finding struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Severity     string `json:"severity"`
	ResourceType string `json:"resourceType"`
	ResourceID   string `json:"resourceId"`
	Status       string `json:"status"`
	UpdatedAt    string `json:"updatedAt"`
}

// SecurityReport is the /api/security payload. Score is in [0,100].
type SecurityReport struct {
	Provenance
	Environment string         `json:"environment"`
	Findings    []Finding      `json:"findings"`
	Summary     map[string]int `json:"summary"`
	Score       float64        `json:"score"`
}

// Instance is an EC2 instance.
type Instance struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Type             string     `json:"type"`
	State            string     `json:"state"`
	AvailabilityZone string     `json:"availabilityZone"`
	LaunchTime       *time.Time `json:"launchTime,omitempty"`
}

// Database is an RDS instance.
type Database struct {
	ID     string `json:"id"`
	Class  string `json:"class"`
	Engine string `json:"engine"`
	Status string `json:"status"`
}

// Cluster is an EKS cluster.
type Cluster struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Status   string `json:"status"`
	Endpoint string `json:"endpoint,omitempty"`
}

// Bucket is an S3 bucket.
type Bucket struct {
	Name      string     `json:"name"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// Table is a DynamoDB table.
type Table struct {
	Name string `json:"name"`
}

// Resources groups discovered inventory by service.
type Resources struct {
	EC2      []Instance `json:"ec2"`
	RDS      []Database `json:"rds"`
	EKS      []Cluster  `json:"eks"`
	S3       []Bucket   `json:"s3"`
	DynamoDB []Table    `json:"dynamodb"`
}

// Counts returns the number of resources per service.
func (r Resources) Counts() map[string]int {
	return map[string]int{
		"ec2":      len(r.EC2),
		"rds":      len(r.RDS),
		"eks":      len(r.EKS),
		"s3":       len(r.S3),
		"dynamodb": len(r.DynamoDB),
	}
}

// Inventory is the /api/discover payload.
type Inventory struct {
	Provenance
	Environment string         `json:"environment"`
	Resources   Resources      `json:"resources"`
	Counts      map[string]int `json:"counts"`
}

// Stack is a CloudFormation stack summary.
type Stack struct {
	StackName    string     `json:"stackName"`
	StackID      string     `json:"stackId"`
	Status       string     `json:"status"`
	Description  string     `json:"description,omitempty"`
	CreationTime *time.Time `json:"creationTime,omitempty"`
}

// StackList is the GET /api/stacks payload.
type StackList struct {
	Provenance
	Stacks []Stack `json:"stacks"`
}

// CreateStackInput describes a stack to create.
type CreateStackInput struct {
	Environment        string            `json:"environment"`
	StackName          string            `json:"stackName"`
	TemplateBody       string            `json:"templateBody,omitempty"`
	TemplateURL        string            `json:"templateUrl,omitempty"`
	Parameters         map[string]string `json:"parameters,omitempty"`
	Capabilities       []string          `json:"capabilities,omitempty"`
	ClientRequestToken string            `json:"clientRequestToken,omitempty"`
}

// ForecastPoint is one predicted value with its confidence band.
type ForecastPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Lower     float64   `json:"lower"`
	Upper     float64   `json:"upper"`
}

// Prediction flags a resource expected to breach a threshold.
type Prediction struct {
	ResourceID        string     `json:"resourceId"`
	Metric            string     `json:"metric"`
	Threshold         float64    `json:"threshold"`
	PredictedBreachAt *time.Time `json:"predictedBreachAt,omitempty"`
	Probability       float64    `json:"probability"`
	Recommendation    string     `json:"recommendation"`
}

// Forecast is the /api/predictive payload.
type Forecast struct {
	Environment string          `json:"environment"`
	Metric      string          `json:"metric"`
	Unit        string          `json:"unit"`
	History     []ForecastPoint `json:"history"`
	Forecast    []ForecastPoint `json:"forecast"`
	Predictions []Prediction    `json:"predictions"`
}

// Model is a foundation model in the catalog.
type Model struct {
	ModelID          string   `json:"modelId" yaml:"modelId"`
	ModelName        string   `json:"modelName" yaml:"modelName"`
	Provider         string   `json:"provider" yaml:"provider"`
	InputModalities  []string `json:"inputModalities" yaml:"inputModalities"`
	OutputModalities []string `json:"outputModalities" yaml:"outputModalities"`
	Streaming        bool     `json:"streaming" yaml:"streaming"`
}

// Provider groups catalog models by provider.
type Provider struct {
	Name   string  `json:"name"`
	Models []Model `json:"models"`
}

// GenerateInput is a text generation request.
type GenerateInput struct {
	Environment string  `json:"environment,omitempty"`
	ModelID     string  `json:"modelId"`
	Prompt      string  `json:"prompt"`
	System      string  `json:"system,omitempty"`
	MaxTokens   int     `json:"maxTokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	TopP        float64 `json:"topP,omitempty"`
}

// Usage reports token counts when the model returns them.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// Generation is a text generation result.
type Generation struct {
	Completion string `json:"completion"`
	ModelID    string `json:"modelId"`
	Provider   string `json:"provider"`
	Source     string `json:"source"`
	Usage      Usage  `json:"usage"`
	Error      string `json:"error,omitempty"`
}

// Endpoint is a SageMaker endpoint summary.
type Endpoint struct {
	Name         string     `json:"name"`
	Status       string     `json:"status"`
	InstanceType string     `json:"instanceType,omitempty"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
}

// EndpointList is the GET /api/sagemaker/endpoints payload.
type EndpointList struct {
	Provenance
	Endpoints []Endpoint `json:"endpoints"`
}

// InvokeEndpointInput is a SageMaker invocation request.
type InvokeEndpointInput struct {
	Environment  string `json:"environment"`
	EndpointName string `json:"endpointName"`
	ContentType  string `json:"contentType,omitempty"`
	Payload      []byte `json:"-"`
}

// InvokeEndpointOutput is the endpoint response.
type InvokeEndpointOutput struct {
	Body        string `json:"body"`
	ContentType string `json:"contentType"`
}
