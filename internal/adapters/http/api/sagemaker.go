package api

import (
	"encoding/json"
	"net/http"

	"github.com/tgsai/aiops-console/internal/domain/types"
)

// SageMakerHandler serves the SageMaker endpoint routes.
type SageMakerHandler struct {
	deps         SageMakerDependencies
	maxBodyBytes int64
}

// NewSageMakerHandler creates a new SageMaker handler.
func NewSageMakerHandler(deps SageMakerDependencies, maxBodyBytes int64) *SageMakerHandler {
	return &SageMakerHandler{deps: deps, maxBodyBytes: maxBodyBytes}
}

// invokeRequest carries the payload as raw JSON. A JSON string payload is
// sent to the endpoint unquoted; anything else is sent as JSON.
type invokeRequest struct {
	Environment  string          `json:"environment"`
	EndpointName string          `json:"endpointName"`
	ContentType  string          `json:"contentType"`
	Payload      json.RawMessage `json:"payload"`
}

func (req invokeRequest) payload() []byte {
	var s string
	if err := json.Unmarshal(req.Payload, &s); err == nil {
		return []byte(s)
	}
	return req.Payload
}

// HandleEndpoints handles GET /api/sagemaker/endpoints?environment=.
func (h *SageMakerHandler) HandleEndpoints(w http.ResponseWriter, r *http.Request) {
	const op = "api.sagemaker.endpoints"
	if !allowMethods(w, r, op, http.MethodGet) {
		return
	}
	env, err := requiredQuery(r, "environment")
	if err != nil {
		fail(r.Context(), w, op, err)
		return
	}
	list := h.deps.Endpoints(r.Context(), env)
	if list.Endpoints == nil {
		list.Endpoints = []types.Endpoint{}
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleInvoke handles POST /api/sagemaker/invoke. It fails closed: missing
// credentials answer 503 and endpoint errors 502.
func (h *SageMakerHandler) HandleInvoke(w http.ResponseWriter, r *http.Request) {
	const op = "api.sagemaker.invoke"
	if !allowMethods(w, r, op, http.MethodPost) {
		return
	}
	var req invokeRequest
	if err := decodeBody(r, h.maxBodyBytes, schemaInvokeEndpoint, &req); err != nil {
		fail(r.Context(), w, op, err)
		return
	}
	out, err := h.deps.InvokeEndpoint(r.Context(), types.InvokeEndpointInput{
		Environment:  req.Environment,
		EndpointName: req.EndpointName,
		ContentType:  req.ContentType,
		Payload:      req.payload(),
	})
	if err != nil {
		fail(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
