package api

import (
	"net/http"

	"github.com/tgsai/aiops-console/internal/domain/types"
)

// AnomalyHandler serves the anomaly detection views and detector toggles.
type AnomalyHandler struct {
	deps         AnomalyDependencies
	maxBodyBytes int64
}

// NewAnomalyHandler creates a new anomaly handler.
func NewAnomalyHandler(deps AnomalyDependencies, maxBodyBytes int64) *AnomalyHandler {
	return &AnomalyHandler{deps: deps, maxBodyBytes: maxBodyBytes}
}

type anomaliesResponse struct {
	Anomalies []types.Anomaly `json:"anomalies"`
}

type toggleRequest struct {
	ID      string `json:"id"`
	Enabled bool   `json:"enabled"`
}

type anomalyResponse struct {
	Anomaly types.Anomaly `json:"anomaly"`
}

type resourcesResponse struct {
	Resources []types.ResourceHealth `json:"resources"`
}

type rootCauseRequest struct {
	Environment string `json:"environment"`
	AnomalyID   string `json:"anomalyId"`
	Notes       string `json:"notes"`
}

type rootCauseResponse struct {
	Analysis types.Analysis `json:"analysis"`
}

// HandleAnomalies handles GET and PUT /api/anomalies.
func (h *AnomalyHandler) HandleAnomalies(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, "api.anomalies", http.MethodGet, http.MethodPut) {
		return
	}
	if r.Method == http.MethodPut {
		h.handleToggle(w, r)
		return
	}
	h.handleList(w, r)
}

func (h *AnomalyHandler) handleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.anomalies.list"
	env, err := requiredQuery(r, "environment")
	if err != nil {
		fail(r.Context(), w, op, err)
		return
	}
	q := r.URL.Query()
	list, err := h.deps.ListAnomalies(r.Context(), env, q.Get("resourceType"), q.Get("resourceId"))
	if err != nil {
		fail(r.Context(), w, op, err)
		return
	}
	if list == nil {
		list = []types.Anomaly{}
	}
	writeJSON(w, http.StatusOK, anomaliesResponse{Anomalies: list})
}

func (h *AnomalyHandler) handleToggle(w http.ResponseWriter, r *http.Request) {
	const op = "api.anomalies.toggle"
	var req toggleRequest
	if err := decodeBody(r, h.maxBodyBytes, schemaToggleAnomaly, &req); err != nil {
		fail(r.Context(), w, op, err)
		return
	}
	a, err := h.deps.SetAnomalyEnabled(r.Context(), req.ID, req.Enabled)
	if err != nil {
		fail(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, anomalyResponse{Anomaly: a})
}

// HandleTimeSeries handles GET /api/anomalies/time-series.
func (h *AnomalyHandler) HandleTimeSeries(w http.ResponseWriter, r *http.Request) {
	const op = "api.anomalies.time_series"
	if !allowMethods(w, r, op, http.MethodGet) {
		return
	}
	env, err := requiredQuery(r, "environment")
	if err != nil {
		fail(r.Context(), w, op, err)
		return
	}
	rt, err := requiredQuery(r, "resourceType")
	if err != nil {
		fail(r.Context(), w, op, err)
		return
	}
	points, err := intQuery(r, "points")
	if err != nil {
		fail(r.Context(), w, op, err)
		return
	}
	q := r.URL.Query()
	series, err := h.deps.TimeSeries(r.Context(), env, rt, q.Get("resourceId"), q.Get("metric"), points)
	if err != nil {
		fail(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

// HandleResources handles GET /api/anomalies/resources.
func (h *AnomalyHandler) HandleResources(w http.ResponseWriter, r *http.Request) {
	const op = "api.anomalies.resources"
	if !allowMethods(w, r, op, http.MethodGet) {
		return
	}
	env, err := requiredQuery(r, "environment")
	if err != nil {
		fail(r.Context(), w, op, err)
		return
	}
	rt, err := requiredQuery(r, "resourceType")
	if err != nil {
		fail(r.Context(), w, op, err)
		return
	}
	count, err := intQuery(r, "count")
	if err != nil {
		fail(r.Context(), w, op, err)
		return
	}
	res, err := h.deps.ResourceHeatmap(r.Context(), env, rt, count)
	if err != nil {
		fail(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, resourcesResponse{Resources: res})
}

// HandleCorrelation handles GET /api/anomalies/correlation.
func (h *AnomalyHandler) HandleCorrelation(w http.ResponseWriter, r *http.Request) {
	const op = "api.anomalies.correlation"
	if !allowMethods(w, r, op, http.MethodGet) {
		return
	}
	env, err := requiredQuery(r, "environment")
	if err != nil {
		fail(r.Context(), w, op, err)
		return
	}
	corr, err := h.deps.Correlation(r.Context(), env, r.URL.Query().Get("anomalyId"))
	if err != nil {
		fail(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, corr)
}

// HandleRootCause handles POST /api/anomalies/rca.
func (h *AnomalyHandler) HandleRootCause(w http.ResponseWriter, r *http.Request) {
	const op = "api.anomalies.rca"
	if !allowMethods(w, r, op, http.MethodPost) {
		return
	}
	var req rootCauseRequest
	if err := decodeBody(r, h.maxBodyBytes, schemaRootCause, &req); err != nil {
		fail(r.Context(), w, op, err)
		return
	}
	analysis, err := h.deps.AnalyzeRootCause(r.Context(), req.Environment, req.AnomalyID, req.Notes)
	if err != nil {
		fail(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rootCauseResponse{Analysis: analysis})
}
