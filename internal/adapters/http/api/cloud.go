package api

import (
	"net/http"
)

// CloudHandler serves the read-only AWS views and the forecast. The AWS
// views always answer 200; the payload's source tells whether it came from
// AWS or was generated.
type CloudHandler struct {
	deps CloudDependencies
}

// NewCloudHandler creates a new cloud handler.
func NewCloudHandler(deps CloudDependencies) *CloudHandler {
	return &CloudHandler{deps: deps}
}

// HandleCost handles GET /api/cost?environment=&days=.
func (h *CloudHandler) HandleCost(w http.ResponseWriter, r *http.Request) {
	const op = "api.cost"
	if !allowMethods(w, r, op, http.MethodGet) {
		return
	}
	env, err := requiredQuery(r, "environment")
	if err != nil {
		fail(r.Context(), w, op, err)
		return
	}
	days, err := intQuery(r, "days")
	if err != nil {
		fail(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Cost(r.Context(), env, days))
}

// HandleSecurity handles GET /api/security?environment=.
func (h *CloudHandler) HandleSecurity(w http.ResponseWriter, r *http.Request) {
	const op = "api.security"
	if !allowMethods(w, r, op, http.MethodGet) {
		return
	}
	env, err := requiredQuery(r, "environment")
	if err != nil {
		fail(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Security(r.Context(), env))
}

// HandleDiscover handles GET /api/discover?environment=.
func (h *CloudHandler) HandleDiscover(w http.ResponseWriter, r *http.Request) {
	const op = "api.discover"
	if !allowMethods(w, r, op, http.MethodGet) {
		return
	}
	env, err := requiredQuery(r, "environment")
	if err != nil {
		fail(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Discover(r.Context(), env))
}

// HandlePredictive handles GET /api/predictive?environment=&metric=&history=&horizon=.
func (h *CloudHandler) HandlePredictive(w http.ResponseWriter, r *http.Request) {
	const op = "api.predictive"
	if !allowMethods(w, r, op, http.MethodGet) {
		return
	}
	env, err := requiredQuery(r, "environment")
	if err != nil {
		fail(r.Context(), w, op, err)
		return
	}
	history, err := intQuery(r, "history")
	if err != nil {
		fail(r.Context(), w, op, err)
		return
	}
	horizon, err := intQuery(r, "horizon")
	if err != nil {
		fail(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Forecast(r.Context(), env, r.URL.Query().Get("metric"), history, horizon))
}
