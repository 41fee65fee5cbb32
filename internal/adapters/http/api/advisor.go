package api

import (
	"net/http"

	"github.com/tgsai/aiops-console/internal/domain/types"
)

// AdvisorHandler serves advisor recommendations.
type AdvisorHandler struct {
	deps AdvisorDependencies
}

// NewAdvisorHandler creates a new advisor handler.
func NewAdvisorHandler(deps AdvisorDependencies) *AdvisorHandler {
	return &AdvisorHandler{deps: deps}
}

type advisorResponse struct {
	Recommendations []types.Recommendation `json:"recommendations"`
	Summary         types.AdvisorSummary   `json:"summary"`
}

// HandleRecommendations handles GET /api/advisor?environment= requests.
func (h *AdvisorHandler) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	const op = "api.advisor"
	if !allowMethods(w, r, op, http.MethodGet) {
		return
	}
	env, err := requiredQuery(r, "environment")
	if err != nil {
		fail(r.Context(), w, op, err)
		return
	}
	recs, summary, err := h.deps.Recommendations(r.Context(), env)
	if err != nil {
		fail(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, advisorResponse{Recommendations: recs, Summary: summary})
}
