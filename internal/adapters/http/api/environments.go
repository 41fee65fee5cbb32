package api

import (
	"net/http"

	"github.com/tgsai/aiops-console/internal/domain/environment"
)

// EnvironmentHandler lists the environments the console can switch between.
type EnvironmentHandler struct {
	deps EnvironmentDependencies
}

// NewEnvironmentHandler creates a new environment handler.
func NewEnvironmentHandler(deps EnvironmentDependencies) *EnvironmentHandler {
	return &EnvironmentHandler{deps: deps}
}

type environmentsResponse struct {
	Environments []environment.Info `json:"environments"`
	Default      string             `json:"default"`
}

// HandleList handles GET /api/environments requests.
func (h *EnvironmentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, "api.environments", http.MethodGet) {
		return
	}
	envs, def := h.deps.Environments()
	writeJSON(w, http.StatusOK, environmentsResponse{Environments: envs, Default: def})
}
