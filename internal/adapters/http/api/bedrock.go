package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/tgsai/aiops-console/internal/domain/types"
)

// BedrockHandler serves the model catalog and the generation playground.
type BedrockHandler struct {
	deps         BedrockDependencies
	maxBodyBytes int64
}

// NewBedrockHandler creates a new Bedrock handler.
func NewBedrockHandler(deps BedrockDependencies, maxBodyBytes int64) *BedrockHandler {
	return &BedrockHandler{deps: deps, maxBodyBytes: maxBodyBytes}
}

type catalogResponse struct {
	Providers []types.Provider `json:"providers"`
	LoadedAt  time.Time        `json:"loadedAt"`
	ExpiresAt time.Time        `json:"expiresAt"`
	Source    string           `json:"source"`
	Error     string           `json:"error,omitempty"`
}

type modelsResponse struct {
	Models []types.Model `json:"models"`
}

// HandleCatalog handles GET /api/bedrock-models.
func (h *BedrockHandler) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	const op = "api.bedrock.catalog"
	if !allowMethods(w, r, op, http.MethodGet) {
		return
	}
	c, err := h.deps.Catalog(r.Context())
	if err != nil {
		fail(r.Context(), w, op, err)
		return
	}
	providers := c.Providers
	if providers == nil {
		providers = []types.Provider{}
	}
	writeJSON(w, http.StatusOK, catalogResponse{
		Providers: providers,
		LoadedAt:  c.LoadedAt,
		ExpiresAt: c.ExpiresAt,
		Source:    c.Source,
		Error:     c.Error,
	})
}

// HandleModels handles GET /api/bedrock/models with an optional provider filter.
func (h *BedrockHandler) HandleModels(w http.ResponseWriter, r *http.Request) {
	const op = "api.bedrock.models"
	if !allowMethods(w, r, op, http.MethodGet) {
		return
	}
	c, err := h.deps.Catalog(r.Context())
	if err != nil {
		fail(r.Context(), w, op, err)
		return
	}
	models := c.ByProvider(strings.TrimSpace(r.URL.Query().Get("provider")))
	if models == nil {
		models = []types.Model{}
	}
	writeJSON(w, http.StatusOK, modelsResponse{Models: models})
}

// HandleGenerate handles POST /api/bedrock/generate.
func (h *BedrockHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	const op = "api.bedrock.generate"
	if !allowMethods(w, r, op, http.MethodPost) {
		return
	}
	var in types.GenerateInput
	if err := decodeBody(r, h.maxBodyBytes, schemaGenerate, &in); err != nil {
		fail(r.Context(), w, op, err)
		return
	}
	gen, err := h.deps.Generate(r.Context(), in)
	if err != nil {
		fail(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, gen)
}
