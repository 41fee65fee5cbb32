package api

import (
	"fmt"
	"net/http"
)

// StatsProvider reports service statistics keyed by section.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves the service statistics.
type StatsHandler struct {
	statsProvider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsProvider StatsProvider) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider}
}

// HandleStats handles GET /stats requests. The optional section parameter
// narrows the answer to one key, e.g. ?section=detectors.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.stats"
	if !allowMethods(w, r, op, http.MethodGet) {
		return
	}
	stats := h.statsProvider.GetStats()
	section := r.URL.Query().Get("section")
	if section == "" {
		writeJSON(w, http.StatusOK, stats)
		return
	}
	v, ok := stats[section]
	if !ok {
		fail(r.Context(), w, op, fmt.Errorf("%w: stats section %q", ErrNotFound, section))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{section: v})
}
