// Package site serves the embedded landing page.
package site

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrServe is returned when the landing page cannot be loaded.
var ErrServe = errors.New("site serve failed")

// Register attaches the landing page to mux. The catch-all pattern answers
// 404 for every path other than "/".
func Register(_ context.Context, mux *http.ServeMux) error {
	if mux == nil {
		panic("mux is nil")
	}
	h, err := NewRootHandler()
	if err != nil {
		return err
	}
	mux.HandleFunc("/", h.HandleRoot)
	return nil
}

// RootHandler serves the landing page.
type RootHandler struct {
	index []byte
}

// NewRootHandler loads the embedded landing page.
func NewRootHandler() (*RootHandler, error) {
	index, err := Index()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrServe, err)
	}
	return &RootHandler{index: index}, nil
}

// HandleRoot handles GET / requests.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(h.index)
}
