package api

import (
	"net/http"
	"strings"

	"github.com/tgsai/aiops-console/internal/domain/types"
)

// StackHandler serves the CloudFormation stack routes.
type StackHandler struct {
	deps         StackDependencies
	maxBodyBytes int64
}

// NewStackHandler creates a new stack handler.
func NewStackHandler(deps StackDependencies, maxBodyBytes int64) *StackHandler {
	return &StackHandler{deps: deps, maxBodyBytes: maxBodyBytes}
}

type createStackResponse struct {
	StackID   string `json:"stackId"`
	Duplicate bool   `json:"duplicate"`
}

type deleteStackResponse struct {
	Deleted   bool   `json:"deleted"`
	StackName string `json:"stackName"`
}

// HandleStacks handles GET and POST /api/stacks.
func (h *StackHandler) HandleStacks(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, "api.stacks", http.MethodGet, http.MethodPost) {
		return
	}
	if r.Method == http.MethodPost {
		h.handleCreate(w, r)
		return
	}
	h.handleList(w, r)
}

func (h *StackHandler) handleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.stacks.list"
	env, err := requiredQuery(r, "environment")
	if err != nil {
		fail(r.Context(), w, op, err)
		return
	}
	list := h.deps.Stacks(r.Context(), env)
	if list.Stacks == nil {
		list.Stacks = []types.Stack{}
	}
	writeJSON(w, http.StatusOK, list)
}

// handleCreate answers 201 for a new submission and 200 when the
// clientRequestToken was already used.
func (h *StackHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.stacks.create"
	var in types.CreateStackInput
	if err := decodeBody(r, h.maxBodyBytes, schemaCreateStack, &in); err != nil {
		fail(r.Context(), w, op, err)
		return
	}
	id, duplicate, err := h.deps.CreateStack(r.Context(), in)
	if err != nil {
		fail(r.Context(), w, op, err)
		return
	}
	status := http.StatusCreated
	if duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, createStackResponse{StackID: id, Duplicate: duplicate})
}

// HandleDelete handles DELETE /api/stacks/{stackName}?environment=.
func (h *StackHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.stacks.delete"
	if !allowMethods(w, r, op, http.MethodDelete) {
		return
	}
	name := strings.TrimSpace(r.PathValue("stackName"))
	if name == "" {
		fail(r.Context(), w, op, NewKind("missing stackName", ErrBadRequest))
		return
	}
	env, err := requiredQuery(r, "environment")
	if err != nil {
		fail(r.Context(), w, op, err)
		return
	}
	if err := h.deps.DeleteStack(r.Context(), env, name); err != nil {
		fail(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteStackResponse{Deleted: true, StackName: name})
}
