package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/depotmaster/internal/authz"
	httperrors "github.com/dropDatabas3/depotmaster/internal/http/errors"
	"github.com/dropDatabas3/depotmaster/internal/http/middlewares"
	"github.com/dropDatabas3/depotmaster/internal/store/core"
)

// GroupHandler expone el CRUD de grupos, solo para RuleGroupAdmin.
type GroupHandler struct {
	policy *authz.Policy
	deps   middlewares.AuthDeps
}

func NewGroupHandler(policy *authz.Policy, deps middlewares.AuthDeps) *GroupHandler {
	return &GroupHandler{policy: policy, deps: deps}
}

func (h *GroupHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middlewares.RequireAuth(h.deps))
		r.Use(middlewares.RequireRule(h.policy, authz.RuleGroupAdmin))
		r.Get("/v1/groups", h.list)
		r.Post("/v1/groups", h.create)
		r.Get("/v1/groups/{id}", h.get)
		r.Put("/v1/groups/{id}", h.update)
		r.Delete("/v1/groups/{id}", h.remove)
	})
}

type groupRequest struct {
	Name  string `json:"name"`
	Rules []int  `json:"rules"`
}

func (h *GroupHandler) list(w http.ResponseWriter, r *http.Request) {
	groups, err := h.policy.ListGroups(r.Context())
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrInternal.WithCause(err))
		return
	}
	out := make([]groupView, 0, len(groups))
	for i := range groups {
		out = append(out, toGroupView(&groups[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *GroupHandler) create(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := readJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	g, err := h.policy.CreateGroup(r.Context(), req.Name, req.Rules)
	if err != nil {
		writeGroupError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGroupView(g))
}

func (h *GroupHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	g, err := h.policy.GetGroup(r.Context(), id)
	if err != nil {
		writeGroupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupView(g))
}

func (h *GroupHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req groupRequest
	if err := readJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	if err := h.policy.UpdateGroup(r.Context(), id, req.Name, req.Rules); err != nil {
		writeGroupError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *GroupHandler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.policy.DeleteGroup(r.Context(), id); err != nil {
		writeGroupError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pathID parsea el parámetro {id} de la ruta; escribe el error si es basura.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("id inválido"))
		return 0, false
	}
	return id, true
}

func writeGroupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrGroupInUse):
		httperrors.WriteError(w, httperrors.ErrGroupInUse)
	case errors.Is(err, core.ErrNotFound):
		httperrors.WriteError(w, httperrors.ErrNotFound)
	case errors.Is(err, core.ErrConflict):
		httperrors.WriteError(w, httperrors.ErrConflict)
	case errors.Is(err, core.ErrInvalid):
		httperrors.WriteError(w, httperrors.ErrMissingFields)
	default:
		httperrors.WriteError(w, httperrors.ErrInternal.WithCause(err))
	}
}
