package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/depotmaster/internal/authz"
	httperrors "github.com/dropDatabas3/depotmaster/internal/http/errors"
	"github.com/dropDatabas3/depotmaster/internal/http/middlewares"
	"github.com/dropDatabas3/depotmaster/internal/mail"
	"github.com/dropDatabas3/depotmaster/internal/observability/logger"
	"github.com/dropDatabas3/depotmaster/internal/store"
	"github.com/dropDatabas3/depotmaster/internal/store/core"
)

// UserAdminHandler expone la administración de cuentas (bloqueo, reset forzado,
// asignación de grupo). Todo bajo RuleUserAdmin.
type UserAdminHandler struct {
	users    store.UserRepository
	policy   *authz.Policy
	deps     middlewares.AuthDeps
	notifier *mail.Notifier
}

func NewUserAdminHandler(users store.UserRepository, policy *authz.Policy, deps middlewares.AuthDeps, notifier *mail.Notifier) *UserAdminHandler {
	return &UserAdminHandler{users: users, policy: policy, deps: deps, notifier: notifier}
}

func (h *UserAdminHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middlewares.RequireAuth(h.deps))
		r.Use(middlewares.RequireRule(h.policy, authz.RuleUserAdmin))
		r.Get("/v1/users", h.list)
		r.Get("/v1/users/{id}", h.get)
		r.Post("/v1/users/{id}/block", h.block)
		r.Post("/v1/users/{id}/unblock", h.unblock)
		r.Post("/v1/users/{id}/require-reset", h.requireReset)
		r.Put("/v1/users/{id}/group", h.setGroup)
	})
}

func (h *UserAdminHandler) list(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrInternal.WithCause(err))
		return
	}
	out := make([]userView, 0, len(users))
	for i := range users {
		out = append(out, toUserView(&users[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *UserAdminHandler) get(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeUserAdminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserView(u))
}

func (h *UserAdminHandler) block(w http.ResponseWriter, r *http.Request) {
	h.setBlocked(w, r, true)
}

func (h *UserAdminHandler) unblock(w http.ResponseWriter, r *http.Request) {
	h.setBlocked(w, r, false)
}

func (h *UserAdminHandler) setBlocked(w http.ResponseWriter, r *http.Request, blocked bool) {
	id := chi.URLParam(r, "id")
	// Un admin no puede bloquearse a sí mismo: quedaría sin forma de volver.
	if actor := middlewares.GetUser(r.Context()); actor != nil && blocked && actor.ID == id {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("no podés bloquear tu propia cuenta"))
		return
	}
	if err := h.users.SetBlocked(r.Context(), id, blocked); err != nil {
		writeUserAdminError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserAdminHandler) requireReset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	u, err := h.users.FindByID(r.Context(), id)
	if err != nil {
		writeUserAdminError(w, err)
		return
	}
	if err := h.users.SetRequiresPasswordReset(r.Context(), id, true); err != nil {
		writeUserAdminError(w, err)
		return
	}
	if h.notifier != nil && u.Email != "" {
		if err := h.notifier.PasswordResetNotice(u.Email, u.Login); err != nil {
			logger.Named("http").Warn("aviso de reset falló", logger.UserID(id), logger.Err(err))
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

type setGroupRequest struct {
	GroupID int64 `json:"group_id"`
}

func (h *UserAdminHandler) setGroup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req setGroupRequest
	if err := readJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	if req.GroupID <= 0 {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("group_id es obligatorio"))
		return
	}
	// Validamos que el grupo exista antes de tocar el usuario; la FK en pg lo
	// garantiza igual, pero así el cliente recibe un 404 legible.
	if _, err := h.policy.GetGroup(r.Context(), req.GroupID); err != nil {
		writeGroupError(w, err)
		return
	}
	if err := h.users.SetGroup(r.Context(), id, req.GroupID); err != nil {
		writeUserAdminError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeUserAdminError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		httperrors.WriteError(w, httperrors.ErrNotFound)
	default:
		httperrors.WriteError(w, httperrors.ErrInternal.WithCause(err))
	}
}
