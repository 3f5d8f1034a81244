package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/depotmaster/internal/auth"
	httperrors "github.com/dropDatabas3/depotmaster/internal/http/errors"
	"github.com/dropDatabas3/depotmaster/internal/http/middlewares"
	"github.com/dropDatabas3/depotmaster/internal/mail"
	"github.com/dropDatabas3/depotmaster/internal/observability/logger"
	"github.com/dropDatabas3/depotmaster/internal/rate"
	"github.com/dropDatabas3/depotmaster/internal/store"
	"github.com/dropDatabas3/depotmaster/internal/store/core"
)

// AuthHandler expone login, registro, perfil y cambio de password.
type AuthHandler struct {
	svc      *auth.Service
	events   store.AuthEventRepository
	deps     middlewares.AuthDeps
	notifier *mail.Notifier
	limiter  rate.Limiter
}

func NewAuthHandler(svc *auth.Service, repos *store.Store, deps middlewares.AuthDeps, notifier *mail.Notifier, limiter rate.Limiter) *AuthHandler {
	return &AuthHandler{svc: svc, events: repos.AuthEvents, deps: deps, notifier: notifier, limiter: limiter}
}

func (h *AuthHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.With(middlewares.WithLoginRateLimit(h.limiter)).Post("/v1/auth/login", h.login)
		r.Post("/v1/auth/register", h.register)
	})
	r.Group(func(r chi.Router) {
		r.Use(middlewares.RequireAuth(h.deps))
		r.Get("/v1/auth/me", h.me)
		r.Get("/v1/auth/events", h.listEvents)
	})
	r.Group(func(r chi.Router) {
		// único endpoint tolerado bajo PasswordResetRequired
		r.Use(middlewares.RequireAuth(h.deps, auth.GatePasswordResetRequired))
		r.Post("/v1/auth/password", h.changePassword)
	})
}

type loginRequest struct {
	Login  string `json:"login"`
	Secret string `json:"secret"`
	Code   string `json:"code,omitempty"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      userView  `json:"user"`
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	if req.Login == "" || req.Secret == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields)
		return
	}

	res, err := h.svc.Authenticate(r.Context(), auth.LoginInput{
		Login:    req.Login,
		Secret:   req.Secret,
		Code:     req.Code,
		SourceIP: middlewares.ClientIP(r),
	})
	if err != nil {
		writeAuthError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		User:      toUserView(res.User),
	})
}

// registerRequest no acepta grupo: el alta pública siempre nace sin permisos
// y solo un admin (PUT /v1/users/{id}/group) puede asignar uno.
type registerRequest struct {
	Login       string `json:"login"`
	Secret      string `json:"secret"`
	Name        string `json:"name,omitempty"`
	Surname     string `json:"surname,omitempty"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := readJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}

	u, err := h.svc.Register(r.Context(), auth.RegisterInput{
		Login:       req.Login,
		Secret:      req.Secret,
		Name:        req.Name,
		Surname:     req.Surname,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		writeAuthError(w, err)
		return
	}

	if h.notifier != nil {
		if err := h.notifier.Welcome(u.Email, u.Login); err != nil {
			logger.Named("http").Warn("mail de bienvenida falló", logger.UserID(u.ID), logger.Err(err))
		}
	}
	writeJSON(w, http.StatusCreated, toUserView(u))
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	u := middlewares.GetUser(r.Context())
	writeJSON(w, http.StatusOK, toUserView(u))
}

type changePasswordRequest struct {
	CurrentSecret string `json:"current_secret"`
	NewSecret     string `json:"new_secret"`
}

func (h *AuthHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := readJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	u := middlewares.GetUser(r.Context())
	if err := h.svc.ChangePassword(r.Context(), u.ID, req.CurrentSecret, req.NewSecret); err != nil {
		writeAuthError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type authEventView struct {
	ID       int64     `json:"id"`
	AuthTime time.Time `json:"auth_time"`
	SourceIP string    `json:"source_ip"`
}

func (h *AuthHandler) listEvents(w http.ResponseWriter, r *http.Request) {
	u := middlewares.GetUser(r.Context())
	evs, err := h.events.ListByUser(r.Context(), u.ID, 50)
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrInternal.WithCause(err))
		return
	}
	out := make([]authEventView, 0, len(evs))
	for _, ev := range evs {
		out = append(out, authEventView{ID: ev.ID, AuthTime: ev.AuthTime, SourceIP: ev.SourceIP})
	}
	writeJSON(w, http.StatusOK, out)
}

// writeAuthError mapea errores del dominio auth al catálogo HTTP.
func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrBadCredentials):
		httperrors.WriteError(w, httperrors.ErrInvalidCredentials)
	case errors.Is(err, auth.ErrBlocked):
		httperrors.WriteError(w, httperrors.ErrAccountBlocked)
	case errors.Is(err, auth.ErrPasswordResetRequired):
		httperrors.WriteError(w, httperrors.ErrPasswordResetRequired)
	case errors.Is(err, auth.ErrSecondFactorRequired):
		httperrors.WriteError(w, httperrors.ErrSecondFactorRequired)
	case errors.Is(err, auth.ErrCodeInvalid):
		httperrors.WriteError(w, httperrors.ErrCodeInvalid)
	case errors.Is(err, auth.ErrNotEnrolled):
		httperrors.WriteError(w, httperrors.ErrSecondFactorNotEnrolled)
	case errors.Is(err, core.ErrLoginTaken):
		httperrors.WriteError(w, httperrors.ErrLoginTaken)
	case errors.Is(err, core.ErrEmailTaken):
		httperrors.WriteError(w, httperrors.ErrEmailTaken)
	case errors.Is(err, core.ErrConflict):
		httperrors.WriteError(w, httperrors.ErrConflict)
	case errors.Is(err, core.ErrInvalid):
		httperrors.WriteError(w, httperrors.ErrMissingFields)
	case errors.Is(err, core.ErrNotFound):
		httperrors.WriteError(w, httperrors.ErrNotFound)
	default:
		httperrors.WriteError(w, httperrors.ErrInternal.WithCause(err))
	}
}
