package handlers

import (
	"encoding/base64"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/depotmaster/internal/auth"
	httperrors "github.com/dropDatabas3/depotmaster/internal/http/errors"
	"github.com/dropDatabas3/depotmaster/internal/http/middlewares"
)

// MFAHandler expone el ciclo de vida del segundo factor TOTP.
type MFAHandler struct {
	tf   *auth.TwoFactor
	deps middlewares.AuthDeps
}

func NewMFAHandler(tf *auth.TwoFactor, deps middlewares.AuthDeps) *MFAHandler {
	return &MFAHandler{tf: tf, deps: deps}
}

func (h *MFAHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		// verify tolera PendingSecondFactor: es el endpoint que saca de ese
		// estado a un token emitido antes de confirmar el secreto
		r.Use(middlewares.RequireAuth(h.deps, auth.GatePendingSecondFactor))
		r.Post("/v1/mfa/verify", h.verify)
	})
	r.Group(func(r chi.Router) {
		r.Use(middlewares.RequireAuth(h.deps))
		r.Post("/v1/mfa/enroll", h.enroll)
		r.Post("/v1/mfa/disable", h.disable)
	})
}

type enrollResponse struct {
	Secret string `json:"secret"`
	URI    string `json:"uri"`
	QRPNG  string `json:"qr_png"` // base64
}

func (h *MFAHandler) enroll(w http.ResponseWriter, r *http.Request) {
	u := middlewares.GetUser(r.Context())
	enr, err := h.tf.Enroll(r.Context(), u.ID)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, enrollResponse{
		Secret: enr.Secret,
		URI:    enr.URI,
		QRPNG:  base64.StdEncoding.EncodeToString(enr.QRPNG),
	})
}

type verifyRequest struct {
	Code string `json:"code"`
}

func (h *MFAHandler) verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := readJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	if req.Code == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields)
		return
	}
	u := middlewares.GetUser(r.Context())
	if err := h.tf.VerifyCode(r.Context(), u.ID, req.Code); err != nil {
		writeAuthError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MFAHandler) disable(w http.ResponseWriter, r *http.Request) {
	// body opcional: un enrolamiento sin confirmar se descarta sin código
	var req verifyRequest
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &req); err != nil {
			httperrors.WriteError(w, err)
			return
		}
	}
	u := middlewares.GetUser(r.Context())
	if err := h.tf.Disable(r.Context(), u.ID, req.Code); err != nil {
		writeAuthError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
