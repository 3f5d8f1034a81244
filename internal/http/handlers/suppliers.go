package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/depotmaster/internal/authz"
	httperrors "github.com/dropDatabas3/depotmaster/internal/http/errors"
	"github.com/dropDatabas3/depotmaster/internal/http/middlewares"
	"github.com/dropDatabas3/depotmaster/internal/store"
	"github.com/dropDatabas3/depotmaster/internal/store/core"
)

type SupplierHandler struct {
	suppliers store.SupplierRepository
	policy    *authz.Policy
	deps      middlewares.AuthDeps
}

func NewSupplierHandler(suppliers store.SupplierRepository, policy *authz.Policy, deps middlewares.AuthDeps) *SupplierHandler {
	return &SupplierHandler{suppliers: suppliers, policy: policy, deps: deps}
}

func (h *SupplierHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middlewares.RequireAuth(h.deps))
		r.Use(middlewares.RequireRule(h.policy, authz.RuleSupplierRead))
		r.Get("/v1/suppliers", h.list)
		r.Get("/v1/suppliers/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(middlewares.RequireAuth(h.deps))
		r.Use(middlewares.RequireRule(h.policy, authz.RuleSupplierWrite))
		r.Post("/v1/suppliers", h.create)
		r.Put("/v1/suppliers/{id}", h.update)
		r.Delete("/v1/suppliers/{id}", h.remove)
	})
}

type supplierRequest struct {
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person"`
	ContactPhone  string `json:"contact_phone"`
	ContactEmail  string `json:"contact_email"`
	Address       string `json:"address"`
	Country       string `json:"country"`
	Preferred     bool   `json:"preferred"`
	Notes         string `json:"notes"`
}

func (req *supplierRequest) apply(s *core.Supplier) {
	s.Name = req.Name
	s.ContactPerson = req.ContactPerson
	s.ContactPhone = req.ContactPhone
	s.ContactEmail = req.ContactEmail
	s.Address = req.Address
	s.Country = req.Country
	s.Preferred = req.Preferred
	s.Notes = req.Notes
}

type supplierView struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contact_person,omitempty"`
	ContactPhone  string    `json:"contact_phone,omitempty"`
	ContactEmail  string    `json:"contact_email,omitempty"`
	Address       string    `json:"address,omitempty"`
	Country       string    `json:"country,omitempty"`
	Preferred     bool      `json:"preferred"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toSupplierView(s *core.Supplier) supplierView {
	return supplierView{
		ID:            s.ID,
		Name:          s.Name,
		ContactPerson: s.ContactPerson,
		ContactPhone:  s.ContactPhone,
		ContactEmail:  s.ContactEmail,
		Address:       s.Address,
		Country:       s.Country,
		Preferred:     s.Preferred,
		Notes:         s.Notes,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func (h *SupplierHandler) list(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.suppliers.List(r.Context())
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrInternal.WithCause(err))
		return
	}
	out := make([]supplierView, 0, len(suppliers))
	for i := range suppliers {
		out = append(out, toSupplierView(&suppliers[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *SupplierHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s, err := h.suppliers.FindByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSupplierView(s))
}

func (h *SupplierHandler) create(w http.ResponseWriter, r *http.Request) {
	var req supplierRequest
	if err := readJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	if req.Name == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("name es obligatorio"))
		return
	}
	var s core.Supplier
	req.apply(&s)
	if err := h.suppliers.Insert(r.Context(), &s); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSupplierView(&s))
}

func (h *SupplierHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req supplierRequest
	if err := readJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	if req.Name == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("name es obligatorio"))
		return
	}
	s := core.Supplier{ID: id}
	req.apply(&s)
	if err := h.suppliers.Update(r.Context(), &s); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SupplierHandler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.suppliers.Delete(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
