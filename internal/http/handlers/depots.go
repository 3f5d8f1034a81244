package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/depotmaster/internal/authz"
	httperrors "github.com/dropDatabas3/depotmaster/internal/http/errors"
	"github.com/dropDatabas3/depotmaster/internal/http/middlewares"
	"github.com/dropDatabas3/depotmaster/internal/store"
	"github.com/dropDatabas3/depotmaster/internal/store/core"
)

// DepotHandler expone depots, secciones e items. Lecturas bajo RuleDepotRead,
// escrituras bajo RuleDepotWrite.
type DepotHandler struct {
	depots store.DepotRepository
	policy *authz.Policy
	deps   middlewares.AuthDeps
}

func NewDepotHandler(depots store.DepotRepository, policy *authz.Policy, deps middlewares.AuthDeps) *DepotHandler {
	return &DepotHandler{depots: depots, policy: policy, deps: deps}
}

func (h *DepotHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middlewares.RequireAuth(h.deps))
		r.Use(middlewares.RequireRule(h.policy, authz.RuleDepotRead))
		r.Get("/v1/depots", h.list)
		r.Get("/v1/depots/{id}", h.get)
		r.Get("/v1/depots/{id}/sections", h.listSections)
		r.Get("/v1/depots/{id}/items", h.listItems)
	})
	r.Group(func(r chi.Router) {
		r.Use(middlewares.RequireAuth(h.deps))
		r.Use(middlewares.RequireRule(h.policy, authz.RuleDepotWrite))
		r.Post("/v1/depots", h.create)
		r.Put("/v1/depots/{id}", h.update)
		r.Delete("/v1/depots/{id}", h.remove)
		r.Post("/v1/depots/{id}/sections", h.createSection)
		r.Post("/v1/depots/{id}/items", h.createItem)
		r.Put("/v1/depots/{id}/items/{itemID}", h.updateItem)
		r.Delete("/v1/depots/{id}/items/{itemID}", h.removeItem)
	})
}

type depotRequest struct {
	Name         string `json:"name"`
	Address      string `json:"address"`
	ContactPhone string `json:"contact_phone"`
	ContactEmail string `json:"contact_email"`
	PostalCode   string `json:"postal_code"`
	Capacity     int    `json:"capacity"`
	IsActive     *bool  `json:"is_active"`
	Description  string `json:"description"`
	ManagerName  string `json:"manager_name"`
}

func (req *depotRequest) apply(d *core.Depot) {
	d.Name = req.Name
	d.Address = req.Address
	d.ContactPhone = req.ContactPhone
	d.ContactEmail = req.ContactEmail
	d.PostalCode = req.PostalCode
	d.Capacity = req.Capacity
	d.IsActive = req.IsActive == nil || *req.IsActive
	d.Description = req.Description
	d.ManagerName = req.ManagerName
}

type depotView struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Address      string    `json:"address,omitempty"`
	ContactPhone string    `json:"contact_phone,omitempty"`
	ContactEmail string    `json:"contact_email,omitempty"`
	PostalCode   string    `json:"postal_code,omitempty"`
	Capacity     int       `json:"capacity"`
	IsActive     bool      `json:"is_active"`
	Description  string    `json:"description,omitempty"`
	ManagerName  string    `json:"manager_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toDepotView(d *core.Depot) depotView {
	return depotView{
		ID:           d.ID,
		Name:         d.Name,
		Address:      d.Address,
		ContactPhone: d.ContactPhone,
		ContactEmail: d.ContactEmail,
		PostalCode:   d.PostalCode,
		Capacity:     d.Capacity,
		IsActive:     d.IsActive,
		Description:  d.Description,
		ManagerName:  d.ManagerName,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type sectionRequest struct {
	SectionName   string  `json:"section_name"`
	CabinetNumber int     `json:"cabinet_number"`
	ShelfNumber   int     `json:"shelf_number"`
	Capacity      int     `json:"capacity"`
	MaxWeight     float64 `json:"max_weight"`
	TempControl   bool    `json:"temp_control"`
	HumidityCtl   bool    `json:"humidity_control"`
	Description   string  `json:"description"`
}

type sectionView struct {
	ID            int64     `json:"id"`
	DepotID       int64     `json:"depot_id"`
	SectionName   string    `json:"section_name"`
	CabinetNumber int       `json:"cabinet_number"`
	ShelfNumber   int       `json:"shelf_number"`
	Capacity      int       `json:"capacity"`
	MaxWeight     float64   `json:"max_weight"`
	TempControl   bool      `json:"temp_control"`
	HumidityCtl   bool      `json:"humidity_control"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toSectionView(s *core.DepotSection) sectionView {
	return sectionView{
		ID:            s.ID,
		DepotID:       s.DepotID,
		SectionName:   s.SectionName,
		CabinetNumber: s.CabinetNumber,
		ShelfNumber:   s.ShelfNumber,
		Capacity:      s.Capacity,
		MaxWeight:     s.MaxWeight,
		TempControl:   s.TempControl,
		HumidityCtl:   s.HumidityCtl,
		Description:   s.Description,
		CreatedAt:     s.CreatedAt,
	}
}

type itemRequest struct {
	SectionID   *int64     `json:"section_id"`
	SupplierID  *int64     `json:"supplier_id"`
	Name        string     `json:"name"`
	Barcode     string     `json:"barcode"`
	Weight      float64    `json:"weight"`
	Quantity    int        `json:"quantity"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Price       float64    `json:"price"`
	ImageKey    string     `json:"image_key"`
	ReceivedAt  *time.Time `json:"received_at"`
}

func (req *itemRequest) apply(it *core.DepotItem) {
	it.SectionID = req.SectionID
	it.SupplierID = req.SupplierID
	it.Name = req.Name
	it.Barcode = req.Barcode
	it.Weight = req.Weight
	it.Quantity = req.Quantity
	it.Description = req.Description
	it.Status = req.Status
	it.Price = req.Price
	it.ImageKey = req.ImageKey
	it.ReceivedAt = req.ReceivedAt
}

type itemView struct {
	ID          int64      `json:"id"`
	DepotID     int64      `json:"depot_id"`
	SectionID   *int64     `json:"section_id,omitempty"`
	SupplierID  *int64     `json:"supplier_id,omitempty"`
	Name        string     `json:"name"`
	Barcode     string     `json:"barcode,omitempty"`
	Weight      float64    `json:"weight"`
	Quantity    int        `json:"quantity"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status,omitempty"`
	Price       float64    `json:"price"`
	ImageKey    string     `json:"image_key,omitempty"`
	ReceivedAt  *time.Time `json:"received_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toItemView(it *core.DepotItem) itemView {
	return itemView{
		ID:          it.ID,
		DepotID:     it.DepotID,
		SectionID:   it.SectionID,
		SupplierID:  it.SupplierID,
		Name:        it.Name,
		Barcode:     it.Barcode,
		Weight:      it.Weight,
		Quantity:    it.Quantity,
		Description: it.Description,
		Status:      it.Status,
		Price:       it.Price,
		ImageKey:    it.ImageKey,
		ReceivedAt:  it.ReceivedAt,
		CreatedAt:   it.CreatedAt,
		UpdatedAt:   it.UpdatedAt,
	}
}

func (h *DepotHandler) list(w http.ResponseWriter, r *http.Request) {
	depots, err := h.depots.List(r.Context())
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrInternal.WithCause(err))
		return
	}
	out := make([]depotView, 0, len(depots))
	for i := range depots {
		out = append(out, toDepotView(&depots[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *DepotHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	d, err := h.depots.FindByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDepotView(d))
}

func (h *DepotHandler) create(w http.ResponseWriter, r *http.Request) {
	var req depotRequest
	if err := readJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	if req.Name == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("name es obligatorio"))
		return
	}
	var d core.Depot
	req.apply(&d)
	if err := h.depots.Insert(r.Context(), &d); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDepotView(&d))
}

func (h *DepotHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req depotRequest
	if err := readJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	if req.Name == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("name es obligatorio"))
		return
	}
	d := core.Depot{ID: id}
	req.apply(&d)
	if err := h.depots.Update(r.Context(), &d); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DepotHandler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.depots.Delete(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DepotHandler) listSections(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sections, err := h.depots.ListSections(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	out := make([]sectionView, 0, len(sections))
	for i := range sections {
		out = append(out, toSectionView(&sections[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *DepotHandler) createSection(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req sectionRequest
	if err := readJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	if req.SectionName == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("section_name es obligatorio"))
		return
	}
	s := core.DepotSection{
		DepotID:       id,
		SectionName:   req.SectionName,
		CabinetNumber: req.CabinetNumber,
		ShelfNumber:   req.ShelfNumber,
		Capacity:      req.Capacity,
		MaxWeight:     req.MaxWeight,
		TempControl:   req.TempControl,
		HumidityCtl:   req.HumidityCtl,
		Description:   req.Description,
	}
	if err := h.depots.InsertSection(r.Context(), &s); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSectionView(&s))
}

func (h *DepotHandler) listItems(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	items, err := h.depots.ListItems(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	out := make([]itemView, 0, len(items))
	for i := range items {
		out = append(out, toItemView(&items[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *DepotHandler) createItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req itemRequest
	if err := readJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	if req.Name == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("name es obligatorio"))
		return
	}
	it := core.DepotItem{DepotID: id}
	req.apply(&it)
	if err := h.depots.InsertItem(r.Context(), &it); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toItemView(&it))
}

func (h *DepotHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	depotID, ok := pathID(w, r)
	if !ok {
		return
	}
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil || itemID <= 0 {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("itemID inválido"))
		return
	}
	var req itemRequest
	if err := readJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	it := core.DepotItem{ID: itemID, DepotID: depotID}
	req.apply(&it)
	if err := h.depots.UpdateItem(r.Context(), &it); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DepotHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	if _, ok := pathID(w, r); !ok {
		return
	}
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil || itemID <= 0 {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("itemID inválido"))
		return
	}
	if err := h.depots.DeleteItem(r.Context(), itemID); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeStoreError mapea los sentinels del store a errores HTTP genéricos.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
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
