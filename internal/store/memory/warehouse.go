package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dropDatabas3/depotmaster/internal/store/core"
)

// ---- depots ----

type depotRepo Store

func (r *depotRepo) Insert(_ context.Context, d *core.Depot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextDepotID++
	d.ID = r.nextDepotID
	now := time.Now().UTC()
	d.CreatedAt, d.UpdatedAt = now, now
	cp := *d
	r.depots[d.ID] = &cp
	return nil
}

func (r *depotRepo) FindByID(_ context.Context, id int64) (*core.Depot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.depots[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *depotRepo) List(_ context.Context) ([]core.Depot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.Depot, 0, len(r.depots))
	for _, d := range r.depots {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *depotRepo) Update(_ context.Context, d *core.Depot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ex, ok := r.depots[d.ID]
	if !ok {
		return core.ErrNotFound
	}
	d.CreatedAt = ex.CreatedAt
	d.UpdatedAt = time.Now().UTC()
	cp := *d
	r.depots[d.ID] = &cp
	return nil
}

func (r *depotRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.depots[id]; !ok {
		return core.ErrNotFound
	}
	delete(r.depots, id)
	for sid, s := range r.sections {
		if s.DepotID == id {
			delete(r.sections, sid)
		}
	}
	for iid, it := range r.items {
		if it.DepotID == id {
			delete(r.items, iid)
		}
	}
	return nil
}

func (r *depotRepo) InsertSection(_ context.Context, s *core.DepotSection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.depots[s.DepotID]; !ok {
		return core.ErrNotFound
	}
	r.nextSectionID++
	s.ID = r.nextSectionID
	s.CreatedAt = time.Now().UTC()
	cp := *s
	r.sections[s.ID] = &cp
	return nil
}

func (r *depotRepo) ListSections(_ context.Context, depotID int64) ([]core.DepotSection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []core.DepotSection
	for _, s := range r.sections {
		if s.DepotID == depotID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CabinetNumber != out[j].CabinetNumber {
			return out[i].CabinetNumber < out[j].CabinetNumber
		}
		return out[i].ShelfNumber < out[j].ShelfNumber
	})
	return out, nil
}

func (r *depotRepo) InsertItem(_ context.Context, it *core.DepotItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.depots[it.DepotID]; !ok {
		return core.ErrNotFound
	}
	r.nextItemID++
	it.ID = r.nextItemID
	now := time.Now().UTC()
	it.CreatedAt, it.UpdatedAt = now, now
	cp := *it
	r.items[it.ID] = &cp
	return nil
}

func (r *depotRepo) ListItems(_ context.Context, depotID int64) ([]core.DepotItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []core.DepotItem
	for _, it := range r.items {
		if it.DepotID == depotID {
			out = append(out, *it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *depotRepo) UpdateItem(_ context.Context, it *core.DepotItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ex, ok := r.items[it.ID]
	if !ok {
		return core.ErrNotFound
	}
	it.CreatedAt = ex.CreatedAt
	it.UpdatedAt = time.Now().UTC()
	cp := *it
	r.items[it.ID] = &cp
	return nil
}

func (r *depotRepo) DeleteItem(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return core.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

// ---- suppliers ----

type supplierRepo Store

func (r *supplierRepo) Insert(_ context.Context, s *core.Supplier) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextSupplierID++
	s.ID = r.nextSupplierID
	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now
	cp := *s
	r.suppliers[s.ID] = &cp
	return nil
}

func (r *supplierRepo) FindByID(_ context.Context, id int64) (*core.Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.suppliers[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *supplierRepo) List(_ context.Context) ([]core.Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.Supplier, 0, len(r.suppliers))
	for _, s := range r.suppliers {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *supplierRepo) Update(_ context.Context, s *core.Supplier) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ex, ok := r.suppliers[s.ID]
	if !ok {
		return core.ErrNotFound
	}
	s.CreatedAt = ex.CreatedAt
	s.UpdatedAt = time.Now().UTC()
	cp := *s
	r.suppliers[s.ID] = &cp
	return nil
}

func (r *supplierRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.suppliers[id]; !ok {
		return core.ErrNotFound
	}
	delete(r.suppliers, id)
	return nil
}

// ---- attachments ----

type attachmentRepo Store

func (r *attachmentRepo) Insert(_ context.Context, a *core.Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.attachments[a.ID]; ok {
		return core.ErrConflict
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	cp := *a
	r.attachments[a.ID] = &cp
	return nil
}

func (r *attachmentRepo) FindByID(_ context.Context, id string) (*core.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attachments[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *attachmentRepo) List(_ context.Context) ([]core.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.Attachment, 0, len(r.attachments))
	for _, a := range r.attachments {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *attachmentRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.attachments[id]; !ok {
		return core.ErrNotFound
	}
	delete(r.attachments, id)
	return nil
}
