// Package memory implementa los repositorios sobre maps en proceso. Lo usan
// los tests y el modo dev sin Postgres; la semántica de errores es la misma
// que la del adapter pg.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dropDatabas3/depotmaster/internal/store"
	"github.com/dropDatabas3/depotmaster/internal/store/core"
)

// Store es el backend en memoria. Un solo mutex alcanza: es para dev/tests,
// no para servir tráfico real.
type Store struct {
	mu sync.Mutex

	users  map[string]*core.User
	groups map[int64]*core.Group
	events []core.AuthEvent
	totp   map[string]*core.TOTPSecret

	depots   map[int64]*core.Depot
	sections map[int64]*core.DepotSection
	items    map[int64]*core.DepotItem

	suppliers   map[int64]*core.Supplier
	attachments map[string]*core.Attachment

	nextGroupID    int64
	nextEventID    int64
	nextDepotID    int64
	nextSectionID  int64
	nextItemID     int64
	nextSupplierID int64
}

func New() *Store {
	return &Store{
		users:       make(map[string]*core.User),
		groups:      make(map[int64]*core.Group),
		totp:        make(map[string]*core.TOTPSecret),
		depots:      make(map[int64]*core.Depot),
		sections:    make(map[int64]*core.DepotSection),
		items:       make(map[int64]*core.DepotItem),
		suppliers:   make(map[int64]*core.Supplier),
		attachments: make(map[string]*core.Attachment),
	}
}

// Ping siempre responde ok: no hay backend externo que pueda caerse.
func (s *Store) Ping(_ context.Context) error { return nil }

// Repos arma el agregado store.Store sobre este backend.
func (s *Store) Repos() *store.Store {
	return &store.Store{
		Users:       (*userRepo)(s),
		Groups:      (*groupRepo)(s),
		AuthEvents:  (*authEventRepo)(s),
		TOTP:        (*totpRepo)(s),
		Depots:      (*depotRepo)(s),
		Suppliers:   (*supplierRepo)(s),
		Attachments: (*attachmentRepo)(s),
	}
}

// ---- users ----

type userRepo Store

func (r *userRepo) FindByLogin(_ context.Context, login string) (*core.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Login, login) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (r *userRepo) FindByID(_ context.Context, id string) (*core.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *userRepo) Insert(_ context.Context, u *core.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.GroupID != 0 {
		if _, ok := r.groups[u.GroupID]; !ok {
			return core.ErrNotFound
		}
	}
	for _, ex := range r.users {
		if strings.EqualFold(ex.Login, u.Login) {
			return core.ErrLoginTaken
		}
		if ex.Email == u.Email {
			return core.ErrEmailTaken
		}
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *userRepo) mutate(id string, fn func(*core.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return core.ErrNotFound
	}
	fn(u)
	return nil
}

func (r *userRepo) SetBlocked(_ context.Context, id string, blocked bool) error {
	return r.mutate(id, func(u *core.User) { u.IsBlocked = blocked })
}

func (r *userRepo) SetRequiresPasswordReset(_ context.Context, id string, required bool) error {
	return r.mutate(id, func(u *core.User) { u.RequiresPasswordReset = required })
}

func (r *userRepo) SetTwoFactorEnabled(_ context.Context, id string, enabled bool) error {
	return r.mutate(id, func(u *core.User) { u.TwoFactorEnabled = enabled })
}

func (r *userRepo) SetGroup(_ context.Context, id string, groupID int64) error {
	if groupID != 0 {
		r.mu.Lock()
		_, ok := r.groups[groupID]
		r.mu.Unlock()
		if !ok {
			return core.ErrNotFound
		}
	}
	return r.mutate(id, func(u *core.User) { u.GroupID = groupID })
}

func (r *userRepo) UpdateStatus(_ context.Context, id string, status string) error {
	return r.mutate(id, func(u *core.User) { u.Status = status })
}

func (r *userRepo) UpdatePasswordSecret(_ context.Context, id string, phc string) error {
	return r.mutate(id, func(u *core.User) {
		u.PasswordSecret = phc
		u.RequiresPasswordReset = false
	})
}

func (r *userRepo) List(_ context.Context) ([]core.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *userRepo) CountByGroup(_ context.Context, groupID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.users {
		if u.GroupID == groupID {
			n++
		}
	}
	return n, nil
}

// ---- groups ----

type groupRepo Store

func (r *groupRepo) FindByID(_ context.Context, id int64) (*core.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *g
	cp.Rules = append([]int(nil), g.Rules...)
	return &cp, nil
}

func (r *groupRepo) List(_ context.Context) ([]core.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.Group, 0, len(r.groups))
	for _, g := range r.groups {
		cp := *g
		cp.Rules = append([]int(nil), g.Rules...)
		out = append(out, cp)
	}
	return out, nil
}

func (r *groupRepo) Insert(_ context.Context, g *core.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ex := range r.groups {
		if ex.Name == g.Name {
			return core.ErrConflict
		}
	}
	r.nextGroupID++
	g.ID = r.nextGroupID
	cp := *g
	cp.Rules = append([]int(nil), g.Rules...)
	r.groups[g.ID] = &cp
	return nil
}

func (r *groupRepo) ReplaceRules(_ context.Context, id int64, name string, rules []int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[id]
	if !ok {
		return core.ErrNotFound
	}
	g.Name = name
	g.Rules = append([]int(nil), rules...)
	return nil
}

func (r *groupRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[id]; !ok {
		return core.ErrNotFound
	}
	for _, u := range r.users {
		if u.GroupID == id {
			return core.ErrGroupInUse
		}
	}
	delete(r.groups, id)
	return nil
}

// ---- auth events ----

type authEventRepo Store

func (r *authEventRepo) Append(_ context.Context, ev *core.AuthEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextEventID++
	ev.ID = r.nextEventID
	if ev.AuthTime.IsZero() {
		ev.AuthTime = time.Now().UTC()
	}
	r.events = append(r.events, *ev)
	return nil
}

func (r *authEventRepo) ListByUser(_ context.Context, userID string, limit int) ([]core.AuthEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	var out []core.AuthEvent
	for i := len(r.events) - 1; i >= 0 && len(out) < limit; i-- {
		if r.events[i].UserID == userID {
			out = append(out, r.events[i])
		}
	}
	return out, nil
}

// ---- totp ----

type totpRepo Store

func (r *totpRepo) Upsert(_ context.Context, userID, secret string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	t, ok := r.totp[userID]
	if !ok {
		r.totp[userID] = &core.TOTPSecret{
			UserID:    userID,
			Secret:    secret,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return nil
	}
	t.Secret = secret
	t.LastCounter = 0
	t.ConfirmedAt = nil
	t.UpdatedAt = now
	return nil
}

func (r *totpRepo) Get(_ context.Context, userID string) (*core.TOTPSecret, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.totp[userID]
	if !ok {
		return nil, nil
	}
	cp := *t
	if t.ConfirmedAt != nil {
		at := *t.ConfirmedAt
		cp.ConfirmedAt = &at
	}
	return &cp, nil
}

func (r *totpRepo) Confirm(_ context.Context, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.totp[userID]
	if !ok {
		return core.ErrNotFound
	}
	t.ConfirmedAt = &at
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *totpRepo) SetLastCounter(_ context.Context, userID string, counter int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.totp[userID]
	if !ok {
		return core.ErrNotFound
	}
	if counter > t.LastCounter {
		t.LastCounter = counter
	}
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *totpRepo) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.totp, userID)
	return nil
}
