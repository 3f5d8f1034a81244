// Package authz resuelve permisos: un usuario pertenece a un grupo y el grupo
// porta un set de rule ids. La semántica de cada rule vive en los handlers.
package authz

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dropDatabas3/depotmaster/internal/cache"
	"github.com/dropDatabas3/depotmaster/internal/observability/logger"
	"github.com/dropDatabas3/depotmaster/internal/store"
	"github.com/dropDatabas3/depotmaster/internal/store/core"
)

// groupTTL acota la ventana de un cache desactualizado si otro proceso tocó
// el grupo por fuera de este Policy. Las escrituras propias invalidan al toque.
const groupTTL = 5 * time.Minute

// Policy chequea membresía de rules y administra grupos. El cache es
// opcional; con nil todo va directo al store.
type Policy struct {
	groups store.GroupRepository
	users  store.UserRepository
	cache  cache.Client
}

func NewPolicy(repos *store.Store, c cache.Client) *Policy {
	return &Policy{groups: repos.Groups, users: repos.Users, cache: c}
}

// Check responde si el grupo del usuario otorga la rule pedida. Grupo sin
// rules no otorga nada.
func (p *Policy) Check(ctx context.Context, u *core.User, rule int) (bool, error) {
	if u.GroupID == 0 {
		return false, nil
	}
	g, err := p.getGroup(ctx, u.GroupID)
	if err != nil {
		if err == core.ErrNotFound {
			// usuario apuntando a un grupo borrado: negar, no explotar
			logger.Named("authz").Warn("usuario con grupo inexistente",
				logger.UserID(u.ID), logger.GroupID(u.GroupID))
			return false, nil
		}
		return false, err
	}
	for _, r := range g.Rules {
		if r == rule {
			return true, nil
		}
	}
	return false, nil
}

// CreateGroup da de alta un grupo con su set inicial de rules.
func (p *Policy) CreateGroup(ctx context.Context, name string, rules []int) (*core.Group, error) {
	if name == "" {
		return nil, core.ErrInvalid
	}
	g := &core.Group{Name: name, Rules: dedupe(rules)}
	if err := p.groups.Insert(ctx, g); err != nil {
		return nil, err
	}
	logger.Named("authz").Info("grupo creado", logger.GroupID(g.ID), logger.String("name", name))
	return g, nil
}

// UpdateGroup reemplaza nombre y rules enteros, sin merge parcial.
func (p *Policy) UpdateGroup(ctx context.Context, id int64, name string, rules []int) error {
	if name == "" {
		return core.ErrInvalid
	}
	if err := p.groups.ReplaceRules(ctx, id, name, dedupe(rules)); err != nil {
		return err
	}
	p.invalidate(ctx, id)
	return nil
}

// DeleteGroup rehúsa borrar mientras algún usuario referencie el grupo
// (core.ErrGroupInUse); no hay reasignación implícita. La FK del schema cubre
// la carrera entre el conteo y el delete.
func (p *Policy) DeleteGroup(ctx context.Context, id int64) error {
	n, err := p.users.CountByGroup(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return core.ErrGroupInUse
	}
	if err := p.groups.Delete(ctx, id); err != nil {
		return err
	}
	p.invalidate(ctx, id)
	logger.Named("authz").Info("grupo borrado", logger.GroupID(id))
	return nil
}

func (p *Policy) GetGroup(ctx context.Context, id int64) (*core.Group, error) {
	return p.groups.FindByID(ctx, id)
}

func (p *Policy) ListGroups(ctx context.Context) ([]core.Group, error) {
	return p.groups.List(ctx)
}

func (p *Policy) getGroup(ctx context.Context, id int64) (*core.Group, error) {
	if p.cache == nil {
		return p.groups.FindByID(ctx, id)
	}
	key := groupKey(id)
	if raw, err := p.cache.Get(ctx, key); err == nil {
		var g core.Group
		if json.Unmarshal([]byte(raw), &g) == nil {
			return &g, nil
		}
	}
	g, err := p.groups.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(g); err == nil {
		_ = p.cache.Set(ctx, key, string(raw), groupTTL)
	}
	return g, nil
}

func (p *Policy) invalidate(ctx context.Context, id int64) {
	if p.cache != nil {
		_ = p.cache.Delete(ctx, groupKey(id))
	}
}

func groupKey(id int64) string { return fmt.Sprintf("authz:group:%d", id) }

func dedupe(rules []int) []int {
	seen := make(map[int]struct{}, len(rules))
	out := make([]int, 0, len(rules))
	for _, r := range rules {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
