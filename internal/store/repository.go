// Package store define los verbos de persistencia que consume el core y los
// adapters que los implementan (pg para producción, memory para dev/tests).
package store

import (
	"context"
	"time"

	"github.com/dropDatabas3/depotmaster/internal/store/core"
)

// UserRepository expone los verbos estrechos sobre usuarios. Las lecturas de
// flags de estado van siempre contra el sistema de registro: el core no retiene
// usuarios más allá del scope de una operación.
type UserRepository interface {
	// FindByLogin busca por login normalizado (lower). core.ErrNotFound si no existe.
	FindByLogin(ctx context.Context, login string) (*core.User, error)
	FindByID(ctx context.Context, id string) (*core.User, error)

	// Insert crea el usuario respetando unicidad de login (case-insensitive) y
	// email. Devuelve core.ErrLoginTaken o core.ErrEmailTaken en conflicto; un
	// insert en conflicto jamás pisa el registro existente.
	Insert(ctx context.Context, u *core.User) error

	SetBlocked(ctx context.Context, id string, blocked bool) error
	SetRequiresPasswordReset(ctx context.Context, id string, required bool) error
	SetTwoFactorEnabled(ctx context.Context, id string, enabled bool) error
	SetGroup(ctx context.Context, id string, groupID int64) error
	UpdateStatus(ctx context.Context, id string, status string) error

	// UpdatePasswordSecret reemplaza el PHC y limpia requires_password_reset.
	UpdatePasswordSecret(ctx context.Context, id string, phc string) error

	List(ctx context.Context) ([]core.User, error)
	CountByGroup(ctx context.Context, groupID int64) (int64, error)
}

type GroupRepository interface {
	FindByID(ctx context.Context, id int64) (*core.Group, error)
	List(ctx context.Context) ([]core.Group, error)

	// Insert asigna g.ID.
	Insert(ctx context.Context, g *core.Group) error

	// ReplaceRules actualiza nombre y set de rules de forma atómica y entera
	// (sin merge parcial).
	ReplaceRules(ctx context.Context, id int64, name string, rules []int) error

	// Delete borra el grupo. Devuelve core.ErrGroupInUse si algún usuario aún
	// lo referencia (la FK en pg lo garantiza incluso bajo carrera).
	Delete(ctx context.Context, id int64) error
}

// AuthEventRepository es el log de auditoría append-only.
type AuthEventRepository interface {
	Append(ctx context.Context, ev *core.AuthEvent) error
	ListByUser(ctx context.Context, userID string, limit int) ([]core.AuthEvent, error)
}

type TOTPRepository interface {
	// Upsert instala un secreto nuevo invalidando el anterior: resetea
	// confirmed_at y last_counter. Nunca conviven dos secretos vivos.
	Upsert(ctx context.Context, userID, secret string) error

	// Get devuelve (nil, nil) si el usuario no tiene secreto.
	Get(ctx context.Context, userID string) (*core.TOTPSecret, error)

	Confirm(ctx context.Context, userID string, at time.Time) error

	// SetLastCounter persiste el contador consumido (anti-replay entre requests).
	SetLastCounter(ctx context.Context, userID string, counter int64) error

	Delete(ctx context.Context, userID string) error
}

type DepotRepository interface {
	Insert(ctx context.Context, d *core.Depot) error
	FindByID(ctx context.Context, id int64) (*core.Depot, error)
	List(ctx context.Context) ([]core.Depot, error)
	Update(ctx context.Context, d *core.Depot) error
	Delete(ctx context.Context, id int64) error

	InsertSection(ctx context.Context, s *core.DepotSection) error
	ListSections(ctx context.Context, depotID int64) ([]core.DepotSection, error)

	InsertItem(ctx context.Context, it *core.DepotItem) error
	ListItems(ctx context.Context, depotID int64) ([]core.DepotItem, error)
	UpdateItem(ctx context.Context, it *core.DepotItem) error
	DeleteItem(ctx context.Context, id int64) error
}

type SupplierRepository interface {
	Insert(ctx context.Context, s *core.Supplier) error
	FindByID(ctx context.Context, id int64) (*core.Supplier, error)
	List(ctx context.Context) ([]core.Supplier, error)
	Update(ctx context.Context, s *core.Supplier) error
	Delete(ctx context.Context, id int64) error
}

type AttachmentRepository interface {
	Insert(ctx context.Context, a *core.Attachment) error
	FindByID(ctx context.Context, id string) (*core.Attachment, error)
	List(ctx context.Context) ([]core.Attachment, error)
	Delete(ctx context.Context, id string) error
}

// Store agrupa todos los repositorios de un backend.
type Store struct {
	Users       UserRepository
	Groups      GroupRepository
	AuthEvents  AuthEventRepository
	TOTP        TOTPRepository
	Depots      DepotRepository
	Suppliers   SupplierRepository
	Attachments AttachmentRepository
}
