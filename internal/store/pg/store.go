// Package pg implementa los repositorios sobre PostgreSQL con pgxpool.
package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/depotmaster/internal/store"
	"github.com/dropDatabas3/depotmaster/internal/store/core"
)

type Store struct{ pool *pgxpool.Pool }

// Tuning opcional del pool.
type Config struct {
	MaxOpenConns    int
	MinIdleConns    int
	ConnMaxLifetime time.Duration
}

func New(ctx context.Context, dsn string, cfg Config) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		pcfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MinIdleConns > 0 {
		pcfg.MinConns = int32(cfg.MinIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		pcfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Pool expone el pool interno (metrics/migraciones).
func (s *Store) Pool() *pgxpool.Pool {
	if s == nil {
		return nil
	}
	return s.pool
}

// Ping verifica conectividad contra la base (readiness).
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close cierra el pool subyacente (idempotente).
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// Repos arma el agregado store.Store sobre este adapter.
func (s *Store) Repos() *store.Store {
	return &store.Store{
		Users:       &userRepo{s.pool},
		Groups:      &groupRepo{s.pool},
		AuthEvents:  &authEventRepo{s.pool},
		TOTP:        &totpRepo{s.pool},
		Depots:      &depotRepo{s.pool},
		Suppliers:   &supplierRepo{s.pool},
		Attachments: &attachmentRepo{s.pool},
	}
}

// mapUniqueViolation traduce violaciones de constraints a errores de dominio,
// por nombre de constraint. Es el fallback post-hoc de los pre-checks: bajo
// registros concurrentes con el mismo login gana exactamente uno y el resto
// recibe el conflicto tipado.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505": // unique_violation
		switch pgErr.ConstraintName {
		case "app_user_login_lower_key":
			return core.ErrLoginTaken
		case "app_user_email_key":
			return core.ErrEmailTaken
		}
		return core.ErrConflict
	case "23503": // foreign_key_violation
		if pgErr.ConstraintName == "app_user_group_fk" {
			return core.ErrGroupInUse
		}
		return core.ErrConflict
	}
	return err
}
