package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/depotmaster/internal/store/core"
)

type userRepo struct{ pool *pgxpool.Pool }

// group_id NULL en la base significa "sin grupo"; hacia el dominio viaja
// como 0, que ninguna rule otorga.
const userCols = `id, login, name, surname, email, phone_number, COALESCE(group_id, 0),
       password_secret, status, two_factor_enabled, is_blocked,
       requires_password_reset, created_at`

func scanUser(row pgx.Row) (*core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Login, &u.Name, &u.Surname, &u.Email, &u.PhoneNumber,
		&u.GroupID, &u.PasswordSecret, &u.Status, &u.TwoFactorEnabled,
		&u.IsBlocked, &u.RequiresPasswordReset, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) FindByLogin(ctx context.Context, login string) (*core.User, error) {
	// unicidad case-insensitive: la búsqueda normaliza igual que el índice
	row := r.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM app_user WHERE lower(login) = lower($1)`, login)
	return scanUser(row)
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*core.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userCols+` FROM app_user WHERE id = $1`, id)
	return scanUser(row)
}

func (r *userRepo) Insert(ctx context.Context, u *core.User) error {
	// El insert corre en una transacción con los pre-checks de unicidad; si dos
	// registros compiten, el índice único decide y mapUniqueViolation traduce.
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM app_user WHERE lower(login) = lower($1))`, u.Login).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return core.ErrLoginTaken
	}
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM app_user WHERE email = $1)`, u.Email).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return core.ErrEmailTaken
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO app_user (id, login, name, surname, email, phone_number, group_id,
		                      password_secret, status, two_factor_enabled, is_blocked,
		                      requires_password_reset)
		VALUES ($1,$2,$3,$4,$5,$6,NULLIF($7::bigint, 0),$8,$9,$10,$11,$12)
		RETURNING created_at`,
		u.ID, u.Login, u.Name, u.Surname, u.Email, u.PhoneNumber, u.GroupID,
		u.PasswordSecret, u.Status, u.TwoFactorEnabled, u.IsBlocked,
		u.RequiresPasswordReset,
	).Scan(&u.CreatedAt)
	if err != nil {
		return mapGroupRef(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return mapGroupRef(err)
	}
	return nil
}

// mapGroupRef reinterpreta la FK de grupo para los escritores de app_user: acá
// un 23503 sobre app_user_group_fk significa grupo inexistente, no grupo en
// uso (ese sentido es exclusivo del DELETE de user_group).
func mapGroupRef(err error) error {
	err = mapUniqueViolation(err)
	if err == core.ErrGroupInUse {
		return core.ErrNotFound
	}
	return err
}

func (r *userRepo) SetBlocked(ctx context.Context, id string, blocked bool) error {
	return r.setFlag(ctx, id, `is_blocked`, blocked)
}

func (r *userRepo) SetRequiresPasswordReset(ctx context.Context, id string, required bool) error {
	return r.setFlag(ctx, id, `requires_password_reset`, required)
}

func (r *userRepo) SetTwoFactorEnabled(ctx context.Context, id string, enabled bool) error {
	return r.setFlag(ctx, id, `two_factor_enabled`, enabled)
}

func (r *userRepo) setFlag(ctx context.Context, id, col string, v bool) error {
	ct, err := r.pool.Exec(ctx, `UPDATE app_user SET `+col+` = $2 WHERE id = $1`, id, v)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *userRepo) SetGroup(ctx context.Context, id string, groupID int64) error {
	ct, err := r.pool.Exec(ctx, `UPDATE app_user SET group_id = NULLIF($2::bigint, 0) WHERE id = $1`, id, groupID)
	if err != nil {
		return mapGroupRef(err)
	}
	if ct.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *userRepo) UpdateStatus(ctx context.Context, id string, status string) error {
	ct, err := r.pool.Exec(ctx, `UPDATE app_user SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *userRepo) UpdatePasswordSecret(ctx context.Context, id string, phc string) error {
	ct, err := r.pool.Exec(ctx, `
		UPDATE app_user
		   SET password_secret = $2,
		       requires_password_reset = FALSE
		 WHERE id = $1`, id, phc)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *userRepo) List(ctx context.Context) ([]core.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userCols+` FROM app_user ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.User
	for rows.Next() {
		var u core.User
		if err := rows.Scan(&u.ID, &u.Login, &u.Name, &u.Surname, &u.Email, &u.PhoneNumber,
			&u.GroupID, &u.PasswordSecret, &u.Status, &u.TwoFactorEnabled,
			&u.IsBlocked, &u.RequiresPasswordReset, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *userRepo) CountByGroup(ctx context.Context, groupID int64) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM app_user WHERE group_id = $1`, groupID).Scan(&n)
	return n, err
}
