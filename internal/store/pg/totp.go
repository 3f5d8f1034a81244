package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/depotmaster/internal/store/core"
)

type totpRepo struct{ pool *pgxpool.Pool }

func (r *totpRepo) Upsert(ctx context.Context, userID, secret string) error {
	// re-enrolar invalida el secreto anterior: confirmed_at y last_counter
	// vuelven a cero, nunca conviven dos secretos vivos
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_totp (user_id, secret)
		VALUES ($1, $2)
		ON CONFLICT (user_id)
		DO UPDATE SET secret = EXCLUDED.secret,
		              confirmed_at = NULL,
		              last_counter = 0,
		              updated_at = now()`,
		userID, secret)
	return err
}

func (r *totpRepo) Get(ctx context.Context, userID string) (*core.TOTPSecret, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT user_id, secret, last_counter, confirmed_at, created_at, updated_at
		FROM user_totp WHERE user_id = $1`, userID)

	var t core.TOTPSecret
	if err := row.Scan(&t.UserID, &t.Secret, &t.LastCounter, &t.ConfirmedAt, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *totpRepo) Confirm(ctx context.Context, userID string, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE user_totp SET confirmed_at = $2, updated_at = now() WHERE user_id = $1`,
		userID, at)
	return err
}

func (r *totpRepo) SetLastCounter(ctx context.Context, userID string, counter int64) error {
	// GREATEST evita retroceder el contador si dos verificaciones compiten
	_, err := r.pool.Exec(ctx, `
		UPDATE user_totp
		   SET last_counter = GREATEST(last_counter, $2), updated_at = now()
		 WHERE user_id = $1`,
		userID, counter)
	return err
}

func (r *totpRepo) Delete(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM user_totp WHERE user_id = $1`, userID)
	return err
}
