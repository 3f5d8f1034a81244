package pg

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/depotmaster/internal/store/core"
)

type authEventRepo struct{ pool *pgxpool.Pool }

func (r *authEventRepo) Append(ctx context.Context, ev *core.AuthEvent) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO auth_event (user_id, auth_time, source_ip)
		VALUES ($1, $2, $3)
		RETURNING id`,
		ev.UserID, ev.AuthTime, ev.SourceIP,
	).Scan(&ev.ID)
}

func (r *authEventRepo) ListByUser(ctx context.Context, userID string, limit int) ([]core.AuthEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, auth_time, source_ip
		FROM auth_event
		WHERE user_id = $1
		ORDER BY auth_time DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.AuthEvent
	for rows.Next() {
		var ev core.AuthEvent
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.AuthTime, &ev.SourceIP); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
