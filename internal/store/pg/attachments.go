package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/depotmaster/internal/store/core"
)

type attachmentRepo struct{ pool *pgxpool.Pool }

func (r *attachmentRepo) Insert(ctx context.Context, a *core.Attachment) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO attachment (id, key, file_name, content_type, size_bytes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		a.ID, a.Key, a.FileName, a.ContentType, a.SizeBytes).
		Scan(&a.CreatedAt)
	return mapUniqueViolation(err)
}

func (r *attachmentRepo) FindByID(ctx context.Context, id string) (*core.Attachment, error) {
	var a core.Attachment
	err := r.pool.QueryRow(ctx, `
		SELECT id, key, file_name, content_type, size_bytes, created_at
		FROM attachment WHERE id = $1`, id).
		Scan(&a.ID, &a.Key, &a.FileName, &a.ContentType, &a.SizeBytes, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *attachmentRepo) List(ctx context.Context) ([]core.Attachment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, key, file_name, content_type, size_bytes, created_at
		FROM attachment ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Attachment
	for rows.Next() {
		var a core.Attachment
		if err := rows.Scan(&a.ID, &a.Key, &a.FileName, &a.ContentType,
			&a.SizeBytes, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *attachmentRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM attachment WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}
