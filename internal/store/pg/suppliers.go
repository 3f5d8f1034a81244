package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/depotmaster/internal/store/core"
)

type supplierRepo struct{ pool *pgxpool.Pool }

const supplierCols = `id, name, contact_person, contact_phone, contact_email,
	address, country, preferred, notes, created_at, updated_at`

func (r *supplierRepo) Insert(ctx context.Context, s *core.Supplier) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO supplier (name, contact_person, contact_phone, contact_email,
		                      address, country, preferred, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		s.Name, s.ContactPerson, s.ContactPhone, s.ContactEmail,
		s.Address, s.Country, s.Preferred, s.Notes).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	return mapUniqueViolation(err)
}

func (r *supplierRepo) FindByID(ctx context.Context, id int64) (*core.Supplier, error) {
	var s core.Supplier
	err := r.pool.QueryRow(ctx,
		`SELECT `+supplierCols+` FROM supplier WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.ContactPerson, &s.ContactPhone, &s.ContactEmail,
			&s.Address, &s.Country, &s.Preferred, &s.Notes, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *supplierRepo) List(ctx context.Context) ([]core.Supplier, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+supplierCols+` FROM supplier ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Supplier
	for rows.Next() {
		var s core.Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.ContactPerson, &s.ContactPhone,
			&s.ContactEmail, &s.Address, &s.Country, &s.Preferred, &s.Notes,
			&s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *supplierRepo) Update(ctx context.Context, s *core.Supplier) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE supplier
		   SET name = $2, contact_person = $3, contact_phone = $4, contact_email = $5,
		       address = $6, country = $7, preferred = $8, notes = $9, updated_at = now()
		 WHERE id = $1`,
		s.ID, s.Name, s.ContactPerson, s.ContactPhone, s.ContactEmail,
		s.Address, s.Country, s.Preferred, s.Notes)
	if err != nil {
		return mapUniqueViolation(err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *supplierRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM supplier WHERE id = $1`, id)
	if err != nil {
		// depot_item.supplier_id es SET NULL, así que acá una FK sería bug de schema
		return mapUniqueViolation(err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}
