package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/depotmaster/internal/store/core"
)

type depotRepo struct{ pool *pgxpool.Pool }

const depotCols = `id, name, address, contact_phone, contact_email, postal_code,
	capacity, is_active, description, manager_name, created_at, updated_at`

func scanDepot(row pgx.Row) (*core.Depot, error) {
	var d core.Depot
	err := row.Scan(&d.ID, &d.Name, &d.Address, &d.ContactPhone, &d.ContactEmail,
		&d.PostalCode, &d.Capacity, &d.IsActive, &d.Description, &d.ManagerName,
		&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *depotRepo) Insert(ctx context.Context, d *core.Depot) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO depot (name, address, contact_phone, contact_email, postal_code,
		                   capacity, is_active, description, manager_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`,
		d.Name, d.Address, d.ContactPhone, d.ContactEmail, d.PostalCode,
		d.Capacity, d.IsActive, d.Description, d.ManagerName).
		Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
}

func (r *depotRepo) FindByID(ctx context.Context, id int64) (*core.Depot, error) {
	return scanDepot(r.pool.QueryRow(ctx,
		`SELECT `+depotCols+` FROM depot WHERE id = $1`, id))
}

func (r *depotRepo) List(ctx context.Context) ([]core.Depot, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+depotCols+` FROM depot ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Depot
	for rows.Next() {
		var d core.Depot
		if err := rows.Scan(&d.ID, &d.Name, &d.Address, &d.ContactPhone, &d.ContactEmail,
			&d.PostalCode, &d.Capacity, &d.IsActive, &d.Description, &d.ManagerName,
			&d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *depotRepo) Update(ctx context.Context, d *core.Depot) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE depot
		   SET name = $2, address = $3, contact_phone = $4, contact_email = $5,
		       postal_code = $6, capacity = $7, is_active = $8, description = $9,
		       manager_name = $10, updated_at = now()
		 WHERE id = $1`,
		d.ID, d.Name, d.Address, d.ContactPhone, d.ContactEmail, d.PostalCode,
		d.Capacity, d.IsActive, d.Description, d.ManagerName)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *depotRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM depot WHERE id = $1`, id)
	if err != nil {
		return mapUniqueViolation(err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *depotRepo) InsertSection(ctx context.Context, s *core.DepotSection) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO depot_section (depot_id, section_name, cabinet_number, shelf_number,
		                           capacity, max_weight, temp_control, humidity_control, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`,
		s.DepotID, s.SectionName, s.CabinetNumber, s.ShelfNumber,
		s.Capacity, s.MaxWeight, s.TempControl, s.HumidityCtl, s.Description).
		Scan(&s.ID, &s.CreatedAt)
	return mapUniqueViolation(err)
}

func (r *depotRepo) ListSections(ctx context.Context, depotID int64) ([]core.DepotSection, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, depot_id, section_name, cabinet_number, shelf_number,
		       capacity, max_weight, temp_control, humidity_control, description, created_at
		FROM depot_section WHERE depot_id = $1
		ORDER BY cabinet_number, shelf_number`, depotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.DepotSection
	for rows.Next() {
		var s core.DepotSection
		if err := rows.Scan(&s.ID, &s.DepotID, &s.SectionName, &s.CabinetNumber,
			&s.ShelfNumber, &s.Capacity, &s.MaxWeight, &s.TempControl,
			&s.HumidityCtl, &s.Description, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

const depotItemCols = `id, depot_id, section_id, supplier_id, name, barcode, weight,
	quantity, description, status, price, image_key, received_at, created_at, updated_at`

func (r *depotRepo) InsertItem(ctx context.Context, it *core.DepotItem) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO depot_item (depot_id, section_id, supplier_id, name, barcode, weight,
		                        quantity, description, status, price, image_key, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`,
		it.DepotID, it.SectionID, it.SupplierID, it.Name, it.Barcode, it.Weight,
		it.Quantity, it.Description, it.Status, it.Price, it.ImageKey, it.ReceivedAt).
		Scan(&it.ID, &it.CreatedAt, &it.UpdatedAt)
	return mapUniqueViolation(err)
}

func (r *depotRepo) ListItems(ctx context.Context, depotID int64) ([]core.DepotItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+depotItemCols+` FROM depot_item WHERE depot_id = $1 ORDER BY id`, depotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.DepotItem
	for rows.Next() {
		var it core.DepotItem
		if err := rows.Scan(&it.ID, &it.DepotID, &it.SectionID, &it.SupplierID,
			&it.Name, &it.Barcode, &it.Weight, &it.Quantity, &it.Description,
			&it.Status, &it.Price, &it.ImageKey, &it.ReceivedAt,
			&it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *depotRepo) UpdateItem(ctx context.Context, it *core.DepotItem) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE depot_item
		   SET section_id = $2, supplier_id = $3, name = $4, barcode = $5, weight = $6,
		       quantity = $7, description = $8, status = $9, price = $10,
		       image_key = $11, received_at = $12, updated_at = now()
		 WHERE id = $1`,
		it.ID, it.SectionID, it.SupplierID, it.Name, it.Barcode, it.Weight,
		it.Quantity, it.Description, it.Status, it.Price, it.ImageKey, it.ReceivedAt)
	if err != nil {
		return mapUniqueViolation(err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *depotRepo) DeleteItem(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM depot_item WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}
