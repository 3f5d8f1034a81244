package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/depotmaster/internal/store/core"
)

type groupRepo struct{ pool *pgxpool.Pool }

// rules es int[] nativo; nada de JSON serializado en una columna de texto.

func (r *groupRepo) FindByID(ctx context.Context, id int64) (*core.Group, error) {
	var g core.Group
	var rules []int32
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, rules FROM user_group WHERE id = $1`, id,
	).Scan(&g.ID, &g.Name, &rules)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	g.Rules = fromInt32(rules)
	return &g, nil
}

func (r *groupRepo) List(ctx context.Context) ([]core.Group, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, rules FROM user_group ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Group
	for rows.Next() {
		var g core.Group
		var rules []int32
		if err := rows.Scan(&g.ID, &g.Name, &rules); err != nil {
			return nil, err
		}
		g.Rules = fromInt32(rules)
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *groupRepo) Insert(ctx context.Context, g *core.Group) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO user_group (name, rules) VALUES ($1, $2) RETURNING id`,
		g.Name, toInt32(g.Rules),
	).Scan(&g.ID)
}

func (r *groupRepo) ReplaceRules(ctx context.Context, id int64, name string, rules []int) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE user_group SET name = $2, rules = $3 WHERE id = $1`,
		id, name, toInt32(rules))
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *groupRepo) Delete(ctx context.Context, id int64) error {
	// La FK app_user_group_fk (RESTRICT) rechaza el delete si quedan usuarios
	// referenciando el grupo, también bajo carrera con un insert concurrente.
	ct, err := r.pool.Exec(ctx, `DELETE FROM user_group WHERE id = $1`, id)
	if err != nil {
		return mapUniqueViolation(err)
	}
	if ct.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func toInt32(in []int) []int32 {
	out := make([]int32, len(in))
	for i, v := range in {
		out[i] = int32(v)
	}
	return out
}

func fromInt32(in []int32) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}
