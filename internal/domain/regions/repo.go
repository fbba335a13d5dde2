package regions

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) Create(ctx context.Context, shortName, fullName string) (*Region, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO regions (short_name, full_name)
		VALUES ($1,$2)
		RETURNING id, short_name, full_name, created_at
	`, shortName, fullName)

	var reg Region
	if err := row.Scan(&reg.ID, &reg.ShortName, &reg.FullName, &reg.CreatedAt); err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Region, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, short_name, full_name, created_at FROM regions WHERE id = $1
	`, id)
	var reg Region
	if err := row.Scan(&reg.ID, &reg.ShortName, &reg.FullName, &reg.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &reg, nil
}

func (r *Repo) List(ctx context.Context) ([]Region, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, short_name, full_name, created_at FROM regions ORDER BY short_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Region
	for rows.Next() {
		var reg Region
		if err := rows.Scan(&reg.ID, &reg.ShortName, &reg.FullName, &reg.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM regions WHERE id = $1`, id)
	return err
}
