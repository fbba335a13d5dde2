package materials

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

/* Materials */

func (r *Repo) Create(ctx context.Context, objectID int64, name, unit string, quantity float64) (*Material, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO materials (object_id, name, unit, quantity)
		VALUES ($1,$2,$3,$4)
		RETURNING id, object_id, name, unit, quantity, created_at
	`, objectID, name, unit, quantity)

	var m Material
	if err := row.Scan(&m.ID, &m.ObjectID, &m.Name, &m.Unit, &m.Quantity, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Repo) Material(ctx context.Context, id int64) (*Material, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, object_id, name, unit, quantity, created_at
		FROM materials WHERE id = $1
	`, id)
	var m Material
	if err := row.Scan(&m.ID, &m.ObjectID, &m.Name, &m.Unit, &m.Quantity, &m.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *Repo) MaterialsByObject(ctx context.Context, objectID int64) ([]Material, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, object_id, name, unit, quantity, created_at
		FROM materials WHERE object_id = $1 ORDER BY name
	`, objectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Material
	for rows.Next() {
		var m Material
		if err := rows.Scan(&m.ID, &m.ObjectID, &m.Name, &m.Unit, &m.Quantity, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateMaterialQuantity(ctx context.Context, id int64, quantity float64) error {
	_, err := r.pool.Exec(ctx, `UPDATE materials SET quantity=$2 WHERE id=$1`, id, quantity)
	return err
}

/* Sections */

func (r *Repo) CreateSection(ctx context.Context, objectID int64, name string) (*Section, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO sections (object_id, name, position)
		VALUES ($1, $2, COALESCE((SELECT MAX(position)+1 FROM sections WHERE object_id=$1), 1))
		RETURNING id, object_id, name, position
	`, objectID, name)
	var s Section
	if err := row.Scan(&s.ID, &s.ObjectID, &s.Name, &s.Position); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repo) Section(ctx context.Context, id int64) (*Section, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, object_id, name, position FROM sections WHERE id = $1
	`, id)
	var s Section
	if err := row.Scan(&s.ID, &s.ObjectID, &s.Name, &s.Position); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *Repo) SectionsByObject(ctx context.Context, objectID int64) ([]Section, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, object_id, name, position
		FROM sections WHERE object_id = $1 ORDER BY position
	`, objectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Section
	for rows.Next() {
		var s Section
		if err := rows.Scan(&s.ID, &s.ObjectID, &s.Name, &s.Position); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

/* Allocations */

func (r *Repo) Allocation(ctx context.Context, materialID, sectionID int64) (*Allocation, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT material_id, section_id, quantity
		FROM allocations WHERE material_id = $1 AND section_id = $2
	`, materialID, sectionID)
	var a Allocation
	if err := row.Scan(&a.MaterialID, &a.SectionID, &a.Quantity); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *Repo) AllocationsByMaterial(ctx context.Context, materialID int64) ([]Allocation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT material_id, section_id, quantity
		FROM allocations WHERE material_id = $1
	`, materialID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Allocation
	for rows.Next() {
		var a Allocation
		if err := rows.Scan(&a.MaterialID, &a.SectionID, &a.Quantity); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repo) UpsertAllocation(ctx context.Context, a Allocation) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO allocations (material_id, section_id, quantity)
		VALUES ($1,$2,$3)
		ON CONFLICT (material_id, section_id) DO UPDATE SET quantity=$3
	`, a.MaterialID, a.SectionID, a.Quantity)
	return err
}

/* Montage */

func (r *Repo) Montage(ctx context.Context, materialID, sectionID int64) (*MontageRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT material_id, section_id, installed
		FROM montage_records WHERE material_id = $1 AND section_id = $2
	`, materialID, sectionID)
	var m MontageRecord
	if err := row.Scan(&m.MaterialID, &m.SectionID, &m.Installed); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *Repo) MontageByMaterial(ctx context.Context, materialID int64) ([]MontageRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT material_id, section_id, installed
		FROM montage_records WHERE material_id = $1
	`, materialID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MontageRecord
	for rows.Next() {
		var m MontageRecord
		if err := rows.Scan(&m.MaterialID, &m.SectionID, &m.Installed); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repo) UpsertMontage(ctx context.Context, m MontageRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO montage_records (material_id, section_id, installed)
		VALUES ($1,$2,$3)
		ON CONFLICT (material_id, section_id) DO UPDATE SET installed=$3
	`, m.MaterialID, m.SectionID, m.Installed)
	return err
}
