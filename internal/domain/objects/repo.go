package objects

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

/* Objects */

func (r *Repo) Create(ctx context.Context, kind Kind, regionID *int64, name string, addresses []string) (*Object, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO objects (kind, region_id, name, addresses)
		VALUES ($1,$2,$3,$4)
		RETURNING id, kind, region_id, name, addresses, created_at
	`, string(kind), regionID, name, addresses)

	var o Object
	var k string
	if err := row.Scan(&o.ID, &k, &o.RegionID, &o.Name, &o.Addresses, &o.CreatedAt); err != nil {
		return nil, err
	}
	o.Kind = Kind(k)
	return &o, nil
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Object, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, kind, region_id, name, addresses, created_at FROM objects WHERE id = $1
	`, id)
	var o Object
	var k string
	if err := row.Scan(&o.ID, &k, &o.RegionID, &o.Name, &o.Addresses, &o.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	o.Kind = Kind(k)
	return &o, nil
}

func (r *Repo) ListByRegion(ctx context.Context, regionID int64) ([]Object, error) {
	return r.list(ctx, `
		SELECT id, kind, region_id, name, addresses, created_at
		FROM objects WHERE region_id = $1 ORDER BY name
	`, regionID)
}

func (r *Repo) ListByKind(ctx context.Context, kind Kind) ([]Object, error) {
	return r.list(ctx, `
		SELECT id, kind, region_id, name, addresses, created_at
		FROM objects WHERE kind = $1 ORDER BY name
	`, string(kind))
}

func (r *Repo) list(ctx context.Context, q string, args ...any) ([]Object, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Object
	for rows.Next() {
		var o Object
		var k string
		if err := rows.Scan(&o.ID, &k, &o.RegionID, &o.Name, &o.Addresses, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.Kind = Kind(k)
		out = append(out, o)
	}
	return out, rows.Err()
}

// Delete удаляет объект; материалы, участки, распределения, монтаж и
// документы уходят каскадом (FK ON DELETE CASCADE).
func (r *Repo) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM objects WHERE id = $1`, id)
	return err
}

/* Problems */

func (r *Repo) CreateProblem(ctx context.Context, objectID int64, description string) (*Problem, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO problems (object_id, description, status)
		VALUES ($1,$2,'open')
		RETURNING id, object_id, description, status, created_at
	`, objectID, description)
	var p Problem
	var st string
	if err := row.Scan(&p.ID, &p.ObjectID, &p.Description, &st, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Status = ProblemStatus(st)
	return &p, nil
}

// ResolveProblem закрывает проблему; false — такой проблемы нет.
func (r *Repo) ResolveProblem(ctx context.Context, id int64) (bool, error) {
	ct, err := r.pool.Exec(ctx, `UPDATE problems SET status='resolved' WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (r *Repo) OpenProblems(ctx context.Context, objectID int64) ([]Problem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, object_id, description, status, created_at
		FROM problems WHERE object_id = $1 AND status = 'open' ORDER BY created_at
	`, objectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Problem
	for rows.Next() {
		var p Problem
		var st string
		if err := rows.Scan(&p.ID, &p.ObjectID, &p.Description, &st, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Status = ProblemStatus(st)
		out = append(out, p)
	}
	return out, rows.Err()
}

/* Maintenance */

func (r *Repo) CreateMaintenance(ctx context.Context, objectID int64, title string, due time.Time) (*Maintenance, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO maintenance (object_id, title, due_date)
		VALUES ($1,$2,$3)
		RETURNING id, object_id, title, due_date, done, created_at
	`, objectID, title, due)
	var m Maintenance
	if err := row.Scan(&m.ID, &m.ObjectID, &m.Title, &m.DueDate, &m.Done, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Repo) PendingMaintenance(ctx context.Context, objectID int64) ([]Maintenance, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, object_id, title, due_date, done, created_at
		FROM maintenance WHERE object_id = $1 AND NOT done ORDER BY due_date
	`, objectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Maintenance
	for rows.Next() {
		var m Maintenance
		if err := rows.Scan(&m.ID, &m.ObjectID, &m.Title, &m.DueDate, &m.Done, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

/* Projects */

func (r *Repo) CreateProject(ctx context.Context, objectID int64, name string, deadline time.Time) (*Project, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO projects (object_id, name, deadline)
		VALUES ($1,$2,$3)
		RETURNING id, object_id, name, deadline, created_at
	`, objectID, name, deadline)
	var p Project
	if err := row.Scan(&p.ID, &p.ObjectID, &p.Name, &p.Deadline, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

/* Documents */

func (r *Repo) CreateDocument(ctx context.Context, objectID int64, name, fileID string) (*Document, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO documents (object_id, name, file_id)
		VALUES ($1,$2,$3)
		RETURNING id, object_id, name, file_id, created_at
	`, objectID, name, fileID)
	var d Document
	if err := row.Scan(&d.ID, &d.ObjectID, &d.Name, &d.FileID, &d.CreatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *Repo) Documents(ctx context.Context, objectID int64) ([]Document, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, object_id, name, file_id, created_at
		FROM documents WHERE object_id = $1 ORDER BY created_at
	`, objectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.ObjectID, &d.Name, &d.FileID, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
