package access

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) RoleByUser(ctx context.Context, userID int64) (Role, error) {
	row := r.pool.QueryRow(ctx, `SELECT role FROM user_roles WHERE user_id = $1`, userID)
	var s string
	if err := row.Scan(&s); err != nil {
		if err == pgx.ErrNoRows {
			return RoleNone, nil
		}
		return RoleNone, err
	}
	return ParseRole(s), nil
}

// SetRole назначает роль. У пользователя не более одной роли.
func (r *Repo) SetRole(ctx context.Context, userID int64, role Role) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_roles (user_id, role, updated_at)
		VALUES ($1,$2,now())
		ON CONFLICT (user_id) DO UPDATE SET role=$2, updated_at=now()
	`, userID, string(role))
	return err
}

func (r *Repo) DeleteRole(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID)
	return err
}

func (r *Repo) Entry(ctx context.Context, role Role, command string, scope ChatScope) (*PermissionEntry, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT role, command, scope, enabled
		FROM permission_entries
		WHERE role = $1 AND command = $2 AND scope = $3
	`, string(role), command, string(scope))

	var e PermissionEntry
	var rs, sc string
	if err := row.Scan(&rs, &e.Command, &sc, &e.Enabled); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	e.Role = ParseRole(rs)
	e.Scope = ChatScope(sc)
	return &e, nil
}

func (r *Repo) SetEntry(ctx context.Context, e PermissionEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO permission_entries (role, command, scope, enabled)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (role, command, scope) DO UPDATE SET enabled=$4
	`, string(e.Role), e.Command, string(e.Scope), e.Enabled)
	return err
}

func (r *Repo) ListRoles(ctx context.Context) (map[int64]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id, role FROM user_roles ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int64]Role{}
	for rows.Next() {
		var id int64
		var s string
		if err := rows.Scan(&id, &s); err != nil {
			return nil, err
		}
		out[id] = ParseRole(s)
	}
	return out, rows.Err()
}
