package dialog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) Get(ctx context.Context, userID, chatID int64) (*State, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT scenario, step, data, created_at, updated_at
		FROM dialog_states WHERE user_id = $1 AND chat_id = $2
	`, userID, chatID)

	st := State{UserID: userID, ChatID: chatID}
	var raw []byte
	if err := row.Scan(&st.Scenario, &st.Step, &raw, &st.CreatedAt, &st.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	var d Data
	_ = json.Unmarshal(raw, &d)
	if d == nil {
		d = Data{}
	}
	st.Data = d
	return &st, nil
}

func (r *Repo) Set(ctx context.Context, st State) error {
	raw, _ := json.Marshal(st.Data)
	_, err := r.pool.Exec(ctx, `
		INSERT INTO dialog_states (user_id, chat_id, scenario, step, data, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,now(),now())
		ON CONFLICT (user_id, chat_id) DO UPDATE SET
		  scenario=$3, step=$4, data=$5, updated_at=now()
	`, st.UserID, st.ChatID, st.Scenario, st.Step, raw)
	return err
}

func (r *Repo) Delete(ctx context.Context, userID, chatID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM dialog_states WHERE user_id = $1 AND chat_id = $2`, userID, chatID)
	return err
}

// DeleteOlderThan удаляет брошенные диалоги. Ядро это не планирует —
// запуск остаётся за внешней обвязкой (cron и т.п.).
func (r *Repo) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM dialog_states WHERE updated_at < now() - ($1 * interval '1 second')
	`, int64(age.Seconds()))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
