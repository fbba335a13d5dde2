package dialog

import (
	"context"
	"time"
)

type Data map[string]any

// State — активный сценарий пользователя в конкретном чате.
// Отсутствие строки означает idle. Один (user, chat) — один сценарий.
type State struct {
	UserID    int64
	ChatID    int64
	Scenario  string
	Step      string
	Data      Data
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store — хранилище состояний диалога по ключу (user_id, chat_id).
type Store interface {
	// Get возвращает nil, nil, если активного сценария нет.
	Get(ctx context.Context, userID, chatID int64) (*State, error)
	Set(ctx context.Context, st State) error
	Delete(ctx context.Context, userID, chatID int64) error
}

// GetString достаёт строку из data; payload ходит через JSON,
// поэтому прямое приведение типов небезопасно.
func GetString(d Data, key string) (string, bool) {
	v, ok := d[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetFloat достаёт число из data. JSON возвращает числа как float64,
// но в памяти значение могло остаться int.
func GetFloat(d Data, key string) (float64, bool) {
	v, ok := d[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// GetStrings достаёт список строк из data ([]any после JSON).
func GetStrings(d Data, key string) []string {
	v, ok := d[key]
	if !ok {
		return nil
	}
	switch arr := v.(type) {
	case []string:
		return arr
	case []any:
		out := make([]string, 0, len(arr))
		for _, e := range arr {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
