package dialog

import (
	"context"
	"sync"
	"time"
)

type key struct{ userID, chatID int64 }

// Memory — потокобезопасное хранилище состояний в памяти,
// для тестов и локального запуска без Postgres.
type Memory struct {
	mu sync.RWMutex
	m  map[key]State
}

func NewMemory() *Memory {
	return &Memory{m: make(map[key]State)}
}

func (s *Memory) Get(_ context.Context, userID, chatID int64) (*State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.m[key{userID, chatID}]
	if !ok {
		return nil, nil
	}
	cp := st
	cp.Data = make(Data, len(st.Data))
	for k, v := range st.Data {
		cp.Data[k] = v
	}
	return &cp, nil
}

func (s *Memory) Set(_ context.Context, st State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{st.UserID, st.ChatID}
	now := time.Now()
	if prev, ok := s.m[k]; ok {
		st.CreatedAt = prev.CreatedAt
	} else {
		st.CreatedAt = now
	}
	st.UpdatedAt = now
	if st.Data == nil {
		st.Data = Data{}
	}
	s.m[k] = st
	return nil
}

func (s *Memory) Delete(_ context.Context, userID, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key{userID, chatID})
	return nil
}
