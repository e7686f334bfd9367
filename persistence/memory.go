package persistence

import (
	"context"
	"sync"

	"github.com/wfunc/tetrisserver/models"
)

// MemoryDatabase keeps histories in process; used by the memory driver and tests.
type MemoryDatabase struct {
	histories map[string][]models.MatchResult
	mutex     sync.RWMutex
}

func NewMemoryDatabase() *MemoryDatabase {
	return &MemoryDatabase{histories: make(map[string][]models.MatchResult)}
}

func (m *MemoryDatabase) LoadHistory(ctx context.Context, username string) ([]models.MatchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	history, ok := m.histories[username]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return append([]models.MatchResult(nil), history...), nil
}

func (m *MemoryDatabase) AppendMatchResult(ctx context.Context, username string, result models.MatchResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.histories[username] = append(m.histories[username], result)
	return nil
}

func (m *MemoryDatabase) Close() error {
	return nil
}
