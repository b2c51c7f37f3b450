package repository

import (
	"context"
	"sync"

	"github.com/m-mizutani/cinemood/pkg/model"
)

// Memory is an in-process history reader
type Memory struct {
	mu    sync.RWMutex
	lists map[string][]*model.HistoryItem
}

func NewMemory() *Memory {
	return &Memory{
		lists: make(map[string][]*model.HistoryItem),
	}
}

// Put replaces the watchlist of the user. Order is assigned from the
// position in items.
func (m *Memory) Put(userID string, items ...*model.HistoryItem) {
	copied := make([]*model.HistoryItem, 0, len(items))
	for i, item := range items {
		c := *item
		c.Order = i
		copied = append(copied, &c)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists[userID] = copied
}

func (m *Memory) ListHistory(ctx context.Context, userID string) ([]*model.HistoryItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := m.lists[userID]
	result := make([]*model.HistoryItem, 0, len(items))
	for _, item := range items {
		c := *item
		result = append(result, &c)
	}
	return result, nil
}
