package persist

import (
	"context"
	"sync"
)

// MemStore is the in-memory ProfileStore used when no database DSN is
// configured. Profiles survive reconnects within one process lifetime only.
// Safe for concurrent use: saves run on I/O goroutines.
type MemStore struct {
	mu   sync.Mutex
	rows map[int64]*ProfileRow
}

var _ ProfileStore = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{rows: make(map[int64]*ProfileRow)}
}

func (m *MemStore) Load(_ context.Context, playerID int64) (*ProfileRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[playerID]
	if !ok {
		return nil, nil
	}
	return copyRow(row), nil
}

func (m *MemStore) Save(_ context.Context, row *ProfileRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[row.PlayerID] = copyRow(row)
	return nil
}

// Count returns the number of stored profiles.
func (m *MemStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// copyRow deep-copies a row so callers and the store never share maps.
func copyRow(row *ProfileRow) *ProfileRow {
	cp := &ProfileRow{
		PlayerID:   row.PlayerID,
		Name:       row.Name,
		Stats:      make(map[string]float64, len(row.Stats)),
		Rewards:    make(map[string]RewardRow, len(row.Rewards)),
		Gems:       row.Gems,
		BestReward: row.BestReward,
	}
	for k, v := range row.Stats {
		cp.Stats[k] = v
	}
	for k, v := range row.Rewards {
		cp.Rewards[k] = v
	}
	return cp
}
