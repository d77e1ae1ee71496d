package lootdb

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps rows in process memory. Used when persistence is disabled and in tests.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[memKey][]SlotRecord
}

type memKey struct {
	player    uuid.UUID
	container string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: map[memKey][]SlotRecord{}}
}

func (m *MemoryStore) Load(ctx context.Context, player uuid.UUID, containerID string) ([]SlotRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, storageErr("load", player, containerID, err)
	}
	m.mu.Lock()
	rows, ok := m.rows[memKey{player, containerID}]
	rows = slices.Clone(rows)
	m.mu.Unlock()
	if !ok {
		return nil, false, nil
	}
	slices.SortFunc(rows, func(a, b SlotRecord) int { return a.Slot - b.Slot })
	out, found := splitSentinel(rows)
	return out, found, nil
}

func (m *MemoryStore) Save(ctx context.Context, player uuid.UUID, containerID string, records []SlotRecord) error {
	if err := ctx.Err(); err != nil {
		return storageErr("save", player, containerID, err)
	}
	rows := slices.Clone(rowsForSave(records))
	m.mu.Lock()
	m.rows[memKey{player, containerID}] = rows
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error { return nil }
