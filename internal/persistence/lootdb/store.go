// Package lootdb persists each player's copy of each loot container.
//
// A (player, container) pair is in one of three states: no rows (never opened), a single sentinel
// row (opened and left empty), or one row per occupied slot.
package lootdb

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

const (
	// SentinelSlot marks a container that was opened and closed empty.
	SentinelSlot = -1
	// SentinelData is the payload stored alongside SentinelSlot.
	SentinelData = "-"
)

// SlotRecord is one occupied slot: its index and the encoded item.
type SlotRecord struct {
	Slot int    `json:"slot" bson:"slot"`
	Data string `json:"item_data" bson:"item_data"`
}

// Store is implemented by every backend.
type Store interface {
	// Load returns found=false when the pair was never saved, found=true with no records when only
	// the sentinel exists, and records in ascending slot order otherwise.
	Load(ctx context.Context, player uuid.UUID, containerID string) (records []SlotRecord, found bool, err error)
	// Save atomically replaces every row of the pair. An empty records slice writes the sentinel.
	Save(ctx context.Context, player uuid.UUID, containerID string, records []SlotRecord) error
	Close() error
}

// StorageError wraps a backend failure with the operation and key it happened on.
type StorageError struct {
	Op        string
	Player    uuid.UUID
	Container string
	Err       error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("lootdb %s %s/%s: %v", e.Op, e.Player, e.Container, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, player uuid.UUID, containerID string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Player: player, Container: containerID, Err: err}
}

// splitSentinel separates real slot rows from the sentinel, returning the Load triple.
func splitSentinel(rows []SlotRecord) ([]SlotRecord, bool) {
	out := make([]SlotRecord, 0, len(rows))
	sawSentinel := false
	for _, r := range rows {
		if r.Slot == SentinelSlot {
			sawSentinel = true
			continue
		}
		out = append(out, r)
	}
	if len(out) > 0 {
		return out, true
	}
	if sawSentinel {
		return []SlotRecord{}, true
	}
	return nil, false
}

// rowsForSave is what a backend writes for records: the records themselves or the sentinel.
func rowsForSave(records []SlotRecord) []SlotRecord {
	if len(records) == 0 {
		return []SlotRecord{{Slot: SentinelSlot, Data: SentinelData}}
	}
	return records
}
