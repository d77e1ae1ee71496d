// Package vinv implements the per-player virtual inventory shown in place of a container's real
// contents.
package vinv

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"uniqueloot.dev/internal/loot/item"
)

var ErrSlotRange = errors.New("slot out of range")

// Inventory is a fixed-size slot array. The pointer is the handle: two inventories are the same
// view only if they are the same *Inventory. Not safe for concurrent use.
type Inventory struct {
	id    string
	title string
	slots []*item.Stack
}

type Slot struct {
	Index int
	Stack item.Stack
}

func New(size int, title string) *Inventory {
	if size < 0 {
		size = 0
	}
	return &Inventory{
		id:    uuid.NewString(),
		title: title,
		slots: make([]*item.Stack, size),
	}
}

// ID is the wire handle clients use to refer to this inventory.
func (inv *Inventory) ID() string    { return inv.id }
func (inv *Inventory) Title() string { return inv.title }
func (inv *Inventory) Size() int     { return len(inv.slots) }

func (inv *Inventory) Get(slot int) (item.Stack, bool) {
	if slot < 0 || slot >= len(inv.slots) || inv.slots[slot] == nil {
		return item.Stack{}, false
	}
	return inv.slots[slot].Clone(), true
}

func (inv *Inventory) Set(slot int, s item.Stack) error {
	if slot < 0 || slot >= len(inv.slots) {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrSlotRange, slot, len(inv.slots))
	}
	if !s.Valid() {
		inv.slots[slot] = nil
		return nil
	}
	c := s.Clone()
	inv.slots[slot] = &c
	return nil
}

func (inv *Inventory) Clear(slot int) {
	if slot >= 0 && slot < len(inv.slots) {
		inv.slots[slot] = nil
	}
}

// Occupied returns the non-empty slots in ascending slot order.
func (inv *Inventory) Occupied() []Slot {
	var out []Slot
	for i, s := range inv.slots {
		if s != nil {
			out = append(out, Slot{Index: i, Stack: s.Clone()})
		}
	}
	return out
}

func (inv *Inventory) EmptySlots() []int {
	var out []int
	for i, s := range inv.slots {
		if s == nil {
			out = append(out, i)
		}
	}
	return out
}

func (inv *Inventory) IsEmpty() bool {
	for _, s := range inv.slots {
		if s != nil {
			return false
		}
	}
	return true
}

// Distribute places generated items into the empty slots following a random permutation of those
// slots drawn from rng. Items that do not fit are dropped; the number placed is returned.
func (inv *Inventory) Distribute(items []item.Stack, rng *rand.Rand) int {
	empty := inv.EmptySlots()
	rng.Shuffle(len(empty), func(i, j int) { empty[i], empty[j] = empty[j], empty[i] })
	placed := 0
	for _, s := range items {
		if !s.Valid() {
			continue
		}
		if placed >= len(empty) {
			break
		}
		c := s.Clone()
		inv.slots[empty[placed]] = &c
		placed++
	}
	return placed
}
