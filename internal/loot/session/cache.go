// Package session holds the in-memory state of open loot containers: which virtual inventory each
// player has for each container, and who is currently looking at each container.
//
// Neither type locks. Both are owned by the container loop goroutine and must only be used there.
package session

import (
	"github.com/google/uuid"

	"uniqueloot.dev/internal/loot/ident"
	"uniqueloot.dev/internal/loot/vinv"
	"uniqueloot.dev/internal/sim/blocks"
)

// Opened is a player's live virtual inventory for one container.
type Opened struct {
	Inv    *vinv.Inventory
	World  string
	Anchor blocks.Vec3i
	Kind   ident.Kind
}

// Cache maps player -> container -> Opened. Entries live until the player disconnects.
type Cache struct {
	byPlayer map[uuid.UUID]map[ident.ContainerID]*Opened
}

func NewCache() *Cache {
	return &Cache{byPlayer: map[uuid.UUID]map[ident.ContainerID]*Opened{}}
}

func (c *Cache) Get(player uuid.UUID, id ident.ContainerID) (*Opened, bool) {
	o, ok := c.byPlayer[player][id]
	return o, ok
}

// Put stores o unless the player already has a session for id, in which case the existing session
// is returned and o is discarded.
func (c *Cache) Put(player uuid.UUID, id ident.ContainerID, o *Opened) *Opened {
	m := c.byPlayer[player]
	if m == nil {
		m = map[ident.ContainerID]*Opened{}
		c.byPlayer[player] = m
	}
	if cur, ok := m[id]; ok {
		return cur
	}
	m[id] = o
	return o
}

func (c *Cache) Remove(player uuid.UUID, id ident.ContainerID) {
	m := c.byPlayer[player]
	if m == nil {
		return
	}
	delete(m, id)
	if len(m) == 0 {
		delete(c.byPlayer, player)
	}
}

// RemoveAll drops every session of player and returns how many there were.
func (c *Cache) RemoveAll(player uuid.UUID) int {
	n := len(c.byPlayer[player])
	delete(c.byPlayer, player)
	return n
}

// FindByInventoryID returns the container whose cached inventory of player carries invID.
func (c *Cache) FindByInventoryID(player uuid.UUID, invID string) (ident.ContainerID, *Opened, bool) {
	for id, o := range c.byPlayer[player] {
		if o.Inv.ID() == invID {
			return id, o, true
		}
	}
	return ident.ContainerID{}, nil, false
}

// Has reports whether any player holds a session for id.
func (c *Cache) Has(id ident.ContainerID) bool {
	for _, m := range c.byPlayer {
		if _, ok := m[id]; ok {
			return true
		}
	}
	return false
}

// Len is the total number of cached sessions.
func (c *Cache) Len() int {
	n := 0
	for _, m := range c.byPlayer {
		n += len(m)
	}
	return n
}

func (c *Cache) Players() int { return len(c.byPlayer) }

func (c *Cache) Clear() { clear(c.byPlayer) }
