package session

import (
	"github.com/google/uuid"

	"uniqueloot.dev/internal/loot/ident"
)

// Viewers maps container -> players currently looking at it. A container with no viewers has no
// entry.
type Viewers struct {
	sets map[ident.ContainerID]map[uuid.UUID]struct{}
}

func NewViewers() *Viewers {
	return &Viewers{sets: map[ident.ContainerID]map[uuid.UUID]struct{}{}}
}

// Add records player as a viewer of id and reports whether they are the first one.
// Adding a player who is already viewing is a no-op and never reports first.
func (v *Viewers) Add(id ident.ContainerID, player uuid.UUID) (first bool) {
	set := v.sets[id]
	if set == nil {
		set = map[uuid.UUID]struct{}{}
		v.sets[id] = set
	}
	if _, ok := set[player]; ok {
		return false
	}
	first = len(set) == 0
	set[player] = struct{}{}
	return first
}

// Remove drops player from id's viewers and reports whether the set became empty.
func (v *Viewers) Remove(id ident.ContainerID, player uuid.UUID) (last bool) {
	set := v.sets[id]
	if set == nil {
		return false
	}
	if _, ok := set[player]; !ok {
		return false
	}
	delete(set, player)
	if len(set) == 0 {
		delete(v.sets, id)
		return true
	}
	return false
}

// RemovePlayer drops player from every set and returns the containers left without viewers.
func (v *Viewers) RemovePlayer(player uuid.UUID) []ident.ContainerID {
	var emptied []ident.ContainerID
	for id, set := range v.sets {
		if _, ok := set[player]; !ok {
			continue
		}
		delete(set, player)
		if len(set) == 0 {
			delete(v.sets, id)
			emptied = append(emptied, id)
		}
	}
	return emptied
}

func (v *Viewers) Has(id ident.ContainerID, player uuid.UUID) bool {
	_, ok := v.sets[id][player]
	return ok
}

func (v *Viewers) Count(id ident.ContainerID) int { return len(v.sets[id]) }

// Len is the number of containers with at least one viewer.
func (v *Viewers) Len() int { return len(v.sets) }

func (v *Viewers) Clear() { clear(v.sets) }
