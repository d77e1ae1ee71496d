// Package guard holds the protection rules around loot containers: when a container may be opened,
// broken, blown up, drained by a hopper or merged into a double chest.
//
// Guards read the block world and the tracker; callers run them on the goroutine that owns both.
package guard

import (
	"uniqueloot.dev/internal/loot/ident"
	"uniqueloot.dev/internal/sim/blocks"
)

const (
	MsgBreakDenied   = "You can't break blocks containing loot!"
	MsgBreakCreative = "This chest can now be destroyed."
	MsgHopperDenied  = "You can't interact using hoppers!"
)

// Tracker reports whether a container identity has per-player state.
type Tracker interface {
	Tracked(id ident.ContainerID) bool
}

// Mutator is the block world with write access, needed to force chests single.
type Mutator interface {
	ident.BlockQuery
	Set(world string, pos blocks.Vec3i, b blocks.Block)
}

type Guard struct {
	world   ident.BlockQuery
	tracker Tracker
}

func New(world ident.BlockQuery, tracker Tracker) *Guard {
	return &Guard{world: world, tracker: tracker}
}

// Decision is the outcome of a guarded action. Message, when set, is shown on the action bar.
type Decision struct {
	Allowed bool
	Message string
}

// CanOpen reports whether an interaction at pos should open a loot view. False means the
// interaction falls through to normal container behaviour (or nothing).
func (g *Guard) CanOpen(world string, pos blocks.Vec3i, sneaking, holdingItem bool) bool {
	if !g.hasLootTable(world, pos) {
		return false
	}
	for _, half := range ident.Halves(g.world, world, pos) {
		if g.world.BlockAt(world, half.Add(0, 1, 0)).Type.Occluding() {
			return false
		}
	}
	if sneaking && holdingItem {
		return false
	}
	return true
}

// IsTracked reports whether the block at pos is a loot container, either by its own loot table or
// because some player holds state for its identity.
func (g *Guard) IsTracked(world string, pos blocks.Vec3i) bool {
	if g.world.BlockAt(world, pos).HasLootTable() {
		return true
	}
	id, _, ok := ident.Resolve(g.world, world, pos)
	if !ok {
		return false
	}
	return g.tracker != nil && g.tracker.Tracked(id)
}

// CanBreak denies breaking a loot container outside creative mode. Creative players may break it
// and are told so.
func (g *Guard) CanBreak(world string, pos blocks.Vec3i, creative bool) Decision {
	if !g.IsTracked(world, pos) {
		return Decision{Allowed: true}
	}
	if creative {
		return Decision{Allowed: true, Message: MsgBreakCreative}
	}
	return Decision{Allowed: false, Message: MsgBreakDenied}
}

// FilterExplosion returns the subset of an explosion's block list that may be destroyed.
func (g *Guard) FilterExplosion(world string, list []blocks.Vec3i) []blocks.Vec3i {
	out := make([]blocks.Vec3i, 0, len(list))
	for _, p := range list {
		if g.IsTracked(world, p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// CanPlaceHopper denies a hopper touching a loot container on any of its six faces.
func (g *Guard) CanPlaceHopper(world string, pos blocks.Vec3i) Decision {
	for _, n := range pos.Neighbors6() {
		if g.IsTracked(world, n) {
			return Decision{Allowed: false, Message: MsgHopperDenied}
		}
	}
	return Decision{Allowed: true}
}

// CanExtract denies item transfer out of a loot container (hoppers, hopper minecarts).
func (g *Guard) CanExtract(world string, source blocks.Vec3i) bool {
	return !g.IsTracked(world, source)
}

// ForceSingleOnPlace keeps a newly placed chest from merging with an adjacent loot chest: if any
// horizontal neighbour is a chest with a loot table, both are reset to single. It returns the
// positions that were changed.
func ForceSingleOnPlace(w Mutator, world string, pos blocks.Vec3i) []blocks.Vec3i {
	placed := w.BlockAt(world, pos)
	if placed.Type != blocks.Chest {
		return nil
	}
	var changed []blocks.Vec3i
	merge := false
	for _, n := range []blocks.Vec3i{pos.Add(1, 0, 0), pos.Add(-1, 0, 0), pos.Add(0, 0, 1), pos.Add(0, 0, -1)} {
		nb := w.BlockAt(world, n)
		if nb.Type != blocks.Chest || nb.LootTable == "" {
			continue
		}
		merge = true
		if forceSingle(w, world, n, nb) {
			changed = append(changed, n)
		}
	}
	if merge && forceSingle(w, world, pos, placed) {
		changed = append(changed, pos)
	}
	return changed
}

func forceSingle(w Mutator, world string, pos blocks.Vec3i, b blocks.Block) bool {
	if b.ChestType == blocks.ChestSingle || b.ChestType == "" {
		return false
	}
	b.ChestType = blocks.ChestSingle
	w.Set(world, pos, b)
	return true
}

func (g *Guard) hasLootTable(world string, pos blocks.Vec3i) bool {
	for _, half := range ident.Halves(g.world, world, pos) {
		if g.world.BlockAt(world, half).HasLootTable() {
			return true
		}
	}
	return false
}
