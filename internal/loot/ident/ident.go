// Package ident derives the stable identity of a loot container from the block world.
package ident

import (
	"fmt"
	"strconv"
	"strings"

	"uniqueloot.dev/internal/sim/blocks"
)

// ContainerID is the canonical identity of a physical container: its world and the minimum corner
// of its footprint. Both halves of a double chest share one ContainerID.
type ContainerID struct {
	World string
	X     int
	Y     int
	Z     int
}

func (c ContainerID) String() string {
	return fmt.Sprintf("%s:%d,%d,%d", c.World, c.X, c.Y, c.Z)
}

func (c ContainerID) Pos() blocks.Vec3i { return blocks.Vec3i{X: c.X, Y: c.Y, Z: c.Z} }

// ParseContainerID reverses String. The world part may itself contain ':'.
func ParseContainerID(s string) (ContainerID, bool) {
	i := strings.LastIndexByte(s, ':')
	if i <= 0 || i+1 >= len(s) {
		return ContainerID{}, false
	}
	coord := strings.Split(s[i+1:], ",")
	if len(coord) != 3 {
		return ContainerID{}, false
	}
	x, err1 := strconv.Atoi(coord[0])
	y, err2 := strconv.Atoi(coord[1])
	z, err3 := strconv.Atoi(coord[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return ContainerID{}, false
	}
	return ContainerID{World: s[:i], X: x, Y: y, Z: z}, true
}

type Kind int

const (
	KindSingle Kind = iota + 1
	KindDouble
	KindBarrel
)

func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "SINGLE_CHEST"
	case KindDouble:
		return "DOUBLE_CHEST"
	case KindBarrel:
		return "BARREL"
	default:
		return "UNKNOWN"
	}
}

// Size is the slot count of the virtual inventory for this kind.
func (k Kind) Size() int {
	if k == KindDouble {
		return 54
	}
	return 27
}

// TitleKey is the translation key of the container name.
func (k Kind) TitleKey() string {
	if k == KindBarrel {
		return "container.barrel"
	}
	return "container.chest"
}

func (k Kind) Title() string { return "Loot " + k.TitleKey() }

// BlockQuery is the part of the block world identity resolution needs.
type BlockQuery interface {
	BlockAt(world string, pos blocks.Vec3i) blocks.Block
	PairedHalf(world string, pos blocks.Vec3i) (blocks.Vec3i, bool)
}

// Resolve returns the identity and kind of the container at pos. ok is false when the block is not
// a chest or barrel. If a double chest's counterpart cannot be found the clicked block's own
// coordinates are used.
func Resolve(q BlockQuery, world string, pos blocks.Vec3i) (id ContainerID, kind Kind, ok bool) {
	b := q.BlockAt(world, pos)
	switch b.Type {
	case blocks.Barrel:
		return ContainerID{World: world, X: pos.X, Y: pos.Y, Z: pos.Z}, KindBarrel, true
	case blocks.Chest:
	default:
		return ContainerID{}, 0, false
	}

	id = ContainerID{World: world, X: pos.X, Y: pos.Y, Z: pos.Z}
	if !b.IsDoubleHalf() {
		return id, KindSingle, true
	}
	if other, found := q.PairedHalf(world, pos); found {
		id.X = min(pos.X, other.X)
		id.Y = min(pos.Y, other.Y)
		id.Z = min(pos.Z, other.Z)
	}
	return id, KindDouble, true
}

// Halves returns the block positions that make up the container at pos: one entry for single
// chests and barrels, both halves for a resolvable double chest.
func Halves(q BlockQuery, world string, pos blocks.Vec3i) []blocks.Vec3i {
	if other, ok := q.PairedHalf(world, pos); ok {
		return []blocks.Vec3i{pos, other}
	}
	return []blocks.Vec3i{pos}
}

// AnimationPos is where open/close effects play: the block centre, or the midpoint between the
// two halves of a double chest.
func AnimationPos(q BlockQuery, world string, pos blocks.Vec3i) [3]float64 {
	if other, ok := q.PairedHalf(world, pos); ok {
		return [3]float64{
			float64(pos.X+other.X)/2 + 0.5,
			float64(pos.Y+other.Y)/2 + 0.5,
			float64(pos.Z+other.Z)/2 + 0.5,
		}
	}
	return [3]float64{float64(pos.X) + 0.5, float64(pos.Y) + 0.5, float64(pos.Z) + 0.5}
}
