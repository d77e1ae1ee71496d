package blocks

// World is an in-memory block store for any number of named worlds.
// It is not safe for concurrent use; the owning loop goroutine is its only caller.
type World struct {
	worlds map[string]map[Vec3i]Block
}

func NewWorld() *World {
	return &World{worlds: map[string]map[Vec3i]Block{}}
}

// BlockAt returns the block at pos. Unset positions are AIR.
func (w *World) BlockAt(world string, pos Vec3i) Block {
	if m := w.worlds[world]; m != nil {
		if b, ok := m[pos]; ok {
			return b
		}
	}
	return Block{Type: Air}
}

func (w *World) Set(world string, pos Vec3i, b Block) {
	if b.Type == Air || b.Type == "" {
		w.Remove(world, pos)
		return
	}
	if b.Type == Chest && b.ChestType == "" {
		b.ChestType = ChestSingle
	}
	if b.Facing == "" {
		b.Facing = North
	}
	m := w.worlds[world]
	if m == nil {
		m = map[Vec3i]Block{}
		w.worlds[world] = m
	}
	m[pos] = b
}

func (w *World) Remove(world string, pos Vec3i) {
	m := w.worlds[world]
	if m == nil {
		return
	}
	delete(m, pos)
	if len(m) == 0 {
		delete(w.worlds, world)
	}
}

// PairedHalf returns the other half of a double chest. ok is false when pos is not a chest half
// or the counterpart is missing or does not match (for example while one half is being broken).
func (w *World) PairedHalf(world string, pos Vec3i) (Vec3i, bool) {
	b := w.BlockAt(world, pos)
	if !b.IsDoubleHalf() {
		return Vec3i{}, false
	}
	dir := b.Facing.counterClockwise()
	want := ChestLeft
	if b.ChestType == ChestLeft {
		dir = b.Facing.clockwise()
		want = ChestRight
	}
	dx, dz := dir.offset()
	other := pos.Add(dx, 0, dz)
	ob := w.BlockAt(world, other)
	if ob.Type != Chest || ob.ChestType != want || ob.Facing != b.Facing {
		return Vec3i{}, false
	}
	return other, true
}

// Count returns the number of non-air blocks in a world.
func (w *World) Count(world string) int { return len(w.worlds[world]) }
