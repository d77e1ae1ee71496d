package blocks

type Vec3i struct {
	X int
	Y int
	Z int
}

func (v Vec3i) ToArray() [3]int { return [3]int{v.X, v.Y, v.Z} }

func (v Vec3i) Add(dx, dy, dz int) Vec3i { return Vec3i{X: v.X + dx, Y: v.Y + dy, Z: v.Z + dz} }

func Vec3iFromArray(a [3]int) Vec3i { return Vec3i{X: a[0], Y: a[1], Z: a[2]} }

// Neighbors6 returns the face-adjacent positions: above, below, east, west, south, north.
func (v Vec3i) Neighbors6() [6]Vec3i {
	return [6]Vec3i{
		v.Add(0, 1, 0),
		v.Add(0, -1, 0),
		v.Add(1, 0, 0),
		v.Add(-1, 0, 0),
		v.Add(0, 0, 1),
		v.Add(0, 0, -1),
	}
}

type Material string

const (
	Air    Material = "AIR"
	Chest  Material = "CHEST"
	Barrel Material = "BARREL"
	Hopper Material = "HOPPER"
)

// occluding lists materials that block a chest lid from opening.
var occluding = map[Material]bool{
	"STONE":       true,
	"DIRT":        true,
	"GRASS_BLOCK": true,
	"PLANKS":      true,
	"COBBLESTONE": true,
	"BRICKS":      true,
	"SAND":        true,
	"LOG":         true,
	"OBSIDIAN":    true,
}

func (m Material) Occluding() bool { return occluding[m] }

func (m Material) IsContainer() bool { return m == Chest || m == Barrel }

type Facing string

const (
	North Facing = "NORTH"
	East  Facing = "EAST"
	South Facing = "SOUTH"
	West  Facing = "WEST"
)

func (f Facing) clockwise() Facing {
	switch f {
	case North:
		return East
	case East:
		return South
	case South:
		return West
	default:
		return North
	}
}

func (f Facing) counterClockwise() Facing {
	switch f {
	case North:
		return West
	case West:
		return South
	case South:
		return East
	default:
		return North
	}
}

func (f Facing) offset() (dx, dz int) {
	switch f {
	case North:
		return 0, -1
	case South:
		return 0, 1
	case East:
		return 1, 0
	default:
		return -1, 0
	}
}

// ChestType is the half a chest block represents.
type ChestType string

const (
	ChestSingle ChestType = "SINGLE"
	ChestLeft   ChestType = "LEFT"
	ChestRight  ChestType = "RIGHT"
)

type Block struct {
	Type      Material
	Facing    Facing
	ChestType ChestType
	LootTable string
}

func (b Block) HasLootTable() bool { return b.Type.IsContainer() && b.LootTable != "" }

// IsDoubleHalf reports whether the block state claims to be one half of a double chest.
func (b Block) IsDoubleHalf() bool {
	return b.Type == Chest && (b.ChestType == ChestLeft || b.ChestType == ChestRight)
}
