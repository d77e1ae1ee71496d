package blocks

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Layout struct {
	Worlds []WorldSpec `yaml:"worlds"`
}

type WorldSpec struct {
	ID     string      `yaml:"id"`
	Blocks []BlockSpec `yaml:"blocks"`
}

type BlockSpec struct {
	Type      string `yaml:"type"`
	Pos       [3]int `yaml:"pos"`
	Facing    string `yaml:"facing,omitempty"`
	ChestType string `yaml:"chest_type,omitempty"`
	LootTable string `yaml:"loot_table,omitempty"`
}

// LoadLayout reads a world layout file. An empty path yields an empty layout.
func LoadLayout(path string) (Layout, error) {
	var l Layout
	if strings.TrimSpace(path) == "" {
		return l, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return l, err
	}
	if err := yaml.Unmarshal(b, &l); err != nil {
		return l, fmt.Errorf("world.yaml: %w", err)
	}
	l.Normalize()
	if err := l.Validate(); err != nil {
		return l, fmt.Errorf("world.yaml: %w", err)
	}
	return l, nil
}

func (l *Layout) Normalize() {
	for i := range l.Worlds {
		w := &l.Worlds[i]
		w.ID = strings.TrimSpace(w.ID)
		for j := range w.Blocks {
			b := &w.Blocks[j]
			b.Type = strings.ToUpper(strings.TrimSpace(b.Type))
			b.Facing = strings.ToUpper(strings.TrimSpace(b.Facing))
			b.ChestType = strings.ToUpper(strings.TrimSpace(b.ChestType))
			b.LootTable = strings.TrimSpace(b.LootTable)
		}
	}
}

func (l Layout) Validate() error {
	seen := map[string]bool{}
	for _, w := range l.Worlds {
		if w.ID == "" {
			return fmt.Errorf("world id is required")
		}
		if seen[w.ID] {
			return fmt.Errorf("duplicate world id: %s", w.ID)
		}
		seen[w.ID] = true
		for _, b := range w.Blocks {
			if b.Type == "" {
				return fmt.Errorf("world %s: block at %v has no type", w.ID, b.Pos)
			}
			switch Facing(b.Facing) {
			case "", North, East, South, West:
			default:
				return fmt.Errorf("world %s: bad facing %q at %v", w.ID, b.Facing, b.Pos)
			}
			switch ChestType(b.ChestType) {
			case "", ChestSingle, ChestLeft, ChestRight:
			default:
				return fmt.Errorf("world %s: bad chest_type %q at %v", w.ID, b.ChestType, b.Pos)
			}
			if b.ChestType != "" && Material(b.Type) != Chest {
				return fmt.Errorf("world %s: chest_type on non-chest block at %v", w.ID, b.Pos)
			}
		}
	}
	return nil
}

// WorldIDs lists the world ids in file order.
func (l Layout) WorldIDs() []string {
	out := make([]string, 0, len(l.Worlds))
	for _, w := range l.Worlds {
		out = append(out, w.ID)
	}
	return out
}

// Apply places every block of the layout into w.
func (l Layout) Apply(w *World) int {
	n := 0
	for _, ws := range l.Worlds {
		for _, b := range ws.Blocks {
			w.Set(ws.ID, Vec3iFromArray(b.Pos), Block{
				Type:      Material(b.Type),
				Facing:    Facing(b.Facing),
				ChestType: ChestType(b.ChestType),
				LootTable: b.LootTable,
			})
			n++
		}
	}
	return n
}
