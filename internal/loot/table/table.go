// Package table is a small weighted loot-table catalog loaded from YAML.
package table

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"uniqueloot.dev/internal/loot/item"
	"uniqueloot.dev/internal/sim/blocks"
)

type Catalog struct {
	Tables map[string]Table `yaml:"tables"`
}

type Table struct {
	Rolls   Range   `yaml:"rolls"`
	Entries []Entry `yaml:"entries"`
}

type Range struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

type Entry struct {
	Item         string            `yaml:"item"`
	Weight       int               `yaml:"weight"`
	Count        Range             `yaml:"count"`
	Name         string            `yaml:"name,omitempty"`
	Lore         []string          `yaml:"lore,omitempty"`
	Enchantments map[string]int    `yaml:"enchantments,omitempty"`
	Extra        map[string]string `yaml:"extra,omitempty"`
}

// Context is where and for whom a table is rolled.
type Context struct {
	World  string
	Pos    blocks.Vec3i
	Player uuid.UUID
}

var (
	ErrUnknownTable   = errors.New("unknown loot table")
	ErrInvalidContext = errors.New("invalid loot context")
	ErrNoEntries      = errors.New("loot table has no weighted entries")
)

// GenerationError is returned when a table cannot be rolled for a context.
type GenerationError struct {
	Table string
	Err   error
}

func (e *GenerationError) Error() string { return fmt.Sprintf("loot table %s: %v", e.Table, e.Err) }

func (e *GenerationError) Unwrap() error { return e.Err }

func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("loot_tables.yaml: %w", err)
	}
	if c.Tables == nil {
		c.Tables = map[string]Table{}
	}
	for name, t := range c.Tables {
		if err := t.checkRanges(); err != nil {
			return nil, fmt.Errorf("loot_tables.yaml: table %s: %w", name, err)
		}
		t.normalize()
		if err := t.validate(); err != nil {
			return nil, fmt.Errorf("loot_tables.yaml: table %s: %w", name, err)
		}
		c.Tables[name] = t
	}
	return &c, nil
}

func (t *Table) normalize() {
	if t.Rolls.Min <= 0 && t.Rolls.Max <= 0 {
		t.Rolls = Range{Min: 1, Max: 1}
	}
	if t.Rolls.Max < t.Rolls.Min {
		t.Rolls.Max = t.Rolls.Min
	}
	for i := range t.Entries {
		e := &t.Entries[i]
		e.Item = strings.TrimSpace(e.Item)
		if e.Weight <= 0 {
			e.Weight = 1
		}
		if e.Count.Min <= 0 {
			e.Count.Min = 1
		}
		if e.Count.Max < e.Count.Min {
			e.Count.Max = e.Count.Min
		}
	}
}

// checkRanges rejects negative bounds before normalize fills in defaults.
func (t Table) checkRanges() error {
	if t.Rolls.Min < 0 || t.Rolls.Max < 0 {
		return fmt.Errorf("rolls must be >= 0, got {min: %d, max: %d}", t.Rolls.Min, t.Rolls.Max)
	}
	for _, e := range t.Entries {
		if e.Count.Min < 0 || e.Count.Max < 0 {
			return fmt.Errorf("entry %s: count must be >= 0, got {min: %d, max: %d}", e.Item, e.Count.Min, e.Count.Max)
		}
		if e.Weight < 0 {
			return fmt.Errorf("entry %s: negative weight %d", e.Item, e.Weight)
		}
	}
	return nil
}

func (t Table) validate() error {
	if len(t.Entries) == 0 {
		return fmt.Errorf("no entries")
	}
	for _, e := range t.Entries {
		if e.Item == "" {
			return fmt.Errorf("entry without item")
		}
	}
	return nil
}

func (c *Catalog) Has(name string) bool {
	_, ok := c.Tables[name]
	return ok
}

// Generate rolls the named table. The context must name a player and a world.
func (c *Catalog) Generate(name string, lc Context, rng *rand.Rand) ([]item.Stack, error) {
	t, ok := c.Tables[name]
	if !ok {
		return nil, &GenerationError{Table: name, Err: ErrUnknownTable}
	}
	if lc.Player == uuid.Nil || lc.World == "" {
		return nil, &GenerationError{Table: name, Err: ErrInvalidContext}
	}
	total := 0
	for _, e := range t.Entries {
		if e.Weight > 0 {
			total += e.Weight
		}
	}
	if total == 0 {
		return nil, &GenerationError{Table: name, Err: ErrNoEntries}
	}
	rolls := between(rng, t.Rolls)
	out := make([]item.Stack, 0, rolls)
	for i := 0; i < rolls; i++ {
		pick := rng.Intn(total)
		for _, e := range t.Entries {
			if e.Weight <= 0 {
				continue
			}
			if pick < e.Weight {
				out = append(out, e.stack(rng))
				break
			}
			pick -= e.Weight
		}
	}
	return out, nil
}

func (e Entry) stack(rng *rand.Rand) item.Stack {
	s := item.Stack{
		ID:           e.Item,
		Count:        between(rng, e.Count),
		Name:         e.Name,
		Lore:         e.Lore,
		Enchantments: e.Enchantments,
		Extra:        e.Extra,
	}
	return s.Clone()
}

func between(rng *rand.Rand, r Range) int {
	if r.Min < 0 {
		r.Min = 0
	}
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.Intn(r.Max-r.Min+1)
}
