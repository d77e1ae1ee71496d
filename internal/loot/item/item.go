// Package item holds the opaque item record stored in virtual inventories and its durable codec.
package item

import (
	"maps"
	"slices"
)

// Stack is one slot's worth of items. The persistence core treats it as opaque; only the codec
// looks inside.
type Stack struct {
	ID           string            `json:"id"`
	Count        int               `json:"count"`
	Damage       int               `json:"damage,omitempty"`
	Name         string            `json:"name,omitempty"`
	Lore         []string          `json:"lore,omitempty"`
	Enchantments map[string]int    `json:"enchantments,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
}

func (s Stack) Valid() bool { return s.ID != "" && s.Count > 0 }

func (s Stack) Clone() Stack {
	out := s
	out.Lore = slices.Clone(s.Lore)
	out.Enchantments = maps.Clone(s.Enchantments)
	out.Extra = maps.Clone(s.Extra)
	return out
}

// Equal compares two stacks field by field; nil and empty collections are equal.
func Equal(a, b Stack) bool {
	if a.ID != b.ID || a.Count != b.Count || a.Damage != b.Damage || a.Name != b.Name {
		return false
	}
	if len(a.Lore) != len(b.Lore) || len(a.Enchantments) != len(b.Enchantments) || len(a.Extra) != len(b.Extra) {
		return false
	}
	for i := range a.Lore {
		if a.Lore[i] != b.Lore[i] {
			return false
		}
	}
	for k, v := range a.Enchantments {
		if bv, ok := b.Enchantments[k]; !ok || bv != v {
			return false
		}
	}
	for k, v := range a.Extra {
		if bv, ok := b.Extra[k]; !ok || bv != v {
			return false
		}
	}
	return true
}
