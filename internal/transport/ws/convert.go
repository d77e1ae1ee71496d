package ws

import (
	"strings"

	"uniqueloot.dev/internal/loot/item"
	"uniqueloot.dev/internal/protocol"
	"uniqueloot.dev/internal/sim/blocks"
)

func itemView(s item.Stack) protocol.ItemView {
	return protocol.ItemView{
		ID:           s.ID,
		Count:        s.Count,
		Damage:       s.Damage,
		Name:         s.Name,
		Lore:         s.Lore,
		Enchantments: s.Enchantments,
		Extra:        s.Extra,
	}
}

func stackFromView(v protocol.ItemView) item.Stack {
	s := item.Stack{
		ID:           v.ID,
		Count:        v.Count,
		Damage:       v.Damage,
		Name:         v.Name,
		Lore:         v.Lore,
		Enchantments: v.Enchantments,
		Extra:        v.Extra,
	}
	return s.Clone()
}

func blockFromView(v protocol.BlockView) blocks.Block {
	return blocks.Block{
		Type:      blocks.Material(strings.ToUpper(strings.TrimSpace(v.Type))),
		Facing:    blocks.Facing(strings.ToUpper(v.Facing)),
		ChestType: blocks.ChestType(strings.ToUpper(v.ChestType)),
	}
}

func positions(list [][3]int) []blocks.Vec3i {
	out := make([]blocks.Vec3i, 0, len(list))
	for _, p := range list {
		out = append(out, blocks.Vec3iFromArray(p))
	}
	return out
}

func arrays(list []blocks.Vec3i) [][3]int {
	out := make([][3]int, 0, len(list))
	for _, p := range list {
		out = append(out, p.ToArray())
	}
	return out
}
