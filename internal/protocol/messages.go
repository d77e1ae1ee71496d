package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	PlayerID        string `json:"player_id"`
	Name            string `json:"name"`
	GameMode        string `json:"game_mode,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	SessionID       string   `json:"session_id"`
	PlayerID        string   `json:"player_id"`
	GameMode        string   `json:"game_mode"`
	Worlds          []string `json:"worlds,omitempty"`
}

// INTERACT (client -> server): right click on a block.
type InteractMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	World           string `json:"world"`
	Pos             [3]int `json:"pos"`
	Sneaking        bool   `json:"sneaking,omitempty"`
	HoldingItem     bool   `json:"holding_item,omitempty"`
}

// EDIT (client -> server): set or, with a null item, clear one slot of the open inventory.
type EditMsg struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	InventoryID     string    `json:"inventory_id"`
	Slot            int       `json:"slot"`
	Item            *ItemView `json:"item"`
}

// CLOSE (client -> server)
type CloseMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	InventoryID     string `json:"inventory_id"`
}

// BREAK (client -> server)
type BreakMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	World           string `json:"world"`
	Pos             [3]int `json:"pos"`
}

// EXPLODE (client -> server): an explosion's affected block list.
type ExplodeMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	World           string   `json:"world"`
	Blocks          [][3]int `json:"blocks"`
}

// PLACE (client -> server)
type PlaceMsg struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	World           string    `json:"world"`
	Pos             [3]int    `json:"pos"`
	Block           BlockView `json:"block"`
}

type BlockView struct {
	Type      string `json:"type"`
	Facing    string `json:"facing,omitempty"`
	ChestType string `json:"chest_type,omitempty"`
}

type ItemView struct {
	ID           string            `json:"id"`
	Count        int               `json:"count"`
	Damage       int               `json:"damage,omitempty"`
	Name         string            `json:"name,omitempty"`
	Lore         []string          `json:"lore,omitempty"`
	Enchantments map[string]int    `json:"enchantments,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
}

type SlotView struct {
	Slot int      `json:"slot"`
	Item ItemView `json:"item"`
}

// OPEN (server -> client)
type OpenMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	InventoryID     string     `json:"inventory_id"`
	Title           string     `json:"title"`
	Size            int        `json:"size"`
	Slots           []SlotView `json:"slots"`
}

// ACTION_BAR (server -> client)
type ActionBarMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Text            string `json:"text"`
}

// EFFECT (server -> client): container animation, broadcast to every player in the world.
type EffectMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	Effect          string     `json:"effect"`
	World           string     `json:"world"`
	Pos             [3]float64 `json:"pos"`
	Kind            string     `json:"kind"`
}

// GUARD (server -> client): outcome of BREAK, EXPLODE or PLACE.
type GuardMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	For             string   `json:"for"`
	Allowed         bool     `json:"allowed"`
	Blocks          [][3]int `json:"blocks,omitempty"`
	Message         string   `json:"message,omitempty"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message"`
	For             string `json:"for,omitempty"`
}
