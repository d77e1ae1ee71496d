package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello    = "HELLO"
	TypeWelcome  = "WELCOME"
	TypeInteract = "INTERACT"
	TypeEdit     = "EDIT"
	TypeClose    = "CLOSE"
	TypeBreak    = "BREAK"
	TypeExplode  = "EXPLODE"
	TypePlace    = "PLACE"

	TypeOpen      = "OPEN"
	TypeActionBar = "ACTION_BAR"
	TypeEffect    = "EFFECT"
	TypeGuard     = "GUARD"
	TypeError     = "ERROR"
)

// Effect names carried by EFFECT.
const (
	EffectContainerOpen  = "CONTAINER_OPEN"
	EffectContainerClose = "CONTAINER_CLOSE"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
