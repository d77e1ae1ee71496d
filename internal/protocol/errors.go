package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrProtoVersion    = "E_PROTO_VERSION"

	// Session layer.
	ErrUnknownInventory = "E_UNKNOWN_INVENTORY"
	ErrNotOpen          = "E_NOT_OPEN"
	ErrBadSlot          = "E_BAD_SLOT"
	ErrBusy             = "E_BUSY"
	ErrInternal         = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest:  {},
	ErrProtoVersion:     {},
	ErrUnknownInventory: {},
	ErrNotOpen:          {},
	ErrBadSlot:          {},
	ErrBusy:             {},
	ErrInternal:         {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
