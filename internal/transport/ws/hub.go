package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"

	"uniqueloot.dev/internal/loot/vinv"
	"uniqueloot.dev/internal/protocol"
	"uniqueloot.dev/internal/sim/chests"
)

// Hub tracks connected players and fans server messages out to their writer goroutines. It is the
// presenter and effects sink of the container service; sends never block the caller, a client
// whose queue is full loses the message.
type Hub struct {
	log *log.Logger

	mu      sync.RWMutex
	clients map[uuid.UUID]chan []byte
	dropped uint64
}

func NewHub(logger *log.Logger) *Hub {
	return &Hub{log: logger, clients: map[uuid.UUID]chan []byte{}}
}

var (
	_ chests.Presenter = (*Hub)(nil)
	_ chests.Effects   = (*Hub)(nil)
)

// register attaches out to player. It fails if the player already has a connection.
func (h *Hub) register(player uuid.UUID, out chan []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[player]; ok {
		return false
	}
	h.clients[player] = out
	return true
}

func (h *Hub) unregister(player uuid.UUID, out chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.clients[player]; ok && cur == out {
		delete(h.clients, player)
	}
}

// Connected is the number of attached clients.
func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped is the number of messages lost to full client queues.
func (h *Hub) Dropped() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}

func (h *Hub) Open(player uuid.UUID, v chests.View) {
	h.sendTo(player, protocol.OpenMsg{
		Type:            protocol.TypeOpen,
		ProtocolVersion: protocol.Version,
		InventoryID:     v.InventoryID,
		Title:           v.Title,
		Size:            v.Size,
		Slots:           slotViews(v.Slots),
	})
}

func (h *Hub) ActionBar(player uuid.UUID, text string) {
	h.sendTo(player, protocol.ActionBarMsg{Type: protocol.TypeActionBar, ProtocolVersion: protocol.Version, Text: text})
}

func (h *Hub) ContainerOpened(e chests.Effect) { h.broadcast(effectMsg(protocol.EffectContainerOpen, e)) }
func (h *Hub) ContainerClosed(e chests.Effect) { h.broadcast(effectMsg(protocol.EffectContainerClose, e)) }

func effectMsg(name string, e chests.Effect) protocol.EffectMsg {
	return protocol.EffectMsg{
		Type:            protocol.TypeEffect,
		ProtocolVersion: protocol.Version,
		Effect:          name,
		World:           e.World,
		Pos:             e.Pos,
		Kind:            e.Kind.String(),
	}
}

func (h *Hub) sendTo(player uuid.UUID, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		h.log.Printf("marshal %T: %v", v, err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	out, ok := h.clients[player]
	if !ok {
		return
	}
	h.push(out, b)
}

func (h *Hub) broadcast(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		h.log.Printf("marshal %T: %v", v, err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, out := range h.clients {
		h.push(out, b)
	}
}

// push must be called with h.mu held.
func (h *Hub) push(out chan []byte, b []byte) {
	select {
	case out <- b:
	default:
		h.dropped++
	}
}

func slotViews(slots []vinv.Slot) []protocol.SlotView {
	out := make([]protocol.SlotView, 0, len(slots))
	for _, s := range slots {
		out = append(out, protocol.SlotView{Slot: s.Index, Item: itemView(s.Stack)})
	}
	return out
}
