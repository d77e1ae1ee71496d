package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"uniqueloot.dev/internal/guard"
	"uniqueloot.dev/internal/loot/vinv"
	"uniqueloot.dev/internal/protocol"
	"uniqueloot.dev/internal/sim/blocks"
	"uniqueloot.dev/internal/sim/chests"
)

// Service is the part of the container service the transport drives.
type Service interface {
	Join(ctx context.Context, req chests.JoinRequest) error
	Leave(ctx context.Context, player uuid.UUID) error
	Interact(ctx context.Context, req chests.InteractRequest) (chests.InteractResult, error)
	Edit(ctx context.Context, req chests.EditRequest) error
	Close(ctx context.Context, player uuid.UUID, inventoryID string) error
	Break(ctx context.Context, player uuid.UUID, world string, pos blocks.Vec3i) (chests.ProtectResult, error)
	Explode(ctx context.Context, world string, list []blocks.Vec3i) (chests.ProtectResult, error)
	Place(ctx context.Context, player uuid.UUID, world string, pos blocks.Vec3i, b blocks.Block) (chests.ProtectResult, error)
}

type Server struct {
	svc Service
	hub *Hub
	log *log.Logger
	// worlds is advertised in WELCOME.
	worlds []string

	upgrader websocket.Upgrader
}

func NewServer(svc Service, hub *Hub, worlds []string, logger *log.Logger) *Server {
	return &Server{
		svc:    svc,
		hub:    hub,
		log:    logger,
		worlds: append([]string(nil), worlds...),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

type conn struct {
	player uuid.UUID
	out    chan []byte
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		ws, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		c, ok := s.handshake(ws)
		if !ok {
			return
		}
		defer s.hub.unregister(c.player, c.out)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-c.out:
					_ = ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = ws.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := ws.ReadMessage()
			if err != nil {
				break
			}
			if !s.dispatch(ctx, c, msg) {
				break
			}
		}
		cancel()

		// Cleanup.
		leaveCtx, leaveCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer leaveCancel()
		if err := s.svc.Leave(leaveCtx, c.player); err != nil {
			s.log.Printf("leave %s: %v", c.player, err)
		}
	}
}

func (s *Server) handshake(ws *websocket.Conn) (*conn, bool) {
	_ = ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := ws.ReadMessage()
	if err != nil {
		return nil, false
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(ws, "expected HELLO")
		return nil, false
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		closeWith(ws, "bad HELLO")
		return nil, false
	}
	if hello.ProtocolVersion != protocol.Version {
		closeWith(ws, "bad protocol_version")
		return nil, false
	}
	player, err := uuid.Parse(strings.TrimSpace(hello.PlayerID))
	if err != nil || player == uuid.Nil {
		closeWith(ws, "bad player_id")
		return nil, false
	}
	mode := chests.GameMode(strings.ToUpper(strings.TrimSpace(hello.GameMode)))
	switch mode {
	case "":
		mode = chests.Survival
	case chests.Survival, chests.Creative, chests.Adventure, chests.Spectator:
	default:
		closeWith(ws, "bad game_mode")
		return nil, false
	}

	c := &conn{player: player, out: make(chan []byte, 64)}
	if !s.hub.register(player, c.out) {
		closeWith(ws, "already connected")
		return nil, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.svc.Join(ctx, chests.JoinRequest{Player: player, Name: hello.Name, Mode: mode}); err != nil {
		s.hub.unregister(player, c.out)
		closeWith(ws, "server unavailable")
		return nil, false
	}

	if err := writeJSON(ws, protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       uuid.NewString(),
		PlayerID:        player.String(),
		GameMode:        string(mode),
		Worlds:          s.worlds,
	}); err != nil {
		s.hub.unregister(player, c.out)
		_ = s.svc.Leave(ctx, player)
		return nil, false
	}
	return c, true
}

// dispatch routes one client message. It returns false when the connection should end.
func (s *Server) dispatch(ctx context.Context, c *conn, msg []byte) bool {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		s.sendError(c, "", protocol.ErrProtoBadRequest, "malformed json")
		return true
	}
	if base.ProtocolVersion != protocol.Version {
		s.sendError(c, base.Type, protocol.ErrProtoVersion, "bad protocol_version")
		return true
	}

	switch base.Type {
	case protocol.TypeInteract:
		var m protocol.InteractMsg
		if !s.decode(c, base.Type, msg, &m) {
			return true
		}
		_, err = s.svc.Interact(ctx, chests.InteractRequest{
			Player:      c.player,
			World:       m.World,
			Pos:         blocks.Vec3iFromArray(m.Pos),
			Sneaking:    m.Sneaking,
			HoldingItem: m.HoldingItem,
		})
	case protocol.TypeEdit:
		var m protocol.EditMsg
		if !s.decode(c, base.Type, msg, &m) {
			return true
		}
		req := chests.EditRequest{Player: c.player, InventoryID: m.InventoryID, Slot: m.Slot}
		if m.Item != nil {
			st := stackFromView(*m.Item)
			req.Item = &st
		}
		err = s.svc.Edit(ctx, req)
	case protocol.TypeClose:
		var m protocol.CloseMsg
		if !s.decode(c, base.Type, msg, &m) {
			return true
		}
		err = s.svc.Close(ctx, c.player, m.InventoryID)
	case protocol.TypeBreak:
		var m protocol.BreakMsg
		if !s.decode(c, base.Type, msg, &m) {
			return true
		}
		var res chests.ProtectResult
		res, err = s.svc.Break(ctx, c.player, m.World, blocks.Vec3iFromArray(m.Pos))
		if err == nil {
			s.sendGuard(c, base.Type, res.Decision, nil)
		}
	case protocol.TypeExplode:
		var m protocol.ExplodeMsg
		if !s.decode(c, base.Type, msg, &m) {
			return true
		}
		var res chests.ProtectResult
		res, err = s.svc.Explode(ctx, m.World, positions(m.Blocks))
		if err == nil {
			s.sendGuard(c, base.Type, res.Decision, arrays(res.Removed))
		}
	case protocol.TypePlace:
		var m protocol.PlaceMsg
		if !s.decode(c, base.Type, msg, &m) {
			return true
		}
		var res chests.ProtectResult
		res, err = s.svc.Place(ctx, c.player, m.World, blocks.Vec3iFromArray(m.Pos), blockFromView(m.Block))
		if err == nil {
			s.sendGuard(c, base.Type, res.Decision, arrays(res.Updated))
		}
	default:
		s.sendError(c, base.Type, protocol.ErrProtoBadRequest, "unknown message type")
		return true
	}

	if err != nil {
		code, text := errorCode(err)
		s.sendError(c, base.Type, code, text)
		return !errors.Is(err, chests.ErrStopped) && ctx.Err() == nil
	}
	return true
}

func (s *Server) decode(c *conn, typ string, msg []byte, v any) bool {
	if err := json.Unmarshal(msg, v); err != nil {
		s.sendError(c, typ, protocol.ErrProtoBadRequest, err.Error())
		return false
	}
	return true
}

func (s *Server) sendGuard(c *conn, typ string, d guard.Decision, list [][3]int) {
	s.hub.sendTo(c.player, protocol.GuardMsg{
		Type:            protocol.TypeGuard,
		ProtocolVersion: protocol.Version,
		For:             typ,
		Allowed:         d.Allowed,
		Blocks:          list,
		Message:         d.Message,
	})
}

func (s *Server) sendError(c *conn, typ, code, text string) {
	s.hub.sendTo(c.player, protocol.ErrorMsg{
		Type:            protocol.TypeError,
		ProtocolVersion: protocol.Version,
		Code:            code,
		Message:         text,
		For:             typ,
	})
}

func errorCode(err error) (string, string) {
	switch {
	case errors.Is(err, chests.ErrUnknownInventory), errors.Is(err, chests.ErrUnknownPlayer):
		return protocol.ErrUnknownInventory, err.Error()
	case errors.Is(err, chests.ErrNotDisplayed):
		return protocol.ErrNotOpen, err.Error()
	case errors.Is(err, chests.ErrStopped), errors.Is(err, context.DeadlineExceeded):
		return protocol.ErrBusy, err.Error()
	case errors.Is(err, vinv.ErrSlotRange):
		return protocol.ErrBadSlot, err.Error()
	default:
		return protocol.ErrInternal, err.Error()
	}
}

func closeWith(ws *websocket.Conn, reason string) {
	_ = ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func writeJSON(ws *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return ws.WriteMessage(websocket.TextMessage, b)
}
