package chests

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"uniqueloot.dev/internal/loot/ident"
	"uniqueloot.dev/internal/loot/item"
	"uniqueloot.dev/internal/loot/session"
	"uniqueloot.dev/internal/loot/vinv"
	"uniqueloot.dev/internal/persistence/journal"
	"uniqueloot.dev/internal/persistence/lootdb"
)

// EditRequest sets (Item != nil) or clears one slot of the inventory the player has open.
type EditRequest struct {
	Player      uuid.UUID
	InventoryID string
	Slot        int
	Item        *item.Stack
}

type editReq struct {
	EditRequest
	Resp chan error
}

type closeReq struct {
	Player      uuid.UUID
	InventoryID string
	Resp        chan error
}

func (s *Service) Edit(ctx context.Context, req EditRequest) error {
	r := editReq{EditRequest: req, Resp: make(chan error, 1)}
	err, sendErr := send(ctx, s, s.edit, r, r.Resp)
	if sendErr != nil {
		return sendErr
	}
	return err
}

// Close handles the UI close of an inventory, matched by its handle among the player's sessions.
func (s *Service) Close(ctx context.Context, player uuid.UUID, inventoryID string) error {
	r := closeReq{Player: player, InventoryID: inventoryID, Resp: make(chan error, 1)}
	err, sendErr := send(ctx, s, s.closeReq, r, r.Resp)
	if sendErr != nil {
		return sendErr
	}
	return err
}

func (s *Service) handleEdit(req EditRequest) error {
	p := s.players[req.Player]
	if p == nil {
		return ErrUnknownPlayer
	}
	if p.open == nil || p.open.Inv.ID() != req.InventoryID {
		if _, _, ok := s.cache.FindByInventoryID(p.ID, req.InventoryID); !ok {
			return ErrUnknownInventory
		}
		return ErrNotDisplayed
	}
	if req.Item == nil {
		if req.Slot < 0 || req.Slot >= p.open.Inv.Size() {
			return fmt.Errorf("%w: %d not in [0,%d)", vinv.ErrSlotRange, req.Slot, p.open.Inv.Size())
		}
		p.open.Inv.Clear(req.Slot)
		return nil
	}
	return p.open.Inv.Set(req.Slot, *req.Item)
}

func (s *Service) handleClose(playerID uuid.UUID, inventoryID string) error {
	p := s.players[playerID]
	if p == nil {
		return ErrUnknownPlayer
	}
	id, o, ok := s.cache.FindByInventoryID(p.ID, inventoryID)
	if !ok {
		return ErrUnknownInventory
	}
	s.closeSession(p, id, o)
	return nil
}

func (s *Service) handleLeave(playerID uuid.UUID) {
	p := s.players[playerID]
	if p == nil {
		return
	}
	if p.open != nil {
		s.closeSession(p, p.openID, p.open)
	}
	s.cache.RemoveAll(p.ID)
	for _, id := range s.viewers.RemovePlayer(p.ID) {
		s.effects.ContainerClosed(s.effectAt(id))
	}
	for key, gen := range s.loading {
		if key.player == p.ID && gen == p.gen {
			delete(s.loading, key)
		}
	}
	delete(s.players, p.ID)
}

// closeSession persists o and releases p's view of it.
func (s *Service) closeSession(p *player, id ident.ContainerID, o *session.Opened) {
	recs := s.encodeSlots(p.ID, id, o.Inv)
	s.save(p.ID, id, recs)

	if p.open == o {
		p.open = nil
		p.openID = ident.ContainerID{}
	}
	if p.Mode != Spectator && s.viewers.Remove(id, p.ID) {
		s.effects.ContainerClosed(s.effectFor(id, o))
	}
	if s.cfg.EvictOnClose {
		s.cache.Remove(p.ID, id)
	}
	s.metrics.closes.Add(1)
	if o.Inv.IsEmpty() {
		s.metrics.emptied.Add(1)
	}
	s.record(journal.Entry{Kind: journal.KindClose, Player: p.ID, Container: id.String(), Slots: len(recs)})
}

// encodeSlots serializes every occupied slot in ascending order. A slot that fails to encode is
// left out of the save.
func (s *Service) encodeSlots(player uuid.UUID, id ident.ContainerID, inv *vinv.Inventory) []lootdb.SlotRecord {
	occupied := inv.Occupied()
	recs := make([]lootdb.SlotRecord, 0, len(occupied))
	for _, sl := range occupied {
		data, err := item.Encode(sl.Stack)
		if err != nil {
			s.metrics.encodeFailures.Add(1)
			s.logger.Printf("encode %s/%s slot %d: %v", player, id, sl.Index, err)
			continue
		}
		recs = append(recs, lootdb.SlotRecord{Slot: sl.Index, Data: data})
	}
	return recs
}

// save queues the write. Failures are logged and journaled from the worker; nothing waits on it.
func (s *Service) save(player uuid.UUID, id ident.ContainerID, recs []lootdb.SlotRecord) {
	key := loadKey{player: player, id: id}
	cid := id.String()
	queued := s.pool.submit(key.String(), func() {
		ctx, cancel := s.storeCtx()
		defer cancel()
		if err := s.store.Save(ctx, player, cid, recs); err != nil {
			s.metrics.saveFailures.Add(1)
			s.logger.Printf("save %s: %v", key, err)
			s.record(journal.Entry{Kind: journal.KindSaveFailed, Player: player, Container: cid, Slots: len(recs), Error: err.Error()})
		}
	})
	if !queued {
		s.metrics.saveFailures.Add(1)
		s.logger.Printf("save %s: storage pool closed, dropped %d slots", key, len(recs))
	}
}

// effectAt builds a close effect for a container with no cached session left, from the block
// world as it is now.
func (s *Service) effectAt(id ident.ContainerID) Effect {
	_, kind, _ := ident.Resolve(s.world, id.World, id.Pos())
	return Effect{
		Container: id,
		World:     id.World,
		Pos:       ident.AnimationPos(s.world, id.World, id.Pos()),
		Kind:      kind,
	}
}
