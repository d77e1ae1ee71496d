package chests

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"uniqueloot.dev/internal/loot/ident"
	"uniqueloot.dev/internal/loot/item"
	"uniqueloot.dev/internal/loot/session"
	"uniqueloot.dev/internal/loot/table"
	"uniqueloot.dev/internal/loot/vinv"
	"uniqueloot.dev/internal/persistence/journal"
	"uniqueloot.dev/internal/persistence/lootdb"
	"uniqueloot.dev/internal/sim/blocks"
)

type JoinRequest struct {
	Player uuid.UUID
	Name   string
	Mode   GameMode
}

type InteractRequest struct {
	Player      uuid.UUID
	World       string
	Pos         blocks.Vec3i
	Sneaking    bool
	HoldingItem bool
}

// InteractResult is what the loop did with an interaction. The inventory itself reaches the player
// through the Presenter.
type InteractResult int

const (
	// Ignored: not a loot container interaction; normal behaviour applies.
	Ignored InteractResult = iota
	// Reopened: the cached session was shown again.
	Reopened
	// Loading: a storage load was queued; the view opens when it completes.
	Loading
	// Coalesced: a load for the same player and container is already pending.
	Coalesced
)

func (r InteractResult) String() string {
	switch r {
	case Reopened:
		return "reopened"
	case Loading:
		return "loading"
	case Coalesced:
		return "coalesced"
	default:
		return "ignored"
	}
}

type interactReq struct {
	InteractRequest
	Resp chan InteractResult
}

type joinReq struct {
	JoinRequest
	Resp chan struct{}
}

type leaveReq struct {
	Player uuid.UUID
	Resp   chan struct{}
}

// Join registers an online player. Joining again with the same id replaces the previous session as
// if the player had left first.
func (s *Service) Join(ctx context.Context, req JoinRequest) error {
	r := joinReq{JoinRequest: req, Resp: make(chan struct{}, 1)}
	_, err := send(ctx, s, s.join, r, r.Resp)
	return err
}

// Leave closes the player's displayed inventory, then forgets every session and viewer entry of
// the player.
func (s *Service) Leave(ctx context.Context, player uuid.UUID) error {
	r := leaveReq{Player: player, Resp: make(chan struct{}, 1)}
	_, err := send(ctx, s, s.leave, r, r.Resp)
	return err
}

func (s *Service) Interact(ctx context.Context, req InteractRequest) (InteractResult, error) {
	r := interactReq{InteractRequest: req, Resp: make(chan InteractResult, 1)}
	return send(ctx, s, s.interact, r, r.Resp)
}

func (s *Service) handleJoin(req JoinRequest) {
	if _, ok := s.players[req.Player]; ok {
		s.handleLeave(req.Player)
	}
	mode := req.Mode
	if mode == "" {
		mode = Survival
	}
	s.nextGen++
	s.players[req.Player] = &player{ID: req.Player, Name: req.Name, Mode: mode, gen: s.nextGen}
}

func (s *Service) handleInteract(req InteractRequest) InteractResult {
	p := s.players[req.Player]
	if p == nil {
		return Ignored
	}
	if !s.guard.CanOpen(req.World, req.Pos, req.Sneaking, req.HoldingItem) {
		return Ignored
	}
	id, kind, ok := ident.Resolve(s.world, req.World, req.Pos)
	if !ok {
		return Ignored
	}

	if o, ok := s.cache.Get(p.ID, id); ok {
		s.openFor(p, id, o)
		return Reopened
	}

	key := loadKey{player: p.ID, id: id}
	if _, busy := s.loading[key]; busy {
		return Coalesced
	}

	// Captured here: the block world is only read on the loop.
	pending := pendingOpen{
		key:    key,
		gen:    p.gen,
		kind:   kind,
		world:  req.World,
		anchor: req.Pos,
		tables: s.tablesAt(req.World, req.Pos),
	}
	s.loading[key] = p.gen
	s.metrics.loadsInFlight.Add(1)
	queued := s.pool.submit(key.String(), func() {
		ctx, cancel := s.storeCtx()
		defer cancel()
		recs, found, err := s.store.Load(ctx, key.player, key.id.String())
		s.post(func() { s.finishLoad(pending, recs, found, err) })
	})
	if !queued {
		delete(s.loading, key)
		s.metrics.loadsInFlight.Add(-1)
		return Ignored
	}
	return Loading
}

type pendingOpen struct {
	key    loadKey
	gen    uint64
	kind   ident.Kind
	world  string
	anchor blocks.Vec3i
	tables []string
}

// tablesAt lists the loot tables behind a container: one per half that carries a table.
func (s *Service) tablesAt(world string, pos blocks.Vec3i) []string {
	var out []string
	for _, half := range ident.Halves(s.world, world, pos) {
		if b := s.world.BlockAt(world, half); b.LootTable != "" {
			out = append(out, b.LootTable)
		}
	}
	return out
}

func (s *Service) finishLoad(po pendingOpen, recs []lootdb.SlotRecord, found bool, err error) {
	if gen, ok := s.loading[po.key]; ok && gen == po.gen {
		delete(s.loading, po.key)
	}
	s.metrics.loadsInFlight.Add(-1)

	cid := po.key.id.String()
	if err != nil {
		s.metrics.loadFailures.Add(1)
		s.logger.Printf("load %s: %v; rolling fresh loot", po.key, err)
		s.record(journal.Entry{Kind: journal.KindLoadFailed, Player: po.key.player, Container: cid, Error: err.Error()})
		found = false
	}

	p := s.players[po.key.player]
	if p == nil || p.gen != po.gen {
		return
	}
	// A session may have appeared while the load was pending (the player left and rejoined and
	// opened again).
	if o, ok := s.cache.Get(p.ID, po.key.id); ok {
		s.openFor(p, po.key.id, o)
		return
	}

	inv := vinv.New(po.kind.Size(), po.kind.Title())
	if found {
		s.populate(po, inv, recs)
	} else if !s.rollLoot(p, po, inv) {
		return
	}

	o := s.cache.Put(p.ID, po.key.id, &session.Opened{Inv: inv, World: po.world, Anchor: po.anchor, Kind: po.kind})
	s.openFor(p, po.key.id, o)
}

// populate decodes each stored slot on its own; a bad record only loses that slot.
func (s *Service) populate(po pendingOpen, inv *vinv.Inventory, recs []lootdb.SlotRecord) {
	for _, r := range recs {
		st, ok := item.Decode(r.Data)
		if !ok {
			s.metrics.decodeFailures.Add(1)
			s.logger.Printf("decode %s slot %d: malformed item, skipped", po.key, r.Slot)
			continue
		}
		if err := inv.Set(r.Slot, st); err != nil {
			s.metrics.decodeFailures.Add(1)
			s.logger.Printf("decode %s slot %d: %v, skipped", po.key, r.Slot, err)
		}
	}
}

// rollLoot fills inv from the container's tables. On failure the player is told and nothing is
// cached, so the next interaction tries again.
func (s *Service) rollLoot(p *player, po pendingOpen, inv *vinv.Inventory) bool {
	lc := table.Context{World: po.world, Pos: po.anchor, Player: p.ID}
	var items []item.Stack
	var err error
	if len(po.tables) == 0 {
		err = &table.GenerationError{Err: table.ErrInvalidContext}
	}
	for _, name := range po.tables {
		var got []item.Stack
		got, err = s.loot.Generate(name, lc, s.rng)
		if err != nil {
			break
		}
		items = append(items, got...)
	}
	if err != nil {
		s.metrics.lootFailures.Add(1)
		var ge *table.GenerationError
		if errors.As(err, &ge) {
			s.logger.Printf("loot %s table=%q: %v", po.key, ge.Table, ge.Err)
		} else {
			s.logger.Printf("loot %s: %v", po.key, err)
		}
		s.record(journal.Entry{Kind: journal.KindLootFailed, Player: p.ID, Container: po.key.id.String(), Error: err.Error()})
		s.present.ActionBar(p.ID, MsgLootFailed)
		return false
	}
	inv.Distribute(items, s.rng)
	return true
}

// openFor shows o to p, closing whatever else p had open. Spectators never enter the viewer
// registry, so they trigger no effects.
func (s *Service) openFor(p *player, id ident.ContainerID, o *session.Opened) {
	if p.open != nil && p.open != o {
		s.closeSession(p, p.openID, p.open)
	}
	if p.Mode != Spectator && s.viewers.Add(id, p.ID) {
		s.effects.ContainerOpened(s.effectFor(id, o))
	}
	p.open = o
	p.openID = id
	s.metrics.opens.Add(1)
	s.present.Open(p.ID, View{
		InventoryID: o.Inv.ID(),
		Title:       o.Inv.Title(),
		Size:        o.Inv.Size(),
		Slots:       o.Inv.Occupied(),
	})
	s.record(journal.Entry{Kind: journal.KindOpen, Player: p.ID, Container: id.String(), Slots: len(o.Inv.Occupied())})
}

func (s *Service) effectFor(id ident.ContainerID, o *session.Opened) Effect {
	return Effect{
		Container: id,
		World:     o.World,
		Pos:       ident.AnimationPos(s.world, o.World, o.Anchor),
		Kind:      o.Kind,
	}
}
