package chests

import (
	"context"

	"github.com/google/uuid"

	"uniqueloot.dev/internal/guard"
	"uniqueloot.dev/internal/loot/ident"
	"uniqueloot.dev/internal/sim/blocks"
)

type protectKind int

const (
	protectBreak protectKind = iota + 1
	protectExplode
	protectPlace
	protectExtract
)

type protectReq struct {
	kind     protectKind
	player   uuid.UUID
	world    string
	pos      blocks.Vec3i
	list     []blocks.Vec3i
	block    blocks.Block
	Resp     chan ProtectResult
}

// ProtectResult is the outcome of a guarded world change. Removed lists blocks an explosion may
// destroy; Updated lists chests that were forced single by a placement.
type ProtectResult struct {
	guard.Decision
	Removed []blocks.Vec3i
	Updated []blocks.Vec3i
}

type trackedReq struct {
	ID   ident.ContainerID
	Resp chan bool
}

// Break applies a block break unless it hits a loot container and the player did not join in
// creative mode. Unknown players are treated as survival.
func (s *Service) Break(ctx context.Context, player uuid.UUID, world string, pos blocks.Vec3i) (ProtectResult, error) {
	return s.protectCall(ctx, protectReq{kind: protectBreak, player: player, world: world, pos: pos})
}

// Explode removes every listed block except loot containers.
func (s *Service) Explode(ctx context.Context, world string, list []blocks.Vec3i) (ProtectResult, error) {
	return s.protectCall(ctx, protectReq{kind: protectExplode, world: world, list: list})
}

// Place puts b at pos. Hoppers next to loot containers are refused; chests placed next to a loot
// chest stay single.
func (s *Service) Place(ctx context.Context, player uuid.UUID, world string, pos blocks.Vec3i, b blocks.Block) (ProtectResult, error) {
	return s.protectCall(ctx, protectReq{kind: protectPlace, player: player, world: world, pos: pos, block: b})
}

// CanExtract reports whether automation may pull items out of the container at pos.
func (s *Service) CanExtract(ctx context.Context, world string, pos blocks.Vec3i) (bool, error) {
	r, err := s.protectCall(ctx, protectReq{kind: protectExtract, world: world, pos: pos})
	return r.Allowed, err
}

// IsTracked reports whether id is a loot container: its block carries a loot table, or some
// player holds a session or a view of it.
func (s *Service) IsTracked(ctx context.Context, id ident.ContainerID) (bool, error) {
	r := trackedReq{ID: id, Resp: make(chan bool, 1)}
	return send(ctx, s, s.tracked, r, r.Resp)
}

func (s *Service) protectCall(ctx context.Context, req protectReq) (ProtectResult, error) {
	req.Resp = make(chan ProtectResult, 1)
	return send(ctx, s, s.protect, req, req.Resp)
}

func (s *Service) handleProtect(req protectReq) ProtectResult {
	switch req.kind {
	case protectBreak:
		p := s.players[req.player]
		d := s.guard.CanBreak(req.world, req.pos, p != nil && p.Mode == Creative)
		if d.Allowed {
			s.world.Set(req.world, req.pos, blocks.Block{Type: blocks.Air})
		}
		return ProtectResult{Decision: d}
	case protectExplode:
		kept := s.guard.FilterExplosion(req.world, req.list)
		for _, pos := range kept {
			s.world.Set(req.world, pos, blocks.Block{Type: blocks.Air})
		}
		return ProtectResult{Decision: guard.Decision{Allowed: true}, Removed: kept}
	case protectPlace:
		if req.block.Type == blocks.Hopper {
			if d := s.guard.CanPlaceHopper(req.world, req.pos); !d.Allowed {
				return ProtectResult{Decision: d}
			}
		}
		s.world.Set(req.world, req.pos, req.block)
		return ProtectResult{
			Decision: guard.Decision{Allowed: true},
			Updated:  guard.ForceSingleOnPlace(s.world, req.world, req.pos),
		}
	case protectExtract:
		return ProtectResult{Decision: guard.Decision{Allowed: s.guard.CanExtract(req.world, req.pos)}}
	}
	return ProtectResult{}
}

// trackedLocked is the loop-side tracker the guards consult.
func (s *Service) trackedLocked(id ident.ContainerID) bool {
	return s.cache.Has(id) || s.viewers.Count(id) > 0
}

func (s *Service) isTrackedLocked(id ident.ContainerID) bool {
	for _, half := range ident.Halves(s.world, id.World, id.Pos()) {
		if s.world.BlockAt(id.World, half).HasLootTable() {
			return true
		}
	}
	return s.trackedLocked(id)
}
