package chests

import (
	"bytes"
	"context"
	"errors"
	"log"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"uniqueloot.dev/internal/loot/ident"
	"uniqueloot.dev/internal/loot/item"
	"uniqueloot.dev/internal/loot/table"
	"uniqueloot.dev/internal/persistence/lootdb"
	"uniqueloot.dev/internal/sim/blocks"
)

const testTables = `
tables:
  chests/test:
    rolls: {min: 3, max: 3}
    entries:
      - {item: minecraft:bread, count: {min: 1, max: 4}}
      - {item: minecraft:iron_ingot, count: {min: 1, max: 2}}
  chests/other:
    rolls: {min: 2, max: 2}
    entries:
      - {item: minecraft:gold_ingot}
`

var (
	single = blocks.Vec3i{X: 0, Y: 64, Z: 0}
	left   = blocks.Vec3i{X: 10, Y: 64, Z: 0}
	right  = blocks.Vec3i{X: 11, Y: 64, Z: 0}
	broken = blocks.Vec3i{X: 20, Y: 64, Z: 0}
)

type fakePresenter struct {
	opens chan View
	bars  chan string
}

func (p *fakePresenter) Open(_ uuid.UUID, v View)            { p.opens <- v }
func (p *fakePresenter) ActionBar(_ uuid.UUID, text string) { p.bars <- text }

type fakeEffects struct {
	mu     sync.Mutex
	opened map[ident.ContainerID]int
	closed map[ident.ContainerID]int
	last   Effect
}

func (e *fakeEffects) ContainerOpened(ef Effect) {
	e.mu.Lock()
	e.opened[ef.Container]++
	e.last = ef
	e.mu.Unlock()
}

func (e *fakeEffects) ContainerClosed(ef Effect) {
	e.mu.Lock()
	e.closed[ef.Container]++
	e.last = ef
	e.mu.Unlock()
}

func (e *fakeEffects) counts(id ident.ContainerID) (int, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opened[id], e.closed[id]
}

// recordingStore wraps a MemoryStore, can be made to fail, and reports every finished Save.
type recordingStore struct {
	*lootdb.MemoryStore
	mu    sync.Mutex
	fail  bool
	gate  chan struct{}
	saved chan error
	loads int
}

func newRecordingStore() *recordingStore {
	return &recordingStore{MemoryStore: lootdb.NewMemoryStore(), saved: make(chan error, 64)}
}

func (r *recordingStore) setFail(v bool) {
	r.mu.Lock()
	r.fail = v
	r.mu.Unlock()
}

func (r *recordingStore) Load(ctx context.Context, p uuid.UUID, cid string) ([]lootdb.SlotRecord, bool, error) {
	r.mu.Lock()
	r.loads++
	fail, gate := r.fail, r.gate
	r.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if fail {
		return nil, false, &lootdb.StorageError{Op: "load", Player: p, Container: cid, Err: errors.New("database is locked")}
	}
	return r.MemoryStore.Load(ctx, p, cid)
}

func (r *recordingStore) Save(ctx context.Context, p uuid.UUID, cid string, recs []lootdb.SlotRecord) error {
	r.mu.Lock()
	fail := r.fail
	r.mu.Unlock()
	var err error
	if fail {
		err = &lootdb.StorageError{Op: "save", Player: p, Container: cid, Err: errors.New("disk I/O error")}
	} else {
		err = r.MemoryStore.Save(ctx, p, cid, recs)
	}
	r.saved <- err
	return err
}

func (r *recordingStore) loadCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loads
}

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

type harness struct {
	t      *testing.T
	svc    *Service
	world  *blocks.World
	store  *recordingStore
	pres   *fakePresenter
	fx     *fakeEffects
	logs   *syncBuffer
	cancel context.CancelFunc
	done   chan error
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	w := blocks.NewWorld()
	w.Set("world", single, blocks.Block{Type: blocks.Chest, LootTable: "chests/test"})
	w.Set("world", left, blocks.Block{Type: blocks.Chest, Facing: blocks.North, ChestType: blocks.ChestLeft, LootTable: "chests/test"})
	w.Set("world", right, blocks.Block{Type: blocks.Chest, Facing: blocks.North, ChestType: blocks.ChestRight, LootTable: "chests/other"})
	w.Set("world", broken, blocks.Block{Type: blocks.Barrel, LootTable: "chests/missing"})

	cat, err := table.Parse([]byte(testTables))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	h := &harness{
		t:     t,
		world: w,
		store: newRecordingStore(),
		pres:  &fakePresenter{opens: make(chan View, 64), bars: make(chan string, 8)},
		fx:    &fakeEffects{opened: map[ident.ContainerID]int{}, closed: map[ident.ContainerID]int{}},
		logs:  &syncBuffer{},
		done:  make(chan error, 1),
	}
	if cfg.Seed == 0 {
		cfg.Seed = 7
	}
	h.svc = New(cfg, Deps{
		World:     w,
		Store:     h.store,
		Loot:      cat,
		Presenter: h.pres,
		Effects:   h.fx,
		Logger:    log.New(h.logs, "", 0),
	})
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- h.svc.Run(ctx) }()
	t.Cleanup(h.stop)
	return h
}

func (h *harness) stop() {
	if h.cancel == nil {
		return
	}
	h.cancel()
	h.cancel = nil
	select {
	case <-h.done:
	case <-time.After(5 * time.Second):
		h.t.Fatalf("Run did not return")
	}
}

func (h *harness) join(mode GameMode) uuid.UUID {
	h.t.Helper()
	p := uuid.New()
	if err := h.svc.Join(context.Background(), JoinRequest{Player: p, Name: "p", Mode: mode}); err != nil {
		h.t.Fatalf("Join: %v", err)
	}
	return p
}

func (h *harness) interact(p uuid.UUID, pos blocks.Vec3i) InteractResult {
	h.t.Helper()
	r, err := h.svc.Interact(context.Background(), InteractRequest{Player: p, World: "world", Pos: pos})
	if err != nil {
		h.t.Fatalf("Interact: %v", err)
	}
	return r
}

func (h *harness) open(p uuid.UUID, pos blocks.Vec3i) View {
	h.t.Helper()
	h.interact(p, pos)
	return h.waitOpen()
}

func (h *harness) waitOpen() View {
	h.t.Helper()
	select {
	case v := <-h.pres.opens:
		return v
	case <-time.After(2 * time.Second):
		h.t.Fatalf("timed out waiting for an open")
	}
	return View{}
}

func (h *harness) close(p uuid.UUID, invID string) {
	h.t.Helper()
	if err := h.svc.Close(context.Background(), p, invID); err != nil {
		h.t.Fatalf("Close: %v", err)
	}
}

func (h *harness) waitSave() error {
	h.t.Helper()
	select {
	case err := <-h.store.saved:
		return err
	case <-time.After(2 * time.Second):
		h.t.Fatalf("timed out waiting for a save")
	}
	return nil
}

// settle waits for one loop round trip so gauges reflect every earlier request.
func (h *harness) settle() {
	h.t.Helper()
	if _, err := h.svc.IsTracked(context.Background(), ident.ContainerID{World: "world"}); err != nil {
		h.t.Fatalf("IsTracked: %v", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func idOf(pos blocks.Vec3i) ident.ContainerID {
	return ident.ContainerID{World: "world", X: pos.X, Y: pos.Y, Z: pos.Z}
}

func TestFreshOpenCloseRoundTrip(t *testing.T) {
	h := newHarness(t, Config{})
	a := h.join(Survival)

	if r := h.interact(a, single); r != Loading {
		t.Fatalf("first interact=%v want loading", r)
	}
	v := h.waitOpen()
	if v.Size != 27 || v.Title != "Loot container.chest" {
		t.Fatalf("view size=%d title=%q", v.Size, v.Title)
	}
	if len(v.Slots) == 0 {
		t.Fatalf("fresh loot must not be empty")
	}
	h.close(a, v.InventoryID)
	if err := h.waitSave(); err != nil {
		t.Fatalf("save: %v", err)
	}

	recs, found, err := h.store.MemoryStore.Load(context.Background(), a, idOf(single).String())
	if err != nil || !found {
		t.Fatalf("Load: found=%v err=%v", found, err)
	}
	if len(recs) != len(v.Slots) {
		t.Fatalf("stored %d slots, view had %d", len(recs), len(v.Slots))
	}
	for i, r := range recs {
		st, ok := item.Decode(r.Data)
		if !ok || r.Slot != v.Slots[i].Index || !item.Equal(st, v.Slots[i].Stack) {
			t.Fatalf("slot %d mismatch: stored=%+v view=%+v", i, st, v.Slots[i])
		}
	}
}

func TestCachedSessionIsReused(t *testing.T) {
	h := newHarness(t, Config{})
	a := h.join(Survival)
	first := h.open(a, single)
	for i := 0; i < 3; i++ {
		if r := h.interact(a, single); r != Reopened {
			t.Fatalf("interact %d=%v want reopened", i, r)
		}
		if v := h.waitOpen(); v.InventoryID != first.InventoryID {
			t.Fatalf("got a second inventory %s != %s", v.InventoryID, first.InventoryID)
		}
	}
	h.settle()
	if m := h.svc.Metrics(); m.CachedSessions != 1 {
		t.Fatalf("cached sessions=%d want 1", m.CachedSessions)
	}
	if n := h.store.loadCount(); n != 1 {
		t.Fatalf("store loads=%d want 1", n)
	}
}

func TestEffectsFireOncePerTransition(t *testing.T) {
	h := newHarness(t, Config{})
	rng := rand.New(rand.NewSource(3))
	id := idOf(left)
	for round := 0; round < 3; round++ {
		players := make([]uuid.UUID, 6)
		views := map[uuid.UUID]string{}
		for i := range players {
			players[i] = h.join(Survival)
		}
		for _, p := range players {
			pos := left
			if rng.Intn(2) == 0 {
				pos = right
			}
			views[p] = h.open(p, pos).InventoryID
		}
		rng.Shuffle(len(players), func(i, j int) { players[i], players[j] = players[j], players[i] })
		for _, p := range players {
			h.close(p, views[p])
		}
		for range players {
			h.waitSave()
		}
		o, c := h.fx.counts(id)
		if o != round+1 || c != round+1 {
			t.Fatalf("round %d: opened=%d closed=%d", round, o, c)
		}
	}
	h.settle()
	if m := h.svc.Metrics(); m.ViewedContainers != 0 {
		t.Fatalf("viewer registry not pruned: %d", m.ViewedContainers)
	}
}

func TestEmptyCloseKeepsContainerEmpty(t *testing.T) {
	h := newHarness(t, Config{})
	a := h.join(Survival)
	v := h.open(a, single)
	for _, sl := range v.Slots {
		if err := h.svc.Edit(context.Background(), EditRequest{Player: a, InventoryID: v.InventoryID, Slot: sl.Index}); err != nil {
			t.Fatalf("Edit: %v", err)
		}
	}
	h.close(a, v.InventoryID)
	if m := h.svc.Metrics(); m.Closes != 1 || m.Emptied != 1 {
		t.Fatalf("closes=%d emptied=%d want 1/1", m.Closes, m.Emptied)
	}
	if err := h.waitSave(); err != nil {
		t.Fatalf("save: %v", err)
	}
	recs, found, err := h.store.MemoryStore.Load(context.Background(), a, idOf(single).String())
	if err != nil || !found || len(recs) != 0 {
		t.Fatalf("expected Some([]): recs=%v found=%v err=%v", recs, found, err)
	}

	// Rejoin drops the cache, forcing a storage read.
	if err := h.svc.Leave(context.Background(), a); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if err := h.svc.Join(context.Background(), JoinRequest{Player: a, Mode: Survival}); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if r := h.interact(a, single); r != Loading {
		t.Fatalf("interact after rejoin=%v want loading", r)
	}
	if again := h.waitOpen(); len(again.Slots) != 0 {
		t.Fatalf("reopened container must stay empty, got %d slots", len(again.Slots))
	}
}

func TestPlayersSeeIndependentCopies(t *testing.T) {
	h := newHarness(t, Config{})
	a, b := h.join(Survival), h.join(Survival)
	va := h.open(a, single)
	vb := h.open(b, single)
	if va.InventoryID == vb.InventoryID {
		t.Fatalf("players must not share an inventory")
	}
	for _, sl := range va.Slots {
		_ = h.svc.Edit(context.Background(), EditRequest{Player: a, InventoryID: va.InventoryID, Slot: sl.Index})
	}
	h.close(a, va.InventoryID)
	h.waitSave()

	if r := h.interact(b, single); r != Reopened {
		t.Fatalf("b reopen=%v", r)
	}
	if again := h.waitOpen(); len(again.Slots) != len(vb.Slots) {
		t.Fatalf("b's copy changed: %d slots, had %d", len(again.Slots), len(vb.Slots))
	}
}

func TestStorageFailureFallsBackToFreshLoot(t *testing.T) {
	h := newHarness(t, Config{})
	h.store.setFail(true)
	a := h.join(Survival)

	v := h.open(a, single)
	if len(v.Slots) == 0 {
		t.Fatalf("load failure must roll fresh loot")
	}
	h.close(a, v.InventoryID)
	var se *lootdb.StorageError
	if err := h.waitSave(); !errors.As(err, &se) {
		t.Fatalf("expected failing save, got %v", err)
	}
	// The worker counts and logs the failure after Save returns.
	waitFor(t, func() bool {
		m := h.svc.Metrics()
		return m.LoadFailures == 1 && m.SaveFailures == 1
	})
	waitFor(t, func() bool {
		logs := h.logs.String()
		return strings.Contains(logs, "rolling fresh loot") && strings.Contains(logs, "disk I/O error")
	})

	_ = h.svc.Leave(context.Background(), a)
	_ = h.svc.Join(context.Background(), JoinRequest{Player: a})
	h.store.setFail(false)
	if r := h.interact(a, single); r != Loading {
		t.Fatalf("interact=%v", r)
	}
	if again := h.waitOpen(); len(again.Slots) == 0 {
		t.Fatalf("never-stored container must roll loot again")
	}
}

func TestLootFailureNotifiesAndCachesNothing(t *testing.T) {
	h := newHarness(t, Config{})
	a := h.join(Survival)
	for i := 0; i < 2; i++ {
		if r := h.interact(a, broken); r != Loading {
			t.Fatalf("attempt %d: interact=%v want loading", i, r)
		}
		select {
		case msg := <-h.pres.bars:
			if msg != MsgLootFailed {
				t.Fatalf("action bar=%q", msg)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("no action bar")
		}
	}
	h.settle()
	m := h.svc.Metrics()
	if m.CachedSessions != 0 || m.LootFailures != 2 || m.Opens != 0 {
		t.Fatalf("metrics=%+v", m)
	}
	select {
	case v := <-h.pres.opens:
		t.Fatalf("unexpected open %+v", v)
	default:
	}
}

func TestPendingLoadsCoalesce(t *testing.T) {
	h := newHarness(t, Config{})
	gate := make(chan struct{})
	h.store.mu.Lock()
	h.store.gate = gate
	h.store.mu.Unlock()

	a := h.join(Survival)
	if r := h.interact(a, single); r != Loading {
		t.Fatalf("first=%v", r)
	}
	if r := h.interact(a, single); r != Coalesced {
		t.Fatalf("second=%v want coalesced", r)
	}
	close(gate)
	h.waitOpen()
	h.settle()
	if m := h.svc.Metrics(); m.LoadsInFlight != 0 || m.CachedSessions != 1 {
		t.Fatalf("metrics=%+v", m)
	}
	if n := h.store.loadCount(); n != 1 {
		t.Fatalf("loads=%d want 1", n)
	}
}

func TestLeaveSavesDisplayedAndPurges(t *testing.T) {
	h := newHarness(t, Config{})
	a := h.join(Survival)
	v := h.open(a, single)
	gem := item.Stack{ID: "minecraft:emerald", Count: 5, Name: "Prize"}
	if err := h.svc.Edit(context.Background(), EditRequest{Player: a, InventoryID: v.InventoryID, Slot: 26, Item: &gem}); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if err := h.svc.Leave(context.Background(), a); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if err := h.waitSave(); err != nil {
		t.Fatalf("save: %v", err)
	}
	recs, _, _ := h.store.MemoryStore.Load(context.Background(), a, idOf(single).String())
	last := recs[len(recs)-1]
	st, ok := item.Decode(last.Data)
	if last.Slot != 26 || !ok || !item.Equal(st, gem) {
		t.Fatalf("edited slot not saved: %+v", last)
	}
	h.settle()
	m := h.svc.Metrics()
	if m.OnlinePlayers != 0 || m.CachedSessions != 0 || m.ViewedContainers != 0 {
		t.Fatalf("leave left state behind: %+v", m)
	}
	if o, c := h.fx.counts(idOf(single)); o != 1 || c != 1 {
		t.Fatalf("effects opened=%d closed=%d", o, c)
	}
	if err := h.svc.Close(context.Background(), a, v.InventoryID); !errors.Is(err, ErrUnknownPlayer) {
		t.Fatalf("close after leave: %v", err)
	}
}

func TestDoubleChestSharesOneSession(t *testing.T) {
	h := newHarness(t, Config{})
	a := h.join(Survival)
	v := h.open(a, right)
	if v.Size != 54 {
		t.Fatalf("double chest size=%d", v.Size)
	}
	// Both halves roll: 3 from chests/test and 2 from chests/other.
	if len(v.Slots) != 5 {
		t.Fatalf("slots=%d want 5", len(v.Slots))
	}
	if r := h.interact(a, left); r != Reopened {
		t.Fatalf("other half=%v want reopened", r)
	}
	if again := h.waitOpen(); again.InventoryID != v.InventoryID {
		t.Fatalf("halves resolved to different sessions")
	}
	h.fx.mu.Lock()
	pos := h.fx.last.Pos
	h.fx.mu.Unlock()
	if pos != [3]float64{11, 64.5, 0.5} {
		t.Fatalf("animation pos=%v", pos)
	}
}

func TestSpectatorSkipsViewerRegistry(t *testing.T) {
	h := newHarness(t, Config{})
	s := h.join(Spectator)
	v := h.open(s, single)
	h.settle()
	if m := h.svc.Metrics(); m.ViewedContainers != 0 {
		t.Fatalf("spectator registered as viewer")
	}
	h.close(s, v.InventoryID)
	h.waitSave()
	if o, c := h.fx.counts(idOf(single)); o != 0 || c != 0 {
		t.Fatalf("spectator triggered effects: %d/%d", o, c)
	}
}

func TestOpeningAnotherContainerClosesTheFirst(t *testing.T) {
	h := newHarness(t, Config{})
	a := h.join(Survival)
	first := h.open(a, single)
	h.open(a, left)
	if err := h.waitSave(); err != nil {
		t.Fatalf("first container not saved: %v", err)
	}
	if _, c := h.fx.counts(idOf(single)); c != 1 {
		t.Fatalf("first container close effect=%d", c)
	}
	err := h.svc.Edit(context.Background(), EditRequest{Player: a, InventoryID: first.InventoryID, Slot: 0})
	if !errors.Is(err, ErrNotDisplayed) {
		t.Fatalf("edit of hidden inventory: %v", err)
	}
}

func TestCorruptRecordSkipsOnlyThatSlot(t *testing.T) {
	h := newHarness(t, Config{})
	a := h.join(Survival)
	good, err := item.Encode(item.Stack{ID: "minecraft:diamond", Count: 2})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	_ = h.store.MemoryStore.Save(context.Background(), a, idOf(single).String(), []lootdb.SlotRecord{
		{Slot: 1, Data: "!!not base64"},
		{Slot: 4, Data: good},
		{Slot: 99, Data: good},
	})
	v := h.open(a, single)
	if len(v.Slots) != 1 || v.Slots[0].Index != 4 || v.Slots[0].Stack.ID != "minecraft:diamond" {
		t.Fatalf("slots=%+v", v.Slots)
	}
	h.settle()
	if m := h.svc.Metrics(); m.DecodeFailures != 2 {
		t.Fatalf("decode failures=%d want 2", m.DecodeFailures)
	}
}

func TestEvictOnClose(t *testing.T) {
	h := newHarness(t, Config{EvictOnClose: true})
	a := h.join(Survival)
	v := h.open(a, single)
	h.close(a, v.InventoryID)
	h.waitSave()
	if r := h.interact(a, single); r != Loading {
		t.Fatalf("evicted session must reload, got %v", r)
	}
	if again := h.waitOpen(); len(again.Slots) != len(v.Slots) {
		t.Fatalf("reload lost slots: %d vs %d", len(again.Slots), len(v.Slots))
	}
}

func TestInteractIgnored(t *testing.T) {
	h := newHarness(t, Config{})
	a := h.join(Survival)
	h.world.Set("world", blocks.Vec3i{X: 30}, blocks.Block{Type: blocks.Chest})
	if r := h.interact(a, blocks.Vec3i{X: 30}); r != Ignored {
		t.Fatalf("plain chest=%v", r)
	}
	r, err := h.svc.Interact(context.Background(), InteractRequest{Player: a, World: "world", Pos: single, Sneaking: true, HoldingItem: true})
	if err != nil || r != Ignored {
		t.Fatalf("sneak with item=%v err=%v", r, err)
	}
	if r := h.interact(uuid.New(), single); r != Ignored {
		t.Fatalf("unknown player=%v", r)
	}
}

func TestProtection(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()
	a := h.join(Survival)

	res, err := h.svc.Break(ctx, a, "world", single)
	if err != nil || res.Allowed {
		t.Fatalf("survival break: %+v err=%v", res, err)
	}
	res, err = h.svc.Explode(ctx, "world", []blocks.Vec3i{single, {X: 50}})
	if err != nil || len(res.Removed) != 1 || res.Removed[0] != (blocks.Vec3i{X: 50}) {
		t.Fatalf("explode: %+v err=%v", res, err)
	}
	res, err = h.svc.Place(ctx, a, "world", single.Add(0, -1, 0), blocks.Block{Type: blocks.Hopper})
	if err != nil || res.Allowed {
		t.Fatalf("hopper under loot chest: %+v err=%v", res, err)
	}
	if ok, _ := h.svc.CanExtract(ctx, "world", single); ok {
		t.Fatalf("extraction from loot chest allowed")
	}
	tracked, err := h.svc.IsTracked(ctx, idOf(left))
	if err != nil || !tracked {
		t.Fatalf("double chest must be tracked: %v %v", tracked, err)
	}

	if res, err := h.svc.Break(ctx, uuid.New(), "world", single); err != nil || res.Allowed {
		t.Fatalf("unknown player break: %+v err=%v", res, err)
	}
	builder := h.join(Creative)
	res, err = h.svc.Break(ctx, builder, "world", single)
	if err != nil || !res.Allowed || res.Message == "" {
		t.Fatalf("creative break: %+v err=%v", res, err)
	}
	if tracked, _ := h.svc.IsTracked(ctx, idOf(single)); tracked {
		t.Fatalf("broken chest without sessions must not be tracked")
	}
}

func TestShutdownFlushesDisplayedInventories(t *testing.T) {
	h := newHarness(t, Config{})
	a := h.join(Survival)
	v := h.open(a, single)
	h.stop()
	if err := h.waitSave(); err != nil {
		t.Fatalf("shutdown save: %v", err)
	}
	recs, found, _ := h.store.MemoryStore.Load(context.Background(), a, idOf(single).String())
	if !found || len(recs) != len(v.Slots) {
		t.Fatalf("shutdown lost contents: found=%v recs=%d", found, len(recs))
	}
	if _, err := h.svc.Interact(context.Background(), InteractRequest{Player: a}); !errors.Is(err, ErrStopped) {
		t.Fatalf("interact after stop: %v", err)
	}
}
