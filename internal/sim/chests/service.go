// Package chests is the container session loop: it turns player interactions with loot containers
// into private per-player inventories, loading and saving them through a storage worker pool.
//
// All session state (cache, viewers, players, the block world) is owned by the goroutine running
// Service.Run. Public methods hand requests to that goroutine and wait until it has handled them,
// so calls made in sequence by one caller are applied in that order. They are safe from any
// goroutine.
package chests

import (
	"context"
	"errors"
	"io"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"uniqueloot.dev/internal/guard"
	"uniqueloot.dev/internal/loot/ident"
	"uniqueloot.dev/internal/loot/item"
	"uniqueloot.dev/internal/loot/session"
	"uniqueloot.dev/internal/loot/table"
	"uniqueloot.dev/internal/loot/vinv"
	"uniqueloot.dev/internal/persistence/journal"
	"uniqueloot.dev/internal/persistence/lootdb"
)

type GameMode string

const (
	Survival  GameMode = "SURVIVAL"
	Creative  GameMode = "CREATIVE"
	Adventure GameMode = "ADVENTURE"
	Spectator GameMode = "SPECTATOR"
)

const MsgLootFailed = "Failed to generate loot for this container"

var (
	ErrStopped          = errors.New("container service stopped")
	ErrUnknownPlayer    = errors.New("unknown player")
	ErrUnknownInventory = errors.New("unknown inventory")
	ErrNotDisplayed     = errors.New("inventory is not open")
)

// View is what the presenter shows for an opened inventory.
type View struct {
	InventoryID string
	Title       string
	Size        int
	Slots       []vinv.Slot
}

// Presenter displays inventories and transient messages to a player. Called on the loop; it must
// not block.
type Presenter interface {
	Open(player uuid.UUID, v View)
	ActionBar(player uuid.UUID, text string)
}

// Effect describes an open/close animation of one container.
type Effect struct {
	Container ident.ContainerID
	World     string
	Pos       [3]float64
	Kind      ident.Kind
}

// Effects receives container open/close transitions: once when the first viewer arrives and once
// when the last one leaves. Called on the loop; it must not block.
type Effects interface {
	ContainerOpened(e Effect)
	ContainerClosed(e Effect)
}

// LootGenerator rolls a loot table. *table.Catalog implements it.
type LootGenerator interface {
	Generate(name string, lc table.Context, rng *rand.Rand) ([]item.Stack, error)
}

type Journal interface {
	Record(e journal.Entry) error
}

type Config struct {
	// Workers is the size of the storage pool.
	Workers int
	// EvictOnClose drops a session from the cache when its last close is processed.
	EvictOnClose bool
	// StoreTimeout bounds every Load and Save.
	StoreTimeout time.Duration
	// Seed seeds loot rolls and slot placement; 0 picks a time based seed.
	Seed int64
}

func (c *Config) normalize() {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = 5 * time.Second
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}
}

// Deps are the collaborators of a Service. World, Store and Loot are required.
type Deps struct {
	World     guard.Mutator
	Store     lootdb.Store
	Loot      LootGenerator
	Presenter Presenter
	Effects   Effects
	Journal   Journal
	Logger    *log.Logger
}

type Service struct {
	cfg     Config
	logger  *log.Logger
	world   guard.Mutator
	store   lootdb.Store
	loot    LootGenerator
	present Presenter
	effects Effects
	journal Journal
	guard   *guard.Guard
	rng     *rand.Rand

	cache   *session.Cache
	viewers *session.Viewers
	players map[uuid.UUID]*player
	loading map[loadKey]uint64
	nextGen uint64

	pool *pool

	runq     chan func()
	join     chan joinReq
	interact chan interactReq
	edit     chan editReq
	closeReq chan closeReq
	leave    chan leaveReq
	protect  chan protectReq
	tracked  chan trackedReq
	stop     chan struct{}
	stopped  chan struct{}

	metrics metrics
}

type player struct {
	ID   uuid.UUID
	Name string
	Mode GameMode
	gen  uint64

	// open is the inventory currently displayed to the player, if any.
	open   *session.Opened
	openID ident.ContainerID
}

type loadKey struct {
	player uuid.UUID
	id     ident.ContainerID
}

func (k loadKey) String() string { return k.player.String() + "/" + k.id.String() }

func New(cfg Config, d Deps) *Service {
	cfg.normalize()
	logger := d.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Service{
		cfg:     cfg,
		logger:  logger,
		world:   d.World,
		store:   d.Store,
		loot:    d.Loot,
		present: d.Presenter,
		effects: d.Effects,
		journal: d.Journal,
		rng:     rand.New(rand.NewSource(cfg.Seed)),

		cache:   session.NewCache(),
		viewers: session.NewViewers(),
		players: map[uuid.UUID]*player{},
		loading: map[loadKey]uint64{},

		pool: newPool(cfg.Workers),

		runq:     make(chan func(), 1024),
		join:     make(chan joinReq, 64),
		interact: make(chan interactReq, 256),
		edit:     make(chan editReq, 256),
		closeReq: make(chan closeReq, 256),
		leave:    make(chan leaveReq, 64),
		protect:  make(chan protectReq, 64),
		tracked:  make(chan trackedReq, 64),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	if s.present == nil {
		s.present = nopPresenter{}
	}
	if s.effects == nil {
		s.effects = nopEffects{}
	}
	if s.journal == nil {
		s.journal = nopJournal{}
	}
	s.guard = guard.New(s.world, trackerFunc(s.trackedLocked))
	return s
}

// Run owns all session state until ctx is done or Stop is called. On the way out it closes every
// displayed inventory (saving it), waits for queued storage jobs, and clears the cache and
// viewer registry.
func (s *Service) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return ctx.Err()
		case <-s.stop:
			s.shutdown()
			return nil
		case fn := <-s.runq:
			fn()
		case req := <-s.join:
			s.handleJoin(req.JoinRequest)
			req.Resp <- struct{}{}
		case req := <-s.interact:
			req.Resp <- s.handleInteract(req.InteractRequest)
		case req := <-s.edit:
			req.Resp <- s.handleEdit(req.EditRequest)
		case req := <-s.closeReq:
			req.Resp <- s.handleClose(req.Player, req.InventoryID)
		case req := <-s.leave:
			s.handleLeave(req.Player)
			req.Resp <- struct{}{}
		case req := <-s.protect:
			req.Resp <- s.handleProtect(req)
		case req := <-s.tracked:
			req.Resp <- s.isTrackedLocked(req.ID)
		}
		s.refreshGauges()
	}
}

// Stop ends Run. It may be called once.
func (s *Service) Stop() { close(s.stop) }

func (s *Service) shutdown() {
	close(s.stopped)
	for _, p := range s.players {
		if p.open != nil {
			s.closeSession(p, p.openID, p.open)
		}
	}
	s.pool.close()
	s.cache.Clear()
	s.viewers.Clear()
	clear(s.players)
	clear(s.loading)
	s.refreshGauges()
}

// post hands a storage continuation back to the loop. Once shutdown has begun the continuation
// is dropped.
func (s *Service) post(fn func()) {
	select {
	case s.runq <- fn:
	case <-s.stopped:
	}
}

func (s *Service) storeCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.cfg.StoreTimeout)
}

// send delivers a request to the loop and waits for its answer.
func send[Req any, Resp any](ctx context.Context, s *Service, ch chan Req, req Req, resp chan Resp) (Resp, error) {
	var zero Resp
	select {
	case ch <- req:
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-s.stopped:
		return zero, ErrStopped
	}
	select {
	case r := <-resp:
		return r, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-s.stopped:
		select {
		case r := <-resp:
			return r, nil
		default:
			return zero, ErrStopped
		}
	}
}

func (s *Service) record(e journal.Entry) {
	if err := s.journal.Record(e); err != nil {
		s.logger.Printf("journal: %v", err)
	}
}

type trackerFunc func(ident.ContainerID) bool

func (f trackerFunc) Tracked(id ident.ContainerID) bool { return f(id) }

type nopPresenter struct{}

func (nopPresenter) Open(uuid.UUID, View)        {}
func (nopPresenter) ActionBar(uuid.UUID, string) {}

type nopEffects struct{}

func (nopEffects) ContainerOpened(Effect) {}
func (nopEffects) ContainerClosed(Effect) {}

type nopJournal struct{}

func (nopJournal) Record(journal.Entry) error { return nil }
