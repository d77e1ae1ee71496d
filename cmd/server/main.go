package main

import (
	"context"
	"flag"
	"io"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"uniqueloot.dev/internal/config"
	"uniqueloot.dev/internal/loot/table"
	"uniqueloot.dev/internal/persistence/journal"
	"uniqueloot.dev/internal/sim/blocks"
	"uniqueloot.dev/internal/sim/chests"
	"uniqueloot.dev/internal/transport/ws"
)

func main() {
	var (
		configPath   = flag.String("config", "./configs/server.yaml", "server config path (defaults apply when missing)")
		addr         = flag.String("addr", "", "http listen address (overrides config)")
		dataDir      = flag.String("data", "", "runtime data directory (overrides config)")
		backend      = flag.String("store", "", "store backend: sqlite|redis|mongo|memory (overrides config and UL_STORE_BACKEND)")
		lootPath     = flag.String("loot_tables", "", "loot table catalog path (overrides config)")
		worldPath    = flag.String("world", "", "world layout path (overrides config)")
		workers      = flag.Int("workers", 0, "storage worker count (overrides config)")
		evictOnClose = flag.Bool("evict_on_close", false, "drop a session from memory once nobody views it")
		noJournal    = flag.Bool("disable_journal", false, "disable the session journal")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dataDir != "" {
		cfg.SetDataDir(*dataDir)
	}
	if *backend != "" {
		cfg.Store.Backend = *backend
	}
	if *lootPath != "" {
		cfg.LootTables = *lootPath
	}
	if *worldPath != "" {
		cfg.World = *worldPath
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	cfg.EvictOnClose = cfg.EvictOnClose || *evictOnClose
	cfg.DisableJournal = cfg.DisableJournal || *noJournal
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg.Log)

	cat, err := table.Load(cfg.LootTables)
	if err != nil {
		logger.Fatalf("load loot tables: %v", err)
	}
	layout, err := blocks.LoadLayout(cfg.World)
	if err != nil {
		logger.Fatalf("load world: %v", err)
	}
	w := blocks.NewWorld()
	n := layout.Apply(w)
	logger.Printf("world: %d blocks in %d worlds, %d loot tables", n, len(layout.Worlds), len(cat.Tables))

	store, err := openStore(cfg.Store, logger)
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	defer store.Close()

	var jr chests.Journal
	if !cfg.DisableJournal {
		jw := journal.Open(cfg.DataDir)
		defer jw.Close()
		jr = jw
	}

	hub := ws.NewHub(logger)
	svc := chests.New(chests.Config{
		Workers:      cfg.Workers,
		EvictOnClose: cfg.EvictOnClose,
		StoreTimeout: cfg.StoreTimeout(),
		Seed:         cfg.Seed,
	}, chests.Deps{
		World:     w,
		Store:     store,
		Loot:      cat,
		Presenter: hub,
		Effects:   hub,
		Journal:   jr,
		Logger:    logger,
	})

	ctx, cancel := signalContext()
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		if err := svc.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("service stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writeMetrics(rw, svc.Metrics(), hub)
	})
	if envBool("UL_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	} else {
		logger.Printf("pprof endpoints disabled (UL_ENABLE_PPROF_HTTP=false)")
	}
	mux.HandleFunc("/v1/ws", ws.NewServer(svc, hub, layout.WorldIDs(), logger).Handler())

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Printf("ListenAndServe: %v", err)
		cancel()
	}
	// Displayed inventories are saved before the store closes.
	<-stopped
	logger.Printf("shutdown complete")
}

func newLogger(cfg config.LogConfig) *log.Logger {
	var out io.Writer = os.Stdout
	if strings.TrimSpace(cfg.File) != "" {
		_ = os.MkdirAll(filepath.Dir(cfg.File), 0o755)
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		})
	}
	return log.New(out, "[server] ", log.LstdFlags|log.Lmicroseconds)
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
