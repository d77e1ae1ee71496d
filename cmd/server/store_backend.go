package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"uniqueloot.dev/internal/config"
	"uniqueloot.dev/internal/persistence/lootdb"
)

func openStore(cfg config.StoreConfig, logger *log.Logger) (lootdb.Store, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		logger.Printf("store: sqlite path=%s", cfg.SQLitePath)
		return lootdb.OpenSQLite(cfg.SQLitePath)
	case config.BackendRedis:
		rdb := lootdb.NewRedisClient(cfg.Redis.Addrs, cfg.Redis.Password)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis ping %v: %w", cfg.Redis.Addrs, err)
		}
		logger.Printf("store: redis addrs=%v prefix=%s", cfg.Redis.Addrs, cfg.Redis.Prefix)
		return lootdb.NewRedisStore(rdb, cfg.Redis.Prefix), nil
	case config.BackendMongo:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s, err := lootdb.OpenMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection)
		if err != nil {
			return nil, err
		}
		logger.Printf("store: mongo db=%s collection=%s", cfg.Mongo.Database, cfg.Mongo.Collection)
		return s, nil
	case config.BackendMemory:
		logger.Printf("store: memory (contents are lost on exit)")
		return lootdb.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Backend)
	}
}
