package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Server struct {
	Addr    string `yaml:"addr"`
	DataDir string `yaml:"data_dir"`

	Store StoreConfig `yaml:"store"`

	// Workers is the storage pool size.
	Workers      int  `yaml:"workers"`
	EvictOnClose bool `yaml:"evict_on_close"`
	// StoreTimeoutMs bounds every Load and Save.
	StoreTimeoutMs int   `yaml:"store_timeout_ms"`
	Seed           int64 `yaml:"seed"`

	LootTables string `yaml:"loot_tables"`
	World      string `yaml:"world"`

	DisableJournal bool `yaml:"disable_journal"`

	Log LogConfig `yaml:"log"`
}

type StoreConfig struct {
	Backend    string      `yaml:"backend"`
	SQLitePath string      `yaml:"sqlite_path"`
	Redis      RedisConfig `yaml:"redis"`
	Mongo      MongoConfig `yaml:"mongo"`
}

type RedisConfig struct {
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`
	Prefix   string   `yaml:"prefix"`
}

type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

type LogConfig struct {
	// File is the rotating log file; empty logs to stdout only.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Server, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("server.yaml: %w", err)
			}
		}
	}
	cfg.ApplyEnv(os.Getenv)
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("server.yaml: %w", err)
	}
	return cfg, nil
}

func Defaults() Server {
	return Server{
		Addr:    ":8080",
		DataDir: "./data",
		Store: StoreConfig{
			Backend: BackendSQLite,
			Redis:   RedisConfig{Prefix: "loot"},
			Mongo:   MongoConfig{Database: "uniqueloot", Collection: "player_chest"},
		},
		Workers:        4,
		StoreTimeoutMs: 5000,
		LootTables:     "./configs/loot_tables.yaml",
		World:          "./configs/world.yaml",
		Log: LogConfig{
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 14,
		},
	}
}

// ApplyEnv lets UL_STORE_BACKEND, UL_REDIS_ADDR and UL_MONGO_URI override the file.
func (c *Server) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv("UL_STORE_BACKEND")); v != "" {
		c.Store.Backend = v
	}
	if v := strings.TrimSpace(getenv("UL_REDIS_ADDR")); v != "" {
		c.Store.Redis.Addrs = strings.Split(v, ",")
	}
	if v := strings.TrimSpace(getenv("UL_MONGO_URI")); v != "" {
		c.Store.Mongo.URI = v
	}
}

func (c *Server) Normalize() {
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	if c.Store.Backend == "" {
		c.Store.Backend = BackendSQLite
	}
	if c.Store.SQLitePath == "" {
		c.Store.SQLitePath = defaultSQLitePath(c.DataDir)
	}
	addrs := c.Store.Redis.Addrs[:0]
	for _, a := range c.Store.Redis.Addrs {
		if a = strings.TrimSpace(a); a != "" {
			addrs = append(addrs, a)
		}
	}
	c.Store.Redis.Addrs = addrs
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.StoreTimeoutMs <= 0 {
		c.StoreTimeoutMs = 5000
	}
}

// SetDataDir moves the data directory. The sqlite path follows it unless it was set explicitly.
func (c *Server) SetDataDir(dir string) {
	if c.Store.SQLitePath == "" || c.Store.SQLitePath == defaultSQLitePath(c.DataDir) {
		c.Store.SQLitePath = defaultSQLitePath(dir)
	}
	c.DataDir = dir
}

func defaultSQLitePath(dataDir string) string {
	return strings.TrimRight(dataDir, "/") + "/loot.sqlite"
}

func (c Server) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("addr is required")
	}
	switch c.Store.Backend {
	case BackendSQLite, BackendMemory:
	case BackendRedis:
		if len(c.Store.Redis.Addrs) == 0 {
			return fmt.Errorf("store.backend=redis but store.redis.addrs is empty")
		}
	case BackendMongo:
		if strings.TrimSpace(c.Store.Mongo.URI) == "" {
			return fmt.Errorf("store.backend=mongo but store.mongo.uri is empty")
		}
		if c.Store.Mongo.Database == "" || c.Store.Mongo.Collection == "" {
			return fmt.Errorf("store.mongo database and collection are required")
		}
	default:
		return fmt.Errorf("unsupported store.backend: %s", c.Store.Backend)
	}
	if c.Workers > 256 {
		return fmt.Errorf("workers out of range: %d", c.Workers)
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		return fmt.Errorf("log rotation limits must be >= 0")
	}
	return nil
}

func (c Server) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutMs) * time.Millisecond
}
