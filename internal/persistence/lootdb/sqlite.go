package lootdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore is the default backend: table player_chest on a single pinned connection, so
// transactions never overlap.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := migrateLegacySchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate player_chest: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS player_chest (
			player_uuid TEXT NOT NULL,
			chest_id TEXT NOT NULL,
			slot INTEGER NOT NULL,
			item_data TEXT NOT NULL,
			PRIMARY KEY (player_uuid, chest_id, slot)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_player_chest_chest ON player_chest(chest_id);`,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','2');`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Load(ctx context.Context, player uuid.UUID, containerID string) ([]SlotRecord, bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT slot, item_data FROM player_chest WHERE player_uuid = ? AND chest_id = ? ORDER BY slot ASC`,
		player.String(), containerID)
	if err != nil {
		return nil, false, storageErr("load", player, containerID, err)
	}
	defer rows.Close()

	var all []SlotRecord
	for rows.Next() {
		var r SlotRecord
		if err := rows.Scan(&r.Slot, &r.Data); err != nil {
			return nil, false, storageErr("load", player, containerID, err)
		}
		all = append(all, r)
	}
	if err := rows.Err(); err != nil {
		return nil, false, storageErr("load", player, containerID, err)
	}
	out, found := splitSentinel(all)
	return out, found, nil
}

// Save deletes and reinserts the pair's rows inside one transaction. Any failure rolls the
// transaction back, leaving the previous rows intact; the connection is back in autocommit mode
// once Commit or Rollback returns.
func (s *SQLiteStore) Save(ctx context.Context, player uuid.UUID, containerID string, records []SlotRecord) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("save", player, containerID, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	pid := player.String()
	if _, err = tx.ExecContext(ctx, `DELETE FROM player_chest WHERE player_uuid = ? AND chest_id = ?`, pid, containerID); err != nil {
		return storageErr("save", player, containerID, err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO player_chest (player_uuid, chest_id, slot, item_data) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return storageErr("save", player, containerID, err)
	}
	defer stmt.Close()
	for _, r := range rowsForSave(records) {
		if _, err = stmt.ExecContext(ctx, pid, containerID, r.Slot, r.Data); err != nil {
			return storageErr("save", player, containerID, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return storageErr("save", player, containerID, err)
	}
	return nil
}

// Delete forgets the pair entirely; the next open rolls fresh loot.
func (s *SQLiteStore) Delete(ctx context.Context, player uuid.UUID, containerID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM player_chest WHERE player_uuid = ? AND chest_id = ?`, player.String(), containerID)
	if err != nil {
		return 0, storageErr("delete", player, containerID, err)
	}
	return res.RowsAffected()
}

// ContainerSummary describes one stored (player, container) pair.
type ContainerSummary struct {
	ContainerID string `json:"chest_id"`
	Slots       int    `json:"slots"`
	Empty       bool   `json:"empty"`
}

// Containers lists every container stored for player.
func (s *SQLiteStore) Containers(ctx context.Context, player uuid.UUID) ([]ContainerSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chest_id, SUM(CASE WHEN slot >= 0 THEN 1 ELSE 0 END), MAX(CASE WHEN slot = ? THEN 1 ELSE 0 END)
		FROM player_chest WHERE player_uuid = ? GROUP BY chest_id ORDER BY chest_id`, SentinelSlot, player.String())
	if err != nil {
		return nil, storageErr("containers", player, "", err)
	}
	defer rows.Close()
	var out []ContainerSummary
	for rows.Next() {
		var c ContainerSummary
		var empty int
		if err := rows.Scan(&c.ContainerID, &c.Slots, &empty); err != nil {
			return nil, storageErr("containers", player, "", err)
		}
		c.Empty = empty == 1 && c.Slots == 0
		out = append(out, c)
	}
	return out, rows.Err()
}

// Players lists every player with at least one stored container.
func (s *SQLiteStore) Players(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT player_uuid FROM player_chest ORDER BY player_uuid`)
	if err != nil {
		return nil, storageErr("players", uuid.Nil, "", err)
	}
	defer rows.Close()
	var out []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, storageErr("players", uuid.Nil, "", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
