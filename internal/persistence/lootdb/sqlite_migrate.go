package lootdb

import (
	"database/sql"

	"uniqueloot.dev/internal/loot/item"
)

// migrateLegacySchema rewrites a player_chest table in the old (item_type, amount) layout into the
// item_data layout, encoding each row as a bare stack. Rows that cannot be encoded are dropped.
// It is a no-op for fresh databases and already migrated ones.
func migrateLegacySchema(db *sql.DB) error {
	cols, err := tableColumns(db, "player_chest")
	if err != nil {
		return err
	}
	if !cols["item_type"] || cols["item_data"] {
		return nil
	}

	type legacyRow struct {
		player, chest string
		slot          int
		typ           string
		amount        int
	}
	rows, err := db.Query(`SELECT player_uuid, chest_id, slot, item_type, amount FROM player_chest`)
	if err != nil {
		return err
	}
	var legacy []legacyRow
	for rows.Next() {
		var r legacyRow
		if err := rows.Scan(&r.player, &r.chest, &r.slot, &r.typ, &r.amount); err != nil {
			_ = rows.Close()
			return err
		}
		legacy = append(legacy, r)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`CREATE TABLE player_chest_v2 (
		player_uuid TEXT NOT NULL,
		chest_id TEXT NOT NULL,
		slot INTEGER NOT NULL,
		item_data TEXT NOT NULL,
		PRIMARY KEY (player_uuid, chest_id, slot)
	);`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO player_chest_v2 (player_uuid, chest_id, slot, item_data) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range legacy {
		data := SentinelData
		if r.slot != SentinelSlot {
			enc, err := item.Encode(item.Stack{ID: r.typ, Count: r.amount})
			if err != nil {
				continue
			}
			data = enc
		}
		if _, err := stmt.Exec(r.player, r.chest, r.slot, data); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`DROP TABLE player_chest`); err != nil {
		return err
	}
	if _, err := tx.Exec(`ALTER TABLE player_chest_v2 RENAME TO player_chest`); err != nil {
		return err
	}
	return tx.Commit()
}

func tableColumns(db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.Query(`SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cols := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}
