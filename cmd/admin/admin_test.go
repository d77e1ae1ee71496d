package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"uniqueloot.dev/internal/loot/item"
	"uniqueloot.dev/internal/persistence/journal"
	"uniqueloot.dev/internal/persistence/lootdb"
)

func init() { color.NoColor = true }

func seed(t *testing.T) (string, uuid.UUID) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "loot.sqlite")
	s, err := lootdb.OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()
	p := uuid.New()
	apple, err := item.Encode(item.Stack{ID: "minecraft:apple", Count: 2})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	recs := []lootdb.SlotRecord{
		{Slot: 3, Data: apple},
		{Slot: 5, Data: "not-base64!"},
	}
	ctx := context.Background()
	if err := s.Save(ctx, p, "world:1,2,3", recs); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, p, "world:9,9,9", nil); err != nil {
		t.Fatalf("Save empty: %v", err)
	}
	return path, p
}

func TestPlayersAndContainers(t *testing.T) {
	db, p := seed(t)
	var out bytes.Buffer
	if err := playersCmd([]string{"-db", db}, &out); err != nil {
		t.Fatalf("players: %v", err)
	}
	if strings.TrimSpace(out.String()) != p.String() {
		t.Fatalf("players output=%q", out.String())
	}

	out.Reset()
	if err := containersCmd([]string{"-db", db, "-player", p.String()}, &out); err != nil {
		t.Fatalf("containers: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "world:1,2,3\t2 slots") || !strings.Contains(got, "world:9,9,9\tempty") {
		t.Fatalf("containers output=%q", got)
	}
}

func TestDumpMarksCorruptSlots(t *testing.T) {
	db, p := seed(t)
	var out bytes.Buffer
	if err := dumpCmd([]string{"-db", db, "-player", p.String(), "-chest", "world:1,2,3", "-json"}, &out); err != nil {
		t.Fatalf("dump: %v", err)
	}
	var slots []dumpSlot
	if err := json.Unmarshal(out.Bytes(), &slots); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(slots) != 2 || slots[0].Item == nil || slots[0].Item.ID != "minecraft:apple" || !slots[1].Corrupt {
		t.Fatalf("slots=%+v", slots)
	}
	if err := dumpCmd([]string{"-db", db, "-player", p.String(), "-chest", "world:0,0,0"}, &out); err == nil {
		t.Fatalf("expected error for unknown container")
	}
}

func TestResetForgetsContainer(t *testing.T) {
	db, p := seed(t)
	var out bytes.Buffer
	if err := resetCmd([]string{"-db", db, "-player", p.String(), "-chest", "world:1,2,3"}, &out); err != nil {
		t.Fatalf("reset: %v", err)
	}
	s, err := lootdb.OpenSQLite(db)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()
	if _, found, err := s.Load(context.Background(), p, "world:1,2,3"); err != nil || found {
		t.Fatalf("after reset found=%v err=%v", found, err)
	}
	if _, found, _ := s.Load(context.Background(), p, "world:9,9,9"); !found {
		t.Fatalf("reset must not touch other containers")
	}
}

func TestChestArgumentIsValidated(t *testing.T) {
	db, p := seed(t)
	var out bytes.Buffer
	for _, bad := range []string{"world", "world:1,2", "world:a,b,c", ":1,2,3"} {
		if err := resetCmd([]string{"-db", db, "-player", p.String(), "-chest", bad}, &out); err == nil {
			t.Fatalf("reset accepted chest %q", bad)
		}
	}
	if err := dumpCmd([]string{"-db", db, "-player", p.String(), "-chest", " world:1,2,3 "}, &out); err != nil {
		t.Fatalf("dump with padded chest id: %v", err)
	}
}

func TestJournalFilters(t *testing.T) {
	dataDir := t.TempDir()
	w := journal.Open(dataDir)
	p, q := uuid.New(), uuid.New()
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, e := range []journal.Entry{
		{TS: ts, Kind: journal.KindOpen, Player: p, Container: "world:1,2,3", Slots: 4},
		{TS: ts, Kind: journal.KindClose, Player: p, Container: "world:1,2,3", Slots: 3},
		{TS: ts, Kind: journal.KindOpen, Player: q, Container: "world:0,0,0"},
	} {
		if err := w.Record(e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var out bytes.Buffer
	if err := journalCmd([]string{"-data", dataDir, "-player", p.String(), "-kind", "close"}, &out); err != nil {
		t.Fatalf("journal: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 1 || !strings.Contains(lines[0], "world:1,2,3 slots=3") {
		t.Fatalf("journal output=%q", out.String())
	}
}
