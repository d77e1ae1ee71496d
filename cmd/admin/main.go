package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"uniqueloot.dev/internal/persistence/journal"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: admin <players|containers|dump|reset|journal> [flags]")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "players":
		err = playersCmd(os.Args[2:], os.Stdout)
	case "containers":
		err = containersCmd(os.Args[2:], os.Stdout)
	case "dump":
		err = dumpCmd(os.Args[2:], os.Stdout)
	case "reset":
		err = resetCmd(os.Args[2:], os.Stdout)
	case "journal":
		err = journalCmd(os.Args[2:], os.Stdout)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func journalCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("journal", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	player := fs.String("player", "", "player uuid filter (optional)")
	kind := fs.String("kind", "", "entry kind filter: open|close|save_failed|loot_failed|load_failed (optional)")
	limit := fs.Int("limit", 0, "print at most the last N matching entries (0 = all)")
	_ = fs.Parse(args)

	var want uuid.UUID
	if strings.TrimSpace(*player) != "" {
		id, err := uuid.Parse(strings.TrimSpace(*player))
		if err != nil {
			return fmt.Errorf("bad -player: %w", err)
		}
		want = id
	}
	entries, err := readJournal(filepath.Join(*dataDir, "journal"), func(e journal.Entry) bool {
		if want != uuid.Nil && e.Player != want {
			return false
		}
		return *kind == "" || string(e.Kind) == *kind
	})
	if err != nil {
		return err
	}
	if *limit > 0 && len(entries) > *limit {
		entries = entries[len(entries)-*limit:]
	}
	for _, e := range entries {
		c := color.New(color.FgGreen)
		switch e.Kind {
		case journal.KindSaveFailed, journal.KindLoadFailed, journal.KindLootFailed:
			c = color.New(color.FgRed)
		case journal.KindClose:
			c = color.New(color.FgCyan)
		}
		line := fmt.Sprintf("%s %-11s %s %s slots=%d", e.TS.UTC().Format("2006-01-02T15:04:05.000Z"), e.Kind, e.Player, e.Container, e.Slots)
		if e.Error != "" {
			line += " error=" + e.Error
		}
		c.Fprintln(out, line)
	}
	return nil
}

// readJournal decodes every sessions-*.jsonl.zst file under dir in hour order.
func readJournal(dir string, keep func(journal.Entry) bool) ([]journal.Entry, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "sessions-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var out []journal.Entry
	for _, name := range names {
		path := filepath.Join(dir, name)
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		dec, err := zstd.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		sc := bufio.NewScanner(dec)
		sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
		for sc.Scan() {
			var e journal.Entry
			if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
				dec.Close()
				_ = f.Close()
				return nil, fmt.Errorf("%s: unmarshal: %w", name, err)
			}
			if keep == nil || keep(e) {
				out = append(out, e)
			}
		}
		// A file still being written ends in a partial frame; keep what decoded.
		_ = sc.Err()
		dec.Close()
		_ = f.Close()
	}
	return out, nil
}
