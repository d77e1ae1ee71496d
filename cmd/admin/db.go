package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"uniqueloot.dev/internal/loot/ident"
	"uniqueloot.dev/internal/loot/item"
	"uniqueloot.dev/internal/persistence/lootdb"
)

type storeFlags struct {
	db *string
}

func addStoreFlags(fs *flag.FlagSet) storeFlags {
	return storeFlags{db: fs.String("db", "./data/loot.sqlite", "sqlite loot store path")}
}

func (f storeFlags) open() (*lootdb.SQLiteStore, error) {
	return lootdb.OpenSQLite(strings.TrimSpace(*f.db))
}

func parsePlayer(raw string) (uuid.UUID, error) {
	if strings.TrimSpace(raw) == "" {
		return uuid.Nil, fmt.Errorf("missing -player")
	}
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("bad -player: %w", err)
	}
	return id, nil
}

// parseChest checks raw is a container id and returns it in canonical form.
func parseChest(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("missing -chest")
	}
	id, ok := ident.ParseContainerID(strings.TrimSpace(raw))
	if !ok {
		return "", fmt.Errorf("bad -chest %q: want <world>:<x>,<y>,<z>", raw)
	}
	return id.String(), nil
}

func playersCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("players", flag.ExitOnError)
	sf := addStoreFlags(fs)
	_ = fs.Parse(args)

	s, err := sf.open()
	if err != nil {
		return err
	}
	defer s.Close()
	ids, err := s.Players(context.Background())
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Fprintln(out, id)
	}
	return nil
}

func containersCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("containers", flag.ExitOnError)
	sf := addStoreFlags(fs)
	player := fs.String("player", "", "player uuid")
	_ = fs.Parse(args)

	id, err := parsePlayer(*player)
	if err != nil {
		return err
	}
	s, err := sf.open()
	if err != nil {
		return err
	}
	defer s.Close()
	list, err := s.Containers(context.Background(), id)
	if err != nil {
		return err
	}
	for _, c := range list {
		if c.Empty {
			color.New(color.FgYellow).Fprintf(out, "%s\tempty\n", c.ContainerID)
			continue
		}
		fmt.Fprintf(out, "%s\t%d slots\n", c.ContainerID, c.Slots)
	}
	return nil
}

type dumpSlot struct {
	Slot    int         `json:"slot"`
	Item    *item.Stack `json:"item,omitempty"`
	Corrupt bool        `json:"corrupt,omitempty"`
}

func dumpCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	sf := addStoreFlags(fs)
	player := fs.String("player", "", "player uuid")
	chest := fs.String("chest", "", "container id, e.g. world:10,64,-3")
	asJSON := fs.Bool("json", false, "print JSON")
	_ = fs.Parse(args)

	id, err := parsePlayer(*player)
	if err != nil {
		return err
	}
	cid, err := parseChest(*chest)
	if err != nil {
		return err
	}
	s, err := sf.open()
	if err != nil {
		return err
	}
	defer s.Close()
	recs, found, err := s.Load(context.Background(), id, cid)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no record for %s %s", id, cid)
	}

	slots := make([]dumpSlot, 0, len(recs))
	for _, r := range recs {
		st, ok := item.Decode(r.Data)
		if !ok {
			slots = append(slots, dumpSlot{Slot: r.Slot, Corrupt: true})
			continue
		}
		slots = append(slots, dumpSlot{Slot: r.Slot, Item: &st})
	}
	if *asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(slots)
	}
	if len(slots) == 0 {
		color.New(color.FgYellow).Fprintln(out, "(empty)")
	}
	for _, sl := range slots {
		if sl.Corrupt {
			color.New(color.FgRed).Fprintf(out, "%2d\t<corrupt>\n", sl.Slot)
			continue
		}
		fmt.Fprintf(out, "%2d\t%s x%d", sl.Slot, sl.Item.ID, sl.Item.Count)
		if sl.Item.Name != "" {
			fmt.Fprintf(out, " %q", sl.Item.Name)
		}
		fmt.Fprintln(out)
	}
	return nil
}

func resetCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	sf := addStoreFlags(fs)
	player := fs.String("player", "", "player uuid")
	chest := fs.String("chest", "", "container id")
	_ = fs.Parse(args)

	id, err := parsePlayer(*player)
	if err != nil {
		return err
	}
	cid, err := parseChest(*chest)
	if err != nil {
		return err
	}
	s, err := sf.open()
	if err != nil {
		return err
	}
	defer s.Close()
	n, err := s.Delete(context.Background(), id, cid)
	if err != nil {
		return err
	}
	if n == 0 {
		color.New(color.FgYellow).Fprintf(out, "nothing stored for %s %s\n", id, cid)
		return nil
	}
	color.New(color.FgGreen).Fprintf(out, "reset %s %s (%d rows); next open rolls fresh loot\n", id, cid, n)
	return nil
}
