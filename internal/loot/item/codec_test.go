package item

import (
	"encoding/base64"
	"errors"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	stacks := []Stack{
		{ID: "minecraft:bread", Count: 1},
		{ID: "minecraft:iron_ingot", Count: 64},
		{ID: "minecraft:golden_sword", Count: 1, Damage: 12, Name: "Old Blade", Lore: []string{"found", "in a ruin"}},
		{ID: "minecraft:book", Count: 1, Enchantments: map[string]int{"mending": 1, "unbreaking": 3}},
		{ID: "minecraft:potion", Count: 2, Damage: -3, Extra: map[string]string{"potion": "healing", "color": "red"}},
	}
	for _, s := range stacks {
		enc, err := Encode(s)
		if err != nil {
			t.Fatalf("Encode(%s): %v", s.ID, err)
		}
		got, ok := Decode(enc)
		if !ok {
			t.Fatalf("Decode(%s) failed", s.ID)
		}
		if !Equal(got, s) {
			t.Fatalf("round trip mismatch:\n got=%+v\nwant=%+v", got, s)
		}
	}
}

func TestEncodeDeterministic(t *testing.T) {
	s := Stack{ID: "x", Count: 1, Enchantments: map[string]int{"a": 1, "b": 2, "c": 3, "d": 4}}
	first, _ := Encode(s)
	for i := 0; i < 20; i++ {
		again, _ := Encode(s)
		if again != first {
			t.Fatalf("encoding not deterministic")
		}
	}
}

func TestEncodeRejectsInvalid(t *testing.T) {
	for _, s := range []Stack{{}, {ID: "x"}, {ID: "x", Count: -1}, {Count: 3}} {
		_, err := Encode(s)
		var ce *CodecError
		if !errors.As(err, &ce) {
			t.Fatalf("Encode(%+v): err=%v want CodecError", s, err)
		}
	}
}

func TestDecodeCorruptedReturnsFalse(t *testing.T) {
	good, err := Encode(Stack{ID: "minecraft:diamond", Count: 3, Name: "shiny", Lore: []string{"a"}})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	raw, _ := base64.StdEncoding.DecodeString(good)

	bad := map[string]string{
		"empty":         "",
		"not base64":    "!!!not-base64!!!",
		"sentinel":      "-",
		"version only":  base64.StdEncoding.EncodeToString([]byte{formatV1}),
		"wrong version": base64.StdEncoding.EncodeToString(append([]byte{9}, raw[1:]...)),
		"cut in id":     base64.StdEncoding.EncodeToString(raw[:5]),
	}
	for name, payload := range bad {
		if _, ok := Decode(payload); ok {
			t.Fatalf("%s: expected decode failure", name)
		}
	}

	// Every prefix either fails or yields a valid (shorter) record; none may panic.
	for cut := 1; cut < len(raw); cut++ {
		if s, ok := Decode(base64.StdEncoding.EncodeToString(raw[:cut])); ok && !s.Valid() {
			t.Fatalf("cut=%d: decoded invalid stack %+v", cut, s)
		}
	}
}

func TestDecodeSkipsUnknownFields(t *testing.T) {
	enc, _ := Encode(Stack{ID: "minecraft:apple", Count: 5})
	raw, _ := base64.StdEncoding.DecodeString(enc)
	raw = protowire.AppendTag(raw, 99, protowire.BytesType)
	raw = protowire.AppendString(raw, "from a newer server")
	got, ok := Decode(base64.StdEncoding.EncodeToString(raw))
	if !ok || got.ID != "minecraft:apple" || got.Count != 5 {
		t.Fatalf("got=%+v ok=%v", got, ok)
	}
}

func TestDecodeIsPerRecord(t *testing.T) {
	a, _ := Encode(Stack{ID: "a", Count: 1})
	b, _ := Encode(Stack{ID: "b", Count: 2})
	payloads := []string{a, "corrupt", b}
	var decoded []Stack
	for _, p := range payloads {
		if s, ok := Decode(p); ok {
			decoded = append(decoded, s)
		}
	}
	if len(decoded) != 2 || decoded[0].ID != "a" || decoded[1].ID != "b" {
		t.Fatalf("decoded=%+v", decoded)
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := Stack{ID: "x", Count: 1, Lore: []string{"l"}, Enchantments: map[string]int{"e": 1}}
	c := s.Clone()
	c.Lore[0] = "changed"
	c.Enchantments["e"] = 9
	if s.Lore[0] != "l" || s.Enchantments["e"] != 1 {
		t.Fatalf("clone shares storage with original")
	}
}
