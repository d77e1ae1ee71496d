package item

import (
	"encoding/base64"
	"errors"
	"fmt"
	"slices"

	"google.golang.org/protobuf/encoding/protowire"
)

// formatV1 prefixes every encoded record. Payloads with any other leading byte are rejected.
const formatV1 byte = 1

const (
	fieldID          protowire.Number = 1
	fieldCount       protowire.Number = 2
	fieldDamage      protowire.Number = 3
	fieldName        protowire.Number = 4
	fieldLore        protowire.Number = 5
	fieldEnchantment protowire.Number = 6
	fieldExtra       protowire.Number = 7

	entryKey   protowire.Number = 1
	entryValue protowire.Number = 2
)

var errInvalidStack = errors.New("stack has no id or a non-positive count")

// CodecError reports a single item that could not be encoded. Callers skip that item.
type CodecError struct {
	ItemID string
	Err    error
}

func (e *CodecError) Error() string { return fmt.Sprintf("encode item %q: %v", e.ItemID, e.Err) }

func (e *CodecError) Unwrap() error { return e.Err }

// Encode serializes s into its durable text form: base64 of a version byte followed by the
// protobuf wire encoding of the record. Map fields are written in key order so equal stacks
// encode identically.
func Encode(s Stack) (string, error) {
	if !s.Valid() {
		return "", &CodecError{ItemID: s.ID, Err: errInvalidStack}
	}
	b := []byte{formatV1}
	b = protowire.AppendTag(b, fieldID, protowire.BytesType)
	b = protowire.AppendString(b, s.ID)
	b = protowire.AppendTag(b, fieldCount, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(s.Count))
	if s.Damage != 0 {
		b = protowire.AppendTag(b, fieldDamage, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(int64(s.Damage)))
	}
	if s.Name != "" {
		b = protowire.AppendTag(b, fieldName, protowire.BytesType)
		b = protowire.AppendString(b, s.Name)
	}
	for _, line := range s.Lore {
		b = protowire.AppendTag(b, fieldLore, protowire.BytesType)
		b = protowire.AppendString(b, line)
	}
	for _, k := range sortedKeys(s.Enchantments) {
		if k == "" {
			continue
		}
		var e []byte
		e = protowire.AppendTag(e, entryKey, protowire.BytesType)
		e = protowire.AppendString(e, k)
		e = protowire.AppendTag(e, entryValue, protowire.VarintType)
		e = protowire.AppendVarint(e, protowire.EncodeZigZag(int64(s.Enchantments[k])))
		b = protowire.AppendTag(b, fieldEnchantment, protowire.BytesType)
		b = protowire.AppendBytes(b, e)
	}
	for _, k := range sortedKeys(s.Extra) {
		if k == "" {
			continue
		}
		var e []byte
		e = protowire.AppendTag(e, entryKey, protowire.BytesType)
		e = protowire.AppendString(e, k)
		e = protowire.AppendTag(e, entryValue, protowire.BytesType)
		e = protowire.AppendString(e, s.Extra[k])
		b = protowire.AppendTag(b, fieldExtra, protowire.BytesType)
		b = protowire.AppendBytes(b, e)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// Decode parses a payload produced by Encode. It returns false, never an error, for anything it
// cannot read: bad base64, an unknown format version, truncated fields or an invalid record.
// Unknown field numbers are skipped.
func Decode(data string) (Stack, bool) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil || len(raw) == 0 || raw[0] != formatV1 {
		return Stack{}, false
	}
	var s Stack
	b := raw[1:]
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Stack{}, false
		}
		b = b[n:]
		switch {
		case num == fieldID && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(b)
			if m < 0 {
				return Stack{}, false
			}
			s.ID, n = v, m
		case num == fieldCount && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return Stack{}, false
			}
			s.Count, n = int(v), m
		case num == fieldDamage && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return Stack{}, false
			}
			s.Damage, n = int(protowire.DecodeZigZag(v)), m
		case num == fieldName && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(b)
			if m < 0 {
				return Stack{}, false
			}
			s.Name, n = v, m
		case num == fieldLore && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(b)
			if m < 0 {
				return Stack{}, false
			}
			s.Lore, n = append(s.Lore, v), m
		case num == fieldEnchantment && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return Stack{}, false
			}
			k, lvl, ok := decodeIntEntry(v)
			if !ok {
				return Stack{}, false
			}
			if s.Enchantments == nil {
				s.Enchantments = map[string]int{}
			}
			s.Enchantments[k], n = lvl, m
		case num == fieldExtra && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return Stack{}, false
			}
			k, val, ok := decodeStringEntry(v)
			if !ok {
				return Stack{}, false
			}
			if s.Extra == nil {
				s.Extra = map[string]string{}
			}
			s.Extra[k], n = val, m
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Stack{}, false
			}
		}
		b = b[n:]
	}
	if !s.Valid() {
		return Stack{}, false
	}
	return s, true
}

func decodeIntEntry(b []byte) (key string, val int, ok bool) {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return "", 0, false
		}
		b = b[n:]
		switch {
		case num == entryKey && typ == protowire.BytesType:
			key, n = protowire.ConsumeString(b)
		case num == entryValue && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			val = int(protowire.DecodeZigZag(v))
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return "", 0, false
		}
		b = b[n:]
	}
	return key, val, key != ""
}

func decodeStringEntry(b []byte) (key, val string, ok bool) {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return "", "", false
		}
		b = b[n:]
		switch {
		case num == entryKey && typ == protowire.BytesType:
			key, n = protowire.ConsumeString(b)
		case num == entryValue && typ == protowire.BytesType:
			val, n = protowire.ConsumeString(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return "", "", false
		}
		b = b[n:]
	}
	return key, val, key != ""
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
