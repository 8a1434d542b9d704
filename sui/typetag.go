// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

package sui

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/moveyield/claimscan/bcs"
)

// TypeTag is a parsed Move type: either a primitive or a struct path with
// optional type parameters.
type TypeTag struct {
	Primitive  string // set for bool/u8/.../address, empty for structs
	Address    string
	Module     string
	Name       string
	TypeParams []TypeTag
}

// primitive variant indexes in the TypeTag enum.
var primitiveVariants = map[string]uint64{
	"bool":    0,
	"u8":      1,
	"u64":     2,
	"u128":    3,
	"address": 4,
	"signer":  5,
	"u16":     8,
	"u32":     9,
	"u256":    10,
}

const structVariant = 7

// ParseTypeTag parses a Move type string such as
// "0xabc::market::LPToken<0xdef::coin::COIN>" into a TypeTag.
func ParseTypeTag(s string) (TypeTag, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TypeTag{}, fmt.Errorf("empty type tag")
	}
	if _, ok := primitiveVariants[s]; ok {
		return TypeTag{Primitive: s}, nil
	}

	base := s
	var params []TypeTag
	if i := strings.IndexByte(s, '<'); i >= 0 {
		if !strings.HasSuffix(s, ">") {
			return TypeTag{}, fmt.Errorf("unbalanced type parameters in %q", s)
		}
		base = s[:i]
		inner := s[i+1 : len(s)-1]
		for _, part := range splitTopLevel(inner) {
			p, err := ParseTypeTag(part)
			if err != nil {
				return TypeTag{}, err
			}
			params = append(params, p)
		}
	}

	parts := strings.Split(base, "::")
	if len(parts) != 3 {
		return TypeTag{}, fmt.Errorf("type tag %q is not addr::module::name", s)
	}
	return TypeTag{
		Address:    parts[0],
		Module:     parts[1],
		Name:       parts[2],
		TypeParams: params,
	}, nil
}

// splitTopLevel splits a comma-separated type parameter list without
// descending into nested angle brackets.
func splitTopLevel(s string) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(s[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

// String renders the tag back to canonical text form.
func (t TypeTag) String() string {
	if t.Primitive != "" {
		return t.Primitive
	}
	s := t.Address + "::" + t.Module + "::" + t.Name
	if len(t.TypeParams) > 0 {
		inner := make([]string, len(t.TypeParams))
		for i, p := range t.TypeParams {
			inner[i] = p.String()
		}
		s += "<" + strings.Join(inner, ", ") + ">"
	}
	return s
}

// DisplayName returns the short asset name: the last path segment of the
// type, without type parameters.
func DisplayName(assetType string) string {
	base := assetType
	if i := strings.IndexByte(base, '<'); i >= 0 {
		base = base[:i]
	}
	parts := strings.Split(base, "::")
	return parts[len(parts)-1]
}

// TypeParams extracts the type parameter strings from a type tag string,
// e.g. the single asset type embedded in a MarketCreated event type.
func TypeParams(assetType string) ([]string, error) {
	tag, err := ParseTypeTag(assetType)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(tag.TypeParams))
	for i, p := range tag.TypeParams {
		out[i] = p.String()
	}
	return out, nil
}

// encode writes the tag in BCS form.
func (t TypeTag) encode(w *bcs.Writer) error {
	if t.Primitive != "" {
		idx, ok := primitiveVariants[t.Primitive]
		if !ok {
			return fmt.Errorf("unknown primitive type %q", t.Primitive)
		}
		w.WriteVariant(idx)
		return nil
	}
	addr, err := AddressBytes(t.Address)
	if err != nil {
		return err
	}
	w.WriteVariant(structVariant)
	w.WriteFixedBytes(addr)
	w.WriteString(t.Module)
	w.WriteString(t.Name)
	w.WriteLen(len(t.TypeParams))
	for _, p := range t.TypeParams {
		if err := p.encode(w); err != nil {
			return err
		}
	}
	return nil
}

// AddressBytes decodes a hex address or object id, left-padding to the
// 32-byte account address width.
func AddressBytes(s string) ([]byte, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if h == "" {
		return nil, fmt.Errorf("empty address")
	}
	if len(h)%2 == 1 {
		h = "0" + h
	}
	raw, err := hex.DecodeString(h)
	if err != nil {
		return nil, fmt.Errorf("malformed address %q: %w", s, err)
	}
	if len(raw) > 32 {
		return nil, fmt.Errorf("address %q longer than 32 bytes", s)
	}
	out := make([]byte, 32)
	copy(out[32-len(raw):], raw)
	return out, nil
}
