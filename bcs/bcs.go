// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

// Package bcs implements the subset of Binary Canonical Serialization needed
// to encode a simulated transaction kind: little-endian fixed-width integers,
// ULEB128 lengths and enum variant tags, and length-prefixed byte strings.
package bcs

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Writer accumulates a BCS byte stream.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter returns an empty writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the encoded stream.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// WriteU8 appends a single byte.
func (w *Writer) WriteU8(v uint8) {
	w.buf.WriteByte(v)
}

// WriteU16 appends a little-endian u16.
func (w *Writer) WriteU16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

// WriteU64 appends a little-endian u64.
func (w *Writer) WriteU64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

// WriteBool appends a bool as 0x00/0x01.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.buf.WriteByte(1)
	} else {
		w.buf.WriteByte(0)
	}
}

// WriteULEB128 appends an unsigned LEB128-encoded integer. BCS uses this
// form for sequence lengths and enum variant indexes.
func (w *Writer) WriteULEB128(v uint64) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			w.buf.WriteByte(b | 0x80)
			continue
		}
		w.buf.WriteByte(b)
		return
	}
}

// WriteVariant appends an enum variant tag.
func (w *Writer) WriteVariant(idx uint64) {
	w.WriteULEB128(idx)
}

// WriteLen appends a sequence length prefix.
func (w *Writer) WriteLen(n int) {
	w.WriteULEB128(uint64(n))
}

// WriteBytes appends a length-prefixed byte string (BCS vector<u8>).
func (w *Writer) WriteBytes(b []byte) {
	w.WriteLen(len(b))
	w.buf.Write(b)
}

// WriteFixedBytes appends raw bytes with no length prefix, for fixed-width
// values such as 32-byte account addresses.
func (w *Writer) WriteFixedBytes(b []byte) {
	w.buf.Write(b)
}

// WriteString appends a length-prefixed UTF-8 string (BCS identifiers share
// this encoding with vector<u8>).
func (w *Writer) WriteString(s string) {
	w.WriteLen(len(s))
	w.buf.WriteString(s)
}

// ReadULEB128 decodes an unsigned LEB128 integer from the front of b,
// returning the value and the number of bytes consumed.
func ReadULEB128(b []byte) (uint64, int, error) {
	var v uint64
	var shift uint
	for i, c := range b {
		if shift >= 64 {
			return 0, 0, fmt.Errorf("uleb128 value overflows u64")
		}
		v |= uint64(c&0x7f) << shift
		if c&0x80 == 0 {
			return v, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, fmt.Errorf("truncated uleb128 value")
}
