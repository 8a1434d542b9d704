// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

// Package fixedpoint decodes the two numeric encodings the chain hands back:
// little-endian u64 return values from simulated calls, and Q64.64 yield
// indexes stored on market state objects.
package fixedpoint

import (
	"fmt"
	"math/big"
)

// ScaleBits is the fractional bit width of the on-chain yield index. The
// encoding is assumed to be Q64.64; validate against the deployed package
// before relying on it for anything beyond display precision.
const ScaleBits = 64

var scale = new(big.Float).SetInt(new(big.Int).Lsh(big.NewInt(1), ScaleBits))

// DecodeU64LE decodes a little-endian unsigned 64-bit integer from the first
// eight bytes of b. This is the byte layout of a u64 return value from a
// simulated call.
func DecodeU64LE(b []byte) (uint64, error) {
	if len(b) < 8 {
		return 0, fmt.Errorf("u64 needs 8 bytes, have %d", len(b))
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * uint(i))
	}
	return v, nil
}

// ToYieldIndex converts a raw fixed-point index value to its floating ratio,
// raw / 2^64. Indexes sit near 1.0, so float64 truncation is immaterial at
// the 4-decimal display precision used downstream.
func ToYieldIndex(raw *big.Int) float64 {
	if raw == nil || raw.Sign() == 0 {
		return 0
	}
	f := new(big.Float).SetInt(raw)
	f.Quo(f, scale)
	v, _ := f.Float64()
	return v
}

// ParseIndex parses a decimal string holding a raw fixed-point index, as
// object field values arrive over JSON-RPC, and normalizes it.
func ParseIndex(s string) (float64, error) {
	raw, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return 0, fmt.Errorf("malformed index value %q", s)
	}
	if raw.Sign() < 0 {
		return 0, fmt.Errorf("negative index value %q", s)
	}
	return ToYieldIndex(raw), nil
}
