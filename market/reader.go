// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

// Package market reads liquidity-pool market state: the market object itself
// and the linked yield-state object holding the fixed-point index. Reads are
// best-effort enrichment; every failure surfaces as ErrUnavailable and the
// caller reports the underlying value as unknown.
package market

import (
	"context"
	"fmt"
	"math/big"
	"strconv"

	"github.com/moveyield/claimscan/fixedpoint"
	"github.com/moveyield/claimscan/sui"
)

// ErrUnavailable reports market state that could not be fetched or parsed.
// Callers map it to "underlying value unknown"; it never aborts a query.
var ErrUnavailable = fmt.Errorf("market state unavailable")

// Record is a point-in-time snapshot of one market's aggregate state.
type Record struct {
	LPSupply   *big.Int
	TotalSy    *big.Int
	TotalPt    *big.Int
	YieldIndex float64
	Expiry     int64
}

// Reader fetches market records through a fullnode client.
type Reader struct {
	client *sui.Client
}

// NewReader returns a reader over the given client.
func NewReader(client *sui.Client) *Reader {
	return &Reader{client: client}
}

// Fetch reads the market object and its linked yield-state object and
// assembles a Record. The yield index defaults to 1.0 when the linked state
// carries no stored index. Any fetch or shape failure returns ErrUnavailable
// wrapping the cause.
func (r *Reader) Fetch(ctx context.Context, marketID string) (*Record, error) {
	obj, err := r.client.GetObject(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("%w: market %s: %v", ErrUnavailable, marketID, err)
	}
	if !obj.IsMoveStruct() {
		return nil, fmt.Errorf("%w: market %s is not a move object", ErrUnavailable, marketID)
	}
	fields := obj.Content.Fields

	rec := &Record{YieldIndex: 1.0}
	if rec.LPSupply, err = bigField(fields, "lp_supply"); err != nil {
		return nil, fmt.Errorf("%w: market %s: %v", ErrUnavailable, marketID, err)
	}
	if rec.TotalSy, err = bigField(fields, "total_sy"); err != nil {
		return nil, fmt.Errorf("%w: market %s: %v", ErrUnavailable, marketID, err)
	}
	if rec.TotalPt, err = bigField(fields, "total_pt"); err != nil {
		return nil, fmt.Errorf("%w: market %s: %v", ErrUnavailable, marketID, err)
	}
	if s, ok := sui.FieldString(fields, "expiry"); ok {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			rec.Expiry = v
		}
	}

	stateID, ok := sui.FieldString(fields, "py_state_id")
	if !ok {
		return nil, fmt.Errorf("%w: market %s has no linked yield state", ErrUnavailable, marketID)
	}

	index, stored, err := r.fetchYieldIndex(ctx, stateID)
	if err != nil {
		return nil, err
	}
	if stored {
		rec.YieldIndex = index
	}
	return rec, nil
}

// fetchYieldIndex reads the linked yield-state object. The stored flag
// reports whether an index was present: only absence keeps the caller's 1.0
// default. A stored zero is a real value and is returned as such.
func (r *Reader) fetchYieldIndex(ctx context.Context, stateID string) (index float64, stored bool, err error) {
	obj, err := r.client.GetObject(ctx, stateID)
	if err != nil {
		return 0, false, fmt.Errorf("%w: yield state %s: %v", ErrUnavailable, stateID, err)
	}
	if !obj.IsMoveStruct() {
		return 0, false, fmt.Errorf("%w: yield state %s is not a move object", ErrUnavailable, stateID)
	}

	raw, ok := sui.FieldString(obj.Content.Fields, "py_index_stored")
	if !ok {
		return 0, false, nil
	}
	index, err = fixedpoint.ParseIndex(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%w: yield state %s: %v", ErrUnavailable, stateID, err)
	}
	return index, true, nil
}

func bigField(fields map[string]interface{}, key string) (*big.Int, error) {
	s, ok := sui.FieldString(fields, key)
	if !ok {
		return nil, fmt.Errorf("missing field %q", key)
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("malformed field %q = %q", key, s)
	}
	return v, nil
}
