// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

// Package registry builds the two lookup tables the aggregator reads: LP
// asset type -> market object id, discovered from factory events, and asset
// type -> decimal precision, from coin metadata. Discovery is a best-effort
// warm-up producing immutable snapshots; queries issued before a snapshot is
// complete simply see fewer markets and fall back to defaults.
package registry

import (
	"context"
	"log"
	"strings"

	"github.com/moveyield/claimscan/config"
	"github.com/moveyield/claimscan/sui"
)

// Snapshot is an immutable view of the discovered lookup tables. The zero
// value is usable and resolves nothing.
type Snapshot struct {
	markets  map[string]string
	decimals map[string]int
}

// NewSnapshot builds a snapshot from explicit tables, copying both. Useful
// when lookup data comes from somewhere other than discovery.
func NewSnapshot(markets map[string]string, decimals map[string]int) *Snapshot {
	s := &Snapshot{
		markets:  make(map[string]string, len(markets)),
		decimals: make(map[string]int, len(decimals)),
	}
	for k, v := range markets {
		s.markets[k] = v
	}
	for k, v := range decimals {
		s.decimals[k] = v
	}
	return s
}

// Market returns the market object id for an LP asset type, if one was
// discovered.
func (s *Snapshot) Market(asset string) (string, bool) {
	if s == nil {
		return "", false
	}
	id, ok := s.markets[asset]
	return id, ok
}

// Decimals returns the decimal precision for an asset type, falling back to
// the chain default when metadata was unavailable.
func (s *Snapshot) Decimals(asset string) int {
	if s != nil {
		if d, ok := s.decimals[asset]; ok {
			return d
		}
	}
	return config.DefaultDecimals
}

// Markets returns a copy of the asset -> market table for display.
func (s *Snapshot) Markets() map[string]string {
	out := make(map[string]string, len(s.markets))
	for k, v := range s.markets {
		out[k] = v
	}
	return out
}

// DecimalsMap returns a copy of the asset -> decimals table for display.
func (s *Snapshot) DecimalsMap() map[string]int {
	out := make(map[string]int, len(s.decimals))
	for k, v := range s.decimals {
		out[k] = v
	}
	return out
}

// Merge returns a new snapshot with other's entries layered over s. Neither
// input is modified; later discoveries win per key.
func (s *Snapshot) Merge(other *Snapshot) *Snapshot {
	merged := &Snapshot{
		markets:  make(map[string]string),
		decimals: make(map[string]int),
	}
	for _, src := range []*Snapshot{s, other} {
		if src == nil {
			continue
		}
		for k, v := range src.markets {
			merged.markets[k] = v
		}
		for k, v := range src.decimals {
			merged.decimals[k] = v
		}
	}
	return merged
}

// Discoverer scans factory events and coin metadata to produce snapshots.
type Discoverer struct {
	client *sui.Client

	// factory identity, overridable in tests
	factoryPackage string
	factoryModule  string
	pageSize       int
	pageCap        int
}

// NewDiscoverer returns a discoverer reading through the given client.
func NewDiscoverer(client *sui.Client) *Discoverer {
	return &Discoverer{
		client:         client,
		factoryPackage: config.MarketFactoryPackageID,
		factoryModule:  config.MarketFactoryModule,
		pageSize:       config.EventPageSize,
		pageCap:        config.EventPageCap,
	}
}

// Discover builds a fresh snapshot: market ids from factory events, decimal
// precision for each candidate asset plus the reward asset. Every failure is
// logged and skipped; the returned snapshot holds whatever was found.
func (d *Discoverer) Discover(ctx context.Context, candidates []string) *Snapshot {
	snap := &Snapshot{
		markets:  d.discoverMarkets(ctx),
		decimals: d.discoverDecimals(ctx, candidates),
	}
	log.Printf("registry: discovered %d markets, %d decimal entries", len(snap.markets), len(snap.decimals))
	return snap
}

// discoverMarkets paginates MarketCreated events up to the event cap. The
// cap bounds the scan; hitting it leaves the market map incomplete, which
// consumers tolerate by reporting unknown underlying value.
func (d *Discoverer) discoverMarkets(ctx context.Context) map[string]string {
	markets := make(map[string]string)

	var cursor *sui.EventID
	seen := 0
	for seen < d.pageCap {
		page, err := d.client.QueryEvents(ctx, d.factoryPackage, d.factoryModule, cursor, d.pageSize)
		if err != nil {
			log.Printf("registry: event query failed after %d events: %v", seen, err)
			return markets
		}

		for _, ev := range page.Data {
			seen++
			d.recordMarket(markets, ev)
		}

		if !page.HasNextPage || page.NextCursor == nil || len(page.Data) == 0 {
			return markets
		}
		cursor = page.NextCursor
	}
	return markets
}

func (d *Discoverer) recordMarket(markets map[string]string, ev sui.Event) {
	if !strings.Contains(ev.Type, "::"+config.MarketCreatedEvent+"<") {
		return
	}
	params, err := sui.TypeParams(ev.Type)
	if err != nil || len(params) != 1 {
		return
	}
	marketID, ok := sui.FieldString(ev.ParsedJSON, "market_id")
	if !ok {
		return
	}
	markets[params[0]] = marketID
}

// discoverDecimals fetches coin metadata for each candidate plus the reward
// asset. Individual failures never abort the batch; the asset just falls
// back to the default precision wherever it is consumed.
func (d *Discoverer) discoverDecimals(ctx context.Context, candidates []string) map[string]int {
	decimals := make(map[string]int)

	all := make([]string, 0, len(candidates)+1)
	all = append(all, config.RewardAssetType)
	for _, c := range candidates {
		if c != config.RewardAssetType {
			all = append(all, c)
		}
	}

	for _, asset := range all {
		meta, err := d.client.GetCoinMetadata(ctx, asset)
		if err != nil {
			log.Printf("registry: no metadata for %s: %v", sui.DisplayName(asset), err)
			continue
		}
		if meta.Decimals < 0 {
			continue
		}
		decimals[asset] = meta.Decimals
	}
	return decimals
}
