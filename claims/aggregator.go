// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

package claims

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/moveyield/claimscan/config"
	"github.com/moveyield/claimscan/fixedpoint"
	"github.com/moveyield/claimscan/market"
	"github.com/moveyield/claimscan/registry"
	"github.com/moveyield/claimscan/sui"
)

// ErrEmptyAddressList rejects a query with nothing to do before any work
// starts.
var ErrEmptyAddressList = fmt.Errorf("empty address list")

// Row is one claimable position: the asset, its human-scaled claimable
// amount and its underlying value, both rendered to four decimal places.
type Row struct {
	Asset      string `json:"asset"`
	Name       string `json:"name"`
	Amount     string `json:"amount"`
	Underlying string `json:"underlying"`
}

// QueryResult maps each queried address to its claimable rows. Re-querying
// an address replaces its entry wholesale.
type QueryResult map[string][]Row

// Report is the outcome of one query run. Failed lists addresses whose
// batched simulation failed outright; their Results entries are absent.
// Whether callers present those differently from a zero-balance address is a
// product decision this layer does not make.
type Report struct {
	ID       string      `json:"id"`
	Started  time.Time   `json:"started"`
	Finished time.Time   `json:"finished"`
	Order    []string    `json:"order"`
	Results  QueryResult `json:"results"`
	Failed   []string    `json:"failed,omitempty"`
}

// Progress is invoked after each address completes, with its rows or the
// error that sank its batch. Used to stream results as a run advances.
type Progress func(address string, rows []Row, err error)

// Aggregator orchestrates the pipeline: simulate, decode, enrich, assemble.
// The registry snapshot is injected; callers refresh and merge snapshots
// between runs, so staleness is theirs to manage and the aggregator sees an
// immutable view.
type Aggregator struct {
	sim      *Simulator
	markets  *market.Reader
	snapshot *registry.Snapshot

	// OnProgress, when set, observes each completed address.
	OnProgress Progress
}

// NewAggregator wires the pipeline together.
func NewAggregator(sim *Simulator, markets *market.Reader, snapshot *registry.Snapshot) *Aggregator {
	return &Aggregator{sim: sim, markets: markets, snapshot: snapshot}
}

// Run queries every address sequentially and returns the assembled report.
// Addresses are independent units of work: one address's simulation failure
// is recorded and the run moves on. Only an empty address list is an error.
func (a *Aggregator) Run(ctx context.Context, addresses []string, selected []string) (*Report, error) {
	if len(addresses) == 0 {
		return nil, ErrEmptyAddressList
	}

	report := &Report{
		ID:      uuid.NewString(),
		Started: time.Now().UTC(),
		Results: make(QueryResult, len(addresses)),
	}

	for _, addr := range addresses {
		rows, err := a.queryAddress(ctx, addr, selected)
		if err != nil {
			log.Printf("claims: simulation failed for %s: %v", addr, err)
			report.Failed = append(report.Failed, addr)
			if a.OnProgress != nil {
				a.OnProgress(addr, nil, err)
			}
			continue
		}
		report.Order = append(report.Order, addr)
		report.Results[addr] = rows
		if a.OnProgress != nil {
			a.OnProgress(addr, rows, nil)
		}
	}

	report.Finished = time.Now().UTC()
	return report, nil
}

// queryAddress runs the per-address pipeline: one batched simulation, then a
// concurrent decode-and-enrich fan-out over the non-reward assets, joined
// and assembled in selection order.
func (a *Aggregator) queryAddress(ctx context.Context, addr string, selected []string) ([]Row, error) {
	selected = dedupeAssets(selected)

	results, err := a.sim.SimulateClaims(ctx, addr, selected)
	if err != nil {
		return nil, err
	}

	byAsset := make(map[string]SimResult, len(results))
	for _, r := range results {
		byAsset[r.Asset] = r
	}

	var rows []Row

	// The reward asset has no underlying decomposition; its row reports a
	// fixed zero underlying value. An undecodable return value drops the row
	// like any other asset's, it does not sink the address.
	if reward, ok := byAsset[config.RewardAssetType]; ok {
		amount, err := decodeAmount(reward.Raw)
		if err != nil {
			log.Printf("claims: undecodable amount for %s: %v", sui.DisplayName(config.RewardAssetType), err)
		} else if amount.Sign() > 0 {
			dec := a.snapshot.Decimals(config.RewardAssetType)
			rows = append(rows, Row{
				Asset:      config.RewardAssetType,
				Name:       sui.DisplayName(config.RewardAssetType),
				Amount:     scaleAmount(amount, dec),
				Underlying: renderZero(),
			})
		}
	}

	// Fan out enrichment across the selected assets. Each branch writes
	// only its own slot and reads only the immutable snapshot, so the join
	// needs no locking. Assembly order is the selection order regardless
	// of completion order.
	slots := make([]*Row, len(selected))
	var wg sync.WaitGroup
	for i, asset := range selected {
		if asset == config.RewardAssetType {
			continue
		}
		res, ok := byAsset[asset]
		if !ok {
			continue
		}
		wg.Add(1)
		go func(i int, asset string, res SimResult) {
			defer wg.Done()
			slots[i] = a.enrich(ctx, asset, res)
		}(i, asset, res)
	}
	wg.Wait()

	for _, row := range slots {
		if row != nil {
			rows = append(rows, *row)
		}
	}
	return rows, nil
}

// enrich turns one asset's raw simulation bytes into a row, or nil when the
// scaled amount is zero. Missing markets, unfetchable market state and a
// zero LP supply all degrade to a zero underlying value; those fallbacks are
// the policy here, not in the readers.
func (a *Aggregator) enrich(ctx context.Context, asset string, res SimResult) *Row {
	amount, err := decodeAmount(res.Raw)
	if err != nil {
		log.Printf("claims: undecodable amount for %s: %v", sui.DisplayName(asset), err)
		return nil
	}
	if amount.Sign() == 0 {
		return nil
	}

	dec := a.snapshot.Decimals(asset)
	row := &Row{
		Asset:      asset,
		Name:       sui.DisplayName(asset),
		Amount:     scaleAmount(amount, dec),
		Underlying: renderZero(),
	}

	marketID, ok := a.snapshot.Market(asset)
	if !ok {
		return row
	}
	rec, err := a.markets.Fetch(ctx, marketID)
	if err != nil {
		log.Printf("claims: market state for %s: %v", sui.DisplayName(asset), err)
		return row
	}
	if rec.LPSupply.Sign() == 0 {
		return row
	}

	row.Underlying = underlyingValue(amount, rec, dec)
	return row
}

// underlyingValue applies the pro-rata formula over raw integer amounts:
//
//	userSy = floor(L * totalSy / lpSupply)
//	userPt = floor(L * totalPt / lpSupply)
//	value  = (userSy * yieldIndex + userPt) / 10^decimals
//
// The integer steps stay in math/big; L * totalSy can exceed 64 bits.
func underlyingValue(l *big.Int, rec *market.Record, decimals int) string {
	userSy := proRata(l, rec.TotalSy, rec.LPSupply)
	userPt := proRata(l, rec.TotalPt, rec.LPSupply)

	appreciated := new(big.Float).SetInt(userSy)
	appreciated.Mul(appreciated, big.NewFloat(rec.YieldIndex))
	appreciated.Add(appreciated, new(big.Float).SetInt(userPt))

	v, _ := appreciated.Float64()
	return decimal.NewFromFloat(v).
		Div(decimal.New(1, int32(decimals))).
		StringFixed(4)
}

// dedupeAssets collapses repeated selection entries, keeping first-occurrence
// order, so each asset is simulated and reported once.
func dedupeAssets(selected []string) []string {
	seen := make(map[string]bool, len(selected))
	out := make([]string, 0, len(selected))
	for _, asset := range selected {
		if seen[asset] {
			continue
		}
		seen[asset] = true
		out = append(out, asset)
	}
	return out
}

// proRata computes floor(l * total / supply), the holder's share of one
// balance component. supply must be non-zero; callers check.
func proRata(l, total, supply *big.Int) *big.Int {
	share := new(big.Int).Mul(l, total)
	return share.Quo(share, supply)
}

// decodeAmount decodes a raw u64 claim amount. nil bytes mean the call
// returned nothing, which is zero claimable, not an error.
func decodeAmount(raw []byte) (*big.Int, error) {
	if raw == nil {
		return big.NewInt(0), nil
	}
	v, err := fixedpoint.DecodeU64LE(raw)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetUint64(v), nil
}

// scaleAmount renders a raw integer amount at the asset's decimal precision.
func scaleAmount(raw *big.Int, decimals int) string {
	return decimal.NewFromBigInt(raw, -int32(decimals)).StringFixed(4)
}

func renderZero() string {
	return decimal.Zero.StringFixed(4)
}
