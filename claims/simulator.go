// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

// Package claims implements the claim-aggregation pipeline: batched
// simulated claim queries against the on-chain registry and the
// decode-and-enrich step that turns raw amounts into per-address rows.
package claims

import (
	"context"
	"fmt"
	"sync"

	"github.com/moveyield/claimscan/config"
	"github.com/moveyield/claimscan/sui"
)

// SimResult is one asset's raw outcome from a batched simulation. Results
// carry their asset tag so callers never index positionally. Raw is nil when
// the call produced no return value, which means zero claimable.
type SimResult struct {
	Asset string
	Raw   []byte
}

// Simulator builds and executes one read-only batched claim query per
// address.
type Simulator struct {
	client *sui.Client

	mu          sync.Mutex
	registryVer uint64
	registryOK  bool
}

// NewSimulator returns a simulator bound to the canonical fullnode endpoint.
// Claim amounts are only meaningful against one chain state, so the
// simulator never inherits whatever endpoint the caller uses elsewhere.
func NewSimulator() *Simulator {
	return NewSimulatorWith(sui.NewClient(config.RPCEndpoint))
}

// NewSimulatorWith returns a simulator over an explicit client. Tests use
// this to point the simulator at a fake fullnode.
func NewSimulatorWith(client *sui.Client) *Simulator {
	return &Simulator{client: client}
}

// registryVersion resolves the claim registry's initial shared version,
// required to reference it in a transaction. Resolved once and reused.
func (s *Simulator) registryVersion(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.registryOK {
		return s.registryVer, nil
	}

	obj, err := s.client.GetObject(ctx, config.ClaimRegistryID)
	if err != nil {
		return 0, fmt.Errorf("resolve claim registry: %w", err)
	}
	ver, ok := obj.InitialSharedVersion()
	if !ok {
		return 0, fmt.Errorf("claim registry %s is not a shared object", config.ClaimRegistryID)
	}
	s.registryVer = ver
	s.registryOK = true
	return ver, nil
}

// SimulateClaims executes one batched read-only claim query for owner: the
// reward asset first, always, then one call per selected asset in the given
// order. The whole batch is one atomic simulation; there are no retries, and
// a failure aborts only this owner's query.
func (s *Simulator) SimulateClaims(ctx context.Context, owner string, selected []string) ([]SimResult, error) {
	regVer, err := s.registryVersion(ctx)
	if err != nil {
		return nil, err
	}

	assets := make([]string, 0, len(selected)+1)
	assets = append(assets, config.RewardAssetType)
	assets = append(assets, selected...)

	b := sui.NewTxBuilder()
	reg := b.SharedObject(config.ClaimRegistryID, regVer, false)
	who := b.PureAddress(owner)
	for _, asset := range assets {
		tag, err := sui.ParseTypeTag(asset)
		if err != nil {
			return nil, fmt.Errorf("asset %q: %w", asset, err)
		}
		b.MoveCall(config.ClaimPackageID, config.ClaimModule, config.ClaimFunction,
			[]sui.TypeTag{tag}, reg, who)
	}

	txKind, err := b.Build()
	if err != nil {
		return nil, err
	}

	results, err := s.client.DevInspect(ctx, owner, txKind)
	if err != nil {
		return nil, err
	}
	if len(results) != len(assets) {
		return nil, fmt.Errorf("simulation returned %d results for %d calls", len(results), len(assets))
	}

	out := make([]SimResult, len(assets))
	for i, asset := range assets {
		out[i] = SimResult{Asset: asset}
		if len(results[i].ReturnValues) > 0 {
			out[i].Raw = results[i].ReturnValues[0]
		}
	}
	return out, nil
}
