// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

package claims

import (
	"context"
	"testing"

	"github.com/moveyield/claimscan/config"
	"github.com/moveyield/claimscan/sui"
)

const (
	addrA = "0x0000000000000000000000000000000000000000000000000000000000000aaa"
	addrB = "0x0000000000000000000000000000000000000000000000000000000000000bbb"

	lpSUI  = "0x9::lp::LP<0x2::sui::SUI>"
	lpUSDC = "0x9::lp::LP<0x3::usdc::USDC>"
)

func TestSimulateClaimsTagsResults(t *testing.T) {
	node := newFakeFullnode()
	// reward, then the two selected assets
	node.setInspect(addrA, []*uint64{u64p(5_000_000_000), u64p(2_000_000_000), nil})
	srv := node.serve(t)
	defer srv.Close()

	sim := NewSimulatorWith(sui.NewClient(srv.URL))
	results, err := sim.SimulateClaims(context.Background(), addrA, []string{lpSUI, lpUSDC})
	if err != nil {
		t.Fatalf("SimulateClaims() error = %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].Asset != config.RewardAssetType {
		t.Errorf("first result tagged %s, want the reward asset", results[0].Asset)
	}
	if results[1].Asset != lpSUI || results[2].Asset != lpUSDC {
		t.Errorf("selected assets tagged %s, %s", results[1].Asset, results[2].Asset)
	}
	if results[2].Raw != nil {
		t.Errorf("call with no return value should carry nil bytes, got %x", results[2].Raw)
	}
	if node.lastInspectSender != addrA {
		t.Errorf("simulation sender = %s, want %s", node.lastInspectSender, addrA)
	}
}

func TestSimulateClaimsRewardOnlyBatch(t *testing.T) {
	node := newFakeFullnode()
	node.setInspect(addrA, []*uint64{u64p(1)})
	srv := node.serve(t)
	defer srv.Close()

	sim := NewSimulatorWith(sui.NewClient(srv.URL))
	results, err := sim.SimulateClaims(context.Background(), addrA, nil)
	if err != nil {
		t.Fatalf("SimulateClaims() error = %v", err)
	}
	if len(results) != 1 || results[0].Asset != config.RewardAssetType {
		t.Errorf("empty selection must still query the reward asset, got %+v", results)
	}
}

func TestSimulateClaimsBatchFailure(t *testing.T) {
	node := newFakeFullnode()
	// no inspect entry for addrB: the node rejects the simulation
	srv := node.serve(t)
	defer srv.Close()

	sim := NewSimulatorWith(sui.NewClient(srv.URL))
	if _, err := sim.SimulateClaims(context.Background(), addrB, []string{lpSUI}); err == nil {
		t.Error("SimulateClaims() should fail when the whole batch is rejected")
	}
}

func TestSimulateClaimsResultCountMismatch(t *testing.T) {
	node := newFakeFullnode()
	node.setInspect(addrA, []*uint64{u64p(1)}) // one result for two calls
	srv := node.serve(t)
	defer srv.Close()

	sim := NewSimulatorWith(sui.NewClient(srv.URL))
	if _, err := sim.SimulateClaims(context.Background(), addrA, []string{lpSUI}); err == nil {
		t.Error("SimulateClaims() should reject a result count mismatch")
	}
}

func TestSimulateClaimsBadAsset(t *testing.T) {
	node := newFakeFullnode()
	srv := node.serve(t)
	defer srv.Close()

	sim := NewSimulatorWith(sui.NewClient(srv.URL))
	if _, err := sim.SimulateClaims(context.Background(), addrA, []string{"not-a-type"}); err == nil {
		t.Error("SimulateClaims() should reject a malformed asset type")
	}
}

func TestDefaultSimulatorPinnedEndpoint(t *testing.T) {
	// The default constructor must bind the canonical endpoint, not any
	// ambient configuration.
	sim := NewSimulator()
	if got := sim.client.Endpoint(); got != config.RPCEndpoint {
		t.Errorf("endpoint = %q, want pinned %q", got, config.RPCEndpoint)
	}
}
