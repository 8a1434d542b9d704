// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

// Package config holds the fixed chain constants and the YAML run-file
// loader. Everything that identifies on-chain state is a constant: claim
// amounts are only meaningful against one canonical deployment, so none of
// these values are caller-configurable.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Chain constants. The RPC endpoint is deliberately pinned here rather than
// read from configuration: simulations run against a different network would
// silently return wrong claim amounts.
const (
	RPCEndpoint = "https://fullnode.mainnet.sui.io:443"

	// Claim registry deployment.
	ClaimPackageID  = "0x83bf55a6a6c2e94cbb4f753e8fa0e55c0cf1df4111b1c871d8cbbe0e209fd34b"
	ClaimModule     = "yield_distributor"
	ClaimFunction   = "claimable"
	ClaimRegistryID = "0x2e8d9cf16a7c0cb5a1a9e5b87f2e40b4c3fa9ddca4c971a6c1b7409366fcff01"

	// Factory whose MarketCreated events bootstrap the asset -> market map.
	MarketFactoryPackageID = "0x9f7d81d071f52906f2b963983c4cd92fcb8b2b2a85a0ea38b5a6d9c1f9de7712"
	MarketFactoryModule    = "market_factory"
	MarketCreatedEvent     = "MarketCreated"

	// Reward asset queried on every run regardless of selection.
	RewardAssetType = "0x83bf55a6a6c2e94cbb4f753e8fa0e55c0cf1df4111b1c871d8cbbe0e209fd34b::myt::MYT"

	// Decimal precision assumed for assets with no coin metadata.
	DefaultDecimals = 9

	// Event pagination bounds for market discovery. The cap is a safety
	// bound, not a correctness requirement: consumers must tolerate an
	// incomplete market map.
	EventPageSize = 50
	EventPageCap  = 500
)

// RunFile is the YAML input consumed by the CLI: which addresses to query,
// which LP asset types to include, and where to serve results.
type RunFile struct {
	Addresses []string `yaml:"addresses"`
	Assets    []string `yaml:"assets"`
	Listen    string   `yaml:"listen,omitempty"`
}

// Load reads a run file, expanding environment variables before parsing.
func Load(path string) (*RunFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var rf RunFile
	if err := yaml.Unmarshal([]byte(expanded), &rf); err != nil {
		return nil, fmt.Errorf("failed to parse run file: %w", err)
	}
	return &rf, nil
}
