// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

// Package main provides the claimscan CLI: read a run file, discover the
// asset registry, query claimable LP positions for the configured addresses
// and print them, optionally staying up to serve results over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/moveyield/claimscan/api"
	"github.com/moveyield/claimscan/claims"
	"github.com/moveyield/claimscan/config"
	"github.com/moveyield/claimscan/market"
	"github.com/moveyield/claimscan/registry"
	"github.com/moveyield/claimscan/sui"
)

var version = "dev"

func main() {
	var (
		configFile  = flag.String("config", "", "Path to run.yaml (addresses and assets)")
		listen      = flag.String("listen", "", "Serve the HTTP API on this address after the run")
		showVersion = flag.Bool("version", false, "Show version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("claimscan %s\n", version)
		os.Exit(0)
	}

	rf := loadRunFile(*configFile)
	if len(rf.Addresses) == 0 {
		log.Fatal("No addresses configured; nothing to query")
	}
	if *listen == "" {
		*listen = rf.Listen
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := sui.NewClient(config.RPCEndpoint)
	snapshot := registry.NewDiscoverer(client).Discover(ctx, rf.Assets)

	sim := claims.NewSimulator()
	reader := market.NewReader(client)
	agg := claims.NewAggregator(sim, reader, snapshot)

	report, err := agg.Run(ctx, rf.Addresses, rf.Assets)
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	printReport(report)

	if *listen == "" {
		return
	}

	srv := api.NewServer(sim, reader, registry.NewDiscoverer(client), snapshot)
	srv.SetReport(report)
	if err := srv.Start(ctx, *listen); err != nil {
		log.Fatalf("API server failed: %v", err)
	}
}

// loadRunFile loads the run file from the flag or the default locations.
func loadRunFile(path string) *config.RunFile {
	if path != "" {
		rf, err := config.Load(path)
		if err != nil {
			log.Fatalf("Failed to load run file: %v", err)
		}
		return rf
	}

	for _, p := range []string{"run.yaml", "config/run.yaml"} {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		rf, err := config.Load(p)
		if err != nil {
			log.Printf("Warning: failed to load %s: %v", p, err)
			continue
		}
		log.Printf("Loaded run file from %s", p)
		return rf
	}

	log.Fatal("No run file found; pass -config")
	return nil
}

func printReport(report *claims.Report) {
	fmt.Printf("run %s (%d addresses, %d failed)\n\n",
		report.ID, len(report.Order)+len(report.Failed), len(report.Failed))

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ADDRESS\tASSET\tCLAIMABLE\tUNDERLYING")
	for _, addr := range report.Order {
		rows := report.Results[addr]
		if len(rows) == 0 {
			fmt.Fprintf(w, "%s\t-\tno claimable assets found\t\n", addr)
			continue
		}
		for _, row := range rows {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", addr, row.Name, row.Amount, row.Underlying)
		}
	}
	for _, addr := range report.Failed {
		fmt.Fprintf(w, "%s\t-\tquery failed\t\n", addr)
	}
	w.Flush()
}
