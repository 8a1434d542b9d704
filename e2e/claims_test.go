// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

package e2e

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/moveyield/claimscan/api"
	"github.com/moveyield/claimscan/claims"
	"github.com/moveyield/claimscan/config"
	"github.com/moveyield/claimscan/market"
	"github.com/moveyield/claimscan/registry"
	"github.com/moveyield/claimscan/sui"
)

const (
	addrA = "0x0000000000000000000000000000000000000000000000000000000000000aaa"
	addrB = "0x0000000000000000000000000000000000000000000000000000000000000bbb"

	lpSUI = "0x9::lp::LP<0x2::sui::SUI>"

	// 1.2 * 2^64
	rawIndex12 = "22136092888451461939"
)

var _ = Describe("Claim pipeline", func() {
	var (
		node   *fakeFullnode
		server *httptest.Server
		client *sui.Client
	)

	BeforeEach(func() {
		node = newFakeFullnode()
		node.addMarketCreated(lpSUI, "0x77")
		node.addMarket("0x77", "100", "150", "50", "0x55")
		node.addYieldState("0x55", rawIndex12)
		node.setMetadata(lpSUI, 9)
		node.setMetadata(config.RewardAssetType, 9)

		server = node.serve()
		client = sui.NewClient(server.URL)
	})

	AfterEach(func() {
		server.Close()
	})

	runQuery := func(addresses []string) *claims.Report {
		snap := registry.NewDiscoverer(client).Discover(context.Background(), []string{lpSUI})
		agg := claims.NewAggregator(
			claims.NewSimulatorWith(client),
			market.NewReader(client),
			snap,
		)
		report, err := agg.Run(context.Background(), addresses, []string{lpSUI})
		Expect(err).NotTo(HaveOccurred())
		return report
	}

	Context("full scenario", func() {
		It("computes claimable amounts and underlying value", func() {
			node.setInspect(addrA, []*uint64{u64p(5_000_000_000), u64p(2_000_000_000)})

			report := runQuery([]string{addrA})
			rows := report.Results[addrA]
			Expect(rows).To(HaveLen(2))

			Expect(rows[0].Asset).To(Equal(config.RewardAssetType))
			Expect(rows[0].Amount).To(Equal("5.0000"))
			Expect(rows[0].Underlying).To(Equal("0.0000"))

			Expect(rows[1].Asset).To(Equal(lpSUI))
			Expect(rows[1].Amount).To(Equal("2.0000"))
			Expect(rows[1].Underlying).To(Equal("4.6000"))
		})

		It("discovers the market map from factory events", func() {
			snap := registry.NewDiscoverer(client).Discover(context.Background(), []string{lpSUI})
			id, ok := snap.Market(lpSUI)
			Expect(ok).To(BeTrue())
			Expect(id).To(Equal("0x77"))
			Expect(snap.Decimals(lpSUI)).To(Equal(9))
		})
	})

	Context("per-address isolation", func() {
		It("keeps one address's simulation failure away from the others", func() {
			// addrA has no simulation entry, so its batch is rejected.
			node.setInspect(addrB, []*uint64{nil, u64p(2_000_000_000)})

			report := runQuery([]string{addrA, addrB})

			Expect(report.Results).NotTo(HaveKey(addrA))
			Expect(report.Failed).To(ConsistOf(addrA))
			Expect(report.Results[addrB]).To(HaveLen(1))
			Expect(report.Results[addrB][0].Amount).To(Equal("2.0000"))
		})
	})

	Context("HTTP API", func() {
		It("serves a query end to end", func() {
			node.setInspect(addrA, []*uint64{u64p(5_000_000_000), u64p(2_000_000_000)})

			snap := registry.NewDiscoverer(client).Discover(context.Background(), []string{lpSUI})
			srv := api.NewServer(
				claims.NewSimulatorWith(client),
				market.NewReader(client),
				registry.NewDiscoverer(client),
				snap,
			)
			ts := httptest.NewServer(srv.Handler())
			defer ts.Close()

			body := `{"addresses":["` + addrA + `"],"assets":["` + lpSUI + `"]}`
			resp, err := ts.Client().Post(ts.URL+"/api/v1/query", "application/json", strings.NewReader(body))
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(200))

			var report claims.Report
			Expect(json.NewDecoder(resp.Body).Decode(&report)).To(Succeed())
			Expect(report.Results[addrA]).To(HaveLen(2))

			// The report is now servable from the results endpoint too.
			resp2, err := ts.Client().Get(ts.URL + "/api/v1/results/" + addrA)
			Expect(err).NotTo(HaveOccurred())
			defer resp2.Body.Close()
			var addrResp struct {
				Rows   []claims.Row `json:"rows"`
				Failed bool         `json:"failed"`
			}
			Expect(json.NewDecoder(resp2.Body).Decode(&addrResp)).To(Succeed())
			Expect(addrResp.Rows).To(HaveLen(2))
			Expect(addrResp.Failed).To(BeFalse())
		})
	})
})
