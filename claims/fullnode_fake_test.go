// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

package claims

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/moveyield/claimscan/config"
)

// fakeFullnode is an in-process fullnode serving the RPC surface the claim
// pipeline touches. Objects are keyed by id; simulation results by sender.
type fakeFullnode struct {
	objects map[string]string // object id -> raw getObject result
	// inspect maps sender address -> raw devInspect result; absent senders
	// get an rpc error.
	inspect map[string]string

	// lastInspectSender records the sender of the most recent simulation.
	lastInspectSender string
}

func newFakeFullnode() *fakeFullnode {
	f := &fakeFullnode{
		objects: make(map[string]string),
		inspect: make(map[string]string),
	}
	// Claim registry is always present as a shared object.
	f.objects[config.ClaimRegistryID] = fmt.Sprintf(`{"data":{
		"objectId":"%s","version":"9","digest":"d",
		"owner":{"Shared":{"initial_shared_version":7}},
		"content":{"dataType":"moveObject","type":"0x83::yield_distributor::Registry","fields":{}}}}`,
		config.ClaimRegistryID)
	return f
}

func (f *fakeFullnode) addMarket(id, lpSupply, totalSy, totalPt, pyStateID string) {
	f.objects[id] = fmt.Sprintf(`{"data":{"objectId":"%s","version":"1","digest":"d",
		"content":{"dataType":"moveObject","type":"0x9::market::Market",
		"fields":{"lp_supply":"%s","total_sy":"%s","total_pt":"%s","expiry":"1767225600","py_state_id":"%s"}}}}`,
		id, lpSupply, totalSy, totalPt, pyStateID)
}

func (f *fakeFullnode) addYieldState(id, rawIndex string) {
	f.objects[id] = fmt.Sprintf(`{"data":{"objectId":"%s","version":"1","digest":"d",
		"content":{"dataType":"moveObject","type":"0x9::yield::PyState",
		"fields":{"py_index_stored":{"fields":{"value":"%s"}}}}}}`, id, rawIndex)
}

// setInspect installs a simulation result for a sender: one u64 return value
// per amount, in call order. A nil entry in amounts produces a call with no
// return values.
func (f *fakeFullnode) setInspect(sender string, amounts []*uint64) {
	raws := make([][]byte, len(amounts))
	for i, a := range amounts {
		if a != nil {
			raws[i] = u64le(*a)
		}
	}
	f.setInspectRaw(sender, raws)
}

// setInspectRaw installs a simulation result with explicit return bytes per
// call. A nil entry produces a call with no return values.
func (f *fakeFullnode) setInspectRaw(sender string, raws [][]byte) {
	results := ""
	for i, raw := range raws {
		if i > 0 {
			results += ","
		}
		if raw == nil {
			results += `{"returnValues":[]}`
			continue
		}
		nums := ""
		for j, c := range raw {
			if j > 0 {
				nums += ","
			}
			nums += fmt.Sprintf("%d", c)
		}
		results += fmt.Sprintf(`{"returnValues":[[[%s],"u64"]]}`, nums)
	}
	f.inspect[sender] = fmt.Sprintf(`{"results":[%s]}`, results)
}

func (f *fakeFullnode) serve(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request: %v", err)
			return
		}

		var result string
		switch req.Method {
		case "sui_getObject":
			var id string
			json.Unmarshal(req.Params[0], &id)
			var ok bool
			if result, ok = f.objects[id]; !ok {
				result = `{"error":{"code":"notExists"}}`
			}
		case "sui_devInspectTransactionBlock":
			var sender string
			json.Unmarshal(req.Params[0], &sender)
			f.lastInspectSender = sender
			var ok bool
			if result, ok = f.inspect[sender]; !ok {
				fmt.Fprint(w, `{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"simulation rejected"}}`)
				return
			}
		default:
			t.Errorf("unexpected method %s", req.Method)
			return
		}
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":1,"result":%s}`, result)
	}))
}

func u64p(v uint64) *uint64 { return &v }

func u64le(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * uint(i)))
	}
	return b
}
