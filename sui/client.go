// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

// Package sui is a thin JSON-RPC client for a Move-object fullnode. It
// covers exactly the four read-only accessors the claim pipeline needs:
// object lookup, event queries, coin metadata and dev-inspect simulation.
package sui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// Client talks JSON-RPC 2.0 to a single fullnode endpoint.
type Client struct {
	endpoint string
	client   *http.Client
	nextID   uint64
}

// NewClient returns a client for the given fullnode endpoint.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Endpoint returns the endpoint this client is bound to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      atomic.AddUint64(&c.nextID, 1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s: http %d: %s", method, resp.StatusCode, string(b))
	}

	var rr rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return fmt.Errorf("%s: decode response: %w", method, err)
	}
	if rr.Error != nil {
		return fmt.Errorf("%s: rpc error %d: %s", method, rr.Error.Code, rr.Error.Message)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rr.Result, out); err != nil {
		return fmt.Errorf("%s: decode result: %w", method, err)
	}
	return nil
}

// ErrNotFound reports an object or metadata record the node does not have.
var ErrNotFound = fmt.Errorf("not found")

// GetObject fetches one object with its Move content and ownership info.
func (c *Client) GetObject(ctx context.Context, id string) (*ObjectData, error) {
	var result struct {
		Data  *ObjectData `json:"data"`
		Error *struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	opts := map[string]bool{"showContent": true, "showOwner": true}
	if err := c.call(ctx, "sui_getObject", []interface{}{id, opts}, &result); err != nil {
		return nil, err
	}
	if result.Data == nil {
		return nil, fmt.Errorf("object %s: %w", id, ErrNotFound)
	}
	return result.Data, nil
}

// QueryEvents fetches one page of events emitted by the given package and
// module. A nil cursor starts from the beginning; events are returned oldest
// first.
func (c *Client) QueryEvents(ctx context.Context, pkg, module string, cursor *EventID, limit int) (*EventPage, error) {
	filter := map[string]interface{}{
		"MoveModule": map[string]string{
			"package": pkg,
			"module":  module,
		},
	}
	var cur interface{}
	if cursor != nil {
		cur = cursor
	}
	var page EventPage
	if err := c.call(ctx, "suix_queryEvents", []interface{}{filter, cur, limit, false}, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetCoinMetadata fetches decimal precision metadata for a coin type.
func (c *Client) GetCoinMetadata(ctx context.Context, coinType string) (*CoinMetadata, error) {
	var meta *CoinMetadata
	if err := c.call(ctx, "suix_getCoinMetadata", []interface{}{coinType}, &meta); err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, fmt.Errorf("coin metadata %s: %w", coinType, ErrNotFound)
	}
	return meta, nil
}

// devInspectResult mirrors the execution results array of a dev-inspect
// response. Return values arrive as [bytes, typeTag] pairs.
type devInspectResult struct {
	Error   string `json:"error"`
	Results []struct {
		ReturnValues []json.RawMessage `json:"returnValues"`
	} `json:"results"`
}

// DevInspect executes a serialized transaction kind read-only, without gas
// or signatures, and returns one CallResult per command in the transaction.
func (c *Client) DevInspect(ctx context.Context, sender string, txKindB64 string) ([]CallResult, error) {
	var result devInspectResult
	params := []interface{}{sender, txKindB64, nil, nil}
	if err := c.call(ctx, "sui_devInspectTransactionBlock", params, &result); err != nil {
		return nil, err
	}
	if result.Error != "" {
		return nil, fmt.Errorf("dev inspect: %s", result.Error)
	}

	out := make([]CallResult, len(result.Results))
	for i, r := range result.Results {
		for _, rv := range r.ReturnValues {
			b, err := decodeReturnValue(rv)
			if err != nil {
				return nil, fmt.Errorf("dev inspect result %d: %w", i, err)
			}
			out[i].ReturnValues = append(out[i].ReturnValues, b)
		}
	}
	return out, nil
}

// decodeReturnValue unpacks one [bytes, type] return value pair. The byte
// array arrives as a JSON array of numbers.
func decodeReturnValue(raw json.RawMessage) ([]byte, error) {
	var pair []json.RawMessage
	if err := json.Unmarshal(raw, &pair); err != nil {
		return nil, err
	}
	if len(pair) == 0 {
		return nil, fmt.Errorf("empty return value pair")
	}
	var nums []int
	if err := json.Unmarshal(pair[0], &nums); err != nil {
		return nil, err
	}
	b := make([]byte, len(nums))
	for i, n := range nums {
		if n < 0 || n > 255 {
			return nil, fmt.Errorf("byte value %d out of range", n)
		}
		b[i] = byte(n)
	}
	return b, nil
}
