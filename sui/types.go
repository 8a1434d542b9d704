// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

package sui

import (
	"encoding/json"
	"strconv"
)

// ObjectData is the subset of a fullnode object response the readers use:
// identity, version, Move content fields and ownership.
type ObjectData struct {
	ObjectID string          `json:"objectId"`
	Version  string          `json:"version"`
	Digest   string          `json:"digest"`
	Content  *ObjectContent  `json:"content"`
	Owner    json.RawMessage `json:"owner"`
}

// ObjectContent carries the decoded Move struct behind an object.
type ObjectContent struct {
	DataType string                 `json:"dataType"`
	Type     string                 `json:"type"`
	Fields   map[string]interface{} `json:"fields"`
}

// IsMoveStruct reports whether the object decoded as a structured Move value
// (as opposed to a package or a missing object).
func (o *ObjectData) IsMoveStruct() bool {
	return o != nil && o.Content != nil && o.Content.DataType == "moveObject" && o.Content.Fields != nil
}

// sharedOwner mirrors the {"Shared":{"initial_shared_version":N}} owner form.
type sharedOwner struct {
	Shared struct {
		InitialSharedVersion json.Number `json:"initial_shared_version"`
	} `json:"Shared"`
}

// InitialSharedVersion extracts the shared-object version needed to reference
// the object in a transaction, or false if the object is not shared.
func (o *ObjectData) InitialSharedVersion() (uint64, bool) {
	if o == nil || len(o.Owner) == 0 {
		return 0, false
	}
	var so sharedOwner
	if err := json.Unmarshal(o.Owner, &so); err != nil {
		return 0, false
	}
	if so.Shared.InitialSharedVersion == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(so.Shared.InitialSharedVersion.String(), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// EventID is the pagination cursor for event queries.
type EventID struct {
	TxDigest string `json:"txDigest"`
	EventSeq string `json:"eventSeq"`
}

// Event is one emitted Move event: its full type tag and parsed payload.
type Event struct {
	ID         EventID                `json:"id"`
	Type       string                 `json:"type"`
	ParsedJSON map[string]interface{} `json:"parsedJson"`
}

// EventPage is one page of a paginated event query.
type EventPage struct {
	Data        []Event  `json:"data"`
	NextCursor  *EventID `json:"nextCursor"`
	HasNextPage bool     `json:"hasNextPage"`
}

// CoinMetadata is the slice of coin metadata the registry consumes.
type CoinMetadata struct {
	Decimals int    `json:"decimals"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
}

// CallResult is the outcome of one sub-call in a simulated transaction. A
// call that produced no return values has an empty ReturnValues slice; that
// is not an error.
type CallResult struct {
	ReturnValues [][]byte
}

// FieldString coerces a Move struct field to a string. Fullnode JSON renders
// u64 and larger integers as strings and small integers as numbers; both are
// accepted. Wrapped values ({"fields":{"value":...}} and UID/ID wrappers) are
// unwrapped one level.
func FieldString(fields map[string]interface{}, key string) (string, bool) {
	v, ok := fields[key]
	if !ok {
		return "", false
	}
	return coerceString(v)
}

func coerceString(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case json.Number:
		return t.String(), true
	case map[string]interface{}:
		// {"fields": {"value": ...}} / {"fields": {"id": ...}} wrappers
		// produced by Supply, Balance, UID and ID struct fields.
		if inner, ok := t["fields"].(map[string]interface{}); ok {
			if v, ok := inner["value"]; ok {
				return coerceString(v)
			}
			if v, ok := inner["id"]; ok {
				return coerceString(v)
			}
		}
		if v, ok := t["value"]; ok {
			return coerceString(v)
		}
		if v, ok := t["id"]; ok {
			return coerceString(v)
		}
		return "", false
	default:
		return "", false
	}
}
