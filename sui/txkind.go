// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

package sui

import (
	"encoding/base64"
	"fmt"

	"github.com/moveyield/claimscan/bcs"
)

// Enum variant indexes used when serializing a transaction kind.
const (
	kindProgrammable = 0

	callArgPure   = 0
	callArgObject = 1

	objectArgShared = 1

	commandMoveCall = 0

	argumentInput = 1
)

// Argument references one transaction input by index.
type Argument struct {
	input uint16
}

type txInput struct {
	// pure holds raw BCS value bytes; object inputs leave it nil.
	pure []byte

	shared        bool
	objectID      []byte
	sharedVersion uint64
	mutable       bool

	// dedupe key
	key string
}

type moveCall struct {
	pkg      []byte
	module   string
	function string
	typeArgs []TypeTag
	args     []Argument
}

// TxBuilder assembles a programmable transaction kind made of Move calls,
// for read-only simulation. Inputs are deduplicated, so referencing the same
// shared object or address across calls serializes it once.
type TxBuilder struct {
	inputs []txInput
	calls  []moveCall
	err    error
}

// NewTxBuilder returns an empty builder.
func NewTxBuilder() *TxBuilder {
	return &TxBuilder{}
}

func (b *TxBuilder) addInput(in txInput) Argument {
	for i, existing := range b.inputs {
		if existing.key == in.key {
			return Argument{input: uint16(i)}
		}
	}
	b.inputs = append(b.inputs, in)
	return Argument{input: uint16(len(b.inputs) - 1)}
}

// SharedObject adds a shared-object input with its initial shared version.
func (b *TxBuilder) SharedObject(id string, initialVersion uint64, mutable bool) Argument {
	raw, err := AddressBytes(id)
	if err != nil {
		b.fail(err)
		raw = make([]byte, 32)
	}
	return b.addInput(txInput{
		shared:        true,
		objectID:      raw,
		sharedVersion: initialVersion,
		mutable:       mutable,
		key:           fmt.Sprintf("shared:%x:%d:%t", raw, initialVersion, mutable),
	})
}

// PureAddress adds a pure address input.
func (b *TxBuilder) PureAddress(addr string) Argument {
	raw, err := AddressBytes(addr)
	if err != nil {
		b.fail(err)
		raw = make([]byte, 32)
	}
	return b.addInput(txInput{pure: raw, key: fmt.Sprintf("pure:%x", raw)})
}

// MoveCall appends one Move call command.
func (b *TxBuilder) MoveCall(pkg, module, function string, typeArgs []TypeTag, args ...Argument) {
	raw, err := AddressBytes(pkg)
	if err != nil {
		b.fail(err)
		return
	}
	b.calls = append(b.calls, moveCall{
		pkg:      raw,
		module:   module,
		function: function,
		typeArgs: typeArgs,
		args:     args,
	})
}

func (b *TxBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Len reports the number of commands added so far.
func (b *TxBuilder) Len() int {
	return len(b.calls)
}

// Build serializes the transaction kind and returns it base64-encoded, the
// form the dev-inspect RPC accepts.
func (b *TxBuilder) Build() (string, error) {
	if b.err != nil {
		return "", b.err
	}
	if len(b.calls) == 0 {
		return "", fmt.Errorf("no commands in transaction")
	}

	w := bcs.NewWriter()
	w.WriteVariant(kindProgrammable)

	w.WriteLen(len(b.inputs))
	for _, in := range b.inputs {
		if in.pure != nil {
			w.WriteVariant(callArgPure)
			w.WriteBytes(in.pure)
			continue
		}
		w.WriteVariant(callArgObject)
		w.WriteVariant(objectArgShared)
		w.WriteFixedBytes(in.objectID)
		w.WriteU64(in.sharedVersion)
		w.WriteBool(in.mutable)
	}

	w.WriteLen(len(b.calls))
	for _, c := range b.calls {
		w.WriteVariant(commandMoveCall)
		w.WriteFixedBytes(c.pkg)
		w.WriteString(c.module)
		w.WriteString(c.function)
		w.WriteLen(len(c.typeArgs))
		for _, t := range c.typeArgs {
			if err := t.encode(w); err != nil {
				return "", err
			}
		}
		w.WriteLen(len(c.args))
		for _, a := range c.args {
			w.WriteVariant(argumentInput)
			w.WriteU16(a.input)
		}
	}

	return base64.StdEncoding.EncodeToString(w.Bytes()), nil
}
