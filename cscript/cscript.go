// Copyright (c) 2024 The qtumsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package cscript recognizes and decodes the contract opcodes that extend
// the script language: OP_CREATE deploys bytecode to a fresh account,
// OP_CALL invokes an existing contract, OP_SPEND releases value held by a
// contract account, and OP_SENDER prepends an explicit fee payer.
package cscript

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

const (
	// OpCreate is the opcode that deploys a new contract account from the
	// bytecode pushed before it.
	OpCreate = 0xc1

	// OpCall is the opcode that executes an existing contract account.
	OpCall = 0xc2

	// OpSpend is the opcode that spends value out of a contract account.
	// It only ever appears in VM-synthesized value transfers.
	OpSpend = 0xc3

	// OpSender is the opcode marking an explicit gas fee payer preceding
	// the contract parameters.
	OpSender = 0xc4

	// ContractAddrSize is the size of a contract account address.
	ContractAddrSize = 20

	// maxGasNumLen is the maximum serialized length accepted for the gas
	// limit and gas price script numbers.
	maxGasNumLen = 8
)

var (
	// ErrNotContractScript is returned when a script does not terminate
	// in one of the contract opcodes.
	ErrNotContractScript = errors.New("script carries no contract opcode")

	// ErrMalformedContractScript is returned when a script carries a
	// contract opcode but its parameter pushes cannot be decoded.
	ErrMalformedContractScript = errors.New("malformed contract script")
)

// ContractOutput holds the decoded parameters of a single OP_CREATE or
// OP_CALL output script.
type ContractOutput struct {
	// VMVersion is the virtual machine version the output requests.
	VMVersion uint32

	// GasLimit is the maximum gas the execution may consume.
	GasLimit uint64

	// GasPrice is the price offered per unit of gas, in satoshi.
	GasPrice uint64

	// Data is the contract bytecode (OP_CREATE) or call data (OP_CALL).
	Data []byte

	// Receiver is the 20-byte contract address for OP_CALL outputs.  It
	// is nil for OP_CREATE outputs.
	Receiver []byte

	// IsCreate indicates whether the output deploys a new contract.
	IsCreate bool
}

// scriptPushes tokenizes the script and returns the ordered list of data
// pushes preceding the first contract opcode along with that opcode.  Small
// integer opcodes (OP_0 through OP_16) are returned as their minimal data
// encoding since contract parameters may be pushed either way.
func scriptPushes(pkScript []byte) ([][]byte, byte, error) {
	var pushes [][]byte

	tokenizer := txscript.MakeScriptTokenizer(0, pkScript)
	for tokenizer.Next() {
		op := tokenizer.Opcode()
		switch {
		case op == OpCreate || op == OpCall:
			return pushes, op, nil

		case op == txscript.OP_0:
			pushes = append(pushes, nil)

		case op >= txscript.OP_1 && op <= txscript.OP_16:
			small := op - (txscript.OP_1 - 1)
			pushes = append(pushes, []byte{small})

		case tokenizer.Data() != nil:
			pushes = append(pushes, tokenizer.Data())

		default:
			// Any other opcode before the contract marker means
			// this is not a contract script.
			return nil, 0, ErrNotContractScript
		}
	}
	if err := tokenizer.Err(); err != nil {
		return nil, 0, err
	}

	return nil, 0, ErrNotContractScript
}

// asGasNum decodes a minimally-encoded script number push into a
// non-negative gas quantity.
func asGasNum(push []byte) (uint64, error) {
	num, err := txscript.MakeScriptNum(push, false, maxGasNumLen)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedContractScript, err)
	}
	if num < 0 {
		return 0, fmt.Errorf("%w: negative gas value",
			ErrMalformedContractScript)
	}
	return uint64(num), nil
}

// ParseContractOutput decodes the contract parameters of an output script.
// The expected layouts are:
//
//	version gasLimit gasPrice data OP_CREATE
//	version gasLimit gasPrice data receiver OP_CALL
//
// ErrNotContractScript is returned for scripts without a contract opcode.
func ParseContractOutput(pkScript []byte) (*ContractOutput, error) {
	pushes, op, err := scriptPushes(pkScript)
	if err != nil {
		return nil, err
	}

	out := &ContractOutput{IsCreate: op == OpCreate}
	wantPushes := 4
	if op == OpCall {
		wantPushes = 5
	}
	if len(pushes) != wantPushes {
		return nil, fmt.Errorf("%w: %d parameter pushes, want %d",
			ErrMalformedContractScript, len(pushes), wantPushes)
	}

	version, err := asGasNum(pushes[0])
	if err != nil {
		return nil, err
	}
	out.VMVersion = uint32(version)

	if out.GasLimit, err = asGasNum(pushes[1]); err != nil {
		return nil, err
	}
	if out.GasPrice, err = asGasNum(pushes[2]); err != nil {
		return nil, err
	}
	out.Data = pushes[3]

	if op == OpCall {
		receiver := pushes[4]
		if len(receiver) != ContractAddrSize {
			return nil, fmt.Errorf("%w: receiver is %d bytes",
				ErrMalformedContractScript, len(receiver))
		}
		out.Receiver = receiver
	}

	return out, nil
}

// scriptHasOpcode returns whether the script contains the given opcode at
// the top level.  Tokenization errors are treated as not containing it.
func scriptHasOpcode(pkScript []byte, opcode byte) bool {
	tokenizer := txscript.MakeScriptTokenizer(0, pkScript)
	for tokenizer.Next() {
		if tokenizer.Opcode() == opcode {
			return true
		}
	}
	return false
}

// TxHasOpCreateOrCall returns whether any output of the transaction executes
// a contract.
func TxHasOpCreateOrCall(tx *wire.MsgTx) bool {
	for _, txOut := range tx.TxOut {
		if scriptHasOpcode(txOut.PkScript, OpCreate) ||
			scriptHasOpcode(txOut.PkScript, OpCall) {

			return true
		}
	}
	return false
}

// TxHasOpSpend returns whether any input of the transaction spends a
// contract account, which marks VM-synthesized value transfers.
func TxHasOpSpend(tx *wire.MsgTx) bool {
	for _, txIn := range tx.TxIn {
		if scriptHasOpcode(txIn.SignatureScript, OpSpend) {
			return true
		}
	}
	return false
}

// ParseContractOutputs decodes every contract output of the transaction in
// output order.
func ParseContractOutputs(tx *wire.MsgTx) ([]*ContractOutput, error) {
	var outputs []*ContractOutput
	for i, txOut := range tx.TxOut {
		out, err := ParseContractOutput(txOut.PkScript)
		switch {
		case errors.Is(err, ErrNotContractScript):
			continue
		case err != nil:
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

// TxMinGasPrice returns the lowest gas price across the transaction's
// contract outputs, or zero when the transaction has none.  A zero gas
// price on an output is a legitimate value and is returned as the minimum
// when present.
func TxMinGasPrice(tx *wire.MsgTx) (uint64, error) {
	outputs, err := ParseContractOutputs(tx)
	if err != nil {
		return 0, err
	}

	var minPrice uint64
	found := false
	for _, out := range outputs {
		if !found || out.GasPrice < minPrice {
			minPrice = out.GasPrice
			found = true
		}
	}
	return minPrice, nil
}
