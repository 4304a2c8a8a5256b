// Copyright (c) 2024 The qtumsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package qvm defines the contracts between the block producer and the
// contract virtual machine: extraction of VM-level transactions from wire
// transactions, speculative execution against the global state, and the
// snapshot/restore protocol used to roll failed attempts back.
package qvm

import (
	"errors"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/qtumsuite/qtumd/cscript"
)

// Transaction is a single VM-level operation extracted from a contract
// transaction.  One wire transaction may carry several contract outputs and
// therefore expand to several VM transactions.
type Transaction struct {
	// SourceTx is the hash of the wire transaction the operation was
	// extracted from.
	SourceTx chainhash.Hash

	// OutIdx is the output index within the source transaction.
	OutIdx uint32

	// Sender is the refund script of the fee payer.  Unused gas value is
	// returned to this script.
	Sender []byte

	// Receiver is the target contract address, nil for deployments.
	Receiver []byte

	// Value is the native value, in satoshi, transferred into the
	// contract account.
	Value int64

	// Gas is the gas limit of the operation.
	Gas uint64

	// GasPrice is the offered price per gas unit in satoshi.
	GasPrice uint64

	// Data is the deployment bytecode or call data.
	Data []byte

	// Create indicates a contract deployment.
	Create bool
}

// ExecResult accumulates the observable effects of contract execution that
// the block producer must fold into the block: consumed gas, the value
// deducted from the block reward to refund senders, the refund outputs to
// append to the reward transaction, and any VM-synthesized value transfers
// to append to the block.
type ExecResult struct {
	// UsedGas is the total gas consumed.
	UsedGas uint64

	// RefundSender is the total amount, in satoshi, to deduct from the
	// reward output and return to contract senders.
	RefundSender int64

	// RefundOutputs are the outputs returning unused gas value, appended
	// to the reward transaction in order.
	RefundOutputs []*wire.TxOut

	// ValueTransfers are transactions synthesized by the VM that move
	// native coins according to contract execution.  They follow the
	// contract transaction that produced them in the block.
	ValueTransfers []*wire.MsgTx
}

// Converter extracts the VM transactions encoded in a wire transaction's
// contract outputs.  The blockTxns argument is a read-only view of the block
// under construction which implementations may consult for context; they
// must not mutate it.
type Converter interface {
	ExtractTransactions(tx *btcutil.Tx,
		blockTxns []*btcutil.Tx) ([]*Transaction, error)
}

// Executor runs extracted VM transactions against the global state.  The
// gas limit passed here is the consensus hard limit, not the producer's
// soft limit.  A returned error means the state may have been partially
// mutated and the caller must restore its snapshot.
type Executor interface {
	Execute(header *wire.BlockHeader, txns []*Transaction,
		hardBlockGasLimit uint64) (*ExecResult, error)
}

// ScriptConverter is the default Converter.  It decodes contract parameters
// directly from output scripts.
type ScriptConverter struct{}

// Ensure ScriptConverter implements the Converter interface.
var _ Converter = (*ScriptConverter)(nil)

// ExtractTransactions decodes every OP_CREATE and OP_CALL output of the
// given transaction into VM transactions.  Extraction never consults chain
// state; resolving the sender refund script from the funding input is left
// to the executor, which has the UTXO view.
func (c *ScriptConverter) ExtractTransactions(tx *btcutil.Tx,
	blockTxns []*btcutil.Tx) ([]*Transaction, error) {

	var txns []*Transaction
	for i, txOut := range tx.MsgTx().TxOut {
		out, err := cscript.ParseContractOutput(txOut.PkScript)
		if errors.Is(err, cscript.ErrNotContractScript) {
			continue
		}
		if err != nil {
			return nil, err
		}

		txns = append(txns, &Transaction{
			SourceTx: *tx.Hash(),
			OutIdx:   uint32(i),
			Receiver: out.Receiver,
			Value:    txOut.Value,
			Gas:      out.GasLimit,
			GasPrice: out.GasPrice,
			Data:     out.Data,
			Create:   out.IsCreate,
		})
	}
	return txns, nil
}
