// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2024 The qtumsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mining

import (
	"github.com/btcsuite/btcd/btcutil"

	"github.com/qtumsuite/qtumd/dgp"
)

const (
	// DefaultBlockMaxWeight is the default maximum block weight to be
	// used when generating a block template.
	DefaultBlockMaxWeight = 4000000

	// DefaultBlockMinTxFee is the default minimum fee rate, in satoshi
	// per kilo-vbyte, for a transaction to be included in a generated
	// block template.
	DefaultBlockMinTxFee = 1000

	// DefaultPrintPriority is the default for logging the fee rate of
	// every selected transaction.
	DefaultPrintPriority = false

	// DefaultStaking is the default for producing proof of stake blocks.
	DefaultStaking = true

	// coinbaseReservedWeight is the block weight reserved for the
	// coinbase transaction slot.
	coinbaseReservedWeight = 4000

	// coinbaseReservedSigOps is the signature operation cost reserved
	// for the coinbase transaction slot.
	coinbaseReservedSigOps = 400
)

// Policy houses the policy (configuration parameters) which is used to
// control the generation of block templates.  See the documentation for
// NewBlockAssembler and CreateNewBlock for more details on how each of
// these parameters are used.
type Policy struct {
	// BlockMaxWeight is the maximum block weight to be used when
	// generating a block template.  It is clamped between the coinbase
	// reservation and the governed ceiling at assembler construction.
	BlockMaxWeight uint64

	// BlockMinTxFee is the minimum fee rate in satoshi per kilo-vbyte a
	// package must pay to be included in a generated block template.
	BlockMinTxFee btcutil.Amount

	// BlockVersion optionally overrides the computed block version.  It
	// is only honored on networks that mine blocks on demand.
	BlockVersion int32

	// TxGasLimit is the producer's gas ceiling for a single contract
	// transaction.  Zero selects the protocol default.
	TxGasLimit uint64

	// SoftBlockGasLimit is the producer's gas ceiling for all contract
	// executions in one template.  It bounds template build time below
	// the consensus hard limit.  Zero selects the protocol default.
	SoftBlockGasLimit uint64

	// DisableContractStaking excludes contract transactions from
	// generated templates.
	DisableContractStaking bool

	// PrintPriority logs the fee rate of every transaction selected
	// into a template.
	PrintPriority bool

	// Staking enables proof of stake block production.
	Staking bool
}

// minPackageFee returns the minimum fee, in satoshi, a package of the given
// virtual size must pay under the configured fee rate.  The computation
// rounds the same way relay fee calculations do.
func (p *Policy) minPackageFee(size int64) int64 {
	minFee := (size * int64(p.BlockMinTxFee)) / 1000

	// A non-zero rate never charges zero.
	if minFee == 0 && size != 0 && p.BlockMinTxFee > 0 {
		minFee = 1
	}
	return minFee
}

// txGasLimit returns the per-transaction gas cap, applying the protocol
// default when the policy does not set one.
func (p *Policy) txGasLimit() uint64 {
	if p.TxGasLimit != 0 {
		return p.TxGasLimit
	}
	return dgp.DefaultTxGasLimit
}

// softBlockGasLimit returns the per-block soft gas cap, applying the
// protocol default when the policy does not set one.
func (p *Policy) softBlockGasLimit() uint64 {
	if p.SoftBlockGasLimit != 0 {
		return p.SoftBlockGasLimit
	}
	return dgp.DefaultBlockGasLimit
}
