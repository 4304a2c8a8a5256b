// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2024 The qtumsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mining

import (
	"sort"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// TxDesc is a descriptor about a transaction in a transaction source along
// with additional metadata.  The ancestor aggregates include the transaction
// itself and reflect prioritisation deltas applied to modified fees.
type TxDesc struct {
	// Tx is the transaction associated with the entry.
	Tx *btcutil.Tx

	// Added is the time when the entry was added to the source pool.
	Added time.Time

	// Height is the block height when the entry was added to the source
	// pool.
	Height int32

	// Fee is the total fee the transaction associated with the entry
	// pays.
	Fee int64

	// ModifiedFee is the fee including any prioritisation deltas.
	ModifiedFee int64

	// TxSize is the virtual size of the transaction.
	TxSize int64

	// TxWeight is the weight of the transaction.
	TxWeight int64

	// SigOpCost is the legacy signature operation cost of the
	// transaction.
	SigOpCost int64

	// AncestorSize is the virtual size of the transaction including all
	// of its unconfirmed ancestors.
	AncestorSize int64

	// AncestorFees is the modified fee of the transaction including all
	// of its unconfirmed ancestors.
	AncestorFees int64

	// AncestorSigOps is the signature operation cost of the transaction
	// including all of its unconfirmed ancestors.
	AncestorSigOps int64

	// AncestorCount is the number of in-pool ancestors including the
	// transaction itself.
	AncestorCount int64

	// HasCreateOrCall indicates the transaction carries contract
	// execution outputs.
	HasCreateOrCall bool

	// MinGasPrice is the lowest gas price across the transaction's
	// contract outputs.  It is zero for plain transactions.
	MinGasPrice uint64

	// Sequence is the insertion sequence number of the entry within the
	// source pool.  It breaks ordering ties so selection is
	// deterministic.
	Sequence uint64
}

// TxSource represents a source of transactions to consider for inclusion in
// new blocks.
//
// The interface contract requires that all of these methods are safe for
// concurrent access with respect to the source.
type TxSource interface {
	// LastUpdated returns the last time a transaction was added to or
	// removed from the source pool.
	LastUpdated() time.Time

	// MiningDescs returns a slice of mining descriptors for all the
	// transactions in the source pool, ordered by ancestor score or gas
	// price, best first.
	MiningDescs() []*TxDesc

	// HaveTransaction returns whether or not the passed transaction hash
	// exists in the source pool.
	HaveTransaction(hash *chainhash.Hash) bool

	// CalcAncestors returns the in-pool ancestors of the given
	// transaction.  The result excludes the transaction itself.
	CalcAncestors(hash *chainhash.Hash) []*TxDesc

	// CalcDescendants returns the in-pool descendants of the given
	// transaction.  The result excludes the transaction itself.
	CalcDescendants(hash *chainhash.Hash) []*TxDesc
}

// BlockTemplate houses a block that has yet to be solved along with
// additional details about the fees and the number of signature operations
// for each transaction in the block.
type BlockTemplate struct {
	// Block is a block that is ready to be solved by miners, or signed by
	// the staking wallet for proof of stake templates.  Thus, it is
	// completely valid with the exception of satisfying the
	// proof-of-work or proof-of-stake requirement.
	Block *wire.MsgBlock

	// Fees contains the amount of fees each transaction in the generated
	// template pays in base units.  Since the first transaction is the
	// coinbase, the first entry (offset 0) will contain the negative of
	// the sum of the fees of all other transactions.
	Fees []int64

	// SigOpCosts contains the number of signature operations each
	// transaction in the generated template performs.
	SigOpCosts []int64

	// Height is the height at which the block template connects to the
	// main chain.
	Height int32

	// TotalFees is the sum of fees paid by every selected transaction.
	TotalFees int64

	// UsedGas is the gas consumed by contract execution across the
	// template.
	UsedGas uint64

	// ValidPayAddress indicates whether or not the template coinbase
	// pays to an address or is redeemable by anyone.
	ValidPayAddress bool

	// WitnessCommitment is a commitment to the witness data (if any)
	// within the block.
	WitnessCommitment []byte
}

// packageView is the effective package state of an entry used for ordering:
// either the cached ancestor aggregates of the pool entry, or the decremented
// aggregates of a modified entry.
type packageView struct {
	desc   *TxDesc
	size   int64
	fees   int64
	sigOps int64
	count  int64
}

// viewOf returns the package view over the entry's cached aggregates.
func viewOf(desc *TxDesc) packageView {
	return packageView{
		desc:   desc,
		size:   desc.AncestorSize,
		fees:   desc.AncestorFees,
		sigOps: desc.AncestorSigOps,
		count:  desc.AncestorCount,
	}
}

// betterPackage returns whether package a ranks before package b under the
// ancestor-score-or-gas-price ordering.  Contract entries offering less than
// the governed minimum gas price rank after every other entry, ordered among
// themselves by gas price.  All other entries compare by ancestor fee rate,
// best first, with the insertion sequence breaking exact ties.
func betterPackage(a, b packageView, minGasPrice uint64) bool {
	aBelow := a.desc.HasCreateOrCall && a.desc.MinGasPrice < minGasPrice
	bBelow := b.desc.HasCreateOrCall && b.desc.MinGasPrice < minGasPrice
	if aBelow != bBelow {
		return !aBelow
	}
	if aBelow && a.desc.MinGasPrice != b.desc.MinGasPrice {
		return a.desc.MinGasPrice > b.desc.MinGasPrice
	}

	// Compare fee rates by cross multiplication to avoid floating point:
	// a.fees/a.size > b.fees/b.size  <=>  a.fees*b.size > b.fees*a.size.
	aScore := a.fees * b.size
	bScore := b.fees * a.size
	if aScore != bScore {
		return aScore > bScore
	}

	return a.desc.Sequence < b.desc.Sequence
}

// BetterAncestorPackage reports whether entry a should be considered for
// block inclusion before entry b given the governed minimum gas price.  Tx
// sources use it to produce the ordering MiningDescs promises.
func BetterAncestorPackage(a, b *TxDesc, minGasPrice uint64) bool {
	return betterPackage(viewOf(a), viewOf(b), minGasPrice)
}

// sortForBlock orders the package entries by ancestor count.  If a
// transaction A depends on transaction B, then A's ancestor count must be
// greater than B's, so this is sufficient to validly order the transactions
// for block inclusion.
func sortForBlock(entries []*TxDesc) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].AncestorCount < entries[j].AncestorCount
	})
}
