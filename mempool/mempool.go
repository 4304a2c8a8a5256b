// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2024 The qtumsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/qtumsuite/qtumd/blockchain"
	"github.com/qtumsuite/qtumd/chaincfg"
	"github.com/qtumsuite/qtumd/cscript"
	"github.com/qtumsuite/qtumd/mining"
)

// Config is a descriptor containing the memory pool configuration.
type Config struct {
	// ChainParams identifies which chain parameters the txpool is
	// associated with.
	ChainParams *chaincfg.Params

	// BestHeight defines the function to use to access the block height
	// of the current best chain.
	BestHeight func() int32

	// MinGasPrice defines the function to use to access the governed
	// minimum gas price.  It determines where underpriced contract
	// transactions rank in the mining order.
	MinGasPrice func() uint64
}

// TxDesc is a descriptor containing a transaction in the mempool along with
// additional metadata.
type TxDesc struct {
	mining.TxDesc

	// StartingPriority holds a transaction priority.  AddTransaction does
	// not compute one, so it is zero for every entry of this pool.
	StartingPriority float64
}

// poolEntry ties a descriptor to the in-pool transaction graph.
type poolEntry struct {
	desc *TxDesc

	parents  map[chainhash.Hash]*poolEntry
	children map[chainhash.Hash]*poolEntry
}

// TxPool is used as a source of transactions that need to be mined into
// blocks.  It tracks the in-pool ancestry of every transaction and keeps
// the ancestor aggregates the block assembler's selection loop relies on.
// It is safe for concurrent access.
type TxPool struct {
	// The following variables must only be used atomically.
	lastUpdated int64 // last pool update time, unix seconds

	mtx       sync.RWMutex
	cfg       Config
	pool      map[chainhash.Hash]*poolEntry
	outpoints map[wire.OutPoint]*poolEntry
	sequence  uint64
}

// New returns a new memory pool for storing transactions until they are
// mined into a block.
func New(cfg *Config) *TxPool {
	return &TxPool{
		cfg:       *cfg,
		pool:      make(map[chainhash.Hash]*poolEntry),
		outpoints: make(map[wire.OutPoint]*poolEntry),
	}
}

// Count returns the number of transactions in the main pool.
//
// This function is safe for concurrent access.
func (mp *TxPool) Count() int {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()

	return len(mp.pool)
}

// LastUpdated returns the last time a transaction was added to or removed
// from the main pool.
//
// This function is safe for concurrent access.
func (mp *TxPool) LastUpdated() time.Time {
	return time.Unix(atomic.LoadInt64(&mp.lastUpdated), 0)
}

// HaveTransaction returns whether or not the passed transaction exists in
// the main pool.
//
// This function is safe for concurrent access.
func (mp *TxPool) HaveTransaction(hash *chainhash.Hash) bool {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()

	_, exists := mp.pool[*hash]
	return exists
}

// FetchTransaction returns the requested transaction from the pool.
//
// This function is safe for concurrent access.
func (mp *TxPool) FetchTransaction(hash *chainhash.Hash) (*btcutil.Tx, error) {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()

	if entry, exists := mp.pool[*hash]; exists {
		return entry.desc.Tx, nil
	}
	return nil, fmt.Errorf("transaction is not in the pool")
}

// collectAncestors walks the parent edges of the entry and accumulates
// every in-pool ancestor into the provided set.
//
// This function MUST be called with the mempool lock held (for reads).
func (mp *TxPool) collectAncestors(entry *poolEntry,
	ancestors map[chainhash.Hash]*poolEntry) {

	for hash, parent := range entry.parents {
		if _, seen := ancestors[hash]; seen {
			continue
		}
		ancestors[hash] = parent
		mp.collectAncestors(parent, ancestors)
	}
}

// collectDescendants walks the child edges of the entry and accumulates
// every in-pool descendant into the provided set.
//
// This function MUST be called with the mempool lock held (for reads).
func (mp *TxPool) collectDescendants(entry *poolEntry,
	descendants map[chainhash.Hash]*poolEntry) {

	for hash, child := range entry.children {
		if _, seen := descendants[hash]; seen {
			continue
		}
		descendants[hash] = child
		mp.collectDescendants(child, descendants)
	}
}

// AddTransaction adds the passed transaction to the memory pool with the
// given fee.  The transaction's in-pool parents are resolved from its
// inputs and the cached ancestor aggregates are computed over the full
// ancestor set.  The returned descriptor is shared with the pool and must
// not be mutated.
//
// This function is safe for concurrent access.
func (mp *TxPool) AddTransaction(tx *btcutil.Tx, fee int64) (*TxDesc, error) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	hash := tx.Hash()
	if _, exists := mp.pool[*hash]; exists {
		return nil, fmt.Errorf("transaction %v is already in the pool",
			hash)
	}

	hasContract := cscript.TxHasOpCreateOrCall(tx.MsgTx())
	var minGasPrice uint64
	if hasContract {
		var err error
		minGasPrice, err = cscript.TxMinGasPrice(tx.MsgTx())
		if err != nil {
			return nil, err
		}
	}

	mp.sequence++
	desc := &TxDesc{
		TxDesc: mining.TxDesc{
			Tx:              tx,
			Added:           time.Now(),
			Height:          mp.cfg.BestHeight(),
			Fee:             fee,
			ModifiedFee:     fee,
			TxSize:          blockchain.GetTransactionVSize(tx),
			TxWeight:        blockchain.GetTransactionWeight(tx),
			SigOpCost:       int64(blockchain.CountSigOps(tx)),
			HasCreateOrCall: hasContract,
			MinGasPrice:     minGasPrice,
			Sequence:        mp.sequence,
		},
	}

	entry := &poolEntry{
		desc:     desc,
		parents:  make(map[chainhash.Hash]*poolEntry),
		children: make(map[chainhash.Hash]*poolEntry),
	}

	// Resolve in-pool parents from the transaction inputs and connect
	// the graph edges both ways.
	for _, txIn := range tx.MsgTx().TxIn {
		parentHash := txIn.PreviousOutPoint.Hash
		if parent, exists := mp.pool[parentHash]; exists {
			entry.parents[parentHash] = parent
			parent.children[*hash] = entry
		}
	}

	// Compute the ancestor aggregates, which include the entry itself.
	ancestors := make(map[chainhash.Hash]*poolEntry)
	mp.collectAncestors(entry, ancestors)

	desc.AncestorSize = desc.TxSize
	desc.AncestorFees = desc.ModifiedFee
	desc.AncestorSigOps = desc.SigOpCost
	desc.AncestorCount = 1
	for _, ancestor := range ancestors {
		desc.AncestorSize += ancestor.desc.TxSize
		desc.AncestorFees += ancestor.desc.ModifiedFee
		desc.AncestorSigOps += ancestor.desc.SigOpCost
		desc.AncestorCount++
	}

	mp.pool[*hash] = entry
	for _, txIn := range tx.MsgTx().TxIn {
		mp.outpoints[txIn.PreviousOutPoint] = entry
	}
	atomic.StoreInt64(&mp.lastUpdated, time.Now().Unix())

	log.Debugf("Accepted transaction %v (pool size: %d)", hash,
		len(mp.pool))

	return desc, nil
}

// RemoveTransaction removes the passed transaction from the mempool.  When
// the removeRedeemers flag is set, any transactions that redeem outputs
// from the removed transaction are also removed recursively since they
// would otherwise become orphans.
//
// This function is safe for concurrent access.
func (mp *TxPool) RemoveTransaction(tx *btcutil.Tx, removeRedeemers bool) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	mp.removeTransaction(tx.Hash(), removeRedeemers)
}

// removeTransaction is the internal implementation of RemoveTransaction.
//
// This function MUST be called with the mempool lock held (for writes).
func (mp *TxPool) removeTransaction(hash *chainhash.Hash,
	removeRedeemers bool) {

	entry, exists := mp.pool[*hash]
	if !exists {
		return
	}

	if removeRedeemers {
		for childHash := range entry.children {
			childHash := childHash
			mp.removeTransaction(&childHash, true)
		}
	}

	// Remaining descendants lose this entry's contribution from their
	// cached ancestor aggregates.  This must happen before the graph
	// edges are detached.
	mp.adjustDescendantAggregates(entry, -entry.desc.TxSize,
		-entry.desc.ModifiedFee, -entry.desc.SigOpCost, -1)

	// Detach the entry from the graph.
	for _, parent := range entry.parents {
		delete(parent.children, *hash)
	}
	for _, child := range entry.children {
		delete(child.parents, *hash)
	}

	for _, txIn := range entry.desc.Tx.MsgTx().TxIn {
		delete(mp.outpoints, txIn.PreviousOutPoint)
	}
	delete(mp.pool, *hash)
	atomic.StoreInt64(&mp.lastUpdated, time.Now().Unix())
}

// adjustDescendantAggregates applies the given deltas to the cached
// ancestor aggregates of every in-pool descendant of the entry.
//
// This function MUST be called with the mempool lock held (for writes).
func (mp *TxPool) adjustDescendantAggregates(entry *poolEntry, size, fees,
	sigOps, count int64) {

	descendants := make(map[chainhash.Hash]*poolEntry)
	mp.collectDescendants(entry, descendants)
	for _, descendant := range descendants {
		descendant.desc.AncestorSize += size
		descendant.desc.AncestorFees += fees
		descendant.desc.AncestorSigOps += sigOps
		descendant.desc.AncestorCount += count
	}
}

// PrioritiseTransaction adds a fee delta to the given transaction,
// adjusting its modified fee and the cached ancestor fees of itself and
// all of its in-pool descendants.  The block assembler selects on the
// modified fee, so a positive delta makes the transaction mine sooner.
//
// This function is safe for concurrent access.
func (mp *TxPool) PrioritiseTransaction(hash *chainhash.Hash, delta int64) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	entry, exists := mp.pool[*hash]
	if !exists {
		return
	}
	entry.desc.ModifiedFee += delta
	entry.desc.AncestorFees += delta
	mp.adjustDescendantAggregates(entry, 0, delta, 0, 0)

	log.Debugf("Prioritised transaction %v by %d", hash, delta)
}

// CalcAncestors returns the in-pool ancestors of the given transaction,
// excluding the transaction itself.
//
// This function is safe for concurrent access.
func (mp *TxPool) CalcAncestors(hash *chainhash.Hash) []*mining.TxDesc {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()

	entry, exists := mp.pool[*hash]
	if !exists {
		return nil
	}

	ancestors := make(map[chainhash.Hash]*poolEntry)
	mp.collectAncestors(entry, ancestors)

	descs := make([]*mining.TxDesc, 0, len(ancestors))
	for _, ancestor := range ancestors {
		descs = append(descs, &ancestor.desc.TxDesc)
	}
	return descs
}

// CalcDescendants returns the in-pool descendants of the given
// transaction, excluding the transaction itself.
//
// This function is safe for concurrent access.
func (mp *TxPool) CalcDescendants(hash *chainhash.Hash) []*mining.TxDesc {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()

	entry, exists := mp.pool[*hash]
	if !exists {
		return nil
	}

	descendants := make(map[chainhash.Hash]*poolEntry)
	mp.collectDescendants(entry, descendants)

	descs := make([]*mining.TxDesc, 0, len(descendants))
	for _, descendant := range descendants {
		descs = append(descs, &descendant.desc.TxDesc)
	}
	return descs
}

// MiningDescs returns a slice of mining descriptors for all the
// transactions in the pool, ordered by ancestor score or gas price, best
// first, as the block assembler's selection loop expects.
//
// This function is safe for concurrent access.
func (mp *TxPool) MiningDescs() []*mining.TxDesc {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()

	minGasPrice := mp.cfg.MinGasPrice()
	descs := make([]*mining.TxDesc, 0, len(mp.pool))
	for _, entry := range mp.pool {
		descs = append(descs, &entry.desc.TxDesc)
	}
	sort.Slice(descs, func(i, j int) bool {
		return mining.BetterAncestorPackage(descs[i], descs[j],
			minGasPrice)
	})
	return descs
}

// CheckSpend checks whether the passed outpoint is already spent by a
// transaction in the mempool.  If that's the case the spending transaction
// will be returned, if not nil will be returned.
//
// This function is safe for concurrent access.
func (mp *TxPool) CheckSpend(op wire.OutPoint) *btcutil.Tx {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()

	if entry, exists := mp.outpoints[op]; exists {
		return entry.desc.Tx
	}
	return nil
}

// Ensure TxPool implements the mining.TxSource interface.
var _ mining.TxSource = (*TxPool)(nil)
