// Copyright (c) 2024 The qtumsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mining

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// modifiedEntry is a mutable copy of a pool entry's ancestor aggregates with
// the contribution of ancestors already selected into the block removed.
type modifiedEntry struct {
	desc *TxDesc

	ancestorSize   int64
	ancestorFees   int64
	ancestorSigOps int64
	ancestorCount  int64
}

// newModifiedEntry seeds a modified entry from the pool entry's cached
// aggregates.
func newModifiedEntry(desc *TxDesc) *modifiedEntry {
	return &modifiedEntry{
		desc:           desc,
		ancestorSize:   desc.AncestorSize,
		ancestorFees:   desc.AncestorFees,
		ancestorSigOps: desc.AncestorSigOps,
		ancestorCount:  desc.AncestorCount,
	}
}

// removeAncestor subtracts a newly-included ancestor's contribution from the
// aggregates.
func (me *modifiedEntry) removeAncestor(ancestor *TxDesc) {
	me.ancestorSize -= ancestor.TxSize
	me.ancestorFees -= ancestor.ModifiedFee
	me.ancestorSigOps -= ancestor.SigOpCost
	me.ancestorCount--
}

// view returns the effective package state of the modified entry.
func (me *modifiedEntry) view() packageView {
	return packageView{
		desc:   me.desc,
		size:   me.ancestorSize,
		fees:   me.ancestorFees,
		sigOps: me.ancestorSigOps,
		count:  me.ancestorCount,
	}
}

// modTxSet tracks entries whose cached ancestor aggregates went stale
// because some of their ancestors were selected into the block.  Every
// entry in the set has at least one ancestor in the block and is never
// itself in the block.
type modTxSet struct {
	minGasPrice uint64
	entries     map[chainhash.Hash]*modifiedEntry
}

// newModTxSet returns an empty modified set ordering entries against the
// given governed minimum gas price.
func newModTxSet(minGasPrice uint64) *modTxSet {
	return &modTxSet{
		minGasPrice: minGasPrice,
		entries:     make(map[chainhash.Hash]*modifiedEntry),
	}
}

// empty returns whether the set holds no entries.
func (ms *modTxSet) empty() bool {
	return len(ms.entries) == 0
}

// contains returns whether the entry with the given hash is in the set.
func (ms *modTxSet) contains(hash *chainhash.Hash) bool {
	_, ok := ms.entries[*hash]
	return ok
}

// remove erases the entry with the given hash if present.
func (ms *modTxSet) remove(hash *chainhash.Hash) {
	delete(ms.entries, *hash)
}

// best returns the highest-ranked modified entry under the ancestor score
// or gas price ordering, or nil when the set is empty.
func (ms *modTxSet) best() *modifiedEntry {
	var best *modifiedEntry
	for _, me := range ms.entries {
		if best == nil ||
			betterPackage(me.view(), best.view(), ms.minGasPrice) {

			best = me
		}
	}
	return best
}

// trackAncestorIncluded creates or updates the modified entry for desc,
// removing the newly-included ancestor's contribution from its aggregates.
func (ms *modTxSet) trackAncestorIncluded(desc, ancestor *TxDesc) {
	me, ok := ms.entries[*desc.Tx.Hash()]
	if !ok {
		me = newModifiedEntry(desc)
		ms.entries[*desc.Tx.Hash()] = me
	}
	me.removeAncestor(ancestor)
}
