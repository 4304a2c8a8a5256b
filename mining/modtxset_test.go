// Copyright (c) 2024 The qtumsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mining

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

// fakeDesc returns a descriptor over a unique dummy transaction with the
// given standalone and ancestor fee state.
func fakeDesc(seq uint64, fee, size int64) *TxDesc {
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.LockTime = uint32(seq) // unique hash per descriptor
	tx.AddTxOut(&wire.TxOut{Value: 1, PkScript: []byte{0x51}})

	return &TxDesc{
		Tx:             btcutil.NewTx(tx),
		Fee:            fee,
		ModifiedFee:    fee,
		TxSize:         size,
		TxWeight:       size * 4,
		SigOpCost:      1,
		AncestorSize:   size,
		AncestorFees:   fee,
		AncestorSigOps: 1,
		AncestorCount:  1,
		Sequence:       seq,
	}
}

func TestBetterAncestorPackageOrdering(t *testing.T) {
	highRate := fakeDesc(1, 1000, 100)
	lowRate := fakeDesc(2, 100, 100)
	require.True(t, BetterAncestorPackage(highRate, lowRate, 0))
	require.False(t, BetterAncestorPackage(lowRate, highRate, 0))

	// Ties break by insertion sequence.
	tieA := fakeDesc(3, 500, 100)
	tieB := fakeDesc(4, 500, 100)
	require.True(t, BetterAncestorPackage(tieA, tieB, 0))
	require.False(t, BetterAncestorPackage(tieB, tieA, 0))
}

func TestBetterAncestorPackageGasPrice(t *testing.T) {
	plain := fakeDesc(1, 10, 100)

	cheapContract := fakeDesc(2, 100000, 100)
	cheapContract.HasCreateOrCall = true
	cheapContract.MinGasPrice = 10

	// An underpriced contract ranks below even a very low fee plain
	// transaction.
	require.True(t, BetterAncestorPackage(plain, cheapContract, 40))
	require.False(t, BetterAncestorPackage(cheapContract, plain, 40))

	// Among underpriced contracts the higher gas price ranks first.
	cheaperContract := fakeDesc(3, 100000, 100)
	cheaperContract.HasCreateOrCall = true
	cheaperContract.MinGasPrice = 5
	require.True(t,
		BetterAncestorPackage(cheapContract, cheaperContract, 40))

	// A contract at or above the minimum competes on fee rate alone.
	fairContract := fakeDesc(4, 100000, 100)
	fairContract.HasCreateOrCall = true
	fairContract.MinGasPrice = 40
	require.True(t, BetterAncestorPackage(fairContract, plain, 40))
}

func TestModTxSetBestAndUpdate(t *testing.T) {
	ms := newModTxSet(0)
	require.True(t, ms.empty())
	require.Nil(t, ms.best())

	parent := fakeDesc(1, 0, 100)
	child := fakeDesc(2, 1000, 100)
	child.AncestorSize = 200
	child.AncestorFees = 1000
	child.AncestorSigOps = 2
	child.AncestorCount = 2

	other := fakeDesc(3, 300, 100)
	other.AncestorSize = 200
	other.AncestorFees = 300
	other.AncestorSigOps = 2
	other.AncestorCount = 2

	// Simulate the parent entering the block: the child's modified
	// aggregates drop to its standalone values.
	ms.trackAncestorIncluded(child, parent)
	ms.trackAncestorIncluded(other, parent)
	require.True(t, ms.contains(child.Tx.Hash()))

	best := ms.best()
	require.Equal(t, child.Tx.Hash(), best.desc.Tx.Hash())
	require.Equal(t, int64(100), best.ancestorSize)
	require.Equal(t, int64(1000), best.ancestorFees)
	require.Equal(t, int64(1), best.ancestorCount)

	ms.remove(child.Tx.Hash())
	require.False(t, ms.contains(child.Tx.Hash()))
	require.Equal(t, other.Tx.Hash(), ms.best().desc.Tx.Hash())
}

func TestSortForBlock(t *testing.T) {
	a := fakeDesc(1, 1, 100)
	a.AncestorCount = 3
	b := fakeDesc(2, 1, 100)
	b.AncestorCount = 1
	c := fakeDesc(3, 1, 100)
	c.AncestorCount = 2

	entries := []*TxDesc{a, b, c}
	sortForBlock(entries)

	var counts []int64
	for _, e := range entries {
		counts = append(counts, e.AncestorCount)
	}
	require.Equal(t, []int64{1, 2, 3}, counts)
}
