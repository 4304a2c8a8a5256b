// Copyright (c) 2024 The qtumsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"encoding/binary"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/qtumsuite/qtumd/chaincfg"
	"github.com/qtumsuite/qtumd/cscript"
)

// testPool returns a pool wired against fixed test callbacks.
func testPool() *TxPool {
	return New(&Config{
		ChainParams: &chaincfg.RegressionNetParams,
		BestHeight:  func() int32 { return 100 },
		MinGasPrice: func() uint64 { return 40 },
	})
}

// testCounter provides unique outpoints for otherwise identical test
// transactions.
var testCounter uint32

// spendableOutPoint returns a fresh fake confirmed outpoint.
func spendableOutPoint() wire.OutPoint {
	testCounter++
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], testCounter)
	hash := chainhash.HashH(buf[:])
	return *wire.NewOutPoint(&hash, 0)
}

// makeTx returns a transaction spending the given outpoints with the given
// number of anyone-can-spend outputs.
func makeTx(t *testing.T, inputs []wire.OutPoint, numOutputs int) *btcutil.Tx {
	tx := wire.NewMsgTx(wire.TxVersion)
	for _, op := range inputs {
		tx.AddTxIn(&wire.TxIn{
			PreviousOutPoint: op,
			Sequence:         wire.MaxTxInSequenceNum,
		})
	}
	for i := 0; i < numOutputs; i++ {
		tx.AddTxOut(&wire.TxOut{
			Value:    10000,
			PkScript: []byte{txscript.OP_TRUE},
		})
	}
	return btcutil.NewTx(tx)
}

// makeContractTx returns a transaction carrying a single OP_CREATE output
// with the given gas price.
func makeContractTx(t *testing.T, gasPrice int64) *btcutil.Tx {
	script, err := txscript.NewScriptBuilder().
		AddInt64(4).
		AddInt64(100000).
		AddInt64(gasPrice).
		AddData([]byte{0x60, 0x01}).
		AddOp(cscript.OpCreate).
		Script()
	require.NoError(t, err)

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: spendableOutPoint(),
		Sequence:         wire.MaxTxInSequenceNum,
	})
	tx.AddTxOut(&wire.TxOut{Value: 0, PkScript: script})
	return btcutil.NewTx(tx)
}

func TestAncestorAggregates(t *testing.T) {
	mp := testPool()

	parent := makeTx(t, []wire.OutPoint{spendableOutPoint()}, 2)
	parentDesc, err := mp.AddTransaction(parent, 1000)
	require.NoError(t, err)
	require.Equal(t, int64(1), parentDesc.AncestorCount)
	require.Equal(t, int64(1000), parentDesc.AncestorFees)

	childOut := *wire.NewOutPoint(parent.Hash(), 0)
	child := makeTx(t, []wire.OutPoint{childOut}, 1)
	childDesc, err := mp.AddTransaction(child, 500)
	require.NoError(t, err)

	require.Equal(t, int64(2), childDesc.AncestorCount)
	require.Equal(t, int64(1500), childDesc.AncestorFees)
	require.Equal(t, parentDesc.TxSize+childDesc.TxSize,
		childDesc.AncestorSize)

	// Grandchild aggregates span the whole chain.
	grandOut := *wire.NewOutPoint(child.Hash(), 0)
	grandchild := makeTx(t, []wire.OutPoint{grandOut}, 1)
	grandDesc, err := mp.AddTransaction(grandchild, 200)
	require.NoError(t, err)
	require.Equal(t, int64(3), grandDesc.AncestorCount)
	require.Equal(t, int64(1700), grandDesc.AncestorFees)

	// Ancestor/descendant queries exclude the entry itself.
	require.Len(t, mp.CalcAncestors(grandchild.Hash()), 2)
	require.Len(t, mp.CalcDescendants(parent.Hash()), 2)
	require.Empty(t, mp.CalcAncestors(parent.Hash()))
}

func TestRemoveTransactionUpdatesDescendants(t *testing.T) {
	mp := testPool()

	parent := makeTx(t, []wire.OutPoint{spendableOutPoint()}, 1)
	_, err := mp.AddTransaction(parent, 1000)
	require.NoError(t, err)

	childOut := *wire.NewOutPoint(parent.Hash(), 0)
	child := makeTx(t, []wire.OutPoint{childOut}, 1)
	childDesc, err := mp.AddTransaction(child, 500)
	require.NoError(t, err)

	// Removing the parent without redeemers leaves the child with
	// standalone aggregates, as if the parent confirmed.
	mp.RemoveTransaction(parent, false)
	require.False(t, mp.HaveTransaction(parent.Hash()))
	require.True(t, mp.HaveTransaction(child.Hash()))
	require.Equal(t, int64(1), childDesc.AncestorCount)
	require.Equal(t, int64(500), childDesc.AncestorFees)
	require.Equal(t, childDesc.TxSize, childDesc.AncestorSize)
}

func TestRemoveTransactionRedeemers(t *testing.T) {
	mp := testPool()

	parent := makeTx(t, []wire.OutPoint{spendableOutPoint()}, 1)
	_, err := mp.AddTransaction(parent, 1000)
	require.NoError(t, err)

	childOut := *wire.NewOutPoint(parent.Hash(), 0)
	child := makeTx(t, []wire.OutPoint{childOut}, 1)
	_, err = mp.AddTransaction(child, 500)
	require.NoError(t, err)

	mp.RemoveTransaction(parent, true)
	require.Zero(t, mp.Count())
}

func TestPrioritiseTransaction(t *testing.T) {
	mp := testPool()

	parent := makeTx(t, []wire.OutPoint{spendableOutPoint()}, 1)
	parentDesc, err := mp.AddTransaction(parent, 100)
	require.NoError(t, err)

	childOut := *wire.NewOutPoint(parent.Hash(), 0)
	child := makeTx(t, []wire.OutPoint{childOut}, 1)
	childDesc, err := mp.AddTransaction(child, 100)
	require.NoError(t, err)

	mp.PrioritiseTransaction(parent.Hash(), 900)
	require.Equal(t, int64(1000), parentDesc.ModifiedFee)
	require.Equal(t, int64(100), parentDesc.Fee)
	require.Equal(t, int64(1100), childDesc.AncestorFees)
}

func TestMiningDescsOrdering(t *testing.T) {
	mp := testPool()

	low := makeTx(t, []wire.OutPoint{spendableOutPoint()}, 1)
	_, err := mp.AddTransaction(low, 100)
	require.NoError(t, err)

	high := makeTx(t, []wire.OutPoint{spendableOutPoint()}, 1)
	_, err = mp.AddTransaction(high, 5000)
	require.NoError(t, err)

	// A contract transaction below the minimum gas price sorts after
	// everything, even with an enormous fee.
	cheapGas := makeContractTx(t, 10)
	_, err = mp.AddTransaction(cheapGas, 100000)
	require.NoError(t, err)

	// A contract transaction at the minimum gas price participates in
	// fee ordering normally.
	okGas := makeContractTx(t, 40)
	_, err = mp.AddTransaction(okGas, 2000)
	require.NoError(t, err)

	descs := mp.MiningDescs()
	require.Len(t, descs, 4)
	require.Equal(t, high.Hash(), descs[0].Tx.Hash())
	require.Equal(t, cheapGas.Hash(), descs[3].Tx.Hash())
}

func TestCheckSpend(t *testing.T) {
	mp := testPool()

	op := spendableOutPoint()
	tx := makeTx(t, []wire.OutPoint{op}, 1)
	_, err := mp.AddTransaction(tx, 100)
	require.NoError(t, err)

	spender := mp.CheckSpend(op)
	require.NotNil(t, spender)
	require.Equal(t, tx.Hash(), spender.Hash())

	require.Nil(t, mp.CheckSpend(spendableOutPoint()))
}
