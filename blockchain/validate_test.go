// Copyright (c) 2024 The qtumsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

// newCoinBaseTx returns a minimal coinbase transaction paying the provided
// amount to an anyone-can-spend script.
func newCoinBaseTx(value int64) *wire.MsgTx {
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: *wire.NewOutPoint(&chainhash.Hash{},
			wire.MaxPrevOutIndex),
		SignatureScript: []byte{0x51},
		Sequence:        wire.MaxTxInSequenceNum,
	})
	tx.AddTxOut(&wire.TxOut{Value: value, PkScript: []byte{0x51}})
	return tx
}

// newCoinStakeTx returns a minimal coinstake transaction: a real kernel
// input, an empty marker output, and a reward output.
func newCoinStakeTx(value int64) *wire.MsgTx {
	kernel := chainhash.HashH([]byte("kernel"))
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: *wire.NewOutPoint(&kernel, 0),
		Sequence:         wire.MaxTxInSequenceNum,
	})
	tx.AddTxOut(&wire.TxOut{Value: 0, PkScript: nil})
	tx.AddTxOut(&wire.TxOut{Value: value, PkScript: []byte{0x51}})
	return tx
}

func TestIsCoinBaseTx(t *testing.T) {
	require.True(t, IsCoinBaseTx(newCoinBaseTx(100)))
	require.False(t, IsCoinBaseTx(newCoinStakeTx(100)))
}

func TestIsCoinStakeTx(t *testing.T) {
	require.True(t, IsCoinStakeTx(newCoinStakeTx(100)))
	require.False(t, IsCoinStakeTx(newCoinBaseTx(100)))

	// A coinstake whose first output carries value is not a coinstake.
	bad := newCoinStakeTx(100)
	bad.TxOut[0].Value = 1
	require.False(t, IsCoinStakeTx(bad))
}

func TestIsProofOfStake(t *testing.T) {
	block := &wire.MsgBlock{}
	block.AddTransaction(newCoinBaseTx(0))
	require.False(t, IsProofOfStake(block))

	block.AddTransaction(newCoinStakeTx(100))
	require.True(t, IsProofOfStake(block))
}

func TestIsFinalizedTransaction(t *testing.T) {
	blockTime := time.Unix(1723000000, 0)
	const height = 300000

	tests := []struct {
		name     string
		lockTime uint32
		sequence uint32
		want     bool
	}{
		{"zero lock time", 0, 0, true},
		{"height lock in past", height - 1, 0, true},
		{"height lock at target", height, 0, false},
		{"height lock bypassed by sequence", height,
			wire.MaxTxInSequenceNum, true},
		{"time lock in past", uint32(blockTime.Unix() - 1), 0, true},
		{"time lock in future", uint32(blockTime.Unix() + 60), 0, false},
	}
	for _, test := range tests {
		tx := newCoinStakeTx(100)
		tx.LockTime = test.lockTime
		tx.TxIn[0].Sequence = test.sequence
		got := IsFinalizedTransaction(btcutil.NewTx(tx), height,
			blockTime)
		require.Equal(t, test.want, got, test.name)
	}
}

func TestTransactionWeight(t *testing.T) {
	tx := btcutil.NewTx(newCoinBaseTx(100))

	// Without witness data the weight is exactly four times the
	// serialized size.
	size := int64(tx.MsgTx().SerializeSize())
	require.Equal(t, size*WitnessScaleFactor, GetTransactionWeight(tx))
	require.Equal(t, size, GetTransactionVSize(tx))
}
