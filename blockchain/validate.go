// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2024 The qtumsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

const (
	// LockTimeThreshold is the number below which a lock time is
	// interpreted to be a block number.  Since an average of one block
	// is generated per 10 minutes, this allows blocks for about 9,512
	// years.
	LockTimeThreshold = 5e8 // Tue Nov 5 00:53:20 1985 UTC

	// MinCoinbaseScriptLen is the minimum length a coinbase script can
	// be.
	MinCoinbaseScriptLen = 2

	// MaxCoinbaseScriptLen is the maximum length a coinbase script can
	// be.
	MaxCoinbaseScriptLen = 100
)

// zeroHash is the zero value for a chainhash.Hash and is defined as
// a package level variable to avoid the need to create a new instance
// every time a check is needed.
var zeroHash chainhash.Hash

// IsCoinBaseTx determines whether or not a transaction is a coinbase.  A
// coinbase is a special transaction created by miners that has no inputs.
// This is represented in the block chain by a transaction with a single
// input that has a previous output transaction index set to the maximum
// value along with a zero hash.
func IsCoinBaseTx(msgTx *wire.MsgTx) bool {
	// A coin base must only have one transaction input.
	if len(msgTx.TxIn) != 1 {
		return false
	}

	// The previous output of a coin base must have a max value index and
	// a zero hash.
	prevOut := &msgTx.TxIn[0].PreviousOutPoint
	if prevOut.Index != wire.MaxPrevOutIndex || prevOut.Hash != zeroHash {
		return false
	}

	return true
}

// IsCoinStakeTx determines whether or not a transaction is a coinstake.  A
// coinstake is the stake-proving transaction of a proof of stake block: it
// spends at least one real outpoint and its first output is empty, with the
// reward paid from the second output on.
func IsCoinStakeTx(msgTx *wire.MsgTx) bool {
	if len(msgTx.TxIn) == 0 || len(msgTx.TxOut) < 2 {
		return false
	}

	// The kernel input must reference a real outpoint.
	prevOut := &msgTx.TxIn[0].PreviousOutPoint
	if prevOut.Hash == zeroHash {
		return false
	}

	// The first output is the empty marker output.
	firstOut := msgTx.TxOut[0]
	return firstOut.Value == 0 && len(firstOut.PkScript) == 0
}

// IsProofOfStake determines whether or not a block is a proof of stake
// block.  Such a block carries a coinstake transaction in slot 1 directly
// after the coinbase.
func IsProofOfStake(msgBlock *wire.MsgBlock) bool {
	return len(msgBlock.Transactions) > 1 &&
		IsCoinStakeTx(msgBlock.Transactions[1])
}

// IsFinalizedTransaction determines whether or not a transaction is
// finalized.
func IsFinalizedTransaction(tx *btcutil.Tx, blockHeight int32,
	blockTime time.Time) bool {

	msgTx := tx.MsgTx()

	// Lock time of zero means the transaction is finalized.
	lockTime := msgTx.LockTime
	if lockTime == 0 {
		return true
	}

	// The lock time field of a transaction is either a block height at
	// which the transaction is finalized or a timestamp depending on if
	// the value is before the LockTimeThreshold.  When it is under the
	// threshold it is a block height.
	var blockTimeOrHeight int64
	if lockTime < LockTimeThreshold {
		blockTimeOrHeight = int64(blockHeight)
	} else {
		blockTimeOrHeight = blockTime.Unix()
	}
	if int64(lockTime) < blockTimeOrHeight {
		return true
	}

	// At this point, the transaction's lock time hasn't occurred yet, but
	// the transaction might still be finalized if the sequence number
	// for all transaction inputs is maxed out.
	for _, txIn := range msgTx.TxIn {
		if txIn.Sequence != wire.MaxTxInSequenceNum {
			return false
		}
	}
	return true
}
