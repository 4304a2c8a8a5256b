// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2024 The qtumsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

const (
	// WitnessScaleFactor determines the level of "discount" witness data
	// receives compared to "base" data.  A scale factor of 4 means a
	// witness byte costs one weight unit while a base byte costs four.
	WitnessScaleFactor = 4

	// MaxBlockBaseSize is the maximum number of bytes within a block
	// which can be allocated to non-witness data.
	MaxBlockBaseSize = 2000000

	// CoinbaseWitnessDataLen is the required length of the only element
	// within the coinbase's witness data if the coinbase transaction
	// contains a witness commitment.
	CoinbaseWitnessDataLen = 32
)

// GetTransactionWeight computes the value of the weight metric for a given
// transaction.  Currently the weight metric is simply the sum of the
// transaction's serialized size without any witness data scaled
// proportionally by the WitnessScaleFactor, and the transaction's serialized
// size including any witness data.
func GetTransactionWeight(tx *btcutil.Tx) int64 {
	msgTx := tx.MsgTx()

	baseSize := msgTx.SerializeSizeStripped()
	totalSize := msgTx.SerializeSize()

	// (baseSize * 3) + totalSize
	return int64((baseSize * (WitnessScaleFactor - 1)) + totalSize)
}

// GetBlockWeight computes the value of the weight metric for a given block.
func GetBlockWeight(blk *btcutil.Block) int64 {
	msgBlock := blk.MsgBlock()

	baseSize := msgBlock.SerializeSizeStripped()
	totalSize := msgBlock.SerializeSize()

	return int64((baseSize * (WitnessScaleFactor - 1)) + totalSize)
}

// GetTransactionVSize computes the virtual size of a given transaction.  A
// transaction's virtual size is based off its weight, creating a discount
// for any witness data it contains, proportional to the current
// WitnessScaleFactor value.
func GetTransactionVSize(tx *btcutil.Tx) int64 {
	txWeight := GetTransactionWeight(tx)

	// vSize := (weight(tx) + 3) / 4
	return (txWeight + (WitnessScaleFactor - 1)) / WitnessScaleFactor
}

// CountSigOps returns the number of signature operations for all transaction
// input and output scripts in the provided transaction.  This uses the
// quicker, but imprecise, signature operation counting mechanism from
// txscript.
func CountSigOps(tx *btcutil.Tx) int {
	msgTx := tx.MsgTx()

	// Accumulate the number of signature operations in all transaction
	// inputs.
	totalSigOps := 0
	for _, txIn := range msgTx.TxIn {
		numSigOps := txscript.GetSigOpCount(txIn.SignatureScript)
		totalSigOps += numSigOps
	}

	// Accumulate the number of signature operations in all transaction
	// outputs.
	for _, txOut := range msgTx.TxOut {
		numSigOps := txscript.GetSigOpCount(txOut.PkScript)
		totalSigOps += numSigOps
	}

	return totalSigOps
}

// CountBlockSigOps returns the number of legacy signature operations over
// every transaction in the provided block.
func CountBlockSigOps(msgBlock *wire.MsgBlock) int {
	totalSigOps := 0
	for _, msgTx := range msgBlock.Transactions {
		totalSigOps += CountSigOps(btcutil.NewTx(msgTx))
	}
	return totalSigOps
}
