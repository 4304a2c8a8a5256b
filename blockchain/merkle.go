// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2024 The qtumsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"bytes"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// WitnessMagicBytes is the prefix marker within the public key script of a
// coinbase output to indicate that this output holds the witness commitment
// for a block.
var WitnessMagicBytes = []byte{
	txscriptOpReturn,
	0x24,
	0xaa,
	0x21,
	0xa9,
	0xed,
}

// txscriptOpReturn is the OP_RETURN opcode byte.  Defined locally to keep
// the commitment marker self-contained.
const txscriptOpReturn = 0x6a

// HashMerkleBranches takes two hashes, treated as the left and right tree
// nodes, and returns the hash of their concatenation.  This is a helper
// function used to aid in the generation of a merkle tree.
func HashMerkleBranches(left, right *chainhash.Hash) chainhash.Hash {
	// Concatenate the left and right nodes.
	var hash [chainhash.HashSize * 2]byte
	copy(hash[:chainhash.HashSize], left[:])
	copy(hash[chainhash.HashSize:], right[:])

	return chainhash.DoubleHashH(hash[:])
}

// CalcMerkleRoot computes the merkle root over a set of hashed transactions.
// The witness flag indicates whether or not the transactions should be hashed
// including their witness data.  When the witness flag is set, the first
// transaction (the coinbase) is replaced by the zero hash per the witness
// merkle tree rules.
func CalcMerkleRoot(transactions []*btcutil.Tx, witness bool) chainhash.Hash {
	if len(transactions) == 0 {
		return chainhash.Hash{}
	}

	hashes := make([]chainhash.Hash, 0, len(transactions))
	for i, tx := range transactions {
		switch {
		case witness && i == 0:
			hashes = append(hashes, chainhash.Hash{})
		case witness:
			hashes = append(hashes, *tx.WitnessHash())
		default:
			hashes = append(hashes, *tx.Hash())
		}
	}

	// Reduce the slice level by level until a single root remains.  An
	// odd number of nodes at any level pairs the final node with itself.
	for len(hashes) > 1 {
		if len(hashes)%2 != 0 {
			hashes = append(hashes, hashes[len(hashes)-1])
		}
		next := make([]chainhash.Hash, 0, len(hashes)/2)
		for i := 0; i < len(hashes); i += 2 {
			next = append(next,
				HashMerkleBranches(&hashes[i], &hashes[i+1]))
		}
		hashes = next
	}

	return hashes[0]
}

// AddWitnessCommitment adds the witness commitment as an OP_RETURN output
// within the coinbase transaction.  It also sets the coinbase witness to the
// solution-independent nonce required by the commitment.  The encoded
// commitment is returned.
func AddWitnessCommitment(coinbaseTx *btcutil.Tx,
	blockTxns []*btcutil.Tx) []byte {

	// The witness of the coinbase transaction MUST be exactly 32-bytes
	// of all zeroes.
	var witnessNonce [CoinbaseWitnessDataLen]byte
	coinbaseTx.MsgTx().TxIn[0].Witness = wire.TxWitness{witnessNonce[:]}

	// Next, obtain the merkle root of a tree which consists of the
	// wtxid of all transactions in the block. The coinbase transaction
	// will have a special wtxid of all zeroes.
	witnessMerkleRoot := CalcMerkleRoot(blockTxns, true)

	// The preimage to the witness commitment is:
	// witnessRoot || coinbaseWitness
	var witnessPreimage [chainhash.HashSize * 2]byte
	copy(witnessPreimage[:chainhash.HashSize], witnessMerkleRoot[:])
	copy(witnessPreimage[chainhash.HashSize:], witnessNonce[:])

	// The witness commitment itself is the double-sha256 of the
	// witness preimage generated above. With the commitment generated,
	// the witness script for the output is: OP_RETURN OP_DATA_36
	// {0xaa21a9ed || witnessCommitment}.
	witnessCommitment := chainhash.DoubleHashB(witnessPreimage[:])
	witnessScript := append(WitnessMagicBytes, witnessCommitment...)

	commitmentOutput := &wire.TxOut{
		Value:    0,
		PkScript: witnessScript,
	}
	coinbaseTx.MsgTx().TxOut = append(coinbaseTx.MsgTx().TxOut,
		commitmentOutput)

	return witnessCommitment
}

// WitnessCommitmentIndex returns the index of the output within the provided
// coinbase transaction that holds the witness commitment, or -1 if no such
// output exists.  When multiple outputs match, the one with the highest
// index is authoritative.
func WitnessCommitmentIndex(coinbaseTx *btcutil.Tx) int {
	commitIndex := -1
	for i, txOut := range coinbaseTx.MsgTx().TxOut {
		if len(txOut.PkScript) >= len(WitnessMagicBytes) &&
			bytes.HasPrefix(txOut.PkScript, WitnessMagicBytes) {

			commitIndex = i
		}
	}
	return commitIndex
}
