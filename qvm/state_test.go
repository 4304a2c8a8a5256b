// Copyright (c) 2024 The qtumsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package qvm

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"
)

func TestStateDBCommitAndRewind(t *testing.T) {
	state, err := NewMemStateDB()
	require.NoError(t, err)
	defer state.Close()

	genesisRoot := state.Root()
	require.Equal(t, chainhash.Hash{}, genesisRoot)

	// First version.
	state.Put([]byte("alpha"), []byte("1"))
	rootA, err := state.Commit()
	require.NoError(t, err)
	require.NotEqual(t, genesisRoot, rootA)

	// Second version overwrites alpha and adds beta.
	state.Put([]byte("alpha"), []byte("2"))
	state.Put([]byte("beta"), []byte("3"))
	rootB, err := state.Commit()
	require.NoError(t, err)
	require.NotEqual(t, rootA, rootB)

	v, err := state.Get([]byte("alpha"))
	require.NoError(t, err)
	require.Equal(t, []byte("2"), v)

	// Rewinding to the first version restores alpha and removes beta.
	require.NoError(t, state.SetRoot(rootA))
	require.Equal(t, rootA, state.Root())

	v, err = state.Get([]byte("alpha"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), v)

	v, err = state.Get([]byte("beta"))
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestStateDBRewindToGenesis(t *testing.T) {
	state, err := NewMemStateDB()
	require.NoError(t, err)
	defer state.Close()

	state.Put([]byte("k"), []byte("v"))
	_, err = state.Commit()
	require.NoError(t, err)

	require.NoError(t, state.SetRoot(chainhash.Hash{}))

	v, err := state.Get([]byte("k"))
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestStateDBUnknownRoot(t *testing.T) {
	state, err := NewMemStateDB()
	require.NoError(t, err)
	defer state.Close()

	bogus := chainhash.HashH([]byte("nope"))
	require.ErrorIs(t, state.SetRoot(bogus), ErrUnknownRoot)
}

func TestSnapshotRestore(t *testing.T) {
	state, err := NewMemStateDB()
	require.NoError(t, err)
	defer state.Close()

	state.Put([]byte("a"), []byte("1"))
	_, err = state.Commit()
	require.NoError(t, err)

	snap := TakeSnapshot(state)

	state.Put([]byte("a"), []byte("2"))
	state.PutUTXO([]byte("u"), []byte("x"))
	_, err = state.Commit()
	require.NoError(t, err)
	require.NotEqual(t, snap.Root, state.Root())
	require.NotEqual(t, snap.UTXORoot, state.UTXORoot())

	require.NoError(t, snap.Restore(state))
	require.Equal(t, snap.Root, state.Root())
	require.Equal(t, snap.UTXORoot, state.UTXORoot())

	v, err := state.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), v)
}

func TestStateDBDiscardsDirtyOnRewind(t *testing.T) {
	state, err := NewMemStateDB()
	require.NoError(t, err)
	defer state.Close()

	state.Put([]byte("a"), []byte("1"))
	rootA, err := state.Commit()
	require.NoError(t, err)

	// Staged but uncommitted writes are dropped by SetRoot.
	state.Put([]byte("a"), []byte("override"))
	require.NoError(t, state.SetRoot(rootA))

	v, err := state.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), v)
}
