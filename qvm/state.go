// Copyright (c) 2024 The qtumsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package qvm

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// GlobalState exposes the roots of the contract state and the contract UTXO
// state.  The block producer snapshots both roots before a speculative
// execution and restores them when the attempt is rejected.
type GlobalState interface {
	// Root returns the current contract state root.
	Root() chainhash.Hash

	// UTXORoot returns the current contract UTXO state root.
	UTXORoot() chainhash.Hash

	// SetRoot rewinds or forwards the contract state to the given root.
	SetRoot(root chainhash.Hash) error

	// SetUTXORoot rewinds or forwards the contract UTXO state to the
	// given root.
	SetUTXORoot(root chainhash.Hash) error
}

// Snapshot captures both state roots so they can be restored as a unit.
type Snapshot struct {
	Root     chainhash.Hash
	UTXORoot chainhash.Hash
}

// TakeSnapshot captures the current roots of the provided state.
func TakeSnapshot(state GlobalState) Snapshot {
	return Snapshot{
		Root:     state.Root(),
		UTXORoot: state.UTXORoot(),
	}
}

// Restore rewinds the provided state back to the captured roots.
func (s Snapshot) Restore(state GlobalState) error {
	if err := state.SetRoot(s.Root); err != nil {
		return err
	}
	return state.SetUTXORoot(s.UTXORoot)
}

// ErrUnknownRoot is returned when a root has no retained journal and the
// state therefore cannot be moved to it.
var ErrUnknownRoot = errors.New("unknown state root")

// Key prefixes within the backing database.  Live values sit under the data
// prefix; for every committed version the journal prefix, keyed by the root
// it produced, records the root it was built on.  The undo records
// themselves are held in memory.
var (
	dataPrefix    = []byte("d/")
	utxoPrefix    = []byte("u/")
	journalPrefix = []byte("j/")
)

// journalEntry records the previous value of one key so a commit can be
// undone.  existed distinguishes deletion from an empty value.
type journalEntry struct {
	key     []byte
	prev    []byte
	existed bool
}

// StateDB is a goleveldb-backed implementation of GlobalState holding both
// the contract state and the contract UTXO state.  Each Commit hashes the
// pending writes into a fresh root and retains an undo journal, so SetRoot
// can rewind along the chain of committed versions.  It is not a trie: root
// identity is journal-chained rather than content-addressed, which is
// sufficient for the producer's snapshot/rollback protocol.
type StateDB struct {
	mtx sync.Mutex

	db *leveldb.DB

	root     chainhash.Hash
	utxoRoot chainhash.Hash

	// parent maps each committed root to its predecessor so rollback can
	// walk the version chain in memory.
	parent     map[chainhash.Hash]chainhash.Hash
	utxoParent map[chainhash.Hash]chainhash.Hash

	// journals holds the undo records for each committed root.
	journals map[chainhash.Hash][]journalEntry

	dirty     map[string][]byte
	utxoDirty map[string][]byte
}

// Ensure StateDB implements the GlobalState interface.
var _ GlobalState = (*StateDB)(nil)

// NewMemStateDB returns a StateDB backed by an in-memory goleveldb store.
func NewMemStateDB() (*StateDB, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return newStateDB(db), nil
}

// OpenStateDB returns a StateDB backed by a goleveldb store at the given
// path, creating it when missing.
func OpenStateDB(dbPath string) (*StateDB, error) {
	db, err := leveldb.OpenFile(dbPath, nil)
	if err != nil {
		return nil, err
	}
	return newStateDB(db), nil
}

func newStateDB(db *leveldb.DB) *StateDB {
	return &StateDB{
		db:         db,
		parent:     make(map[chainhash.Hash]chainhash.Hash),
		utxoParent: make(map[chainhash.Hash]chainhash.Hash),
		journals:   make(map[chainhash.Hash][]journalEntry),
		dirty:      make(map[string][]byte),
		utxoDirty:  make(map[string][]byte),
	}
}

// Close releases the backing database.
func (s *StateDB) Close() error {
	return s.db.Close()
}

// Root returns the current contract state root.
func (s *StateDB) Root() chainhash.Hash {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.root
}

// UTXORoot returns the current contract UTXO state root.
func (s *StateDB) UTXORoot() chainhash.Hash {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.utxoRoot
}

// Put stages a write to the contract state.  The write only becomes part of
// a root once Commit is called.
func (s *StateDB) Put(key, value []byte) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.dirty[string(key)] = append([]byte(nil), value...)
}

// PutUTXO stages a write to the contract UTXO state.
func (s *StateDB) PutUTXO(key, value []byte) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.utxoDirty[string(key)] = append([]byte(nil), value...)
}

// Get reads a key from the contract state, honoring staged writes.
func (s *StateDB) Get(key []byte) ([]byte, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if v, ok := s.dirty[string(key)]; ok {
		return append([]byte(nil), v...), nil
	}
	v, err := s.db.Get(dataKey(key), nil)
	if err == leveldb.ErrNotFound {
		return nil, nil
	}
	return v, err
}

// Commit hashes the staged contract-state writes into a fresh root,
// persists them, and retains an undo journal keyed by the new root.  When
// nothing is staged the root is unchanged.
func (s *StateDB) Commit() (chainhash.Hash, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if len(s.dirty) == 0 && len(s.utxoDirty) == 0 {
		return s.root, nil
	}

	if len(s.dirty) > 0 {
		newRoot := chainVersionHash(s.root, s.dirty)
		err := s.applyDirty(newRoot, s.root, s.dirty, dataPrefix)
		if err != nil {
			return chainhash.Hash{}, err
		}
		s.parent[newRoot] = s.root
		s.root = newRoot
		s.dirty = make(map[string][]byte)
	}

	if len(s.utxoDirty) > 0 {
		newRoot := chainVersionHash(s.utxoRoot, s.utxoDirty)
		err := s.applyDirty(newRoot, s.utxoRoot, s.utxoDirty, utxoPrefix)
		if err != nil {
			return chainhash.Hash{}, err
		}
		s.utxoParent[newRoot] = s.utxoRoot
		s.utxoRoot = newRoot
		s.utxoDirty = make(map[string][]byte)
	}

	return s.root, nil
}

// applyDirty persists the staged writes under the given keyspace prefix and
// records the undo journal for the root they produce.  Journal entries hold
// fully-prefixed keys so rewind can replay them without knowing which
// keyspace they belong to.
func (s *StateDB) applyDirty(newRoot, prevRoot chainhash.Hash,
	dirty map[string][]byte, prefix []byte) error {

	journal := make([]journalEntry, 0, len(dirty))
	batch := new(leveldb.Batch)
	for k, v := range dirty {
		key := append(append([]byte(nil), prefix...), k...)
		prev, err := s.db.Get(key, nil)
		existed := err == nil
		if err != nil && err != leveldb.ErrNotFound {
			return err
		}
		journal = append(journal, journalEntry{
			key:     key,
			prev:    prev,
			existed: existed,
		})
		batch.Put(key, v)
	}
	batch.Put(journalKey(newRoot), prevRoot[:])
	if err := s.db.Write(batch, nil); err != nil {
		return err
	}

	s.journals[newRoot] = journal
	return nil
}

// SetRoot rewinds the contract state to the given root by undoing committed
// versions newest-first.  Only roots on the current version chain can be
// restored; forwarding past the current root is not supported.
func (s *StateDB) SetRoot(root chainhash.Hash) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	newRoot, err := s.rewind(root, s.root, s.parent)
	if err != nil {
		return err
	}
	s.root = newRoot
	s.dirty = make(map[string][]byte)
	return nil
}

// SetUTXORoot rewinds the contract UTXO state to the given root.
func (s *StateDB) SetUTXORoot(root chainhash.Hash) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	newRoot, err := s.rewind(root, s.utxoRoot, s.utxoParent)
	if err != nil {
		return err
	}
	s.utxoRoot = newRoot
	s.utxoDirty = make(map[string][]byte)
	return nil
}

// rewind undoes journals from the current root back to the target root and
// returns the target.
func (s *StateDB) rewind(target, current chainhash.Hash,
	parents map[chainhash.Hash]chainhash.Hash) (chainhash.Hash, error) {

	for current != target {
		journal, ok := s.journals[current]
		if !ok {
			return chainhash.Hash{}, fmt.Errorf("%w: %v",
				ErrUnknownRoot, target)
		}

		batch := new(leveldb.Batch)
		for _, entry := range journal {
			if entry.existed {
				batch.Put(entry.key, entry.prev)
			} else {
				batch.Delete(entry.key)
			}
		}
		batch.Delete(journalKey(current))
		if err := s.db.Write(batch, nil); err != nil {
			return chainhash.Hash{}, err
		}

		delete(s.journals, current)
		prev := parents[current]
		delete(parents, current)
		current = prev
	}

	log.Tracef("State rewound to root %v", target)
	return target, nil
}

// ForEach iterates the live contract state in key order.
func (s *StateDB) ForEach(fn func(key, value []byte) error) error {
	iter := s.db.NewIterator(util.BytesPrefix(dataPrefix), nil)
	defer iter.Release()

	for iter.Next() {
		key := iter.Key()[len(dataPrefix):]
		if err := fn(key, iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

// dataKey maps a state key into the live-data keyspace.
func dataKey(key []byte) []byte {
	return append(append([]byte(nil), dataPrefix...), key...)
}

// journalKey maps a root into the journal keyspace.
func journalKey(root chainhash.Hash) []byte {
	return append(append([]byte(nil), journalPrefix...), root[:]...)
}

// chainVersionHash derives the root produced by applying the staged writes
// on top of the previous root.  Keys are folded in sorted order so the hash
// is deterministic.
func chainVersionHash(prev chainhash.Hash, dirty map[string][]byte) chainhash.Hash {
	keys := make([]string, 0, len(dirty))
	for k := range dirty {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf := make([]byte, 0, chainhash.HashSize*2)
	buf = append(buf, prev[:]...)
	for _, k := range keys {
		kv := chainhash.DoubleHashB(append([]byte(k), dirty[k]...))
		buf = append(buf, kv...)
	}
	return chainhash.DoubleHashH(buf)
}
