// Copyright (c) 2024 The qtumsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cpuminer

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"

	"github.com/qtumsuite/qtumd/chaincfg"
)

// MiningAddrSource defines an interface that provides mining payout
// addresses.  Implementations must be concurrency-safe.
type MiningAddrSource interface {
	// NextAddr returns the next payout address to use.
	NextAddr() btcutil.Address

	// NumAddrs returns the current number of available addresses.
	NumAddrs() int

	// ListEncodedAddrs returns string encodings of all active addresses.
	ListEncodedAddrs() []string

	// AddAddr adds a new address; returns error if duplicate.
	AddAddr(addr btcutil.Address) error

	// RemoveAddr removes an address; returns error if not found.
	RemoveAddr(addr btcutil.Address) error
}

// DefaultAddrSource is a concurrency-safe in-memory mining address store.
type DefaultAddrSource struct {
	mu    sync.RWMutex
	addrs []btcutil.Address
}

// NewDefaultAddrSource initializes a DefaultAddrSource with optional
// initial addresses.
func NewDefaultAddrSource(initial []btcutil.Address) *DefaultAddrSource {
	s := &DefaultAddrSource{addrs: make([]btcutil.Address, 0, len(initial))}
	for _, a := range initial {
		// Ignore duplicates from initial input.
		_ = s.AddAddr(a)
	}
	return s
}

// NextAddr returns a random payout address, or nil when none are known.
func (s *DefaultAddrSource) NextAddr() btcutil.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.addrs) == 0 {
		return nil
	}
	return s.addrs[rand.Intn(len(s.addrs))]
}

// NumAddrs returns the current number of available addresses.
func (s *DefaultAddrSource) NumAddrs() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.addrs)
}

// ListEncodedAddrs returns string encodings of all active addresses.
func (s *DefaultAddrSource) ListEncodedAddrs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.addrs))
	for i, a := range s.addrs {
		out[i] = a.EncodeAddress()
	}
	return out
}

// AddAddr adds a new address; returns error if duplicate.
func (s *DefaultAddrSource) AddAddr(addr btcutil.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.addrs {
		if a.EncodeAddress() == addr.EncodeAddress() {
			return fmt.Errorf("duplicate address detected")
		}
	}
	s.addrs = append(s.addrs, addr)
	return nil
}

// RemoveAddr removes an address; returns error if not found.
func (s *DefaultAddrSource) RemoveAddr(addr btcutil.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.addrs {
		if a.EncodeAddress() == addr.EncodeAddress() {
			copy(s.addrs[i:], s.addrs[i+1:])
			s.addrs[len(s.addrs)-1] = nil
			s.addrs = s.addrs[:len(s.addrs)-1]
			return nil
		}
	}
	return fmt.Errorf("mining address not found")
}

// DecodeMiningAddr decodes an address string against the chain's address
// encoding magic.
func DecodeMiningAddr(params *chaincfg.Params,
	encoded string) (btcutil.Address, error) {

	return btcutil.DecodeAddress(encoded, addrParams(params))
}

// GenerateEphemeralAddr returns a fresh pay-to-pubkey-hash address backed
// by a newly generated key.  It is used on networks that mine blocks on
// demand when the operator did not configure any payout address.  The key
// is not persisted, so the reward is unspendable; this is only suitable
// for testing.
func GenerateEphemeralAddr(params *chaincfg.Params) (btcutil.Address, error) {
	key, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, err
	}

	pubKeyHash := btcutil.Hash160(key.PubKey().SerializeCompressed())
	return btcutil.NewAddressPubKeyHash(pubKeyHash, addrParams(params))
}
