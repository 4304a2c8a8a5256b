// Copyright (c) 2024 The qtumsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package dgp exposes the consensus resource limits governed by the
// decentralized governance protocol.  The limits are consulted every time a
// block template is assembled since contract execution can move them
// between blocks.
package dgp

const (
	// DefaultMaxBlockWeight is the consensus ceiling on block weight when
	// governance has not overridden it.
	DefaultMaxBlockWeight = 8000000

	// DefaultMaxBlockSigOps is the consensus ceiling on the legacy
	// signature operation count, after scaling by the witness scale
	// factor.
	DefaultMaxBlockSigOps = 80000

	// DefaultBlockGasLimit is the consensus ceiling on the gas consumed
	// by all contract executions within one block.
	DefaultBlockGasLimit = 40000000

	// DefaultMinGasPrice is the minimum gas price, in satoshi per gas
	// unit, a contract transaction must offer to be mined.
	DefaultMinGasPrice = 40

	// DefaultTxGasLimit is the default per-transaction gas ceiling
	// enforced by block producers.
	DefaultTxGasLimit = DefaultBlockGasLimit / 2
)

// Limits provides the governed resource limits at a given block height.
// Implementations backed by contract storage return the values most recently
// voted in; the zero-dependency implementation returns the defaults.
type Limits interface {
	// MaxBlockWeight returns the consensus maximum block weight for a
	// block at the given height.
	MaxBlockWeight(height int32) uint64

	// MaxBlockSigOps returns the consensus maximum scaled signature
	// operation cost for a block at the given height.
	MaxBlockSigOps(height int32) int64

	// BlockGasLimit returns the hard per-block gas limit for a block at
	// the given height.  This value is consensus critical.
	BlockGasLimit(height int32) uint64

	// MinGasPrice returns the minimum gas price for contract
	// transactions in a block at the given height.
	MinGasPrice(height int32) uint64
}

// StaticLimits is a Limits implementation that always returns the same
// values regardless of height.
type StaticLimits struct {
	BlockWeight uint64
	BlockSigOps int64
	GasLimit    uint64
	GasPrice    uint64
}

// Ensure StaticLimits implements the Limits interface.
var _ Limits = (*StaticLimits)(nil)

// MaxBlockWeight returns the configured maximum block weight.
func (l *StaticLimits) MaxBlockWeight(height int32) uint64 {
	return l.BlockWeight
}

// MaxBlockSigOps returns the configured maximum signature operation cost.
func (l *StaticLimits) MaxBlockSigOps(height int32) int64 {
	return l.BlockSigOps
}

// BlockGasLimit returns the configured hard block gas limit.
func (l *StaticLimits) BlockGasLimit(height int32) uint64 {
	return l.GasLimit
}

// MinGasPrice returns the configured minimum gas price.
func (l *StaticLimits) MinGasPrice(height int32) uint64 {
	return l.GasPrice
}

// NewDefaultLimits returns a StaticLimits populated with the protocol
// default values.
func NewDefaultLimits() *StaticLimits {
	return &StaticLimits{
		BlockWeight: DefaultMaxBlockWeight,
		BlockSigOps: DefaultMaxBlockSigOps,
		GasLimit:    DefaultBlockGasLimit,
		GasPrice:    DefaultMinGasPrice,
	}
}
