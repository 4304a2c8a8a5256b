// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2024 The qtumsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"math/big"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// bigOne is 1 represented as a big.Int.  It is defined here to avoid
// the overhead of creating it multiple times.
var bigOne = big.NewInt(1)

var (
	// mainPowLimit is the highest proof of work value a block can have
	// for the main network.
	mainPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 236), bigOne)

	// regressionPowLimit is the highest proof of work value a block can
	// have for the regression test network.
	regressionPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)
)

// Params defines a network by its parameters.  These parameters may be used by
// applications to differentiate networks as well as addresses and keys for one
// network from those intended for use on another network.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// Net defines the magic bytes used to identify the network.
	Net wire.BitcoinNet

	// GenesisHash is the starting block hash.
	GenesisHash *chainhash.Hash

	// PowLimit defines the highest allowed proof of work value for a
	// block as a uint256.
	PowLimit *big.Int

	// PowLimitBits defines the highest allowed proof of work value for a
	// block in compact form.
	PowLimitBits uint32

	// PosLimit defines the highest allowed proof of stake target for a
	// coinstake kernel as a uint256.
	PosLimit *big.Int

	// PowAllowMinDifficultyBlocks defines whether the network should allow
	// minimum difficulty blocks.  They can occur when a block interval
	// elapses without having any transactions mined into a block.
	PowAllowMinDifficultyBlocks bool

	// SignetBlocks defines whether the network requires blocks to be
	// signed by an authorized signer.  Staking is disabled on such
	// networks since block production is permissioned.
	SignetBlocks bool

	// LastPoWHeight is the height of the last block that may be produced
	// by pure proof of work.  Blocks past this height must carry a
	// coinstake.
	LastPoWHeight int32

	// ReduceBlocktimeHeight is the height at which the network switches
	// to the reduced block spacing schedule.  Timing constants derived
	// from the target spacing are downscaled from this height on.
	ReduceBlocktimeHeight int32

	// TargetSpacingBase is the target delay between blocks before the
	// reduced-blocktime fork activates.
	TargetSpacingBase time.Duration

	// TimestampDownscale divides timing constants once the reduced
	// blocktime schedule is active.
	TimestampDownscale uint32

	// SubsidyReductionInterval is the interval of blocks before the
	// subsidy is halved.
	SubsidyReductionInterval int32

	// SubsidyHalvingMax caps the number of halvings; once reached the
	// subsidy drops to zero.
	SubsidyHalvingMax int32

	// BaseSubsidy is the starting block subsidy in satoshi.
	BaseSubsidy int64

	// CoinbaseMaturity is the number of blocks required before newly
	// mined coins can be spent.
	CoinbaseMaturity uint16

	// MineBlocksOnDemand defines whether the network supports mining
	// blocks on demand instead of adhering to a difficulty schedule.
	// This is typically only true for the regression test network.
	MineBlocksOnDemand bool

	// PubKeyHashAddrID is the first byte of a pay-to-pubkey-hash
	// address.
	PubKeyHashAddrID byte

	// ScriptHashAddrID is the first byte of a pay-to-script-hash
	// address.
	ScriptHashAddrID byte

	// Bech32HRPSegwit is the human-readable part for bech32 encoded
	// segwit addresses.
	Bech32HRPSegwit string
}

// TargetSpacing returns the target delay in seconds between blocks at the
// given height.  The reduced-blocktime fork divides the base spacing by the
// timestamp downscale factor.
func (p *Params) TargetSpacing(height int32) int64 {
	spacing := int64(p.TargetSpacingBase / time.Second)
	if height >= p.ReduceBlocktimeHeight {
		return spacing / int64(p.TimestampDownscale)
	}
	return spacing
}

// TimestampDownscaleFactor returns the factor by which height-dependent
// timing constants are divided at the given height.  It is 1 before the
// reduced-blocktime fork.
func (p *Params) TimestampDownscaleFactor(height int32) uint32 {
	if height >= p.ReduceBlocktimeHeight {
		return p.TimestampDownscale
	}
	return 1
}

// IsPoSHeight returns whether blocks at the given height must be produced by
// proof of stake.
func (p *Params) IsPoSHeight(height int32) bool {
	return height > p.LastPoWHeight
}

// CalcBlockSubsidy returns the subsidy amount a block at the provided height
// should have.  This is mainly used for determining how much the coinbase,
// or coinstake for proof of stake blocks, can claim in addition to fees.
//
// The subsidy is halved every SubsidyReductionInterval blocks and drops to
// zero once the maximum number of halvings has occurred.
func (p *Params) CalcBlockSubsidy(height int32) int64 {
	if p.SubsidyReductionInterval == 0 {
		return p.BaseSubsidy
	}

	halvings := height / p.SubsidyReductionInterval
	if halvings >= p.SubsidyHalvingMax {
		return 0
	}

	// Equivalent to: baseSubsidy / 2^halvings
	return p.BaseSubsidy >> uint(halvings)
}

// MainNetParams defines the network parameters for the main network.
var MainNetParams = Params{
	Name: "mainnet",
	Net:  0xf1cfa6d3,

	PowLimit:                    mainPowLimit,
	PowLimitBits:                0x1d00ffff,
	PosLimit:                    new(big.Int).Sub(new(big.Int).Lsh(bigOne, 224), bigOne),
	PowAllowMinDifficultyBlocks: false,
	SignetBlocks:                false,
	LastPoWHeight:               5000,
	ReduceBlocktimeHeight:       845000,
	TargetSpacingBase:           128 * time.Second,
	TimestampDownscale:          4,
	SubsidyReductionInterval:    985500,
	SubsidyHalvingMax:           7,
	BaseSubsidy:                 400000000, // 4 coins
	CoinbaseMaturity:            500,
	MineBlocksOnDemand:          false,

	PubKeyHashAddrID: 0x3a, // starts with Q
	ScriptHashAddrID: 0x32, // starts with M
	Bech32HRPSegwit:  "qc",
}

// TestNetParams defines the network parameters for the test network.
var TestNetParams = Params{
	Name: "testnet",
	Net:  0x0d221506,

	PowLimit:                    mainPowLimit,
	PowLimitBits:                0x1d00ffff,
	PosLimit:                    new(big.Int).Sub(new(big.Int).Lsh(bigOne, 224), bigOne),
	PowAllowMinDifficultyBlocks: true,
	SignetBlocks:                false,
	LastPoWHeight:               5000,
	ReduceBlocktimeHeight:       806600,
	TargetSpacingBase:           128 * time.Second,
	TimestampDownscale:          4,
	SubsidyReductionInterval:    985500,
	SubsidyHalvingMax:           7,
	BaseSubsidy:                 400000000,
	CoinbaseMaturity:            500,
	MineBlocksOnDemand:          false,

	PubKeyHashAddrID: 0x78, // starts with q
	ScriptHashAddrID: 0x6e, // starts with m
	Bech32HRPSegwit:  "tq",
}

// RegressionNetParams defines the network parameters for the regression test
// network.  Not to be confused with the test network, this network is
// sometimes simply called "testnet".
var RegressionNetParams = Params{
	Name: "regtest",
	Net:  0xe2dbfcaa,

	PowLimit:                    regressionPowLimit,
	PowLimitBits:                0x207fffff,
	PosLimit:                    regressionPowLimit,
	PowAllowMinDifficultyBlocks: true,
	SignetBlocks:                false,
	LastPoWHeight:               0x7fffffff,
	ReduceBlocktimeHeight:       0,
	TargetSpacingBase:           128 * time.Second,
	TimestampDownscale:          4,
	SubsidyReductionInterval:    150,
	SubsidyHalvingMax:           7,
	BaseSubsidy:                 400000000,
	CoinbaseMaturity:            100,
	MineBlocksOnDemand:          true,

	PubKeyHashAddrID: 0x78, // starts with q
	ScriptHashAddrID: 0x6e, // starts with m
	Bech32HRPSegwit:  "qcrt",
}
