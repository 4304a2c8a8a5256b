// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2024 The qtumsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// qtumminer is a standalone block producer harness.  It assembles block
// templates from an in-process transaction pool, solves them with the CPU
// miner, and advances a local tip as blocks are accepted.  It is intended
// for regression test networks and template development, not for mining
// against a live network.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"

	"github.com/qtumsuite/qtumd/blockchain"
	"github.com/qtumsuite/qtumd/chaincfg"
	"github.com/qtumsuite/qtumd/dgp"
	"github.com/qtumsuite/qtumd/mempool"
	"github.com/qtumsuite/qtumd/mining"
	"github.com/qtumsuite/qtumd/mining/cpuminer"
	"github.com/qtumsuite/qtumd/qvm"
)

// nopExecutor charges the advertised gas without performing state
// transitions.  The harness carries no virtual machine, so contract
// transactions are selected and budgeted but their executions have no
// observable effects.
type nopExecutor struct{}

// Execute implements the qvm.Executor interface.
func (nopExecutor) Execute(header *wire.BlockHeader, txns []*qvm.Transaction,
	hardGasLimit uint64) (*qvm.ExecResult, error) {

	result := &qvm.ExecResult{}
	for _, vmTx := range txns {
		result.UsedGas += vmTx.Gas
	}
	return result, nil
}

// localChain tracks the tip the miner builds on.  Accepted blocks advance
// it; there is no reorg handling since the harness is its own only block
// source.
type localChain struct {
	mtx    sync.RWMutex
	params *chaincfg.Params
	tip    mining.BestState
}

func newLocalChain(params *chaincfg.Params) *localChain {
	return &localChain{
		params: params,
		tip: mining.BestState{
			MedianTime: time.Now().Add(-time.Minute),
		},
	}
}

// bestSnapshot returns a copy of the current tip state.
func (c *localChain) bestSnapshot() *mining.BestState {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	tip := c.tip
	return &tip
}

// connectBlock advances the tip to the given accepted block.
func (c *localChain) connectBlock(block *btcutil.Block) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	c.tip = mining.BestState{
		Hash:       *block.Hash(),
		Height:     c.tip.Height + 1,
		MedianTime: block.MsgBlock().Header.Timestamp,
	}
}

func realMain() error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	params := cfg.activeParams()

	initLogRotator(cfg.logFile())
	defer logRotator.Close()
	setLogLevels(cfg.DebugLevel)

	mainLog.Infof("Starting block producer on %s", params.Name)

	// Contract global state lives under the data directory.
	statePath := filepath.Join(cfg.DataDir, "state")
	state, err := qvm.OpenStateDB(statePath)
	if err != nil {
		return fmt.Errorf("failed to open contract state: %v", err)
	}
	defer state.Close()

	limits := dgp.NewDefaultLimits()
	chain := newLocalChain(params)

	pool := mempool.New(&mempool.Config{
		ChainParams: params,
		BestHeight: func() int32 {
			return chain.bestSnapshot().Height
		},
		MinGasPrice: func() uint64 {
			return limits.MinGasPrice(chain.bestSnapshot().Height + 1)
		},
	})

	policy := &mining.Policy{
		BlockMaxWeight:         cfg.BlockMaxWeight,
		BlockMinTxFee:          btcutil.Amount(cfg.BlockMinTxFee),
		BlockVersion:           cfg.BlockVersion,
		TxGasLimit:             cfg.TxGasLimit,
		SoftBlockGasLimit:      cfg.SoftBlockGasLimit,
		DisableContractStaking: cfg.DisableContractStaking,
		PrintPriority:          cfg.PrintPriority,
		Staking:                !cfg.NoStaking,
	}

	stakerParams := mining.NewStakerParams()
	miningConfig := &mining.Config{
		ChainParams:  params,
		Policy:       policy,
		TxSource:     pool,
		TimeSource:   blockchain.NewMedianTime(),
		Limits:       limits,
		GlobalState:  state,
		Converter:    &qvm.ScriptConverter{},
		Executor:     nopExecutor{},
		StakerParams: stakerParams,
		BestSnapshot: chain.bestSnapshot,
		NextWorkRequired: func(header *wire.BlockHeader,
			proofOfStake bool) (uint32, error) {

			return params.PowLimitBits, nil
		},
	}
	assembler := mining.NewBlockAssembler(miningConfig)

	addrSource := cpuminer.NewDefaultAddrSource(nil)
	for _, encoded := range cfg.MiningAddrs {
		addr, err := cpuminer.DecodeMiningAddr(params, encoded)
		if err != nil {
			return fmt.Errorf("invalid mining address %q: %v",
				encoded, err)
		}
		if err := addrSource.AddAddr(addr); err != nil {
			return err
		}
	}
	if addrSource.NumAddrs() == 0 && !params.MineBlocksOnDemand {
		return fmt.Errorf("at least one --miningaddr is required on %s",
			params.Name)
	}

	miner := cpuminer.New(&cpuminer.Config{
		ChainParams:    params,
		BlockAssembler: assembler,
		StakerParams:   stakerParams,
		AddrSource:     addrSource,
		TxSource:       pool,
		BestSnapshot:   chain.bestSnapshot,
		CanStake:       miningConfig.CanStake,
		ProcessBlock: func(block *btcutil.Block) (bool, error) {
			chain.connectBlock(block)
			return false, nil
		},
		// The harness is its own peer.
		ConnectedCount: func() int32 { return 1 },
		IsCurrent:      func() bool { return true },
	})

	if cfg.Generate > 0 {
		hashes, err := miner.GenerateNBlocks(cfg.Generate)
		if err != nil {
			return err
		}
		for _, hash := range hashes {
			fmt.Println(hash)
		}
		return nil
	}

	miner.SetNumWorkers(cfg.NumWorkers)
	miner.Start()
	defer miner.Stop()

	// Run until interrupted.
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt
	mainLog.Info("Shutting down")
	return nil
}

func main() {
	if err := realMain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
