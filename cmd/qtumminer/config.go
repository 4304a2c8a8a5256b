// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2024 The qtumsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil"
	flags "github.com/jessevdk/go-flags"

	"github.com/qtumsuite/qtumd/chaincfg"
	"github.com/qtumsuite/qtumd/mining"
)

const (
	defaultLogFilename = "qtumminer.log"
	defaultLogLevel    = "info"
)

// defaultHomeDir is the default data directory for the miner.
var defaultHomeDir = btcutil.AppDataDir("qtumminer", false)

// config defines the configuration options for the miner.
//
// See loadConfig for details on the configuration load process.
type config struct {
	ShowVersion            bool     `short:"V" long:"version" description:"Display version information and exit"`
	DataDir                string   `short:"b" long:"datadir" description:"Directory to store data"`
	DebugLevel             string   `short:"d" long:"debuglevel" description:"Logging level {trace, debug, info, warn, error, critical}"`
	TestNet                bool     `long:"testnet" description:"Use the test network"`
	RegressionTest         bool     `long:"regtest" description:"Use the regression test network"`
	MiningAddrs            []string `long:"miningaddr" description:"Add the specified payment address to the list of addresses to use for generated blocks -- At least one address is required on networks that do not mine blocks on demand"`
	BlockMaxWeight         uint64   `long:"blockmaxweight" description:"Maximum block weight to be used when creating a block"`
	BlockMinTxFee          int64    `long:"blockmintxfee" description:"Minimum fee rate in satoshi/kvB for a transaction to be included in generated blocks"`
	BlockVersion           int32    `long:"blockversion" description:"Override the block version used when generating blocks -- regtest only"`
	DisableContractStaking bool     `long:"disablecontractstaking" description:"Exclude contract transactions from generated blocks"`
	PrintPriority          bool     `long:"printpriority" description:"Log the fee rate of every transaction selected into a block"`
	NoStaking              bool     `long:"nostaking" description:"Disable proof of stake block production"`
	TxGasLimit             uint64   `long:"stakermaxtxgaslimit" description:"Gas ceiling for a single contract transaction in generated blocks"`
	SoftBlockGasLimit      uint64   `long:"stakersoftblockgaslimit" description:"Gas ceiling for all contract executions in one generated block"`
	Generate               uint32   `long:"generate" description:"Number of blocks to generate and submit before exiting (0 mines continuously)"`
	NumWorkers             int32    `long:"numworkers" description:"Number of worker goroutines solving blocks (-1 uses one per CPU core)"`
}

// loadConfig initializes and parses the config using command line options.
func loadConfig() (*config, []string, error) {
	cfg := config{
		DataDir:        defaultHomeDir,
		DebugLevel:     defaultLogLevel,
		BlockMaxWeight: mining.DefaultBlockMaxWeight,
		BlockMinTxFee:  mining.DefaultBlockMinTxFee,
		NumWorkers:     -1,
	}

	parser := flags.NewParser(&cfg, flags.Default)
	remainingArgs, err := parser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			os.Exit(0)
		}
		return nil, nil, err
	}

	if cfg.TestNet && cfg.RegressionTest {
		return nil, nil, fmt.Errorf("the testnet and regtest params " +
			"can't be used together -- choose one of the two")
	}

	// The block version override is a testing facility only.
	if cfg.BlockVersion != 0 && !cfg.RegressionTest {
		return nil, nil, fmt.Errorf("blockversion may only be set on " +
			"the regression test network")
	}

	return &cfg, remainingArgs, nil
}

// activeParams returns the chain parameters selected by the configuration.
func (cfg *config) activeParams() *chaincfg.Params {
	switch {
	case cfg.TestNet:
		return &chaincfg.TestNetParams
	case cfg.RegressionTest:
		return &chaincfg.RegressionNetParams
	default:
		return &chaincfg.MainNetParams
	}
}

// logFile returns the path of the rotating log file.
func (cfg *config) logFile() string {
	return filepath.Join(cfg.DataDir, "logs", defaultLogFilename)
}
