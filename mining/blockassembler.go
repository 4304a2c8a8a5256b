// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2024 The qtumsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mining

import (
	"errors"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/davecgh/go-spew/spew"

	"github.com/qtumsuite/qtumd/blockchain"
	"github.com/qtumsuite/qtumd/chaincfg"
	"github.com/qtumsuite/qtumd/dgp"
	"github.com/qtumsuite/qtumd/qvm"
)

const (
	// maxConsecutiveFailures is the number of package rejections in a row
	// tolerated while the block is close to full before selection gives
	// up.  This is just a simple heuristic to finish quickly when the
	// pool has a lot of entries.
	maxConsecutiveFailures = 1000

	// vbTopBits is the version bits value a template carries when no
	// deployment signalling is requested.
	vbTopBits = 0x20000000
)

// ErrBlockValidity identifies a template that failed the post-assembly
// validity check.  Templates failing this way must be discarded.
var ErrBlockValidity = errors.New("generated block template is invalid")

// BestState houses the view of the chain tip a template builds on.
type BestState struct {
	// Hash is the hash of the tip block.
	Hash chainhash.Hash

	// Height is the height of the tip block.
	Height int32

	// MedianTime is the median time of the last several blocks per the
	// chain consensus rules.
	MedianTime time.Time
}

// Config is a descriptor containing the block assembler configuration.
type Config struct {
	// ChainParams identifies which chain parameters the assembler is
	// associated with.
	ChainParams *chaincfg.Params

	// Policy houses the configurable policy knobs of the assembler.
	Policy *Policy

	// TxSource defines the transaction source to use for inclusion in
	// generated block templates.  It may be nil, in which case templates
	// carry only the reward transactions.
	TxSource TxSource

	// TimeSource defines the median time source to use for block
	// timestamps.
	TimeSource blockchain.MedianTimeSource

	// Limits provides the governed consensus resource limits.
	Limits dgp.Limits

	// GlobalState is the contract global state the executor mutates.
	// Its roots are snapshotted around each speculative execution.
	GlobalState qvm.GlobalState

	// Converter extracts VM transactions from contract transactions.
	Converter qvm.Converter

	// Executor runs extracted VM transactions against the global state.
	Executor qvm.Executor

	// StakerParams provides the tuned timing constants, in particular
	// the bytecode time buffer enforced against the template deadline.
	StakerParams *StakerParams

	// BestSnapshot returns the current chain tip the template should
	// build on.
	BestSnapshot func() *BestState

	// NextWorkRequired returns the required difficulty bits for a block
	// with the given header built on the current tip.
	NextWorkRequired func(header *wire.BlockHeader,
		proofOfStake bool) (uint32, error)

	// CalcBlockVersion optionally computes the block version from the
	// deployment state at the given height.  When nil the default
	// version bits value is used.
	CalcBlockVersion func(height int32) int32

	// TestBlockValidity optionally runs full consensus validation
	// against a finished template.  A non-nil error discards the
	// template.
	TestBlockValidity func(template *BlockTemplate,
		prevHash *chainhash.Hash) error
}

// CanStake returns whether the configuration permits proof of stake block
// production.  Staking is never performed on signet-style networks since
// block production there is permissioned.
func (cfg *Config) CanStake() bool {
	return cfg.Policy.Staking && !cfg.ChainParams.SignetBlocks
}

// BlockAssembler provides a type that can be used to generate block
// templates from a transaction source according to a mining policy,
// speculatively executing contract transactions and folding their refunds
// into the reward transaction.  It is not safe for concurrent use; one
// template is assembled at a time.
type BlockAssembler struct {
	cfg            Config
	blockMaxWeight uint64

	// Per-run template state.  Reset by resetBlock at the start of
	// every CreateNewBlock call.
	template     *BlockTemplate
	blockTxns    []*btcutil.Tx
	inBlock      map[chainhash.Hash]struct{}
	blockWeight  uint64
	blockSigOps  int64
	blockTxCount int
	totalFees    int64
	bceResult    qvm.ExecResult

	height           int32
	lockTimeCutoff   time.Time
	rewardSlot       int
	originalRewardTx *wire.MsgTx
	timeLimit        int64

	// Stats about the last generated template.
	lastBlockTxCount int
	lastBlockWeight  uint64
}

// NewBlockAssembler returns a new block assembler for the given
// configuration.  The policy's maximum block weight is clamped between the
// coinbase reservation and the governed ceiling for sanity.
func NewBlockAssembler(cfg *Config) *BlockAssembler {
	blockMaxWeight := cfg.Policy.BlockMaxWeight
	if blockMaxWeight == 0 {
		blockMaxWeight = DefaultBlockMaxWeight
	}
	maxAllowed := cfg.Limits.MaxBlockWeight(0) - coinbaseReservedWeight
	if blockMaxWeight > maxAllowed {
		blockMaxWeight = maxAllowed
	}
	if blockMaxWeight < coinbaseReservedWeight {
		blockMaxWeight = coinbaseReservedWeight
	}

	return &BlockAssembler{
		cfg:            *cfg,
		blockMaxWeight: blockMaxWeight,
	}
}

// resetBlock clears the per-run template state and reserves space for the
// coinbase transaction.
func (a *BlockAssembler) resetBlock() {
	a.template = nil
	a.blockTxns = nil
	a.inBlock = make(map[chainhash.Hash]struct{})

	// Reserve space for the coinbase slot.
	a.blockWeight = coinbaseReservedWeight
	a.blockSigOps = coinbaseReservedSigOps

	// These counters do not include the coinbase.
	a.blockTxCount = 0
	a.totalFees = 0
	a.bceResult = qvm.ExecResult{}
}

// appendTx appends a transaction to the in-progress block along with its
// fee and signature operation cost.
func (a *BlockAssembler) appendTx(tx *btcutil.Tx, fee, sigOpCost int64) {
	a.blockTxns = append(a.blockTxns, tx)
	a.template.Block.Transactions = append(a.template.Block.Transactions,
		tx.MsgTx())
	a.template.Fees = append(a.template.Fees, fee)
	a.template.SigOpCosts = append(a.template.SigOpCosts, sigOpCost)
}

// setBlockTx replaces the transaction at the given slot of the in-progress
// block.
func (a *BlockAssembler) setBlockTx(slot int, tx *btcutil.Tx) {
	a.blockTxns[slot] = tx
	a.template.Block.Transactions[slot] = tx.MsgTx()
}

// LastBlockTxCount returns the number of non-reward transactions selected
// into the most recently generated template.
func (a *BlockAssembler) LastBlockTxCount() int {
	return a.lastBlockTxCount
}

// LastBlockWeight returns the weight accounted for the most recently
// generated template.
func (a *BlockAssembler) LastBlockWeight() uint64 {
	return a.lastBlockWeight
}

// standardCoinbaseScript returns a standard script suitable for use as the
// signature script of the coinbase transaction of a new block.  It starts
// with the block height that is required by version 2 blocks.
func standardCoinbaseScript(nextBlockHeight int32) ([]byte, error) {
	return txscript.NewScriptBuilder().AddInt64(int64(nextBlockHeight)).
		AddOp(txscript.OP_0).Script()
}

// createCoinbaseTx returns a coinbase transaction for the given height.
// For proof of work templates the single output pays to the provided
// script; the value is finalized after transaction selection.  For proof
// of stake templates the coinbase carries a single empty output since the
// reward is paid by the coinstake.
func createCoinbaseTx(nextBlockHeight int32, payToScript []byte,
	proofOfStake bool) (*wire.MsgTx, error) {

	coinbaseScript, err := standardCoinbaseScript(nextBlockHeight)
	if err != nil {
		return nil, err
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(&wire.TxIn{
		// Coinbase transactions have no inputs, so previous outpoint
		// is zero hash and max index.
		PreviousOutPoint: *wire.NewOutPoint(&chainhash.Hash{},
			wire.MaxPrevOutIndex),
		SignatureScript: coinbaseScript,
		Sequence:        wire.MaxTxInSequenceNum,
	})
	if proofOfStake {
		tx.AddTxOut(&wire.TxOut{Value: 0, PkScript: nil})
	} else {
		tx.AddTxOut(&wire.TxOut{Value: 0, PkScript: payToScript})
	}
	return tx, nil
}

// createCoinstakeTx returns the coinstake skeleton for a proof of stake
// template: an empty marker output followed by the reward output paying to
// the provided script.  The kernel input references the parent block as a
// placeholder; the staking wallet replaces it with the winning kernel and
// signs before the block is broadcast.
func createCoinstakeTx(prevHash *chainhash.Hash, payToScript []byte) *wire.MsgTx {
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: *wire.NewOutPoint(prevHash, 0),
		Sequence:         wire.MaxTxInSequenceNum,
	})
	tx.AddTxOut(&wire.TxOut{Value: 0, PkScript: nil})
	tx.AddTxOut(&wire.TxOut{Value: 0, PkScript: payToScript})
	return tx
}

// CreateNewBlock returns a new block template paying to the provided
// script, selecting transactions from the configured source by ancestor
// score until the block is full or no candidate pays for its space.
//
// When proofOfStake is set the template carries a coinstake skeleton in
// slot 1 which receives the reward and the contract refunds, and the
// header timestamp is seeded from txProofTime.  A non-zero timeLimit is a
// unix-seconds deadline; contract execution is abandoned once the wall
// clock is within the tuned bytecode buffer of it.
func (a *BlockAssembler) CreateNewBlock(payToScript []byte,
	proofOfStake bool, txProofTime int64,
	timeLimit int64) (*BlockTemplate, error) {

	buildStart := time.Now()

	a.resetBlock()
	a.timeLimit = timeLimit

	best := a.cfg.BestSnapshot()
	a.height = best.Height + 1
	a.lockTimeCutoff = best.MedianTime
	a.rewardSlot = 0
	if proofOfStake {
		a.rewardSlot = 1
	}

	a.template = &BlockTemplate{
		Block:  &wire.MsgBlock{},
		Height: a.height,
	}

	// Build the reward transaction skeletons.  Their values are filled
	// in after selection, but the contract execution gate needs real
	// transactions in the reward slots to rebuild as refunds accrue.
	coinbaseTx, err := createCoinbaseTx(a.height, payToScript,
		proofOfStake)
	if err != nil {
		return nil, err
	}
	a.appendTx(btcutil.NewTx(coinbaseTx), -1, -1)
	if proofOfStake {
		coinstakeTx := createCoinstakeTx(&best.Hash, payToScript)
		a.appendTx(btcutil.NewTx(coinstakeTx), 0, 0)
		a.originalRewardTx = coinstakeTx.Copy()
	} else {
		a.originalRewardTx = coinbaseTx.Copy()
	}

	// Compute the block version.
	version := int32(vbTopBits)
	if a.cfg.CalcBlockVersion != nil {
		version = a.cfg.CalcBlockVersion(a.height)
	}
	// Allow overriding the block version on networks that mine blocks
	// on demand to test forking scenarios.
	if a.cfg.ChainParams.MineBlocksOnDemand && a.cfg.Policy.BlockVersion != 0 {
		version = a.cfg.Policy.BlockVersion
	}

	// Seed the header timestamp.  Proof of stake templates start from the
	// kernel proof time; UpdateTime below still raises it when the tip's
	// median time or the adjusted clock is later.
	nTime := a.cfg.TimeSource.AdjustedTime().Unix()
	if proofOfStake && txProofTime != 0 {
		nTime = txProofTime
	}

	packagesSelected, descendantsUpdated := 0, 0
	if a.cfg.TxSource != nil {
		minGasPrice := a.cfg.Limits.MinGasPrice(a.height)
		packagesSelected, descendantsUpdated =
			a.addPackageTxs(minGasPrice)
	}

	a.lastBlockTxCount = a.blockTxCount
	a.lastBlockWeight = a.blockWeight

	// Finalize the reward transaction: the subsidy output pays the
	// collected fees plus the block subsidy, less the value returned to
	// contract senders, followed by the accumulated refund outputs.
	a.rebuildRefundTransaction()
	a.template.Fees[0] = -a.totalFees
	a.template.TotalFees = a.totalFees
	a.template.UsedGas = a.bceResult.UsedGas
	a.template.ValidPayAddress = len(payToScript) > 0

	// Commit to the witness data of the selected transactions and
	// account for the final coinbase shape.
	a.template.WitnessCommitment = blockchain.AddWitnessCommitment(
		a.blockTxns[0], a.blockTxns)
	a.template.SigOpCosts[0] = blockchain.WitnessScaleFactor *
		int64(blockchain.CountSigOps(a.blockTxns[0]))

	// Fill in the header.
	header := &a.template.Block.Header
	header.Version = version
	header.PrevBlock = best.Hash
	header.Timestamp = time.Unix(nTime, 0)
	a.UpdateTime(header, best, proofOfStake)

	bits, err := a.cfg.NextWorkRequired(header, proofOfStake)
	if err != nil {
		return nil, err
	}
	header.Bits = bits
	header.Nonce = 0
	header.MerkleRoot = blockchain.CalcMerkleRoot(a.blockTxns, false)

	log.Debugf("Created new block template: height %d, weight %d, "+
		"%d txs, %d fees, %d sigops, %d gas", a.height, a.blockWeight,
		a.blockTxCount, a.totalFees, a.blockSigOps, a.bceResult.UsedGas)

	if a.cfg.TestBlockValidity != nil {
		err := a.cfg.TestBlockValidity(a.template, &best.Hash)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBlockValidity, err)
		}
	}

	log.Debugf("Block template build took %v (%d packages, %d updated "+
		"descendants)", time.Since(buildStart), packagesSelected,
		descendantsUpdated)

	return a.template, nil
}

// UpdateTime raises the header timestamp to the later of one second past
// the median time of the tip and the current adjusted time.  On networks
// allowing minimum difficulty blocks the required bits are recomputed
// since they depend on the timestamp.
func (a *BlockAssembler) UpdateTime(header *wire.BlockHeader,
	best *BestState, proofOfStake bool) {

	newTime := best.MedianTime.Add(time.Second)
	if adjusted := a.cfg.TimeSource.AdjustedTime(); adjusted.After(newTime) {
		newTime = adjusted
	}
	if header.Timestamp.Before(newTime) {
		header.Timestamp = time.Unix(newTime.Unix(), 0)
	}

	// Updating time can change work required on test networks.
	if a.cfg.ChainParams.PowAllowMinDifficultyBlocks {
		bits, err := a.cfg.NextWorkRequired(header, proofOfStake)
		if err == nil {
			header.Bits = bits
		}
	}
}

// RegenerateCommitments erases the current witness commitment output from
// the block's coinbase, regenerates it against the current transaction
// list, and recomputes the merkle root.  It is used when the transaction
// list is mutated externally, for instance when the staking wallet
// replaces the coinstake.  The new commitment is returned.
func RegenerateCommitments(block *wire.MsgBlock) []byte {
	coinbase := btcutil.NewTx(block.Transactions[0])
	if idx := blockchain.WitnessCommitmentIndex(coinbase); idx != -1 {
		msgTx := coinbase.MsgTx()
		msgTx.TxOut = append(msgTx.TxOut[:idx], msgTx.TxOut[idx+1:]...)
	}

	blockTxns := make([]*btcutil.Tx, 0, len(block.Transactions))
	for _, msgTx := range block.Transactions {
		blockTxns = append(blockTxns, btcutil.NewTx(msgTx))
	}

	commitment := blockchain.AddWitnessCommitment(blockTxns[0], blockTxns)
	block.Header.MerkleRoot = blockchain.CalcMerkleRoot(blockTxns, false)
	return commitment
}

// rebuildRefundTransaction replaces the reward slot with a transaction
// derived from the original reward skeleton: the subsidy output carries
// the collected fees plus subsidy less the sender refunds, and the
// accumulated refund outputs follow in order.
func (a *BlockAssembler) rebuildRefundTransaction() {
	contrTx := a.originalRewardTx.Copy()

	subsidyOut := a.rewardSlot
	value := a.totalFees + a.cfg.ChainParams.CalcBlockSubsidy(a.height)
	value -= a.bceResult.RefundSender
	contrTx.TxOut[subsidyOut].Value = value

	contrTx.TxOut = append(contrTx.TxOut, a.bceResult.RefundOutputs...)

	a.setBlockTx(a.rewardSlot, btcutil.NewTx(contrTx))
}

// testPackage returns whether a package of the given size and signature
// operation cost still fits the block under construction.
func (a *BlockAssembler) testPackage(packageSize, packageSigOps int64) bool {
	weight := a.blockWeight +
		blockchain.WitnessScaleFactor*uint64(packageSize)
	if weight >= a.blockMaxWeight {
		return false
	}
	if a.blockSigOps+packageSigOps >= a.cfg.Limits.MaxBlockSigOps(a.height) {
		return false
	}
	return true
}

// testPackageTransactions performs transaction-level checks before adding a
// package to the block: every transaction must be final at the template
// height against the cached lock time cutoff.
func (a *BlockAssembler) testPackageTransactions(entries []*TxDesc) bool {
	for _, entry := range entries {
		if !blockchain.IsFinalizedTransaction(entry.Tx, a.height,
			a.lockTimeCutoff) {

			return false
		}
	}
	return true
}

// onlyUnconfirmed removes entries that are already in the block from the
// given ancestor set.
func (a *BlockAssembler) onlyUnconfirmed(entries []*TxDesc) []*TxDesc {
	filtered := entries[:0]
	for _, entry := range entries {
		if _, ok := a.inBlock[*entry.Tx.Hash()]; !ok {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

// addToBlock commits a plain transaction to the block under construction
// and updates the running totals.
func (a *BlockAssembler) addToBlock(desc *TxDesc) {
	a.appendTx(desc.Tx, desc.Fee, desc.SigOpCost)
	a.blockWeight += uint64(desc.TxWeight)
	a.blockSigOps += desc.SigOpCost
	a.blockTxCount++
	a.totalFees += desc.Fee
	a.inBlock[*desc.Tx.Hash()] = struct{}{}

	if a.cfg.Policy.PrintPriority {
		log.Infof("fee %d size %d vbytes txid %s", desc.ModifiedFee,
			desc.TxSize, desc.Tx.Hash())
	}
}

// updatePackagesForAdded creates or updates modified entries for every
// in-pool descendant of the newly added package members, with ancestor
// aggregates decremented to exclude the members now in the block.  It
// returns the number of descendants updated.
func (a *BlockAssembler) updatePackagesForAdded(added []*TxDesc,
	modSet *modTxSet) int {

	inPackage := make(map[chainhash.Hash]struct{}, len(added))
	for _, entry := range added {
		inPackage[*entry.Tx.Hash()] = struct{}{}
	}

	descendantsUpdated := 0
	for _, entry := range added {
		descendants := a.cfg.TxSource.CalcDescendants(entry.Tx.Hash())
		for _, desc := range descendants {
			if _, ok := inPackage[*desc.Tx.Hash()]; ok {
				continue
			}
			descendantsUpdated++
			modSet.trackAncestorIncluded(desc, entry)
		}
	}
	return descendantsUpdated
}

// addPackageTxs selects transactions for the block by walking the source's
// ancestor-score ordering, correcting for already-included ancestors
// through a local modified set.  It returns the number of packages
// selected and descendants updated.
//
// Since transactions are not removed from the source as they are selected,
// the cached ancestor state of their descendants goes stale as the block
// fills.  The modified set holds those descendants with corrected
// aggregates; each pass compares the best modified entry against the next
// source entry to decide which package to attempt.
func (a *BlockAssembler) addPackageTxs(minGasPrice uint64) (int, int) {
	descs := a.cfg.TxSource.MiningDescs()

	modSet := newModTxSet(minGasPrice)
	failed := make(map[chainhash.Hash]struct{})

	packagesSelected := 0
	descendantsUpdated := 0
	consecutiveFailed := 0

	mi := 0
	for mi < len(descs) || !modSet.empty() {
		// Skip source entries that are already in the block, present
		// in the modified set (their cached ancestor state is stale),
		// or that previously failed.
		if mi < len(descs) {
			hash := descs[mi].Tx.Hash()
			_, isInBlock := a.inBlock[*hash]
			_, hasFailed := failed[*hash]
			if isInBlock || hasFailed || modSet.contains(hash) {
				mi++
				continue
			}
		}

		// Now that the source entry is not stale, decide which
		// package to evaluate next: the source entry or the best
		// modified entry.  A strictly better modified entry wins;
		// otherwise the source entry is taken and its cursor
		// advances.
		var (
			desc          *TxDesc
			pkg           packageView
			usingModified bool
		)
		modBest := modSet.best()
		if mi >= len(descs) {
			desc = modBest.desc
			pkg = modBest.view()
			usingModified = true
		} else {
			desc = descs[mi]
			pkg = viewOf(desc)
			if modBest != nil &&
				betterPackage(modBest.view(), pkg, minGasPrice) {

				desc = modBest.desc
				pkg = modBest.view()
				usingModified = true
			} else {
				mi++
			}
		}
		hash := desc.Tx.Hash()

		// Everything else that might be considered has a lower fee
		// rate, so selection is done.
		if pkg.fees < a.cfg.Policy.minPackageFee(pkg.size) {
			break
		}

		if !a.testPackage(pkg.size, pkg.sigOps) {
			if usingModified {
				// The best modified entry must be erased so the
				// next best one can be considered on the
				// following iteration.
				modSet.remove(hash)
				failed[*hash] = struct{}{}
			}

			consecutiveFailed++
			if consecutiveFailed > maxConsecutiveFailures &&
				a.blockWeight >
					a.blockMaxWeight-coinbaseReservedWeight {

				// Give up if the block is close to full and
				// nothing has fit in a while.
				break
			}
			continue
		}

		// Gather the package: all unconfirmed ancestors that are not
		// yet in the block, plus the entry itself.
		ancestors := a.cfg.TxSource.CalcAncestors(hash)
		ancestors = a.onlyUnconfirmed(ancestors)
		ancestors = append(ancestors, desc)

		if !a.testPackageTransactions(ancestors) {
			if usingModified {
				modSet.remove(hash)
				failed[*hash] = struct{}{}
			}
			continue
		}

		// This package will make it in; reset the failure streak and
		// order the entries by ancestor count so parents precede
		// children.
		consecutiveFailed = 0
		sortForBlock(ancestors)

		log.Tracef("Selected package %v", newLogClosure(func() string {
			return spew.Sdump(ancestors)
		}))

		committed := make([]*TxDesc, 0, len(ancestors))
		abandoned := false
		for _, entry := range ancestors {
			if abandoned {
				// A contract rejection abandons the rest of the
				// package; the remaining entries carry state
				// that is no longer achievable this run.
				modSet.remove(entry.Tx.Hash())
				failed[*entry.Tx.Hash()] = struct{}{}
				continue
			}

			if entry.HasCreateOrCall {
				ok := a.attemptToAddContractToBlock(entry,
					minGasPrice)
				if !ok {
					abandoned = true
					modSet.remove(entry.Tx.Hash())
					failed[*entry.Tx.Hash()] = struct{}{}
					continue
				}
			} else {
				a.addToBlock(entry)
			}

			modSet.remove(entry.Tx.Hash())
			committed = append(committed, entry)
		}

		if len(committed) == 0 {
			continue
		}
		packagesSelected++

		// Update the modified state of transactions that depend on
		// each of the committed entries.
		descendantsUpdated += a.updatePackagesForAdded(committed,
			modSet)
	}

	return packagesSelected, descendantsUpdated
}

// attemptToAddContractToBlock decides whether a single contract-carrying
// transaction can enter the block.  All effects on the contract global
// state, the block, and the running totals are applied only when it
// returns true; otherwise the state roots are restored to their values
// from before the attempt.
func (a *BlockAssembler) attemptToAddContractToBlock(desc *TxDesc,
	minGasPrice uint64) bool {

	timings := a.cfg.StakerParams.Timings()
	if a.timeLimit != 0 {
		deadline := a.timeLimit -
			int64(timings.BytecodeTimeBuffer/time.Second)
		if a.cfg.TimeSource.AdjustedTime().Unix() >= deadline {
			return false
		}
	}
	if a.cfg.Policy.DisableContractStaking {
		// Contract staking is disabled for this producer.
		return false
	}

	snapshot := qvm.TakeSnapshot(a.cfg.GlobalState)

	// Operate on local shadow totals first; they are applied to the
	// assembler only when the attempt commits.
	shadowWeight := a.blockWeight
	shadowSigOps := a.blockSigOps

	vmTxns, err := a.cfg.Converter.ExtractTransactions(desc.Tx, a.blockTxns)
	if err != nil || len(vmTxns) == 0 {
		// Extraction is validated at pool admission, so this can only
		// trigger for raw transactions injected into the producer.
		log.Debugf("Failed to extract contracts from tx %v: %v",
			desc.Tx.Hash(), err)
		return false
	}

	softGasLimit := a.cfg.Policy.softBlockGasLimit()
	txGasLimit := a.cfg.Policy.txGasLimit()

	var txGas uint64
	for _, vmTx := range vmTxns {
		txGas += vmTx.Gas
		if txGas > txGasLimit {
			log.Debugf("Contract tx %v needs more gas than the "+
				"per-tx limit %d", desc.Tx.Hash(), txGasLimit)
			return false
		}
		if a.bceResult.UsedGas+vmTx.Gas > softGasLimit {
			// Adding this transaction could exceed the soft block
			// gas limit.  Only log when it is the sole contract.
			if a.bceResult.UsedGas == 0 {
				log.Debugf("Contract tx %v needs more gas "+
					"than the soft block gas limit %d",
					desc.Tx.Hash(), softGasLimit)
			}
			return false
		}
		if vmTx.GasPrice < minGasPrice {
			log.Debugf("Contract tx %v gas price %d is below the "+
				"required minimum %d", desc.Tx.Hash(),
				vmTx.GasPrice, minGasPrice)
			return false
		}
	}

	// Execution runs against the governed hard block gas limit, not the
	// soft limit, since the hard limit is consensus critical.
	hardGasLimit := a.cfg.Limits.BlockGasLimit(a.height)
	execResult, err := a.cfg.Executor.Execute(&a.template.Block.Header,
		vmTxns, hardGasLimit)
	if err != nil {
		a.restoreSnapshot(snapshot)
		log.Debugf("Contract execution failed for tx %v: %v",
			desc.Tx.Hash(), err)
		return false
	}

	if a.bceResult.UsedGas+execResult.UsedGas > softGasLimit {
		a.restoreSnapshot(snapshot)
		if a.bceResult.UsedGas == 0 {
			log.Debugf("Contract tx %v used more gas than the "+
				"soft block gas limit %d", desc.Tx.Hash(),
				softGasLimit)
		}
		return false
	}

	// Apply the contract transaction's costs to the shadow totals,
	// followed by every VM-synthesized value transfer.
	shadowWeight += uint64(desc.TxWeight)
	shadowSigOps += desc.SigOpCost
	for _, msgTx := range execResult.ValueTransfers {
		transfer := btcutil.NewTx(msgTx)
		shadowWeight += uint64(blockchain.GetTransactionWeight(transfer))
		shadowSigOps += int64(blockchain.CountSigOps(transfer))
	}

	// Rebuild the reward transaction in shadow: drop the current reward
	// transaction's sigops, append the refund outputs to a copy, and
	// account for the result.
	rewardTx := a.blockTxns[a.rewardSlot]
	shadowSigOps -= int64(blockchain.CountSigOps(rewardTx))
	shadowReward := rewardTx.MsgTx().Copy()
	shadowReward.TxOut = append(shadowReward.TxOut,
		execResult.RefundOutputs...)
	shadowSigOps += int64(blockchain.CountSigOps(btcutil.NewTx(shadowReward)))

	// Reject when the block would become too heavy or too expensive
	// with this contract execution applied.
	if shadowSigOps*blockchain.WitnessScaleFactor >
		a.cfg.Limits.MaxBlockSigOps(a.height) ||
		shadowWeight > a.cfg.Limits.MaxBlockWeight(a.height) {

		a.restoreSnapshot(snapshot)
		return false
	}

	// The attempt commits: fold the execution results into the block
	// accumulator.  Value transfers are staged per attempt and cleared
	// below once emitted.
	a.bceResult.UsedGas += execResult.UsedGas
	a.bceResult.RefundSender += execResult.RefundSender
	a.bceResult.RefundOutputs = append(a.bceResult.RefundOutputs,
		execResult.RefundOutputs...)
	a.bceResult.ValueTransfers = execResult.ValueTransfers

	a.appendTx(desc.Tx, desc.Fee, desc.SigOpCost)
	a.blockWeight += uint64(desc.TxWeight)
	a.blockSigOps += desc.SigOpCost
	a.blockTxCount++
	a.totalFees += desc.Fee
	a.inBlock[*desc.Tx.Hash()] = struct{}{}

	for _, msgTx := range a.bceResult.ValueTransfers {
		transfer := btcutil.NewTx(msgTx)
		sigOps := int64(blockchain.CountSigOps(transfer))
		a.appendTx(transfer, 0, sigOps)
		a.blockWeight += uint64(blockchain.GetTransactionWeight(transfer))
		a.blockSigOps += sigOps
		a.blockTxCount++
	}

	// Swap the reward transaction for one carrying the accumulated
	// refunds, keeping the sigop total in step.
	a.blockSigOps -= int64(blockchain.CountSigOps(a.blockTxns[a.rewardSlot]))
	a.rebuildRefundTransaction()
	a.blockSigOps += int64(blockchain.CountSigOps(a.blockTxns[a.rewardSlot]))

	a.bceResult.ValueTransfers = nil

	if a.cfg.Policy.PrintPriority {
		log.Infof("fee %d size %d vbytes gas %d txid %s",
			desc.ModifiedFee, desc.TxSize, execResult.UsedGas,
			desc.Tx.Hash())
	}

	return true
}

// restoreSnapshot rewinds the contract global state to the captured roots.
// A failure to restore is logged at the critical level; template assembly
// continues.
func (a *BlockAssembler) restoreSnapshot(snapshot qvm.Snapshot) {
	if err := snapshot.Restore(a.cfg.GlobalState); err != nil {
		log.Criticalf("Failed to restore contract state roots: %v", err)
	}
}
