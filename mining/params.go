// Copyright (c) 2024 The qtumsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mining

import (
	"sync"
	"time"

	"github.com/qtumsuite/qtumd/chaincfg"
)

const (
	// MaxStakeLookahead is the base number of seconds ahead of the
	// current time a staker will search for a valid kernel timestamp.
	MaxStakeLookahead = 180 * time.Second

	// BytecodeTimeBuffer is the base number of seconds before the
	// template deadline at which contract execution is no longer
	// attempted.
	BytecodeTimeBuffer = 6 * time.Second

	// StakeTimeBuffer is the base number of seconds before the template
	// deadline at which stake searching stops.
	StakeTimeBuffer = 2 * time.Second

	// StakerPollingPeriod is the base delay between staking attempts.
	StakerPollingPeriod = 5000 * time.Millisecond

	// StakerPollingPeriodMinDifficulty is the polling period used when
	// mining with minimum difficulty.  It is deliberately long to avoid
	// flooding test networks with blocks every few seconds.
	StakerPollingPeriodMinDifficulty = 20000 * time.Millisecond

	// StakerWaitForValidBlock is the base delay to wait for a valid
	// block to arrive when the current template went stale.
	StakerWaitForValidBlock = 3000 * time.Millisecond

	// StakerWaitForBestBlockHeader is the base delay to wait for the
	// best block header to be known before staking resumes.
	StakerWaitForBestBlockHeader = 250 * time.Millisecond
)

// StakerTimings carries the timing constants that drive the staking loop
// and the contract execution deadline.
type StakerTimings struct {
	// MaxStakeLookahead is how far into the future kernel timestamps are
	// searched.  When Update recomputes the timings for a changed
	// downscale factor it is kept between one second and the target
	// spacing; the base value for a factor of one is not clamped.
	MaxStakeLookahead time.Duration

	// BytecodeTimeBuffer is how close to the template deadline contract
	// execution is still attempted.
	BytecodeTimeBuffer time.Duration

	// StakeTimeBuffer is how close to the template deadline stake
	// searching continues.
	StakeTimeBuffer time.Duration

	// MinerSleep is the delay between staking attempts.
	MinerSleep time.Duration

	// MinerWaitValidBlock is the delay to wait for a valid block when
	// the current template went stale.
	MinerWaitValidBlock time.Duration

	// MinerWaitBestBlockHeader is the delay to wait for the best block
	// header before staking resumes.
	MinerWaitBestBlockHeader time.Duration
}

// baseStakerTimings are the timings for a downscale factor of one.
var baseStakerTimings = StakerTimings{
	MaxStakeLookahead:        MaxStakeLookahead,
	BytecodeTimeBuffer:       BytecodeTimeBuffer,
	StakeTimeBuffer:          StakeTimeBuffer,
	MinerSleep:               StakerPollingPeriod,
	MinerWaitValidBlock:      StakerWaitForValidBlock,
	MinerWaitBestBlockHeader: StakerWaitForBestBlockHeader,
}

// StakerParams owns the staking timing constants and refreshes them as the
// chain height moves across downscale schedule boundaries.  It is safe for
// concurrent use; the staking loop is the only writer.
type StakerParams struct {
	mtx sync.Mutex

	// timeDownscale caches the last downscale factor applied.  The
	// derived values are only recomputed when the factor changes, so a
	// process switching between chains with different schedules observes
	// stale values until the factor moves again.  This mirrors the
	// long-standing producer behavior and is relied upon for
	// idempotence.
	timeDownscale uint32

	timings StakerTimings
}

// NewStakerParams returns staker parameters populated with the base
// constants, matching a downscale factor of one.
func NewStakerParams() *StakerParams {
	return &StakerParams{
		timeDownscale: 1,
		timings:       baseStakerTimings,
	}
}

// scaleDown divides the base duration by the downscale factor, never
// dropping below one second.
func scaleDown(base time.Duration, factor uint32) time.Duration {
	scaled := base / time.Duration(factor)
	if scaled < time.Second {
		scaled = time.Second
	}
	return scaled
}

// Update refreshes the timing constants for the given height.  The derived
// values are recomputed only when the height-dependent downscale factor
// changed since the previous call, so repeated calls with identical inputs
// leave the timings untouched.  When minDifficulty is set the polling
// period is overridden to avoid creating blocks at the minimum spacing on
// test networks.
func (sp *StakerParams) Update(height int32, params *chaincfg.Params,
	minDifficulty bool) {

	sp.mtx.Lock()
	defer sp.mtx.Unlock()

	factor := params.TimestampDownscaleFactor(height)
	if factor != sp.timeDownscale {
		sp.timeDownscale = factor
		targetSpacing := time.Duration(params.TargetSpacing(height)) *
			time.Second

		t := &sp.timings
		t.MaxStakeLookahead = scaleDown(MaxStakeLookahead, factor)
		if t.MaxStakeLookahead > targetSpacing {
			t.MaxStakeLookahead = targetSpacing
		}
		t.BytecodeTimeBuffer = scaleDown(BytecodeTimeBuffer, factor)
		t.StakeTimeBuffer = scaleDown(StakeTimeBuffer, factor)
		t.MinerSleep = scaleDown(StakerPollingPeriod, factor)
		t.MinerWaitValidBlock = scaleDown(StakerWaitForValidBlock,
			factor)
	}

	if minDifficulty &&
		sp.timings.MinerSleep != StakerPollingPeriodMinDifficulty {

		sp.timings.MinerSleep = StakerPollingPeriodMinDifficulty
	}
}

// Timings returns a coherent copy of the current timing constants.
func (sp *StakerParams) Timings() StakerTimings {
	sp.mtx.Lock()
	defer sp.mtx.Unlock()

	return sp.timings
}
