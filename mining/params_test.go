// Copyright (c) 2024 The qtumsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mining

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/qtumsuite/qtumd/chaincfg"
)

func TestStakerParamsDownscale(t *testing.T) {
	params := chaincfg.MainNetParams
	sp := NewStakerParams()

	// Below the fork nothing changes.
	sp.Update(0, &params, false)
	timings := sp.Timings()
	require.Equal(t, StakerPollingPeriod, timings.MinerSleep)
	require.Equal(t, BytecodeTimeBuffer, timings.BytecodeTimeBuffer)

	// Past the fork the constants shrink by the downscale factor, and
	// the lookahead is capped by the target spacing.
	sp.Update(params.ReduceBlocktimeHeight, &params, false)
	timings = sp.Timings()
	require.Equal(t, StakerPollingPeriod/4, timings.MinerSleep)

	// 2s/4 lands below the one second floor.
	require.Equal(t, time.Second, timings.StakeTimeBuffer)
	require.LessOrEqual(t, timings.MaxStakeLookahead,
		time.Duration(params.TargetSpacing(params.ReduceBlocktimeHeight))*
			time.Second)
}

func TestStakerParamsIdempotent(t *testing.T) {
	params := chaincfg.MainNetParams
	sp := NewStakerParams()

	sp.Update(params.ReduceBlocktimeHeight, &params, false)
	first := sp.Timings()

	// Calling again with identical inputs changes nothing.
	sp.Update(params.ReduceBlocktimeHeight, &params, false)
	require.Equal(t, first, sp.Timings())
}

func TestStakerParamsMinDifficultyOverride(t *testing.T) {
	params := chaincfg.RegressionNetParams
	sp := NewStakerParams()

	sp.Update(50, &params, true)
	require.Equal(t, StakerPollingPeriodMinDifficulty,
		sp.Timings().MinerSleep)

	// The override sticks across updates with an unchanged downscale
	// factor.
	sp.Update(51, &params, true)
	require.Equal(t, StakerPollingPeriodMinDifficulty,
		sp.Timings().MinerSleep)
}

func TestStakerParamsFloor(t *testing.T) {
	require.Equal(t, time.Second, scaleDown(StakeTimeBuffer, 100))
}
