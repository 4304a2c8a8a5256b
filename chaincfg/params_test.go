// Copyright (c) 2024 The qtumsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestTargetSpacing ensures the target spacing is divided by the timestamp
// downscale factor (128s to 32s) at the reduced-blocktime fork boundary.
func TestTargetSpacing(t *testing.T) {
	p := MainNetParams

	require.Equal(t, int64(128), p.TargetSpacing(0))
	require.Equal(t, int64(128), p.TargetSpacing(p.ReduceBlocktimeHeight-1))
	require.Equal(t, int64(32), p.TargetSpacing(p.ReduceBlocktimeHeight))
}

// TestTimestampDownscaleFactor ensures the downscale factor is 1 before the
// fork and the configured divisor after it.
func TestTimestampDownscaleFactor(t *testing.T) {
	p := MainNetParams

	require.Equal(t, uint32(1), p.TimestampDownscaleFactor(0))
	require.Equal(t, uint32(4),
		p.TimestampDownscaleFactor(p.ReduceBlocktimeHeight))
}

// TestCalcBlockSubsidy ensures the subsidy halving schedule terminates at
// zero after the maximum number of halvings.
func TestCalcBlockSubsidy(t *testing.T) {
	p := MainNetParams

	tests := []struct {
		name   string
		height int32
		want   int64
	}{
		{"genesis era", 1, 400000000},
		{"just before first halving", p.SubsidyReductionInterval - 1, 400000000},
		{"first halving", p.SubsidyReductionInterval, 200000000},
		{"second halving", 2 * p.SubsidyReductionInterval, 100000000},
		{"final halving exhausts subsidy", 7 * p.SubsidyReductionInterval, 0},
		{"far future", 100 * p.SubsidyReductionInterval, 0},
	}
	for _, test := range tests {
		require.Equal(t, test.want, p.CalcBlockSubsidy(test.height),
			test.name)
	}
}
