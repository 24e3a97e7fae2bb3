package services

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTierFor(t *testing.T) {
	cfg := TierConfig{
		BaseMaxMembers: 10,
		Levels: []TierLevel{
			{Tier: 1, MinPoints: 1000, MaxMembers: 10},
			{Tier: 2, MinPoints: 5000, MaxMembers: 50},
			{Tier: 3, MinPoints: 10000, MaxMembers: 100},
		},
	}

	for _, tc := range []struct {
		points     int64
		tier       int
		maxMembers int
	}{
		{0, 0, 10},
		{999, 0, 10},
		{1000, 1, 10},
		{4999, 1, 10},
		{5000, 2, 50},
		{10000, 3, 100},
		{50000, 3, 100},
	} {
		tier, max := cfg.TierFor(tc.points)
		require.Equal(t, tc.tier, tier, "points=%d", tc.points)
		require.Equal(t, tc.maxMembers, max, "points=%d", tc.points)
	}
}

func TestValidWalletAddress(t *testing.T) {
	require.True(t, ValidWalletAddress("7cVfgArCheMR6Cs4t6vz5rfnqd56vZq4ndaBrY5xkxXy"))
	require.False(t, ValidWalletAddress(""))
	require.False(t, ValidWalletAddress("too-short"))
	// 0, O, I and l are not in the base58 alphabet.
	require.False(t, ValidWalletAddress("0cVfgArCheMR6Cs4t6vz5rfnqd56vZq4ndaBrY5xkxXy"))
	require.False(t, ValidWalletAddress("OcVfgArCheMR6Cs4t6vz5rfnqd56vZq4ndaBrY5xkxXy"))
	require.False(t, ValidWalletAddress("7cVfgArCheMR6Cs4t6vz5rfnqd56vZq4ndaBrY5xkxXy7cVfgArCheMR"))
}
