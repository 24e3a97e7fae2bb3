package services

import (
	"os"
	"strconv"
)

// TierLevel defines one squad tier: the points required to reach it and
// the member capacity it unlocks.
type TierLevel struct {
	Tier       int
	MinPoints  int64
	MaxMembers int
}

// TierConfig holds the squad tier ladder. Tier 0 is the base tier every
// squad starts at.
type TierConfig struct {
	BaseMaxMembers int
	Levels         []TierLevel
}

// DefaultTierConfig mirrors the production ladder; every value is
// overridable through the environment.
func DefaultTierConfig() TierConfig {
	return TierConfig{
		BaseMaxMembers: envInt("MAX_SQUAD_MEMBERS", 10),
		Levels: []TierLevel{
			{Tier: 1, MinPoints: envInt64("TIER_1_POINTS", 1000), MaxMembers: int(envInt64("TIER_1_MAX_MEMBERS", 10))},
			{Tier: 2, MinPoints: envInt64("TIER_2_POINTS", 5000), MaxMembers: int(envInt64("TIER_2_MAX_MEMBERS", 50))},
			{Tier: 3, MinPoints: envInt64("TIER_3_POINTS", 10000), MaxMembers: int(envInt64("TIER_3_MAX_MEMBERS", 100))},
		},
	}
}

// TierFor returns the tier and member capacity earned by the cached squad
// point total.
func (c TierConfig) TierFor(totalSquadPoints int64) (tier, maxMembers int) {
	tier, maxMembers = 0, c.BaseMaxMembers
	for _, lvl := range c.Levels {
		if totalSquadPoints >= lvl.MinPoints {
			tier, maxMembers = lvl.Tier, lvl.MaxMembers
		}
	}
	return tier, maxMembers
}

func envInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return def
}

func envInt64(key string, def int64) int64 {
	if v, err := strconv.ParseInt(os.Getenv(key), 10, 64); err == nil && v > 0 {
		return v
	}
	return def
}
