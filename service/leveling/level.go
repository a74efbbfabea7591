// Package leveling converts a leaderboard score into a display level.
package leveling

import "math"

const (
	baseXP     = 100.0
	growthRate = 1.0625
	maxLevel   = 60
)

// PointsToLevel returns the level a score has reached on the geometric XP
// curve: the cumulative XP required to complete level L is
// baseXP*(growthRate^L-1)/(growthRate-1). A score of zero is level 0; a
// score that clears every level's requirement caps at maxLevel.
func PointsToLevel(score uint64) int {
	if score == 0 {
		return 0
	}

	s := float64(score)
	for level := 1; level <= maxLevel; level++ {
		cumulative := baseXP * (math.Pow(growthRate, float64(level)) - 1) / (growthRate - 1)
		if s < cumulative {
			return level - 1
		}
	}
	return maxLevel
}
