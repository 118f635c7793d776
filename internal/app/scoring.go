package app

import "math"

// baseScore is awarded for any correct answer regardless of speed.
const baseScore = 100

// ScoreDelta maps one answer to the points it earns. Incorrect answers earn
// nothing. Correct answers earn the base plus a bonus that decays linearly
// from (timeLimitSeconds*1000)/100 at instant answers down to zero at the
// limit; a correct-but-slow answer never drops below the base.
//
// Pure function: no clocks, no side effects.
func ScoreDelta(isCorrect bool, elapsedMillis int64, timeLimitSeconds int) int {
	if !isCorrect {
		return 0
	}
	bonus := float64(int64(timeLimitSeconds)*1000-elapsedMillis) / 100
	if bonus < 0 {
		bonus = 0
	}
	return int(math.Round(baseScore + bonus))
}
