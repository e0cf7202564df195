package classify

import "math"

// FreshnessScore is 100 while the source is within its fresh window and decays
// linearly afterwards, never dropping below zero.
func FreshnessScore(ageDays, maxFreshDays, decayPerDay float64) float64 {
	if ageDays <= maxFreshDays {
		return 100
	}
	return math.Max(0, 100-(ageDays-maxFreshDays)*decayPerDay)
}
