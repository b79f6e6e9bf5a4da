package triage

import "math"

const (
	highThreshold   = 0.5
	mediumThreshold = 0.3

	urgencyBlend    = 0.6
	importanceBlend = 0.4
)

// TierFor maps urgency and importance onto the priority matrix.
func TierFor(urgency, importance float64) Tier {
	u, i := clamp01(urgency), clamp01(importance)
	switch {
	case u >= highThreshold && i >= highThreshold:
		return TierUrgent
	case u >= highThreshold || i >= highThreshold:
		return TierHigh
	case u >= mediumThreshold || i >= mediumThreshold:
		return TierMedium
	default:
		return TierLow
	}
}

// CombinedScore blends urgency and importance for ranking. It never affects the tier.
func CombinedScore(urgency, importance float64) float64 {
	return clamp01(urgencyBlend*clamp01(urgency) + importanceBlend*clamp01(importance))
}

// clamp01 bounds v to [0,1]. NaN becomes 0.
func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
