package triage

import (
	"math"
	"time"
)

const (
	decayWindowHours = 72
	maxDecayBoost    = 0.2
)

// CalculatePriority scores a thread from scratch.
func CalculatePriority(t *Thread, now time.Time) PriorityResult {
	u, uf := AssessUrgency(t, now)
	i, imf := AssessImportance(t)
	return buildPriority(u, i, uf, imf)
}

// RecalculatePriority re-scores a thread and adds a time-decay boost to
// urgency for the hours since it was last scored. Zero hours is identical
// to CalculatePriority.
func RecalculatePriority(t *Thread, hoursSinceLastCalculation float64, now time.Time) PriorityResult {
	u, uf := AssessUrgency(t, now)
	i, imf := AssessImportance(t)
	if boost := decayBoost(hoursSinceLastCalculation); boost > 0 {
		uf.TimeDecayBoost = boost
		u = clamp01(u + boost)
	}
	return buildPriority(u, i, uf, imf)
}

func decayBoost(hours float64) float64 {
	if !(hours > 0) {
		return 0
	}
	return math.Min(hours/decayWindowHours, maxDecayBoost)
}

func buildPriority(u, i float64, uf UrgencyFactors, imf ImportanceFactors) PriorityResult {
	u, i = clamp01(u), clamp01(i)
	tier := TierFor(u, i)
	return PriorityResult{
		Tier:            tier,
		UrgencyScore:    u,
		ImportanceScore: i,
		CombinedScore:   CombinedScore(u, i),
		Factors:         Factors{Urgency: uf, Importance: imf},
		Reasoning:       GenerateReasoning(tier, uf, imf),
	}
}
