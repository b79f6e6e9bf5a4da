package triage

import (
	"math"
	"time"
)

// baseResponseHours is the default reply window per tier.
var baseResponseHours = map[Tier]float64{
	TierUrgent: 2,
	TierHigh:   8,
	TierMedium: 24,
	TierLow:    72,
}

const deadlineLead = 2 * time.Hour

// SuggestResponseTime recommends when to reply. User patterns replace the
// tier's base window; an earlier deadline always wins over both.
func SuggestResponseTime(tier Tier, deadline *time.Time, patterns *UserPatterns, now time.Time) ResponseSuggestion {
	hours, ok := baseResponseHours[tier]
	if !ok {
		hours = baseResponseHours[TierLow]
	}
	source := SourceTier
	if patterns != nil {
		if h, ok := patterns.ResponseHoursByTier[tier]; ok && h > 0 && !math.IsInf(h, 0) {
			hours, source = h, SourcePattern
		}
	}

	s := ResponseSuggestion{
		SuggestedBy: now.Add(time.Duration(hours * float64(time.Hour))),
		WindowHours: hours,
		Source:      source,
	}
	if deadline != nil {
		d := *deadline
		s.Deadline = &d
		if d.Before(s.SuggestedBy) {
			s.SuggestedBy = d.Add(-deadlineLead)
			s.WindowHours = s.SuggestedBy.Sub(now).Hours()
			s.Source = SourceDeadline
		}
	}
	return s
}
