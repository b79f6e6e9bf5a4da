package triage

import (
	"math"
	"time"
)

// Urgency weights.
const (
	weightDeadline      = 0.35
	deadlineSoonFactor  = 1.5
	weightUrgentKeyword = 0.25
	keywordSaturation   = 2
	weightASAP          = 0.05
	weightToday         = 0.05
	weightVIPUrgency    = 0.15
	weightReplyExpected = 0.10
	weightAgeOld        = 0.10
	weightAgeStale      = 0.05
)

// AssessUrgency scores how soon a thread needs attention. Each signal
// category contributes at most once; only the total is clamped.
func AssessUrgency(t *Thread, now time.Time) (float64, UrgencyFactors) {
	var (
		f     UrgencyFactors
		score float64
	)
	if t == nil {
		return 0, f
	}
	text := t.text()

	textDeadline := matchDeadline(text)
	claimDue, hasClaimDue := nearestClaimDue(t.Claims)
	if textDeadline || hasClaimDue {
		f.HasExplicitDeadline = true
		contribution := weightDeadline
		if hasClaimDue {
			f.DeadlineFromClaim = true
			if claimDue.Sub(now) < 24*time.Hour {
				f.DeadlineWithin24h = true
				contribution *= deadlineSoonFactor
			}
		}
		score += contribution
	}
	if d, ok := earliestDeadline(text, now, claimDue, hasClaimDue); ok {
		f.DeadlineDate = &d
	}

	if kws := matchUrgentKeywords(text); len(kws) > 0 {
		f.UrgentKeywords = kws
		score += weightUrgentKeyword * math.Min(float64(len(kws))/keywordSaturation, 1)
	}

	if mentionsASAP(text) {
		f.MentionsASAP = true
		score += weightASAP
	}
	if mentionsTodayOrTonight(text) {
		f.MentionsToday = true
		score += weightToday
	}

	for _, p := range t.Participants {
		if p.IsVIP {
			f.SenderIsVIP = true
			score += weightVIPUrgency
			break
		}
	}

	if label, ok := matchReplyExpectation(text); ok {
		f.ReplyExpected = true
		f.ReplyPhrase = label
		score += weightReplyExpected
	}

	age := t.ageHours(now)
	f.ThreadAgeHours = age
	switch {
	case age > 48:
		score += weightAgeOld
	case age >= 24:
		score += weightAgeStale
	}

	return clamp01(score), f
}

// nearestClaimDue returns the earliest due date among the claims.
func nearestClaimDue(claims []Claim) (time.Time, bool) {
	var (
		best  time.Time
		found bool
	)
	for _, c := range claims {
		if c.DueDate == nil {
			continue
		}
		if !found || c.DueDate.Before(best) {
			best, found = *c.DueDate, true
		}
	}
	return best, found
}

func earliestDeadline(text string, now, claimDue time.Time, hasClaimDue bool) (time.Time, bool) {
	d, ok := resolveTextDeadline(text, now)
	if hasClaimDue && (!ok || claimDue.Before(d)) {
		return claimDue, true
	}
	return d, ok
}
