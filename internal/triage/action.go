package triage

import (
	"math"
	"strings"
	"time"
)

const urgentRespondBoost = 0.1

// ClassifyAction runs every rule against the context and returns the
// highest-weight match, falling back to review.
func ClassifyAction(ac ActionContext, now time.Time) ActionSuggestion {
	if ac.Thread == nil {
		ac.Thread = &Thread{}
	}
	in := newRuleInput(ac, now)

	winner := &reviewRule
	for i := range rules {
		r := &rules[i]
		if r.Action == ActionReview || !r.Match(in) {
			continue
		}
		if winner == &reviewRule || r.Weight > winner.Weight {
			winner = r
		}
	}

	s := ActionSuggestion{
		Action:     winner.Action,
		Confidence: winner.Weight,
		Reasoning:  winner.Reason,
		Rule:       winner.Name,
	}
	if winner.Details != nil {
		s.Details = winner.Details(in)
	}
	if ac.Priority.Tier == TierUrgent && s.Action == ActionRespond {
		s.Confidence = math.Min(1, s.Confidence+urgentRespondBoost)
	}
	return s
}

func newRuleInput(ac ActionContext, now time.Time) *ruleInput {
	t := ac.Thread
	text := t.text()
	in := &ruleInput{
		ctx:      ac,
		thread:   t,
		text:     text,
		sender:   strings.ToLower(strings.TrimSpace(t.senderAddress())),
		ageHours: t.ageHours(now),
		now:      now,
	}
	in.expertise = MatchExpertise(text)
	in.member, in.shared = bestTeamMember(ac.Team, in.expertise)
	return in
}
