package triage

import (
	"fmt"
	"strings"
)

var tierSentences = map[Tier]string{
	TierUrgent: "Urgent: needs attention now.",
	TierHigh:   "High priority: respond soon.",
	TierMedium: "Medium priority: handle when convenient.",
	TierLow:    "Low priority: no immediate action needed.",
}

var claimPhrases = map[ClaimType]string{
	ClaimDecision:   "a decision",
	ClaimCommitment: "a commitment",
	ClaimPromise:    "a commitment",
	ClaimQuestion:   "an open question",
}

type clause func(u *UrgencyFactors, i *ImportanceFactors) string

// reasonClauses render in this order, never from map iteration.
var reasonClauses = []clause{
	func(u *UrgencyFactors, _ *ImportanceFactors) string {
		switch {
		case u.DeadlineWithin24h:
			return "Deadline is within 24 hours."
		case u.HasExplicitDeadline:
			return "Has an explicit deadline."
		}
		return ""
	},
	func(u *UrgencyFactors, _ *ImportanceFactors) string {
		if len(u.UrgentKeywords) == 0 {
			return ""
		}
		return fmt.Sprintf("Urgent language: %s.", strings.Join(u.UrgentKeywords, ", "))
	},
	func(u *UrgencyFactors, _ *ImportanceFactors) string {
		if u.SenderIsVIP {
			return "From a VIP contact."
		}
		return ""
	},
	func(u *UrgencyFactors, _ *ImportanceFactors) string {
		if u.ReplyExpected {
			return "Sender expects a reply."
		}
		return ""
	},
	func(u *UrgencyFactors, _ *ImportanceFactors) string {
		switch {
		case u.ThreadAgeHours > 48:
			return "Waiting over 2 days without a reply."
		case u.ThreadAgeHours >= 24:
			return "Waiting over a day without a reply."
		}
		return ""
	},
	func(u *UrgencyFactors, _ *ImportanceFactors) string {
		if u.TimeDecayBoost > 0 {
			return "Boosted for time since last review."
		}
		return ""
	},
	func(u *UrgencyFactors, i *ImportanceFactors) string {
		if i.SenderImportance == SenderVIP && !u.SenderIsVIP {
			return "Involves a VIP contact."
		}
		return ""
	},
	func(_ *UrgencyFactors, i *ImportanceFactors) string {
		if p, ok := claimPhrases[i.ClaimType]; ok && i.HasClaim {
			return fmt.Sprintf("Contains %s.", p)
		}
		return ""
	},
	func(_ *UrgencyFactors, i *ImportanceFactors) string {
		if !i.HasFinancialMention {
			return ""
		}
		if i.FinancialAmount != nil {
			return fmt.Sprintf("Mentions money (about $%s).", groupThousands(*i.FinancialAmount))
		}
		return "Mentions money."
	},
	func(_ *UrgencyFactors, i *ImportanceFactors) string {
		if i.HasLegalMention {
			return "Involves legal matters."
		}
		return ""
	},
	func(_ *UrgencyFactors, i *ImportanceFactors) string {
		switch {
		case i.IsDirectMessage:
			return "Sent directly to you."
		case i.IsBroadcast:
			return fmt.Sprintf("Sent to a large group (%d people).", i.RecipientCount)
		}
		return ""
	},
}

// GenerateReasoning renders a deterministic explanation of a priority.
func GenerateReasoning(tier Tier, u UrgencyFactors, i ImportanceFactors) string {
	lead, ok := tierSentences[tier]
	if !ok {
		lead = tierSentences[TierLow]
	}
	parts := []string{lead}
	for _, c := range reasonClauses {
		if s := c(&u, &i); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
