package triage

// Importance weights.
const (
	weightSender         = 0.25
	internalSenderFactor = 0.7
	externalSenderFactor = 0.3
	weightClaim          = 0.20
	weightFinancial      = 0.15
	millionBonusFactor   = 0.5
	weightLegal          = 0.15
	weightDirectMessage  = 0.10
	broadcastPenalty     = 0.05
	broadcastThreshold   = 10
	weightTopic          = 0.10
	topicFactor          = 0.8
)

// claimWeights lists scored claim types, highest priority first.
var claimWeights = []struct {
	types  []ClaimType
	factor float64
}{
	{[]ClaimType{ClaimDecision}, 1.0},
	{[]ClaimType{ClaimCommitment, ClaimPromise}, 0.9},
	{[]ClaimType{ClaimQuestion}, 0.7},
}

// AssessImportance scores how much a thread matters, independent of time.
func AssessImportance(t *Thread) (float64, ImportanceFactors) {
	var (
		f     ImportanceFactors
		score float64
	)
	if t == nil {
		return 0, f
	}
	text := t.text()

	if level, factor := senderImportance(t.Participants); level != "" {
		f.SenderImportance = level
		score += weightSender * factor
	}

	if len(t.Claims) > 0 {
		f.HasClaim = true
		f.ClaimType = t.Claims[0].Type
		if typ, factor, ok := strongestClaim(t.Claims); ok {
			f.ClaimType = typ
			score += weightClaim * factor
		}
	}

	if matchFinancial(text) {
		f.HasFinancialMention = true
		score += weightFinancial
		if amount, million, ok := parseFinancialAmount(text); ok {
			f.FinancialAmount = &amount
			if million {
				score += weightFinancial * millionBonusFactor
			}
		}
	}

	if matchLegal(text) {
		f.HasLegalMention = true
		score += weightLegal
	}

	n := len(t.Participants)
	f.RecipientCount = n
	switch {
	case n > 0 && n <= 2:
		f.IsDirectMessage = true
		score += weightDirectMessage
	case n > broadcastThreshold:
		f.IsBroadcast = true
		score -= broadcastPenalty
	}

	if classificationActionable(t.Classification) {
		f.TopicActionable = true
		score += weightTopic * topicFactor
	}

	return clamp01(score), f
}

// senderImportance picks exactly one level: any VIP wins, then all-internal, else external.
func senderImportance(ps []Participant) (string, float64) {
	if len(ps) == 0 {
		return "", 0
	}
	internal := true
	for _, p := range ps {
		if p.IsVIP {
			return SenderVIP, 1
		}
		if !p.IsInternal {
			internal = false
		}
	}
	if internal {
		return SenderInternal, internalSenderFactor
	}
	return SenderExternal, externalSenderFactor
}

func strongestClaim(claims []Claim) (ClaimType, float64, bool) {
	for _, cw := range claimWeights {
		for _, c := range claims {
			for _, typ := range cw.types {
				if c.Type == typ {
					return c.Type, cw.factor, true
				}
			}
		}
	}
	return "", 0, false
}
