package triage

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	authorityRe = regexp.MustCompile(`(?i)\b(?:approval|sign[- ]?off)\s+(?:from|by)\s+(?:my\s+|your\s+|the\s+|our\s+|a\s+)?(?:manager|vp|executive|director|cfo|ceo|leadership)\b` +
		`|\b(?:manager|vp|executive|director|leadership)(?:'s)?\s+(?:approval|sign[- ]?off)\b` +
		`|\bbudget\s+approval\s+(?:from|by)\s+(?:my\s+|your\s+|the\s+|our\s+)?(?:manager|vp|executive|director|cfo|ceo|leadership|finance)\b` +
		`|\bescalate\s+(?:this\s+)?to\s+(?:management|leadership)\b`)
	sensitiveRe  = regexp.MustCompile(`(?i)\b(?:lawsuit|legal\s+action|litigation|harassment|discrimination|termination|grievance|subpoena|whistleblower|hr\s+complaint)\b`)
	newsletterRe = regexp.MustCompile(`(?i)\b(?:unsubscribe|newsletter|promotional|marketing\s+email|view\s+(?:it\s+)?in\s+(?:your\s+)?browser|special\s+offer|email\s+preferences)\b`)
	requestRe    = regexp.MustCompile(`(?i)\bplease\s+(?:confirm|review|send|approve|advise|provide|share|update)\b|\blet\s+me\s+know\b|\bneed\s+your\s+(?:input|feedback|approval)\b`)
	notMyAreaRe  = regexp.MustCompile(`(?i)\bnot\s+my\s+area\b|\bnot\s+(?:my|our)\s+(?:department|team|expertise)\b|\b(?:someone|somebody)\s+else\s+(?:should|could|would)\b|\bwho\s+(?:should|can)\s+(?:handle|own|take)\b|\bright\s+person\s+(?:for|to)\b`)
	questionRe   = regexp.MustCompile(`(?im)\?\s*$|\b(?:can|could|would|will)\s+you\b|\bwhat\s+do\s+you\s+think\b|\bdo\s+you\s+(?:have|know|agree)\b`)
	fyiRe        = regexp.MustCompile(`(?i)\bfyi\b|\bfor\s+your\s+information\b|\bno\s+action\s+(?:needed|required)\b|\bjust\s+(?:letting\s+you\s+know|a\s+heads[- ]up)\b`)
	waitingOnRe  = regexp.MustCompile(`(?i)\b(?:waiting\s+(?:for|on)|awaiting)\s+(\w+)`)
	pendingRe    = regexp.MustCompile(`(?i)\bpending\s+(?:approval|review|confirmation|sign[- ]?off)\b|\bon\s+hold\b`)
	complexRe    = regexp.MustCompile(`(?i)\b(?:analysis|analyze|review|proposal|report|strategy|research|evaluation|assessment|roadmap)\b`)
)

var noReplyMarkers = []string{"noreply", "no-reply", "donotreply", "do-not-reply"}

const (
	patternMinThreads = 5
	patternRate       = 0.8
)

// ruleInput is computed once per classification and shared by every rule.
type ruleInput struct {
	ctx       ActionContext
	thread    *Thread
	text      string
	sender    string
	ageHours  float64
	now       time.Time
	expertise []Expertise
	member    *TeamMember
	shared    []Expertise
}

// Rule is one entry in the classification table.
type Rule struct {
	Name    string
	Action  Action
	Weight  float64
	Reason  string
	Match   func(in *ruleInput) bool
	Details func(in *ruleInput) *ActionDetails
}

// rules is evaluated in full on every call. Declaration order breaks weight ties.
var rules = []Rule{
	{
		Name: "escalate-authority", Action: ActionEscalate, Weight: 0.90,
		Reason: "Needs sign-off from someone with more authority.",
		Match:  func(in *ruleInput) bool { return authorityRe.MatchString(in.text) },
		Details: func(*ruleInput) *ActionDetails {
			return &ActionDetails{EscalationReason: "Requires approval from a manager or executive"}
		},
	},
	{
		Name: "escalate-sensitive", Action: ActionEscalate, Weight: 0.85,
		Reason: "Touches a sensitive legal or HR matter.",
		Match:  func(in *ruleInput) bool { return sensitiveRe.MatchString(in.text) },
		Details: func(*ruleInput) *ActionDetails {
			return &ActionDetails{EscalationReason: "Involves a sensitive legal or HR matter"}
		},
	},
	{
		Name: "archive-newsletter", Action: ActionArchive, Weight: 0.90,
		Reason: "Looks like a newsletter or marketing email.",
		Match:  func(in *ruleInput) bool { return newsletterRe.MatchString(in.text) },
	},
	{
		Name: "respond-commitment", Action: ActionRespond, Weight: 0.90,
		Reason: "Thread carries a commitment that needs follow-through.",
		Match: func(in *ruleInput) bool {
			for _, c := range in.thread.Claims {
				if c.Type == ClaimCommitment || c.Type == ClaimPromise {
					return true
				}
			}
			return false
		},
	},
	{
		Name: "archive-noreply", Action: ActionArchive, Weight: 0.85,
		Reason: "Sent from an automated no-reply address.",
		Match: func(in *ruleInput) bool {
			for _, m := range noReplyMarkers {
				if strings.Contains(in.sender, m) {
					return true
				}
			}
			return false
		},
	},
	{
		Name: "respond-request", Action: ActionRespond, Weight: 0.85,
		Reason: "Sender is asking you to do something.",
		Match:  func(in *ruleInput) bool { return requestRe.MatchString(in.text) },
	},
	{
		Name: "delegate-not-my-area", Action: ActionDelegate, Weight: 0.85,
		Reason: "Outside your area and a teammate fits better.",
		Match:  func(in *ruleInput) bool { return in.member != nil && notMyAreaRe.MatchString(in.text) },
		Details: delegateDetails,
	},
	{
		Name: "respond-question", Action: ActionRespond, Weight: 0.80,
		Reason: "Sender asked you a direct question.",
		Match:  func(in *ruleInput) bool { return questionRe.MatchString(in.text) },
	},
	{
		Name: "pattern-archive-sender", Action: ActionArchive, Weight: 0.80,
		Reason: "You usually archive threads from this sender.",
		Match: func(in *ruleInput) bool {
			s, ok := in.senderStats()
			return ok && float64(s.Archived)/float64(s.Total) >= patternRate
		},
	},
	{
		Name: "archive-fyi", Action: ActionArchive, Weight: 0.75,
		Reason: "Informational only, no action requested.",
		Match:  func(in *ruleInput) bool { return fyiRe.MatchString(in.text) },
	},
	{
		Name: "schedule-busy", Action: ActionSchedule, Weight: 0.75,
		Reason: "High priority but you are busy right now.",
		Match: func(in *ruleInput) bool {
			_, busy := busyAt(in.ctx.Calendar, in.now)
			return in.ctx.Priority.Tier == TierHigh && busy
		},
		Details: func(in *ruleInput) *ActionDetails {
			at, ok := nextFreeSlot(in.ctx.Calendar, in.now, 30*time.Minute)
			if !ok {
				at, _ = busyAt(in.ctx.Calendar, in.now)
			}
			return &ActionDetails{ScheduleAt: &at, ScheduleMinutes: 30}
		},
	},
	{
		Name: "wait-pending", Action: ActionWait, Weight: 0.75,
		Reason: "Blocked on someone else.",
		Match:  func(in *ruleInput) bool { return waitingOnOthers(in.text) },
		Details: func(in *ruleInput) *ActionDetails {
			until := in.now.Add(48 * time.Hour)
			return &ActionDetails{WaitUntil: &until, WaitReason: "Waiting on a pending response or approval"}
		},
	},
	{
		Name: "schedule-complex", Action: ActionSchedule, Weight: 0.70,
		Reason: "Needs focused time to work through.",
		Match: func(in *ruleInput) bool {
			return in.ctx.Priority.Tier != TierUrgent && complexRe.MatchString(in.text)
		},
		Details: func(in *ruleInput) *ActionDetails {
			at, ok := nextFreeSlot(in.ctx.Calendar, in.now, time.Hour)
			if !ok {
				at = in.now.Add(24 * time.Hour)
			}
			return &ActionDetails{ScheduleAt: &at, ScheduleMinutes: 60}
		},
	},
	{
		Name: "archive-aged-low", Action: ActionArchive, Weight: 0.70,
		Reason: "Low priority and untouched for over 3 days.",
		Match: func(in *ruleInput) bool {
			return in.ctx.Priority.Tier == TierLow && in.ageHours > 72
		},
	},
	{
		Name: "pattern-respond-sender", Action: ActionRespond, Weight: 0.70,
		Reason: "You usually reply to this sender.",
		Match: func(in *ruleInput) bool {
			s, ok := in.senderStats()
			return ok && float64(s.Responded)/float64(s.Total) >= patternRate
		},
	},
	{
		Name: "wait-active-discussion", Action: ActionWait, Weight: 0.65,
		Reason: "Busy discussion still in motion.",
		Match: func(in *ruleInput) bool {
			return len(in.thread.Participants) > 3 && in.ageHours < 4
		},
		Details: func(in *ruleInput) *ActionDetails {
			until := in.now.Add(24 * time.Hour)
			return &ActionDetails{WaitUntil: &until, WaitReason: "Let the discussion settle before weighing in"}
		},
	},
	{
		Name: "delegate-expertise", Action: ActionDelegate, Weight: 0.60,
		Reason: "A teammate has matching expertise.",
		Match:  func(in *ruleInput) bool { return in.member != nil },
		Details: delegateDetails,
	},
}

// reviewRule is the implicit fallback.
var reviewRule = Rule{
	Name: "review", Action: ActionReview, Weight: 0.5,
	Reason: "No specific rule matched, review manually.",
}

// Rules returns a copy of the classification table in declaration order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

func delegateDetails(in *ruleInput) *ActionDetails {
	names := make([]string, len(in.shared))
	for i, e := range in.shared {
		names[i] = string(e)
	}
	return &ActionDetails{
		DelegateTo:     in.member,
		DelegateReason: fmt.Sprintf("%s has %s expertise", in.member.Name, strings.Join(names, ", ")),
	}
}

func (in *ruleInput) senderStats() (ActionStats, bool) {
	p := in.ctx.Patterns
	if p == nil || in.sender == "" {
		return ActionStats{}, false
	}
	s, ok := p.SenderActions[in.sender]
	if !ok || s.Total < patternMinThreads {
		return ActionStats{}, false
	}
	return s, true
}

// waitingOnOthers matches "waiting for X" unless X is the reader.
func waitingOnOthers(text string) bool {
	if pendingRe.MatchString(text) {
		return true
	}
	for _, m := range waitingOnRe.FindAllStringSubmatch(text, -1) {
		switch strings.ToLower(m[1]) {
		case "you", "your":
			continue
		}
		return true
	}
	return false
}

// busyAt reports whether now falls in a busy slot and when that slot ends.
func busyAt(cal *Calendar, now time.Time) (time.Time, bool) {
	if cal == nil {
		return time.Time{}, false
	}
	for _, s := range cal.Slots {
		if s.Busy && !now.Before(s.Start) && now.Before(s.End) {
			return s.End, true
		}
	}
	return time.Time{}, false
}

// nextFreeSlot returns the earliest free slot that still has room for d after from.
func nextFreeSlot(cal *Calendar, from time.Time, d time.Duration) (time.Time, bool) {
	if cal == nil {
		return time.Time{}, false
	}
	var (
		best  time.Time
		found bool
	)
	for _, s := range cal.Slots {
		if s.Busy {
			continue
		}
		start := s.Start
		if start.Before(from) {
			start = from
		}
		if s.End.Sub(start) < d {
			continue
		}
		if !found || start.Before(best) {
			best, found = start, true
		}
	}
	return best, found
}
