package triage

import (
	"strings"
	"time"
)

// Tier is the coarse priority bucket for a thread.
type Tier string

// Tiers, highest first.
const (
	TierUrgent Tier = "urgent"
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// Tiers lists every tier from highest to lowest.
var Tiers = []Tier{TierUrgent, TierHigh, TierMedium, TierLow}

// Rank orders tiers so that a larger value is more pressing. Unknown tiers rank below low.
func (t Tier) Rank() int {
	switch t {
	case TierUrgent:
		return 3
	case TierHigh:
		return 2
	case TierMedium:
		return 1
	case TierLow:
		return 0
	default:
		return -1
	}
}

// ParseTier converts a case-insensitive name into a Tier.
func ParseTier(s string) (Tier, bool) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if t.Rank() < 0 {
		return "", false
	}
	return t, true
}

// Action is the suggested next handling step for a thread.
type Action string

// The closed set of actions.
const (
	ActionRespond  Action = "respond"
	ActionArchive  Action = "archive"
	ActionDelegate Action = "delegate"
	ActionSchedule Action = "schedule"
	ActionWait     Action = "wait"
	ActionEscalate Action = "escalate"
	ActionReview   Action = "review"
)

// Actions lists every legal action.
var Actions = []Action{
	ActionRespond, ActionArchive, ActionDelegate, ActionSchedule,
	ActionWait, ActionEscalate, ActionReview,
}

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	for _, known := range Actions {
		if a == known {
			return true
		}
	}
	return false
}

// ClaimType classifies a structured statement extracted from a thread.
type ClaimType string

// Known claim types. Others are accepted and carried but carry no weight.
const (
	ClaimFact       ClaimType = "fact"
	ClaimPromise    ClaimType = "promise"
	ClaimCommitment ClaimType = "commitment"
	ClaimRequest    ClaimType = "request"
	ClaimQuestion   ClaimType = "question"
	ClaimDecision   ClaimType = "decision"
)

// Participant is one address on a thread. The first participant is the sender.
type Participant struct {
	Address    string `json:"address"`
	Name       string `json:"name,omitempty"`
	IsVIP      bool   `json:"is_vip,omitempty"`
	IsInternal bool   `json:"is_internal,omitempty"`
}

// Claim is a fact, promise, question or decision extracted upstream.
type Claim struct {
	Type    ClaimType  `json:"type"`
	Text    string     `json:"text,omitempty"`
	DueDate *time.Time `json:"due_date,omitempty"`
}

// Thread is the read-only input to scoring.
type Thread struct {
	ID             string        `json:"id"`
	Subject        string        `json:"subject"`
	Snippet        string        `json:"snippet,omitempty"`
	Body           string        `json:"body,omitempty"`
	LastMessageAt  time.Time     `json:"last_message_at"`
	MessageCount   int           `json:"message_count,omitempty"`
	Participants   []Participant `json:"participants,omitempty"`
	Claims         []Claim       `json:"claims,omitempty"`
	Classification string        `json:"classification,omitempty"`
}

// text joins the searchable parts of the thread.
func (t *Thread) text() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{t.Subject, t.Snippet, t.Body} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

func (t *Thread) senderAddress() string {
	if len(t.Participants) == 0 {
		return ""
	}
	return strings.ToLower(t.Participants[0].Address)
}

// ageHours is the time since the last message. Future timestamps count as zero.
func (t *Thread) ageHours(now time.Time) float64 {
	if t.LastMessageAt.IsZero() {
		return 0
	}
	h := now.Sub(t.LastMessageAt).Hours()
	if h < 0 {
		return 0
	}
	return h
}

// UrgencyFactors records which urgency signals fired. Zero values mean absent.
type UrgencyFactors struct {
	HasExplicitDeadline bool       `json:"has_explicit_deadline,omitempty"`
	DeadlineDate        *time.Time `json:"deadline_date,omitempty"`
	DeadlineFromClaim   bool       `json:"deadline_from_claim,omitempty"`
	DeadlineWithin24h   bool       `json:"deadline_within_24h,omitempty"`
	UrgentKeywords      []string   `json:"urgent_keywords,omitempty"`
	MentionsASAP        bool       `json:"mentions_asap,omitempty"`
	MentionsToday       bool       `json:"mentions_today,omitempty"`
	SenderIsVIP         bool       `json:"sender_is_vip,omitempty"`
	ReplyExpected       bool       `json:"reply_expected,omitempty"`
	ReplyPhrase         string     `json:"reply_phrase,omitempty"`
	ThreadAgeHours      float64    `json:"thread_age_hours,omitempty"`
	TimeDecayBoost      float64    `json:"time_decay_boost,omitempty"`
}

// Sender importance levels.
const (
	SenderVIP      = "vip"
	SenderInternal = "internal"
	SenderExternal = "external"
)

// ImportanceFactors records which importance signals fired. Zero values mean absent.
type ImportanceFactors struct {
	SenderImportance    string    `json:"sender_importance,omitempty"`
	HasClaim            bool      `json:"has_claim,omitempty"`
	ClaimType           ClaimType `json:"claim_type,omitempty"`
	HasFinancialMention bool      `json:"has_financial_mention,omitempty"`
	FinancialAmount     *int64    `json:"financial_amount,omitempty"`
	HasLegalMention     bool      `json:"has_legal_mention,omitempty"`
	IsDirectMessage     bool      `json:"is_direct_message,omitempty"`
	IsBroadcast         bool      `json:"is_broadcast,omitempty"`
	RecipientCount      int       `json:"recipient_count"`
	TopicActionable     bool      `json:"topic_actionable,omitempty"`
}

// Factors bundles both factor records.
type Factors struct {
	Urgency    UrgencyFactors    `json:"urgency"`
	Importance ImportanceFactors `json:"importance"`
}

// PriorityResult is the scored priority of a thread.
type PriorityResult struct {
	Tier            Tier    `json:"tier"`
	UrgencyScore    float64 `json:"urgency_score"`
	ImportanceScore float64 `json:"importance_score"`
	CombinedScore   float64 `json:"combined_score"`
	Factors         Factors `json:"factors"`
	Reasoning       string  `json:"reasoning"`
}

// Expertise is a team-member skill category.
type Expertise string

// Expertise categories in match order.
const (
	ExpertiseTechnical Expertise = "technical"
	ExpertiseDesign    Expertise = "design"
	ExpertiseSales     Expertise = "sales"
	ExpertiseFinance   Expertise = "finance"
	ExpertiseLegal     Expertise = "legal"
	ExpertiseHR        Expertise = "hr"
	ExpertiseMarketing Expertise = "marketing"
)

// TeamMember is a possible delegation target.
type TeamMember struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email,omitempty"`
	Expertise []Expertise `json:"expertise,omitempty"`
	Available bool        `json:"available"`
}

// CalendarSlot is a span of the user's calendar.
type CalendarSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Busy  bool      `json:"busy"`
}

// Calendar holds the user's known availability.
type Calendar struct {
	Slots []CalendarSlot `json:"slots"`
}

// ActionStats counts what the user did with past threads from one sender.
type ActionStats struct {
	Responded int `json:"responded"`
	Archived  int `json:"archived"`
	Total     int `json:"total"`
}

// UserPatterns is historical user behavior.
type UserPatterns struct {
	// ResponseHoursByTier is the user's typical response window per tier.
	ResponseHoursByTier map[Tier]float64 `json:"response_hours_by_tier,omitempty"`
	// SenderActions is keyed by lowercased sender address.
	SenderActions map[string]ActionStats `json:"sender_actions,omitempty"`
}

// ActionContext is everything the action classifier looks at.
type ActionContext struct {
	Thread   *Thread
	Priority PriorityResult
	Team     []TeamMember
	Calendar *Calendar
	Patterns *UserPatterns
}

// ActionDetails carries the action-specific payload. Only the fields for the chosen action are set.
type ActionDetails struct {
	DelegateTo       *TeamMember `json:"delegate_to,omitempty"`
	DelegateReason   string      `json:"delegate_reason,omitempty"`
	ScheduleAt       *time.Time  `json:"schedule_at,omitempty"`
	ScheduleMinutes  int         `json:"schedule_minutes,omitempty"`
	WaitUntil        *time.Time  `json:"wait_until,omitempty"`
	WaitReason       string      `json:"wait_reason,omitempty"`
	EscalationReason string      `json:"escalation_reason,omitempty"`
}

// ActionSuggestion is the classifier's recommendation.
type ActionSuggestion struct {
	Action     Action         `json:"action"`
	Confidence float64        `json:"confidence"`
	Reasoning  string         `json:"reasoning"`
	Rule       string         `json:"rule"`
	Details    *ActionDetails `json:"details,omitempty"`
}

// Response suggestion sources.
const (
	SourceTier     = "tier"
	SourcePattern  = "pattern"
	SourceDeadline = "deadline"
)

// ResponseSuggestion is when the user should reply by.
type ResponseSuggestion struct {
	SuggestedBy time.Time  `json:"suggested_by"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	WindowHours float64    `json:"window_hours"`
	Source      string     `json:"source"`
}
