package triage

import (
	"reflect"
	"testing"
	"time"
)

func classify(th *Thread, tier Tier, mut func(*ActionContext)) ActionSuggestion {
	ac := ActionContext{Thread: th, Priority: PriorityResult{Tier: tier}}
	if mut != nil {
		mut(&ac)
	}
	return ClassifyAction(ac, fixedNow)
}

func fresh(subject string) *Thread {
	return &Thread{ID: "th", Subject: subject, LastMessageAt: fixedNow, Participants: []Participant{{Address: "pat@example.com"}}}
}

func TestClassifyAction_Rules(t *testing.T) {
	t.Parallel()

	team := []TeamMember{
		{ID: "u1", Name: "Alice", Expertise: []Expertise{ExpertiseDesign}, Available: true},
		{ID: "u2", Name: "Bob", Expertise: []Expertise{ExpertiseTechnical}, Available: true},
		{ID: "u3", Name: "Carol", Expertise: []Expertise{ExpertiseFinance}, Available: true},
	}
	withTeam := func(ac *ActionContext) { ac.Team = team }

	tests := []struct {
		name       string
		thread     *Thread
		tier       Tier
		mut        func(*ActionContext)
		wantAction Action
		wantRule   string
		wantConf   float64
	}{
		{"authority", fresh("Need approval from my manager on the vendor"), TierMedium, nil, ActionEscalate, "escalate-authority", 0.90},
		{"vp sign-off", fresh("This needs VP sign-off"), TierMedium, nil, ActionEscalate, "escalate-authority", 0.90},
		{"sensitive", fresh("Formal harassment complaint"), TierMedium, nil, ActionEscalate, "escalate-sensitive", 0.85},
		{"newsletter", fresh("March newsletter"), TierLow, nil, ActionArchive, "archive-newsletter", 0.90},
		{"noreply sender", &Thread{Subject: "Your build passed", LastMessageAt: fixedNow, Participants: []Participant{{Address: "No-Reply@ci.example.com"}}}, TierLow, nil, ActionArchive, "archive-noreply", 0.85},
		{"request beats complex", fresh("Please review the attached deck"), TierMedium, nil, ActionRespond, "respond-request", 0.85},
		{"direct question", fresh("Are you free Thursday?"), TierMedium, nil, ActionRespond, "respond-question", 0.80},
		{"fyi", fresh("FYI: office closed Monday"), TierLow, nil, ActionArchive, "archive-fyi", 0.75},
		{"waiting on others", fresh("Still waiting on legal"), TierMedium, nil, ActionWait, "wait-pending", 0.75},
		{"waiting on the reader is not a wait", fresh("I am waiting for your reply"), TierMedium, nil, ActionReview, "review", 0.5},
		{"complex work", fresh("Draft proposal for Q3"), TierMedium, nil, ActionSchedule, "schedule-complex", 0.70},
		{"complex work when urgent", fresh("Draft proposal for Q3"), TierUrgent, nil, ActionReview, "review", 0.5},
		{"aged low", &Thread{Subject: "Old thread", LastMessageAt: fixedNow.Add(-100 * time.Hour)}, TierLow, nil, ActionArchive, "archive-aged-low", 0.70},
		{"aged but not low", &Thread{Subject: "Old thread", LastMessageAt: fixedNow.Add(-100 * time.Hour)}, TierMedium, nil, ActionReview, "review", 0.5},
		{"active discussion", &Thread{
			Subject: "Team offsite ideas", LastMessageAt: fixedNow.Add(-time.Hour),
			Participants: make([]Participant, 5),
		}, TierMedium, nil, ActionWait, "wait-active-discussion", 0.65},
		{"expertise", fresh("Server outage in prod"), TierMedium, withTeam, ActionDelegate, "delegate-expertise", 0.60},
		{"not my area", fresh("Not my area, but the invoice is wrong"), TierMedium, withTeam, ActionDelegate, "delegate-not-my-area", 0.85},
		{"tie goes to first declared", &Thread{
			Subject:       "Budget approval from the CFO",
			LastMessageAt: fixedNow,
			Claims:        []Claim{{Type: ClaimCommitment}},
		}, TierMedium, nil, ActionEscalate, "escalate-authority", 0.90},
		{"urgent respond boost capped", &Thread{Subject: "ok", LastMessageAt: fixedNow, Claims: []Claim{{Type: ClaimPromise}}}, TierUrgent, nil, ActionRespond, "respond-commitment", 1.0},
		{"urgent respond boost", fresh("Are you free Thursday?"), TierUrgent, nil, ActionRespond, "respond-question", 0.90},
		{"nothing matches", fresh("Quarterly numbers"), TierMedium, nil, ActionReview, "review", 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := classify(tt.thread, tt.tier, tt.mut)
			if got.Action != tt.wantAction || got.Rule != tt.wantRule {
				t.Errorf("got %s/%s, want %s/%s", got.Action, got.Rule, tt.wantAction, tt.wantRule)
			}
			assertScore(t, "confidence", got.Confidence, tt.wantConf)
			if !got.Action.Valid() {
				t.Errorf("action %q outside the closed set", got.Action)
			}
		})
	}
}

func TestClassifyAction_ReviewFallbackExact(t *testing.T) {
	t.Parallel()

	got := ClassifyAction(ActionContext{}, fixedNow)
	if got.Action != ActionReview || got.Confidence != 0.5 || got.Details != nil {
		t.Errorf("fallback = %+v, want review/0.5 with no details", got)
	}
}

func TestClassifyAction_Deterministic(t *testing.T) {
	t.Parallel()

	ac := ActionContext{
		Thread:   budgetThread(),
		Priority: CalculatePriority(budgetThread(), fixedNow),
		Team:     []TeamMember{{ID: "u3", Name: "Carol", Expertise: []Expertise{ExpertiseFinance}, Available: true}},
	}
	first := ClassifyAction(ac, fixedNow)
	for range 10 {
		if got := ClassifyAction(ac, fixedNow); !reflect.DeepEqual(got, first) {
			t.Fatalf("classification changed: %+v then %+v", first, got)
		}
	}
}

func TestClassifyAction_BudgetScenario(t *testing.T) {
	t.Parallel()

	th := budgetThread()
	pr := CalculatePriority(th, fixedNow)
	if pr.Tier != TierUrgent {
		t.Fatalf("tier = %q, want urgent", pr.Tier)
	}

	got := ClassifyAction(ActionContext{Thread: th, Priority: pr}, fixedNow)
	if got.Action != ActionRespond {
		t.Errorf("action = %q, want respond", got.Action)
	}

	th.Body = "Also needs approval from my manager before Friday."
	got = ClassifyAction(ActionContext{Thread: th, Priority: pr}, fixedNow)
	if got.Action != ActionEscalate || got.Rule != "escalate-authority" {
		t.Errorf("with manager approval: %s/%s, want escalate/escalate-authority", got.Action, got.Rule)
	}
	if got.Details == nil || got.Details.EscalationReason == "" {
		t.Error("expected escalation reason")
	}
}

func TestClassifyAction_NewsletterScenario(t *testing.T) {
	t.Parallel()

	th := newsletterThread()
	pr := CalculatePriority(th, fixedNow)
	if pr.Tier != TierLow {
		t.Fatalf("tier = %q, want low (u=%v i=%v)", pr.Tier, pr.UrgencyScore, pr.ImportanceScore)
	}
	if pr.UrgencyScore > 0.05 {
		t.Errorf("urgency = %v, want about 0", pr.UrgencyScore)
	}

	got := ClassifyAction(ActionContext{Thread: th, Priority: pr}, fixedNow)
	if got.Action != ActionArchive || got.Rule != "archive-newsletter" {
		t.Errorf("got %s/%s, want archive/archive-newsletter", got.Action, got.Rule)
	}
	assertScore(t, "confidence", got.Confidence, 0.9)
}

func TestClassifyAction_SenderPatterns(t *testing.T) {
	t.Parallel()

	patterns := func(s ActionStats) func(*ActionContext) {
		return func(ac *ActionContext) {
			ac.Patterns = &UserPatterns{SenderActions: map[string]ActionStats{"pat@example.com": s}}
		}
	}

	tests := []struct {
		name     string
		stats    ActionStats
		wantRule string
	}{
		{"mostly archived", ActionStats{Archived: 8, Total: 10}, "pattern-archive-sender"},
		{"mostly answered", ActionStats{Responded: 9, Total: 10}, "pattern-respond-sender"},
		{"too little history", ActionStats{Archived: 4, Total: 4}, "review"},
		{"mixed", ActionStats{Archived: 5, Responded: 5, Total: 10}, "review"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := classify(fresh("Weekly numbers"), TierMedium, patterns(tt.stats))
			if got.Rule != tt.wantRule {
				t.Errorf("rule = %q, want %q", got.Rule, tt.wantRule)
			}
		})
	}
}

func TestClassifyAction_Details(t *testing.T) {
	t.Parallel()

	t.Run("schedule busy uses next free slot", func(t *testing.T) {
		t.Parallel()
		cal := &Calendar{Slots: []CalendarSlot{
			{Start: fixedNow.Add(-30 * time.Minute), End: fixedNow.Add(time.Hour), Busy: true},
			{Start: fixedNow.Add(2 * time.Hour), End: fixedNow.Add(3 * time.Hour)},
		}}
		got := classify(fresh("Quarterly numbers"), TierHigh, func(ac *ActionContext) { ac.Calendar = cal })
		if got.Rule != "schedule-busy" {
			t.Fatalf("rule = %q, want schedule-busy", got.Rule)
		}
		if got.Details == nil || got.Details.ScheduleAt == nil || !got.Details.ScheduleAt.Equal(fixedNow.Add(2*time.Hour)) {
			t.Errorf("details = %+v", got.Details)
		}
		if got.Details.ScheduleMinutes != 30 {
			t.Errorf("ScheduleMinutes = %d, want 30", got.Details.ScheduleMinutes)
		}
	})

	t.Run("schedule busy without free slot waits for busy end", func(t *testing.T) {
		t.Parallel()
		cal := &Calendar{Slots: []CalendarSlot{{Start: fixedNow, End: fixedNow.Add(time.Hour), Busy: true}}}
		got := classify(fresh("Quarterly numbers"), TierHigh, func(ac *ActionContext) { ac.Calendar = cal })
		if got.Details == nil || !got.Details.ScheduleAt.Equal(fixedNow.Add(time.Hour)) {
			t.Errorf("details = %+v", got.Details)
		}
	})

	t.Run("complex work defaults to tomorrow", func(t *testing.T) {
		t.Parallel()
		got := classify(fresh("Draft proposal for Q3"), TierMedium, nil)
		if got.Details == nil || !got.Details.ScheduleAt.Equal(fixedNow.Add(24*time.Hour)) || got.Details.ScheduleMinutes != 60 {
			t.Errorf("details = %+v", got.Details)
		}
	})

	t.Run("complex work skips short free slots", func(t *testing.T) {
		t.Parallel()
		cal := &Calendar{Slots: []CalendarSlot{
			{Start: fixedNow.Add(time.Hour), End: fixedNow.Add(90 * time.Minute)},
			{Start: fixedNow.Add(4 * time.Hour), End: fixedNow.Add(6 * time.Hour)},
		}}
		got := classify(fresh("Draft proposal for Q3"), TierMedium, func(ac *ActionContext) { ac.Calendar = cal })
		if got.Details == nil || !got.Details.ScheduleAt.Equal(fixedNow.Add(4*time.Hour)) {
			t.Errorf("details = %+v", got.Details)
		}
	})

	t.Run("wait windows", func(t *testing.T) {
		t.Parallel()
		got := classify(fresh("Pending approval from procurement"), TierMedium, nil)
		if got.Details == nil || !got.Details.WaitUntil.Equal(fixedNow.Add(48*time.Hour)) || got.Details.WaitReason == "" {
			t.Errorf("details = %+v", got.Details)
		}
	})

	t.Run("delegate names the best member", func(t *testing.T) {
		t.Parallel()
		team := []TeamMember{
			{ID: "u1", Name: "Off", Expertise: []Expertise{ExpertiseTechnical, ExpertiseDesign}, Available: false},
			{ID: "u2", Name: "Bob", Expertise: []Expertise{ExpertiseTechnical}, Available: true},
			{ID: "u4", Name: "Eve", Expertise: []Expertise{ExpertiseTechnical, ExpertiseDesign}, Available: true},
		}
		got := classify(fresh("New UI mockup breaks the API"), TierMedium, func(ac *ActionContext) { ac.Team = team })
		if got.Details == nil || got.Details.DelegateTo == nil || got.Details.DelegateTo.ID != "u4" {
			t.Fatalf("details = %+v", got.Details)
		}
		if got.Details.DelegateReason != "Eve has technical, design expertise" {
			t.Errorf("DelegateReason = %q", got.Details.DelegateReason)
		}
	})
}

func TestClassifyAction_NotMyAreaNeedsAvailableMember(t *testing.T) {
	t.Parallel()

	team := []TeamMember{{ID: "u3", Name: "Carol", Expertise: []Expertise{ExpertiseFinance}, Available: false}}
	got := classify(fresh("Not my area, but the invoice is wrong"), TierMedium, func(ac *ActionContext) { ac.Team = team })
	if got.Action == ActionDelegate {
		t.Errorf("delegated to unavailable member: %+v", got)
	}
}

func TestMatchExpertise_FixedOrder(t *testing.T) {
	t.Parallel()

	got := MatchExpertise("Marketing launch needs a contract, a budget and a new API")
	want := []Expertise{ExpertiseTechnical, ExpertiseFinance, ExpertiseLegal, ExpertiseMarketing}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MatchExpertise = %v, want %v", got, want)
	}
}

func TestBestTeamMember_TieGoesToDirectoryOrder(t *testing.T) {
	t.Parallel()

	team := []TeamMember{
		{ID: "a", Expertise: []Expertise{ExpertiseSales}, Available: true},
		{ID: "b", Expertise: []Expertise{ExpertiseSales}, Available: true},
	}
	m, _ := bestTeamMember(team, []Expertise{ExpertiseSales})
	if m == nil || m.ID != "a" {
		t.Errorf("best = %+v, want a", m)
	}
	if m, _ := bestTeamMember(team, []Expertise{ExpertiseHR}); m != nil {
		t.Errorf("best = %+v, want nil", m)
	}
}

func TestRules_TableShape(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for _, r := range Rules() {
		if seen[r.Name] {
			t.Errorf("duplicate rule %q", r.Name)
		}
		seen[r.Name] = true
		if !r.Action.Valid() || r.Action == ActionReview {
			t.Errorf("rule %q has action %q", r.Name, r.Action)
		}
		if r.Weight <= reviewRule.Weight || r.Weight > 1 {
			t.Errorf("rule %q weight %v outside (0.5, 1]", r.Name, r.Weight)
		}
		if r.Match == nil || r.Reason == "" {
			t.Errorf("rule %q missing predicate or reason", r.Name)
		}
	}
}
