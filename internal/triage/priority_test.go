package triage

import (
	"fmt"
	"math"
	"reflect"
	"testing"
	"time"
)

func TestRecalculatePriority_ZeroHoursMatchesCalculate(t *testing.T) {
	t.Parallel()

	for _, th := range []*Thread{budgetThread(), newsletterThread(), {}} {
		want := CalculatePriority(th, fixedNow)
		got := RecalculatePriority(th, 0, fixedNow)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("thread %q: recalc(0) = %+v, want %+v", th.ID, got, want)
		}
	}
}

func TestRecalculatePriority_Boost(t *testing.T) {
	t.Parallel()

	base := &Thread{Subject: "hello", LastMessageAt: fixedNow}
	tests := []struct {
		hours float64
		want  float64
	}{
		{0, 0},
		{-5, 0},
		{math.NaN(), 0},
		{7.2, 0.1},
		{14.4, 0.2},
		{72, 0.2},
		{10_000, 0.2},
		{math.Inf(1), 0.2},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.hours), func(t *testing.T) {
			t.Parallel()
			got := RecalculatePriority(base, tt.hours, fixedNow)
			assertScore(t, "urgency", got.UrgencyScore, tt.want)
			assertScore(t, "boost factor", got.Factors.Urgency.TimeDecayBoost, tt.want)
		})
	}
}

func TestRecalculatePriority_BoostIsClamped(t *testing.T) {
	t.Parallel()

	th := budgetThread()
	th.Subject += " urgent asap today"
	got := RecalculatePriority(th, 48, fixedNow)
	if got.UrgencyScore > 1 {
		t.Errorf("urgency = %v, want <= 1", got.UrgencyScore)
	}
}

func TestRecalculatePriority_CanRaiseTier(t *testing.T) {
	t.Parallel()

	// urgency 0.35 from the deadline, importance 0.175 from a single external sender
	th := &Thread{
		Subject:       "Report due by the 10th",
		LastMessageAt: fixedNow,
		Participants:  []Participant{{Address: "a@ext.com"}},
	}
	before := CalculatePriority(th, fixedNow)
	after := RecalculatePriority(th, 72, fixedNow)
	if before.Tier != TierMedium || after.Tier != TierHigh {
		t.Errorf("tier %q -> %q, want medium -> high", before.Tier, after.Tier)
	}
	if after.Reasoning == before.Reasoning {
		t.Error("reasoning should mention the boost")
	}
}

func TestCalculatePriority_BudgetScenario(t *testing.T) {
	t.Parallel()

	got := CalculatePriority(budgetThread(), fixedNow)
	if got.Tier != TierUrgent {
		t.Errorf("tier = %q, want urgent", got.Tier)
	}
	assertScore(t, "combined", got.CombinedScore, 0.6*0.675+0.4*0.68)
	if got.Reasoning == "" {
		t.Error("empty reasoning")
	}
}

func TestBatchCalculatePriority_SortedAndStable(t *testing.T) {
	t.Parallel()

	low1 := &Thread{ID: "low-1", Subject: "hello", LastMessageAt: fixedNow}
	low2 := &Thread{ID: "low-2", Subject: "hello", LastMessageAt: fixedNow}
	mid := &Thread{ID: "mid", Subject: "Report due by the 10th", LastMessageAt: fixedNow}
	top := budgetThread()

	threads := []*Thread{low1, mid, low2, top, nil}
	for _, workers := range []int{0, 1, 3, 64} {
		got := BatchCalculatePriority(threads, fixedNow, workers)
		if len(got) != len(threads) {
			t.Fatalf("workers=%d: got %d results, want %d", workers, len(got), len(threads))
		}
		var ids []string
		for _, r := range got {
			ids = append(ids, r.ThreadID)
		}
		want := []string{"th-budget", "mid", "low-1", "low-2", ""}
		if !reflect.DeepEqual(ids, want) {
			t.Errorf("workers=%d: order = %v, want %v", workers, ids, want)
		}
		if got[0].Index != 3 || got[4].Index != 4 {
			t.Errorf("workers=%d: indexes not preserved: %+v", workers, got)
		}
		for i := 1; i < len(got); i++ {
			if got[i-1].Priority.CombinedScore < got[i].Priority.CombinedScore {
				t.Errorf("workers=%d: not sorted at %d", workers, i)
			}
		}
	}
}

func TestBatchCalculatePriority_MatchesSingle(t *testing.T) {
	t.Parallel()

	th := budgetThread()
	got := BatchCalculatePriority([]*Thread{th}, fixedNow, 2)
	if !reflect.DeepEqual(got[0].Priority, CalculatePriority(th, fixedNow)) {
		t.Error("batch scoring differs from single scoring")
	}
	if out := BatchCalculatePriority(nil, fixedNow, 2); len(out) != 0 {
		t.Errorf("empty batch returned %d results", len(out))
	}
}

func FuzzCalculatePriority_Bounded(f *testing.F) {
	f.Add("URGENT budget approval by Friday?", "$5 million lawsuit", 3, int64(50))
	f.Add("", "", 0, int64(0))
	f.Add("newsletter", "unsubscribe", 40, int64(-10))

	f.Fuzz(func(t *testing.T, subject, body string, participants int, ageHours int64) {
		if participants < 0 || participants > 200 {
			t.Skip()
		}
		th := &Thread{
			Subject:       subject,
			Body:          body,
			Participants:  make([]Participant, participants),
			LastMessageAt: fixedNow.Add(-time.Duration(ageHours%10_000) * time.Hour),
		}
		got := RecalculatePriority(th, float64(ageHours), fixedNow)
		for name, v := range map[string]float64{
			"urgency":    got.UrgencyScore,
			"importance": got.ImportanceScore,
			"combined":   got.CombinedScore,
		} {
			if v < 0 || v > 1 || math.IsNaN(v) {
				t.Fatalf("%s = %v out of range", name, v)
			}
		}
		if got.Tier.Rank() < 0 {
			t.Fatalf("tier %q outside the closed set", got.Tier)
		}
	})
}
