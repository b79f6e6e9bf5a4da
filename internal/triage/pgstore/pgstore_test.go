package pgstore_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/sift/internal/triage"
	"github.com/linnemanlabs/sift/internal/triage/pgstore"
)

func openStore(t *testing.T) *pgstore.Store {
	t.Helper()
	dsn := os.Getenv("SIFT_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("SIFT_TEST_DATABASE_URL not set, skipping integration test")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pgxpool.New: %v", err)
	}
	t.Cleanup(pool.Close)

	s, err := pgstore.New(ctx, pool)
	if err != nil {
		t.Fatalf("pgstore.New: %v", err)
	}
	return s
}

// uniq keeps rows from separate runs against the same database apart.
func uniq(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func sample(id, thread string, tier triage.Tier, combined float64, at time.Time) *triage.Result {
	due := at.Add(6 * time.Hour)
	return &triage.Result{
		ID:            id,
		ThreadID:      thread,
		Subject:       "Please confirm budget approval by Friday",
		LastMessageAt: at.Add(-time.Hour),
		Revision:      1,
		Priority: triage.PriorityResult{
			Tier:            tier,
			UrgencyScore:    0.675,
			ImportanceScore: 0.68,
			CombinedScore:   combined,
			Factors: triage.Factors{
				Urgency:    triage.UrgencyFactors{HasExplicitDeadline: true, DeadlineDate: &due, UrgentKeywords: []string{"urgent"}},
				Importance: triage.ImportanceFactors{SenderImportance: triage.SenderVIP, HasClaim: true, ClaimType: triage.ClaimCommitment},
			},
			Reasoning: "Urgent: needs attention now.",
		},
		Action: triage.ActionSuggestion{
			Action:     triage.ActionRespond,
			Confidence: 1,
			Reasoning:  "Thread carries a commitment that needs follow-through.",
			Rule:       "respond-commitment",
		},
		Response: triage.ResponseSuggestion{
			SuggestedBy: at.Add(2 * time.Hour),
			Deadline:    &due,
			WindowHours: 2,
			Source:      triage.SourceTier,
		},
		CreatedAt: at,
		UpdatedAt: at,
		Duration:  0.0004,
	}
}

func TestPutAndGet(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	now := time.Now().Truncate(time.Microsecond).UTC()
	r := sample(uniq("t"), uniq("th"), triage.TierUrgent, 0.677, now)
	if err := s.Put(ctx, r); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := s.Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("Get returned ok=false, want true")
	}

	assertEqual(t, "ThreadID", r.ThreadID, got.ThreadID)
	assertEqual(t, "Subject", r.Subject, got.Subject)
	assertEqual(t, "Revision", r.Revision, got.Revision)
	assertEqual(t, "Tier", r.Priority.Tier, got.Priority.Tier)
	assertEqual(t, "CombinedScore", r.Priority.CombinedScore, got.Priority.CombinedScore)
	assertEqual(t, "Reasoning", r.Priority.Reasoning, got.Priority.Reasoning)
	assertEqual(t, "Action", r.Action.Action, got.Action.Action)
	assertEqual(t, "Rule", r.Action.Rule, got.Action.Rule)
	assertEqual(t, "Source", r.Response.Source, got.Response.Source)
	assertEqual(t, "Duration", r.Duration, got.Duration)

	if !got.LastMessageAt.Equal(r.LastMessageAt) || !got.CreatedAt.Equal(r.CreatedAt) {
		t.Errorf("timestamps = %v / %v", got.LastMessageAt, got.CreatedAt)
	}
	if d := got.Priority.Factors.Urgency.DeadlineDate; d == nil || !d.Equal(*r.Priority.Factors.Urgency.DeadlineDate) {
		t.Errorf("DeadlineDate = %v", d)
	}
	if kw := got.Priority.Factors.Urgency.UrgentKeywords; len(kw) != 1 || kw[0] != "urgent" {
		t.Errorf("UrgentKeywords = %v", kw)
	}
}

func TestGetMissing(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "nonexistent-id"); err != nil || ok {
		t.Errorf("Get = %v, %v; want ok=false", ok, err)
	}
	if _, ok, err := s.GetByThread(ctx, "nonexistent-thread"); err != nil || ok {
		t.Errorf("GetByThread = %v, %v; want ok=false", ok, err)
	}
}

func TestUpsertByThread(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	now := time.Now().Truncate(time.Microsecond).UTC()
	thread := uniq("th-upsert")
	first := sample(uniq("t"), thread, triage.TierMedium, 0.3, now)
	if err := s.Put(ctx, first); err != nil {
		t.Fatalf("Put first: %v", err)
	}

	second := sample(first.ID, thread, triage.TierUrgent, 0.8, now.Add(time.Hour))
	second.Revision = 2
	second.CreatedAt = first.CreatedAt
	if err := s.Put(ctx, second); err != nil {
		t.Fatalf("Put second: %v", err)
	}

	got, ok, err := s.GetByThread(ctx, thread)
	if err != nil || !ok {
		t.Fatalf("GetByThread = %v, %v", ok, err)
	}
	assertEqual(t, "ID", first.ID, got.ID)
	assertEqual(t, "Revision", 2, got.Revision)
	assertEqual(t, "Tier", triage.TierUrgent, got.Priority.Tier)
	if !got.UpdatedAt.Equal(second.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, second.UpdatedAt)
	}
}

func TestList(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	now := time.Now().Truncate(time.Microsecond).UTC()
	// scores above any other test's rows keep these at the top of the listing
	top := sample(uniq("t-top"), uniq("th"), triage.TierUrgent, 0.999, now)
	next := sample(uniq("t-next"), uniq("th"), triage.TierUrgent, 0.998, now)
	for _, r := range []*triage.Result{next, top} {
		if err := s.Put(ctx, r); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	got, err := s.List(ctx, triage.ListFilter{Tier: triage.TierUrgent, Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].ID != top.ID || got[1].ID != next.ID {
		t.Errorf("List = %v", got)
	}
	for _, r := range got {
		if r.Priority.Tier != triage.TierUrgent {
			t.Errorf("tier filter leaked %q", r.Priority.Tier)
		}
	}
}

func assertEqual[T comparable](t *testing.T, field string, want, got T) {
	t.Helper()
	if want != got {
		t.Errorf("%s: got %v, want %v", field, got, want)
	}
}
