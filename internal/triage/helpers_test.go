package triage

import (
	"math"
	"testing"
	"time"
)

// fixedNow is a Wednesday.
var fixedNow = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func assertScore(t *testing.T, name string, got, want float64) {
	t.Helper()
	if !approx(got, want) {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func timePtr(t time.Time) *time.Time { return &t }

// budgetThread is the "please confirm budget approval" scenario.
func budgetThread() *Thread {
	return &Thread{
		ID:            "th-budget",
		Subject:       "Please confirm budget approval by Friday",
		LastMessageAt: fixedNow.Add(-time.Hour),
		MessageCount:  2,
		Participants: []Participant{
			{Address: "cfo@example.com", Name: "Dana", IsVIP: true},
		},
		Claims: []Claim{
			{Type: ClaimCommitment, Text: "Will send the approved budget", DueDate: timePtr(fixedNow.Add(18 * time.Hour))},
		},
	}
}

// newsletterThread is the "unsubscribe" scenario: a broadcast with no VIPs or claims.
func newsletterThread() *Thread {
	ps := make([]Participant, 12)
	ps[0] = Participant{Address: "news@shop.example"}
	for i := 1; i < len(ps); i++ {
		ps[i] = Participant{Address: "reader@example.org"}
	}
	return &Thread{
		ID:            "th-news",
		Subject:       "Unsubscribe from our newsletter",
		LastMessageAt: fixedNow,
		Participants:  ps,
	}
}
