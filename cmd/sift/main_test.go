package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/linnemanlabs/sift/internal/triage"
)

const budget = `{"thread":{
	"id":"th-budget",
	"subject":"Please confirm budget approval by Friday",
	"last_message_at":"2026-03-04T09:00:00Z",
	"message_count":2,
	"participants":[{"address":"cfo@example.com","name":"Dana","is_vip":true}],
	"claims":[{"type":"commitment","text":"Will send the approved budget","due_date":"2026-03-05T04:00:00Z"}]
}}`

var newsletter = `{
	"id":"th-news",
	"subject":"Unsubscribe from our newsletter",
	"last_message_at":"2026-03-04T10:00:00Z",
	"participants":[{"address":"news@shop.example"}` + strings.Repeat(`,{"address":"reader@example.org"}`, 11) + `]
}`

// execute runs the root command with args and returns stdout. Commands share
// package-level flag state so these tests do not run in parallel.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	jsonOutput, nowFlag, workers, sinceHours = false, "", triage.DefaultWorkers, 0

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestScore_JSON(t *testing.T) {
	out, err := execute(t, "", "score", writeFile(t, budget), "--json", "--now", "2026-03-04T10:00:00Z")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	var ev triage.Evaluation
	if err := json.Unmarshal([]byte(out), &ev); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if ev.Priority.Tier != triage.TierUrgent || ev.Action.Action != triage.ActionRespond {
		t.Errorf("tier/action = %s/%s, want urgent/respond", ev.Priority.Tier, ev.Action.Action)
	}
	if ev.Response.Source != triage.SourceTier || ev.Response.WindowHours != 2 {
		t.Errorf("response = %+v", ev.Response)
	}
}

func TestScore_SinceHoursBoosts(t *testing.T) {
	path := writeFile(t, budget)
	base, err := execute(t, "", "score", path, "--json", "--now", "2026-03-04T10:00:00Z")
	if err != nil {
		t.Fatal(err)
	}
	boosted, err := execute(t, "", "score", path, "--json", "--now", "2026-03-04T10:00:00Z", "--since-hours", "24")
	if err != nil {
		t.Fatal(err)
	}
	var a, b triage.Evaluation
	_ = json.Unmarshal([]byte(base), &a)
	_ = json.Unmarshal([]byte(boosted), &b)
	if b.Priority.UrgencyScore <= a.Priority.UrgencyScore {
		t.Errorf("urgency %v -> %v, want boost", a.Priority.UrgencyScore, b.Priority.UrgencyScore)
	}
	if b.Priority.Factors.Urgency.TimeDecayBoost != 0.2 {
		t.Errorf("TimeDecayBoost = %v, want 0.2", b.Priority.Factors.Urgency.TimeDecayBoost)
	}
}

func TestScore_Rendered(t *testing.T) {
	out, err := execute(t, "", "score", writeFile(t, budget), "--now", "2026-03-04T10:00:00Z")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	for _, want := range []string{"URGENT", "budget approval", "→ respond", "respond by"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestClassify_StdinBareThread(t *testing.T) {
	out, err := execute(t, newsletter, "classify", "-", "--json", "--now", "2026-03-04T10:00:00Z")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	var a triage.ActionSuggestion
	if err := json.Unmarshal([]byte(out), &a); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if a.Action != triage.ActionArchive || a.Rule != "archive-newsletter" {
		t.Errorf("action = %s (%s), want archive (archive-newsletter)", a.Action, a.Rule)
	}
}

func TestRank(t *testing.T) {
	input := `[` + newsletter + `,{"id":"th-fire","subject":"URGENT: production down, need help asap","last_message_at":"2026-03-04T09:30:00Z"}]`

	out, err := execute(t, input, "rank", "-", "--json", "--now", "2026-03-04T10:00:00Z", "--workers", "2")
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	var ranked []triage.Ranked
	if err := json.Unmarshal([]byte(out), &ranked); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(ranked) != 2 || ranked[0].ThreadID != "th-fire" || ranked[1].ThreadID != "th-news" {
		t.Errorf("ranked = %+v", ranked)
	}

	out, err = execute(t, `{"threads":[]}`, "rank", "-", "--json")
	if err != nil {
		t.Fatalf("rank empty: %v", err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("empty rank = %q, want []", out)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		is    error
	}{
		{"bad now", budget, []string{"score", "-", "--now", "yesterday"}, nil},
		{"missing file", "", []string{"score", filepath.Join(t.TempDir(), "nope.json")}, nil},
		{"invalid json", "{", []string{"classify", "-"}, nil},
		{"no thread id", `{"subject":"hi"}`, []string{"score", "-"}, triage.ErrInvalidRequest},
		{"rank bad body", `"nope"`, []string{"rank", "-"}, nil},
		{"missing arg", "", []string{"score"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.stdin, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("err = %v, want %v", err, tt.is)
			}
		})
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "sift version ") {
		t.Errorf("version = %q", out)
	}
}

func TestDecodeRequest(t *testing.T) {
	req, err := decodeRequest([]byte(budget))
	if err != nil || req.Thread.ID != "th-budget" {
		t.Fatalf("full request = %+v, %v", req, err)
	}
	req, err = decodeRequest([]byte(newsletter))
	if err != nil || req.Thread.ID != "th-news" || len(req.Thread.Participants) != 12 {
		t.Fatalf("bare thread = %+v, %v", req, err)
	}
}
