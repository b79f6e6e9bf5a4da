// Package slack sends triage notifications to Slack via incoming webhooks.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/sift/internal/triage"
)

const (
	maxReasoningLen = 3000
	httpTimeout     = 10 * time.Second

	// consecutive webhook failures before the breaker opens
	tripAfter = 5
)

// Notifier sends triage results to a Slack webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
	cb         *gobreaker.CircuitBreaker
}

// New creates a new Slack notifier. If webhookURL is empty, Send is a no-op.
func New(webhookURL string, logger log.Logger) *Notifier {
	if logger == nil {
		logger = log.Nop()
	}
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "slack-webhook",
			MaxRequests: 1,
			Interval:    5 * time.Minute,
			Timeout:     time.Minute,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= tripAfter
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Info(context.Background(), "circuit breaker state changed",
					"breaker", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

// Send posts a triage result to the configured Slack webhook.
// If no webhook URL is configured, it returns nil immediately. While the
// breaker is open Send fails fast with gobreaker.ErrOpenState.
func (n *Notifier) Send(ctx context.Context, result *triage.Result) error {
	if n.webhookURL == "" {
		return nil
	}

	body, err := json.Marshal(buildMessage(result))
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	_, err = n.cb.Execute(func() (interface{}, error) {
		return nil, n.post(ctx, body)
	})
	return err
}

func (n *Notifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func buildMessage(r *triage.Result) map[string]any {
	return map[string]any{
		"blocks": []map[string]any{
			headerBlock(r),
			{"type": "divider"},
			fieldsBlock(r),
			{"type": "divider"},
			reasoningBlock(r),
			{"type": "divider"},
			contextBlock(r),
		},
	}
}

func headerBlock(r *triage.Result) map[string]any {
	title := "Needs attention"
	if r.Action.Action == triage.ActionEscalate {
		title = "Escalation"
	}
	subject := r.Subject
	if subject == "" {
		subject = r.ThreadID
	}
	return map[string]any{
		"type": "header",
		"text": map[string]any{
			"type": "plain_text",
			"text": fmt.Sprintf("%s %s: %s", tierEmoji(r), title, subject),
		},
	}
}

func fieldsBlock(r *triage.Result) map[string]any {
	p := r.Priority
	fields := []map[string]any{
		{"type": "mrkdwn", "text": fmt.Sprintf("*Tier:* %s", p.Tier)},
		{"type": "mrkdwn", "text": fmt.Sprintf("*Action:* %s (%.0f%%)", r.Action.Action, r.Action.Confidence*100)},
		{"type": "mrkdwn", "text": fmt.Sprintf("*Urgency:* %.2f", p.UrgencyScore)},
		{"type": "mrkdwn", "text": fmt.Sprintf("*Importance:* %.2f", p.ImportanceScore)},
		{"type": "mrkdwn", "text": fmt.Sprintf("*Combined:* %.2f", p.CombinedScore)},
		{"type": "mrkdwn", "text": fmt.Sprintf("*Respond by:* %s", respondBy(r))},
	}
	return map[string]any{
		"type":   "section",
		"fields": fields,
	}
}

func reasoningBlock(r *triage.Result) map[string]any {
	var parts []string
	if s := strings.TrimSpace(r.Priority.Reasoning); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(r.Action.Reasoning); s != "" {
		parts = append(parts, s)
	}
	text := truncate(strings.Join(parts, "\n"), maxReasoningLen)
	if text == "" {
		text = "_No reasoning available._"
	}
	return map[string]any{
		"type": "section",
		"text": map[string]any{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Reasoning*\n\n%s", text),
		},
	}
}

func contextBlock(r *triage.Result) map[string]any {
	ts := r.UpdatedAt
	if ts.IsZero() {
		ts = r.CreatedAt
	}
	return map[string]any{
		"type": "context",
		"elements": []map[string]any{
			{
				"type": "mrkdwn",
				"text": fmt.Sprintf("sift • triage %s • rev %d • %s", r.ID, r.Revision, ts.UTC().Format("2006-01-02 15:04 UTC")),
			},
		},
	}
}

func respondBy(r *triage.Result) string {
	if r.Response.SuggestedBy.IsZero() {
		return "n/a"
	}
	s := r.Response.SuggestedBy.UTC().Format("Mon 15:04 UTC")
	if r.Response.WindowHours < 0 {
		s += " (overdue)"
	}
	return s
}

func tierEmoji(r *triage.Result) string {
	if r.Action.Action == triage.ActionEscalate {
		return "\U0001f6a8" // rotating light
	}
	switch r.Priority.Tier {
	case triage.TierUrgent:
		return "\U0001f534" // red circle
	case triage.TierHigh:
		return "\U0001f7e0" // orange circle
	case triage.TierMedium:
		return "\U0001f7e1" // yellow circle
	default:
		return "\U0001f7e2" // green circle
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
