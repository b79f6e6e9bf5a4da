// Package display provides terminal formatting for sift CLI output.
package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/linnemanlabs/sift/internal/triage"
)

// Styles
var (
	Muted    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	Dim      = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ca3af"))
	Bold     = lipgloss.NewStyle().Bold(true)
	ErrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#dc2626"))

	UrgentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#dc2626")).Bold(true)
	HighStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ea580c"))
	MediumStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#d97706"))
	LowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
)

func tierStyle(t triage.Tier) lipgloss.Style {
	switch t {
	case triage.TierUrgent:
		return UrgentStyle
	case triage.TierHigh:
		return HighStyle
	case triage.TierMedium:
		return MediumStyle
	case triage.TierLow:
		return LowStyle
	default:
		return Dim
	}
}

// TierDot returns a colored dot for a tier.
func TierDot(t triage.Tier) string {
	switch t {
	case triage.TierUrgent:
		return UrgentStyle.Render("●")
	case triage.TierHigh:
		return HighStyle.Render("●")
	case triage.TierMedium:
		return MediumStyle.Render("○")
	case triage.TierLow:
		return LowStyle.Render("○")
	default:
		return Dim.Render("·")
	}
}

// TierLabel returns a fixed-width styled tier label.
func TierLabel(t triage.Tier) string {
	return tierStyle(t).Render(fmt.Sprintf("%-6s", strings.ToUpper(string(t))))
}

// ScoreBar renders a score in [0,1] as a ten-cell bar followed by the value.
func ScoreBar(score float64) string {
	filled := int(score*10 + 0.5)
	filled = max(0, min(10, filled))
	return strings.Repeat("█", filled) + Dim.Render(strings.Repeat("░", 10-filled)) + fmt.Sprintf(" %.2f", score)
}

// Truncate shortens a string to maxLen, adding ellipsis if needed.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// Until formats the distance from now to t, e.g. "in 2h" or "3h overdue".
func Until(t, now time.Time) string {
	d := t.Sub(now)
	overdue := d < 0
	if overdue {
		d = -d
	}
	var s string
	switch {
	case d < time.Hour:
		s = fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 48*time.Hour:
		s = fmt.Sprintf("%dh", int(d.Hours()))
	default:
		s = fmt.Sprintf("%dd", int(d.Hours()/24))
	}
	if overdue {
		return s + " overdue"
	}
	return "in " + s
}

// Evaluation prints the full triage outcome for one thread.
func Evaluation(w io.Writer, th *triage.Thread, ev *triage.Evaluation, now time.Time) {
	p := ev.Priority
	subject := "(no thread)"
	if th != nil {
		subject = th.Subject
		if subject == "" {
			subject = th.ID
		}
	}
	fmt.Fprintf(w, "%s %s %s\n", TierDot(p.Tier), TierLabel(p.Tier), Bold.Render(Truncate(subject, 72)))
	fmt.Fprintf(w, "  %s %s\n", Muted.Render("urgency    "), ScoreBar(p.UrgencyScore))
	fmt.Fprintf(w, "  %s %s\n", Muted.Render("importance "), ScoreBar(p.ImportanceScore))
	fmt.Fprintf(w, "  %s %s\n", Muted.Render("combined   "), ScoreBar(p.CombinedScore))
	if p.Reasoning != "" {
		fmt.Fprintf(w, "  %s\n", Dim.Render(p.Reasoning))
	}
	fmt.Fprintln(w)
	Action(w, ev.Action, now)
	Response(w, ev.Response, now)
}

// Action prints an action suggestion with its details.
func Action(w io.Writer, a triage.ActionSuggestion, now time.Time) {
	fmt.Fprintf(w, "%s %s %s\n", Bold.Render("→ "+string(a.Action)),
		Dim.Render(fmt.Sprintf("%.0f%%", a.Confidence*100)), Muted.Render("("+a.Rule+")"))
	if a.Reasoning != "" {
		fmt.Fprintf(w, "  %s\n", a.Reasoning)
	}
	d := a.Details
	if d == nil {
		return
	}
	if d.DelegateTo != nil {
		fmt.Fprintf(w, "  %s %s\n", Muted.Render("delegate to"), d.DelegateTo.Name)
	}
	if d.ScheduleAt != nil {
		fmt.Fprintf(w, "  %s %s (%dm, %s)\n", Muted.Render("schedule at"),
			d.ScheduleAt.UTC().Format("Mon Jan 2 15:04 UTC"), d.ScheduleMinutes, Until(*d.ScheduleAt, now))
	}
	if d.WaitUntil != nil {
		fmt.Fprintf(w, "  %s %s\n", Muted.Render("wait until"), d.WaitUntil.UTC().Format("Mon Jan 2 15:04 UTC"))
	}
	if d.EscalationReason != "" {
		fmt.Fprintf(w, "  %s %s\n", ErrStyle.Render("escalate:"), d.EscalationReason)
	}
}

// Response prints the suggested reply-by time.
func Response(w io.Writer, r triage.ResponseSuggestion, now time.Time) {
	if r.SuggestedBy.IsZero() {
		return
	}
	fmt.Fprintf(w, "%s %s %s\n", Muted.Render("respond by"),
		r.SuggestedBy.UTC().Format("Mon Jan 2 15:04 UTC"), Dim.Render("("+Until(r.SuggestedBy, now)+", "+r.Source+")"))
	if r.Deadline != nil {
		fmt.Fprintf(w, "%s %s\n", Muted.Render("deadline  "), r.Deadline.UTC().Format("Mon Jan 2 15:04 UTC"))
	}
}

// Ranked prints a ranked batch, one line per thread.
func Ranked(w io.Writer, ranked []triage.Ranked) {
	if len(ranked) == 0 {
		fmt.Fprintln(w, Muted.Render("no threads"))
		return
	}
	for i, r := range ranked {
		subject := r.Subject
		if subject == "" {
			subject = r.ThreadID
		}
		fmt.Fprintf(w, "%3d. %s %s %s  %s\n", i+1, TierDot(r.Priority.Tier), TierLabel(r.Priority.Tier),
			fmt.Sprintf("%.3f", r.Priority.CombinedScore), Truncate(subject, 60))
	}
}
