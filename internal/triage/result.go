package triage

import (
	"errors"
	"time"
)

var (
	// ErrInvalidRequest is returned when a request has no thread or thread ID.
	ErrInvalidRequest = errors.New("thread with id is required")
	// ErrNotFound is returned when a thread has never been triaged.
	ErrNotFound = errors.New("triage result not found")
	// ErrBatchTooLarge is returned when a rank request exceeds the batch limit.
	ErrBatchTooLarge = errors.New("batch too large")
)

// Request is a thread plus the optional context used for action classification.
type Request struct {
	Thread   *Thread       `json:"thread"`
	Team     []TeamMember  `json:"team,omitempty"`
	Calendar *Calendar     `json:"calendar,omitempty"`
	Patterns *UserPatterns `json:"patterns,omitempty"`
}

func (r *Request) validate() error {
	if r == nil || r.Thread == nil || r.Thread.ID == "" {
		return ErrInvalidRequest
	}
	return nil
}

// Evaluation is one full pass of the engine over a request.
type Evaluation struct {
	Priority PriorityResult     `json:"priority"`
	Action   ActionSuggestion   `json:"action"`
	Response ResponseSuggestion `json:"response"`
	Duration float64            `json:"duration_s"`
}

// Result is the persisted triage outcome for a thread.
type Result struct {
	ID            string             `json:"id"`
	ThreadID      string             `json:"thread_id"`
	Subject       string             `json:"subject"`
	LastMessageAt time.Time          `json:"last_message_at"`
	Revision      int                `json:"revision"`
	Priority      PriorityResult     `json:"priority"`
	Action        ActionSuggestion   `json:"action"`
	Response      ResponseSuggestion `json:"response"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	Duration      float64            `json:"duration_s"`
}

// SubmitResult is the outcome of submitting a thread for triage.
type SubmitResult struct {
	ID      string  `json:"id"`
	Skipped bool    `json:"skipped,omitempty"`
	Reason  string  `json:"reason,omitempty"`
	Result  *Result `json:"result,omitempty"`
}

// ListFilter narrows a result listing. Zero values mean no filter.
type ListFilter struct {
	Tier  Tier
	Limit int
}

// Ranked is one entry of a ranked batch.
type Ranked struct {
	ThreadID string         `json:"thread_id"`
	Subject  string         `json:"subject"`
	Index    int            `json:"index"`
	Priority PriorityResult `json:"priority"`
}
