package triage

import "context"

// Store is the persistence interface for triage results. One result is kept
// per thread; Put replaces it.
type Store interface {
	Get(ctx context.Context, id string) (*Result, bool, error)
	GetByThread(ctx context.Context, threadID string) (*Result, bool, error)
	Put(ctx context.Context, result *Result) error
	// List returns results ordered by combined score, highest first.
	List(ctx context.Context, filter ListFilter) ([]*Result, error)
}

// Notifier delivers results that need the user's attention.
type Notifier interface {
	Send(ctx context.Context, result *Result) error
}
