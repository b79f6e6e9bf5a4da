// Package memstore provides an in-memory implementation of triage.Store.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/linnemanlabs/sift/internal/triage"
)

// Store holds triage results in memory. Suitable for dev/testing.
type Store struct {
	mu       sync.RWMutex
	results  map[string]*triage.Result // triage ID -> result
	byThread map[string]string         // thread ID -> triage ID
}

// New initializes a new in-memory Store.
func New() *Store {
	return &Store{
		results:  make(map[string]*triage.Result),
		byThread: make(map[string]string),
	}
}

// Get retrieves a triage result by its ID. Returns a copy.
func (s *Store) Get(_ context.Context, id string) (*triage.Result, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[id]
	if !ok {
		return nil, false, nil
	}
	cp := *r
	return &cp, true, nil
}

// GetByThread retrieves the triage result for a thread. Returns a copy.
func (s *Store) GetByThread(_ context.Context, threadID string) (*triage.Result, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byThread[threadID]
	if !ok {
		return nil, false, nil
	}
	cp := *s.results[id]
	return &cp, true, nil
}

// Put stores a copy of the triage result, replacing any earlier result for the same thread.
func (s *Store) Put(_ context.Context, r *triage.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.byThread[r.ThreadID]; ok && prev != r.ID {
		delete(s.results, prev)
	}
	cp := *r
	s.results[r.ID] = &cp
	s.byThread[r.ThreadID] = r.ID
	return nil
}

// List returns copies ordered by combined score, then most recently updated.
func (s *Store) List(_ context.Context, f triage.ListFilter) ([]*triage.Result, error) {
	s.mu.RLock()
	out := make([]*triage.Result, 0, len(s.results))
	for _, r := range s.results {
		if f.Tier != "" && r.Priority.Tier != f.Tier {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Priority.CombinedScore != b.Priority.CombinedScore {
			return a.Priority.CombinedScore > b.Priority.CombinedScore
		}
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.ID < b.ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}
