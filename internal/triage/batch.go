package triage

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds batch fan-out when no worker count is configured.
const DefaultWorkers = 8

// BatchCalculatePriority scores each thread independently and returns them
// sorted by combined score, highest first. Equal scores keep input order.
func BatchCalculatePriority(threads []*Thread, now time.Time, workers int) []Ranked {
	out, _ := rankThreads(context.Background(), threads, now, workers)
	return out
}

func rankThreads(ctx context.Context, threads []*Thread, now time.Time, workers int) ([]Ranked, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	out := make([]Ranked, len(threads))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for idx, t := range threads {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := Ranked{Index: idx, Priority: CalculatePriority(t, now)}
			if t != nil {
				r.ThreadID, r.Subject = t.ID, t.Subject
			}
			out[idx] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Priority.CombinedScore > out[b].Priority.CombinedScore
	})
	return out, nil
}
