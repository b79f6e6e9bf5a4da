package postgres

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type (
	statsKey  struct{}
	methodKey struct{}
)

// RequestStats accumulates the queries issued while serving one request.
type RequestStats struct {
	mu      sync.Mutex
	queries int
	errors  int
	total   time.Duration
}

// Add records a single query execution.
func (s *RequestStats) Add(dur time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries++
	s.total += dur
	if err != nil {
		s.errors++
	}
}

// Snapshot returns the query count, error count and total query time so far.
func (s *RequestStats) Snapshot() (queries, errors int, total time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries, s.errors, s.total
}

// WithRequestStats returns a context carrying a fresh RequestStats.
func WithRequestStats(ctx context.Context) context.Context {
	return context.WithValue(ctx, statsKey{}, &RequestStats{})
}

// RequestStatsFrom returns the RequestStats attached to ctx, if any.
func RequestStatsFrom(ctx context.Context) (*RequestStats, bool) {
	s, ok := ctx.Value(statsKey{}).(*RequestStats)
	return s, ok
}

// WithHTTPMethod stores the HTTP method for query metric labels.
func WithHTTPMethod(ctx context.Context, method string) context.Context {
	if method == "" {
		return ctx
	}
	return context.WithValue(ctx, methodKey{}, method)
}

func httpMethodFrom(ctx context.Context) string {
	if v, ok := ctx.Value(methodKey{}).(string); ok {
		return v
	}
	return "UNKNOWN"
}

func routeFrom(ctx context.Context) string {
	if rc := chi.RouteContext(ctx); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unknown"
}

// Middleware tags each request context with its method and a RequestStats,
// and records the totals on the request span once the handler returns.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithRequestStats(WithHTTPMethod(r.Context(), r.Method))
		next.ServeHTTP(w, r.WithContext(ctx))

		stats, _ := RequestStatsFrom(ctx)
		queries, errs, total := stats.Snapshot()
		if queries == 0 {
			return
		}
		trace.SpanFromContext(ctx).SetAttributes(
			attribute.Int("db.query_count", queries),
			attribute.Int("db.error_count", errs),
			attribute.Float64("db.total_duration_s", total.Seconds()),
		)
	})
}
