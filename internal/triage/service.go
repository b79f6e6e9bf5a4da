package triage

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/go-core/log"
)

// DefaultMaxBatch caps Rank when no limit is configured.
const DefaultMaxBatch = 500

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithNotifyMinTier sets the lowest tier that triggers a notification. Escalations always notify.
func WithNotifyMinTier(t Tier) ServiceOption {
	return func(s *Service) {
		if t.Rank() >= 0 {
			s.notifyMin = t
		}
	}
}

// WithMaxBatch caps the number of threads accepted by Rank.
func WithMaxBatch(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.maxBatch = n
		}
	}
}

// Service is the business boundary for triage operations.
type Service struct {
	store     Store
	engine    *Engine
	logger    log.Logger
	metrics   *Metrics
	notifier  Notifier
	notifyMin Tier
	maxBatch  int
}

// NewService creates a new triage service. metrics and notifier may be nil.
func NewService(store Store, engine *Engine, logger log.Logger, metrics *Metrics, notifier Notifier, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	s := &Service{
		store:     store,
		engine:    engine,
		logger:    logger,
		metrics:   metrics,
		notifier:  notifier,
		notifyMin: TierUrgent,
		maxBatch:  DefaultMaxBatch,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Submit scores a thread and stores the result. A thread whose last message
// has not changed since it was last triaged is skipped.
func (s *Service) Submit(ctx context.Context, req *Request) (*SubmitResult, error) {
	if err := req.validate(); err != nil {
		s.countSubmit("invalid")
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "triage.submit", trace.WithAttributes(
		attribute.String("sift.thread.id", req.Thread.ID),
	))
	defer span.End()

	existing, ok, err := s.store.GetByThread(ctx, req.Thread.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.countSubmit("error")
		return nil, fmt.Errorf("lookup thread %s: %w", req.Thread.ID, err)
	}
	if ok && existing.LastMessageAt.Equal(req.Thread.LastMessageAt) {
		s.countSubmit("unchanged")
		return &SubmitResult{ID: existing.ID, Skipped: true, Reason: "unchanged", Result: existing}, nil
	}

	ev := s.engine.Evaluate(ctx, req)
	now := s.engine.Now()

	result := &Result{
		ID:            ulid.Make().String(),
		ThreadID:      req.Thread.ID,
		Subject:       req.Thread.Subject,
		LastMessageAt: req.Thread.LastMessageAt,
		Revision:      1,
		CreatedAt:     now,
	}
	if ok {
		result.ID = existing.ID
		result.Revision = existing.Revision + 1
		result.CreatedAt = existing.CreatedAt
	}
	apply(result, ev, now)

	if err := s.store.Put(ctx, result); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.countSubmit("error")
		return nil, fmt.Errorf("store result for thread %s: %w", req.Thread.ID, err)
	}
	span.SetAttributes(
		attribute.String("sift.triage.id", result.ID),
		attribute.String("sift.tier", string(result.Priority.Tier)),
	)
	s.countSubmit("accepted")

	if s.shouldNotify(result) && (!ok || !s.shouldNotify(existing)) {
		s.dispatch(ctx, result)
	}

	return &SubmitResult{ID: result.ID, Result: result}, nil
}

// Rescore re-evaluates an already triaged thread, boosting urgency for the
// time elapsed since its last evaluation.
func (s *Service) Rescore(ctx context.Context, req *Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "triage.rescore", trace.WithAttributes(
		attribute.String("sift.thread.id", req.Thread.ID),
	))
	defer span.End()

	existing, ok, err := s.store.GetByThread(ctx, req.Thread.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("lookup thread %s: %w", req.Thread.ID, err)
	}
	if !ok {
		return nil, ErrNotFound
	}

	now := s.engine.Now()
	hours := now.Sub(existing.UpdatedAt).Hours()
	ev := s.engine.Reevaluate(ctx, req, hours)

	result := *existing
	result.Subject = req.Thread.Subject
	result.LastMessageAt = req.Thread.LastMessageAt
	result.Revision++
	apply(&result, ev, now)

	if err := s.store.Put(ctx, &result); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("store result for thread %s: %w", req.Thread.ID, err)
	}
	if s.metrics != nil {
		s.metrics.RescoresTotal.WithLabelValues(string(existing.Priority.Tier), string(result.Priority.Tier)).Inc()
	}

	if s.shouldNotify(&result) && !s.shouldNotify(existing) {
		s.dispatch(ctx, &result)
	}
	return &result, nil
}

// Get retrieves a triage result by ID.
func (s *Service) Get(ctx context.Context, id string) (*Result, bool, error) {
	return s.store.Get(ctx, id)
}

// GetByThread retrieves the triage result for a thread.
func (s *Service) GetByThread(ctx context.Context, threadID string) (*Result, bool, error) {
	return s.store.GetByThread(ctx, threadID)
}

// List returns stored results, highest combined score first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Result, error) {
	return s.store.List(ctx, filter)
}

// Rank orders a batch of threads without storing anything.
func (s *Service) Rank(ctx context.Context, threads []*Thread) ([]Ranked, error) {
	if len(threads) > s.maxBatch {
		return nil, fmt.Errorf("%w: %d threads (max %d)", ErrBatchTooLarge, len(threads), s.maxBatch)
	}
	return s.engine.Rank(ctx, threads)
}

func apply(r *Result, ev *Evaluation, now time.Time) {
	r.Priority = ev.Priority
	r.Action = ev.Action
	r.Response = ev.Response
	r.Duration = ev.Duration
	r.UpdatedAt = now
}

func (s *Service) shouldNotify(r *Result) bool {
	if s.notifier == nil || r == nil {
		return false
	}
	return r.Action.Action == ActionEscalate || r.Priority.Tier.Rank() >= s.notifyMin.Rank()
}

// dispatch sends the notification in the background so a slow webhook never
// holds up the caller.
func (s *Service) dispatch(ctx context.Context, r *Result) {
	cp := *r
	go s.notify(context.WithoutCancel(ctx), &cp)
}

func (s *Service) notify(ctx context.Context, r *Result) {
	L := s.logger.With("triage_id", r.ID, "thread_id", r.ThreadID)
	outcome := "sent"
	if err := s.notifier.Send(ctx, r); err != nil {
		outcome = "error"
		L.Error(ctx, err, "notification failed")
	} else {
		L.Info(ctx, "notification sent", "tier", r.Priority.Tier, "action", r.Action.Action)
	}
	if s.metrics != nil {
		s.metrics.NotificationsTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Service) countSubmit(result string) {
	if s.metrics != nil {
		s.metrics.SubmitsTotal.WithLabelValues(result).Inc()
	}
}
