package triage

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/go-core/log"
)

var tracer = otel.Tracer("github.com/linnemanlabs/sift/internal/triage")

// CompleteEvent carries summary data when an evaluation finishes.
type CompleteEvent struct {
	Tier       Tier
	Action     Action
	Rule       string
	Urgency    float64
	Importance float64
	Duration   float64
	Rescored   bool
}

// EngineHooks holds optional callbacks for observability. Nil fields are skipped.
type EngineHooks struct {
	OnComplete func(e *CompleteEvent)
	OnRank     func(size int, duration float64)
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine's time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithWorkers bounds the number of threads scored concurrently by Rank.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// Engine runs scoring, classification and response-time suggestion.
// It holds no per-thread state and is safe for concurrent use.
type Engine struct {
	logger  log.Logger
	hooks   EngineHooks
	now     func() time.Time
	workers int
}

// NewEngine creates a new triage engine.
func NewEngine(logger log.Logger, hooks EngineHooks, opts ...Option) *Engine {
	if logger == nil {
		logger = log.Nop()
	}
	e := &Engine{
		logger:  logger,
		hooks:   hooks,
		now:     time.Now,
		workers: DefaultWorkers,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Now returns the engine's current time.
func (e *Engine) Now() time.Time { return e.now() }

// Evaluate scores a request and suggests an action and response time.
func (e *Engine) Evaluate(ctx context.Context, req *Request) *Evaluation {
	return e.evaluate(ctx, req, 0, false)
}

// Reevaluate is Evaluate with a time-decay boost for the hours since the last evaluation.
func (e *Engine) Reevaluate(ctx context.Context, req *Request, hoursSince float64) *Evaluation {
	return e.evaluate(ctx, req, hoursSince, true)
}

func (e *Engine) evaluate(ctx context.Context, req *Request, hoursSince float64, rescore bool) *Evaluation {
	start := time.Now()
	now := e.now()

	if req == nil || req.Thread == nil {
		r := Request{Thread: &Thread{}}
		if req != nil {
			r.Team, r.Calendar, r.Patterns = req.Team, req.Calendar, req.Patterns
		}
		req = &r
	}

	ctx, span := tracer.Start(ctx, "triage.evaluate", trace.WithAttributes(
		attribute.String("sift.thread.id", req.Thread.ID),
		attribute.Bool("sift.rescore", rescore),
	))
	defer span.End()

	var pr PriorityResult
	if rescore {
		pr = RecalculatePriority(req.Thread, hoursSince, now)
	} else {
		pr = CalculatePriority(req.Thread, now)
	}

	action := ClassifyAction(ActionContext{
		Thread:   req.Thread,
		Priority: pr,
		Team:     req.Team,
		Calendar: req.Calendar,
		Patterns: req.Patterns,
	}, now)

	resp := SuggestResponseTime(pr.Tier, pr.Factors.Urgency.DeadlineDate, req.Patterns, now)

	ev := &Evaluation{
		Priority: pr,
		Action:   action,
		Response: resp,
		Duration: time.Since(start).Seconds(),
	}

	span.SetAttributes(
		attribute.String("sift.tier", string(pr.Tier)),
		attribute.Float64("sift.urgency", pr.UrgencyScore),
		attribute.Float64("sift.importance", pr.ImportanceScore),
		attribute.String("sift.action", string(action.Action)),
		attribute.String("sift.rule", action.Rule),
	)

	e.logger.Info(ctx, "thread evaluated",
		"thread_id", req.Thread.ID,
		"tier", pr.Tier,
		"combined", pr.CombinedScore,
		"action", action.Action,
		"rule", action.Rule,
	)

	if e.hooks.OnComplete != nil {
		e.hooks.OnComplete(&CompleteEvent{
			Tier:       pr.Tier,
			Action:     action.Action,
			Rule:       action.Rule,
			Urgency:    pr.UrgencyScore,
			Importance: pr.ImportanceScore,
			Duration:   ev.Duration,
			Rescored:   rescore,
		})
	}
	return ev
}

// Rank scores a batch in parallel and orders it by combined score.
func (e *Engine) Rank(ctx context.Context, threads []*Thread) ([]Ranked, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "triage.rank", trace.WithAttributes(
		attribute.Int("sift.batch.size", len(threads)),
	))
	defer span.End()

	out, err := rankThreads(ctx, threads, e.now(), e.workers)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.Error(ctx, err, "batch ranking aborted", "size", len(threads))
		return nil, err
	}

	if e.hooks.OnRank != nil {
		e.hooks.OnRank(len(threads), time.Since(start).Seconds())
	}
	return out, nil
}
