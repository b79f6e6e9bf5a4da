// Package pgstore provides a PostgreSQL implementation of triage.Store.
package pgstore

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/sift/internal/triage"
)

var tracer = otel.Tracer("github.com/linnemanlabs/sift/internal/triage/pgstore")

//go:embed schema.sql
var schema string

// Store persists triage results in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema on the given pool and returns a ready Store.
// The caller owns the pool.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

const resultColumns = `id, thread_id, subject, last_message_at, revision,
	priority, action_detail, response, created_at, updated_at, duration_s`

func startSpan(ctx context.Context, name, op string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", op),
	))
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Get retrieves a triage result by ID.
func (s *Store) Get(ctx context.Context, id string) (*triage.Result, bool, error) {
	ctx, span := startSpan(ctx, "pgstore.Get", "SELECT")
	defer span.End()

	r, err := scanResult(s.pool.QueryRow(ctx, `SELECT `+resultColumns+` FROM triage_results WHERE id = $1`, id))
	if err != nil {
		fail(span, err)
		return nil, false, err
	}
	return r, r != nil, nil
}

// GetByThread retrieves the triage result for a thread.
func (s *Store) GetByThread(ctx context.Context, threadID string) (*triage.Result, bool, error) {
	ctx, span := startSpan(ctx, "pgstore.GetByThread", "SELECT")
	defer span.End()

	r, err := scanResult(s.pool.QueryRow(ctx, `SELECT `+resultColumns+` FROM triage_results WHERE thread_id = $1`, threadID))
	if err != nil {
		fail(span, err)
		return nil, false, err
	}
	return r, r != nil, nil
}

// Put inserts or replaces the result for a thread (upsert on thread_id).
func (s *Store) Put(ctx context.Context, r *triage.Result) error {
	ctx, span := startSpan(ctx, "pgstore.Put", "UPSERT")
	defer span.End()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		fail(span, err)
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is harmless

	if err := upsertResult(ctx, tx, r); err != nil {
		fail(span, err)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		fail(span, err)
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// List returns results ordered by combined score, then most recently updated.
func (s *Store) List(ctx context.Context, f triage.ListFilter) ([]*triage.Result, error) {
	ctx, span := startSpan(ctx, "pgstore.List", "SELECT")
	defer span.End()
	span.SetAttributes(attribute.String("sift.tier", string(f.Tier)), attribute.Int("sift.limit", f.Limit))

	rows, err := s.pool.Query(ctx,
		`SELECT `+resultColumns+` FROM triage_results
		 WHERE ($1 = '' OR tier = $1)
		 ORDER BY combined_score DESC, updated_at DESC, id
		 LIMIT NULLIF($2::int, 0)`,
		string(f.Tier), f.Limit,
	)
	if err != nil {
		fail(span, err)
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []*triage.Result
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			fail(span, err)
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		fail(span, err)
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return out, nil
}

func upsertResult(ctx context.Context, tx pgx.Tx, r *triage.Result) error {
	priorityJSON, err := json.Marshal(r.Priority)
	if err != nil {
		return fmt.Errorf("marshal priority: %w", err)
	}
	actionJSON, err := json.Marshal(r.Action)
	if err != nil {
		return fmt.Errorf("marshal action: %w", err)
	}
	responseJSON, err := json.Marshal(r.Response)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}

	var lastMessageAt *time.Time
	if !r.LastMessageAt.IsZero() {
		lastMessageAt = &r.LastMessageAt
	}

	query := `INSERT INTO triage_results (
		id, thread_id, subject, last_message_at, revision, tier,
		urgency_score, importance_score, combined_score, action, confidence,
		priority, action_detail, response, created_at, updated_at, duration_s
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	ON CONFLICT (thread_id) DO UPDATE SET
		id               = EXCLUDED.id,
		subject          = EXCLUDED.subject,
		last_message_at  = EXCLUDED.last_message_at,
		revision         = EXCLUDED.revision,
		tier             = EXCLUDED.tier,
		urgency_score    = EXCLUDED.urgency_score,
		importance_score = EXCLUDED.importance_score,
		combined_score   = EXCLUDED.combined_score,
		action           = EXCLUDED.action,
		confidence       = EXCLUDED.confidence,
		priority         = EXCLUDED.priority,
		action_detail    = EXCLUDED.action_detail,
		response         = EXCLUDED.response,
		created_at       = EXCLUDED.created_at,
		updated_at       = EXCLUDED.updated_at,
		duration_s       = EXCLUDED.duration_s`

	_, err = tx.Exec(ctx, query,
		r.ID, r.ThreadID, r.Subject, lastMessageAt, r.Revision, string(r.Priority.Tier),
		r.Priority.UrgencyScore, r.Priority.ImportanceScore, r.Priority.CombinedScore,
		string(r.Action.Action), r.Action.Confidence,
		priorityJSON, actionJSON, responseJSON, r.CreatedAt, r.UpdatedAt, r.Duration,
	)
	if err != nil {
		return fmt.Errorf("upsert result: %w", err)
	}
	return nil
}

// scanResult scans a single row into a triage.Result.
// Returns (nil, nil) when no row is found.
func scanResult(row pgx.Row) (*triage.Result, error) {
	var (
		r             triage.Result
		lastMessageAt *time.Time
		priorityJSON  []byte
		actionJSON    []byte
		responseJSON  []byte
	)

	err := row.Scan(
		&r.ID, &r.ThreadID, &r.Subject, &lastMessageAt, &r.Revision,
		&priorityJSON, &actionJSON, &responseJSON, &r.CreatedAt, &r.UpdatedAt, &r.Duration,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan: %w", err)
	}

	if lastMessageAt != nil {
		r.LastMessageAt = *lastMessageAt
	}
	if err := json.Unmarshal(priorityJSON, &r.Priority); err != nil {
		return nil, fmt.Errorf("unmarshal priority: %w", err)
	}
	if err := json.Unmarshal(actionJSON, &r.Action); err != nil {
		return nil, fmt.Errorf("unmarshal action: %w", err)
	}
	if err := json.Unmarshal(responseJSON, &r.Response); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &r, nil
}
