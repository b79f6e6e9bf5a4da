// Package sqlitestore provides a single-file SQLite implementation of triage.Store.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/sift/internal/triage"

	_ "modernc.org/sqlite"
)

var tracer = otel.Tracer("github.com/linnemanlabs/sift/internal/triage/sqlitestore")

// timeFormat is fixed width so stored timestamps sort lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

// Store persists triage results in a SQLite database file.
type Store struct {
	conn *sql.DB
	path string
}

// Open opens (or creates) a database at the given path and applies the schema.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}

	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// one writer at a time
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(Schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &Store{conn: conn, path: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

const resultColumns = `id, thread_id, subject, last_message_at, revision,
	priority, action_detail, response, created_at, updated_at, duration_s`

func startSpan(ctx context.Context, name, op string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("db.system", "sqlite"),
		attribute.String("db.operation.name", op),
	))
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Get retrieves a triage result by ID.
func (s *Store) Get(ctx context.Context, id string) (*triage.Result, bool, error) {
	ctx, span := startSpan(ctx, "sqlitestore.Get", "SELECT")
	defer span.End()

	r, err := scanResult(s.conn.QueryRowContext(ctx, `SELECT `+resultColumns+` FROM triage_results WHERE id = ?`, id))
	if err != nil {
		fail(span, err)
		return nil, false, err
	}
	return r, r != nil, nil
}

// GetByThread retrieves the triage result for a thread.
func (s *Store) GetByThread(ctx context.Context, threadID string) (*triage.Result, bool, error) {
	ctx, span := startSpan(ctx, "sqlitestore.GetByThread", "SELECT")
	defer span.End()

	r, err := scanResult(s.conn.QueryRowContext(ctx, `SELECT `+resultColumns+` FROM triage_results WHERE thread_id = ?`, threadID))
	if err != nil {
		fail(span, err)
		return nil, false, err
	}
	return r, r != nil, nil
}

// Put inserts or replaces the result for a thread.
func (s *Store) Put(ctx context.Context, r *triage.Result) error {
	ctx, span := startSpan(ctx, "sqlitestore.Put", "UPSERT")
	defer span.End()

	priorityJSON, err := json.Marshal(r.Priority)
	if err != nil {
		fail(span, err)
		return fmt.Errorf("marshal priority: %w", err)
	}
	actionJSON, err := json.Marshal(r.Action)
	if err != nil {
		fail(span, err)
		return fmt.Errorf("marshal action: %w", err)
	}
	responseJSON, err := json.Marshal(r.Response)
	if err != nil {
		fail(span, err)
		return fmt.Errorf("marshal response: %w", err)
	}

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO triage_results
			(id, thread_id, subject, last_message_at, revision, tier, combined_score, action,
			 priority, action_detail, response, created_at, updated_at, duration_s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(thread_id) DO UPDATE SET
			id              = excluded.id,
			subject         = excluded.subject,
			last_message_at = excluded.last_message_at,
			revision        = excluded.revision,
			tier            = excluded.tier,
			combined_score  = excluded.combined_score,
			action          = excluded.action,
			priority        = excluded.priority,
			action_detail   = excluded.action_detail,
			response        = excluded.response,
			created_at      = excluded.created_at,
			updated_at      = excluded.updated_at,
			duration_s      = excluded.duration_s`,
		r.ID, r.ThreadID, r.Subject, formatTime(r.LastMessageAt), r.Revision,
		string(r.Priority.Tier), r.Priority.CombinedScore, string(r.Action.Action),
		string(priorityJSON), string(actionJSON), string(responseJSON),
		formatTime(r.CreatedAt), formatTime(r.UpdatedAt), r.Duration,
	)
	if err != nil {
		fail(span, err)
		return fmt.Errorf("upsert result: %w", err)
	}
	return nil
}

// List returns results ordered by combined score, then most recently updated.
func (s *Store) List(ctx context.Context, f triage.ListFilter) ([]*triage.Result, error) {
	ctx, span := startSpan(ctx, "sqlitestore.List", "SELECT")
	defer span.End()

	limit := f.Limit
	if limit <= 0 {
		limit = -1 // no limit
	}
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+resultColumns+` FROM triage_results
		 WHERE (? = '' OR tier = ?)
		 ORDER BY combined_score DESC, updated_at DESC, id
		 LIMIT ?`,
		string(f.Tier), string(f.Tier), limit,
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

type scanner interface {
	Scan(dest ...any) error
}

// scanResult returns (nil, nil) when no row is found.
func scanResult(row scanner) (*triage.Result, error) {
	var r triage.Result
	var lastMessageAt, createdAt, updated string
	var priorityJSON, actionJSON, respJSON string
	err := row.Scan(&r.ID, &r.ThreadID, &r.Subject, &lastMessageAt, &r.Revision,
		&priorityJSON, &actionJSON, &respJSON, &createdAt, &updated, &r.Duration)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan: %w", err)
	}

	if r.LastMessageAt, err = parseTime(lastMessageAt); err != nil {
		return nil, err
	}
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(priorityJSON), &r.Priority); err != nil {
		return nil, fmt.Errorf("unmarshal priority: %w", err)
	}
	if err := json.Unmarshal([]byte(actionJSON), &r.Action); err != nil {
		return nil, fmt.Errorf("unmarshal action: %w", err)
	}
	if err := json.Unmarshal([]byte(respJSON), &r.Response); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &r, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
