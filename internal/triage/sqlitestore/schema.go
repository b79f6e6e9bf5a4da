package sqlitestore

// Schema is applied on every Open.
const Schema = `
CREATE TABLE IF NOT EXISTS triage_results (
    id               TEXT PRIMARY KEY,
    thread_id        TEXT NOT NULL UNIQUE,
    subject          TEXT NOT NULL DEFAULT '',
    last_message_at  TEXT NOT NULL DEFAULT '',
    revision         INTEGER NOT NULL DEFAULT 1,
    tier             TEXT NOT NULL,
    combined_score   REAL NOT NULL,
    action           TEXT NOT NULL,
    priority         TEXT NOT NULL,
    action_detail    TEXT NOT NULL,
    response         TEXT NOT NULL,
    created_at       TEXT NOT NULL,
    updated_at       TEXT NOT NULL,
    duration_s       REAL NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_triage_results_rank ON triage_results(combined_score DESC, updated_at DESC, id);
CREATE INDEX IF NOT EXISTS idx_triage_results_tier ON triage_results(tier);
`
