// Package store persists reconciliation runs to SQLite so reviews can
// be resolved later without re-ingesting the sources. The core never
// imports this package; it is wiring around the engine.
package store

// Schema defines the SQL statements to create database tables.
const Schema = `
-- Append-only audit trail. One row per posted transaction, carrying
-- the four-balance snapshot taken immediately after posting.
-- created_at is storage metadata only; it never feeds the engine.
CREATE TABLE IF NOT EXISTS audit_entries (
    seq INTEGER PRIMARY KEY,
    tx_id TEXT NOT NULL UNIQUE,
    source TEXT NOT NULL,
    date TEXT NOT NULL,              -- YYYY-MM-DD
    payer TEXT NOT NULL,             -- 'a' or 'b'
    description TEXT NOT NULL,
    amount TEXT NOT NULL,            -- decimal string, cents precision
    category TEXT NOT NULL,
    confidence REAL NOT NULL,
    share_a TEXT NOT NULL,
    share_b TEXT NOT NULL,
    receivable_a TEXT NOT NULL,
    payable_a TEXT NOT NULL,
    receivable_b TEXT NOT NULL,
    payable_b TEXT NOT NULL,
    notes TEXT NOT NULL,             -- newline-separated
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_audit_entries_date
    ON audit_entries(date);

-- Manual review queue. Rows are inserted open and updated in place
-- exactly once, when a reviewer resolves them.
CREATE TABLE IF NOT EXISTS review_items (
    tx_id TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    date TEXT NOT NULL,
    payer TEXT NOT NULL,
    description TEXT NOT NULL,
    amount TEXT NOT NULL,
    category TEXT,                   -- classifier's guess, may be empty
    reasons TEXT NOT NULL,           -- newline-separated
    status TEXT NOT NULL,            -- 'open' or 'resolved'
    resolved_category TEXT,
    resolved_share_a TEXT,
    resolved_share_b TEXT,
    resolved_by TEXT,
    resolved_at TEXT,                -- RFC 3339
    resolution_note TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_review_items_status
    ON review_items(status);
`

// initializeSchema creates all tables if they don't exist.
func (s *Store) initializeSchema() error {
	_, err := s.db.Exec(Schema)
	return err
}
