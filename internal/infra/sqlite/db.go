// Package sqlite implements persistent storage for the credit ledger,
// the audit trail, certificate records, and webhook idempotency keys.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite handle. All access goes through its methods.
type DB struct {
	db *sql.DB
}

// Open opens (creating if necessary) the inkwell database inside dir and
// applies schema migrations.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	dsn := filepath.Join(dir, "inkwell.db") +
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	handle, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	d := &DB{db: handle}
	if err := d.migrate(); err != nil {
		handle.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return d, nil
}

// Close closes the underlying handle.
func (d *DB) Close() error { return d.db.Close() }

func (d *DB) migrate() error {
	for _, stmt := range Migrations() {
		if _, err := d.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:min(40, len(stmt))], err)
		}
	}
	return nil
}

// ─── Schema ─────────────────────────────────────────────────────────────────

// Migrations returns the schema migration statements.
// Each string is a single SQL statement (SQLite executes one at a time).
func Migrations() []string {
	return []string{
		// Per-user spendable balance. Created lazily at 0, never deleted.
		`CREATE TABLE IF NOT EXISTS user_credits (
			user_id    TEXT PRIMARY KEY,
			balance    INTEGER NOT NULL DEFAULT 0 CHECK (balance >= 0),
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,

		// Append-only audit trail. Negative amount = spend.
		`CREATE TABLE IF NOT EXISTS credit_transactions (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    TEXT NOT NULL,
			amount     INTEGER NOT NULL,
			reason     TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tx_user ON credit_transactions(user_id, created_at)`,

		// Signing attestations.
		`CREATE TABLE IF NOT EXISTS certificate_records (
			certificate_id TEXT PRIMARY KEY,
			user_id        TEXT NOT NULL,
			signer_name    TEXT NOT NULL,
			reason         TEXT NOT NULL DEFAULT '',
			document_hash  TEXT NOT NULL,
			created_at     TEXT NOT NULL DEFAULT (datetime('now')),
			expires_at     TEXT,
			revoked_at     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cert_user ON certificate_records(user_id)`,

		// Payment webhook events already turned into credit grants.
		`CREATE TABLE IF NOT EXISTS webhook_events (
			event_id     TEXT PRIMARY KEY,
			event_type   TEXT NOT NULL DEFAULT '',
			processed_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
	}
}
