// Package history keeps a local log of gate decisions for operators: messages
// sent after approval, messages rejected, and inbound senders blocked.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Action is the kind of decision recorded.
type Action string

const (
	ActionSent     Action = "sent"
	ActionRejected Action = "rejected"
	ActionBlocked  Action = "blocked"
)

// Decision is one terminal transition.
type Decision struct {
	ID                int64     `json:"id"`
	PendingID         string    `json:"pendingId,omitempty"`
	Action            Action    `json:"action"`
	Address           string    `json:"address"`
	Subject           string    `json:"subject"`
	ProviderMessageID string    `json:"providerMessageId,omitempty"`
	At                time.Time `json:"at"`
}

// Recorder stores decisions.
type Recorder interface {
	Record(ctx context.Context, d Decision) error
}

// SQLiteStore is a Recorder backed by a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and runs migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS decisions (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	pending_id          TEXT NOT NULL DEFAULT '',
	action              TEXT NOT NULL,
	address             TEXT NOT NULL DEFAULT '',
	subject             TEXT NOT NULL DEFAULT '',
	provider_message_id TEXT NOT NULL DEFAULT '',
	at_rfc3339          TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS decisions_at ON decisions (at_rfc3339);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Record appends d. A zero At is set to now.
func (s *SQLiteStore) Record(ctx context.Context, d Decision) error {
	if d.At.IsZero() {
		d.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decisions (pending_id, action, address, subject, provider_message_id, at_rfc3339)
		VALUES (?, ?, ?, ?, ?, ?)`,
		d.PendingID, string(d.Action), d.Address, d.Subject, d.ProviderMessageID,
		d.At.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record decision: %w", err)
	}
	return nil
}

// List returns up to limit decisions, newest first. limit <= 0 returns all.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Decision, error) {
	query := `SELECT id, pending_id, action, address, subject, provider_message_id, at_rfc3339
		FROM decisions ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	decisions := []Decision{}
	for rows.Next() {
		var (
			d      Decision
			action string
			at     string
		)
		if err := rows.Scan(&d.ID, &d.PendingID, &action, &d.Address, &d.Subject, &d.ProviderMessageID, &at); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		d.Action = Action(action)
		if d.At, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("parse decision time %q: %w", at, err)
		}
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}

// Nop discards decisions. It stands in when history is disabled.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, Decision) error { return nil }
