// Package sqlite implements the session history log on a local SQLite
// database.
package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nextlevelbuilder/pairlink/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS session_history (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	code        TEXT    NOT NULL,
	event       TEXT    NOT NULL,
	occurred_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_session_history_occurred
	ON session_history(occurred_at DESC);
`

// HistoryStore records session transitions in SQLite.
type HistoryStore struct {
	db *sqlx.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*HistoryStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// SQLite allows one writer; the CLI is the only one.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &HistoryStore{db: db}, nil
}

// Append records one transition.
func (h *HistoryStore) Append(code, event string, at time.Time) error {
	_, err := h.db.Exec(
		`INSERT INTO session_history (code, event, occurred_at) VALUES (?, ?, ?)`,
		code, event, at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// Recent returns up to limit transitions, newest first.
func (h *HistoryStore) Recent(limit int) ([]store.HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []store.HistoryEntry
	err := h.db.Select(&entries,
		`SELECT id, code, event, occurred_at FROM session_history
		 ORDER BY occurred_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return entries, nil
}

// Close closes the underlying database.
func (h *HistoryStore) Close() error {
	return h.db.Close()
}
