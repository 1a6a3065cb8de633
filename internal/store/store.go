// Package store defines the persistence contracts for session state.
package store

import "time"

// SessionData is the locally persisted session record. It is what survives
// a client restart: the code and the last status the client observed.
type SessionData struct {
	Code      string    `json:"code"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionStore persists the active session across restarts.
type SessionStore interface {
	// Load returns the persisted session, or ok=false when none exists.
	Load() (SessionData, bool)
	// Save persists the session record.
	Save(SessionData) error
	// Clear removes the persisted session.
	Clear() error
}

// HistoryEntry is one recorded session transition.
type HistoryEntry struct {
	ID         int64     `db:"id" json:"id"`
	Code       string    `db:"code" json:"code"`
	Event      string    `db:"event" json:"event"`
	OccurredAt time.Time `db:"occurred_at" json:"occurred_at"`
}

// HistoryStore is an append-only log of session transitions.
type HistoryStore interface {
	Append(code, event string, at time.Time) error
	Recent(limit int) ([]HistoryEntry, error)
	Close() error
}
