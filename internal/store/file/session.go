// Package file implements file-backed session persistence
// (e.g. ~/.pairlink/session.json).
package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/nextlevelbuilder/pairlink/internal/store"
)

// SessionStore persists the active session to a JSON file.
type SessionStore struct {
	path string
	mu   sync.Mutex
}

// NewSessionStore creates a session store writing to path.
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path}
}

// Load returns the persisted session, or ok=false when the file does not
// exist or does not hold a code.
func (s *SessionStore) Load() (store.SessionData, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return store.SessionData{}, false
	}

	var data store.SessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return store.SessionData{}, false
	}
	if data.Code == "" {
		return store.SessionData{}, false
	}
	return data, true
}

// Save persists the session record, creating the parent directory if
// needed.
func (s *SessionStore) Save(data store.SessionData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create session store dir: %w", err)
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0600); err != nil {
		return fmt.Errorf("write session store: %w", err)
	}
	return nil
}

// Clear removes the persisted session. A missing file is not an error.
func (s *SessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear session store: %w", err)
	}
	return nil
}
