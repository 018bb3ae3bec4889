package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/skywatch/solarscope/internal/model"
)

// SessionStore persists the signed-in identity between runs: the terminal
// analogue of the browser's local storage entry plus its cookie store.
type SessionStore struct {
	path string
}

type savedSession struct {
	User  model.Profile `json:"user"`
	Token string        `json:"token"`
}

// NewSessionStore manages the session file at path.
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path}
}

// DefaultSessionPath returns the per-user location of the session file.
func DefaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "solarscope", "session.json"), nil
}

// Restore reads the saved session. A missing file means anonymous; a corrupt
// file is discarded and also means anonymous, never an error for the caller.
func (s *SessionStore) Restore() (*model.Profile, string) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, ""
	}
	var saved savedSession
	if err := json.Unmarshal(data, &saved); err != nil || saved.User.ID == 0 {
		_ = os.Remove(s.path)
		return nil, ""
	}
	return &saved.User, saved.Token
}

// Save persists the identity and session token.
func (s *SessionStore) Save(p model.Profile, token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.Marshal(savedSession{User: p, Token: token})
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// Clear removes the persisted session.
func (s *SessionStore) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
