package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/skywatch/solarscope/internal/model"
)

// Login sessions live for a day. The server also reaps leftovers in the
// background, so a lookup never has to trust a stale row.
const sessionLifetime = 24 * time.Hour

// CreateAuthSession mints a random token for the user and stores it with
// its expiry.
func (s *Store) CreateAuthSession(userID int64) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	token := hex.EncodeToString(raw)

	now := time.Now()
	if _, err := s.db.Exec(
		`INSERT INTO auth_sessions (id, user_id, created_at, expires_at)
		 VALUES (?, ?, ?, ?)`,
		token, userID, now, now.Add(sessionLifetime),
	); err != nil {
		return "", err
	}
	return token, nil
}

// GetAuthSession resolves a token to its live session. Unknown and expired
// tokens both come back nil; an expired row is removed on the way out.
func (s *Store) GetAuthSession(token string) (*model.AuthSession, error) {
	var sess model.AuthSession
	err := s.db.QueryRow(
		`SELECT id, user_id, created_at, expires_at
		 FROM auth_sessions WHERE id = ? AND expires_at > ?`,
		token, time.Now(),
	).Scan(&sess.ID, &sess.UserID, &sess.CreatedAt, &sess.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		_, _ = s.db.Exec(
			`DELETE FROM auth_sessions WHERE id = ? AND expires_at <= ?`,
			token, time.Now(),
		)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// DeleteAuthSession logs a token out.
func (s *Store) DeleteAuthSession(token string) error {
	_, err := s.db.Exec(`DELETE FROM auth_sessions WHERE id = ?`, token)
	return err
}

// CleanupExpiredSessions reaps every expired session at once.
func (s *Store) CleanupExpiredSessions() error {
	_, err := s.db.Exec(`DELETE FROM auth_sessions WHERE expires_at < ?`, time.Now())
	return err
}
