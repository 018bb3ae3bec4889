package store

import (
	"time"

	"github.com/skywatch/solarscope/internal/model"
)

// InsertResult stores one quiz outcome for a user.
func (s *Store) InsertResult(userID int64, category string, score, total int) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO quiz_results (user_id, category, score, total, taken_at)
		 VALUES (?, ?, ?, ?, ?)`,
		userID, category, score, total, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListUserResults returns one user's results, newest first.
func (s *Store) ListUserResults(userID int64) ([]model.Result, error) {
	rows, err := s.db.Query(
		`SELECT u.username, u.email, r.category, r.score, r.total, r.taken_at
		 FROM quiz_results r JOIN users u ON u.id = r.user_id
		 WHERE r.user_id = ? ORDER BY r.taken_at DESC, r.id DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanResults(rows)
}

// ListAllResults returns every stored result joined with user info, newest first.
func (s *Store) ListAllResults() ([]model.Result, error) {
	rows, err := s.db.Query(
		`SELECT u.username, u.email, r.category, r.score, r.total, r.taken_at
		 FROM quiz_results r JOIN users u ON u.id = r.user_id
		 ORDER BY r.taken_at DESC, r.id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanResults(rows)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanResults(rows rowScanner) ([]model.Result, error) {
	var results []model.Result
	for rows.Next() {
		var r model.Result
		if err := rows.Scan(&r.Username, &r.Email, &r.Category, &r.Score, &r.Total, &r.TakenAt); err != nil {
			return nil, err
		}
		r.Percentage = model.Percentage(r.Score, r.Total)
		results = append(results, r)
	}
	return results, rows.Err()
}
