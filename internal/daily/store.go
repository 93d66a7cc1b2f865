package daily

import (
	"context"
	"database/sql"
)

// Result is one player's completed daily puzzle.
type Result struct {
	UserID    string `json:"userId"`
	Date      string `json:"date"`
	Toggles   int    `json:"toggles"`
	ElapsedMs int64  `json:"elapsedMs"`
}

// LBRow is a leaderboard entry.
type LBRow struct {
	UserID    string `json:"userId"`
	Toggles   int    `json:"toggles"`
	ElapsedMs int64  `json:"elapsedMs"`
}

// Store persists daily results in the daily_results table.
type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// AlreadyPlayed reports whether userID has a result for date.
func (s *Store) AlreadyPlayed(ctx context.Context, userID, date string) (bool, error) {
	var cnt int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM daily_results WHERE user_id=? AND date=?`,
		userID, date,
	).Scan(&cnt)
	return cnt > 0, err
}

// InsertResult records a result. A second result for the same player and
// date is ignored.
func (s *Store) InsertResult(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO daily_results(user_id, date, toggles, elapsed_ms)
		 VALUES(?,?,?,?)`, r.UserID, r.Date, r.Toggles, r.ElapsedMs,
	)
	return err
}

// ClaimResults moves results recorded under from to to. A date on which
// to already has a result keeps that one.
func (s *Store) ClaimResults(ctx context.Context, from, to string) error {
	if from == "" || to == "" || from == to {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE OR IGNORE daily_results SET user_id=? WHERE user_id=?`, to, from)
	return err
}

// Leaderboard returns the fastest results for date, ties broken by fewer
// toggles, then by who finished first.
func (s *Store) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, toggles, elapsed_ms
		 FROM daily_results
		 WHERE date=?
		 ORDER BY elapsed_ms ASC, toggles ASC, created_at ASC, rowid ASC
		 LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []LBRow{}
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.UserID, &r.Toggles, &r.ElapsedMs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
