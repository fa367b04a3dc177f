package daily

import (
	"context"
	"database/sql"
)

// Result is one player's solve of the daily puzzle.
type Result struct {
	UserID       string `json:"userId"`
	Date         string `json:"date"`
	PuzzleIndex  int    `json:"puzzleIndex"`
	FirstAttempt bool   `json:"firstAttempt"`
	ElapsedMs    int    `json:"elapsedMs"`
}

// Store persists results in daily_results (UNIQUE(user_id, date)).
type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) AlreadyPlayed(ctx context.Context, userID, date string) (bool, error) {
	var cnt int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM daily_results WHERE user_id=? AND date=?",
		userID, date,
	).Scan(&cnt)
	return cnt > 0, err
}

// InsertResult keeps the first result of the day; later ones are ignored.
func (s *Store) InsertResult(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO daily_results(user_id, date, puzzle_index, first_attempt, elapsed_ms)
VALUES(?,?,?,?,?)`, r.UserID, r.Date, r.PuzzleIndex, r.FirstAttempt, r.ElapsedMs,
	)
	return err
}

// Claim moves an anonymous player's results to an account. Dates the
// account already has are left with the anonymous id.
func (s *Store) Claim(ctx context.Context, anonID, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE OR IGNORE daily_results SET user_id=? WHERE user_id=?`, userID, anonID)
	return err
}

type LBRow struct {
	UserID       string `json:"userId"`
	FirstAttempt bool   `json:"firstAttempt"`
	ElapsedMs    int    `json:"elapsedMs"`
}

// Leaderboard ranks first-try solves ahead of the rest, then by time.
func (s *Store) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, first_attempt, elapsed_ms
FROM daily_results
WHERE date=?
ORDER BY first_attempt DESC, elapsed_ms ASC, created_at ASC
LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []LBRow{}
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.UserID, &r.FirstAttempt, &r.ElapsedMs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
