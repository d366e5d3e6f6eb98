// apps/go-server/internal/results/results.go
//
// Finished-game history and the daily leaderboard.
// Responsibilities:
//   - Turn a completed session into a Result (score, rounds, elapsed time).
//   - Persist it once per game (INSERT OR IGNORE on session_id + start time).
//   - Rank a UTC day's results: highest score first, then fastest.
//
// Players are anonymous. The leaderboard exposes only a short prefix of the
// session ID so rows can be told apart.

package results

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/robalobadob/capitals/apps/go-server/internal/game"
)

// DefaultLimit is the leaderboard size when none is given.
const DefaultLimit = 20

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// ValidDate reports whether s is a YYYY-MM-DD date.
func ValidDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

type Result struct {
	SessionID   string    `json:"-"`
	StartedAt   time.Time `json:"-"`
	Date        string    `json:"date"`
	Score       int       `json:"score"`
	TotalRounds int       `json:"totalRounds"`
	ElapsedMs   int64     `json:"elapsedMs"`
}

// FromSession builds the result of a finished game, dated at now.
func FromSession(s *game.Session, totalRounds int, now time.Time) Result {
	var elapsed time.Duration
	if !s.StartedAt.IsZero() {
		elapsed = now.Sub(s.StartedAt)
	}
	return Result{
		SessionID:   s.ID,
		StartedAt:   s.StartedAt,
		Date:        DateKey(now),
		Score:       s.Score,
		TotalRounds: totalRounds,
		ElapsedMs:   elapsed.Milliseconds(),
	}
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// InsertResult stores r. A second result for the same game (session and start
// time) is ignored.
func (s *Store) InsertResult(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO results (session_id, started_at, date, score, total_rounds, elapsed_ms)
		VALUES (?,?,?,?,?,?)`,
		r.SessionID, r.StartedAt.UnixMilli(), r.Date, r.Score, r.TotalRounds, r.ElapsedMs,
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

type LBRow struct {
	Rank        int    `json:"rank"`
	Player      string `json:"player"`
	Score       int    `json:"score"`
	TotalRounds int    `json:"totalRounds"`
	ElapsedMs   int64  `json:"elapsedMs"`
}

// Leaderboard returns the best results for date. limit <= 0 uses DefaultLimit.
func (s *Store) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT substr(session_id, 1, 8), score, total_rounds, elapsed_ms
		FROM results
		WHERE date=?
		ORDER BY score DESC, elapsed_ms ASC, created_at ASC, id ASC
		LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	out := make([]LBRow, 0, limit)
	for rows.Next() {
		r := LBRow{Rank: len(out) + 1}
		if err := rows.Scan(&r.Player, &r.Score, &r.TotalRounds, &r.ElapsedMs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
