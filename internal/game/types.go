// apps/go-server/internal/game/types.go
//
// Core type definitions for the capitals round engine.
// Defines:
//   - Target:  the capital the player must currently name, plus its image.
//   - Session: per-player progress persisted between requests.
//   - Round:   what the presentation layer shows for the active target.
//   - Outcome: the result of evaluating one guess.

package game

import (
	"time"

	"github.com/robalobadob/capitals/apps/go-server/internal/capitals"
)

// Target is the capital/country/image combination being guessed.
type Target struct {
	Capital capitals.Capital `json:"capital"`
	ImageID string           `json:"imageId"`
	Label   string           `json:"label"` // "{name}, {country}"
}

// Session holds the state of one player's game.
//
// Invariants: 0 <= Tries < MaxTries and 0 <= Round <= TotalRounds.
// Round == TotalRounds means the game is complete.
type Session struct {
	ID         string    `json:"id"`
	Round      int       `json:"round"`  // zero-based round index
	Score      int       `json:"score"`  // correct answers so far
	Tries      int       `json:"tries"`  // incorrect tries against the current target
	Target     *Target   `json:"target"` // nil when no round is in progress
	CreatedAt  time.Time `json:"createdAt"`
	StartedAt  time.Time `json:"startedAt"` // first image of the current game was served
	LastActive time.Time `json:"lastActive"`
	Recorded   bool      `json:"recorded"` // final score written to the results table
}

// Reset starts a new game: round, score and tries back to zero, no target.
func (s *Session) Reset() {
	s.Round, s.Score, s.Tries = 0, 0, 0
	s.Target = nil
	s.StartedAt = time.Time{}
	s.Recorded = false
}

// Round is the display payload for an active target.
type Round struct {
	ImageID string `json:"imageId"`
	Label   string `json:"locationLabel"`
	Number  int    `json:"round"` // one-based
	Total   int    `json:"totalRounds"`
}

// OutcomeKind classifies an evaluated guess.
type OutcomeKind string

const (
	Correct        OutcomeKind = "correct"
	WrongRetry     OutcomeKind = "wrong_retry"
	WrongExhausted OutcomeKind = "wrong_exhausted"
)

// Outcome is the result of SubmitGuess.
type Outcome struct {
	Kind      OutcomeKind
	Revealed  string // label of the target that was answered or given up on
	TriesLeft int    // WrongRetry only
	Next      *Round // WrongExhausted: the replacement target
	Finished  bool   // Correct on the final round
	Close     bool   // wrong, but within a typo of an accepted answer
}
