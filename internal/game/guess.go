// apps/go-server/internal/game/guess.go
//
// Guess evaluation.
//   - Input is trimmed and lowercased.
//   - The capital name or the country name is accepted.
//   - After MaxTries wrong guesses the target is replaced for the same round.
//   - Wrong guesses within two edits of an accepted answer are flagged as close.

package game

import (
	"context"
	"strings"

	"github.com/agnivade/levenshtein"
)

const closeDistance = 2

// Normalize lowercases and trims a guess.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Matches reports whether guess names the target's capital or country.
func (t Target) Matches(guess string) bool {
	g := Normalize(guess)
	if g == "" {
		return false
	}
	return g == Normalize(t.Capital.Name) || g == Normalize(t.Capital.Country)
}

// isClose reports a near miss on either accepted answer.
func (t Target) isClose(guess string) bool {
	g := Normalize(guess)
	if len(g) < 3 {
		return false
	}
	for _, ans := range []string{t.Capital.Name, t.Capital.Country} {
		if levenshtein.ComputeDistance(g, Normalize(ans)) <= closeDistance {
			return true
		}
	}
	return false
}

// SubmitGuess evaluates raw against the active target of s and updates s.
//
// Correct: score and round advance by one, tries reset, target cleared.
// Wrong: tries increments; on reaching MaxTries the target is replaced via
// StartRound and tries reset. If the replacement fails the error is returned and
// the exhausting try is not counted, so s is unchanged.
func (e *Engine) SubmitGuess(ctx context.Context, s *Session, raw string) (Outcome, error) {
	if s.Target == nil {
		return Outcome{}, ErrNoActiveTarget
	}
	guess := Normalize(raw)
	if guess == "" {
		return Outcome{}, ErrEmptyGuess
	}

	t := *s.Target
	if t.Matches(guess) {
		s.Score++
		s.Round++
		s.Tries = 0
		s.Target = nil
		return Outcome{Kind: Correct, Revealed: t.Label, Finished: e.Finished(s)}, nil
	}

	if s.Tries+1 < e.maxTries {
		s.Tries++
		return Outcome{
			Kind:      WrongRetry,
			TriesLeft: e.maxTries - s.Tries,
			Close:     t.isClose(guess),
		}, nil
	}

	next, err := e.StartRound(ctx, s)
	if err != nil {
		return Outcome{}, err
	}
	s.Tries = 0
	return Outcome{Kind: WrongExhausted, Revealed: t.Label, Next: &next}, nil
}
