// apps/go-server/internal/game/engine.go
//
// Round engine for the capitals game.
// Responsibilities:
//   - Pick a capital from the difficulty tier of the current round.
//   - Resolve it to a street-level image, retrying a bounded number of times.
//   - Evaluate guesses: either the capital or the country is accepted.
//   - Replace the target after MaxTries wrong guesses without advancing the round.
//
// The engine holds no per-player state. Every call receives the player's *Session
// explicitly; loading and saving it is the caller's job.

package game

import (
	"context"
	"errors"
	"time"

	"github.com/robalobadob/capitals/apps/go-server/internal/capitals"
	"github.com/robalobadob/capitals/apps/go-server/internal/retry"
	"github.com/robalobadob/capitals/apps/go-server/internal/rng"
)

const (
	defaultMaxTries        = 3
	defaultRoundAttempts   = 3
	defaultRoundRetryDelay = time.Second
)

var (
	// ErrOutOfRounds signals normal game completion.
	ErrOutOfRounds = errors.New("game: no rounds left")
	// ErrRoundFailure means no image could be found for the tier; retryable.
	ErrRoundFailure = errors.New("game: could not start round")
	// ErrNoActiveTarget is returned when a guess arrives with no round in progress.
	ErrNoActiveTarget = errors.New("game: no active target")
	// ErrEmptyGuess is returned for blank input; nothing is counted.
	ErrEmptyGuess = errors.New("game: empty guess")
)

// Resolver turns a coordinate into an image id (see imagery.Resolver).
type Resolver interface {
	Resolve(ctx context.Context, lat, lon float64) (string, error)
}

// Options tunes the engine. Zero values take the defaults.
type Options struct {
	MaxTries        int
	RoundAttempts   int
	RoundRetryDelay time.Duration
	Sleep           func(ctx context.Context, d time.Duration) error // nil sleeps for real
	Now             func() time.Time                                 // nil is time.Now
}

// Engine combines the schedule, the dataset and the resolver.
type Engine struct {
	caps     []capitals.Capital
	sched    Schedule
	resolver Resolver
	rand     rng.Rand
	retry    retry.Policy
	maxTries int
	now      func() time.Time
}

// New constructs an engine. caps must be the dataset the schedule was built for.
func New(caps []capitals.Capital, sched Schedule, resolver Resolver, r rng.Rand, opts Options) *Engine {
	if opts.MaxTries <= 0 {
		opts.MaxTries = defaultMaxTries
	}
	if opts.RoundAttempts <= 0 {
		opts.RoundAttempts = defaultRoundAttempts
	}
	if opts.RoundRetryDelay < 0 {
		opts.RoundRetryDelay = 0
	} else if opts.RoundRetryDelay == 0 {
		opts.RoundRetryDelay = defaultRoundRetryDelay
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		caps:     caps,
		sched:    sched,
		resolver: resolver,
		rand:     r,
		retry: retry.Policy{
			Attempts: opts.RoundAttempts,
			Backoff:  retry.Constant(opts.RoundRetryDelay),
			Sleep:    opts.Sleep,
		},
		maxTries: opts.MaxTries,
		now:      opts.Now,
	}
}

// TotalRounds is the number of rounds in a game.
func (e *Engine) TotalRounds() int { return e.sched.TotalRounds() }

// MaxTries is the number of wrong guesses before a target is replaced.
func (e *Engine) MaxTries() int { return e.maxTries }

// Finished reports whether s has played every round.
func (e *Engine) Finished(s *Session) bool { return s.Round >= e.TotalRounds() }

// NewGame resets s to the first round with no target.
func (e *Engine) NewGame(s *Session) { s.Reset() }

// Current returns the display payload of the active target, if any.
func (e *Engine) Current(s *Session) (Round, bool) {
	if s.Target == nil {
		return Round{}, false
	}
	return e.display(s), true
}

func (e *Engine) display(s *Session) Round {
	return Round{
		ImageID: s.Target.ImageID,
		Label:   s.Target.Label,
		Number:  s.Round + 1,
		Total:   e.TotalRounds(),
	}
}
