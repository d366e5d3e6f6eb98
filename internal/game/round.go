// apps/go-server/internal/game/round.go
//
// Round controller: pick a random capital from the current tier and resolve an
// image for it. A failed resolution retries the whole pick-and-resolve (so a
// different capital may be chosen) after a short fixed delay.

package game

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// StartRound assigns a fresh target for s.Round and returns its display payload.
//
// It returns ErrOutOfRounds when the game is complete and ErrRoundFailure when no
// attempt produced an image. On any error s is left untouched. The round index is
// never advanced here; only a correct guess does that.
func (e *Engine) StartRound(ctx context.Context, s *Session) (Round, error) {
	tier, err := e.sched.TierFor(s.Round)
	if err != nil {
		return Round{}, err
	}

	var target Target
	err = e.retry.Do(ctx, func(ctx context.Context, attempt int) error {
		c := e.caps[tier.Start+e.rand.IntN(tier.Len())]
		id, err := e.resolver.Resolve(ctx, c.Lat, c.Lon)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Str("capital", c.Label()).Msg("round image lookup failed")
			return err
		}
		target = Target{Capital: c, ImageID: id, Label: c.Label()}
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Round{}, ctxErr
		}
		return Round{}, fmt.Errorf("%w: %w", ErrRoundFailure, err)
	}

	s.Target = &target
	if s.StartedAt.IsZero() {
		s.StartedAt = e.now()
	}
	return e.display(s), nil
}
