// apps/go-server/internal/imagery/resolver.go
//
// Resolver turns a coordinate into one street-level image id.
//
// Coverage near a capital's exact coordinate is often sparse, so each attempt
// queries a box ten times wider than the last (0.001° → 0.01° → … by default)
// until something is found. Among the candidates of the first non-empty box one
// is chosen uniformly at random so repeat visits see different photos.
// Empty results and ErrUnavailable failures both widen the box; once all attempts
// are spent the resolver gives up with ErrResolutionFailure. Any other lookup
// error ends the search at once, also as ErrResolutionFailure.

package imagery

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/capitals/apps/go-server/internal/retry"
	"github.com/robalobadob/capitals/apps/go-server/internal/rng"
)

var (
	ErrResolutionFailure = errors.New("imagery: no image found")
	errNoCandidates      = errors.New("no candidates in box")
)

// Lookup is the imagery query the resolver depends on; *Client implements it.
type Lookup interface {
	Images(ctx context.Context, box BBox) ([]string, error)
}

// ResolverOptions tunes the expanding search. Zero fields take the defaults.
type ResolverOptions struct {
	Attempts     int     // default 5
	InitialDelta float64 // default 0.001 degrees
	Growth       float64 // default 10
}

// Resolver performs the bounded expanding-box search. It keeps no state between calls.
type Resolver struct {
	lookup Lookup
	rand   rng.Rand
	opts   ResolverOptions
}

// NewResolver builds a resolver over lookup using r for candidate selection.
func NewResolver(lookup Lookup, r rng.Rand, opts ResolverOptions) *Resolver {
	if opts.Attempts <= 0 {
		opts.Attempts = 5
	}
	if opts.InitialDelta <= 0 {
		opts.InitialDelta = 0.001
	}
	if opts.Growth < 1 {
		opts.Growth = 10
	}
	return &Resolver{lookup: lookup, rand: r, opts: opts}
}

// Resolve returns an image id near (lat, lon) or ErrResolutionFailure.
func (r *Resolver) Resolve(ctx context.Context, lat, lon float64) (string, error) {
	delta := r.opts.InitialDelta
	var id string

	policy := retry.Policy{Attempts: r.opts.Attempts}
	err := policy.Do(ctx, func(ctx context.Context, attempt int) error {
		box := NewBBox(lat, lon, delta)
		delta *= r.opts.Growth

		ids, err := r.lookup.Images(ctx, box)
		if err != nil {
			log.Debug().Err(err).Int("attempt", attempt).Str("bbox", box.String()).Msg("imagery lookup failed")
			if !errors.Is(err, ErrUnavailable) {
				// e.g. a malformed request; a wider box fails the same way.
				return retry.Permanent(err)
			}
			return err
		}
		log.Debug().Int("attempt", attempt).Str("bbox", box.String()).Int("candidates", len(ids)).Msg("imagery lookup")
		if len(ids) == 0 {
			return errNoCandidates
		}
		id = ids[r.rand.IntN(len(ids))]
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w near %.4f,%.4f: %w", ErrResolutionFailure, lat, lon, err)
	}
	return id, nil
}
