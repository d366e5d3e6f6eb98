// apps/go-server/internal/httpserver/routes_game.go
//
// HTTP routes for the game.
//   - POST /game/new   → reset the session and start round 1
//   - GET  /game/round → current image (starts a round if none is active)
//   - POST /game/guess → evaluate a guess
//   - GET  /game/state → counters for the session
//
// When the last round is won the result is written to the leaderboard once.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/capitals/apps/go-server/internal/game"
	"github.com/robalobadob/capitals/apps/go-server/internal/results"
)

// maxGuessBody caps the /game/guess request body.
const maxGuessBody = 4 << 10

// mountGame registers all /game routes.
func (s *Server) mountGame(r chi.Router) {
	r.Route("/game", func(r chi.Router) {
		r.Use(s.withSession)
		r.Post("/new", s.handleNewGame)
		r.Get("/round", s.handleRound)
		r.Post("/guess", s.handleGuess)
		r.Get("/state", s.handleState)
	})
}

// RoundResponse is the display payload of the active round.
type RoundResponse struct {
	ImageID       string `json:"imageId"`
	LocationLabel string `json:"locationLabel"`
	Round         int    `json:"round"`
	TotalRounds   int    `json:"totalRounds"`
}

func roundResponse(rd game.Round) *RoundResponse {
	return &RoundResponse{ImageID: rd.ImageID, LocationLabel: rd.Label, Round: rd.Number, TotalRounds: rd.Total}
}

// FinishedResponse is returned by /game/round once every round is played.
type FinishedResponse struct {
	Finished    bool `json:"finished"`
	Score       int  `json:"score"`
	TotalRounds int  `json:"totalRounds"`
}

type GuessRequest struct {
	Guess string `json:"guess"`
}

// GuessResponse covers the three outcomes of a guess; unused fields are omitted.
type GuessResponse struct {
	Correct bool   `json:"correct"`
	Message string `json:"message"`

	// correct
	Location string         `json:"location,omitempty"`
	Score    *int           `json:"score,omitempty"`
	Finished bool           `json:"finished,omitempty"`
	Next     *RoundResponse `json:"next,omitempty"`

	// wrong, tries left
	TriesLeft *int `json:"triesLeft,omitempty"`
	Close     bool `json:"close,omitempty"`

	// wrong, target replaced
	TriesReset       bool   `json:"triesReset,omitempty"`
	NewImage         string `json:"newImage,omitempty"`
	NewLocationLabel string `json:"newLocationLabel,omitempty"`
}

type StateResponse struct {
	Round       int  `json:"round"`
	TotalRounds int  `json:"totalRounds"`
	Score       int  `json:"score"`
	TriesLeft   int  `json:"triesLeft"`
	Finished    bool `json:"finished"`
	HasTarget   bool `json:"hasTarget"`
}

// -----------------------------------------------------------------------------
// /game/new

// The reset is only persisted once round 1 has an image; on failure the stored
// game is left as it was.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	next := *currentSession(r)
	s.deps.Sessions.Reset(&next)

	rd, err := s.deps.Engine.StartRound(r.Context(), &next)
	if err != nil {
		s.writeRoundError(w, r, err)
		return
	}
	if !s.save(w, r, &next) {
		return
	}
	writeJSON(w, http.StatusOK, roundResponse(rd))
}

// -----------------------------------------------------------------------------
// /game/round

func (s *Server) handleRound(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	eng := s.deps.Engine

	if eng.Finished(sess) {
		s.recordResult(r.Context(), r, sess)
		if !s.save(w, r, sess) {
			return
		}
		writeJSON(w, http.StatusOK, FinishedResponse{Finished: true, Score: sess.Score, TotalRounds: eng.TotalRounds()})
		return
	}
	if rd, ok := eng.Current(sess); ok {
		if !s.save(w, r, sess) {
			return
		}
		writeJSON(w, http.StatusOK, roundResponse(rd))
		return
	}

	rd, err := eng.StartRound(r.Context(), sess)
	if err != nil {
		s.writeRoundError(w, r, err)
		return
	}
	if !s.save(w, r, sess) {
		return
	}
	writeJSON(w, http.StatusOK, roundResponse(rd))
}

// -----------------------------------------------------------------------------
// /game/guess

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxGuessBody)
	var req GuessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large")
			return
		}
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	sess := currentSession(r)
	eng := s.deps.Engine
	if eng.Finished(sess) {
		writeError(w, http.StatusConflict, "game_over")
		return
	}

	out, err := eng.SubmitGuess(r.Context(), sess, req.Guess)
	switch {
	case errors.Is(err, game.ErrEmptyGuess):
		writeError(w, http.StatusBadRequest, "empty_guess")
		return
	case errors.Is(err, game.ErrNoActiveTarget):
		writeError(w, http.StatusConflict, "no_active_target")
		return
	case err != nil:
		s.writeRoundError(w, r, err)
		return
	}

	var res GuessResponse
	switch out.Kind {
	case game.Correct:
		score := sess.Score
		res = GuessResponse{
			Correct:  true,
			Location: out.Revealed,
			Score:    &score,
			Finished: out.Finished,
			Message:  fmt.Sprintf("Correct! It was %s.", out.Revealed),
		}
		if out.Finished {
			s.recordResult(r.Context(), r, sess)
			res.Message = fmt.Sprintf("Correct! It was %s. Game over: %d/%d.", out.Revealed, sess.Score, eng.TotalRounds())
		} else if rd, err := eng.StartRound(r.Context(), sess); err == nil {
			res.Next = roundResponse(rd)
		} else {
			// The answer still counts; the client fetches /game/round to retry.
			hlog.FromRequest(r).Warn().Err(err).Msg("next round not started")
		}
	case game.WrongRetry:
		left := out.TriesLeft
		res = GuessResponse{TriesLeft: &left, Close: out.Close}
		res.Message = fmt.Sprintf("Not quite. %d %s left.", left, plural(left, "try", "tries"))
		if out.Close {
			res.Message = fmt.Sprintf("Close! Check your spelling. %d %s left.", left, plural(left, "try", "tries"))
		}
	case game.WrongExhausted:
		res = GuessResponse{
			TriesReset:       true,
			Location:         out.Revealed,
			NewImage:         out.Next.ImageID,
			NewLocationLabel: out.Next.Label,
			Message:          fmt.Sprintf("Out of tries. It was %s. Here is a new place for this round.", out.Revealed),
		}
	}

	if !s.save(w, r, sess) {
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// -----------------------------------------------------------------------------
// /game/state

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	eng := s.deps.Engine
	if !s.save(w, r, sess) {
		return
	}
	writeJSON(w, http.StatusOK, StateResponse{
		Round:       sess.Round,
		TotalRounds: eng.TotalRounds(),
		Score:       sess.Score,
		TriesLeft:   eng.MaxTries() - sess.Tries,
		Finished:    eng.Finished(sess),
		HasTarget:   sess.Target != nil,
	})
}

// -----------------------------------------------------------------------------
// helpers

// writeRoundError maps StartRound/SubmitGuess failures to responses.
func (s *Server) writeRoundError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, game.ErrOutOfRounds):
		writeError(w, http.StatusConflict, "game_over")
	case errors.Is(err, game.ErrRoundFailure):
		hlog.FromRequest(r).Warn().Err(err).Msg("round failed")
		writeError(w, http.StatusServiceUnavailable, "imagery_unavailable")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "imagery_unavailable")
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("round error")
		writeError(w, http.StatusInternalServerError, "internal")
	}
}

// recordResult stores a finished game on the leaderboard once. Failures are logged
// and retried on the next request that sees the finished session.
func (s *Server) recordResult(ctx context.Context, r *http.Request, sess *game.Session) {
	if sess.Recorded || s.deps.Results == nil {
		return
	}
	res := results.FromSession(sess, s.deps.Engine.TotalRounds(), s.now())
	if err := s.deps.Results.InsertResult(ctx, res); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Str("session", sess.ID).Msg("record result")
		return
	}
	sess.Recorded = true
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
