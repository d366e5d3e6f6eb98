// apps/go-server/internal/httpserver/session.go
//
// Anonymous session binding for /game routes.
//   - Reads the signed handle cookie; a missing or invalid one starts a new session.
//   - Loads (or creates) the session through session.Manager and stores it in the
//     request context for the handlers.
//   - An expired session is answered with 409 session_expired before any handler
//     runs, so nothing is mutated on that request. The fresh session is already
//     persisted and the next request plays on it.

package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/capitals/apps/go-server/internal/game"
	"github.com/robalobadob/capitals/apps/go-server/internal/session"
)

type ctxSessionKey struct{}

func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if raw := session.FromRequest(r); raw != "" {
			if parsed, err := s.deps.Tokens.Parse(raw); err == nil {
				id = parsed
			} else {
				hlog.FromRequest(r).Debug().Err(err).Msg("ignoring invalid session cookie")
			}
		}

		sess, err := s.deps.Sessions.LoadOrInit(r.Context(), id)
		if sess != nil && sess.ID != id {
			if !s.issueCookie(w, r, sess.ID) {
				return
			}
		}
		if errors.Is(err, session.ErrExpired) {
			writeError(w, http.StatusConflict, "session_expired")
			return
		}
		if err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("load session")
			writeError(w, http.StatusInternalServerError, "session_unavailable")
			return
		}

		ctx := context.WithValue(r.Context(), ctxSessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) issueCookie(w http.ResponseWriter, r *http.Request, id string) bool {
	tok, exp, err := s.deps.Tokens.Issue(id)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("issue session token")
		writeError(w, http.StatusInternalServerError, "session_unavailable")
		return false
	}
	session.SetCookie(w, tok, exp, s.opts.Production)
	return true
}

// currentSession returns the session bound by withSession.
func currentSession(r *http.Request) *game.Session {
	sess, _ := r.Context().Value(ctxSessionKey{}).(*game.Session)
	return sess
}

// save persists sess; failures are logged and reported as 500.
func (s *Server) save(w http.ResponseWriter, r *http.Request, sess *game.Session) bool {
	if err := s.deps.Sessions.Save(r.Context(), sess); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Str("session", sess.ID).Msg("save session")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return false
	}
	return true
}
