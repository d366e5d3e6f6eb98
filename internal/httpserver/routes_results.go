// apps/go-server/internal/httpserver/routes_results.go
//
// Leaderboard and image thumbnail routes.
//   - GET /leaderboard?date=YYYY-MM-DD → top finished games for a UTC day (default today)
//   - GET /image/{id}/thumb            → 302 to the imagery service thumbnail

package httpserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/capitals/apps/go-server/internal/imagery"
	"github.com/robalobadob/capitals/apps/go-server/internal/results"
)

type LeaderboardResponse struct {
	Date string          `json:"date"`
	Top  []results.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = results.DateKey(s.now())
	}
	if !results.ValidDate(date) {
		writeError(w, http.StatusBadRequest, "bad_date")
		return
	}
	top := []results.LBRow{}
	if s.deps.Results != nil {
		rows, err := s.deps.Results.Leaderboard(r.Context(), date, results.DefaultLimit)
		if err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("leaderboard")
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
		top = rows
	}
	writeJSON(w, http.StatusOK, LeaderboardResponse{Date: date, Top: top})
}

// handleThumb redirects to the thumbnail of an image id.
func (s *Server) handleThumb(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validImageID(id) {
		writeError(w, http.StatusBadRequest, "bad_image_id")
		return
	}
	if s.deps.Thumbs == nil {
		writeError(w, http.StatusServiceUnavailable, "imagery_unavailable")
		return
	}
	u, err := s.deps.Thumbs.ThumbURL(r.Context(), id)
	switch {
	case errors.Is(err, imagery.ErrNoThumbnail):
		writeError(w, http.StatusNotFound, "not_found")
		return
	case err != nil:
		hlog.FromRequest(r).Warn().Err(err).Str("image", id).Msg("thumbnail lookup")
		writeError(w, http.StatusServiceUnavailable, "imagery_unavailable")
		return
	}
	http.Redirect(w, r, u, http.StatusFound)
}

// validImageID accepts the alphanumeric ids the imagery service issues.
func validImageID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, c := range id {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' || c == '-') {
			return false
		}
	}
	return true
}
