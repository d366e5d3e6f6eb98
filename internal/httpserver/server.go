// apps/go-server/internal/httpserver/server.go
//
// HTTP server wiring for the capitals backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access log).
//   - Public endpoints: "/", "/health", "/leaderboard", "/image/{id}/thumb".
//   - Game endpoints (anonymous session cookie): mounted under /game.
//   - API description: "/openapi.json" and Swagger UI under "/docs".
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Every /game request is bound to a session through a signed cookie; see session.go.

package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
	"github.com/swaggest/swgui/v5emb"

	"github.com/robalobadob/capitals/apps/go-server/internal/game"
	"github.com/robalobadob/capitals/apps/go-server/internal/results"
	"github.com/robalobadob/capitals/apps/go-server/internal/session"
)

// ThumbLookup resolves an image id to its thumbnail URL (see imagery.Client).
type ThumbLookup interface {
	ThumbURL(ctx context.Context, id string) (string, error)
}

// Deps are the collaborators the handlers need. Results, Thumbs and DB may be nil.
type Deps struct {
	Engine   *game.Engine
	Sessions *session.Manager
	Tokens   *session.Tokens
	Results  *results.Store
	Thumbs   ThumbLookup
	DB       *sql.DB
}

// Options are the transport settings.
type Options struct {
	ClientOrigin   string        // allowed CORS origin
	RequestTimeout time.Duration // whole-request bound
	Production     bool          // Secure/SameSite=None cookies
}

// Server bundles router and dependencies.
type Server struct {
	r    *chi.Mux
	deps Deps
	opts Options
	now  func() time.Time
}

// New constructs a Server, installs middleware, and registers routes.
func New(d Deps, opts Options) *Server {
	if opts.ClientOrigin == "" {
		opts.ClientOrigin = "http://localhost:5173"
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	s := &Server{r: chi.NewRouter(), deps: d, opts: opts, now: time.Now}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                    // add X-Request-ID
	s.r.Use(chimw.RealIP)                       // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(requestLogger)                      // zerolog access log
	s.r.Use(chimw.Recoverer)                    // recover from panics
	s.r.Use(chimw.Timeout(opts.RequestTimeout)) // bound handler time
	s.r.Use(cors(opts.ClientOrigin))            // credentials-friendly CORS

	// --- API docs (HTML, so outside the JSON group) ---
	s.r.Mount("/docs", v5emb.New("Capitals API", "/openapi.json", "/docs"))

	s.r.Group(func(r chi.Router) {
		r.Use(jsonContentType) // default JSON responses

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"service":   "capitals-go",
				"endpoints": []string{"/health", "POST /game/new", "GET /game/round", "POST /game/guess", "GET /game/state", "/leaderboard", "/docs"},
			})
		})
		r.Get("/health", s.handleHealth)
		r.Get("/openapi.json", handleOpenAPI())

		// --- game ---
		s.mountGame(r)
		r.Get("/image/{id}/thumb", s.handleThumb)
		r.Get("/leaderboard", s.handleLeaderboard)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Handler exposes the router (http.Server, tests).
func (s *Server) Handler() http.Handler { return s.r }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.DB != nil {
		if err := s.deps.DB.PingContext(r.Context()); err != nil {
			log.Warn().Err(err).Msg("health: database ping failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "database": "down"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ----------------------------- middleware ----------------------------------

// requestLogger attaches the global logger (tagged with the request id) to the
// request context and writes one access line per request.
func requestLogger(next http.Handler) http.Handler {
	h := hlog.AccessHandler(func(r *http.Request, status, size int, dur time.Duration) {
		lvl := zerolog.InfoLevel
		if status >= http.StatusInternalServerError {
			lvl = zerolog.WarnLevel
		}
		hlog.FromRequest(r).WithLevel(lvl).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", dur).
			Msg("request")
	})(next)
	h = withRequestID(h)
	return hlog.NewHandler(log.Logger)(h)
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := chimw.GetReqID(r.Context()); id != "" {
			zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("req_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ------------------------------- small util --------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, ErrorResponse{Error: code})
}
