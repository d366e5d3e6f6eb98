// apps/go-server/internal/httpserver/openapi.go
//
// OpenAPI 3 description of the public API, served at /openapi.json and rendered
// by Swagger UI at /docs.

package httpserver

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	OK bool `json:"ok"`
}

type leaderboardQuery struct {
	Date string `query:"date" description:"UTC day, YYYY-MM-DD. Defaults to today."`
}

type thumbPath struct {
	ID string `path:"id"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Capitals API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Guess the capital city from a street-level photo.")

	// GET /health
	health, _ := r.NewOperationContext(http.MethodGet, "/health")
	health.SetSummary("Health check")
	health.AddRespStructure(healthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	health.AddRespStructure(healthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(health)

	// POST /game/new
	newGame, _ := r.NewOperationContext(http.MethodPost, "/game/new")
	newGame.SetSummary("Start a new game")
	newGame.SetDescription("Resets round, score and tries and returns the first image.")
	newGame.AddRespStructure(RoundResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	newGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	newGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(newGame)

	// GET /game/round
	round, _ := r.NewOperationContext(http.MethodGet, "/game/round")
	round.SetSummary("Current round")
	round.SetDescription("Returns the active image, starting a round if none is active. " +
		"Once every round is played the response is a FinishedResponse instead.")
	round.AddRespStructure(RoundResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	round.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	round.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(round)

	// POST /game/guess
	guess, _ := r.NewOperationContext(http.MethodPost, "/game/guess")
	guess.SetSummary("Submit a guess")
	guess.SetDescription("The capital or the country is accepted, case-insensitively.")
	guess.AddReqStructure(GuessRequest{})
	guess.AddRespStructure(GuessResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	guess.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	guess.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	guess.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusRequestEntityTooLarge))
	guess.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(guess)

	// GET /game/state
	state, _ := r.NewOperationContext(http.MethodGet, "/game/state")
	state.SetSummary("Session counters")
	state.AddRespStructure(StateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	state.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(state)

	// GET /image/{id}/thumb
	thumb, _ := r.NewOperationContext(http.MethodGet, "/image/{id}/thumb")
	thumb.SetSummary("Image thumbnail")
	thumb.SetDescription("Redirects to the 2048px thumbnail of an image.")
	thumb.AddReqStructure(thumbPath{})
	thumb.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusFound))
	thumb.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(thumb)

	// GET /leaderboard
	lb, _ := r.NewOperationContext(http.MethodGet, "/leaderboard")
	lb.SetSummary("Daily leaderboard")
	lb.AddReqStructure(leaderboardQuery{})
	lb.AddRespStructure(LeaderboardResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	lb.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(lb)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
