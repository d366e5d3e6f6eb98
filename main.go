// apps/go-server/main.go
//
// Entry point for the capitals server.
//   - Loads .env, parses Config, sets the zerolog level.
//   - Loads the capitals dataset and builds the difficulty schedule.
//   - Wires imagery client → resolver → round engine.
//   - Opens SQLite (results, optional sessions) and selects the session backend.
//   - Runs the HTTP server and the idle-session reaper until SIGINT/SIGTERM.

package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/capitals/apps/go-server/internal/capitals"
	"github.com/robalobadob/capitals/apps/go-server/internal/config"
	"github.com/robalobadob/capitals/apps/go-server/internal/database"
	"github.com/robalobadob/capitals/apps/go-server/internal/game"
	"github.com/robalobadob/capitals/apps/go-server/internal/httpserver"
	"github.com/robalobadob/capitals/apps/go-server/internal/imagery"
	"github.com/robalobadob/capitals/apps/go-server/internal/results"
	"github.com/robalobadob/capitals/apps/go-server/internal/rng"
	"github.com/robalobadob/capitals/apps/go-server/internal/session"
	"github.com/robalobadob/capitals/apps/go-server/internal/store"
)

func main() {
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if !cfg.Production {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	// --- dataset ---
	caps, err := capitals.Load(cfg.CapitalsFile)
	if err != nil {
		return fmt.Errorf("loading capitals: %w", err)
	}
	sched, err := game.NewSchedule(len(caps), cfg.TierWidth, cfg.Tiers)
	if err != nil {
		return fmt.Errorf("difficulty schedule: %w", err)
	}
	log.Info().Int("capitals", len(caps)).Int("rounds", sched.TotalRounds()).Msg("dataset loaded")

	// --- imagery + engine ---
	if cfg.MapillaryToken == "" {
		log.Warn().Msg("MAPILLARY_TOKEN is empty; image lookups will fail")
	}
	client := imagery.NewClient(cfg.MapillaryBaseURL, cfg.MapillaryToken, cfg.ImageryTimeout)
	random := rng.NewRandom()
	resolver := imagery.NewResolver(client, random, imagery.ResolverOptions{
		Attempts:     cfg.ResolverAttempts,
		InitialDelta: cfg.ResolverInitialDelta,
		Growth:       cfg.ResolverGrowth,
	})
	engine := game.New(caps, sched, resolver, random, game.Options{
		MaxTries:        cfg.MaxTries,
		RoundAttempts:   cfg.RoundAttempts,
		RoundRetryDelay: cfg.RoundRetryDelay,
	})

	// --- SQLite ---
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// --- sessions ---
	var st store.Store
	switch cfg.SessionBackend {
	case config.BackendSQLite:
		st = store.NewSQLiteStore(db)
	case config.BackendRedis:
		rdb, err := store.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		st = store.NewRedisStore(rdb, cfg.SessionIdleTimeout)
	default:
		st = store.NewMemoryStore()
	}
	log.Info().Str("backend", cfg.SessionBackend).Dur("idle", cfg.SessionIdleTimeout).Msg("session store ready")

	secret := cfg.SessionSecret
	if secret == "" {
		secret = randomSecret()
		log.Warn().Msg("SESSION_SECRET is empty; using a random secret, sessions will not survive a restart")
	}
	tokens, err := session.NewTokens(secret, session.DefaultTTL)
	if err != nil {
		return fmt.Errorf("session tokens: %w", err)
	}
	sessions := session.NewManager(st, cfg.SessionIdleTimeout)

	// --- HTTP ---
	reqTimeout := cfg.EffectiveRequestTimeout()
	if budget := cfg.ImageryBudget(); reqTimeout < budget {
		log.Warn().Dur("timeout", reqTimeout).Dur("imagery_budget", budget).
			Msg("REQUEST_TIMEOUT is shorter than the imagery budget; slow rounds will be cut off")
	}
	srv := httpserver.New(httpserver.Deps{
		Engine:   engine,
		Sessions: sessions,
		Tokens:   tokens,
		Results:  results.NewStore(db),
		Thumbs:   client,
		DB:       db,
	}, httpserver.Options{
		ClientOrigin:   cfg.ClientOrigin,
		RequestTimeout: reqTimeout,
		Production:     cfg.Production,
	})
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// --- run ---
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Msg("starting go-server")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sessions.RunReaper(gctx, cfg.SessionIdleTimeout/2)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func randomSecret() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
