// apps/go-server/internal/config/config.go
//
// Typed server configuration, parsed from the environment (after .env is loaded
// by main). Every field has a development default except the secrets.

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Session backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

type Config struct {
	Port           string        `env:"PORT" envDefault:"5175"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	ClientOrigin   string        `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"0s"` // 0: derived from ImageryBudget
	Production     bool          `env:"PRODUCTION" envDefault:"false"`

	DBPath string `env:"DB_PATH" envDefault:"./data/capitals.db"`

	SessionBackend     string        `env:"SESSION_BACKEND" envDefault:"memory"`
	RedisURL           string        `env:"REDIS_URL"`
	SessionSecret      string        `env:"SESSION_SECRET"`
	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`

	CapitalsFile string `env:"CAPITALS_FILE"`
	TierWidth    int    `env:"TIER_WIDTH" envDefault:"40"`
	Tiers        int    `env:"TIERS" envDefault:"5"`

	MapillaryToken   string        `env:"MAPILLARY_TOKEN"`
	MapillaryBaseURL string        `env:"MAPILLARY_BASE_URL" envDefault:"https://graph.mapillary.com"`
	ImageryTimeout   time.Duration `env:"IMAGERY_TIMEOUT" envDefault:"5s"`

	ResolverAttempts     int     `env:"RESOLVER_ATTEMPTS" envDefault:"5"`
	ResolverInitialDelta float64 `env:"RESOLVER_INITIAL_DELTA" envDefault:"0.001"`
	ResolverGrowth       float64 `env:"RESOLVER_GROWTH" envDefault:"10"`

	RoundAttempts   int           `env:"ROUND_ATTEMPTS" envDefault:"3"`
	RoundRetryDelay time.Duration `env:"ROUND_RETRY_DELAY" envDefault:"1s"`
	MaxTries        int           `env:"MAX_TRIES" envDefault:"3"`
}

// Load parses the process environment and validates the result.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// requestSlack is added to the imagery budget for the rest of a request.
const requestSlack = 5 * time.Second

// ImageryBudget is the longest one round start can spend on imagery: every
// round attempt runs every resolver lookup to its timeout, with the retry delay
// between round attempts.
func (c *Config) ImageryBudget() time.Duration {
	perRound := time.Duration(c.ResolverAttempts) * c.ImageryTimeout
	return time.Duration(c.RoundAttempts)*perRound + time.Duration(c.RoundAttempts-1)*c.RoundRetryDelay
}

// EffectiveRequestTimeout is REQUEST_TIMEOUT when set. Otherwise it is derived
// from ImageryBudget so a slow round start fails with 503, not a router 504.
// An explicit value shorter than the budget caps it.
func (c *Config) EffectiveRequestTimeout() time.Duration {
	if c.RequestTimeout > 0 {
		return c.RequestTimeout
	}
	return c.ImageryBudget() + requestSlack
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var errs []error
	switch c.SessionBackend {
	case BackendMemory, BackendSQLite:
	case BackendRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when SESSION_BACKEND=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("SESSION_BACKEND %q: want memory, sqlite or redis", c.SessionBackend))
	}
	if c.Production {
		if c.SessionSecret == "" {
			errs = append(errs, errors.New("SESSION_SECRET is required in production"))
		}
		if c.MapillaryToken == "" {
			errs = append(errs, errors.New("MAPILLARY_TOKEN is required in production"))
		}
	}
	if c.TierWidth <= 0 || c.Tiers <= 0 {
		errs = append(errs, errors.New("TIER_WIDTH and TIERS must be positive"))
	}
	if c.ResolverAttempts <= 0 || c.RoundAttempts <= 0 || c.MaxTries <= 0 {
		errs = append(errs, errors.New("RESOLVER_ATTEMPTS, ROUND_ATTEMPTS and MAX_TRIES must be positive"))
	}
	if c.ResolverInitialDelta <= 0 || c.ResolverGrowth < 1 {
		errs = append(errs, errors.New("RESOLVER_INITIAL_DELTA must be positive and RESOLVER_GROWTH at least 1"))
	}
	if c.RequestTimeout < 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must not be negative"))
	}
	if c.SessionIdleTimeout <= 0 {
		errs = append(errs, errors.New("SESSION_IDLE_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}
