package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "5175" || cfg.SessionBackend != BackendMemory || cfg.Tiers != 5 || cfg.TierWidth != 40 {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.SessionIdleTimeout != 30*time.Minute || cfg.RoundRetryDelay != time.Second || cfg.ImageryTimeout != 5*time.Second {
		t.Errorf("durations = %v %v %v", cfg.SessionIdleTimeout, cfg.RoundRetryDelay, cfg.ImageryTimeout)
	}
	if cfg.ResolverAttempts != 5 || cfg.ResolverInitialDelta != 0.001 || cfg.ResolverGrowth != 10 {
		t.Errorf("resolver = %d %v %v", cfg.ResolverAttempts, cfg.ResolverInitialDelta, cfg.ResolverGrowth)
	}
}

func TestRequestTimeoutCoversImagery(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// 3 round attempts x 5 lookups x 5s, plus two 1s retry delays.
	if got := cfg.ImageryBudget(); got != 77*time.Second {
		t.Errorf("budget = %v, want 77s", got)
	}
	if got := cfg.EffectiveRequestTimeout(); got <= cfg.ImageryBudget() {
		t.Errorf("derived timeout %v does not exceed budget %v", got, cfg.ImageryBudget())
	}

	t.Setenv("REQUEST_TIMEOUT", "20s")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := cfg.EffectiveRequestTimeout(); got != 20*time.Second {
		t.Errorf("explicit timeout = %v, want 20s", got)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SESSION_BACKEND", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("MAX_TRIES", "5")
	t.Setenv("ROUND_RETRY_DELAY", "250ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxTries != 5 || cfg.RoundRetryDelay != 250*time.Millisecond || cfg.SessionBackend != BackendRedis {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"unknown backend", map[string]string{"SESSION_BACKEND": "etcd"}, "SESSION_BACKEND"},
		{"redis without url", map[string]string{"SESSION_BACKEND": "redis"}, "REDIS_URL"},
		{"production without secret", map[string]string{"PRODUCTION": "true", "MAPILLARY_TOKEN": "t"}, "SESSION_SECRET"},
		{"production without token", map[string]string{"PRODUCTION": "true", "SESSION_SECRET": "s"}, "MAPILLARY_TOKEN"},
		{"zero tiers", map[string]string{"TIERS": "0"}, "TIERS"},
		{"shrinking growth", map[string]string{"RESOLVER_GROWTH": "0.5"}, "RESOLVER_GROWTH"},
		{"negative timeout", map[string]string{"REQUEST_TIMEOUT": "-1s"}, "REQUEST_TIMEOUT"},
		{"bad duration", map[string]string{"SESSION_IDLE_TIMEOUT": "soon"}, "SessionIdleTimeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}
