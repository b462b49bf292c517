package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonwraymond/fragcache/fragment"
	"github.com/jonwraymond/fragcache/observe"
	"github.com/jonwraymond/fragcache/secret"
)

func env(m map[string]string) secret.LookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if cfg.Backend.Kind != BackendMemory || cfg.Settings.Kind != BackendMemory {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"unknown backend", func(c *Config) { c.Backend.Kind = "memcached" }, ErrInvalidBackend},
		{"redis without url", func(c *Config) { c.Backend.Kind = BackendRedis }, ErrMissingRedisURL},
		{"bolt without path", func(c *Config) { c.Backend.Kind = BackendBolt }, ErrMissingBoltPath},
		{"bolt settings without path", func(c *Config) { c.Settings.Kind = BackendBolt }, ErrMissingBoltPath},
		{"unknown settings", func(c *Config) { c.Settings.Kind = "redis" }, ErrInvalidSettings},
		{"breaker without failures", func(c *Config) {
			c.Backend.Breaker.Enabled = true
			c.Backend.Breaker.MaxFailures = 0
		}, ErrInvalidBreaker},
		{"weak secret", func(c *Config) { c.Admin.TokenSecret = "short" }, ErrWeakTokenSecret},
		{"empty addr", func(c *Config) { c.Admin.Addr = "" }, ErrMissingAdminAddr},
		{"bad timezone", func(c *Config) { c.Fragment.Timezone = "Mars/Olympus" }, ErrInvalidTimezone},
		{"negative ttl", func(c *Config) { c.Fragment.DefaultTTL = -time.Second }, fragment.ErrInvalidConfig},
		{"bad go version", func(c *Config) { c.Fragment.MinGoVersion = "1.22" }, fragment.ErrInvalidConfig},
		{"bad log level", func(c *Config) { c.Observe.Logging.Level = "loud" }, observe.ErrInvalidLogLevel},
		{"redis with url", func(c *Config) {
			c.Backend.Kind = BackendRedis
			c.Backend.RedisURL = "redis://localhost:6379/0"
		}, nil},
		{"no backend", func(c *Config) { c.Backend.Kind = BackendNone }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFragmentConfig_Engine(t *testing.T) {
	f := FragmentConfig{
		DefaultTTL:   time.Hour,
		MaxTTL:       6 * time.Hour,
		Root:         "/srv/www",
		Debug:        true,
		MinGoVersion: "go1.22",
		Timezone:     "Europe/Paris",
	}
	cfg, err := f.Engine()
	if err != nil {
		t.Fatalf("Engine() error = %v", err)
	}
	if cfg.Policy.DefaultTTL != time.Hour || cfg.Policy.MaxTTL != 6*time.Hour {
		t.Errorf("Policy = %+v", cfg.Policy)
	}
	if cfg.Location == nil || cfg.Location.String() != "Europe/Paris" {
		t.Errorf("Location = %v", cfg.Location)
	}
	if !cfg.Debug || cfg.Root != "/srv/www" || cfg.MinGoVersion != "go1.22" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestBreakerConfig_Guard(t *testing.T) {
	g := BreakerConfig{MaxFailures: 3, ResetTimeout: time.Second, OpTimeout: 100 * time.Millisecond}.Guard()
	if g.Breaker.MaxFailures != 3 || g.Breaker.ResetTimeout != time.Second || g.OpTimeout != 100*time.Millisecond {
		t.Errorf("Guard() = %+v", g)
	}
}

func TestLoad(t *testing.T) {
	cfg, err := LoadWithLookup(context.Background(), nil, env(map[string]string{
		"FRAGCACHE_BACKEND":          "redis",
		"FRAGCACHE_REDIS_URL":        "redis://${REDIS_HOST}:6379/0",
		"REDIS_HOST":                 "cache.internal",
		"FRAGCACHE_BREAKER":          "true",
		"FRAGCACHE_OP_TIMEOUT":       "50ms",
		"FRAGCACHE_DEFAULT_TTL":      "2h",
		"FRAGCACHE_DEBUG":            "1",
		"FRAGCACHE_NO_EXPIRY":        "true",
		"FRAGCACHE_TIMEZONE":         "UTC",
		"FRAGCACHE_CONCURRENCY":      "8",
		"FRAGCACHE_METRICS_EXPORTER": "prometheus",
		"FRAGCACHE_TRACING_EXPORTER": "none",
		"FRAGCACHE_LOG_LEVEL":        "debug",
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend.Kind != BackendRedis || cfg.Backend.RedisURL != "redis://cache.internal:6379/0" {
		t.Errorf("Backend = %+v", cfg.Backend)
	}
	if !cfg.Backend.Breaker.Enabled || cfg.Backend.Breaker.OpTimeout != 50*time.Millisecond || cfg.Backend.Breaker.MaxFailures != 5 {
		t.Errorf("Breaker = %+v", cfg.Backend.Breaker)
	}
	if cfg.Fragment.DefaultTTL != 2*time.Hour || !cfg.Fragment.Debug || !cfg.Fragment.NoExpiry {
		t.Errorf("Fragment = %+v", cfg.Fragment)
	}
	engine, err := cfg.Fragment.Engine()
	if err != nil {
		t.Fatalf("Engine() error = %v", err)
	}
	if got := engine.Policy.EffectiveTTL(0); got != 0 {
		t.Errorf("EffectiveTTL(0) with no expiry = %v, want 0", got)
	}
	if cfg.Admin.Concurrency != 8 {
		t.Errorf("Concurrency = %d", cfg.Admin.Concurrency)
	}
	if !cfg.Observe.Metrics.Enabled || cfg.Observe.Metrics.Exporter != "prometheus" {
		t.Errorf("Metrics = %+v", cfg.Observe.Metrics)
	}
	if cfg.Observe.Tracing.Enabled {
		t.Error("tracing enabled with exporter none")
	}
	if cfg.Observe.Logging.Level != "debug" {
		t.Errorf("Logging = %+v", cfg.Observe.Logging)
	}
}

func TestLoad_SecretRef(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "token"), []byte("0123456789abcdef-from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	resolver, err := secret.DefaultRegistry.NewResolver(true, map[string]map[string]any{
		"file": {"dir": dir},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer resolver.Close()

	cfg, err := LoadWithLookup(context.Background(), resolver, env(map[string]string{
		"FRAGCACHE_TOKEN_SECRET": "secretref:file:token",
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Admin.TokenSecret != "0123456789abcdef-from-file" {
		t.Errorf("TokenSecret = %q", cfg.Admin.TokenSecret)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr error
	}{
		{"bad duration", map[string]string{"FRAGCACHE_DEFAULT_TTL": "forever"}, ErrInvalidValue},
		{"bad bool", map[string]string{"FRAGCACHE_DEBUG": "maybe"}, ErrInvalidValue},
		{"bad int", map[string]string{"FRAGCACHE_CONCURRENCY": "many"}, ErrInvalidValue},
		{"missing expansion", map[string]string{"FRAGCACHE_REDIS_URL": "${NOPE}"}, secret.ErrMissingEnv},
		{"invalid result", map[string]string{"FRAGCACHE_BACKEND": "memcached"}, ErrInvalidBackend},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadWithLookup(context.Background(), nil, env(tt.env))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
