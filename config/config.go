package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/jonwraymond/fragcache/fragment"
	"github.com/jonwraymond/fragcache/observe"
	"github.com/jonwraymond/fragcache/resilience"
)

// Backend kinds.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendBolt   = "bolt"
	BackendNone   = "none"
)

// ValidBackends lists the accepted BackendConfig.Kind values.
var ValidBackends = []string{BackendMemory, BackendRedis, BackendBolt, BackendNone}

// ValidSettingsStores lists the accepted SettingsConfig.Kind values.
var ValidSettingsStores = []string{BackendMemory, BackendBolt}

// Config is the complete fragcache configuration.
type Config struct {
	Backend  BackendConfig
	Fragment FragmentConfig
	Settings SettingsConfig
	Admin    AdminConfig
	Observe  observe.Config
}

// BackendConfig selects and configures the fragment backend.
type BackendConfig struct {
	Kind        string // memory|redis|bolt|none
	RedisURL    string
	RedisPrefix string
	BoltPath    string
	Breaker     BreakerConfig
}

// BreakerConfig configures the optional circuit breaker around the backend.
type BreakerConfig struct {
	Enabled      bool
	MaxFailures  int
	ResetTimeout time.Duration
	OpTimeout    time.Duration
}

// FragmentConfig is the engine template applied to every tenant.
type FragmentConfig struct {
	DefaultTTL   time.Duration
	NoExpiry     bool // store without expiry unless a render overrides
	MaxTTL       time.Duration
	Root         string
	Debug        bool
	MinGoVersion string
	Timezone     string // IANA name, "Local" or ""
}

// SettingsConfig selects the settings store.
type SettingsConfig struct {
	Kind   string // memory|bolt
	Path   string
	AuxDir string
}

// AdminConfig configures the admin HTTP server.
type AdminConfig struct {
	Addr        string
	APIKey      string
	TokenSecret string
	TokenTTL    time.Duration
	Concurrency int
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Backend: BackendConfig{
			Kind: BackendMemory,
			Breaker: BreakerConfig{
				MaxFailures:  5,
				ResetTimeout: 30 * time.Second,
				OpTimeout:    250 * time.Millisecond,
			},
		},
		Fragment: FragmentConfig{
			DefaultTTL: fragment.DefaultTTL,
		},
		Settings: SettingsConfig{Kind: BackendMemory},
		Admin: AdminConfig{
			Addr:        "127.0.0.1:8089",
			Concurrency: 4,
		},
		Observe: observe.Config{
			ServiceName: "fragcache",
			Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !slices.Contains(ValidBackends, c.Backend.Kind) {
		return fmt.Errorf("%w: %q", ErrInvalidBackend, c.Backend.Kind)
	}
	if c.Backend.Kind == BackendRedis && c.Backend.RedisURL == "" {
		return ErrMissingRedisURL
	}
	if c.Backend.Kind == BackendBolt && c.Backend.BoltPath == "" {
		return fmt.Errorf("%w: backend", ErrMissingBoltPath)
	}
	if b := c.Backend.Breaker; b.Enabled && (b.MaxFailures <= 0 || b.ResetTimeout <= 0 || b.OpTimeout < 0) {
		return fmt.Errorf("%w: max failures %d, reset %s, op timeout %s", ErrInvalidBreaker, b.MaxFailures, b.ResetTimeout, b.OpTimeout)
	}

	if !slices.Contains(ValidSettingsStores, c.Settings.Kind) {
		return fmt.Errorf("%w: %q", ErrInvalidSettings, c.Settings.Kind)
	}
	if c.Settings.Kind == BackendBolt && c.Settings.Path == "" {
		return fmt.Errorf("%w: settings", ErrMissingBoltPath)
	}

	if c.Admin.Addr == "" {
		return ErrMissingAdminAddr
	}
	if c.Admin.TokenSecret != "" && len(c.Admin.TokenSecret) < 16 {
		return ErrWeakTokenSecret
	}

	if _, err := c.Fragment.Engine(); err != nil {
		return err
	}
	return c.Observe.Validate()
}

// Engine converts the fragment section to a fragment.Config template.
func (f FragmentConfig) Engine() (fragment.Config, error) {
	cfg := fragment.Config{
		Policy:       fragment.Policy{DefaultTTL: f.DefaultTTL, NoExpiry: f.NoExpiry, MaxTTL: f.MaxTTL},
		Root:         f.Root,
		Debug:        f.Debug,
		MinGoVersion: f.MinGoVersion,
	}
	if f.Timezone != "" {
		loc, err := time.LoadLocation(f.Timezone)
		if err != nil {
			return fragment.Config{}, fmt.Errorf("%w: %q", ErrInvalidTimezone, f.Timezone)
		}
		cfg.Location = loc
	}
	if err := cfg.Validate(); err != nil {
		return fragment.Config{}, err
	}
	return cfg, nil
}

// Guard converts the breaker section to a resilience.GuardConfig.
func (b BreakerConfig) Guard() resilience.GuardConfig {
	return resilience.GuardConfig{
		Breaker: resilience.BreakerConfig{
			MaxFailures:  b.MaxFailures,
			ResetTimeout: b.ResetTimeout,
		},
		OpTimeout: b.OpTimeout,
	}
}
