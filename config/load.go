package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jonwraymond/fragcache/secret"
)

// EnvPrefix prefixes every environment variable Load reads.
const EnvPrefix = "FRAGCACHE_"

type binding struct {
	name string
	set  func(string) error
}

func (c *Config) bindings() []binding {
	return []binding{
		{"BACKEND", str(&c.Backend.Kind)},
		{"REDIS_URL", str(&c.Backend.RedisURL)},
		{"REDIS_PREFIX", str(&c.Backend.RedisPrefix)},
		{"BOLT_PATH", str(&c.Backend.BoltPath)},
		{"BREAKER", boolean(&c.Backend.Breaker.Enabled)},
		{"BREAKER_MAX_FAILURES", integer(&c.Backend.Breaker.MaxFailures)},
		{"BREAKER_RESET", duration(&c.Backend.Breaker.ResetTimeout)},
		{"OP_TIMEOUT", duration(&c.Backend.Breaker.OpTimeout)},

		{"DEFAULT_TTL", duration(&c.Fragment.DefaultTTL)},
		{"NO_EXPIRY", boolean(&c.Fragment.NoExpiry)},
		{"MAX_TTL", duration(&c.Fragment.MaxTTL)},
		{"ROOT", str(&c.Fragment.Root)},
		{"DEBUG", boolean(&c.Fragment.Debug)},
		{"MIN_GO_VERSION", str(&c.Fragment.MinGoVersion)},
		{"TIMEZONE", str(&c.Fragment.Timezone)},

		{"SETTINGS", str(&c.Settings.Kind)},
		{"SETTINGS_PATH", str(&c.Settings.Path)},
		{"AUX_DIR", str(&c.Settings.AuxDir)},

		{"ADMIN_ADDR", str(&c.Admin.Addr)},
		{"ADMIN_KEY", str(&c.Admin.APIKey)},
		{"TOKEN_SECRET", str(&c.Admin.TokenSecret)},
		{"TOKEN_TTL", duration(&c.Admin.TokenTTL)},
		{"CONCURRENCY", integer(&c.Admin.Concurrency)},

		{"LOG_LEVEL", str(&c.Observe.Logging.Level)},
		{"TRACING_EXPORTER", exporter(&c.Observe.Tracing.Exporter, &c.Observe.Tracing.Enabled)},
		{"TRACING_SAMPLE", float(&c.Observe.Tracing.SamplePct)},
		{"METRICS_EXPORTER", exporter(&c.Observe.Metrics.Exporter, &c.Observe.Metrics.Enabled)},
	}
}

// Load builds a Config from Default and the FRAGCACHE_* environment. Every
// value passes through resolver, so values may use ${VAR} expansion and
// secretref: references. A nil resolver only expands the environment and
// rejects secretref: values.
func Load(ctx context.Context, resolver *secret.Resolver) (Config, error) {
	return LoadWithLookup(ctx, resolver, os.LookupEnv)
}

// LoadWithLookup is Load with an injectable environment. lookup also drives
// ${VAR} expansion when resolver is nil; a non-nil resolver expands with its
// own lookup.
func LoadWithLookup(ctx context.Context, resolver *secret.Resolver, lookup secret.LookupFunc) (Config, error) {
	if resolver == nil {
		resolver = secret.NewResolver(false).WithLookup(lookup)
	}
	cfg := Default()
	for _, b := range cfg.bindings() {
		raw, ok := lookup(EnvPrefix + b.name)
		if !ok {
			continue
		}
		v, err := resolver.ResolveValue(ctx, raw)
		if err != nil {
			return Config{}, fmt.Errorf("config: %s%s: %w", EnvPrefix, b.name, err)
		}
		if err := b.set(v); err != nil {
			return Config{}, fmt.Errorf("%w: %s%s: %v", ErrInvalidValue, EnvPrefix, b.name, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func str(p *string) func(string) error {
	return func(v string) error {
		*p = v
		return nil
	}
}

func boolean(p *bool) func(string) error {
	return func(v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*p = b
		return nil
	}
}

func integer(p *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*p = n
		return nil
	}
}

func float(p *float64) func(string) error {
	return func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*p = f
		return nil
	}
}

func duration(p *time.Duration) func(string) error {
	return func(v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*p = d
		return nil
	}
}

// exporter sets the exporter name and enables the subsystem unless the
// name is "none" or empty.
func exporter(name *string, enabled *bool) func(string) error {
	return func(v string) error {
		*name = v
		*enabled = v != "" && v != "none"
		return nil
	}
}
