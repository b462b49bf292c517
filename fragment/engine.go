package fragment

import (
	"context"
	"errors"
	"fmt"
	"go/version"
	"runtime"
	"strings"
	"time"

	"github.com/jonwraymond/fragcache/cache"
	"github.com/jonwraymond/fragcache/health"
	"github.com/jonwraymond/fragcache/observe"
)

// DefaultNamespace scopes fragment entries inside a shared backend.
const DefaultNamespace = "fragment"

// Config configures an Engine.
type Config struct {
	// Enabled is the operator's toggle. The engine only caches when this is
	// set and its capability requirements are met.
	Enabled bool

	// Policy controls fragment lifetimes. The zero Policy is replaced by
	// DefaultPolicy.
	Policy Policy

	// Root is stripped from source paths by Engine.SiteAt.
	Root string

	// Namespace prefixes every backend key. Default: DefaultNamespace.
	Namespace string

	// Debug wraps replayed fragments in HTML comments naming their key.
	Debug bool

	// MinGoVersion is the oldest runtime the engine enables itself on,
	// e.g. "go1.22". Empty disables the check.
	MinGoVersion string

	// Location defines "today" for OnlyToday. Default: time.Local.
	Location *time.Location

	// Tenant labels telemetry. It does not affect keys.
	Tenant string
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := c.Policy.Validate(); err != nil {
		return err
	}
	if c.MinGoVersion != "" && !version.IsValid(c.MinGoVersion) {
		return fmt.Errorf("%w: min go version %q", ErrInvalidConfig, c.MinGoVersion)
	}
	if strings.ContainsAny(c.Namespace, "\r\n") {
		return fmt.Errorf("%w: namespace contains a line break", ErrInvalidConfig)
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.Policy == (Policy{}) {
		c.Policy = DefaultPolicy()
	}
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	return c
}

// Capability is the outcome of the startup requirement checks.
type Capability struct {
	Met     bool
	Reasons []string
}

// Err returns nil when the capability is met, else ErrCapabilityUnmet
// annotated with the reasons.
func (c Capability) Err() error {
	if c.Met {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrCapabilityUnmet, strings.Join(c.Reasons, "; "))
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	instruments    observe.Instruments
	now            func() time.Time
	runtimeVersion string
}

// WithInstruments sets tracer, metrics and logger at once.
func WithInstruments(in observe.Instruments) Option {
	return func(o *engineOptions) { o.instruments = in }
}

// WithLogger sets the logger.
func WithLogger(l observe.Logger) Option {
	return func(o *engineOptions) { o.instruments.Logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observe.Metrics) Option {
	return func(o *engineOptions) { o.instruments.Metrics = m }
}

// WithTracer sets the tracer.
func WithTracer(t observe.Tracer) Option {
	return func(o *engineOptions) { o.instruments.Tracer = t }
}

// WithClock sets the time source used for TTL resolution.
func WithClock(now func() time.Time) Option {
	return func(o *engineOptions) { o.now = now }
}

// WithRuntimeVersion overrides the runtime version compared against
// Config.MinGoVersion.
func WithRuntimeVersion(v string) Option {
	return func(o *engineOptions) { o.runtimeVersion = v }
}

// Engine caches rendered fragments in a backend.
//
// Contract:
//   - Concurrency: an Engine is immutable after New and safe for concurrent
//     use. Each *Fragment it hands out belongs to a single goroutine.
//   - Errors: backend failures never abort rendering. They are logged,
//     counted, and treated as misses or dropped writes.
type Engine struct {
	cfg        Config
	store      cache.Cache
	enabled    bool
	capability Capability
	in         observe.Instruments
	now        func() time.Time
}

// New builds an Engine over backend. Capability is evaluated once here: the
// backend must be present and reachable and the runtime must satisfy
// Config.MinGoVersion. An unmet capability is not an error; the engine is
// returned disabled and Capability explains why.
func New(ctx context.Context, backend cache.Cache, cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	o := engineOptions{
		now:            time.Now,
		runtimeVersion: runtime.Version(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine{
		cfg: cfg,
		in:  o.instruments.WithDefaults(),
		now: o.now,
	}
	if backend != nil {
		e.store = cache.NewNamespaced(backend, cfg.Namespace)
	}

	e.capability = evaluateCapability(ctx, backend, cfg.MinGoVersion, o.runtimeVersion)
	e.enabled = cfg.Enabled && e.capability.Met

	if cfg.Enabled && !e.capability.Met {
		e.in.Logger.WithFragment(observe.FragmentMeta{Tenant: cfg.Tenant}).Warn(ctx,
			"fragment cache disabled",
			observe.Field{Key: "error", Value: e.capability.Err()},
		)
	}

	return e, nil
}

func evaluateCapability(ctx context.Context, backend cache.Cache, minVersion, runtimeVersion string) Capability {
	var reasons []string

	if r := health.NewBackendChecker("fragment", backend).Check(ctx); !r.Status.Serving() {
		if errors.Is(r.Error, health.ErrBackendMissing) {
			reasons = append(reasons, "no cache backend configured")
		} else {
			reasons = append(reasons, r.Message)
		}
	}

	if minVersion != "" {
		// Development builds report "devel ..." and are let through.
		v, _, _ := strings.Cut(runtimeVersion, " ")
		if version.IsValid(v) && version.Compare(v, minVersion) < 0 {
			reasons = append(reasons, fmt.Sprintf("runtime %s is older than required %s", v, minVersion))
		}
	}

	return Capability{Met: len(reasons) == 0, Reasons: reasons}
}

// Enabled reports whether the engine caches. A disabled engine passes
// output straight through and never touches the backend during renders.
func (e *Engine) Enabled() bool { return e.enabled }

// Capability returns the result of the startup requirement checks.
func (e *Engine) Capability() Capability { return e.capability }

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// SiteAt builds a Site from a source path relative to Config.Root.
func (e *Engine) SiteAt(file string, line int) Site {
	return SiteFor(e.cfg.Root, file, line)
}

func (e *Engine) resolveTTL(opts []BeginOption) time.Duration {
	var o beginOptions
	for _, opt := range opts {
		opt(&o)
	}
	switch {
	case o.noExpiry:
		return e.cfg.Policy.clamp(0)
	case o.onlyToday:
		return e.cfg.Policy.EffectiveTTL(UntilEndOfDay(e.now(), e.cfg.Location))
	}
	return e.cfg.Policy.EffectiveTTL(o.ttl)
}

func (e *Engine) meta(site Site, key string) observe.FragmentMeta {
	return observe.FragmentMeta{Tenant: e.cfg.Tenant, Site: string(site), Key: key}
}

// backendError logs and counts a swallowed backend failure.
func (e *Engine) backendError(ctx context.Context, meta observe.FragmentMeta, op string, err error) {
	e.in.Metrics.RecordBackendError(ctx, meta, op)
	e.in.Logger.WithFragment(meta).Warn(ctx, "fragment backend "+op+" failed",
		observe.Field{Key: "error", Value: err},
	)
}
