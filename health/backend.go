package health

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jonwraymond/fragcache/cache"
)

// DefaultProbeKey is the key written by the set/get/delete probe.
const DefaultProbeKey = "fragcache_health_probe"

// BackendCheckerConfig configures a BackendChecker.
type BackendCheckerConfig struct {
	// ProbeKey is used when the backend does not implement cache.Pinger.
	// Default: DefaultProbeKey
	ProbeKey string

	// ProbeTTL bounds how long a probe value can linger if the delete fails.
	// Default: 1 minute
	ProbeTTL time.Duration

	// SlowThreshold marks the backend degraded when a probe takes longer.
	// Zero disables the degraded state.
	SlowThreshold time.Duration
}

// BackendChecker reports whether a cache backend is present and reachable.
type BackendChecker struct {
	name    string
	backend cache.Cache
	config  BackendCheckerConfig
}

// NewBackendChecker creates a checker for backend. A nil backend always
// reports unhealthy with ErrBackendMissing.
func NewBackendChecker(name string, backend cache.Cache, config ...BackendCheckerConfig) *BackendChecker {
	var cfg BackendCheckerConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.ProbeKey == "" {
		cfg.ProbeKey = DefaultProbeKey
	}
	if cfg.ProbeTTL <= 0 {
		cfg.ProbeTTL = time.Minute
	}
	if name == "" {
		name = "backend"
	}
	return &BackendChecker{name: name, backend: backend, config: cfg}
}

// Name returns the name of this checker.
func (b *BackendChecker) Name() string {
	return b.name
}

// Check pings the backend, or round-trips a probe value when it cannot be pinged.
func (b *BackendChecker) Check(ctx context.Context) Result {
	if b.backend == nil {
		return Unhealthy("cache backend not configured", ErrBackendMissing)
	}

	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	start := time.Now()
	method := "ping"
	var err error
	if _, ok := b.backend.(cache.Pinger); ok {
		err = cache.Ping(ctx, b.backend)
	} else {
		method = "probe"
		err = b.probe(ctx)
	}
	elapsed := time.Since(start)

	details := map[string]any{
		"method":     method,
		"latency_ms": float64(elapsed.Microseconds()) / 1000,
	}

	if err != nil {
		return Unhealthy(fmt.Sprintf("cache backend unreachable: %v", err), err).
			WithDetails(details).WithDuration(elapsed)
	}
	if b.config.SlowThreshold > 0 && elapsed > b.config.SlowThreshold {
		return Degraded(fmt.Sprintf("cache backend slow: %s", elapsed)).
			WithDetails(details).WithDuration(elapsed)
	}
	return Healthy("cache backend reachable").WithDetails(details).WithDuration(elapsed)
}

func (b *BackendChecker) probe(ctx context.Context) error {
	want := []byte(strconv.FormatInt(time.Now().UnixNano(), 10))

	if err := b.backend.Set(ctx, b.config.ProbeKey, want, b.config.ProbeTTL); err != nil {
		return fmt.Errorf("probe set: %w", err)
	}
	got, ok, err := b.backend.Get(ctx, b.config.ProbeKey)
	if err != nil {
		return fmt.Errorf("probe get: %w", err)
	}
	if !ok || !bytes.Equal(got, want) {
		return ErrProbeMismatch
	}
	if err := b.backend.Delete(ctx, b.config.ProbeKey); err != nil {
		return fmt.Errorf("probe delete: %w", err)
	}
	return nil
}

var _ Checker = (*BackendChecker)(nil)
