package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/jonwraymond/fragcache/cache"
)

// GuardConfig configures a GuardedCache.
type GuardConfig struct {
	// Breaker configures the circuit. IsFailure defaults to treating every
	// error except caller cancellation as a backend failure.
	Breaker BreakerConfig

	// OpTimeout bounds each backend call. Zero leaves the caller's deadline
	// in charge.
	OpTimeout time.Duration
}

// GuardedCache wraps a cache.Cache with a circuit breaker so that a failing
// backend is skipped quickly instead of stalling every render.
//
// Contract:
//   - Open circuit: Get, Set, Delete and Ping return ErrCircuitOpen without
//     touching the backend. The fragment engine treats that as a miss or a
//     dropped write.
//   - Misses ((nil, false, nil)) are successes.
//   - A call that runs past OpTimeout returns an error wrapping ErrTimeout
//     and counts as a failure.
type GuardedCache struct {
	backend cache.Cache
	breaker *Breaker
	timeout time.Duration
}

// NewGuardedCache wraps backend.
func NewGuardedCache(backend cache.Cache, config GuardConfig) *GuardedCache {
	bc := config.Breaker
	if bc.IsFailure == nil {
		bc.IsFailure = isBackendFailure
	}
	return &GuardedCache{
		backend: backend,
		breaker: NewBreaker(bc),
		timeout: config.OpTimeout,
	}
}

func isBackendFailure(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}

// Breaker exposes the circuit for inspection and manual reset.
func (g *GuardedCache) Breaker() *Breaker { return g.breaker }

// Unwrap returns the guarded backend.
func (g *GuardedCache) Unwrap() cache.Cache { return g.backend }

func (g *GuardedCache) run(ctx context.Context, op func(context.Context) error) error {
	return g.breaker.Execute(ctx, func(ctx context.Context) error {
		if g.timeout <= 0 {
			return op(ctx)
		}
		ctx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		err := op(ctx)
		if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return errors.Join(ErrTimeout, err)
		}
		return err
	})
}

// Get implements cache.Cache.
func (g *GuardedCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		value []byte
		ok    bool
	)
	err := g.run(ctx, func(ctx context.Context) error {
		var err error
		value, ok, err = g.backend.Get(ctx, key)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return value, ok, nil
}

// Set implements cache.Cache.
func (g *GuardedCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return g.run(ctx, func(ctx context.Context) error {
		return g.backend.Set(ctx, key, value, ttl)
	})
}

// Delete implements cache.Cache.
func (g *GuardedCache) Delete(ctx context.Context, key string) error {
	return g.run(ctx, func(ctx context.Context) error {
		return g.backend.Delete(ctx, key)
	})
}

// Ping implements cache.Pinger. Backends without Ping count as reachable.
func (g *GuardedCache) Ping(ctx context.Context) error {
	return g.run(ctx, func(ctx context.Context) error {
		return cache.Ping(ctx, g.backend)
	})
}

var (
	_ cache.Cache  = (*GuardedCache)(nil)
	_ cache.Pinger = (*GuardedCache)(nil)
)
