// Package resilience keeps a failing cache backend from slowing down
// rendering.
//
// Breaker is a classic closed/open/half-open circuit breaker. GuardedCache
// puts one in front of any cache.Cache: after MaxFailures consecutive
// backend errors every call fails fast with ErrCircuitOpen until
// ResetTimeout has passed and a probe succeeds. The fragment engine reads
// that error as a miss (or a dropped write), so pages keep rendering
// uncached while the backend is down.
//
//	guarded := resilience.NewGuardedCache(redisStore, resilience.GuardConfig{
//	    Breaker:   resilience.BreakerConfig{MaxFailures: 5, ResetTimeout: 30 * time.Second},
//	    OpTimeout: 50 * time.Millisecond,
//	})
//	eng, err := fragment.New(ctx, guarded, cfg)
//
// Nothing here retries. A failed call is reported once and the caller moves
// on.
package resilience
