// Package health provides health checking for the fragment cache service.
//
// A Checker reports a Status: Healthy, Degraded, or Unhealthy. The
// BackendChecker pings a cache backend, or round-trips a probe value when the
// backend cannot be pinged; the fragment engine uses it to decide whether
// caching can be enabled at all.
//
// # Basic Usage
//
//	check := health.NewBackendChecker("redis", store)
//	if r := check.Check(ctx); r.Status == health.StatusUnhealthy {
//	    log.Printf("backend down: %s", r.Message)
//	}
//
// # Aggregating Health Checks
//
//	agg := health.NewAggregator()
//	agg.Register("backend", check)
//	agg.Register("settings", settingsCheck)
//	overall := health.Overall(agg.CheckAll(ctx))
//
// # HTTP Endpoints
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg) // /healthz, /readyz, /health, /health/{name}
package health
