package health_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/jonwraymond/fragcache/cache"
	"github.com/jonwraymond/fragcache/health"
)

func ExampleNewBackendChecker() {
	checker := health.NewBackendChecker("memory", cache.NewMemoryCache())

	result := checker.Check(context.Background())
	fmt.Println("Status:", result.Status)
	fmt.Println("Method:", result.Details["method"])
	// Output:
	// Status: healthy
	// Method: ping
}

func ExampleNewBackendChecker_missing() {
	checker := health.NewBackendChecker("redis", nil)

	result := checker.Check(context.Background())
	fmt.Println("Status:", result.Status)
	fmt.Println("Error:", result.Error)
	// Output:
	// Status: unhealthy
	// Error: health: cache backend not configured
}

func ExampleNewCheckerFunc() {
	checker := health.NewCheckerFunc("settings", func(ctx context.Context) health.Result {
		return health.Degraded("settings store read-only")
	})

	result := checker.Check(context.Background())
	fmt.Println(checker.Name(), result.Status, result.Message)
	// Output:
	// settings degraded settings store read-only
}

func ExampleOverall() {
	results := map[string]health.Result{
		"backend":  health.Healthy("ok"),
		"settings": health.Degraded("slow"),
	}
	fmt.Println(health.Overall(results))
	// Output:
	// degraded
}

func ExampleAggregator_CheckAll() {
	agg := health.NewAggregator()
	agg.Register("backend", health.NewBackendChecker("backend", cache.NewMemoryCache()))
	agg.Register("settings", health.NewCheckerFunc("settings", func(ctx context.Context) health.Result {
		return health.Healthy("ok")
	}))

	results := agg.CheckAll(context.Background())
	fmt.Println("Checks:", len(results))
	fmt.Println("Overall:", agg.OverallStatus(results))
	// Output:
	// Checks: 2
	// Overall: healthy
}

func ExampleRegisterHandlers() {
	agg := health.NewAggregator()
	agg.Register("backend", health.NewBackendChecker("backend", nil))

	mux := http.NewServeMux()
	health.RegisterHandlers(mux, agg)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	fmt.Println(rec.Code, rec.Body.String())
	// Output:
	// 503 UNHEALTHY
}
