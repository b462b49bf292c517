package health

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"
)

func staticChecker(name string, r Result) Checker {
	return NewCheckerFunc(name, func(context.Context) Result { return r })
}

func TestNewAggregator_Defaults(t *testing.T) {
	agg := NewAggregator()
	if agg.config.Timeout != 10*time.Second {
		t.Errorf("Default timeout = %v, want 10s", agg.config.Timeout)
	}
	if agg.config.Sequential {
		t.Error("Default should run checks concurrently")
	}

	agg = NewAggregator(AggregatorConfig{Timeout: -1, Sequential: true})
	if agg.config.Timeout != 10*time.Second {
		t.Errorf("non-positive timeout should fall back to 10s, got %v", agg.config.Timeout)
	}
	if !agg.config.Sequential {
		t.Error("Sequential should be kept")
	}
}

func TestAggregator_RegisterUnregister(t *testing.T) {
	agg := NewAggregator()
	agg.Register("backend", staticChecker("backend", Healthy("ok")))
	agg.Register("settings", staticChecker("settings", Healthy("ok")))
	agg.Register("backend", staticChecker("backend", Degraded("replaced")))

	if got := agg.CheckerNames(); !slices.Equal(got, []string{"backend", "settings"}) {
		t.Fatalf("CheckerNames() = %v", got)
	}

	r, err := agg.Check(context.Background(), "backend")
	if err != nil {
		t.Fatal(err)
	}
	if r.Message != "replaced" {
		t.Errorf("re-registering should replace the checker, got %q", r.Message)
	}

	agg.Unregister("backend")
	agg.Unregister("missing")
	if got := agg.CheckerNames(); !slices.Equal(got, []string{"settings"}) {
		t.Errorf("CheckerNames() after Unregister = %v", got)
	}
}

func TestAggregator_CheckNotFound(t *testing.T) {
	_, err := NewAggregator().Check(context.Background(), "nope")
	if !errors.Is(err, ErrCheckerNotFound) {
		t.Errorf("Check() error = %v, want ErrCheckerNotFound", err)
	}
}

func TestAggregator_CheckAll(t *testing.T) {
	for _, sequential := range []bool{false, true} {
		agg := NewAggregator(AggregatorConfig{Sequential: sequential})
		agg.Register("a", staticChecker("a", Healthy("ok")))
		agg.Register("b", staticChecker("b", Degraded("slow")))
		agg.Register("c", staticChecker("c", Unhealthy("down", ErrCheckFailed)))

		results := agg.CheckAll(context.Background())
		if len(results) != 3 {
			t.Fatalf("sequential=%v: got %d results, want 3", sequential, len(results))
		}
		if results["b"].Status != StatusDegraded {
			t.Errorf("sequential=%v: b = %v", sequential, results["b"].Status)
		}
		for name, r := range results {
			if r.Timestamp.IsZero() {
				t.Errorf("%s: Timestamp should be filled in", name)
			}
		}
	}
}

func TestAggregator_CheckAllEmpty(t *testing.T) {
	results := NewAggregator().CheckAll(context.Background())
	if results == nil || len(results) != 0 {
		t.Errorf("CheckAll() = %v, want empty non-nil map", results)
	}
}

func TestAggregator_CheckAllTimeout(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{Timeout: 20 * time.Millisecond})
	block := make(chan struct{})
	defer close(block)

	agg.Register("stuck", NewCheckerFunc("stuck", func(context.Context) Result {
		<-block
		return Healthy("never")
	}))

	r := agg.CheckAll(context.Background())["stuck"]
	if r.Status != StatusUnhealthy || !errors.Is(r.Error, ErrCheckTimeout) {
		t.Errorf("stuck checker = (%v, %v), want unhealthy timeout", r.Status, r.Error)
	}
}

func TestOverall(t *testing.T) {
	tests := []struct {
		name    string
		results map[string]Result
		want    Status
	}{
		{"empty", nil, StatusHealthy},
		{"all healthy", map[string]Result{"a": Healthy(""), "b": Healthy("")}, StatusHealthy},
		{"one degraded", map[string]Result{"a": Healthy(""), "b": Degraded("")}, StatusDegraded},
		{"unhealthy wins", map[string]Result{"a": Degraded(""), "b": Unhealthy("", nil)}, StatusUnhealthy},
	}

	agg := NewAggregator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overall(tt.results); got != tt.want {
				t.Errorf("Overall() = %v, want %v", got, tt.want)
			}
			if got := agg.OverallStatus(tt.results); got != tt.want {
				t.Errorf("OverallStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAggregator_Checker(t *testing.T) {
	agg := NewAggregator()
	agg.Register("backend", staticChecker("backend", Healthy("ok")))
	agg.Register("settings", staticChecker("settings", Unhealthy("locked", ErrCheckFailed)))

	c := agg.Checker()
	if c.Name() != "aggregate" {
		t.Errorf("Name() = %q, want aggregate", c.Name())
	}

	r := c.Check(context.Background())
	if r.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy", r.Status)
	}
	if r.Message != "some checks failed" {
		t.Errorf("Message = %q", r.Message)
	}
	if _, ok := r.Details["settings"]; !ok {
		t.Error("details should include each component")
	}
}
