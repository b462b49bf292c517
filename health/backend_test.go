package health

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonwraymond/fragcache/cache"
)

// mapCache implements cache.Cache without Ping so the probe path is used.
type mapCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	setErr  error
	getErr  error
	corrupt bool
	delay   time.Duration
}

func newMapCache() *mapCache { return &mapCache{data: make(map[string][]byte)} }

func (m *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	time.Sleep(m.delay)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.data[key]
	if ok && m.corrupt {
		return []byte("garbage"), true, nil
	}
	return v, ok, nil
}

func (m *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func (m *mapCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// pingCache implements cache.Pinger.
type pingCache struct {
	*mapCache
	err error
}

func (p *pingCache) Ping(context.Context) error { return p.err }

func TestBackendChecker_Missing(t *testing.T) {
	r := NewBackendChecker("redis", nil).Check(context.Background())
	if r.Status != StatusUnhealthy {
		t.Fatalf("Status = %v, want unhealthy", r.Status)
	}
	if !errors.Is(r.Error, ErrBackendMissing) {
		t.Errorf("Error = %v, want ErrBackendMissing", r.Error)
	}
}

func TestBackendChecker_Ping(t *testing.T) {
	down := errors.New("dial tcp: connection refused")

	tests := []struct {
		name   string
		err    error
		status Status
	}{
		{"reachable", nil, StatusHealthy},
		{"unreachable", down, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &pingCache{mapCache: newMapCache(), err: tt.err}
			r := NewBackendChecker("redis", backend).Check(context.Background())

			if r.Status != tt.status {
				t.Fatalf("Status = %v, want %v", r.Status, tt.status)
			}
			if r.Details["method"] != "ping" {
				t.Errorf("method = %v, want ping", r.Details["method"])
			}
			if tt.err != nil && !errors.Is(r.Error, tt.err) {
				t.Errorf("Error = %v, want %v", r.Error, tt.err)
			}
			if len(backend.data) != 0 {
				t.Error("ping path must not write a probe value")
			}
		})
	}
}

func TestBackendChecker_Probe(t *testing.T) {
	backend := newMapCache()
	r := NewBackendChecker("plain", backend).Check(context.Background())

	if r.Status != StatusHealthy {
		t.Fatalf("Status = %v (%v), want healthy", r.Status, r.Error)
	}
	if r.Details["method"] != "probe" {
		t.Errorf("method = %v, want probe", r.Details["method"])
	}
	if _, ok := backend.data[DefaultProbeKey]; ok {
		t.Error("probe value should be deleted afterwards")
	}
}

func TestBackendChecker_ProbeFailures(t *testing.T) {
	readOnly := errors.New("READONLY")

	tests := []struct {
		name    string
		backend *mapCache
		wantErr error
	}{
		{"set fails", &mapCache{data: map[string][]byte{}, setErr: readOnly}, readOnly},
		{"get fails", &mapCache{data: map[string][]byte{}, getErr: readOnly}, readOnly},
		{"value mismatch", &mapCache{data: map[string][]byte{}, corrupt: true}, ErrProbeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewBackendChecker("plain", tt.backend).Check(context.Background())
			if r.Status != StatusUnhealthy {
				t.Fatalf("Status = %v, want unhealthy", r.Status)
			}
			if !errors.Is(r.Error, tt.wantErr) {
				t.Errorf("Error = %v, want %v", r.Error, tt.wantErr)
			}
		})
	}
}

func TestBackendChecker_Slow(t *testing.T) {
	backend := newMapCache()
	backend.delay = 20 * time.Millisecond

	r := NewBackendChecker("plain", backend, BackendCheckerConfig{SlowThreshold: time.Millisecond}).
		Check(context.Background())
	if r.Status != StatusDegraded {
		t.Fatalf("Status = %v, want degraded", r.Status)
	}
}

func TestBackendChecker_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewBackendChecker("memory", cache.NewMemoryCache()).Check(ctx)
	if r.Status != StatusUnhealthy || !errors.Is(r.Error, context.Canceled) {
		t.Fatalf("Check() = (%v, %v), want unhealthy/canceled", r.Status, r.Error)
	}
}

func TestBackendChecker_MemoryCache(t *testing.T) {
	c := NewBackendChecker("", cache.NewNamespaced(cache.NewMemoryCache(), "fragment"))
	if c.Name() != "backend" {
		t.Errorf("Name() = %q, want default backend", c.Name())
	}
	if r := c.Check(context.Background()); r.Status != StatusHealthy {
		t.Errorf("Status = %v, want healthy", r.Status)
	}
}
