package fragment

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonwraymond/fragcache/cache"
)

// fakeClock is a manually advanced time source shared by backend and engine.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type call struct {
	op  string
	key string
	ttl time.Duration
}

// recordingCache wraps a MemoryCache, records every call and can inject
// failures per operation.
type recordingCache struct {
	*cache.MemoryCache

	mu    sync.Mutex
	calls []call
	fail  func(op, key string) error
}

func newRecordingCache(opts ...cache.MemoryOption) *recordingCache {
	return &recordingCache{MemoryCache: cache.NewMemoryCache(opts...)}
}

func (r *recordingCache) record(op, key string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{op: op, key: key, ttl: ttl})
	if r.fail != nil {
		return r.fail(op, key)
	}
	return nil
}

func (r *recordingCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := r.record("get", key, 0); err != nil {
		return nil, false, err
	}
	return r.MemoryCache.Get(ctx, key)
}

func (r *recordingCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.record("set", key, ttl); err != nil {
		return err
	}
	return r.MemoryCache.Set(ctx, key, value, ttl)
}

func (r *recordingCache) Delete(ctx context.Context, key string) error {
	if err := r.record("delete", key, 0); err != nil {
		return err
	}
	return r.MemoryCache.Delete(ctx, key)
}

func (r *recordingCache) setFail(fn func(op, key string) error) {
	r.mu.Lock()
	r.fail = fn
	r.mu.Unlock()
}

func (r *recordingCache) reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}

func (r *recordingCache) Calls() []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]call(nil), r.calls...)
}

// sets returns the recorded set calls whose key has the given suffix.
func (r *recordingCache) sets(suffix string) []call {
	var out []call
	for _, c := range r.Calls() {
		if c.op == "set" && strings.HasSuffix(c.key, suffix) {
			out = append(out, c)
		}
	}
	return out
}

// raw reads a backend key directly, bypassing the recorder.
func (r *recordingCache) raw(t *testing.T, key string) ([]byte, bool) {
	t.Helper()
	v, ok, err := r.MemoryCache.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("raw Get(%q): %v", key, err)
	}
	return v, ok
}

func ns(key string) string { return DefaultNamespace + ":" + key }

func newTestEngine(t *testing.T, backend cache.Cache, mutate ...func(*Config)) *Engine {
	t.Helper()
	cfg := Config{Enabled: true, Location: time.UTC}
	for _, m := range mutate {
		m(&cfg)
	}
	eng, err := New(context.Background(), backend, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cfg.Enabled && backend != nil && !eng.Enabled() {
		t.Fatalf("engine unexpectedly disabled: %v", eng.Capability().Reasons)
	}
	return eng
}
