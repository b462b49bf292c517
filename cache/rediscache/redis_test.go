package rediscache

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"
)

// newTestStore connects to the server named by FRAGCACHE_TEST_REDIS_URL and
// skips the test when it is unset or unreachable.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	url := os.Getenv("FRAGCACHE_TEST_REDIS_URL")
	if url == "" {
		t.Skip("FRAGCACHE_TEST_REDIS_URL not set")
	}

	prefix := fmt.Sprintf("fragcache-test:%d:", time.Now().UnixNano())
	s, err := NewFromURL(url, prefix)
	if err != nil {
		t.Fatalf("NewFromURL: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Ping(ctx); err != nil {
		t.Skipf("redis unreachable: %v", err)
	}
	return s
}

func TestStore_GetSetDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = (%v, %v), want (false, nil)", ok, err)
	}

	if err := s.Set(ctx, "k_content", []byte("<ul></ul>"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := s.Get(ctx, "k_content")
	if err != nil || !ok || string(got) != "<ul></ul>" {
		t.Fatalf("Get = (%q, %v, %v)", got, ok, err)
	}

	if err := s.Delete(ctx, "k_content"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "k_content"); ok {
		t.Error("key should be gone after Delete")
	}
	if err := s.Delete(ctx, "k_content"); err != nil {
		t.Errorf("second Delete = %v, want nil", err)
	}
}

func TestStore_EmptyValueIsAHit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	t.Cleanup(func() { _ = s.Delete(ctx, "fp_key") })

	if err := s.Set(ctx, "fp_key", []byte{}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := s.Get(ctx, "fp_key")
	if err != nil || !ok || len(got) != 0 {
		t.Errorf("Get = (%q, %v, %v), want empty hit", got, ok, err)
	}
}

func TestStore_TTL(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "short", []byte("x"), 100*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(300 * time.Millisecond)
	if _, ok, _ := s.Get(ctx, "short"); ok {
		t.Error("entry should have expired")
	}
}

func TestNewFromURL_InvalidURL(t *testing.T) {
	if _, err := NewFromURL("not a url", ""); err == nil {
		t.Error("NewFromURL should reject an invalid URL")
	}
}

func TestNew_DefaultPrefix(t *testing.T) {
	s := New(nil, "")
	if s.prefix != DefaultPrefix {
		t.Errorf("prefix = %q, want %q", s.prefix, DefaultPrefix)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close on borrowed client = %v, want nil", err)
	}
}
