package secret

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestRegistry_RegisterAndCreate(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register("stub", func(cfg map[string]any) (Provider, error) {
		return &stubProvider{name: "stub"}, nil
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	p, err := reg.Create("stub", map[string]any{"k": "v"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if p == nil || p.Name() != "stub" {
		t.Fatalf("unexpected provider: %#v", p)
	}
}

func TestRegistry_RegisterInvalid(t *testing.T) {
	reg := NewRegistry()
	factory := func(cfg map[string]any) (Provider, error) { return &stubProvider{name: "stub"}, nil }

	if err := reg.Register(" ", factory); err == nil {
		t.Error("expected error for blank name")
	}
	if err := reg.Register("stub", nil); err == nil {
		t.Error("expected error for nil factory")
	}
	_ = reg.Register("stub", factory)
	if err := reg.Register("stub", factory); !errors.Is(err, ErrProviderExists) {
		t.Errorf("duplicate Register() = %v, want ErrProviderExists", err)
	}
}

func TestRegistry_CreateUnknown(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Create("missing", nil); !errors.Is(err, ErrProviderNotRegistered) {
		t.Fatalf("Create() = %v, want ErrProviderNotRegistered", err)
	}
}

func TestDefaultRegistry(t *testing.T) {
	if got := DefaultRegistry.List(); !slices.Equal(got, []string{"env", "file"}) {
		t.Errorf("List() = %v, want [env file]", got)
	}
	if _, err := DefaultRegistry.Create("file", nil); !errors.Is(err, ErrInvalidRef) {
		t.Errorf("file provider without dir = %v, want ErrInvalidRef", err)
	}
}

func TestRegistry_NewResolver(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "token"), []byte("s3cr3t\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FRAGCACHE_TEST_PASSWORD", "hunter2")

	r, err := DefaultRegistry.NewResolver(true, map[string]map[string]any{
		"env":  {"prefix": "FRAGCACHE_TEST_"},
		"file": {"dir": dir},
	})
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })

	ctx := context.Background()
	if got, err := r.ResolveValue(ctx, "secretref:env:PASSWORD"); err != nil || got != "hunter2" {
		t.Errorf("env ref = %q, %v", got, err)
	}
	if got, err := r.ResolveValue(ctx, "Bearer secretref:file:token"); err != nil || got != "Bearer s3cr3t" {
		t.Errorf("file ref = %q, %v", got, err)
	}
}

func TestRegistry_NewResolverFailureClosesCreated(t *testing.T) {
	reg := NewRegistry()
	closed := false
	_ = reg.Register("a", func(map[string]any) (Provider, error) {
		return &stubProvider{name: "a", onClose: func() { closed = true }}, nil
	})
	_ = reg.Register("b", func(map[string]any) (Provider, error) {
		return nil, errors.New("bad config")
	})

	if _, err := reg.NewResolver(false, map[string]map[string]any{"a": nil, "b": nil}); err == nil {
		t.Fatal("expected error")
	}
	if !closed {
		t.Error("provider created before the failure should be closed")
	}
}
