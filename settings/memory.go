package settings

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu      sync.RWMutex
	enabled map[string]bool
	tenants map[string]Tenant
	closed  bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		enabled: make(map[string]bool),
		tenants: make(map[string]Tenant),
	}
}

func (s *MemoryStore) Enabled(_ context.Context, tenant string) (bool, bool, error) {
	if err := ValidateTenant(tenant); err != nil {
		return false, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, false, ErrClosed
	}
	v, ok := s.enabled[tenant]
	return v, ok, nil
}

func (s *MemoryStore) SetEnabled(_ context.Context, tenant string, enabled bool) error {
	if err := ValidateTenant(tenant); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.enabled[tenant] = enabled
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, tenant string) error {
	if err := ValidateTenant(tenant); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	delete(s.enabled, tenant)
	return nil
}

func (s *MemoryStore) PutTenant(_ context.Context, t Tenant) error {
	if err := ValidateTenant(t.ID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.tenants[t.ID] = t
	return nil
}

func (s *MemoryStore) Tenants(_ context.Context) ([]Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]Tenant, 0, len(s.tenants))
	for _, id := range slices.Sorted(maps.Keys(s.tenants)) {
		out = append(out, s.tenants[id])
	}
	return out, nil
}

// Close marks the store closed. It is safe to call more than once.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ Store = (*MemoryStore)(nil)
