package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidTenant indicates an empty tenant ID or one containing '/'.
	ErrInvalidTenant = errors.New("settings: invalid tenant id")

	// ErrClosed indicates use of a store after Close.
	ErrClosed = errors.New("settings: store closed")
)

// Tenant is one site served by the fragment cache.
type Tenant struct {
	ID        string    `json:"id"`
	Archived  bool      `json:"archived,omitempty"`
	Spam      bool      `json:"spam,omitempty"`
	Deleted   bool      `json:"deleted,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Active reports whether network-wide operations include the tenant.
func (t Tenant) Active() bool {
	return !t.Archived && !t.Spam && !t.Deleted
}

// Store persists the per-tenant enable toggle and the tenant registry.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Enabled distinguishes an unset toggle (set=false) from an explicit off.
//   - Delete removes the toggle only; the tenant record stays.
//   - Tenants returns tenants ordered by ID.
type Store interface {
	Enabled(ctx context.Context, tenant string) (value, set bool, err error)
	SetEnabled(ctx context.Context, tenant string, enabled bool) error
	Delete(ctx context.Context, tenant string) error
	PutTenant(ctx context.Context, t Tenant) error
	Tenants(ctx context.Context) ([]Tenant, error)
	Close() error
}

// ValidateTenant checks a tenant ID.
func ValidateTenant(id string) error {
	if id == "" || strings.ContainsAny(id, "/\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidTenant, id)
	}
	return nil
}
