package auth

import (
	"slices"
	"time"
)

// AuthMethod indicates how authentication was performed.
type AuthMethod string

const (
	AuthMethodNone      AuthMethod = "none"
	AuthMethodAPIKey    AuthMethod = "api_key"
	AuthMethodToken     AuthMethod = "token"
	AuthMethodAnonymous AuthMethod = "anonymous"
)

// Identity represents an authenticated principal.
type Identity struct {
	// Principal is the unique identifier (e.g., operator name, key owner).
	Principal string

	// TenantID scopes the identity to one tenant. Empty for roles that span
	// all tenants.
	TenantID string

	// Roles are the roles assigned to this identity.
	Roles []string

	// Scopes restricts the identity to the listed actions regardless of its
	// roles. Empty means unrestricted. Purge tokens carry exactly one.
	Scopes []string

	// Method indicates how authentication was performed.
	Method AuthMethod

	// Claims contains additional attributes (key ID, token ID).
	Claims map[string]any

	// ExpiresAt is when this identity expires.
	ExpiresAt time.Time

	// IssuedAt is when this identity was created.
	IssuedAt time.Time
}

// HasRole checks if the identity has a specific role.
func (id *Identity) HasRole(role string) bool {
	return slices.Contains(id.Roles, role)
}

// InScope reports whether action is allowed by the identity's scopes.
func (id *Identity) InScope(action string) bool {
	return len(id.Scopes) == 0 || slices.Contains(id.Scopes, action)
}

// IsExpired reports whether the identity has expired at now.
func (id *Identity) IsExpired(now time.Time) bool {
	return !id.ExpiresAt.IsZero() && now.After(id.ExpiresAt)
}

// IsAnonymous returns true if this is an anonymous identity.
func (id *Identity) IsAnonymous() bool {
	return id.Method == AuthMethodAnonymous || id.Principal == ""
}

// AnonymousIdentity creates a default anonymous identity.
func AnonymousIdentity() *Identity {
	return &Identity{
		Principal: "anonymous",
		Method:    AuthMethodAnonymous,
		Claims:    make(map[string]any),
	}
}
