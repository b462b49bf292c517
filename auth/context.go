package auth

import "context"

type identityCtxKey struct{}

// WithIdentity attaches the caller's identity to ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// IdentityFromContext returns the identity attached by WithIdentity, or nil.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityCtxKey{}).(*Identity)
	return id
}

// PrincipalFromContext returns the caller's principal, or "" when the
// request carries no identity.
func PrincipalFromContext(ctx context.Context) string {
	if id := IdentityFromContext(ctx); id != nil {
		return id.Principal
	}
	return ""
}

// Actor names the caller in audit logs. Requests without a principal are
// reported as "anonymous".
func Actor(ctx context.Context) string {
	if p := PrincipalFromContext(ctx); p != "" {
		return p
	}
	return "anonymous"
}
