// Package auth guards the fragment cache admin surface.
//
// Operators authenticate with API keys or with short-lived HS256 action
// tokens issued by a TokenService. A token names one tenant and one action,
// so handing a purge token to a deploy hook lets it purge that tenant and
// nothing else. RoleAuthorizer checks the admin, operator and viewer roles
// against the requested tenant and action.
//
// Middleware wires an Authenticator into net/http and stores the resulting
// Identity in the request context.
package auth
