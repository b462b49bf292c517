package auth

import (
	"context"
	"slices"
)

// Built-in role names.
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RoleViewer   = "viewer"
)

// RoleConfig defines what a role may do.
type RoleConfig struct {
	// Actions lists permitted actions. "*" permits every action.
	Actions []string

	// Inherits lists roles this role inherits from.
	Inherits []string

	// AllTenants lets the role act on any tenant. Otherwise the identity's
	// TenantID must equal the request's tenant.
	AllTenants bool
}

// RoleAuthorizer provides role-based access control over admin actions.
type RoleAuthorizer struct {
	roles       map[string]RoleConfig
	defaultRole string
}

// DefaultRoles returns the built-in role table.
func DefaultRoles() map[string]RoleConfig {
	return map[string]RoleConfig{
		RoleAdmin: {
			Actions:    []string{"*"},
			AllTenants: true,
		},
		RoleOperator: {
			Actions:  []string{ActionEnable, ActionPurge, ActionIssueToken},
			Inherits: []string{RoleViewer},
		},
		RoleViewer: {
			Actions: []string{ActionStatus},
		},
	}
}

// NewRoleAuthorizer creates a role authorizer. A nil roles map uses
// DefaultRoles. defaultRole is assigned to identities without roles.
func NewRoleAuthorizer(roles map[string]RoleConfig, defaultRole string) *RoleAuthorizer {
	if roles == nil {
		roles = DefaultRoles()
	}
	return &RoleAuthorizer{roles: roles, defaultRole: defaultRole}
}

// Name returns "roles".
func (a *RoleAuthorizer) Name() string {
	return "roles"
}

// Authorize checks if the identity is allowed to perform the action on the
// tenant. An identity's Scopes restrict the action regardless of role.
func (a *RoleAuthorizer) Authorize(_ context.Context, req *AuthzRequest) error {
	if req.Subject == nil {
		return deny(req, "no identity provided")
	}
	if !req.Subject.InScope(req.Action) {
		return deny(req, "action outside token scope")
	}

	for _, roleName := range a.collectRoles(req.Subject) {
		role, ok := a.roles[roleName]
		if !ok {
			continue
		}
		if rolePermits(role, req) {
			return nil
		}
	}
	return deny(req, "no role permits this action")
}

func (a *RoleAuthorizer) collectRoles(subject *Identity) []string {
	seen := make(map[string]bool)
	var result []string

	queue := slices.Clone(subject.Roles)
	if len(queue) == 0 && a.defaultRole != "" {
		queue = append(queue, a.defaultRole)
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if seen[current] {
			continue
		}
		seen[current] = true
		result = append(result, current)

		if role, ok := a.roles[current]; ok {
			for _, inherited := range role.Inherits {
				if !seen[inherited] {
					queue = append(queue, inherited)
				}
			}
		}
	}
	return result
}

func rolePermits(role RoleConfig, req *AuthzRequest) bool {
	if !role.AllTenants && (req.Subject.TenantID == "" || req.Subject.TenantID != req.Tenant) {
		return false
	}
	return slices.Contains(role.Actions, "*") || slices.Contains(role.Actions, req.Action)
}

var _ Authorizer = (*RoleAuthorizer)(nil)
