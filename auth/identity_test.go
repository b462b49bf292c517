package auth

import (
	"testing"
	"time"
)

func TestIdentity_HasRole(t *testing.T) {
	id := &Identity{Roles: []string{RoleViewer, RoleOperator}}
	if !id.HasRole(RoleOperator) {
		t.Error("HasRole(operator) = false")
	}
	if id.HasRole(RoleAdmin) {
		t.Error("HasRole(admin) = true")
	}
}

func TestIdentity_InScope(t *testing.T) {
	tests := []struct {
		name   string
		scopes []string
		action string
		want   bool
	}{
		{"no scopes is unrestricted", nil, ActionPurge, true},
		{"matching scope", []string{ActionPurge}, ActionPurge, true},
		{"other scope", []string{ActionPurge}, ActionStatus, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := &Identity{Scopes: tt.scopes}
			if got := id.InScope(tt.action); got != tt.want {
				t.Errorf("InScope(%q) = %v, want %v", tt.action, got, tt.want)
			}
		})
	}
}

func TestIdentity_IsExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		exp  time.Time
		want bool
	}{
		{"zero never expires", time.Time{}, false},
		{"future", now.Add(time.Hour), false},
		{"past", now.Add(-time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := &Identity{ExpiresAt: tt.exp}
			if got := id.IsExpired(now); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAnonymousIdentity(t *testing.T) {
	id := AnonymousIdentity()
	if !id.IsAnonymous() {
		t.Error("AnonymousIdentity().IsAnonymous() = false")
	}
	if id.Claims == nil {
		t.Error("Claims should be initialized")
	}
	if (&Identity{Principal: "alice", Method: AuthMethodAPIKey}).IsAnonymous() {
		t.Error("named identity reported anonymous")
	}
}
