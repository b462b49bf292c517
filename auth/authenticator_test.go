package auth

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
)

func TestAuthRequest_GetHeader(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string][]string
		key     string
		want    string
	}{
		{"nil headers", nil, "X-Api-Key", ""},
		{"canonical", map[string][]string{"X-Api-Key": {"a", "b"}}, "X-API-Key", "a"},
		{"non-canonical stored key", map[string][]string{"x-api-key": {"a"}}, "X-API-Key", "a"},
		{"missing", map[string][]string{"Authorization": {"x"}}, "X-API-Key", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &AuthRequest{Headers: tt.headers}
			if got := req.GetHeader(tt.key); got != tt.want {
				t.Errorf("GetHeader(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestRequestFromHTTP(t *testing.T) {
	r := httptest.NewRequest("POST", "/tenants/blog/purge", nil)
	r.Header.Set("X-API-Key", "k")

	req := RequestFromHTTP(r)
	if req.Resource != "/tenants/blog/purge" {
		t.Errorf("Resource = %q", req.Resource)
	}
	if req.GetHeader("X-API-Key") != "k" {
		t.Error("header not carried over")
	}
}

func TestAuthResultHelpers(t *testing.T) {
	ok := AuthSuccess(&Identity{Principal: "alice", Method: AuthMethodToken})
	if !ok.Authenticated || ok.Method != "token" {
		t.Errorf("AuthSuccess() = %+v", ok)
	}

	fail := AuthFailure(ErrInvalidCredentials, "api_key")
	if fail.Authenticated || !errors.Is(fail.Error, ErrInvalidCredentials) || fail.Method != "api_key" {
		t.Errorf("AuthFailure() = %+v", fail)
	}
}

func TestAuthenticatorFunc(t *testing.T) {
	called := false
	f := NewAuthenticatorFunc("custom",
		func(context.Context, *AuthRequest) bool { return true },
		func(context.Context, *AuthRequest) (*AuthResult, error) {
			called = true
			return AuthSuccess(AnonymousIdentity()), nil
		},
	)

	if f.Name() != "custom" {
		t.Errorf("Name() = %q", f.Name())
	}
	if !f.Supports(context.Background(), &AuthRequest{}) {
		t.Error("Supports() = false")
	}
	if _, err := f.Authenticate(context.Background(), &AuthRequest{}); err != nil || !called {
		t.Errorf("Authenticate() err = %v, called = %v", err, called)
	}
}
