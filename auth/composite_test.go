package auth

import (
	"context"
	"errors"
	"testing"
)

func stubAuthenticator(name string, supports bool, result *AuthResult, err error) *AuthenticatorFunc {
	return NewAuthenticatorFunc(name,
		func(context.Context, *AuthRequest) bool { return supports },
		func(context.Context, *AuthRequest) (*AuthResult, error) { return result, err },
	)
}

func TestCompositeAuthenticator(t *testing.T) {
	alice := AuthSuccess(&Identity{Principal: "alice", Method: AuthMethodAPIKey})
	bob := AuthSuccess(&Identity{Principal: "bob", Method: AuthMethodToken})
	bad := AuthFailure(ErrInvalidCredentials, "token")
	boom := errors.New("boom")

	tests := []struct {
		name          string
		auths         []Authenticator
		wantPrincipal string
		wantErr       error
		wantInternal  bool
	}{
		{
			name:    "empty",
			wantErr: ErrMissingCredentials,
		},
		{
			name:          "first success wins",
			auths:         []Authenticator{stubAuthenticator("a", true, alice, nil), stubAuthenticator("b", true, bob, nil)},
			wantPrincipal: "alice",
		},
		{
			name:          "skips unsupported",
			auths:         []Authenticator{stubAuthenticator("a", false, alice, nil), stubAuthenticator("b", true, bob, nil)},
			wantPrincipal: "bob",
		},
		{
			name:          "failure then success",
			auths:         []Authenticator{stubAuthenticator("a", true, bad, nil), stubAuthenticator("b", true, bob, nil)},
			wantPrincipal: "bob",
		},
		{
			name:    "returns last failure",
			auths:   []Authenticator{stubAuthenticator("a", true, bad, nil)},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:    "none supported",
			auths:   []Authenticator{stubAuthenticator("a", false, alice, nil)},
			wantErr: ErrMissingCredentials,
		},
		{
			name:         "internal error propagates",
			auths:        []Authenticator{stubAuthenticator("a", true, nil, boom), stubAuthenticator("b", true, bob, nil)},
			wantInternal: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCompositeAuthenticator(tt.auths...)
			result, err := c.Authenticate(context.Background(), &AuthRequest{})
			if tt.wantInternal {
				if !errors.Is(err, boom) {
					t.Fatalf("error = %v, want boom", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Authenticate() error = %v", err)
			}
			if tt.wantPrincipal != "" {
				if !result.Authenticated || result.Identity.Principal != tt.wantPrincipal {
					t.Errorf("result = %+v, want %s", result, tt.wantPrincipal)
				}
				return
			}
			if result.Authenticated || !errors.Is(result.Error, tt.wantErr) {
				t.Errorf("result = %+v, want error %v", result, tt.wantErr)
			}
		})
	}
}

func TestCompositeAuthenticator_SkipsNil(t *testing.T) {
	c := NewCompositeAuthenticator(nil, stubAuthenticator("a", true, nil, nil))
	if len(c.authenticators) != 1 {
		t.Errorf("authenticators = %d, want 1", len(c.authenticators))
	}
}

func TestCompositeAuthenticator_Supports(t *testing.T) {
	c := NewCompositeAuthenticator(stubAuthenticator("a", false, nil, nil), stubAuthenticator("b", true, nil, nil))
	if !c.Supports(context.Background(), &AuthRequest{}) {
		t.Error("Supports() = false")
	}
	if NewCompositeAuthenticator().Supports(context.Background(), &AuthRequest{}) {
		t.Error("empty composite Supports() = true")
	}
}
