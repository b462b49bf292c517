package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestAuthzError(t *testing.T) {
	cause := errors.New("underlying")
	err := &AuthzError{Subject: "alice", Tenant: "blog", Action: ActionPurge, Reason: "nope", Cause: cause}

	if !errors.Is(err, ErrForbidden) {
		t.Error("AuthzError should match ErrForbidden")
	}
	if !errors.Is(err, cause) {
		t.Error("AuthzError should unwrap to its cause")
	}
	for _, part := range []string{`"alice"`, `"blog"`, `"purge"`, `"nope"`} {
		if !strings.Contains(err.Error(), part) {
			t.Errorf("Error() = %q, missing %s", err.Error(), part)
		}
	}
}

func TestAllowAllAuthorizer(t *testing.T) {
	var a AllowAllAuthorizer
	if err := a.Authorize(context.Background(), &AuthzRequest{Action: ActionPurge}); err != nil {
		t.Errorf("Authorize() = %v", err)
	}
	if a.Name() != "allow_all" {
		t.Errorf("Name() = %q", a.Name())
	}
}

func TestDenyAllAuthorizer(t *testing.T) {
	var a DenyAllAuthorizer
	err := a.Authorize(context.Background(), &AuthzRequest{
		Subject: &Identity{Principal: "alice"},
		Tenant:  "blog",
		Action:  ActionStatus,
	})
	var azErr *AuthzError
	if !errors.As(err, &azErr) {
		t.Fatalf("Authorize() = %v, want *AuthzError", err)
	}
	if azErr.Subject != "alice" || azErr.Tenant != "blog" {
		t.Errorf("AuthzError = %+v", azErr)
	}

	if err := a.Authorize(context.Background(), &AuthzRequest{}); !errors.Is(err, ErrForbidden) {
		t.Errorf("nil subject: %v", err)
	}
}

func TestAuthorizerFunc(t *testing.T) {
	var seen string
	f := AuthorizerFunc(func(_ context.Context, req *AuthzRequest) error {
		seen = req.Tenant
		return nil
	})
	_ = f.Authorize(context.Background(), &AuthzRequest{Tenant: "shop"})
	if seen != "shop" {
		t.Errorf("func saw tenant %q", seen)
	}
	if f.Name() != "func" {
		t.Errorf("Name() = %q", f.Name())
	}
}
