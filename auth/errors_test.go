package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{
		ErrMissingCredentials,
		ErrInvalidCredentials,
		ErrTokenExpired,
		ErrTokenMalformed,
		ErrMissingSecret,
		ErrForbidden,
	}
	for i, a := range sentinels {
		if !strings.HasPrefix(a.Error(), "auth: ") {
			t.Errorf("%q lacks the auth: prefix", a.Error())
		}
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("%v unexpectedly matches %v", a, b)
			}
		}
	}
}
