package secret

import (
	"errors"
	"strings"
	"testing"
)

func TestExpandEnvStrict_MissingVarErrors(t *testing.T) {
	t.Setenv("PRESENT", "ok")

	_, err := ExpandEnvStrict("a=${PRESENT} b=${MISSING} c=${MISSING} d=${ALSO_MISSING}")
	if !errors.Is(err, ErrMissingEnv) {
		t.Fatalf("expected ErrMissingEnv, got: %v", err)
	}
	if !strings.HasSuffix(err.Error(), "ALSO_MISSING, MISSING") {
		t.Fatalf("expected sorted, deduplicated names in error, got: %v", err)
	}
}

func TestExpandEnvStrict_DollarEscape(t *testing.T) {
	t.Setenv("X", "y")

	out, err := ExpandEnvStrict("$$${X}")
	if err != nil {
		t.Fatalf("ExpandEnvStrict() error = %v", err)
	}
	if out != "$y" {
		t.Fatalf("ExpandEnvStrict() = %q, want %q", out, "$y")
	}
}

func TestExpandStrict(t *testing.T) {
	env := map[string]string{"HOST": "cache", "PORT": "6379", "EMPTY": ""}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"braced", "redis://${HOST}:${PORT}/0", "redis://cache:6379/0", false},
		{"bare", "$HOST", "cache", false},
		{"bare unset is empty", "x$UNSET", "x", false},
		{"set but empty", "${EMPTY}", "", false},
		{"escape", "cost: $$5", "cost: $5", false},
		{"no variables", "plain", "plain", false},
		{"braced unset", "${UNSET}", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandStrict(tt.in, lookup)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExpandStrict() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ExpandStrict() = %q, want %q", got, tt.want)
			}
		})
	}
}
