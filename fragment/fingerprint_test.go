package fragment

import (
	"errors"
	"testing"
)

func TestFingerprint_MapOrderIndependent(t *testing.T) {
	a := map[string]any{"post_type": "post", "paged": 2, "tax": map[string]any{"b": 1, "a": 2}}
	b := map[string]any{"tax": map[string]any{"a": 2, "b": 1}, "paged": 2, "post_type": "post"}

	fa, err := Fingerprint(a)
	if err != nil {
		t.Fatal(err)
	}
	fb, err := Fingerprint(b)
	if err != nil {
		t.Fatal(err)
	}
	if fa != fb {
		t.Errorf("fingerprints differ: %s vs %s", fa, fb)
	}
	if len(fa) != 64 {
		t.Errorf("len(fingerprint) = %d, want 64 hex chars", len(fa))
	}
}

func TestFingerprint_StructMatchesMap(t *testing.T) {
	type query struct {
		Paged int    `json:"paged"`
		Type  string `json:"post_type"`
	}

	fs, _ := Fingerprint(query{Paged: 2, Type: "post"})
	fm, _ := Fingerprint(map[string]any{"post_type": "post", "paged": 2})
	if fs != fm {
		t.Errorf("struct and equivalent map should fingerprint identically")
	}
}

func TestFingerprint_DistinguishesValues(t *testing.T) {
	values := []any{
		nil,
		map[string]any{"paged": 1},
		map[string]any{"paged": 2},
		[]any{1, 2},
		[]any{2, 1},
		"2",
		2,
		int64(9007199254740993),
		int64(9007199254740992),
	}

	seen := make(map[string]int)
	for i, v := range values {
		fp, err := Fingerprint(v)
		if err != nil {
			t.Fatalf("Fingerprint(%v): %v", v, err)
		}
		if j, dup := seen[fp]; dup {
			t.Errorf("values %d (%v) and %d (%v) collide", j, values[j], i, v)
		}
		seen[fp] = i
	}
}

func TestFingerprint_Unserializable(t *testing.T) {
	_, err := Fingerprint(map[string]any{"fn": func() {}})
	if !errors.Is(err, ErrUnserializable) {
		t.Errorf("error = %v, want ErrUnserializable", err)
	}
}
