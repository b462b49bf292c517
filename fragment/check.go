package fragment

import (
	"context"

	"github.com/jonwraymond/fragcache/observe"
)

// Outcome is the result of testing a key against the backend.
type Outcome int

const (
	// FreshMiss means nothing usable was stored (or the backend could not answer).
	FreshMiss Outcome = iota
	// StaleMiss means entries existed but no longer match; they were evicted.
	StaleMiss
	// Hit means the stored content can be replayed.
	Hit
)

func (o Outcome) String() string {
	switch o {
	case Hit:
		return "hit"
	case StaleMiss:
		return "stale_miss"
	default:
		return "fresh_miss"
	}
}

// check compares the stored fingerprint for key with the current one. Stale
// entries are deleted before returning.
func (e *Engine) check(ctx context.Context, key Key, meta observe.FragmentMeta) (Outcome, []byte) {
	stored, ok, err := e.store.Get(ctx, key.MarkerKey())
	if err != nil {
		e.backendError(ctx, meta, "get", err)
		return FreshMiss, nil
	}
	if !ok {
		return FreshMiss, nil
	}

	if string(stored) != key.Fingerprint {
		e.evict(ctx, key, meta)
		return StaleMiss, nil
	}

	content, ok, err := e.store.Get(ctx, key.ContentKey())
	if err != nil {
		e.backendError(ctx, meta, "get", err)
		return FreshMiss, nil
	}
	if !ok {
		// The content expired on its own while the marker survived.
		e.evict(ctx, key, meta)
		return StaleMiss, nil
	}

	return Hit, content
}

func (e *Engine) evict(ctx context.Context, key Key, meta observe.FragmentMeta) {
	for _, k := range []string{key.MarkerKey(), key.ContentKey()} {
		if err := e.store.Delete(ctx, k); err != nil {
			e.backendError(ctx, meta, "delete", err)
		}
	}
}
