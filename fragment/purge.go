package fragment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jonwraymond/fragcache/observe"
)

// IndexKey is the backend key, inside the engine namespace, of the list of
// committed fragment keys.
const IndexKey = "fragment_index"

// PurgeResult summarizes a bulk purge.
type PurgeResult struct {
	// Keys counts index entries whose backend entries were deleted.
	// Duplicate entries are counted each time.
	Keys int
	// Failures counts index entries with at least one failed delete.
	Failures int
	// Err joins every backend error met during the purge.
	Err error
}

func decodeIndex(raw []byte) ([]string, error) {
	var keys []string
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexCorrupt, err)
	}
	return keys, nil
}

// appendIndex records name in the index. The read-modify-write is not atomic;
// a concurrent commit can drop an entry, leaving that fragment to expire on
// its own TTL instead of being purged.
func (e *Engine) appendIndex(ctx context.Context, name string, meta observe.FragmentMeta) {
	raw, ok, err := e.store.Get(ctx, IndexKey)
	if err != nil {
		// Writing a fresh index here would drop every key already recorded.
		e.backendError(ctx, meta, "get", err)
		return
	}

	var keys []string
	if ok {
		keys, err = decodeIndex(raw)
		if err != nil {
			e.in.Logger.WithFragment(meta).Error(ctx, "replacing corrupt fragment index",
				observe.Field{Key: "error", Value: err},
			)
			keys = nil
		}
	}

	data, err := json.Marshal(append(keys, name))
	if err != nil {
		return
	}
	if err := e.store.Set(ctx, IndexKey, data, 0); err != nil {
		e.backendError(ctx, meta, "set", err)
	}
}

// Purge deletes every indexed fragment and then the index itself. It runs
// whether or not the engine is enabled, tolerates entries that have already
// expired, and keeps going past individual failures. A second Purge finds no
// index and does nothing.
func (e *Engine) Purge(ctx context.Context) PurgeResult {
	var res PurgeResult
	if e.store == nil {
		return res
	}

	meta := observe.FragmentMeta{Tenant: e.cfg.Tenant}
	ctx, span := e.in.Tracer.StartSpan(ctx, observe.OpPurge, meta)
	defer func() {
		e.in.Metrics.RecordPurge(ctx, e.cfg.Tenant, res.Keys, res.Failures)
		e.in.Tracer.EndSpan(span, res.Err)
	}()

	raw, ok, err := e.store.Get(ctx, IndexKey)
	if err != nil {
		e.backendError(ctx, meta, "get", err)
		res.Err = err
		return res
	}
	if !ok {
		return res
	}

	keys, err := decodeIndex(raw)
	if err != nil {
		e.in.Logger.WithFragment(meta).Error(ctx, "fragment index unreadable, nothing to purge",
			observe.Field{Key: "error", Value: err},
		)
		keys = nil
	}

	var errs []error
	for _, name := range keys {
		k := Key{Name: name}
		failed := false
		for _, bk := range []string{k.MarkerKey(), k.ContentKey()} {
			if err := e.store.Delete(ctx, bk); err != nil {
				e.backendError(ctx, e.meta(Site(""), name), "delete", err)
				errs = append(errs, fmt.Errorf("delete %s: %w", bk, err))
				failed = true
			}
		}
		if failed {
			res.Failures++
		} else {
			res.Keys++
		}
	}

	if err := e.store.Delete(ctx, IndexKey); err != nil {
		e.backendError(ctx, meta, "delete", err)
		errs = append(errs, fmt.Errorf("delete %s: %w", IndexKey, err))
	}

	res.Err = errors.Join(errs...)
	e.in.Logger.WithFragment(meta).Info(ctx, "fragments purged",
		observe.Field{Key: "keys", Value: res.Keys},
		observe.Field{Key: "failures", Value: res.Failures},
	)
	return res
}
