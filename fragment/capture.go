package fragment

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jonwraymond/fragcache/observe"
)

type fragmentState int

const (
	statePassthrough fragmentState = iota
	stateCapturing
	stateFinished
)

// Fragment is the handle for one render started by Engine.Begin.
//
// While capturing, writes are buffered and reach the output only when End
// or Close is called. In pass-through mode (engine disabled, or the key
// could not be derived) writes go straight to the output.
//
// A Fragment is not safe for concurrent use.
type Fragment struct {
	engine *Engine
	ctx    context.Context
	w      io.Writer

	key   Key
	meta  observe.FragmentMeta
	ttl   time.Duration
	buf   bytes.Buffer
	state fragmentState
	err   error
}

// Begin starts rendering the fragment for site and d.
//
// On a hit the cached content is written to w and Begin returns a finished
// handle and true; the caller must skip rendering. Otherwise it returns
// false and a handle the caller renders into, then calls End. Deferring
// Close releases the handle on early return.
func (e *Engine) Begin(ctx context.Context, w io.Writer, site Site, d Discriminator, opts ...BeginOption) (*Fragment, bool) {
	f := &Fragment{engine: e, ctx: ctx, w: w, state: statePassthrough}
	if !e.enabled {
		return f, false
	}

	key, err := DeriveKey(site, d)
	if err != nil {
		e.in.Logger.WithFragment(e.meta(site, "")).Warn(ctx, "fragment key derivation failed, rendering uncached",
			observe.Field{Key: "error", Value: err},
		)
		return f, false
	}
	meta := e.meta(site, key.Name)

	ctx, span := e.in.Tracer.StartSpan(ctx, observe.OpBegin, meta)
	start := time.Now()
	outcome, content := e.check(ctx, key, meta)
	e.in.Metrics.RecordLookup(ctx, meta, outcome.String(), time.Since(start))
	span.SetAttributes(attribute.String(observe.AttrOutcome, outcome.String()))

	if outcome == Hit {
		f.state = stateFinished
		f.err = e.replay(w, key, content)
		e.in.Tracer.EndSpan(span, f.err)
		e.in.Logger.WithFragment(meta).Debug(ctx, "fragment hit",
			observe.Field{Key: "bytes", Value: len(content)},
		)
		return f, true
	}
	e.in.Tracer.EndSpan(span, nil)

	f.key = key
	f.meta = meta
	f.ttl = e.resolveTTL(opts)
	f.state = stateCapturing
	e.in.Logger.WithFragment(meta).Debug(ctx, "fragment miss",
		observe.Field{Key: "outcome", Value: outcome.String()},
		observe.Field{Key: "ttl", Value: f.ttl.String()},
	)
	return f, false
}

// replay writes cached content, framed by debug markers when configured.
func (e *Engine) replay(w io.Writer, key Key, content []byte) error {
	if !e.cfg.Debug {
		_, err := w.Write(content)
		return err
	}

	marker := fmt.Sprintf("<!-- fragcache from key '%s' -->\n", key.Name)
	var framed bytes.Buffer
	framed.Grow(len(content) + 2*len(marker))
	framed.WriteString(marker)
	framed.Write(content)
	framed.WriteString(marker)
	_, err := w.Write(framed.Bytes())
	return err
}

// Write buffers p while capturing and passes it through otherwise.
func (f *Fragment) Write(p []byte) (int, error) {
	switch f.state {
	case stateCapturing:
		return f.buf.Write(p)
	case statePassthrough:
		return f.w.Write(p)
	default:
		return 0, ErrFinished
	}
}

// WriteString is Write for strings.
func (f *Fragment) WriteString(s string) (int, error) {
	switch f.state {
	case stateCapturing:
		return f.buf.WriteString(s)
	case statePassthrough:
		return io.WriteString(f.w, s)
	default:
		return 0, ErrFinished
	}
}

// Capturing reports whether writes are being buffered for storage.
func (f *Fragment) Capturing() bool { return f.state == stateCapturing }

// Key returns the derived key. It is zero for pass-through handles.
func (f *Fragment) Key() Key { return f.key }

// TTL returns the lifetime the fragment will be stored with.
func (f *Fragment) TTL() time.Duration { return f.ttl }

// End finishes the render. A capturing handle stores the buffered output
// with its TTL, flushes it to the output and records the key in the index.
// Only an error writing to the output is returned; backend failures are
// logged and dropped. Calling End again returns the first result.
func (f *Fragment) End() error {
	switch f.state {
	case stateFinished:
		return f.err
	case statePassthrough:
		f.state = stateFinished
		return nil
	}
	f.state = stateFinished

	e := f.engine
	ctx, span := e.in.Tracer.StartSpan(f.ctx, observe.OpEnd, f.meta)

	content := f.buf.Bytes()
	stored := true
	if err := e.store.Set(ctx, f.key.ContentKey(), content, f.ttl); err != nil {
		e.backendError(ctx, f.meta, "set", err)
		stored = false
	} else if err := e.store.Set(ctx, f.key.MarkerKey(), []byte(f.key.Fingerprint), f.ttl); err != nil {
		e.backendError(ctx, f.meta, "set", err)
		stored = false
	}

	_, f.err = f.w.Write(content)

	if stored {
		e.in.Metrics.RecordCommit(ctx, f.meta, len(content))
		e.appendIndex(ctx, f.key.Name, f.meta)
	}

	e.in.Tracer.EndSpan(span, f.err)
	f.buf = bytes.Buffer{}
	return f.err
}

// Close releases the handle. If End was not called, buffered output is
// flushed to the output without being stored. Close is idempotent.
func (f *Fragment) Close() error {
	if f.state != stateCapturing {
		f.state = stateFinished
		return nil
	}
	f.state = stateFinished
	_, f.err = f.w.Write(f.buf.Bytes())
	f.buf = bytes.Buffer{}
	return f.err
}
