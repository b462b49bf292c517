package fragment

import (
	"context"
	"io"
)

// RenderFunc produces a fragment's output.
type RenderFunc func(w io.Writer) error

// Render serves the fragment for site and d from cache, or calls fn and
// caches what it writes. If fn fails, its partial output is flushed without
// being cached and fn's error is returned unchanged.
func (e *Engine) Render(ctx context.Context, w io.Writer, site Site, d Discriminator, fn RenderFunc, opts ...BeginOption) error {
	f, hit := e.Begin(ctx, w, site, d, opts...)
	if hit {
		return f.End()
	}
	defer func() { _ = f.Close() }()

	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.End()
}
