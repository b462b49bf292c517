package cache

import (
	"context"
	"time"
)

// Namespaced scopes every key of an underlying Cache under a fixed prefix so
// that several consumers can share one backend without colliding.
type Namespaced struct {
	inner     Cache
	namespace string
	prefix    string
}

// NewNamespaced wraps c so that every key is stored as "<namespace>:<key>".
// An empty namespace leaves keys untouched.
func NewNamespaced(c Cache, namespace string) *Namespaced {
	prefix := ""
	if namespace != "" {
		prefix = namespace + ":"
	}
	return &Namespaced{inner: c, namespace: namespace, prefix: prefix}
}

// Namespace returns the namespace this cache writes under.
func (n *Namespaced) Namespace() string {
	return n.namespace
}

// Unwrap returns the underlying cache.
func (n *Namespaced) Unwrap() Cache {
	return n.inner
}

func (n *Namespaced) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return n.inner.Get(ctx, n.prefix+key)
}

func (n *Namespaced) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return n.inner.Set(ctx, n.prefix+key, value, ttl)
}

func (n *Namespaced) Delete(ctx context.Context, key string) error {
	return n.inner.Delete(ctx, n.prefix+key)
}

// Ping forwards to the underlying cache.
func (n *Namespaced) Ping(ctx context.Context) error {
	return Ping(ctx, n.inner)
}

var (
	_ Cache  = (*Namespaced)(nil)
	_ Pinger = (*Namespaced)(nil)
)
