// Package rediscache implements cache.Cache on top of Redis, for deployments
// where fragments are shared by many processes.
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/fragcache/cache"
)

// DefaultPrefix namespaces every key written by a Store.
const DefaultPrefix = "fragcache:"

// Store implements cache.Cache using Redis.
// Expiry is delegated to Redis (SET with EX/PX); a zero TTL persists the key.
type Store struct {
	client redis.UniversalClient
	prefix string
	owned  bool
}

// New creates a Store over an existing client.
// If prefix is empty, DefaultPrefix is used.
func New(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// NewFromURL creates a Store from a connection URL, for example
// "redis://localhost:6379/0" or "redis://:password@localhost:6379/1".
// The Store owns the client and closes it in Close.
func NewFromURL(url, prefix string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("rediscache: parse url: %w", err)
	}
	s := New(redis.NewClient(opts), prefix)
	s.owned = true
	return s, nil
}

// Get returns the stored value, or (nil, false, nil) when the key is absent
// or expired.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("rediscache: get %q: %w", key, err)
	}
	return data, true, nil
}

// Set stores value under key. ttl <= 0 stores without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, s.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("rediscache: set %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("rediscache: delete %q: %w", key, err)
	}
	return nil
}

// Ping checks if the Redis connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client if the Store created it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}

var (
	_ cache.Cache  = (*Store)(nil)
	_ cache.Pinger = (*Store)(nil)
)
