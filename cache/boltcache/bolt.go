// Package boltcache implements cache.Cache as an embedded bbolt database,
// for single-host deployments that want fragments to survive restarts.
package boltcache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/jonwraymond/fragcache/cache"
)

// DefaultBucket is used when Options.Bucket is empty.
const DefaultBucket = "fragments"

// headerSize is the length of the expiry prefix stored before each value.
const headerSize = 8

// ErrCorruptEntry is returned when a stored value is shorter than its header.
var ErrCorruptEntry = errors.New("boltcache: corrupt entry")

// Options configures a Store.
type Options struct {
	// Bucket is the name of the Bolt bucket to use.
	Bucket string

	// OpenTimeout bounds how long Open waits for the file lock.
	// Default: 1 second
	OpenTimeout time.Duration

	// Now is the time source used for expiry. Default: time.Now
	Now func() time.Time
}

// Store is a persistent KV cache with TTL semantics.
// Each value is stored as 8 bytes of big-endian unix-nano expiry (0 = never)
// followed by the raw value. Expired entries are hidden on read and removed
// by Sweep.
type Store struct {
	db     *bolt.DB
	bucket []byte
	now    func() time.Time
}

// Open initializes or opens a Store at the given path.
func Open(path string, opts Options) (*Store, error) {
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = time.Second
	}
	if opts.Bucket == "" {
		opts.Bucket = DefaultBucket
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: opts.OpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("boltcache: open %s: %w", path, err)
	}

	bucket := []byte(opts.Bucket)
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("boltcache: create bucket: %w", err)
	}

	return &Store{db: db, bucket: bucket, now: opts.Now}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the value if present and not expired.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	var out []byte
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(s.bucket).Get([]byte(key))
		if v == nil {
			return nil
		}
		if len(v) < headerSize {
			return ErrCorruptEntry
		}
		if s.isExpired(v) {
			return nil
		}
		found = true
		// bbolt memory is only valid inside the transaction.
		out = append([]byte{}, v[headerSize:]...)
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("boltcache: get %q: %w", key, err)
	}
	return out, found, nil
}

// Set stores value with an absolute expiry of now+ttl. ttl <= 0 never expires.
func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = s.now().Add(ttl).UnixNano()
	}

	buf := make([]byte, headerSize+len(value))
	binary.BigEndian.PutUint64(buf[:headerSize], uint64(expiresAt))
	copy(buf[headerSize:], value)

	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), buf)
	})
	if err != nil {
		return fmt.Errorf("boltcache: set %q: %w", key, err)
	}
	return nil
}

// Delete removes a key. Deleting an absent key is not an error.
func (s *Store) Delete(_ context.Context, key string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("boltcache: delete %q: %w", key, err)
	}
	return nil
}

// Ping verifies the database can open a read transaction.
func (s *Store) Ping(_ context.Context) error {
	return s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(s.bucket) == nil {
			return fmt.Errorf("boltcache: bucket %q missing", s.bucket)
		}
		return nil
	})
}

// Sweep removes expired and corrupt entries and returns how many were removed.
func (s *Store) Sweep(ctx context.Context) (int, error) {
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if len(v) < headerSize || s.isExpired(v) {
				stale = append(stale, append([]byte{}, k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		// Deleting while iterating a cursor can skip keys; delete afterwards.
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("boltcache: sweep: %w", err)
	}
	return removed, nil
}

func (s *Store) isExpired(v []byte) bool {
	expiresAt := int64(binary.BigEndian.Uint64(v[:headerSize]))
	return expiresAt > 0 && s.now().UnixNano() >= expiresAt
}

var (
	_ cache.Cache  = (*Store)(nil)
	_ cache.Pinger = (*Store)(nil)
)
