package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	optionsBucket = []byte("options")
	tenantsBucket = []byte("tenants")
)

const enabledOption = "/enabled"

// BoltOptions configures a BoltStore.
type BoltOptions struct {
	// OpenTimeout bounds how long OpenBolt waits for the file lock.
	// Default: 1 second
	OpenTimeout time.Duration
}

// BoltStore persists settings in a bbolt database. Toggles live in the
// "options" bucket under "<tenant>/enabled" as "1" or "0". Tenants live in
// the "tenants" bucket as JSON keyed by ID, which bbolt keeps sorted.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens or creates a BoltStore at path.
func OpenBolt(path string, opts BoltOptions) (*BoltStore, error) {
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = time.Second
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: opts.OpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("settings: open %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{optionsBucket, tenantsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("settings: create buckets: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Enabled(_ context.Context, tenant string) (bool, bool, error) {
	if err := ValidateTenant(tenant); err != nil {
		return false, false, err
	}
	var value, set bool
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(optionsBucket).Get([]byte(tenant + enabledOption))
		if v == nil {
			return nil
		}
		set = true
		value = string(v) == "1"
		return nil
	})
	if err != nil {
		return false, false, s.wrap("read toggle", err)
	}
	return value, set, nil
}

func (s *BoltStore) SetEnabled(_ context.Context, tenant string, enabled bool) error {
	if err := ValidateTenant(tenant); err != nil {
		return err
	}
	v := []byte("0")
	if enabled {
		v = []byte("1")
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(optionsBucket).Put([]byte(tenant+enabledOption), v)
	})
	return s.wrap("write toggle", err)
}

func (s *BoltStore) Delete(_ context.Context, tenant string) error {
	if err := ValidateTenant(tenant); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(optionsBucket).Delete([]byte(tenant + enabledOption))
	})
	return s.wrap("delete toggle", err)
}

func (s *BoltStore) PutTenant(_ context.Context, t Tenant) error {
	if err := ValidateTenant(t.ID); err != nil {
		return err
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("settings: encode tenant %q: %w", t.ID, err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(tenantsBucket).Put([]byte(t.ID), raw)
	})
	return s.wrap("write tenant", err)
}

func (s *BoltStore) Tenants(ctx context.Context) ([]Tenant, error) {
	var out []Tenant
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(tenantsBucket).ForEach(func(k, v []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var t Tenant
			if err := json.Unmarshal(v, &t); err != nil {
				return fmt.Errorf("decode tenant %q: %w", k, err)
			}
			out = append(out, t)
			return nil
		})
	})
	if err != nil {
		return nil, s.wrap("list tenants", err)
	}
	return out, nil
}

// Close closes the database.
func (s *BoltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *BoltStore) wrap(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bolt.ErrDatabaseNotOpen):
		return fmt.Errorf("settings: %s: %w", op, ErrClosed)
	default:
		return fmt.Errorf("settings: %s: %w", op, err)
	}
}

var _ Store = (*BoltStore)(nil)
