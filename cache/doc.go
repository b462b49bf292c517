// Package cache defines the key-value backend contract consumed by the
// fragment engine.
//
// It provides the Cache interface (Get/Set/Delete with per-key TTL), an
// in-memory implementation, key validation, and namespacing. Networked and
// embedded backends live in the rediscache and boltcache subpackages.
package cache
