// Package settings persists the operator's per-tenant enable toggle and the
// registry of tenants the admin service manages.
//
// MemoryStore suits tests and single-process use. BoltStore keeps settings in
// an embedded bbolt file so toggles survive restarts.
package settings
