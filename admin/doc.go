// Package admin runs the fragment cache for many tenants.
//
// A Service keeps one fragment.Engine per tenant, each confined to its own
// backend namespace and built from the toggle persisted in a settings.Store.
// Switching a tenant off purges its fragments. The lifecycle methods
// (Activate, ActivateNewTenant, Deactivate, Uninstall) run when the cache is
// installed into or removed from a host platform, optionally across every
// active tenant at once.
//
// NewHandler exposes status, toggling, purging and token issuance over
// HTTP, guarded by the auth package.
package admin
