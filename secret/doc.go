// Package secret resolves secrets referenced from configuration values.
//
// It supports:
//   - Strict environment expansion (see ExpandEnvStrict)
//   - Pluggable secret providers (see Provider + Registry)
//   - Resolving secret references in configuration values (see Resolver)
//
// References use the prefix "secretref:":
//   - Full value:  secretref:file:redis/password
//   - Inline use:  Bearer secretref:env:FRAGCACHE_ADMIN_TOKEN
//
// DefaultRegistry ships the "env" and "file" providers.
package secret
