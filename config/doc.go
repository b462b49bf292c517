// Package config loads fragcache configuration from FRAGCACHE_* environment
// variables.
//
// Values are resolved through a secret.Resolver, so a deployment can write
//
//	FRAGCACHE_REDIS_URL=secretref:file:redis-url
//	FRAGCACHE_TOKEN_SECRET=${ADMIN_TOKEN_SECRET}
//
// and keep credentials out of the environment listing. Command-line flags
// override loaded values in cmd/fragcache.
package config
