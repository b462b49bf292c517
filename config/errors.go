package config

import "errors"

var (
	ErrInvalidBackend   = errors.New("config: invalid backend kind")
	ErrMissingRedisURL  = errors.New("config: redis backend requires a URL")
	ErrMissingBoltPath  = errors.New("config: bolt requires a path")
	ErrInvalidSettings  = errors.New("config: invalid settings store kind")
	ErrInvalidTimezone  = errors.New("config: unknown timezone")
	ErrWeakTokenSecret  = errors.New("config: token secret must be at least 16 bytes")
	ErrInvalidValue     = errors.New("config: invalid value")
	ErrInvalidBreaker   = errors.New("config: invalid breaker settings")
	ErrMissingAdminAddr = errors.New("config: admin address is empty")
)
