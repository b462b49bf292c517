package health

import "errors"

var (
	// ErrCheckFailed indicates a health check failed.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout indicates a health check timed out.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound indicates a checker was not found.
	ErrCheckerNotFound = errors.New("health: checker not found")

	// ErrBackendMissing indicates no cache backend is configured.
	ErrBackendMissing = errors.New("health: cache backend not configured")

	// ErrProbeMismatch indicates the backend returned something other than
	// what the probe wrote.
	ErrProbeMismatch = errors.New("health: probe value mismatch")
)
