package fragment

import "errors"

var (
	// ErrInvalidSite indicates an empty call-site identifier.
	ErrInvalidSite = errors.New("fragment: site is empty")

	// ErrUnserializable indicates a Query discriminator whose value cannot be
	// encoded for fingerprinting.
	ErrUnserializable = errors.New("fragment: discriminator cannot be serialized")

	// ErrCapabilityUnmet indicates the engine was configured on but its
	// runtime requirements are not satisfied. The engine stays disabled.
	ErrCapabilityUnmet = errors.New("fragment: capability requirements not met")

	// ErrIndexCorrupt indicates the key index could not be decoded.
	ErrIndexCorrupt = errors.New("fragment: key index is corrupt")

	// ErrInvalidConfig indicates a Config that failed validation.
	ErrInvalidConfig = errors.New("fragment: invalid config")

	// ErrFinished indicates a write to a handle that has already ended.
	ErrFinished = errors.New("fragment: handle already finished")
)
