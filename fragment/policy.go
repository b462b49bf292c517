package fragment

import (
	"fmt"
	"time"
)

// DefaultTTL is how long a fragment lives when no override is given.
const DefaultTTL = 24 * time.Hour

// Policy configures fragment lifetimes.
type Policy struct {
	// DefaultTTL is used when a render gives no override. Zero resolves
	// to no expiry in EffectiveTTL, but an Engine given the zero Policy
	// uses DefaultPolicy instead; set NoExpiry to store without expiry.
	DefaultTTL time.Duration

	// NoExpiry stores fragments without expiry when a render gives no
	// override. DefaultTTL is ignored.
	NoExpiry bool

	// MaxTTL clamps every resolved TTL when set. Zero means no limit.
	MaxTTL time.Duration
}

// DefaultPolicy returns a Policy with DefaultTTL of one day and no maximum.
func DefaultPolicy() Policy {
	return Policy{DefaultTTL: DefaultTTL}
}

// Validate rejects negative durations.
func (p Policy) Validate() error {
	if p.DefaultTTL < 0 {
		return fmt.Errorf("%w: negative default TTL %s", ErrInvalidConfig, p.DefaultTTL)
	}
	if p.MaxTTL < 0 {
		return fmt.Errorf("%w: negative max TTL %s", ErrInvalidConfig, p.MaxTTL)
	}
	return nil
}

// EffectiveTTL returns override when positive, else the policy default
// (zero under NoExpiry), clamped to MaxTTL when one is set.
func (p Policy) EffectiveTTL(override time.Duration) time.Duration {
	ttl := override
	if ttl <= 0 {
		ttl = p.DefaultTTL
		if p.NoExpiry {
			ttl = 0
		}
	}
	return p.clamp(ttl)
}

// clamp caps ttl at MaxTTL. A zero ttl means no expiry and is capped too.
func (p Policy) clamp(ttl time.Duration) time.Duration {
	if p.MaxTTL > 0 && (ttl <= 0 || ttl > p.MaxTTL) {
		return p.MaxTTL
	}
	return ttl
}

// UntilEndOfDay returns the whole seconds from now until 23:59:59 of now's
// calendar day in loc, never less than one second.
func UntilEndOfDay(now time.Time, loc *time.Location) time.Duration {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	y, m, d := now.Date()
	end := time.Date(y, m, d, 23, 59, 59, 0, loc)

	remaining := end.Sub(now).Truncate(time.Second)
	return max(remaining, time.Second)
}

// BeginOption adjusts a single render.
type BeginOption func(*beginOptions)

type beginOptions struct {
	ttl       time.Duration
	onlyToday bool
	noExpiry  bool
}

// WithTTL overrides the policy's default TTL for one render.
// Non-positive values fall back to the default.
func WithTTL(ttl time.Duration) BeginOption {
	return func(o *beginOptions) { o.ttl = ttl }
}

// WithoutExpiry stores the fragment with no expiry. MaxTTL still applies.
func WithoutExpiry() BeginOption {
	return func(o *beginOptions) { o.noExpiry = true }
}

// OnlyToday makes the fragment expire at 23:59:59 of the current day.
func OnlyToday() BeginOption {
	return func(o *beginOptions) { o.onlyToday = true }
}
