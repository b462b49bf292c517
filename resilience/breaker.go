package resilience

import (
	"context"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means the circuit is operating normally.
	StateClosed State = iota
	// StateOpen means the circuit is blocking all requests.
	StateOpen
	// StateHalfOpen means the circuit is testing if the backend recovered.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures a Breaker.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures before opening.
	// Default: 5
	MaxFailures int

	// ResetTimeout is how long the circuit stays open before a probe.
	// Default: 30 seconds
	ResetTimeout time.Duration

	// HalfOpenMaxRequests is the max requests allowed in half-open state.
	// Default: 1
	HalfOpenMaxRequests int

	// OnStateChange is called when the circuit state changes. It runs with
	// the breaker locked and must not call back into it.
	OnStateChange func(from, to State)

	// IsFailure determines if an error should count as a failure.
	// Default: all non-nil errors are failures.
	IsFailure func(err error) bool

	// Now is the time source. Default: time.Now
	Now func() time.Time
}

// Breaker implements the circuit breaker pattern.
type Breaker struct {
	config BreakerConfig

	mu            sync.Mutex
	state         State
	failures      int
	successes     int
	lastFailure   time.Time
	halfOpenCount int
}

// NewBreaker creates a new circuit breaker.
func NewBreaker(config BreakerConfig) *Breaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.HalfOpenMaxRequests <= 0 {
		config.HalfOpenMaxRequests = 1
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return err != nil }
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &Breaker{
		config: config,
		state:  StateClosed,
	}
}

// Execute runs op through the breaker. An open circuit returns
// ErrCircuitOpen without calling op.
func (b *Breaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := b.beforeRequest(); err != nil {
		return err
	}

	err := op(ctx)
	b.afterRequest(err)
	return err
}

// State returns the current circuit state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentStateLocked()
}

// Reset closes the circuit and clears its counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	oldState := b.state
	b.state = StateClosed
	b.failures = 0
	b.successes = 0
	b.halfOpenCount = 0

	if oldState != StateClosed && b.config.OnStateChange != nil {
		b.config.OnStateChange(oldState, StateClosed)
	}
}

func (b *Breaker) beforeRequest() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.currentStateLocked() {
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		if b.halfOpenCount >= b.config.HalfOpenMaxRequests {
			return ErrCircuitOpen
		}
		b.halfOpenCount++
	}

	return nil
}

func (b *Breaker) afterRequest(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	isFailure := b.config.IsFailure(err)
	oldState := b.state

	switch b.state {
	case StateClosed:
		if isFailure {
			b.failures++
			b.lastFailure = b.config.Now()
			if b.failures >= b.config.MaxFailures {
				b.state = StateOpen
			}
		} else {
			b.failures = 0
		}

	case StateHalfOpen:
		if isFailure {
			// Probe failed: restart the open period.
			b.lastFailure = b.config.Now()
			b.state = StateOpen
		} else {
			b.successes++
			b.state = StateClosed
			b.failures = 0
		}
	}

	if oldState != b.state && b.config.OnStateChange != nil {
		b.config.OnStateChange(oldState, b.state)
	}
}

func (b *Breaker) currentStateLocked() State {
	if b.state == StateOpen && b.config.Now().Sub(b.lastFailure) >= b.config.ResetTimeout {
		b.state = StateHalfOpen
		b.halfOpenCount = 0
		if b.config.OnStateChange != nil {
			b.config.OnStateChange(StateOpen, StateHalfOpen)
		}
	}
	return b.state
}

// Stats returns current breaker statistics.
func (b *Breaker) Stats() BreakerStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	return BreakerStats{
		State:       b.currentStateLocked(),
		Failures:    b.failures,
		Recoveries:  b.successes,
		LastFailure: b.lastFailure,
	}
}

// BreakerStats contains circuit breaker statistics.
type BreakerStats struct {
	State State
	// Failures counts consecutive failures in the closed state.
	Failures int
	// Recoveries counts half-open probes that closed the circuit.
	Recoveries  int
	LastFailure time.Time
}
