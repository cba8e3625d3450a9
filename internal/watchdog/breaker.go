package watchdog

// #region imports
import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// #endregion

// #region errors

// ErrCircuitOpen is returned by Allow while a dependency is short-circuited.
var ErrCircuitOpen = errors.New("watchdog: circuit open")

// #endregion errors

// #region state

// State is the breaker position.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

// #endregion state

// #region breaker

// Breaker guards one external dependency. It opens after K consecutive
// failures inside window W, short-circuits until the cooldown elapses, then
// admits exactly one probe; the probe's outcome decides closed or open.
type Breaker struct {
	name     string
	k        int
	window   time.Duration
	cooldown time.Duration

	mu            sync.Mutex
	state         State
	consecutive   int
	windowStart   time.Time
	cooldownUntil time.Time
	probeInFlight bool
	lastReason    string
	now           func() time.Time
}

// NewBreaker creates a closed breaker with the given trip policy.
func NewBreaker(name string, k int, window, cooldown time.Duration) *Breaker {
	return &Breaker{
		name:     name,
		k:        k,
		window:   window,
		cooldown: cooldown,
		state:    StateClosed,
		now:      time.Now,
	}
}

// Name returns the dependency name.
func (b *Breaker) Name() string {
	return b.name
}

// Allow reports whether a call may proceed. While open it returns
// ErrCircuitOpen until the cooldown elapses, then admits a single probe in
// half-open state.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		if now.Before(b.cooldownUntil) {
			return fmt.Errorf("%s: %w", b.name, ErrCircuitOpen)
		}
		b.state = StateHalfOpen
		b.probeInFlight = true
		return nil
	case StateHalfOpen:
		if b.probeInFlight {
			return fmt.Errorf("%s (probe in flight): %w", b.name, ErrCircuitOpen)
		}
		b.probeInFlight = true
		return nil
	}
	return nil
}

// RecordSuccess clears the failure run. A successful half-open probe closes
// the breaker.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.state = StateClosed
	}
	b.consecutive = 0
	b.probeInFlight = false
	b.lastReason = ""
}

// RecordFailure counts one failure. K consecutive failures inside the window
// trip the breaker; a failed half-open probe reopens it and restarts the
// cooldown.
func (b *Breaker) RecordFailure(reason string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.lastReason = reason

	if b.state == StateHalfOpen {
		b.open(now)
		return
	}
	if b.consecutive == 0 || now.Sub(b.windowStart) > b.window {
		b.consecutive = 0
		b.windowStart = now
	}
	b.consecutive++
	if b.consecutive >= b.k {
		b.open(now)
	}
}

// open transitions to the open state. Caller holds the lock.
func (b *Breaker) open(now time.Time) {
	b.state = StateOpen
	b.cooldownUntil = now.Add(b.cooldown)
	b.consecutive = 0
	b.probeInFlight = false
}

// State returns the current position, accounting for an elapsed cooldown.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && !b.now().Before(b.cooldownUntil) {
		return StateHalfOpen
	}
	return b.state
}

// LastReason returns the most recent failure reason, empty when healthy.
func (b *Breaker) LastReason() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastReason
}

// #endregion breaker
