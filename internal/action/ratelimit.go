package action

// #region imports
import (
	"sync"
	"time"
)

// #endregion

// #region rate-limiter

// RateLimiter enforces a per-key sliding window plus a short burst cap.
type RateLimiter struct {
	mu        sync.Mutex
	window    time.Duration
	burstSpan time.Duration
	maxPerWin int
	maxBurst  int
	stamps    map[string][]time.Time
	now       func() time.Time
}

// NewRateLimiter creates a limiter allowing maxPerMinute actions per key per
// minute and maxBurst within any five-second span.
func NewRateLimiter(maxPerMinute, maxBurst int) *RateLimiter {
	return &RateLimiter{
		window:    time.Minute,
		burstSpan: 5 * time.Second,
		maxPerWin: maxPerMinute,
		maxBurst:  maxBurst,
		stamps:    map[string][]time.Time{},
		now:       time.Now,
	}
}

// Allow records and permits an action for key, or refuses when either the
// window or burst cap is exhausted.
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	kept := r.stamps[key][:0]
	for _, t := range r.stamps[key] {
		if now.Sub(t) < r.window {
			kept = append(kept, t)
		}
	}
	r.stamps[key] = kept

	if len(kept) >= r.maxPerWin {
		return false
	}
	burst := 0
	for _, t := range kept {
		if now.Sub(t) < r.burstSpan {
			burst++
		}
	}
	if burst >= r.maxBurst {
		return false
	}
	r.stamps[key] = append(kept, now)
	return true
}

// #endregion rate-limiter
