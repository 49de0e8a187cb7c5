package utils

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrInvalidRate is returned when a rate limiter is built with a
// non-positive calls-per-minute value.
var ErrInvalidRate = errors.New("calls per minute must be positive")

// RateLimiter enforces a fixed minimum spacing between calls.
// It is safe for concurrent use.
type RateLimiter struct {
	interval time.Duration

	mu       sync.Mutex
	lastCall time.Time

	now   func() time.Time
	sleep func(time.Duration)
}

// NewRateLimiter creates a RateLimiter allowing callsPerMinute calls per minute.
func NewRateLimiter(callsPerMinute int) (*RateLimiter, error) {
	if callsPerMinute <= 0 {
		return nil, fmt.Errorf("ratelimit: %d: %w", callsPerMinute, ErrInvalidRate)
	}
	return &RateLimiter{
		interval: time.Minute / time.Duration(callsPerMinute),
		now:      time.Now,
		sleep:    time.Sleep,
	}, nil
}

// Interval returns the minimum spacing between two permitted calls.
func (rl *RateLimiter) Interval() time.Duration {
	return rl.interval
}

// Wait blocks until at least one interval has passed since the previous
// permitted call, then records the current call.
func (rl *RateLimiter) Wait() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if !rl.lastCall.IsZero() {
		elapsed := rl.now().Sub(rl.lastCall)
		if elapsed < rl.interval {
			rl.sleep(rl.interval - elapsed)
		}
	}
	rl.lastCall = rl.now()
}
