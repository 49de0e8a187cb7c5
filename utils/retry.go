package utils

import (
	"fmt"
	"time"
)

// RetryConfig waits for a dependency such as the database to become
// reachable, doubling the pause after each failed attempt.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// MaxDelay caps the doubled pause. Zero leaves it uncapped.
	MaxDelay time.Duration
	Logger   *Logger

	sleep func(time.Duration)
}

// Do calls fn until it succeeds or the attempts run out. A MaxAttempts below
// one means a single call.
func (r *RetryConfig) Do(what string, fn func() error) error {
	attempts := max(r.MaxAttempts, 1)
	sleep := r.sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	pause := r.BaseDelay
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil {
			if attempt > 1 && r.Logger != nil {
				r.Logger.Info("[retry] %s ready after %d attempts", what, attempt)
			}
			return nil
		}
		if attempt == attempts {
			break
		}
		if r.Logger != nil {
			r.Logger.Warn("[retry] %s not ready (%d/%d): %v; waiting %v",
				what, attempt, attempts, err, pause)
		}
		sleep(pause)
		pause *= 2
		if r.MaxDelay > 0 && pause > r.MaxDelay {
			pause = r.MaxDelay
		}
	}

	return fmt.Errorf("%s: gave up after %d attempts: %w", what, attempts, err)
}
