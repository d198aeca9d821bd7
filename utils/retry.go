package utils

import (
	"context"
	"fmt"
	"time"
)

const maxRetryDelay = 30 * time.Second

// RetryConfig holds the parameters for the retry strategy. It is only used for
// local infrastructure readiness (database connections), never for catalog or
// lookup requests.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Logger      *Logger
}

// Do calls fn until it succeeds, the attempts run out or ctx is done. The
// wait doubles after every failure, capped at maxRetryDelay.
func (r *RetryConfig) Do(ctx context.Context, name string, fn func(context.Context) error) error {
	attempts := max(r.MaxAttempts, 1)
	wait := r.BaseDelay

	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == attempts {
			return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, err)
		}

		if r.Logger != nil {
			r.Logger.Warn("[retry] %s attempt %d/%d: %v (next in %v)", name, attempt, attempts, err, wait)
		}
		if serr := sleep(ctx, wait); serr != nil {
			return fmt.Errorf("%s: %w", name, serr)
		}
		wait = min(wait*2, maxRetryDelay)
	}
}
