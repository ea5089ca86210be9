package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"admissionrag/internal/domain"
	"admissionrag/internal/logutil"
)

// RetryPolicy retries calls that failed with a capability error. Other
// errors are returned immediately.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// NoRetry runs the call exactly once.
var NoRetry = RetryPolicy{MaxAttempts: 1}

// Do runs fn until it succeeds, returns a non-capability error, or the
// attempts are used up. The delay doubles after each failed attempt.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	delay := p.Backoff
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrCapabilityUnavailable) || attempt == attempts {
			return err
		}
		if ctx.Err() != nil {
			return err
		}

		logutil.GetLogger(ctx).Warn("call failed, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))

		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return err
			case <-timer.C:
			}
			delay *= 2
		}
	}
	return err
}
