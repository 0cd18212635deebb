package query

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/ajitpratap0/rowmap/pkg/config"
	"github.com/ajitpratap0/rowmap/pkg/errors"
)

// RetryPolicy defines retry behavior for starting a query
type RetryPolicy struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	Multiplier      float64
	RandomizeFactor float64
}

// NewRetryPolicy creates an exponential backoff policy from the retry section
// of the configuration.
func NewRetryPolicy(cfg config.RetryConfig) *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:     cfg.Attempts,
		InitialDelay:    cfg.Delay,
		MaxDelay:        cfg.MaxDelay,
		Multiplier:      cfg.Multiplier,
		RandomizeFactor: 0.25,
	}
}

// DefaultRetryPolicy returns the policy of the default configuration.
func DefaultRetryPolicy() *RetryPolicy {
	return NewRetryPolicy(config.Default().Retry)
}

// NoRetryPolicy returns a policy that doesn't retry
func NoRetryPolicy() *RetryPolicy {
	return &RetryPolicy{MaxAttempts: 1}
}

// Execute runs fn until it succeeds, returns an error that is not
// retryable, or the attempts run out. Only errors.IsRetryable errors are
// retried.
func (rp *RetryPolicy) Execute(ctx context.Context, fn func() error) error {
	attempts := rp.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !errors.IsRetryable(err) {
			return err
		}
		if attempt == attempts-1 {
			break
		}

		timer := time.NewTimer(rp.calculateDelay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Wrap(ctx.Err(), errors.ErrorTypeTimeout, "retry cancelled").
				WithDetail("last_error", lastErr.Error())
		case <-timer.C:
		}
	}

	var e *errors.Error
	errType := errors.ErrorTypeQuery
	if errors.As(lastErr, &e) {
		errType = e.Type
	}
	return errors.Wrap(lastErr, errType, fmt.Sprintf("all %d attempts failed", attempts))
}

// calculateDelay calculates the delay for a given attempt
func (rp *RetryPolicy) calculateDelay(attempt int) time.Duration {
	multiplier := rp.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	delay := float64(rp.InitialDelay) * math.Pow(multiplier, float64(attempt))

	if rp.MaxDelay > 0 && delay > float64(rp.MaxDelay) {
		delay = float64(rp.MaxDelay)
	}

	if rp.RandomizeFactor > 0 {
		delta := delay * rp.RandomizeFactor
		delay = delay - delta + rand.Float64()*2*delta
	}

	return time.Duration(delay)
}

// GetDelay returns the delay for a specific attempt (for testing/preview)
func (rp *RetryPolicy) GetDelay(attempt int) time.Duration {
	return rp.calculateDelay(attempt)
}
