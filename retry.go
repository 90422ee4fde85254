package bitflip

import (
	"math"
	"time"
)

// RetryPolicy defines retry behavior
type RetryPolicy struct {
	MaxAttempts int
	Strategy    RetryStrategy
	Filter      func(error) bool
}

// RetryStrategy defines the interface for retry behavior
type RetryStrategy interface {
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff doubles the delay after every attempt, capped at Max when set.
type ExponentialBackoff struct {
	Initial time.Duration
	Max     time.Duration
}

func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := time.Duration(float64(eb.Initial) * math.Pow(2, float64(attempt-1)))
	if eb.Max > 0 && delay > eb.Max {
		return eb.Max
	}
	return delay
}

// shouldRetry reports whether err is worth another attempt under the policy.
func (rp *RetryPolicy) shouldRetry(err error) bool {
	return rp.Filter == nil || rp.Filter(err)
}

// WithBreaker guards the trial with the named circuit breaker.
func WithBreaker(id string, maxFailures int, resetTimeout time.Duration) TrialOption {
	return func(t *Trial) {
		t.BreakerID = id
		t.BreakerConfig = &BreakerConfig{
			MaxFailures:  maxFailures,
			ResetTimeout: resetTimeout,
			HalfOpenMax:  1,
		}
	}
}

// WithRetry configures retry behavior for a trial
func WithRetry(attempts int, strategy RetryStrategy) TrialOption {
	return func(t *Trial) {
		t.RetryPolicy = &RetryPolicy{
			MaxAttempts: attempts,
			Strategy:    strategy,
		}
	}
}

// WithRetryFilter restricts which errors are retried.
func WithRetryFilter(filter func(error) bool) TrialOption {
	return func(t *Trial) {
		if t.RetryPolicy != nil {
			t.RetryPolicy.Filter = filter
		}
	}
}
