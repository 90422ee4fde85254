package bitflip

import (
	"context"
	"time"
)

// TrialFunc performs one unit of work and produces its report.
type TrialFunc func(ctx context.Context) (Report, error)

// Trial is a scheduled unit of work on the pool.
type Trial struct {
	ID            string
	Fn            TrialFunc
	RetryPolicy   *RetryPolicy
	BreakerID     string
	BreakerConfig *BreakerConfig
	TTL           time.Duration
	Attempt       int
	LastError     error
	StartTime     time.Time
}

// TrialOption configures a trial before it is queued.
type TrialOption func(*Trial)

// BreakerConfig parameterizes a circuit breaker shared by trials with the same ID.
type BreakerConfig struct {
	MaxFailures  int
	ResetTimeout time.Duration
	HalfOpenMax  int
}

// WithTTL sets how long the trial's result stays in the result space.
func WithTTL(ttl time.Duration) TrialOption {
	return func(t *Trial) {
		t.TTL = ttl
	}
}
