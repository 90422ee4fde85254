package bitflip

import (
	"context"
	"sync"
	"time"
)

/*
RateLimiter is a token bucket in front of the sampler. Hosted backends
accept a limited number of jobs per interval; each trial takes one token
before it samples and waits when the bucket is empty.
*/
type RateLimiter struct {
	mu         sync.Mutex
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time
}

// NewRateLimiter allows burst calls at once and one more every refillRate.
func NewRateLimiter(burst int, refillRate time.Duration) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}

	return &RateLimiter{
		tokens:     burst,
		maxTokens:  burst,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow takes a token if one is available.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()
	if rl.tokens > 0 {
		rl.tokens--
		return true
	}
	return false
}

// Wait blocks until a token is available or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		if rl.Allow() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(rl.untilNext()):
		}
	}
}

func (rl *RateLimiter) untilNext() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if wait := rl.refillRate - time.Since(rl.lastRefill); wait > 0 {
		return wait
	}
	return time.Millisecond
}

// refill credits whole elapsed periods; the caller holds mu.
func (rl *RateLimiter) refill() {
	if rl.refillRate <= 0 {
		rl.tokens = rl.maxTokens
		return
	}

	periods := int(time.Since(rl.lastRefill) / rl.refillRate)
	if periods > 0 {
		rl.tokens = min(rl.maxTokens, rl.tokens+periods)
		rl.lastRefill = rl.lastRefill.Add(time.Duration(periods) * rl.refillRate)
	}
}
