package bitflip

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// BreakerState represents the state of the circuit breaker
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

/*
CircuitBreaker stops calling a failing sampler after MaxFailures
consecutive failures, and lets trial calls through once ResetTimeout
has passed.
*/
type CircuitBreaker struct {
	mu               sync.Mutex
	id               string
	maxFailures      int
	resetTimeout     time.Duration
	halfOpenMax      int
	failureCount     int
	state            BreakerState
	openTime         time.Time
	halfOpenAdmitted int
	halfOpenPassed   int
}

func NewCircuitBreaker(id string, config BreakerConfig) *CircuitBreaker {
	if config.HalfOpenMax <= 0 {
		config.HalfOpenMax = 1
	}
	if config.MaxFailures <= 0 {
		config.MaxFailures = 1
	}

	return &CircuitBreaker{
		id:           id,
		maxFailures:  config.MaxFailures,
		resetTimeout: config.ResetTimeout,
		halfOpenMax:  config.HalfOpenMax,
		state:        BreakerClosed,
	}
}

// RecordFailure records a failure and updates the circuit state
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++

	switch cb.state {
	case BreakerHalfOpen:
		cb.trip()
		log.Warn("circuit breaker reopened from half-open", "breaker", cb.id)
	case BreakerClosed:
		if cb.failureCount >= cb.maxFailures {
			cb.trip()
			log.Warn("circuit breaker opened", "breaker", cb.id, "failures", cb.failureCount)
		}
	}
}

// RecordSuccess records a successful attempt and updates the circuit state
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerHalfOpen:
		cb.halfOpenPassed++
		if cb.halfOpenPassed >= cb.halfOpenMax {
			cb.state = BreakerClosed
			cb.failureCount = 0
			cb.halfOpenAdmitted = 0
			cb.halfOpenPassed = 0
			log.Info("circuit breaker closed from half-open", "breaker", cb.id)
		}
	case BreakerClosed:
		cb.failureCount = 0
	}
}

/*
Allow admits a call. While half-open each admission takes one of the
halfOpenMax half-open slots, so concurrent callers cannot all slip through.
*/
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerClosed:
		return true
	case BreakerOpen:
		if time.Since(cb.openTime) <= cb.resetTimeout {
			return false
		}
		cb.state = BreakerHalfOpen
		cb.halfOpenAdmitted = 1
		cb.halfOpenPassed = 0
		return true
	case BreakerHalfOpen:
		if cb.halfOpenAdmitted < cb.halfOpenMax {
			cb.halfOpenAdmitted++
			return true
		}
		return false
	default:
		return false
	}
}

// Ready reports whether Allow would admit a call, without taking a half-open slot.
func (cb *CircuitBreaker) Ready() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerClosed:
		return true
	case BreakerOpen:
		return time.Since(cb.openTime) > cb.resetTimeout
	case BreakerHalfOpen:
		return cb.halfOpenAdmitted < cb.halfOpenMax
	default:
		return false
	}
}

// Release returns a half-open slot for a call that ended without a verdict on the guarded service.
func (cb *CircuitBreaker) Release() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == BreakerHalfOpen && cb.halfOpenAdmitted > 0 {
		cb.halfOpenAdmitted--
	}
}

func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) trip() {
	cb.state = BreakerOpen
	cb.openTime = time.Now()
	cb.halfOpenAdmitted = 0
	cb.halfOpenPassed = 0
}
