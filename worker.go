package bitflip

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// Worker pulls trials from the pool and runs them one at a time.
type Worker struct {
	pool   *Pool
	trials chan Trial
}

func (w *Worker) run() {
	for {
		select {
		case <-w.pool.ctx.Done():
			return
		case w.pool.workers <- w.trials:
			select {
			case trial, ok := <-w.trials:
				if !ok {
					return
				}
				w.handle(trial)
			case <-w.pool.ctx.Done():
				return
			}
		}
	}
}

func (w *Worker) handle(trial Trial) {
	ctx := w.pool.ctx
	if timeout := w.pool.trialTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	report, err := w.processTrial(ctx, trial)
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("trial %s timed out: %w", trial.ID, err)
	}

	res := w.pool.space.Store(trial.ID, report, err, trial.TTL)
	w.pool.space.Publish(ResultsGroup, res)
}

func (w *Worker) processTrial(ctx context.Context, trial Trial) (Report, error) {
	if breaker := w.pool.breaker(trial.BreakerID); breaker != nil && !breaker.Ready() {
		w.pool.metrics.recordBreakerRejection()
		return Report{}, fmt.Errorf("%w: %s", ErrBreakerOpen, trial.BreakerID)
	}

	report, err := w.executeWithRetries(ctx, trial)
	if errors.Is(err, ErrBreakerOpen) {
		w.pool.metrics.recordBreakerRejection()
	}
	w.pool.metrics.recordTrial(trial.StartTime, err == nil)

	if err != nil {
		return Report{}, err
	}

	w.pool.metrics.recordReport(report)
	return report, nil
}

func (w *Worker) executeWithRetries(ctx context.Context, trial Trial) (Report, error) {
	policy := trial.RetryPolicy
	if policy == nil || policy.MaxAttempts < 1 {
		policy = &RetryPolicy{MaxAttempts: 1}
	}

	for trial.Attempt = 0; trial.Attempt < policy.MaxAttempts; trial.Attempt++ {
		if trial.Attempt > 0 && policy.Strategy != nil {
			delay := policy.Strategy.NextDelay(trial.Attempt)
			log.Debug("retrying trial", "trial", trial.ID, "attempt", trial.Attempt+1, "delay", delay)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return Report{}, ctx.Err()
			}
		}

		if err := w.checkBreaker(trial.BreakerID); err != nil {
			return Report{}, err
		}

		report, err := trial.Fn(ctx)
		if err == nil {
			w.recordSuccess(trial.BreakerID)
			return report, nil
		}

		trial.LastError = err
		log.Warn("trial attempt failed", "trial", trial.ID, "attempt", trial.Attempt+1, "err", err)

		// Errors the retry filter rejects are not failures of the guarded service.
		if !policy.shouldRetry(err) {
			w.releaseBreaker(trial.BreakerID)
			break
		}
		w.recordFailure(trial.BreakerID)

		if ctx.Err() != nil {
			break
		}
	}

	if policy.MaxAttempts == 1 {
		return Report{}, trial.LastError
	}
	return Report{}, fmt.Errorf("all retries failed for trial %s: %w", trial.ID, trial.LastError)
}

func (w *Worker) checkBreaker(id string) error {
	if breaker := w.pool.breaker(id); breaker != nil && !breaker.Allow() {
		log.Warn("trial rejected by circuit breaker", "breaker", id)
		return fmt.Errorf("%w: %s", ErrBreakerOpen, id)
	}
	return nil
}

func (w *Worker) recordSuccess(id string) {
	if breaker := w.pool.breaker(id); breaker != nil {
		breaker.RecordSuccess()
	}
}

func (w *Worker) releaseBreaker(id string) {
	if breaker := w.pool.breaker(id); breaker != nil {
		breaker.Release()
	}
}

func (w *Worker) recordFailure(id string) {
	if breaker := w.pool.breaker(id); breaker != nil {
		breaker.RecordFailure()
	}
}
