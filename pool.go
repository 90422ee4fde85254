package bitflip

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/errnie"
)

// ResultsGroup is the broadcast group every finished trial is published on.
const ResultsGroup = "results"

var (
	ErrBreakerOpen       = errors.New("circuit breaker is open")
	ErrSchedulingTimeout = errors.New("trial scheduling timeout")
	ErrNoWorkers         = errors.New("no available workers")
)

// Pool runs trials on a fixed set of workers and parks results in a Space.
type Pool struct {
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	workers    chan chan Trial
	trials     chan Trial
	space      *Space
	metrics    *Metrics
	breakers   map[string]*CircuitBreaker
	breakersMu sync.RWMutex
	workerMu   sync.Mutex
	workerList []*Worker
	config     *Config
	closeOnce  sync.Once
}

func NewPool(ctx context.Context, config *Config) *Pool {
	if config == nil {
		config = NewConfig()
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &Pool{
		ctx:      ctx,
		cancel:   cancel,
		workers:  make(chan chan Trial, config.Workers),
		trials:   make(chan Trial, config.Workers*10),
		space:    NewSpace(time.Minute),
		metrics:  NewMetrics(),
		breakers: make(map[string]*CircuitBreaker),
		config:   config,
	}

	p.space.CreateBroadcastGroup(ResultsGroup, 0, 64)

	for i := 0; i < config.Workers; i++ {
		p.startWorker()
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.manage()
	}()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.collectMetrics()
	}()

	errnie.Info("trial pool started with %d workers", config.Workers)
	return p
}

func (p *Pool) manage() {
	for {
		select {
		case <-p.ctx.Done():
			return
		case trial := <-p.trials:
			select {
			case <-p.ctx.Done():
				return
			case workerTrials := <-p.workers:
				select {
				case workerTrials <- trial:
				case <-p.ctx.Done():
					return
				}
			case <-time.After(p.config.schedulingTimeout()):
				log.Warn("no worker picked up trial", "trial", trial.ID)
				p.metrics.recordSchedulingFailure()
				res := p.space.Store(trial.ID, Report{}, ErrNoWorkers, trial.TTL)
				p.space.Publish(ResultsGroup, res)
			}
		}
	}
}

func (p *Pool) collectMetrics() {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.metrics.mu.Lock()
			p.metrics.QueueSize = len(p.trials)
			p.metrics.mu.Unlock()
		}
	}
}

/*
Schedule queues fn under id and returns a channel that yields its Result.
Breaker rejections and scheduling timeouts are delivered on the same
channel as ordinary failures.
*/
func (p *Pool) Schedule(id string, fn TrialFunc, opts ...TrialOption) chan Result {
	trial := Trial{
		ID: id,
		Fn: fn,
		RetryPolicy: &RetryPolicy{
			MaxAttempts: p.config.RetryAttempts,
			Strategy:    &ExponentialBackoff{Initial: p.config.RetryInitial},
		},
		TTL:       p.config.ResultTTL,
		StartTime: time.Now(),
	}

	for _, opt := range opts {
		opt(&trial)
	}

	if breaker := p.ensureBreaker(trial); breaker != nil && !breaker.Ready() {
		p.metrics.recordBreakerRejection()
		return p.reject(trial, fmt.Errorf("%w: %s", ErrBreakerOpen, trial.BreakerID))
	}

	ctx, cancel := context.WithTimeout(p.ctx, p.config.schedulingTimeout())
	defer cancel()

	select {
	case p.trials <- trial:
		return p.space.Await(id)
	case <-ctx.Done():
		p.metrics.recordSchedulingFailure()
		return p.reject(trial, fmt.Errorf("%w: %w", ErrSchedulingTimeout, ctx.Err()))
	}
}

// reject settles a trial that never reached a worker.
func (p *Pool) reject(trial Trial, err error) chan Result {
	ch := p.space.Await(trial.ID)
	res := p.space.Store(trial.ID, Report{}, err, trial.TTL)
	p.space.Publish(ResultsGroup, res)
	return ch
}

// Subscribe attaches to the results broadcast group.
func (p *Pool) Subscribe(subscriberID string, rules ...RoutingRule) chan Result {
	return p.space.Subscribe(ResultsGroup, subscriberID, rules...)
}

func (p *Pool) Metrics() *Metrics {
	return p.metrics
}

func (p *Pool) Space() *Space {
	return p.space
}

func (p *Pool) startWorker() {
	worker := &Worker{
		pool:   p,
		trials: make(chan Trial),
	}

	p.workerMu.Lock()
	p.workerList = append(p.workerList, worker)
	p.workerMu.Unlock()

	p.metrics.mu.Lock()
	p.metrics.WorkerCount++
	p.metrics.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		worker.run()
	}()
}

// ensureBreaker creates the trial's breaker on first use.
func (p *Pool) ensureBreaker(trial Trial) *CircuitBreaker {
	if trial.BreakerID == "" || trial.BreakerConfig == nil {
		return nil
	}

	p.breakersMu.Lock()
	defer p.breakersMu.Unlock()

	breaker, ok := p.breakers[trial.BreakerID]
	if !ok {
		breaker = NewCircuitBreaker(trial.BreakerID, *trial.BreakerConfig)
		p.breakers[trial.BreakerID] = breaker
	}
	return breaker
}

func (p *Pool) breaker(id string) *CircuitBreaker {
	if id == "" {
		return nil
	}

	p.breakersMu.RLock()
	defer p.breakersMu.RUnlock()
	return p.breakers[id]
}

func (p *Pool) trialTimeout() time.Duration {
	if p.config == nil {
		return 0
	}
	return p.config.TrialTimeout
}

// Close stops the workers, waits for them and releases the result space.
func (p *Pool) Close() {
	if p == nil {
		return
	}

	p.closeOnce.Do(func() {
		p.cancel()
		p.wg.Wait()

		p.workerMu.Lock()
		for _, worker := range p.workerList {
			close(worker.trials)
		}
		p.workerList = nil
		p.workerMu.Unlock()

		p.space.Close()
		errnie.Info("trial pool closed")
	})
}
