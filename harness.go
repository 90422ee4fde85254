package bitflip

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/theapemachine/errnie"
	"golang.org/x/sync/errgroup"
)

// SamplerBreaker names the circuit breaker guarding the sampler.
const SamplerBreaker = "sampler"

// Report is the outcome of running one scenario.
type Report struct {
	RunID      string
	Scenario   Scenario
	Shots      int
	Counts     Counts
	Tally      Tally
	Syndrome   Syndrome
	Diagnosis  Diagnosis
	Assessment Assessment
	Duration   time.Duration
}

// Unanimous reports whether every shot agreed on the syndrome.
func (r Report) Unanimous() bool {
	return r.Tally.Unanimous()
}

// Experiment is one batch of scenarios run together.
type Experiment struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	Reports   []Report
}

/*
Harness injects each scenario's fault, has the sampler execute the
circuit, decodes the resulting histogram and compares the diagnosis with
the injected fault. The sampler is supplied by the caller; the harness
holds no process-wide simulator.
*/
type Harness struct {
	config  *Config
	sampler Sampler
	limiter *RateLimiter
	pool    *Pool
}

func NewHarness(ctx context.Context, sampler Sampler, config *Config) *Harness {
	if config == nil {
		config = NewConfig()
	}

	h := &Harness{
		config:  config,
		sampler: sampler,
		pool:    NewPool(ctx, config),
	}
	if config.SampleInterval > 0 {
		h.limiter = NewRateLimiter(config.SampleBurst, config.SampleInterval)
	}

	return h
}

/*
Trial runs a single scenario synchronously on the calling goroutine.
The decoder only ever sees the syndrome; the injected fault is used
afterwards to assess the diagnosis.
*/
func (h *Harness) Trial(ctx context.Context, runID string, s Scenario) (Report, error) {
	start := time.Now()
	circuit := BuildCircuit(s)

	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return Report{}, fmt.Errorf("throttle %s: %w", s, err)
		}
	}

	counts, err := h.sampler.Sample(ctx, circuit, h.config.Shots)
	if err != nil {
		return Report{}, fmt.Errorf("sample %s: %w", s, err)
	}

	report, err := Evaluate(s, counts)
	if err != nil {
		return Report{}, fmt.Errorf("interpret %s: %w", s, err)
	}

	if !report.Unanimous() {
		if h.config.Strict {
			return Report{}, fmt.Errorf("%s: %w", s, report.Tally.Strict())
		}
		log.Warn(
			"syndrome histogram is not unanimous",
			"scenario", s,
			"dominant", report.Syndrome,
			"fraction", report.Tally.Fraction(report.Syndrome),
		)
	}

	report.RunID = runID
	report.Duration = time.Since(start)
	return report, nil
}

/*
Evaluate decodes a histogram produced for scenario s: the dominant
syndrome is decoded and the diagnosis assessed against the scenario's
injected fault.
*/
func Evaluate(s Scenario, counts Counts) (Report, error) {
	tally, err := Interpret(counts)
	if err != nil {
		return Report{}, err
	}

	syndrome := tally.Dominant()
	diagnosis := Decode(syndrome)

	return Report{
		Scenario:   s,
		Shots:      int(tally.Shots()),
		Counts:     counts,
		Tally:      tally,
		Syndrome:   syndrome,
		Diagnosis:  diagnosis,
		Assessment: Assess(s.Fault(), diagnosis),
	}, nil
}

/*
Run schedules every scenario on the pool and waits for all of them.
Reports come back in the order the scenarios were given. With no
scenarios the whole catalogue runs.
*/
func (h *Harness) Run(ctx context.Context, scenarios ...Scenario) (Experiment, error) {
	if len(scenarios) == 0 {
		scenarios = Scenarios()
	}

	exp := Experiment{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Reports:   make([]Report, len(scenarios)),
	}
	errnie.Info("experiment %s: running %d scenarios", exp.ID, len(scenarios))

	pending := make([]chan Result, len(scenarios))
	for i, s := range scenarios {
		pending[i] = h.pool.Schedule(
			fmt.Sprintf("%s/%d/%s", exp.ID, i, s),
			func(ctx context.Context) (Report, error) {
				return h.Trial(ctx, exp.ID, s)
			},
			WithBreaker(SamplerBreaker, h.config.BreakerFailures, h.config.BreakerReset),
			WithRetryFilter(Retryable),
		)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, ch := range pending {
		g.Go(func() error {
			select {
			case res := <-ch:
				if res.Error != nil {
					return fmt.Errorf("scenario %s: %w", scenarios[i], res.Error)
				}
				exp.Reports[i] = res.Report
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}

	err := g.Wait()
	exp.Duration = time.Since(exp.StartedAt)
	if err != nil {
		return exp, err
	}

	log.Debug("experiment finished", "experiment", exp.ID, "duration", exp.Duration, "metrics", h.pool.Metrics().Export())
	return exp, nil
}

/*
Retryable reports whether a trial error may clear on another attempt.
Malformed histograms, ambiguous syndromes and cancellation are final.
*/
func Retryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, ErrInvalidShots),
		errors.Is(err, ErrInvalidCountsKey),
		errors.Is(err, ErrEmptyHistogram),
		errors.Is(err, ErrAmbiguousHistogram),
		errors.Is(err, ErrUnsupportedGate),
		errors.Is(err, ErrBreakerOpen):
		return false
	default:
		return true
	}
}

// Subscribe receives every finished trial, optionally filtered by rules.
func (h *Harness) Subscribe(subscriberID string, rules ...RoutingRule) chan Result {
	return h.pool.Subscribe(subscriberID, rules...)
}

func (h *Harness) Metrics() *Metrics {
	return h.pool.Metrics()
}

func (h *Harness) Close() {
	h.pool.Close()
}
