package bitflip

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Metrics aggregates pool health and decoding outcomes.
type Metrics struct {
	mu             sync.RWMutex
	WorkerCount    int
	QueueSize      int
	TrialCount     int64
	FailedTrials   int64
	ShotCount      uint64
	TotalTrialTime time.Duration

	SchedulingFailures int64
	BreakerRejections  int64

	// Decoding outcomes
	Verdicts        map[Verdict]int64
	AccurateTrials  int64
	LogicalFailures int64
	AmbiguousTrials int64

	AverageLatency time.Duration
	P95Latency     time.Duration
	P99Latency     time.Duration

	latencies  []time.Duration
	windowSize int
}

func NewMetrics() *Metrics {
	return &Metrics{
		Verdicts:   make(map[Verdict]int64),
		latencies:  make([]time.Duration, 0, 1000), // last 1000 trials
		windowSize: 1000,
	}
}

func (m *Metrics) recordTrial(startTime time.Time, success bool) {
	duration := time.Since(startTime)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.TrialCount++
	m.TotalTrialTime += duration
	if !success {
		m.FailedTrials++
	}

	m.updateLatencyPercentiles(duration)
}

func (m *Metrics) recordReport(r Report) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ShotCount += r.Tally.Shots()
	m.Verdicts[r.Assessment.Verdict]++
	if r.Assessment.Accurate() {
		m.AccurateTrials++
	}
	if r.Assessment.LogicalFailure() {
		m.LogicalFailures++
	}
	if !r.Tally.Unanimous() {
		m.AmbiguousTrials++
	}
}

func (m *Metrics) recordSchedulingFailure() {
	m.mu.Lock()
	m.SchedulingFailures++
	m.mu.Unlock()
}

func (m *Metrics) recordBreakerRejection() {
	m.mu.Lock()
	m.BreakerRejections++
	m.mu.Unlock()
}

func (m *Metrics) updateLatencyPercentiles(duration time.Duration) {
	m.AverageLatency = m.TotalTrialTime / time.Duration(m.TrialCount)

	m.latencies = append(m.latencies, duration)
	if len(m.latencies) > m.windowSize {
		m.latencies = m.latencies[1:]
	}

	sorted := make([]time.Duration, len(m.latencies))
	copy(sorted, m.latencies)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	m.P95Latency = sorted[percentileIndex(len(sorted), 0.95)]
	m.P99Latency = sorted[percentileIndex(len(sorted), 0.99)]
}

func percentileIndex(n int, p float64) int {
	i := int(float64(n) * p)
	if i >= n {
		i = n - 1
	}
	return i
}

// Accuracy is the share of completed trials whose diagnosis was correct.
func (m *Metrics) Accuracy() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total int64
	for _, n := range m.Verdicts {
		total += n
	}
	if total == 0 {
		return 0
	}
	return float64(m.AccurateTrials) / float64(total)
}

// Export flattens the metrics for logging or serialization.
func (m *Metrics) Export() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := map[string]any{
		"worker_count":        m.WorkerCount,
		"queue_size":          m.QueueSize,
		"trials":              m.TrialCount,
		"failed_trials":       m.FailedTrials,
		"shots":               m.ShotCount,
		"scheduling_failures": m.SchedulingFailures,
		"breaker_rejections":  m.BreakerRejections,
		"accurate_trials":     m.AccurateTrials,
		"logical_failures":    m.LogicalFailures,
		"ambiguous_trials":    m.AmbiguousTrials,
		"avg_latency_ms":      m.AverageLatency.Milliseconds(),
		"p95_latency_ms":      m.P95Latency.Milliseconds(),
		"p99_latency_ms":      m.P99Latency.Milliseconds(),
	}
	for v, n := range m.Verdicts {
		out["verdict_"+strings.ReplaceAll(v.String(), " ", "_")] = n
	}
	return out
}
