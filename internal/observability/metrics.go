package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects counters for interpretation and execution.
type Metrics struct {
	mu sync.Mutex

	interpretTotal    atomic.Int64
	executeTotal      atomic.Int64
	executeFailed     atomic.Int64
	notificationsLost atomic.Int64
	staleResponses    atomic.Int64

	paths map[string]*atomic.Int64

	durations    []time.Duration
	maxDurations int
}

// Snapshot is a point-in-time copy of the metrics.
type Snapshot struct {
	InterpretTotal    int64            `json:"interpret_total"`
	ExecuteTotal      int64            `json:"execute_total"`
	ExecuteFailed     int64            `json:"execute_failed"`
	NotificationsLost int64            `json:"notifications_lost"`
	StaleResponses    int64            `json:"stale_responses"`
	Paths             map[string]int64 `json:"paths"`
	AvgInterpretMs    float64          `json:"avg_interpret_ms"`
}

// NewMetrics creates a new metrics collector.
func NewMetrics(maxDurations int) *Metrics {
	if maxDurations <= 0 {
		maxDurations = 1000
	}
	return &Metrics{
		paths:        make(map[string]*atomic.Int64),
		durations:    make([]time.Duration, 0, maxDurations),
		maxDurations: maxDurations,
	}
}

var globalMetrics = NewMetrics(1000)

// GlobalMetrics returns the global metrics instance.
func GlobalMetrics() *Metrics {
	return globalMetrics
}

// RecordInterpretation records one interpretation and the path that produced it.
func (m *Metrics) RecordInterpretation(path string, duration time.Duration) {
	m.interpretTotal.Add(1)
	m.pathCounter(path).Add(1)

	m.mu.Lock()
	if len(m.durations) >= m.maxDurations {
		m.durations = m.durations[1:]
	}
	m.durations = append(m.durations, duration)
	m.mu.Unlock()
}

// RecordExecution records an executed batch.
func (m *Metrics) RecordExecution(failed bool) {
	m.executeTotal.Add(1)
	if failed {
		m.executeFailed.Add(1)
	}
}

// RecordNotificationFailure records a swallowed notification scheduling failure.
func (m *Metrics) RecordNotificationFailure() {
	m.notificationsLost.Add(1)
}

// RecordStaleResponse records an interpretation discarded as superseded.
func (m *Metrics) RecordStaleResponse() {
	m.staleResponses.Add(1)
}

// Snapshot returns the current values.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	paths := make(map[string]int64, len(m.paths))
	for k, v := range m.paths {
		paths[k] = v.Load()
	}

	var avg float64
	if len(m.durations) > 0 {
		var total time.Duration
		for _, d := range m.durations {
			total += d
		}
		avg = float64(total.Milliseconds()) / float64(len(m.durations))
	}

	return Snapshot{
		InterpretTotal:    m.interpretTotal.Load(),
		ExecuteTotal:      m.executeTotal.Load(),
		ExecuteFailed:     m.executeFailed.Load(),
		NotificationsLost: m.notificationsLost.Load(),
		StaleResponses:    m.staleResponses.Load(),
		Paths:             paths,
		AvgInterpretMs:    avg,
	}
}

func (m *Metrics) pathCounter(path string) *atomic.Int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.paths[path]
	if !ok {
		c = &atomic.Int64{}
		m.paths[path] = c
	}
	return c
}
