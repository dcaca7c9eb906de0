// Package health provides store health checks and the metrics endpoint.
package health

import (
	"context"
	"time"

	"github.com/vietddude/schedrecovery/internal/infra/storage"
)

// SystemStatus represents the overall health state of the service.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// slowPing marks the store degraded.
const slowPing = 500 * time.Millisecond

// Report contains the full health report.
type Report struct {
	Status         SystemStatus `json:"status"`
	Backend        string       `json:"backend"`
	StoreLatencyMs int64        `json:"store_latency_ms"`
	StoreError     string       `json:"store_error,omitempty"`
	RetrySessions  int          `json:"retry_sessions"`
}

// SessionCounter reports how many sessions hold retry attempts.
type SessionCounter interface {
	Sessions() int
}

// Monitor checks the key/value store.
type Monitor struct {
	backend string
	store   storage.Pinger
	counter SessionCounter
	timeout time.Duration
}

// NewMonitor creates a monitor for the named backend.
func NewMonitor(backend string, store storage.Pinger, counter SessionCounter) *Monitor {
	return &Monitor{backend: backend, store: store, counter: counter, timeout: 2 * time.Second}
}

// Check pings the store and builds a report.
func (m *Monitor) Check(ctx context.Context) Report {
	r := Report{Status: StatusHealthy, Backend: m.backend}
	if m.counter != nil {
		r.RetrySessions = m.counter.Sessions()
	}
	if m.store == nil {
		return r
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	err := m.store.Ping(ctx)
	elapsed := time.Since(start)
	r.StoreLatencyMs = elapsed.Milliseconds()

	switch {
	case err != nil:
		r.Status = StatusCritical
		r.StoreError = err.Error()
	case elapsed > slowPing:
		r.Status = StatusDegraded
	}
	return r
}
