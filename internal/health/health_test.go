package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/schedrecovery/internal/core/domain"
	"github.com/vietddude/schedrecovery/internal/recovery/retry"
)

// =============================================================================
// Mocks
// =============================================================================

type stubPinger struct {
	err error
}

func (s *stubPinger) Ping(ctx context.Context) error { return s.err }

// =============================================================================
// Tests
// =============================================================================

func TestMonitor_Healthy(t *testing.T) {
	counter := retry.NewCounter()
	counter.Increment("s1", domain.KindNetwork)

	r := NewMonitor("memory", &stubPinger{}, counter).Check(context.Background())
	assert.Equal(t, StatusHealthy, r.Status)
	assert.Equal(t, "memory", r.Backend)
	assert.Equal(t, 1, r.RetrySessions)
	assert.Empty(t, r.StoreError)
}

func TestMonitor_StoreDown(t *testing.T) {
	r := NewMonitor("redis", &stubPinger{err: errors.New("connection refused")}, nil).Check(context.Background())
	assert.Equal(t, StatusCritical, r.Status)
	assert.Equal(t, "connection refused", r.StoreError)
}

func TestServer_HealthEndpoint(t *testing.T) {
	pinger := &stubPinger{}
	srv := NewServer(NewMonitor("memory", pinger, nil), 0)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])

	pinger.err = errors.New("down")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_DetailedAndMetrics(t *testing.T) {
	srv := NewServer(NewMonitor("sqlite", &stubPinger{}, nil), 0)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/detailed", nil))
	var report Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "sqlite", report.Backend)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
