package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthChecker(t *testing.T) {
	hc := &HealthChecker{checks: make(map[string]*HealthCheck)}
	hc.RegisterCheck(PingCheck())

	resp := hc.Check(context.Background())
	assert.Equal(t, HealthStatusHealthy, resp.Status)
	require.Contains(t, resp.Checks, "ping")
	assert.Equal(t, HealthStatusHealthy, resp.Checks["ping"].Status)
}

func TestHealthChecker_CriticalFailure(t *testing.T) {
	hc := &HealthChecker{checks: make(map[string]*HealthCheck)}
	hc.RegisterCheck(ChannelCheck(func(ctx context.Context) error {
		return errors.New("connection refused")
	}))

	resp := hc.Check(context.Background())
	assert.Equal(t, HealthStatusUnhealthy, resp.Status)
	assert.Equal(t, HealthStatusUnhealthy, resp.Checks["channel"].Status)
	assert.Contains(t, resp.Checks["channel"].Message, "connection refused")
}

func TestHealthChecker_NonCriticalFailure(t *testing.T) {
	hc := &HealthChecker{checks: make(map[string]*HealthCheck)}
	hc.RegisterCheck(&HealthCheck{
		Name:      "flaky",
		CheckFunc: func(ctx context.Context) error { return errors.New("hiccup") },
		Timeout:   time.Second,
	})

	resp := hc.Check(context.Background())
	assert.Equal(t, HealthStatusDegraded, resp.Status)
}

func TestLivenessHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)

	LivenessHandler()(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "alive", body["status"])
}

func TestMetricsHandler(t *testing.T) {
	InitMetrics()
	RecordMessageSent("MERGE")
	RecordTick()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	MetricsHandler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mazeswarm_ticks_total")
}
