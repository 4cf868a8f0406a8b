package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHealthChecker tests aggregation across dependency checks
func TestHealthChecker(t *testing.T) {
	checker := NewHealthChecker()
	checker.AddCheck("state", func(ctx context.Context) error { return nil })
	checker.AddCheck("history", func(ctx context.Context) error { return nil })

	status := checker.Check(context.Background())
	assert.Equal(t, StatusHealthy, status.Status)
	assert.Len(t, status.Dependencies, 2)

	checker.AddCheck("history", func(ctx context.Context) error {
		return errors.New("database is locked")
	})

	status = checker.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, status.Status)
	assert.Equal(t, StatusUnhealthy, status.Dependencies["history"].Status)
	assert.Equal(t, StatusHealthy, status.Dependencies["state"].Status)
	assert.Contains(t, status.Dependencies["history"].Message, "locked")
}

// TestReadiness tests the HTTP probe status codes
func TestReadiness(t *testing.T) {
	checker := NewHealthChecker()

	rec := httptest.NewRecorder()
	checker.Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	checker.AddCheck("state", func(ctx context.Context) error {
		return errors.New("unwritable")
	})

	rec = httptest.NewRecorder()
	checker.Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, StatusUnhealthy, status.Status)
}

// TestLiveness tests that liveness never fails
func TestLiveness(t *testing.T) {
	checker := NewHealthChecker()
	checker.AddCheck("state", func(ctx context.Context) error {
		return errors.New("down")
	})

	rec := httptest.NewRecorder()
	checker.Liveness(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
