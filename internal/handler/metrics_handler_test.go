package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-portal-api/internal/service"
	"github.com/noah-isme/campus-portal-api/internal/timeslot"
)

func okPing(ctx context.Context) error { return nil }

func failingPing(ctx context.Context) error { return errors.New("connection refused") }

func serveMetrics(t *testing.T, handler gin.HandlerFunc, target string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodGet, target, nil)
	require.NoError(t, err)
	c.Request = req
	handler(c)
	return w
}

func TestMetricsHandlerReady(t *testing.T) {
	handler := NewMetricsHandler(service.NewMetricsService(), okPing, failingPing)
	w := serveMetrics(t, handler.Ready, "/ready")

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
	checks := body["checks"].(map[string]interface{})
	assert.Equal(t, "ok", checks["database"])
	assert.Equal(t, "connection refused", checks["cache"])
}

func TestMetricsHandlerReadyDatabaseDown(t *testing.T) {
	handler := NewMetricsHandler(service.NewMetricsService(), failingPing, nil)
	w := serveMetrics(t, handler.Ready, "/ready")

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"degraded"`)
	assert.NotContains(t, w.Body.String(), `"cache"`)
}

func TestMetricsHandlerPrometheusAndSummary(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.RecordConflict(timeslot.DimensionClassroom)
	metrics.RecordTransition("booking_request", "pending", "approved")
	handler := NewMetricsHandler(metrics, okPing, nil)

	w := serveMetrics(t, handler.Prometheus, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `reservation_conflicts_total{dimension="classroom"} 1`)

	w = serveMetrics(t, handler.Summary, "/metrics/summary")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data struct {
			ConflictsDetected   uint64 `json:"conflicts_detected"`
			WorkflowTransitions uint64 `json:"workflow_transitions"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, uint64(1), body.Data.ConflictsDetected)
	assert.Equal(t, uint64(1), body.Data.WorkflowTransitions)
}

func TestMetricsHandlerWithoutMetrics(t *testing.T) {
	handler := NewMetricsHandler(nil, nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, serveMetrics(t, handler.Prometheus, "/metrics").Code)
	assert.Equal(t, http.StatusOK, serveMetrics(t, handler.Health, "/health").Code)
}
