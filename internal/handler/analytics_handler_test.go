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

	"github.com/noah-isme/codepulse-api/internal/models"
	"github.com/noah-isme/codepulse-api/internal/service"
)

type fakeSnapshotter struct{}

func (fakeSnapshotter) Snapshot() models.AnalyticsSystemMetrics {
	return models.AnalyticsSystemMetrics{RequestsTotal: 7}
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

func TestAnalyticsHandlerOverviewAllStudents(t *testing.T) {
	analytics := &fakeClassAnalytics{hit: true, lastClass: "unset"}
	r := newTestRouter()
	r.GET("/metrics/overview", NewAnalyticsHandler(analytics, nil).Overview)

	rec := serve(r, http.MethodGet, "/metrics/overview", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", analytics.lastClass)
	assert.Equal(t, true, decodeEnvelope(t, rec).Meta["cache_hit"])

	rec = serve(r, http.MethodGet, "/metrics/overview?classId="+classUUID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, classUUID, analytics.lastClass)

	rec = serve(r, http.MethodGet, "/metrics/overview?classId=bad", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyticsHandlerSystem(t *testing.T) {
	r := newTestRouter()
	r.GET("/analytics/system", NewAnalyticsHandler(nil, fakeSnapshotter{}).System)

	rec := serve(r, http.MethodGet, "/analytics/system", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var data models.AnalyticsSystemMetrics
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &data))
	assert.EqualValues(t, 7, data.RequestsTotal)
}

func TestAnalyticsHandlerSystemUnavailable(t *testing.T) {
	r := newTestRouter()
	r.GET("/analytics/system", NewAnalyticsHandler(nil, nil).System)

	assert.Equal(t, http.StatusInternalServerError, serve(r, http.MethodGet, "/analytics/system", "").Code)
}

func TestMetricsHandlerReady(t *testing.T) {
	gin.SetMode(gin.TestMode)
	healthy := NewMetricsHandler(nil, map[string]Pinger{"postgres": fakePinger{}})
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)
	healthy.Ready(c)
	assert.Equal(t, http.StatusOK, rec.Code)

	down := NewMetricsHandler(nil, map[string]Pinger{"postgres": fakePinger{}, "redis": fakePinger{err: errors.New("connection refused")}})
	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)
	down.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestMetricsHandlerPrometheus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewMetricsHandler(service.NewMetricsService(), nil)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/metrics", nil)

	h.Prometheus(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
