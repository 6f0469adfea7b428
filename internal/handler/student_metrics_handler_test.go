package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/codepulse-api/internal/middleware"
	"github.com/noah-isme/codepulse-api/internal/models"
	"github.com/noah-isme/codepulse-api/internal/service"
	appErrors "github.com/noah-isme/codepulse-api/pkg/errors"
)

const (
	studentUUID = "5f0c6f7e-6a4b-4d7c-9a53-1a2b3c4d5e6f"
	classUUID   = "0b8e8f7a-3d2c-4b1a-8f9e-7d6c5b4a3f2e"
)

type testEnvelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      map[string]interface{} `json:"error"`
	Pagination map[string]interface{} `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) testEnvelope {
	t.Helper()
	var env testEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func serve(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	router.ServeHTTP(rec, req)
	return rec
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.WithResponseMeta())
	return r
}

type fakeMetricsSrv struct {
	metrics    *models.StudentMetrics
	result     *service.MetricsResult
	err        error
	lastUpdate service.UpdateMetricsRequest
	lastForce  bool
}

func (f *fakeMetricsSrv) Get(context.Context, string) (*models.StudentMetrics, error) {
	return f.metrics, f.err
}

func (f *fakeMetricsSrv) Update(_ context.Context, _ string, req service.UpdateMetricsRequest) (*service.MetricsResult, error) {
	f.lastUpdate = req
	return f.result, f.err
}

func (f *fakeMetricsSrv) Refresh(_ context.Context, _ string, force bool) (*service.MetricsResult, error) {
	f.lastForce = force
	return f.result, f.err
}

type fakeReporter struct {
	period models.ReportPeriod
	err    error
}

func (f *fakeReporter) Report(_ context.Context, userID string, period models.ReportPeriod) (*models.ProgressReport, error) {
	f.period = period
	if f.err != nil {
		return nil, f.err
	}
	return &models.ProgressReport{Student: models.ReportStudent{ID: userID}}, nil
}

type fakeComparer struct{ err error }

func (f fakeComparer) CompareStudent(_ context.Context, userID string) (*models.StudentComparison, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.StudentComparison{StudentMetrics: &models.StudentMetrics{UserID: userID}}, nil
}

func metricsRouter(h *StudentMetricsHandler) *gin.Engine {
	r := newTestRouter()
	r.POST("/metrics/:userId", h.Update)
	r.POST("/metrics/:userId/refresh", h.Refresh)
	r.GET("/metrics/:userId", h.Get)
	r.GET("/metrics/:userId/report", h.Report)
	r.GET("/metrics/:userId/compare", h.Compare)
	return r
}

func TestStudentMetricsHandlerRejectsInvalidID(t *testing.T) {
	r := metricsRouter(NewStudentMetricsHandler(&fakeMetricsSrv{}, &fakeReporter{}, fakeComparer{}))

	for _, target := range []string{"/metrics/not-a-uuid", "/metrics/123/report", "/metrics/abc/compare"} {
		rec := serve(r, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestStudentMetricsHandlerUpdateStatus(t *testing.T) {
	srv := &fakeMetricsSrv{result: &service.MetricsResult{Metrics: &models.StudentMetrics{UserID: studentUUID}, Created: true}}
	r := metricsRouter(NewStudentMetricsHandler(srv, nil, nil))

	rec := serve(r, http.MethodPost, "/metrics/"+studentUUID, `{"repos":[{"name":"demo"}]}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, srv.lastUpdate.Repos, 1)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, true, env.Meta["created"])

	srv.result.Created = false
	rec = serve(r, http.MethodPost, "/metrics/"+studentUUID, `{"repos":[]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStudentMetricsHandlerUpdateBadBody(t *testing.T) {
	r := metricsRouter(NewStudentMetricsHandler(&fakeMetricsSrv{}, nil, nil))

	rec := serve(r, http.MethodPost, "/metrics/"+studentUUID, `{"repos":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStudentMetricsHandlerRefreshMeta(t *testing.T) {
	srv := &fakeMetricsSrv{result: &service.MetricsResult{
		Metrics:   &models.StudentMetrics{UserID: studentUUID},
		FromCache: true,
		Message:   service.FallbackMessage,
		Sources:   map[string]string{"github": "present"},
	}}
	r := metricsRouter(NewStudentMetricsHandler(srv, nil, nil))

	rec := serve(r, http.MethodPost, "/metrics/"+studentUUID+"/refresh?force=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, srv.lastForce)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.Equal(t, service.FallbackMessage, env.Meta["message"])
	assert.Contains(t, env.Meta, "processing_time_ms")
	assert.Equal(t, map[string]interface{}{"github": "present"}, env.Meta["sources"])
}

func TestStudentMetricsHandlerGetNotFound(t *testing.T) {
	srv := &fakeMetricsSrv{err: appErrors.Clone(appErrors.ErrNotFound, "no metrics found for this student")}
	r := metricsRouter(NewStudentMetricsHandler(srv, nil, nil))

	rec := serve(r, http.MethodGet, "/metrics/"+studentUUID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "no metrics found for this student", env.Error["message"])
}

func TestStudentMetricsHandlerReportPassesPeriod(t *testing.T) {
	reporter := &fakeReporter{}
	r := metricsRouter(NewStudentMetricsHandler(&fakeMetricsSrv{}, reporter, nil))

	rec := serve(r, http.MethodGet, "/metrics/"+studentUUID+"/report?period=3Months", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.PeriodQuarter, reporter.period)
}

func TestStudentMetricsHandlerCompare(t *testing.T) {
	r := metricsRouter(NewStudentMetricsHandler(&fakeMetricsSrv{}, nil, fakeComparer{}))

	rec := serve(r, http.MethodGet, "/metrics/"+studentUUID+"/compare", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var data models.StudentComparison
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &data))
	require.NotNil(t, data.StudentMetrics)
	assert.Equal(t, studentUUID, data.StudentMetrics.UserID)
}
