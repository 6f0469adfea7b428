package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceProviderCalls(t *testing.T) {
	metrics := NewMetricsService()
	metrics.ObserveProviderCall("github", "list_repos", "ok", 20*time.Millisecond)
	metrics.ObserveProviderCall("github", "list_commits", "rate_limited", 5*time.Millisecond)
	metrics.ObserveProviderCall("leetcode", "fetch_profile", "ok", 30*time.Millisecond)
	metrics.TrackQueueDepth(func() int { return 3 })

	snapshot := metrics.Snapshot()
	assert.Equal(t, map[string]uint64{"github": 2, "leetcode": 1}, snapshot.ProviderCalls)
	assert.Equal(t, map[string]uint64{"github": 1}, snapshot.ProviderFailures)
	assert.Equal(t, 3, snapshot.RefreshQueueDepth)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `provider_calls_total{operation="list_commits",outcome="rate_limited",provider="github"} 1`)
	assert.Contains(t, body, "refresh_queue_depth 3")
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var metrics *MetricsService
	metrics.ObserveProviderCall("github", "get_user", "ok", time.Millisecond)
	metrics.RecordCacheOperation(true, time.Millisecond)
	assert.Empty(t, metrics.Snapshot().ProviderCalls)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsServiceExposesCacheHistograms(t *testing.T) {
	metrics := NewMetricsService()
	metrics.RecordCacheOperation(true, time.Millisecond)
	metrics.RecordCacheOperation(false, time.Millisecond)
	metrics.ObserveCacheWrite(2 * time.Millisecond)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, "codepulse_cache_lookup_seconds_count 2")
	assert.Contains(t, body, "codepulse_cache_write_seconds_count 1")
	assert.Contains(t, body, "codepulse_cache_hit_ratio 0.5")
}
