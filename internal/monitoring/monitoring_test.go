package monitoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "info")

	logger.ScoringLogger("ath-1", "mlb.closer", 5, 3*time.Millisecond, false)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Scoring Completed", entry["msg"])
	assert.Equal(t, "mlb.closer", entry["cohort"])
	assert.Contains(t, entry, "timestamp")
	assert.NotContains(t, entry, "time")
	assert.Contains(t, entry, "source")
}

func TestLoggerSetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "info")

	logger.CacheLogger("get", "0123456789abcdef", true, 3)
	assert.Zero(t, buf.Len())

	logger.SetLevel(slog.LevelDebug)
	logger.CacheLogger("get", "0123456789abcdef", true, 3)
	assert.Contains(t, buf.String(), `"key_hash":"01234567..."`)
}

func TestAPIErrorLoggerCaller(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "info")
	logger.APIErrorLogger(errors.New("boom"), "POST", "/v1/score", "10.0.0.1", 500)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	caller, _ := entry["caller"].(string)
	assert.Regexp(t, `:\d+$`, caller)
}

func TestMetricsStats(t *testing.T) {
	prom := NewPrometheus()
	m := NewMetrics(prom)

	m.IncrementRequest()
	m.IncrementRequest()
	m.IncrementError()
	m.IncrementCacheHit()
	m.IncrementCacheMiss()
	m.RecordScore(5, time.Millisecond, nil)
	m.RecordScore(0, 0, errors.New("bad"))
	m.RecordCohortLookup("hit")
	m.RecordCohortLookup("miss")
	m.RecordCohortLookup("hit")
	m.RecordRequest("POST", "/v1/score", 200, 10*time.Millisecond)
	m.IncrementRateLimitIPBlock("memory")

	stats := m.GetStats()
	assert.EqualValues(t, 2, stats["total_requests"])
	assert.EqualValues(t, 50.0, stats["error_rate_percent"])
	assert.EqualValues(t, 50.0, stats["cache_hit_rate_percent"])
	assert.EqualValues(t, 2, stats["score_requests"])
	assert.EqualValues(t, 1, stats["score_errors"])
	assert.EqualValues(t, 5, stats["features_scored"])
	assert.Equal(t, map[string]int64{"hit": 2, "miss": 1}, stats["cohort_lookups"])
	assert.Equal(t, map[int]int64{200: 1}, stats["status_code_distribution"])

	assert.Equal(t, 1.0, testutil.ToFloat64(prom.Scores.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(prom.Scores.WithLabelValues("error")))
	assert.Equal(t, 5.0, testutil.ToFloat64(prom.FeaturesScored))
	assert.Equal(t, 2.0, testutil.ToFloat64(prom.CohortLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(prom.RateLimitBlocks.WithLabelValues("memory")))
}

func TestMetricsWithoutPrometheus(t *testing.T) {
	m := NewMetrics(nil)
	assert.NotPanics(t, func() {
		m.IncrementCacheHit()
		m.RecordScore(1, time.Millisecond, nil)
		m.RecordCohortLookup("error")
		m.RecordRequest("GET", "/health", 200, time.Millisecond)
	})
}

func TestPercentileResponseTime(t *testing.T) {
	m := NewMetrics(nil)
	assert.Zero(t, m.GetPercentileResponseTime(50))

	for i := 1; i <= 100; i++ {
		m.RecordResponseTime(time.Duration(i) * time.Millisecond)
	}
	assert.Equal(t, 50*time.Millisecond, m.GetPercentileResponseTime(50))
	assert.Equal(t, 100*time.Millisecond, m.GetPercentileResponseTime(100))
}

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "info")
	prom := NewPrometheus()
	metrics := NewMetrics(prom)

	router := gin.New()
	router.Use(RequestIDMiddleware(), MonitoringMiddleware(metrics, logger))
	router.GET("/v1/cohorts/:key", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/cohorts/mlb.closer", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set(RequestIDHeader, "caller-id")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "caller-id", w.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), `"request_id":"caller-id"`)

	assert.EqualValues(t, 2, metrics.RequestCount)
	assert.EqualValues(t, 1, metrics.ErrorCount)
	assert.Equal(t, 2, testutil.CollectAndCount(prom.RequestDuration))
}

func TestPrometheusHandler(t *testing.T) {
	prom := NewPrometheus()
	prom.Scores.WithLabelValues("ok").Inc()

	w := httptest.NewRecorder()
	prom.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics/prometheus", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `traits_scores_total{result="ok"} 1`), body)
	assert.Contains(t, body, "go_goroutines")
}

func TestMemoryMonitorCollect(t *testing.T) {
	m := NewMetrics(nil)
	mm := NewMemoryMonitor(time.Minute, m, nil)

	stats := mm.Collect()
	assert.NotZero(t, stats.HeapSys)
	assert.Equal(t, stats, mm.Last())
	assert.EqualValues(t, stats.HeapSys, m.HeapSys)
}
