package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmgilman/go/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsUsesPrivateRegistry(t *testing.T) {
	first := NewMetrics()
	second := NewMetrics()

	first.ObserveBytesServed(10)
	assert.Equal(t, float64(10), testutil.ToFloat64(first.BytesServed))
	assert.Equal(t, float64(0), testutil.ToFloat64(second.BytesServed))
}

func TestObserveOperation(t *testing.T) {
	m := NewMetrics()

	m.ObserveOperation("list", time.Millisecond, nil)
	m.ObserveOperation("delete", time.Millisecond, errors.New(errors.CodeNotFound, "missing"))
	m.ObserveOperation("delete", time.Millisecond, errors.New(errors.CodeNotFound, "missing"))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.OperationsTotal.WithLabelValues("list", "success")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.OperationsTotal.WithLabelValues("delete", "error")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.OperationErrors.WithLabelValues("delete", string(errors.CodeNotFound))))
}

func TestObserveBytesServedIgnoresNonPositive(t *testing.T) {
	m := NewMetrics()
	m.ObserveBytesServed(0)
	m.ObserveBytesServed(-5)
	m.ObserveBytesServed(7)
	assert.Equal(t, float64(7), testutil.ToFloat64(m.BytesServed))
}

func TestRecordAuthFailure(t *testing.T) {
	m := NewMetrics()
	m.RecordAuthFailure(errors.New(errors.CodeUnauthorized, "nope"))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.AuthFailures.WithLabelValues(string(errors.CodeUnauthorized))))
}

func TestMiddlewareRecordsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/api/v1/browse/*path", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	for _, target := range []string{"/api/v1/browse/a", "/api/v1/browse/b/c", "/nowhere"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/api/v1/browse/*path", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", unmatchedRoute, "404")))

	snapshot := m.Snapshot()
	assert.Equal(t, int64(3), snapshot.TotalRequests)
	assert.Equal(t, int64(1), snapshot.TotalErrors)
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewMetrics()
	m.ObserveBytesServed(42)
	m.ObserveBytesWritten(7)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "fileserver_fs_bytes_served_total 42")
	assert.Contains(t, w.Body.String(), "fileserver_fs_bytes_written_total 7")
	assert.Contains(t, w.Body.String(), "fileserver_uptime_seconds")
}
