package http

import (
	"net/http"
	"time"

	"github.com/GriffinCanCode/fileserver/internal/infrastructure/monitoring"
	"github.com/gin-gonic/gin"
)

// MetricsSummary provides high-level metrics without a Prometheus scrape.
type MetricsSummary struct {
	Timestamp        time.Time `json:"timestamp"`
	TotalRequests    int64     `json:"total_requests"`
	TotalErrors      int64     `json:"total_errors"`
	AverageLatencyMs float64   `json:"average_latency_ms"`
	ErrorRate        float64   `json:"error_rate"`
	UptimeSeconds    float64   `json:"uptime_seconds"`
}

// Summarize computes the summary from the collector's running totals.
func Summarize(metrics *monitoring.Metrics, now time.Time) MetricsSummary {
	snapshot := metrics.Snapshot()

	var avgLatency float64
	if snapshot.TotalRequests > 0 {
		avgLatency = snapshot.TotalDuration / float64(snapshot.TotalRequests) * 1000
	}

	var errorRate float64
	if snapshot.TotalRequests > 0 {
		errorRate = float64(snapshot.TotalErrors) / float64(snapshot.TotalRequests)
	}

	return MetricsSummary{
		Timestamp:        now.UTC(),
		TotalRequests:    snapshot.TotalRequests,
		TotalErrors:      snapshot.TotalErrors,
		AverageLatencyMs: avgLatency,
		ErrorRate:        errorRate,
		UptimeSeconds:    metrics.Since().Seconds(),
	}
}

// MetricsSummaryHandler serves Summarize as JSON.
func MetricsSummaryHandler(metrics *monitoring.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  http.StatusOK,
			"content": Summarize(metrics, time.Now()),
		})
	}
}
