/*
Package monitoring provides Prometheus metrics for the file server.

# Overview

Each Metrics value owns a private prometheus.Registry with the Go runtime
and process collectors registered, plus:

- HTTP request metrics (count, latency, request and response size) labelled
  by route template
- Filesystem operation metrics (count, latency, errors by code)
- Bytes of file content served
- Rejected bearer tokens by error code
- Uptime

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Metrics satisfies filesystem.Observer
	provider, err := filesystem.NewProvider(root, filesystem.Options{Observer: metrics})
*/
package monitoring
