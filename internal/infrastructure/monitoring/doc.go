/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the
pipeline service, tracking HTTP requests, pipeline run outcomes,
endpoint byte transfer, and system metrics.

# Features

- HTTP request metrics (latency, throughput, size)
- Pipeline run metrics (started, failed, active)
- Endpoint transfer metrics (bytes moved, by direction and kind)
- Ring buffer growth events
- WebSocket connection metrics
- System metrics (uptime)

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Record custom metrics
	metrics.IncRunsStarted()
	metrics.SetRunsActive(3)

# Metrics Endpoint

Expose metrics via the standard Prometheus endpoint:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
