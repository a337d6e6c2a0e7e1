package monitoring

import "strings"

// GetMetricsPrometheus returns a fixed comment banner; it carries no metric
// values (the Prometheus exposition is served by promhttp.Handler)
func (m *Metrics) GetMetricsPrometheus() string {
	var sb strings.Builder

	// Note: Prometheus client_golang already handles exposition format
	// This is a placeholder for custom metrics if needed
	sb.WriteString("# Pipeline Service Metrics\n")
	sb.WriteString("# All metrics are collected via Prometheus client_golang\n")
	sb.WriteString("# Access via /metrics endpoint\n")

	return sb.String()
}
