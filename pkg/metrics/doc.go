// Package metrics instruments hosted applications with Prometheus.
//
// Every Server owns its own registry, so two applications hosted in one
// process never share series:
//
//	reg := metrics.NewRegistry()
//	srv, err := server.New("./site", "/app/", server.WithMetrics(reg))
//
//	http.Handle("/metrics", metrics.Handler(reg))
//
// The host records netty_http_requests_total, netty_http_request_duration_seconds,
// netty_http_response_size_bytes, netty_http_connections_in_flight and
// netty_http_request_errors_total.
package metrics
