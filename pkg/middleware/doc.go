// Package middleware provides HTTP middleware for the inspector: Prometheus
// request metrics and OpenTelemetry server spans.
//
// Both are plain func(http.Handler) http.Handler values and name requests
// by their chi route pattern (for example "/keys/{key}"), so label and span
// cardinality stays bounded by the number of routes.
//
//	r := chi.NewRouter()
//	r.Use(middleware.Prometheus(middleware.WithRegistry(reg)))
//	r.Use(middleware.OpenTelemetry())
//
// # Prometheus Metrics
//
//   - reactive_inspect_requests_total{method,route,status}
//   - reactive_inspect_request_duration_seconds{method,route}
//   - reactive_inspect_requests_in_flight
//
// # OpenTelemetry
//
// Spans use the global tracer provider unless WithTracer is given. The span
// is renamed to "METHOD /pattern" once routing has resolved the pattern.
package middleware
