// Package middleware provides observability for the combine server.
//
// This package includes:
//   - Prometheus metrics middleware and recording functions
//   - OpenTelemetry tracing middleware
//
// # Prometheus Metrics
//
// The Prometheus middleware counts HTTP requests by chi route pattern and
// times them. The recording functions cover the work behind the routes:
//   - combine_requests_total: Requests by route, method and status
//   - combine_request_duration_seconds: Request duration by route
//   - combine_asset_decisions_total: Eligibility decisions by outcome
//   - combine_bundle_builds_total: Bundle builds by kind and result
//   - combine_bundle_build_duration_seconds: Bundle build duration by kind
//   - combine_minifications_total: Minifier calls by kind and status
//
//	r := chi.NewRouter()
//	r.Use(middleware.Prometheus(middleware.WithNamespace("assets")))
//	r.Handle("/metrics", promhttp.Handler())
//
// # OpenTelemetry
//
// The OpenTelemetry middleware starts a server span per request using the
// global tracer provider. Handlers reach the span with SpanFromContext:
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    if span := middleware.SpanFromContext(r.Context()); span != nil {
//	        span.SetAttributes(attribute.Int("combine.refs", 3))
//	    }
//	}
package middleware
