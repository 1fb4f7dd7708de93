// Package telemetry provides store observers that export dispatch activity
// to Prometheus and OpenTelemetry.
//
// Both observers are read-only: they watch dispatches through the
// store.Observer hook and never alter or delay an action.
//
//	metrics := telemetry.NewMetrics(telemetry.WithNamespace("todo"))
//	tracing := telemetry.NewTracing(telemetry.WithTracerName("todo"))
//
//	s, err := store.New(root,
//	    store.WithObserver(metrics),
//	    store.WithObserver(tracing),
//	)
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.Handler())
//
// Metrics collected:
//   - slicestore_dispatches_total: Counter of dispatches by action type and status
//   - slicestore_dispatch_duration_seconds: Histogram of reducer run time
//   - slicestore_dispatch_errors_total: Counter of failed dispatches by error type
//   - slicestore_subscribers: Gauge of registered store listeners
//   - slicestore_feed_clients: Gauge of connected WebSocket state feeds
//   - slicestore_feed_errors_total: Counter of WebSocket feed errors
package telemetry
