// Package server exposes a store over HTTP and WebSocket.
//
// Routes:
//
//	POST /dispatch   dispatch one JSON action, respond with the new state
//	GET  /state      current state as JSON
//	GET  /ws         state feed: one message per store broadcast
//	GET  /healthz    liveness
//	GET  /metrics    Prometheus metrics, when a handler is configured
//
// Failed dispatches are reported as JSON with an error code:
//
//	{"code":"S035","category":"reducer","error":"store: target not found in reducers: cart"}
//
// The server serializes its own dispatches, so concurrent HTTP requests
// never see ErrStoreIsInProcess from one another. Dispatches made by other
// code sharing the store can still collide and are answered with 409.
package server
