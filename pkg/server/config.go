package server

import (
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/vango-dev/slicestore/pkg/telemetry"
)

// ServerConfig configures a Server.
type ServerConfig struct {
	// Address is the host:port to listen on.
	Address string

	// AllowedOrigins lists origins allowed to open the state feed in
	// addition to the server's own.
	AllowedOrigins []string

	// MaxMessageSize limits dispatch bodies and feed frames, in bytes.
	MaxMessageSize int64

	// FeedBuffer is the number of messages queued per feed client. A client
	// that falls further behind is disconnected.
	FeedBuffer int

	// MetricsPath is where MetricsHandler is mounted.
	MetricsPath string

	// MetricsHandler serves Prometheus metrics. Nil disables the route.
	MetricsHandler http.Handler

	// Metrics records feed activity. May be nil.
	Metrics *telemetry.Metrics

	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// DefaultServerConfig returns a ServerConfig with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address:           "localhost:7070",
		MaxMessageSize:    64 << 10,
		FeedBuffer:        16,
		MetricsPath:       "/metrics",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   10 * time.Second,
	}
}

// withDefaults returns a copy of c with unset fields filled in.
func (c *ServerConfig) withDefaults() *ServerConfig {
	defaults := DefaultServerConfig()
	if c == nil {
		return defaults
	}
	cfg := *c
	if cfg.Address == "" {
		cfg.Address = defaults.Address
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = defaults.MaxMessageSize
	}
	if cfg.FeedBuffer <= 0 {
		cfg.FeedBuffer = defaults.FeedBuffer
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = defaults.MetricsPath
	}
	if cfg.ReadHeaderTimeout == 0 {
		cfg.ReadHeaderTimeout = defaults.ReadHeaderTimeout
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = defaults.ShutdownTimeout
	}
	return &cfg
}

// originCheck accepts requests without an Origin header, same-origin
// requests, and the listed origins.
func originCheck(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if slices.Contains(allowed, origin) {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return r.Host != "" && u.Host == r.Host
	}
}
