package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/slicestore/pkg/store"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "slicestore").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for dispatch duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer

	// ActionTypes are the action types recorded under their own label value.
	// Every other type is recorded as "other". store.ActionInit is always
	// included.
	ActionTypes []string
}

// MetricsOption configures the Prometheus observer.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// WithActionTypes sets the action types that get their own label value.
func WithActionTypes(types ...string) MetricsOption {
	return func(c *MetricsConfig) {
		c.ActionTypes = append(c.ActionTypes, types...)
	}
}

// otherActionType labels action types outside MetricsConfig.ActionTypes.
const otherActionType = "other"

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "slicestore",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is a store.Observer that records dispatches in Prometheus.
// It also carries the feed gauges used by the WebSocket server.
type Metrics struct {
	dispatchesTotal  *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	dispatchErrors   *prometheus.CounterVec
	subscribers      prometheus.Gauge
	feedClients      prometheus.Gauge
	feedErrors       *prometheus.CounterVec

	actionTypes map[string]struct{}
}

var _ store.Observer = (*Metrics)(nil)
var _ store.SubscriberObserver = (*Metrics)(nil)

// NewMetrics registers the store metrics with the configured registry.
// It panics if the metrics are already registered there, like promauto.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	actionTypes := map[string]struct{}{store.ActionInit: {}}
	for _, t := range config.ActionTypes {
		actionTypes[t] = struct{}{}
	}

	return &Metrics{
		actionTypes: actionTypes,

		dispatchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatches_total",
			Help:        "Total number of dispatched actions",
			ConstLabels: config.ConstLabels,
		}, []string{"type", "status"}),

		dispatchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatch_duration_seconds",
			Help:        "Reducer run time per dispatch in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"type"}),

		dispatchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatch_errors_total",
			Help:        "Total number of failed dispatches",
			ConstLabels: config.ConstLabels,
		}, []string{"type", "error_type"}),

		subscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "subscribers",
			Help:        "Number of registered store listeners",
			ConstLabels: config.ConstLabels,
		}),

		feedClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "feed_clients",
			Help:        "Number of connected WebSocket state feeds",
			ConstLabels: config.ConstLabels,
		}),

		feedErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "feed_errors_total",
			Help:        "Total WebSocket feed errors by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),
	}
}

// DispatchStarted implements store.Observer.
func (m *Metrics) DispatchStarted(ctx context.Context, _ store.Action) context.Context {
	return ctx
}

// DispatchFinished implements store.Observer.
func (m *Metrics) DispatchFinished(_ context.Context, action store.Action, elapsed time.Duration, err error) {
	actionType := m.typeLabel(action.Type)
	m.dispatchDuration.WithLabelValues(actionType).Observe(elapsed.Seconds())

	status := "success"
	if err != nil {
		status = "error"
		m.dispatchErrors.WithLabelValues(actionType, categorizeError(err)).Inc()
	}
	m.dispatchesTotal.WithLabelValues(actionType, status).Inc()
}

// typeLabel keeps the type label bounded; action types come from clients.
func (m *Metrics) typeLabel(actionType string) string {
	if _, ok := m.actionTypes[actionType]; ok {
		return actionType
	}
	return otherActionType
}

// SubscribersChanged implements store.SubscriberObserver.
func (m *Metrics) SubscribersChanged(count int) {
	m.subscribers.Set(float64(count))
}

// RecordFeedConnect records a WebSocket feed client connecting.
func (m *Metrics) RecordFeedConnect() {
	if m != nil {
		m.feedClients.Inc()
	}
}

// RecordFeedDisconnect records a WebSocket feed client going away.
func (m *Metrics) RecordFeedDisconnect() {
	if m != nil {
		m.feedClients.Dec()
	}
}

// RecordFeedError records a WebSocket feed error such as "write" or "dropped".
func (m *Metrics) RecordFeedError(errorType string) {
	if m != nil {
		m.feedErrors.WithLabelValues(errorType).Inc()
	}
}

// categorizeError maps dispatch failures to a small, fixed label set.
func categorizeError(err error) string {
	var sliceErr *store.SliceError
	switch {
	case errors.As(err, new(*store.ShapeError)):
		return "shape"
	case errors.Is(err, store.ErrTargetNotFound):
		return "target_not_found"
	case errors.Is(err, store.ErrUndefinedState):
		return "undefined_state"
	case errors.Is(err, store.ErrSliceStateType):
		return "state_type"
	case errors.As(err, &sliceErr):
		return "slice_reducer"
	default:
		return "reducer"
	}
}
