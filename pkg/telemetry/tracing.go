package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/slicestore/pkg/store"
)

// Default tracer name for store dispatch spans.
const defaultTracerName = "slicestore"

// TracingConfig configures the OpenTelemetry observer.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: "slicestore").
	TracerName string

	// TracerProvider supplies the tracer.
	// Default: the global provider from otel.GetTracerProvider().
	TracerProvider trace.TracerProvider

	// Filter determines which actions to trace.
	// Return true to trace the action, false to skip.
	// If nil, all actions are traced.
	Filter func(action store.Action) bool
}

// TracingOption configures the OpenTelemetry observer.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) TracingOption {
	return func(c *TracingConfig) {
		c.TracerProvider = tp
	}
}

// WithActionFilter sets a filter function for actions.
func WithActionFilter(filter func(action store.Action) bool) TracingOption {
	return func(c *TracingConfig) {
		c.Filter = filter
	}
}

// Tracing is a store.Observer that wraps every dispatch in a span.
//
// The span is named "store.dispatch <type>" and carries the action type,
// target and whether it was broadcast. Reducer failures are recorded on the
// span and set its status to Error.
type Tracing struct {
	tracer trace.Tracer
	filter func(action store.Action) bool
}

var _ store.Observer = (*Tracing)(nil)

// NewTracing resolves the tracer and returns the observer.
func NewTracing(opts ...TracingOption) *Tracing {
	config := TracingConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.TracerProvider == nil {
		config.TracerProvider = otel.GetTracerProvider()
	}
	return &Tracing{
		tracer: config.TracerProvider.Tracer(config.TracerName),
		filter: config.Filter,
	}
}

type tracedKey struct{}

// DispatchStarted implements store.Observer.
func (t *Tracing) DispatchStarted(ctx context.Context, action store.Action) context.Context {
	if t.filter != nil && !t.filter(action) {
		return ctx
	}
	ctx, _ = t.tracer.Start(ctx,
		fmt.Sprintf("store.dispatch %s", action.Type),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("store.action_type", action.Type),
			attribute.String("store.action_target", action.Target),
			attribute.Bool("store.broadcast", action.IsBroadcast()),
		),
	)
	return context.WithValue(ctx, tracedKey{}, true)
}

// DispatchFinished implements store.Observer.
func (t *Tracing) DispatchFinished(ctx context.Context, _ store.Action, elapsed time.Duration, err error) {
	if traced, _ := ctx.Value(tracedKey{}).(bool); !traced {
		return
	}
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.Int64("store.reduce_us", elapsed.Microseconds()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
