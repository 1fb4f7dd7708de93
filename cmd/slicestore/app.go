package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/vango-dev/slicestore/internal/config"
	"github.com/vango-dev/slicestore/pkg/store"
	"github.com/vango-dev/slicestore/pkg/telemetry"
	"github.com/vango-dev/slicestore/pkg/todo"
)

// app is a todo store wired with the observers enabled in the config.
type app struct {
	store    *store.Store[store.State]
	metrics  *telemetry.Metrics
	registry *prometheus.Registry
}

func newApp(cfg *config.Config) (*app, error) {
	root, err := store.Combine(store.On(todo.SliceName, store.Slice(todo.Reducer)))
	if err != nil {
		return nil, err
	}

	a := &app{}
	var opts []store.Option
	if cfg.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		a.metrics = telemetry.NewMetrics(
			telemetry.WithRegistry(a.registry),
			telemetry.WithNamespace(cfg.Metrics.Namespace),
			telemetry.WithActionTypes(todo.TypeAdd, todo.TypeToggle, todo.TypeDelete),
		)
		opts = append(opts, store.WithObserver(a.metrics))
	}
	if cfg.Tracing.Enabled {
		opts = append(opts, store.WithObserver(telemetry.NewTracing(
			telemetry.WithTracerName(cfg.Tracing.TracerName),
		)))
	}

	a.store, err = store.New(root, opts...)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// itemIDs returns the id generator selected by the config.
func itemIDs(cfg *config.Config) todo.IDs {
	if cfg.Todo.RandomIDs {
		return todo.Random{Prefix: cfg.Todo.IDPrefix}
	}
	return todo.NewSequential(cfg.Todo.IDPrefix)
}
