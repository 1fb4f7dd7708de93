package store

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// Reducer computes the next state from the previous state and an action.
//
// Reducers must be deterministic and free of side effects, and must return
// the previous state unchanged for action types they do not recognize.
type Reducer[S any] func(state S, action Action) (S, error)

// Dispatch phases. Only one dispatch per store can be outside phaseIdle.
const (
	phaseIdle int32 = iota
	phaseReducing
	phaseNotifying
)

// Store holds one state value of type S and serializes every update through
// a single reducer.
//
// A Store is created with New, which immediately dispatches ActionInit so the
// state reflects the reducer's defaults before New returns. Dispatch is not
// re-entrant: calling it from a reducer, a listener, or another goroutine while
// a dispatch is in flight fails with ErrStoreIsInProcess.
type Store[S any] struct {
	reducer Reducer[S]

	// mu guards state and listeners. It is never held while user code runs.
	mu        sync.RWMutex
	state     S
	listeners []*subscription

	// phase is the in-flight flag.
	phase atomic.Int32

	logger    *slog.Logger
	observers observers
}

type subscription struct {
	id     uint64
	fn     func()
	active atomic.Bool
}

type config struct {
	initial    any
	hasInitial bool
	logger     *slog.Logger
	observers  observers
}

// Option configures a Store.
type Option func(*config)

// WithInitialState seeds the store before the initialization dispatch.
// The value must have the store's state type, or a type convertible to it
// (a map[string]any for a Store[State]), and must not be a function.
func WithInitialState(state any) Option {
	return func(c *config) {
		c.initial = state
		c.hasInitial = true
	}
}

// WithLogger sets the logger used for dispatch diagnostics.
// Default: slog.Default() tagged with component=store.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithObserver registers an Observer. Observers are started in registration
// order and finished in reverse order.
func WithObserver(o Observer) Option {
	return func(c *config) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}

// New creates a store around reducer and dispatches ActionInit.
//
// If the reducer fails the initialization dispatch, New returns that error.
func New[S any](reducer Reducer[S], opts ...Option) (*Store[S], error) {
	if reducer == nil {
		return nil, ErrReducerIsNotAFunction
	}

	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default().With("component", "store")
	}

	s := &Store[S]{
		reducer:   reducer,
		logger:    cfg.logger,
		observers: cfg.observers,
	}

	if cfg.hasInitial && cfg.initial != nil {
		if reflect.TypeOf(cfg.initial).Kind() == reflect.Func {
			return nil, ErrInitialStateIsAFunction
		}
		initial, err := convertState[S](cfg.initial)
		if err != nil {
			return nil, err
		}
		s.state = initial
	}

	if err := s.Dispatch(Action{Type: ActionInit}); err != nil {
		return nil, err
	}
	return s, nil
}

func convertState[S any](v any) (S, error) {
	if typed, ok := v.(S); ok {
		return typed, nil
	}
	var zero S
	want := reflect.TypeFor[S]()
	rv := reflect.ValueOf(v)
	if want.Kind() == reflect.Interface || rv.Kind() != want.Kind() || !rv.Type().ConvertibleTo(want) {
		return zero, fmt.Errorf("%w: have %T, want %v", ErrInitialStateType, v, want)
	}
	return rv.Convert(want).Interface().(S), nil
}

// Dispatch runs the reducer with action and notifies subscribers.
// It is DispatchContext with a background context.
func (s *Store[S]) Dispatch(action Action) error {
	return s.DispatchContext(context.Background(), action)
}

// DispatchValue parses v with ParseAction and dispatches the result.
func (s *Store[S]) DispatchValue(v any) error {
	action, err := ParseAction(v)
	if err != nil {
		return err
	}
	return s.Dispatch(action)
}

// DispatchContext runs the reducer with action and notifies subscribers.
//
// The context is handed to observers (for tracing); it does not cancel the
// reducer. Once the action is accepted, the in-flight flag is cleared and
// every subscriber is notified on every exit path, whether the reducer
// succeeded, returned an error, or panicked. A reducer error leaves the state
// unchanged and is returned after the broadcast; a reducer panic is re-raised
// after the broadcast.
func (s *Store[S]) DispatchContext(ctx context.Context, action Action) (err error) {
	if err := action.Validate(); err != nil {
		return err
	}
	if !s.phase.CompareAndSwap(phaseIdle, phaseReducing) {
		return ErrStoreIsInProcess
	}

	start := time.Now()
	defer func() {
		r := recover()
		failure := err
		if r != nil {
			failure = fmt.Errorf("store: reducer panicked: %v", r)
		}
		elapsed := time.Since(start)

		s.phase.Store(phaseNotifying)
		defer s.phase.Store(phaseIdle)

		s.observers.finished(ctx, action, elapsed, failure)
		s.logDispatch(action, elapsed, failure)
		s.broadcast()

		if r != nil {
			panic(r)
		}
	}()

	ctx = s.observers.started(ctx, action)

	s.mu.RLock()
	prev := s.state
	s.mu.RUnlock()

	next, err := s.reducer(prev, action)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.state = next
	s.mu.Unlock()
	return nil
}

// State returns the current state. It fails with ErrStoreIsInProcess while
// the reducer is running. Listeners may call State.
//
// The returned value is shared with the store and must not be mutated.
func (s *Store[S]) State() (S, error) {
	if s.phase.Load() == phaseReducing {
		var zero S
		return zero, ErrStoreIsInProcess
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, nil
}

// Subscribe registers listener to be called after every dispatch and returns
// a function that removes it. Calling the returned function more than once
// is a no-op. Listeners run in registration order; one registered during a
// broadcast is first called on the next dispatch.
func (s *Store[S]) Subscribe(listener func()) (unsubscribe func()) {
	if listener == nil {
		return func() {}
	}

	id := nextID()
	sub := &subscription{id: id, fn: listener}
	sub.active.Store(true)
	s.mu.Lock()
	s.listeners = append(s.listeners, sub)
	count := len(s.listeners)
	s.mu.Unlock()
	s.observers.subscribersChanged(count)

	var once sync.Once
	return func() {
		once.Do(func() { s.unsubscribe(id) })
	}
}

// SubscriberCount returns the number of registered listeners.
func (s *Store[S]) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listeners)
}

func (s *Store[S]) unsubscribe(id uint64) {
	s.mu.Lock()
	i := slices.IndexFunc(s.listeners, func(sub *subscription) bool { return sub.id == id })
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.listeners[i].active.Store(false)
	s.listeners = slices.Delete(s.listeners, i, i+1)
	count := len(s.listeners)
	s.mu.Unlock()
	s.observers.subscribersChanged(count)
}

// broadcast calls every listener registered when it starts, skipping those
// unsubscribed by an earlier listener in the same pass. A panicking listener
// aborts the rest of the broadcast.
func (s *Store[S]) broadcast() {
	s.mu.RLock()
	subs := slices.Clone(s.listeners)
	s.mu.RUnlock()

	for _, sub := range subs {
		if !sub.active.Load() {
			continue
		}
		sub.fn()
	}
}

func (s *Store[S]) logDispatch(action Action, elapsed time.Duration, err error) {
	if err != nil {
		s.logger.Warn("dispatch failed",
			"type", action.Type,
			"target", action.Target,
			"duration", elapsed,
			"error", err,
		)
		return
	}
	s.logger.Debug("dispatch",
		"type", action.Type,
		"target", action.Target,
		"duration", elapsed,
	)
}
