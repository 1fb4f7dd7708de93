package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// counter is a minimal reducer: INCREMENT adds the int payload, FAIL errors.
func counter(state int, action Action) (int, error) {
	switch action.Type {
	case ActionInit:
		if state == 0 {
			return 1, nil
		}
		return state, nil
	case "INCREMENT":
		n, _ := action.Payload.(int)
		return state + n, nil
	case "FAIL":
		return state + 100, errors.New("boom")
	case "PANIC":
		panic("reducer exploded")
	default:
		return state, nil
	}
}

func newCounter(t *testing.T, opts ...Option) *Store[int] {
	t.Helper()
	opts = append([]Option{WithLogger(discardLogger)}, opts...)
	s, err := New(counter, opts...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return s
}

func mustState[S any](t *testing.T, s *Store[S]) S {
	t.Helper()
	st, err := s.State()
	if err != nil {
		t.Fatalf("State() error: %v", err)
	}
	return st
}

func TestNew_RejectsNilReducer(t *testing.T) {
	_, err := New[int](nil)
	if !errors.Is(err, ErrReducerIsNotAFunction) {
		t.Errorf("New(nil) error = %v, want ErrReducerIsNotAFunction", err)
	}
}

func TestNew_RejectsFunctionInitialState(t *testing.T) {
	_, err := New(func(s any, a Action) (any, error) { return s, nil },
		WithInitialState(func() {}))
	if !errors.Is(err, ErrInitialStateIsAFunction) {
		t.Errorf("New() error = %v, want ErrInitialStateIsAFunction", err)
	}

	_, err = New(counter, WithInitialState(counter))
	if !errors.Is(err, ErrInitialStateIsAFunction) {
		t.Errorf("New() with reducer as state error = %v, want ErrInitialStateIsAFunction", err)
	}
}

func TestNew_RejectsMistypedInitialState(t *testing.T) {
	_, err := New(counter, WithInitialState("five"))
	if !errors.Is(err, ErrInitialStateType) {
		t.Errorf("New() error = %v, want ErrInitialStateType", err)
	}
}

func TestNew_ConvertsInitialState(t *testing.T) {
	s, err := New(func(st State, a Action) (State, error) { return st, nil },
		WithLogger(discardLogger),
		WithInitialState(map[string]any{"todos": "x"}))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if got := mustState(t, s); got["todos"] != "x" {
		t.Errorf("State() = %v, want todos=x", got)
	}

	_, err = New(counter, WithInitialState(int32(5)))
	if !errors.Is(err, ErrInitialStateType) {
		t.Errorf("New() with int32 state error = %v, want ErrInitialStateType", err)
	}
}

func TestNew_DispatchesInit(t *testing.T) {
	var seen []Action
	reducer := func(state int, action Action) (int, error) {
		seen = append(seen, action)
		return counter(state, action)
	}

	s, err := New(reducer, WithLogger(discardLogger))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if len(seen) != 1 || seen[0].Type != ActionInit || seen[0].Target != "" {
		t.Fatalf("reducer saw %v, want a single untargeted %s", seen, ActionInit)
	}
	if got := mustState(t, s); got != 1 {
		t.Errorf("State() = %d, want reducer default 1", got)
	}
}

func TestNew_InitialStateIsPassedToInit(t *testing.T) {
	s := newCounter(t, WithInitialState(41))
	if got := mustState(t, s); got != 41 {
		t.Errorf("State() = %d, want 41", got)
	}

	if err := s.Dispatch(Action{Type: ActionInit}); err != nil {
		t.Fatalf("Dispatch(init) error: %v", err)
	}
	if got := mustState(t, s); got != 41 {
		t.Errorf("State() after second init = %d, want 41", got)
	}
}

func TestNew_InitFailure(t *testing.T) {
	_, err := New(func(int, Action) (int, error) { return 0, errors.New("no defaults") },
		WithLogger(discardLogger))
	if err == nil || err.Error() != "no defaults" {
		t.Errorf("New() error = %v, want reducer error", err)
	}
}

func TestDispatch_Validation(t *testing.T) {
	s := newCounter(t)

	tests := []struct {
		name   string
		action Action
		want   error
	}{
		{"no type", Action{Target: "counter"}, ErrActionHasNoType},
		{"no target", Action{Type: "ADD", Payload: map[string]any{"id": "1"}}, ErrActionHasNoTarget},
		{"init needs no target", Action{Type: ActionInit}, nil},
		{"broadcast target", Action{Type: "ADD", Target: TargetAll}, nil},
		{"named target", Action{Type: "INCREMENT", Target: "counter", Payload: 1}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Dispatch(tt.action)
			if !errors.Is(err, tt.want) {
				t.Errorf("Dispatch(%v) error = %v, want %v", tt.action, err, tt.want)
			}
		})
	}
}

func TestDispatchValue_NotAnObject(t *testing.T) {
	s := newCounter(t)

	inputs := []any{nil, 42, 3.5, "ADD", true, []any{"ADD"}, []string{}, (*Action)(nil), rawJSON(`[1,2]`), rawJSON(`null`)}
	for _, in := range inputs {
		if err := s.DispatchValue(in); !errors.Is(err, ErrActionIsNotAnObject) {
			t.Errorf("DispatchValue(%#v) error = %v, want ErrActionIsNotAnObject", in, err)
		}
	}

	if err := s.DispatchValue(map[string]any{"type": "INCREMENT", "target": "counter"}); err != nil {
		t.Errorf("DispatchValue(map) error = %v, want nil", err)
	}
	if err := s.DispatchValue(map[string]any{"target": "counter"}); !errors.Is(err, ErrActionHasNoType) {
		t.Errorf("DispatchValue(map without type) error = %v, want ErrActionHasNoType", err)
	}
}

func TestDispatch_UpdatesStateAndNotifies(t *testing.T) {
	s := newCounter(t)

	calls := 0
	var observed int
	s.Subscribe(func() {
		calls++
		observed = mustState(t, s)
	})

	if err := s.Dispatch(Action{Type: "INCREMENT", Target: "counter", Payload: 4}); err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}
	if calls != 1 {
		t.Errorf("listener calls = %d, want 1", calls)
	}
	if observed != 5 {
		t.Errorf("listener observed %d, want 5", observed)
	}
}

func TestDispatch_ReducerErrorStillBroadcasts(t *testing.T) {
	s := newCounter(t)

	calls := 0
	s.Subscribe(func() { calls++ })

	err := s.Dispatch(Action{Type: "FAIL", Target: "counter"})
	if err == nil || err.Error() != "boom" {
		t.Fatalf("Dispatch() error = %v, want boom", err)
	}
	if calls != 1 {
		t.Errorf("listener calls = %d, want 1", calls)
	}
	if got := mustState(t, s); got != 1 {
		t.Errorf("State() = %d, want unchanged 1", got)
	}

	// The in-flight flag was released.
	if err := s.Dispatch(Action{Type: "INCREMENT", Target: "counter", Payload: 1}); err != nil {
		t.Errorf("Dispatch() after failure error = %v", err)
	}
}

func TestDispatch_ReducerPanicStillBroadcasts(t *testing.T) {
	s := newCounter(t)

	calls := 0
	s.Subscribe(func() { calls++ })

	func() {
		defer func() {
			if r := recover(); r != "reducer exploded" {
				t.Errorf("recovered %v, want reducer panic", r)
			}
		}()
		_ = s.Dispatch(Action{Type: "PANIC", Target: "counter"})
	}()

	if calls != 1 {
		t.Errorf("listener calls = %d, want 1", calls)
	}
	if err := s.Dispatch(Action{Type: "INCREMENT", Target: "counter", Payload: 1}); err != nil {
		t.Errorf("Dispatch() after panic error = %v", err)
	}
}

func TestDispatch_ReentrantFromReducer(t *testing.T) {
	var s *Store[int]
	var inner error
	var readErr error
	reducer := func(state int, action Action) (int, error) {
		if action.Type == "NESTED" {
			inner = s.Dispatch(Action{Type: "INCREMENT", Target: "counter", Payload: 1})
			_, readErr = s.State()
		}
		return state, nil
	}

	var err error
	s, err = New(reducer, WithLogger(discardLogger))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if err := s.Dispatch(Action{Type: "NESTED", Target: "counter"}); err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}
	if !errors.Is(inner, ErrStoreIsInProcess) {
		t.Errorf("nested Dispatch() error = %v, want ErrStoreIsInProcess", inner)
	}
	if !errors.Is(readErr, ErrStoreIsInProcess) {
		t.Errorf("State() inside reducer error = %v, want ErrStoreIsInProcess", readErr)
	}
}

func TestDispatch_ReentrantFromListener(t *testing.T) {
	s := newCounter(t)

	var inner, readErr error
	s.Subscribe(func() {
		inner = s.Dispatch(Action{Type: "INCREMENT", Target: "counter", Payload: 1})
		_, readErr = s.State()
	})

	if err := s.Dispatch(Action{Type: "INCREMENT", Target: "counter", Payload: 1}); err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}
	if !errors.Is(inner, ErrStoreIsInProcess) {
		t.Errorf("Dispatch() from listener error = %v, want ErrStoreIsInProcess", inner)
	}
	if readErr != nil {
		t.Errorf("State() from listener error = %v, want nil", readErr)
	}
	if got := mustState(t, s); got != 2 {
		t.Errorf("State() = %d, want 2", got)
	}
}

func TestSubscribe_OrderAndUnsubscribe(t *testing.T) {
	s := newCounter(t)

	var order []string
	unsubA := s.Subscribe(func() { order = append(order, "a") })
	s.Subscribe(func() { order = append(order, "b") })
	s.Subscribe(func() { order = append(order, "c") })

	increment := Action{Type: "INCREMENT", Target: "counter", Payload: 1}
	_ = s.Dispatch(increment)
	if got := strings.Join(order, ""); got != "abc" {
		t.Errorf("broadcast order = %q, want %q", got, "abc")
	}

	unsubA()
	unsubA()
	if got := s.SubscriberCount(); got != 2 {
		t.Errorf("SubscriberCount() = %d, want 2", got)
	}

	order = nil
	_ = s.Dispatch(increment)
	if got := strings.Join(order, ""); got != "bc" {
		t.Errorf("broadcast order after unsubscribe = %q, want %q", got, "bc")
	}
}

func TestSubscribe_SameFunctionTwice(t *testing.T) {
	s := newCounter(t)

	calls := 0
	listener := func() { calls++ }
	unsub1 := s.Subscribe(listener)
	s.Subscribe(listener)

	unsub1()
	_ = s.Dispatch(Action{Type: "INCREMENT", Target: "counter", Payload: 1})
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (only the first registration removed)", calls)
	}
}

func TestSubscribe_DuringBroadcast(t *testing.T) {
	s := newCounter(t)

	late := 0
	added := false
	s.Subscribe(func() {
		if !added {
			added = true
			s.Subscribe(func() { late++ })
		}
	})

	increment := Action{Type: "INCREMENT", Target: "counter", Payload: 1}
	_ = s.Dispatch(increment)
	if late != 0 {
		t.Errorf("late listener ran %d times in the pass it was added, want 0", late)
	}
	_ = s.Dispatch(increment)
	if late != 1 {
		t.Errorf("late listener calls = %d, want 1", late)
	}
}

func TestBroadcast_PanickingListenerAbortsRest(t *testing.T) {
	s := newCounter(t)

	after := 0
	unsub := s.Subscribe(func() { panic("listener failed") })
	s.Subscribe(func() { after++ })

	func() {
		defer func() { _ = recover() }()
		_ = s.Dispatch(Action{Type: "INCREMENT", Target: "counter", Payload: 1})
	}()

	if after != 0 {
		t.Errorf("listener after the panicking one ran %d times, want 0", after)
	}
	unsub()
	if err := s.Dispatch(Action{Type: ActionInit}); err != nil {
		t.Errorf("Dispatch() after listener panic error = %v", err)
	}
	if after != 1 {
		t.Errorf("listener after the panicking one ran %d times, want 1", after)
	}
}

func TestBroadcast_UnsubscribedByEarlierListener(t *testing.T) {
	s := newCounter(t)

	var order []string
	var unsubB func()
	s.Subscribe(func() {
		order = append(order, "a")
		unsubB()
	})
	unsubB = s.Subscribe(func() { order = append(order, "b") })
	s.Subscribe(func() { order = append(order, "c") })

	_ = s.Dispatch(Action{Type: "INCREMENT", Target: "counter", Payload: 1})
	if got := strings.Join(order, ""); got != "ac" {
		t.Errorf("broadcast order = %q, want %q", got, "ac")
	}
}

type panickingObserver struct{ armed bool }

func (p *panickingObserver) DispatchStarted(ctx context.Context, action Action) context.Context {
	if p.armed {
		p.armed = false
		panic("observer failed")
	}
	return ctx
}

func (p *panickingObserver) DispatchFinished(context.Context, Action, time.Duration, error) {}

func TestDispatch_ObserverPanicReleasesStore(t *testing.T) {
	obs := &panickingObserver{}
	s := newCounter(t, WithObserver(obs))

	notified := 0
	s.Subscribe(func() { notified++ })

	obs.armed = true
	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Error("Dispatch() did not re-raise the observer panic")
			}
		}()
		_ = s.Dispatch(Action{Type: "INCREMENT", Target: "counter", Payload: 1})
	}()

	if notified != 1 {
		t.Errorf("listener calls = %d, want 1", notified)
	}
	if err := s.Dispatch(Action{Type: "INCREMENT", Target: "counter", Payload: 1}); err != nil {
		t.Fatalf("Dispatch() after observer panic error = %v", err)
	}
	if got := mustState(t, s); got != 2 {
		t.Errorf("State() = %d, want 2", got)
	}
}

func TestNilListenerIsIgnored(t *testing.T) {
	s := newCounter(t)
	unsub := s.Subscribe(nil)
	unsub()
	if got := s.SubscriberCount(); got != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", got)
	}
}

type recordingObserver struct {
	started  []Action
	finished []error
	elapsed  []time.Duration
	counts   []int
}

type ctxKey struct{}

func (r *recordingObserver) DispatchStarted(ctx context.Context, action Action) context.Context {
	r.started = append(r.started, action)
	return context.WithValue(ctx, ctxKey{}, action.Type)
}

func (r *recordingObserver) DispatchFinished(ctx context.Context, action Action, elapsed time.Duration, err error) {
	if ctx.Value(ctxKey{}) != action.Type {
		panic("observer context was not propagated")
	}
	r.finished = append(r.finished, err)
	r.elapsed = append(r.elapsed, elapsed)
}

func (r *recordingObserver) SubscribersChanged(count int) {
	r.counts = append(r.counts, count)
}

func TestObserver(t *testing.T) {
	obs := &recordingObserver{}
	s := newCounter(t, WithObserver(obs), WithObserver(nil))

	unsub := s.Subscribe(func() {})
	_ = s.Dispatch(Action{Type: "FAIL", Target: "counter"})
	_ = s.Dispatch(Action{Target: "counter"}) // rejected before the observer
	unsub()

	if len(obs.started) != 2 || obs.started[0].Type != ActionInit || obs.started[1].Type != "FAIL" {
		t.Errorf("started = %v, want [init FAIL]", obs.started)
	}
	if len(obs.finished) != 2 || obs.finished[0] != nil || obs.finished[1] == nil {
		t.Errorf("finished = %v, want [nil boom]", obs.finished)
	}
	if len(obs.counts) != 2 || obs.counts[0] != 1 || obs.counts[1] != 0 {
		t.Errorf("subscriber counts = %v, want [1 0]", obs.counts)
	}
}

func TestStore_LogsFailures(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := newCounter(t, WithLogger(logger))

	_ = s.Dispatch(Action{Type: "FAIL", Target: "counter"})

	out := buf.String()
	if !strings.Contains(out, "msg=dispatch") {
		t.Errorf("log output %q missing debug dispatch line", out)
	}
	if !strings.Contains(out, `msg="dispatch failed"`) || !strings.Contains(out, "error=boom") {
		t.Errorf("log output %q missing failure line", out)
	}
}

func rawJSON(s string) []byte { return []byte(s) }
