package store

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
)

// State is the state of a combined reducer: slice name to slice state.
// A missing or nil entry is an undefined slice state.
type State map[string]any

// Select returns the state of slice name as S. It reports false if the slice
// is undefined or holds a different type.
func Select[S any](st State, name string) (S, bool) {
	v, ok := st[name].(S)
	return v, ok
}

// SliceReducer reduces one slice of a combined State. The state is nil when
// the slice is undefined; returning nil means the reducer produced no state,
// which the combined reducer rejects with ErrUndefinedState.
type SliceReducer func(state any, action Action) (any, error)

// Slice adapts a typed reducer to a SliceReducer. An undefined slice state is
// passed to r as the zero value of S, so a typed reducer supplies its default
// by handling the zero value. A stored state of another type fails with
// ErrSliceStateType.
//
// A nil pointer, map, channel, function or interface returned by r is an
// undefined state. A nil slice is not: it is an empty list.
func Slice[S any](r Reducer[S]) SliceReducer {
	if r == nil {
		return nil
	}
	return func(state any, action Action) (any, error) {
		var prev S
		if state != nil {
			typed, ok := state.(S)
			if !ok {
				return nil, fmt.Errorf("%w: have %T, want %T", ErrSliceStateType, state, prev)
			}
			prev = typed
		}
		next, err := r(prev, action)
		if err != nil {
			return nil, err
		}
		if isNilRef(next) {
			return nil, nil
		}
		return next, nil
	}
}

func isNilRef(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Invalid:
		return true
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}

// SliceEntry binds a slice name to its reducer.
type SliceEntry struct {
	Name    string
	Reducer SliceReducer
}

// On returns a SliceEntry for name.
func On(name string, r SliceReducer) SliceEntry {
	return SliceEntry{Name: name, Reducer: r}
}

// Slices builds entries from a map. Map iteration order is random, so the
// entries are sorted by name to give broadcasts a stable order; use On to
// control the order explicitly.
func Slices(m map[string]SliceReducer) []SliceEntry {
	entries := make([]SliceEntry, 0, len(m))
	for _, name := range slices.Sorted(maps.Keys(m)) {
		entries = append(entries, SliceEntry{Name: name, Reducer: m[name]})
	}
	return entries
}

// combination is the registry behind a combined reducer. It is fixed once
// built.
type combination struct {
	entries  []SliceEntry
	index    map[string]int
	shapeErr error
}

// newCombination drops entries without a reducer. A repeated name keeps its
// first position and its last reducer.
func newCombination(entries []SliceEntry) *combination {
	c := &combination{index: make(map[string]int, len(entries))}
	for _, e := range entries {
		if e.Reducer == nil {
			continue
		}
		if i, ok := c.index[e.Name]; ok {
			c.entries[i].Reducer = e.Reducer
			continue
		}
		c.index[e.Name] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	return c
}

// Combine builds a root reducer from named slice reducers.
//
// Entries with a nil reducer are dropped. The remaining slices are validated
// with CheckShape before Combine returns; if any slice fails, Combine returns
// a *ShapeError and no reducer.
//
// The root reducer broadcasts ActionInit and TargetAll actions to every slice
// in entry order and routes any other action to the slice named by its
// Target. Slice reducers never see the Target. When no slice state changed
// (see Same), the root reducer returns its input State unchanged; otherwise
// it returns a new State and leaves the input untouched.
//
// Only a missing or nil slice state counts as undefined. Zero values such as
// 0, "" or false are ordinary states and are passed to the slice reducer
// as they are.
func Combine(entries ...SliceEntry) (Reducer[State], error) {
	c := newCombination(entries)
	if violations := CheckShape(c.entries...); len(violations) > 0 {
		return nil, &ShapeError{Violations: violations}
	}
	return c.reduce, nil
}

// CombineDeferred is Combine with deferred failure: shape violations found at
// combination time are not returned but recorded, and every call of the
// returned reducer fails with that same *ShapeError. The check is never
// repeated.
func CombineDeferred(entries ...SliceEntry) Reducer[State] {
	c := newCombination(entries)
	if violations := CheckShape(c.entries...); len(violations) > 0 {
		c.shapeErr = &ShapeError{Violations: violations}
	}
	return c.reduce
}

func (c *combination) reduce(state State, action Action) (State, error) {
	if c.shapeErr != nil {
		return nil, c.shapeErr
	}
	if state == nil {
		state = State{}
	}
	if action.IsBroadcast() {
		return c.broadcast(state, action.withoutTarget())
	}
	return c.route(state, action)
}

func (c *combination) broadcast(state State, action Action) (State, error) {
	results := make([]any, len(c.entries))
	changed := false
	for i, e := range c.entries {
		prev := state[e.Name]
		next, err := reduceSlice(e, prev, action)
		if err != nil {
			return nil, err
		}
		changed = changed || !Same(prev, next)
		results[i] = next
	}
	if !changed {
		return state, nil
	}

	next := maps.Clone(state)
	for i, e := range c.entries {
		next[e.Name] = results[i]
	}
	return next, nil
}

func (c *combination) route(state State, action Action) (State, error) {
	i, ok := c.index[action.Target]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, action.Target)
	}
	e := c.entries[i]

	prev := state[e.Name]
	next, err := reduceSlice(e, prev, action.withoutTarget())
	if err != nil {
		return nil, err
	}
	if Same(prev, next) {
		return state, nil
	}

	updated := maps.Clone(state)
	updated[e.Name] = next
	return updated, nil
}

func reduceSlice(e SliceEntry, prev any, action Action) (any, error) {
	next, err := e.Reducer(prev, action)
	if err != nil {
		return nil, &SliceError{Slice: e.Name, ActionType: action.Type, Err: err}
	}
	if next == nil {
		return nil, &SliceError{Slice: e.Name, ActionType: action.Type, Err: ErrUndefinedState}
	}
	return next, nil
}
