package store

import (
	"errors"
	"fmt"
	"strings"
)

// Construction errors.
var (
	// ErrReducerIsNotAFunction is returned by New when the reducer is nil.
	ErrReducerIsNotAFunction = errors.New("store: reducer should be a function")

	// ErrInitialStateIsAFunction is returned by New when the initial state is
	// a function, which almost always means a reducer was passed by mistake.
	ErrInitialStateIsAFunction = errors.New("store: initial state couldn't be a function")

	// ErrInitialStateType is returned by New when the initial state does not
	// have the store's state type.
	ErrInitialStateType = errors.New("store: initial state has the wrong type")
)

// Dispatch errors.
var (
	// ErrActionIsNotAnObject is returned by ParseAction and DispatchValue for
	// input that is not a structured value: nil, numbers, strings, arrays.
	ErrActionIsNotAnObject = errors.New("store: action should be an object")

	// ErrActionHasNoType is returned when an action has an empty Type.
	ErrActionHasNoType = errors.New("store: action should have a type")

	// ErrActionHasNoTarget is returned when an action other than ActionInit
	// has an empty Target.
	ErrActionHasNoTarget = errors.New("store: action should have a target")

	// ErrStoreIsInProcess is returned by Dispatch while another dispatch is in
	// flight, and by State while the reducer is running.
	ErrStoreIsInProcess = errors.New("store: reducers are busy updating, dispatch again once the current one returns")
)

// Combination and routing errors.
var (
	// ErrUndefinedState is returned when a slice reducer produces no state.
	ErrUndefinedState = errors.New("store: reducer returned undefined state")

	// ErrTargetNotFound is returned when a targeted action names a slice that
	// was not registered.
	ErrTargetNotFound = errors.New("store: target not found in reducers")

	// ErrSliceStateType is returned by a typed slice reducer when the stored
	// slice state does not have the reducer's state type.
	ErrSliceStateType = errors.New("store: slice state has the wrong type")

	// ErrInvalidSliceName is reported for empty slice names and names that
	// collide with TargetAll.
	ErrInvalidSliceName = errors.New("store: invalid slice name")
)

// SliceError reports a failure of one slice reducer while routing an action.
type SliceError struct {
	// Slice is the name of the slice whose reducer failed.
	Slice string

	// ActionType is the type of the action being reduced.
	ActionType string

	// Err is the underlying failure, ErrUndefinedState or the reducer's error.
	Err error
}

// Error implements the error interface.
func (e *SliceError) Error() string {
	if errors.Is(e.Err, ErrUndefinedState) {
		return fmt.Sprintf("store: reducer %s returns undefined for action's type %s", e.Slice, e.ActionType)
	}
	return fmt.Sprintf("store: reducer %s failed for action's type %s: %v", e.Slice, e.ActionType, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *SliceError) Unwrap() error {
	return e.Err
}

// ShapeViolation describes one slice reducer that failed a shape probe.
type ShapeViolation struct {
	// Slice is the slice name, or the offending name for ErrInvalidSliceName.
	Slice string

	// Action is the probe action that exposed the violation.
	Action Action

	// Err is ErrUndefinedState, ErrInvalidSliceName or the reducer's error.
	Err error
}

// String returns a one-line description of the violation.
func (v ShapeViolation) String() string {
	if errors.Is(v.Err, ErrInvalidSliceName) {
		return fmt.Sprintf("slice name %q is reserved or empty", v.Slice)
	}
	if errors.Is(v.Err, ErrUndefinedState) {
		return fmt.Sprintf("reducer for key %s returns undefined for action %s", v.Slice, v.Action)
	}
	return fmt.Sprintf("reducer for key %s failed for action %s: %v", v.Slice, v.Action, v.Err)
}

// ShapeError collects every ShapeViolation found while validating a set of
// slice reducers.
type ShapeError struct {
	Violations []ShapeViolation
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	if len(e.Violations) == 1 {
		return "store: " + e.Violations[0].String()
	}
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("store: %d slice reducers are malformed: %s", len(e.Violations), strings.Join(parts, "; "))
}

// Unwrap exposes every violation's cause to errors.Is/As.
func (e *ShapeError) Unwrap() []error {
	errs := make([]error, len(e.Violations))
	for i, v := range e.Violations {
		errs[i] = v.Err
	}
	return errs
}
