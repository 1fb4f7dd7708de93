package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/vango-dev/slicestore/pkg/store"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig  Category = "config"
	CategoryCLI     Category = "cli"
	CategoryAction  Category = "action"
	CategoryReducer Category = "reducer"
	CategoryServer  Category = "server"
)

// Error is a structured error with a code, a hint and an optional file path.
type Error struct {
	// Code is a unique error identifier (e.g., "S001").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Path is the file the error refers to, if any.
	Path string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Example shows the correct approach.
	Example string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// WithPath records the file the error refers to.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// WithExample adds an example to the error.
func (e *Error) WithExample(ex string) *Error {
	e.Example = ex
	return e
}

// WithDetail replaces the detailed explanation.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// New creates an Error from a registered error code.
func New(code string) *Error {
	template, ok := registry[code]
	if !ok {
		return &Error{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &Error{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
	}
}

// Newf creates an Error with a formatted message and no code.
func Newf(category Category, format string, args ...any) *Error {
	return &Error{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in an Error with the given code.
// An *Error is returned as is.
func FromError(err error, code string) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	return New(code).Wrap(err)
}

// FromStore translates an error returned by the store into a coded Error.
// Errors the store does not define are reported as S039.
func FromStore(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	for _, m := range storeCodes {
		if m.match(err) {
			return New(m.code).Wrap(err)
		}
	}
	return New("S039").Wrap(err)
}

type storeCode struct {
	code  string
	match func(error) bool
}

func is(target error) func(error) bool {
	return func(err error) bool { return stderrors.Is(err, target) }
}

// storeCodes is checked in order; the shape check comes before
// ErrUndefinedState because a ShapeError unwraps to it.
var storeCodes = []storeCode{
	{"S030", is(store.ErrActionIsNotAnObject)},
	{"S031", is(store.ErrActionHasNoType)},
	{"S032", is(store.ErrActionHasNoTarget)},
	{"S033", is(store.ErrStoreIsInProcess)},
	{"S034", func(err error) bool { return stderrors.As(err, new(*store.ShapeError)) }},
	{"S035", is(store.ErrTargetNotFound)},
	{"S036", is(store.ErrUndefinedState)},
	{"S037", is(store.ErrSliceStateType)},
	{"S038", is(store.ErrReducerIsNotAFunction)},
	{"S038", is(store.ErrInitialStateIsAFunction)},
	{"S038", is(store.ErrInitialStateType)},
}

// Code returns the code of err if it is an *Error, or "".
func Code(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}
