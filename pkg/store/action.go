package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

const (
	// ActionInit is the reserved type of the action a store dispatches to
	// itself on construction. It is exempt from the target requirement and is
	// always broadcast to every slice.
	ActionInit = "@INIT"

	// TargetAll broadcasts an action to every slice of a combined reducer.
	TargetAll = "*"
)

// Action describes an intended state change.
//
// Actions are passed by value: reducers receive their own copy and the
// combined reducer clears Target on that copy before calling a slice, so the
// caller's action is never modified. Payload is shared, not copied, and must
// be treated as read-only.
type Action struct {
	// Type discriminates the change. Required.
	Type string `json:"type"`

	// Target names the slice that should handle the action, or TargetAll.
	// Required for every type except ActionInit.
	Target string `json:"target,omitempty"`

	// Payload carries arbitrary data for the reducer.
	Payload any `json:"payload,omitempty"`
}

// Validate reports whether the action may be dispatched.
func (a Action) Validate() error {
	if a.Type == "" {
		return ErrActionHasNoType
	}
	if a.Type != ActionInit && a.Target == "" {
		return ErrActionHasNoTarget
	}
	return nil
}

// IsBroadcast reports whether the action is routed to every slice.
func (a Action) IsBroadcast() bool {
	return a.Type == ActionInit || a.Target == TargetAll
}

// String renders the action without its payload.
func (a Action) String() string {
	if a.Target == "" {
		return fmt.Sprintf("{type:%q}", a.Type)
	}
	return fmt.Sprintf("{type:%q, target:%q}", a.Type, a.Target)
}

// withoutTarget returns a copy of the action with Target cleared.
func (a Action) withoutTarget() Action {
	a.Target = ""
	return a
}

// ParseAction converts dynamically typed input into an Action.
//
// Accepted inputs are Action, *Action, map[string]any, and json.RawMessage or
// []byte holding a JSON object. Anything else, including nil, numbers,
// strings and arrays, fails with ErrActionIsNotAnObject. A missing type or
// target is not an error here; Dispatch reports those.
func ParseAction(v any) (Action, error) {
	switch in := v.(type) {
	case Action:
		return in, nil
	case *Action:
		if in == nil {
			return Action{}, notAnObject(v)
		}
		return *in, nil
	case map[string]any:
		if in == nil {
			return Action{}, notAnObject(v)
		}
		return actionFromMap(in), nil
	case json.RawMessage:
		return decodeAction(in)
	case []byte:
		return decodeAction(in)
	default:
		return Action{}, notAnObject(v)
	}
}

func decodeAction(data []byte) (Action, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil || m == nil {
		return Action{}, fmt.Errorf("%w but got %s", ErrActionIsNotAnObject, jsonKind(data))
	}
	return actionFromMap(m), nil
}

func actionFromMap(m map[string]any) Action {
	return Action{
		Type:    field(m, "type"),
		Target:  field(m, "target"),
		Payload: m["payload"],
	}
}

// field reads a string-like field; absent and null read as empty.
func field(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func notAnObject(v any) error {
	return fmt.Errorf("%w but got %s", ErrActionIsNotAnObject, kindOf(v))
}

// kindOf names the kind of v the way a JSON-minded caller would.
func kindOf(v any) string {
	if v == nil {
		return "null"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		if rv.IsNil() {
			return "null"
		}
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return "number"
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Func:
		return "function"
	default:
		return strings.ToLower(rv.Kind().String())
	}
}

func jsonKind(data []byte) string {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return "empty input"
	}
	switch c := trimmed[0]; {
	case c == 'n':
		return "null"
	case c == '[':
		return "array"
	case c == '"':
		return "string"
	case c == 't' || c == 'f':
		return "boolean"
	case c == '-' || (c >= '0' && c <= '9'):
		return "number"
	default:
		return "invalid JSON"
	}
}
