// Package todo is the todo-list slice: a reducer over a list of items and
// constructors for the actions it understands.
//
//	root, _ := store.Combine(store.On(todo.SliceName, store.Slice(todo.Reducer)))
//	s, _ := store.New(root)
//	_ = s.Dispatch(todo.Add("item-1", "milk"))
package todo

import (
	"errors"
	"fmt"
	"slices"

	"github.com/vango-dev/slicestore/pkg/store"
)

// SliceName is the name the todo list is registered under.
const SliceName = "toDoList"

// Action types handled by Reducer.
const (
	TypeAdd    = "ADD"
	TypeToggle = "ONCLICK"
	TypeDelete = "DELETE"
)

// ErrInvalidPayload is returned for an action whose payload has no item id.
var ErrInvalidPayload = errors.New("todo: payload should carry an item id")

// Item is one entry of the list.
type Item struct {
	ID      string `json:"id"`
	Value   string `json:"value"`
	Checked bool   `json:"checked"`
}

// List is the slice state. The zero value is an empty list.
type List []Item

// Payload is the payload of every todo action. Value is only used by ADD.
type Payload struct {
	ID    string `json:"id"`
	Value string `json:"value,omitempty"`
}

// Add returns an action that appends an unchecked item.
func Add(id, value string) store.Action {
	return store.Action{Type: TypeAdd, Target: SliceName, Payload: Payload{ID: id, Value: value}}
}

// Toggle returns an action that flips the checked flag of item id.
func Toggle(id string) store.Action {
	return store.Action{Type: TypeToggle, Target: SliceName, Payload: Payload{ID: id}}
}

// Delete returns an action that removes item id.
func Delete(id string) store.Action {
	return store.Action{Type: TypeDelete, Target: SliceName, Payload: Payload{ID: id}}
}

// Reducer applies a todo action. It never modifies state: every change
// returns a new list, and an action that changes nothing (unknown type,
// unknown id) returns state itself.
func Reducer(state List, action store.Action) (List, error) {
	switch action.Type {
	case TypeAdd:
		p, err := payloadOf(action)
		if err != nil {
			return state, err
		}
		return append(state[:len(state):len(state)], Item{ID: p.ID, Value: p.Value}), nil

	case TypeToggle:
		p, err := payloadOf(action)
		if err != nil {
			return state, err
		}
		i := state.Index(p.ID)
		if i < 0 {
			return state, nil
		}
		next := slices.Clone(state)
		next[i].Checked = !next[i].Checked
		return next, nil

	case TypeDelete:
		p, err := payloadOf(action)
		if err != nil {
			return state, err
		}
		if state.Index(p.ID) < 0 {
			return state, nil
		}
		return slices.DeleteFunc(slices.Clone(state), func(it Item) bool { return it.ID == p.ID }), nil

	default:
		return state, nil
	}
}

// Index returns the position of item id, or -1.
func (l List) Index(id string) int {
	return slices.IndexFunc(l, func(it Item) bool { return it.ID == id })
}

// Remaining returns the number of unchecked items.
func (l List) Remaining() int {
	n := 0
	for _, it := range l {
		if !it.Checked {
			n++
		}
	}
	return n
}

// payloadOf accepts Payload, *Payload, or a decoded JSON object.
func payloadOf(action store.Action) (Payload, error) {
	var p Payload
	switch v := action.Payload.(type) {
	case Payload:
		p = v
	case *Payload:
		if v != nil {
			p = *v
		}
	case map[string]any:
		p.ID = stringField(v["id"])
		p.Value = stringField(v["value"])
	}
	if p.ID == "" {
		return p, fmt.Errorf("%w (action %s)", ErrInvalidPayload, action.Type)
	}
	return p, nil
}

func stringField(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}
