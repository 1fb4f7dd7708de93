package todo

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/vango-dev/slicestore/pkg/store"
)

func newTodoStore(t *testing.T) *store.Store[store.State] {
	t.Helper()
	root, err := store.Combine(store.On(SliceName, store.Slice(Reducer)))
	if err != nil {
		t.Fatalf("Combine() error: %v", err)
	}
	s, err := store.New(root, store.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return s
}

func items(t *testing.T, s *store.Store[store.State]) List {
	t.Helper()
	st, err := s.State()
	if err != nil {
		t.Fatalf("State() error: %v", err)
	}
	list, ok := store.Select[List](st, SliceName)
	if !ok {
		t.Fatalf("state %v has no %s slice", st, SliceName)
	}
	return list
}

func TestTodoLifecycle(t *testing.T) {
	s := newTodoStore(t)

	if got := items(t, s); len(got) != 0 {
		t.Fatalf("initial list = %v, want empty", got)
	}

	if err := s.Dispatch(Add("item-1", "milk")); err != nil {
		t.Fatalf("Dispatch(ADD) error: %v", err)
	}
	got := items(t, s)
	want := Item{ID: "item-1", Value: "milk", Checked: false}
	if len(got) != 1 || got[0] != want {
		t.Fatalf("after ADD = %v, want [%v]", got, want)
	}

	if err := s.Dispatch(Toggle("item-1")); err != nil {
		t.Fatalf("Dispatch(ONCLICK) error: %v", err)
	}
	if got := items(t, s); !got[0].Checked {
		t.Errorf("after ONCLICK checked = false, want true")
	}

	if err := s.Dispatch(Delete("item-1")); err != nil {
		t.Fatalf("Dispatch(DELETE) error: %v", err)
	}
	if got := items(t, s); len(got) != 0 {
		t.Errorf("after DELETE = %v, want empty", got)
	}
}

func TestTodoWirePayload(t *testing.T) {
	s := newTodoStore(t)

	err := s.DispatchValue([]byte(`{"type":"ADD","target":"toDoList","payload":{"id":"item-1","value":"milk"}}`))
	if err != nil {
		t.Fatalf("DispatchValue() error: %v", err)
	}
	if got := items(t, s); len(got) != 1 || got[0].Value != "milk" {
		t.Errorf("list = %v, want milk", got)
	}

	err = s.DispatchValue(map[string]any{"type": "ADD", "payload": map[string]any{"id": "x"}})
	if !errors.Is(err, store.ErrActionHasNoTarget) {
		t.Errorf("untargeted ADD error = %v, want ErrActionHasNoTarget", err)
	}
}

func TestTodoBroadcastTarget(t *testing.T) {
	s := newTodoStore(t)

	add := Add("item-1", "bread")
	add.Target = store.TargetAll
	if err := s.Dispatch(add); err != nil {
		t.Fatalf("Dispatch(ADD *) error: %v", err)
	}
	if got := items(t, s); len(got) != 1 {
		t.Errorf("list = %v, want one item", got)
	}
}

func TestReducer_NoOpsKeepIdentity(t *testing.T) {
	s := newTodoStore(t)
	_ = s.Dispatch(Add("item-1", "milk"))

	before, _ := s.State()
	for _, action := range []store.Action{
		Toggle("missing"),
		Delete("missing"),
		{Type: "RENAME", Target: SliceName},
	} {
		if err := s.Dispatch(action); err != nil {
			t.Fatalf("Dispatch(%v) error: %v", action, err)
		}
		after, _ := s.State()
		if !store.Same(before, after) {
			t.Errorf("Dispatch(%v) produced a new state", action)
		}
	}
}

func TestReducer_DoesNotMutate(t *testing.T) {
	prev := List{{ID: "a", Value: "milk"}, {ID: "b", Value: "eggs"}}

	toggled, _ := Reducer(prev, Toggle("a"))
	if prev[0].Checked {
		t.Error("ONCLICK modified the previous list")
	}
	if !toggled[0].Checked {
		t.Error("ONCLICK did not check the item")
	}

	deleted, _ := Reducer(prev, Delete("a"))
	if len(prev) != 2 || prev[0].ID != "a" {
		t.Errorf("DELETE modified the previous list: %v", prev)
	}
	if len(deleted) != 1 || deleted[0].ID != "b" {
		t.Errorf("DELETE = %v, want [b]", deleted)
	}

	added, _ := Reducer(prev[:1], Add("c", "tea"))
	if prev[1].ID != "b" {
		t.Errorf("ADD overwrote the backing array: %v", prev)
	}
	if len(added) != 2 || added[1].ID != "c" {
		t.Errorf("ADD = %v", added)
	}
}

func TestReducer_InvalidPayload(t *testing.T) {
	for _, action := range []store.Action{
		{Type: TypeAdd},
		{Type: TypeToggle, Payload: map[string]any{"value": "x"}},
		{Type: TypeDelete, Payload: (*Payload)(nil)},
	} {
		if _, err := Reducer(nil, action); !errors.Is(err, ErrInvalidPayload) {
			t.Errorf("Reducer(%v) error = %v, want ErrInvalidPayload", action, err)
		}
	}

	s := newTodoStore(t)
	err := s.Dispatch(store.Action{Type: TypeAdd, Target: SliceName})
	var sliceErr *store.SliceError
	if !errors.As(err, &sliceErr) || sliceErr.Slice != SliceName {
		t.Errorf("Dispatch() error = %v, want *store.SliceError for %s", err, SliceName)
	}
}

func TestList_Remaining(t *testing.T) {
	l := List{{ID: "a"}, {ID: "b", Checked: true}, {ID: "c"}}
	if got := l.Remaining(); got != 2 {
		t.Errorf("Remaining() = %d, want 2", got)
	}
}

func TestIDs(t *testing.T) {
	seq := NewSequential("")
	if got := seq.Next(); got != "item-1" {
		t.Errorf("Next() = %q, want item-1", got)
	}
	if got := seq.Next(); got != "item-2" {
		t.Errorf("Next() = %q, want item-2", got)
	}

	r := Random{Prefix: "todo"}
	a, b := r.Next(), r.Next()
	if a == b || !strings.HasPrefix(a, "todo-") {
		t.Errorf("Random ids %q, %q", a, b)
	}
}
