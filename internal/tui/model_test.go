package tui

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vango-dev/slicestore/pkg/store"
	"github.com/vango-dev/slicestore/pkg/todo"
)

func newModel(t *testing.T) (*Model, *store.Store[store.State]) {
	t.Helper()
	root, err := store.Combine(store.On(todo.SliceName, store.Slice(todo.Reducer)))
	if err != nil {
		t.Fatalf("Combine() error: %v", err)
	}
	st, err := store.New(root, store.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	m := New(st, todo.NewSequential(""))
	t.Cleanup(m.Close)
	return m, st
}

func typeText(m *Model, s string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func press(m *Model, k tea.KeyType) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: k})
	return cmd
}

func TestModel_AddToggleDelete(t *testing.T) {
	m, st := newModel(t)

	typeText(m, "milk")
	press(m, tea.KeyEnter)
	typeText(m, "eggs")
	press(m, tea.KeyEnter)

	items := m.Items()
	if len(items) != 2 || items[0].Value != "milk" || items[1].ID != "item-2" {
		t.Fatalf("items = %v, want milk and eggs", items)
	}
	if m.input.Value() != "" {
		t.Errorf("input = %q after add, want empty", m.input.Value())
	}

	press(m, tea.KeyUp)
	press(m, tea.KeyEnter)
	if got := m.Items(); !got[0].Checked || got[1].Checked {
		t.Errorf("after toggle = %v, want milk checked", got)
	}

	press(m, tea.KeyCtrlD)
	got := m.Items()
	if len(got) != 1 || got[0].Value != "eggs" {
		t.Errorf("after delete = %v, want [eggs]", got)
	}

	state, _ := st.State()
	if list, _ := store.Select[todo.List](state, todo.SliceName); len(list) != 1 {
		t.Errorf("store list = %v, want one item", list)
	}
}

func TestModel_CursorBounds(t *testing.T) {
	m, _ := newModel(t)
	press(m, tea.KeyUp)
	press(m, tea.KeyDown)
	if m.cursor != 0 {
		t.Errorf("cursor = %d on an empty list, want 0", m.cursor)
	}

	press(m, tea.KeyEnter)
	if len(m.Items()) != 0 || m.Err() != nil {
		t.Errorf("enter on an empty list: items %v, err %v", m.Items(), m.Err())
	}

	typeText(m, "   ")
	press(m, tea.KeyEnter)
	if len(m.Items()) != 0 {
		t.Errorf("blank input added %v", m.Items())
	}
}

func TestModel_ExternalDispatch(t *testing.T) {
	m, st := newModel(t)
	cmd := m.waitForChange()

	if err := st.Dispatch(todo.Add("ext-1", "from elsewhere")); err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}

	msg := cmd()
	if _, ok := msg.(stateChangedMsg); !ok {
		t.Fatalf("waitForChange() = %T, want stateChangedMsg", msg)
	}
	if _, next := m.Update(msg); next == nil {
		t.Error("stateChangedMsg should re-arm the listener")
	}
	if got := m.Items(); len(got) != 1 || got[0].ID != "ext-1" {
		t.Errorf("items = %v, want the external item", got)
	}
}

func TestModel_DispatchErrorShown(t *testing.T) {
	m, _ := newModel(t)

	if m.dispatch(store.Action{Type: todo.TypeAdd, Target: todo.SliceName}) {
		t.Fatal("dispatch without a payload succeeded")
	}
	if !errors.Is(m.Err(), todo.ErrInvalidPayload) {
		t.Fatalf("Err() = %v, want ErrInvalidPayload", m.Err())
	}
	if view := m.View(); !strings.Contains(view, "S039") {
		t.Errorf("View() does not show the error code:\n%s", view)
	}

	typeText(m, "milk")
	press(m, tea.KeyEnter)
	if m.Err() != nil {
		t.Errorf("Err() = %v after a successful dispatch, want nil", m.Err())
	}
}

func TestModel_Quit(t *testing.T) {
	m, _ := newModel(t)
	cmd := press(m, tea.KeyEsc)
	if cmd == nil {
		t.Fatal("esc returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("esc should quit")
	}
}

func TestModel_View(t *testing.T) {
	m, _ := newModel(t)
	if view := m.View(); !strings.Contains(view, "nothing to do") {
		t.Errorf("empty View() = %q", view)
	}

	typeText(m, "milk")
	press(m, tea.KeyEnter)
	press(m, tea.KeyEnter)

	view := m.View()
	for _, want := range []string{"todos", "[x]", "milk", "0 of 1 left", "enter"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}
}

func TestModel_CloseReleasesWait(t *testing.T) {
	m, _ := newModel(t)

	got := make(chan tea.Msg, 1)
	go func() { got <- m.waitForChange()() }()

	m.Close()
	m.Close()
	select {
	case msg := <-got:
		if msg != nil {
			t.Errorf("waitForChange() after Close = %#v, want nil", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waitForChange() still blocked after Close")
	}
}
