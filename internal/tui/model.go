// Package tui is a terminal front end for the todo slice of a store.
//
// The model dispatches todo actions on key presses and re-renders whenever
// the store broadcasts, including broadcasts caused by other dispatchers.
package tui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	apperrors "github.com/vango-dev/slicestore/internal/errors"
	"github.com/vango-dev/slicestore/pkg/store"
	"github.com/vango-dev/slicestore/pkg/todo"
)

// stateChangedMsg is sent after the store broadcasts.
type stateChangedMsg struct{}

// Model is the todo view. It implements tea.Model.
type Model struct {
	store       *store.Store[store.State]
	ids         todo.IDs
	changes     chan struct{}
	done        chan struct{}
	closeOnce   sync.Once
	unsubscribe func()

	items  todo.List
	cursor int
	err    error

	input  textinput.Model
	help   help.Model
	keys   KeyMap
	styles *Styles
}

var _ tea.Model = (*Model)(nil)

// New creates a Model for st and subscribes it to the store. Call Close
// when done.
func New(st *store.Store[store.State], ids todo.IDs) *Model {
	if ids == nil {
		ids = todo.NewSequential("")
	}

	ti := textinput.New()
	ti.Placeholder = "What needs to be done?"
	ti.CharLimit = 256
	ti.Width = 40
	ti.Focus()

	m := &Model{
		store:   st,
		ids:     ids,
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
		input:   ti,
		help:    help.New(),
		keys:    DefaultKeyMap(),
		styles:  DefaultStyles(),
	}
	m.unsubscribe = st.Subscribe(m.notify)
	m.refresh()
	return m
}

// Close unsubscribes the model from the store and releases a pending
// waitForChange. It is safe to call more than once.
func (m *Model) Close() {
	m.closeOnce.Do(func() {
		m.unsubscribe()
		close(m.done)
	})
}

// notify is the store listener. It never blocks the dispatch.
func (m *Model) notify() {
	select {
	case m.changes <- struct{}{}:
	default:
	}
}

func (m *Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.changes:
			return stateChangedMsg{}
		case <-m.done:
			return nil
		}
	}
}

// refresh reads the todo slice from the store.
func (m *Model) refresh() {
	st, err := m.store.State()
	if err != nil {
		m.err = err
		return
	}
	m.items, _ = store.Select[todo.List](st, todo.SliceName)
	if m.cursor >= len(m.items) {
		m.cursor = max(len(m.items)-1, 0)
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForChange())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateChangedMsg:
		m.refresh()
		return m, m.waitForChange()

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-10, 20)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
			return m, nil
		case key.Matches(msg, m.keys.Submit):
			m.submit()
			return m, nil
		case key.Matches(msg, m.keys.Delete):
			if item, ok := m.selected(); ok {
				m.dispatch(todo.Delete(item.ID))
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit adds the typed item, or toggles the selected one when the input
// is empty.
func (m *Model) submit() {
	value := strings.TrimSpace(m.input.Value())
	if value == "" {
		if item, ok := m.selected(); ok {
			m.dispatch(todo.Toggle(item.ID))
		}
		return
	}
	if m.dispatch(todo.Add(m.ids.Next(), value)) {
		m.input.Reset()
		m.cursor = len(m.items) - 1
	}
}

func (m *Model) dispatch(action store.Action) bool {
	if err := m.store.Dispatch(action); err != nil {
		m.err = err
		return false
	}
	m.err = nil
	m.refresh()
	return true
}

func (m *Model) selected() (todo.Item, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return todo.Item{}, false
	}
	return m.items[m.cursor], true
}

// Items returns the rendered list.
func (m *Model) Items() todo.List {
	return m.items
}

// Err returns the last dispatch error.
func (m *Model) Err() error {
	return m.err
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("todos"))
	b.WriteString("\n")

	if len(m.items) == 0 {
		b.WriteString(m.styles.Muted.Render("  nothing to do"))
		b.WriteString("\n")
	}
	for i, item := range m.items {
		check := "[ ]"
		text := item.Value
		if item.Checked {
			check = "[x]"
			text = m.styles.Done.Render(text)
		}
		line := check + " " + text
		if i == m.cursor {
			b.WriteString(m.styles.Selected.Render("› ") + line)
		} else {
			b.WriteString(m.styles.Item.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render(fmt.Sprintf("%d of %d left", m.items.Remaining(), len(m.items))))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(m.styles.Error.Render(apperrors.FromStore(m.err).Error()))
		b.WriteString("\n")
	}

	b.WriteString(m.styles.Input.Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return m.styles.Container.Render(b.String())
}

// Run starts the todo view on st and blocks until the user quits.
func Run(st *store.Store[store.State], ids todo.IDs, opts ...tea.ProgramOption) error {
	m := New(st, ids)
	defer m.Close()

	_, err := tea.NewProgram(m, opts...).Run()
	return err
}
