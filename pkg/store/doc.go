// Package store provides a single-writer state container driven by pure
// reducers, and a combinator that composes named slice reducers into one
// root reducer.
//
// A Store owns exactly one state value. The only way to change it is to
// dispatch an Action; the store runs its reducer, replaces the state with the
// result and then notifies every subscriber. Dispatching is not re-entrant:
// a reducer or listener that dispatches while another dispatch is in flight
// gets ErrStoreIsInProcess instead of being queued.
//
// # Actions
//
// Every action carries a Type. Every action except the reserved ActionInit
// also carries a Target naming the slice that should handle it, or TargetAll
// to broadcast it to every slice.
//
//	store.Action{Type: "ADD", Target: "toDoList", Payload: item}
//
// Untyped input (decoded JSON, maps from a wire protocol) goes through
// ParseAction, which rejects anything that is not an object with
// ErrActionIsNotAnObject.
//
// # Combining reducers
//
//	root, err := store.Combine(
//	    store.On("toDoList", store.Slice(todo.Reducer)),
//	    store.On("filter", store.Slice(filterReducer)),
//	)
//	if err != nil {
//	    // one or more slices returned undefined state for a probe action
//	}
//
//	s, err := store.New(root)
//	unsubscribe := s.Subscribe(func() {
//	    st, _ := s.State()
//	    items, _ := store.Select[todo.List](st, "toDoList")
//	    render(items)
//	})
//	defer unsubscribe()
//
//	err = s.Dispatch(todo.Add("item-1", "milk"))
//
// The combined reducer keeps the identity of the state map when no slice
// changed, so subscribers can detect no-op dispatches with Same.
package store
