// Package selector implements the state machine behind a searchable
// dropdown: a fixed candidate list, a free-text query, a debounced
// case-insensitive filtered view, and asynchronous exact-match validation
// that establishes a selection.
//
// Rendering is left to the caller. A renderer feeds keystrokes into
// OnQueryChanged, draws View, shows Err when State is StateInvalid, and
// listens for selections through WithSelectionHandler.
//
//	sel, err := selector.New(people, selector.SameField(func(p Person) string { return p.Name }),
//		selector.WithSelectionHandler(func(p Person) { fmt.Println("picked", p.Name) }),
//	)
package selector
