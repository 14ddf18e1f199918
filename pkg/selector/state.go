package selector

// State is the position of a selector in its query lifecycle.
type State int

const (
	// StateEmpty means the query is "".
	StateEmpty State = iota
	// StateTyping means the query is non-empty and not yet resolved.
	StateTyping
	// StateMatched means the query resolved to a candidate or one was picked.
	StateMatched
	// StateInvalid means the touched query matches no candidate.
	StateInvalid
)

// String returns the string representation of State
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateTyping:
		return "typing"
	case StateMatched:
		return "matched"
	case StateInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Result is the outcome of one asynchronous validation.
type Result[T any] struct {
	Query     string
	Candidate T
	Err       error // nil or ErrInvalidSearch
	// Stale is set when the query changed while the validation was in flight.
	// Stale results never touch the selection.
	Stale bool
}

// Valid reports whether the query matched a candidate.
func (r Result[T]) Valid() bool { return r.Err == nil }
