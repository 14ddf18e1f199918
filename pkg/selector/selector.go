package selector

import (
	"context"
	"fmt"
	"reflect"
	"sync"
)

// Selector maintains the query -> filtered view -> selection pipeline for a
// fixed list of candidates.
//
// Every keystroke updates the visible query immediately. The filtered view is
// recomputed only after the debounce delay has passed without further input,
// and only if the query differs from the last processed one. Independently,
// each non-empty query starts an asynchronous validation that resolves after
// the validation delay. A validation that resolves after the query has moved
// on is stale and never changes the selection.
//
// Handlers run outside the internal lock. Events are queued in the order the
// state changed and delivered by one goroutine at a time: whichever caller or
// timer finds the queue idle drains it, including events queued by others
// meanwhile. A handler therefore never sees an older change after a newer one.
type Selector[T any] struct {
	mu sync.Mutex

	candidates []T
	acc        Accessors[T]
	opts       options[T]

	query         string
	lastProcessed string
	view          []T
	state         State
	err           error
	pendingErr    error // invalid result held back until the field is touched
	selection     T
	hasSelection  bool
	dirty         bool
	touched       bool
	closed        bool

	gen         uint64 // advances on every query change, pick and reset
	debounce    Timer
	debounceID  uint64
	validations map[uint64]Timer
	nextValID   uint64

	pending int
	idle    chan struct{}

	queue    []func()
	draining bool
}

// New initializes a selector over candidates. Candidates are referenced, not
// copied, and must not be mutated while the selector is live.
//
// It fails with a *ConfigurationError when an accessor is missing, a
// candidate is nil, or an option is invalid.
func New[T any](candidates []T, acc Accessors[T], opts ...Option[T]) (*Selector[T], error) {
	if err := acc.validate(); err != nil {
		return nil, err
	}
	for i, c := range candidates {
		if isNil(c) {
			return nil, NewConfigurationError(fmt.Sprintf("candidates[%d]", i), "candidate is nil")
		}
	}

	o := defaultOptions[T]()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	idle := make(chan struct{})
	close(idle)
	s := &Selector[T]{
		candidates:  candidates,
		acc:         acc,
		opts:        o,
		view:        FilterView(candidates, acc.Show, ""),
		state:       StateEmpty,
		validations: make(map[uint64]Timer),
		idle:        idle,
	}
	s.opts.log.V(1).Info("selector initialized", "label", o.label, "candidates", len(candidates), "required", o.required)
	return s, nil
}

// OnQueryChanged handles one edit of the input text.
func (s *Selector[T]) OnQueryChanged(raw string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}

	s.gen++
	s.query = raw
	s.dirty = true
	s.clearSelectionLocked()
	s.pendingErr = nil

	var events []func()
	if raw == "" {
		var err error
		if s.touched && s.opts.required {
			err = ErrRequired
		}
		events = s.setStateLocked(StateEmpty, err, events)
	} else {
		events = s.setStateLocked(StateTyping, nil, events)
	}

	s.restartDebounceLocked()
	if raw != "" {
		s.scheduleValidationLocked(raw, s.gen, true, nil)
	}
	s.queue = append(s.queue, events...)
	s.mu.Unlock()

	s.drain()
	return nil
}

// Validate looks up query among the candidates' filter values. It has no side
// effects.
func (s *Selector[T]) Validate(query string) (T, error) {
	if c, ok := Lookup(s.candidates, s.acc.Filter, query); ok {
		return c, nil
	}
	var zero T
	return zero, ErrInvalidSearch
}

// ValidateCandidate validates a previously selected candidate by its filter value.
func (s *Selector[T]) ValidateCandidate(c T) (T, error) {
	if isNil(c) {
		var zero T
		return zero, ErrInvalidSearch
	}
	return s.Validate(s.acc.Filter(c))
}

// ValidateAsync resolves Validate(query) after the validation delay and passes
// the result to done. The result is marked stale if the query changed in the
// meantime. It does not change the selection.
func (s *Selector[T]) ValidateAsync(query string, done func(Result[T])) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.scheduleValidationLocked(query, s.gen, false, done)
	return nil
}

// SelectOption records an explicit pick from the filtered view. It bypasses
// the debounce and marks in-flight validations stale.
func (s *Selector[T]) SelectOption(c T) error {
	if isNil(c) {
		return NewConfigurationError("option", "picked candidate is nil")
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}

	s.gen++
	s.stopDebounceLocked()

	show := s.acc.Show(c)
	s.query = show
	s.dirty = true
	s.pendingErr = nil

	var events []func()
	events = s.recomputeLocked(show, events)
	events = s.selectLocked(c, "pick", events)
	events = s.setStateLocked(StateMatched, nil, events)
	s.queue = append(s.queue, events...)
	s.mu.Unlock()

	s.drain()
	return nil
}

// Blur marks the field as touched. A pending invalid result surfaces now, and
// an empty required field reports ErrRequired.
func (s *Selector[T]) Blur() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}

	s.touched = true
	var events []func()
	switch {
	case s.query == "" && s.opts.required:
		events = s.setStateLocked(StateEmpty, ErrRequired, events)
	case s.pendingErr != nil:
		err := s.pendingErr
		s.pendingErr = nil
		events = s.setStateLocked(StateInvalid, err, events)
	}
	s.queue = append(s.queue, events...)
	s.mu.Unlock()

	s.drain()
	return nil
}

// Reset returns the selector to its initial state.
func (s *Selector[T]) Reset() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}

	s.stopTimersLocked()
	s.gen++
	s.query = ""
	s.dirty = false
	s.touched = false
	s.pendingErr = nil
	s.clearSelectionLocked()

	var events []func()
	events = s.recomputeLocked("", events)
	events = s.setStateLocked(StateEmpty, nil, events)
	s.queue = append(s.queue, events...)
	s.mu.Unlock()

	s.drain()
	return nil
}

// Close stops all pending timers. The selector rejects further edits.
func (s *Selector[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.stopTimersLocked()
	s.closed = true
	return nil
}

// Wait blocks until no debounce or validation timer is pending and queued
// events have been delivered, or ctx is done. It must not be called from a
// handler.
func (s *Selector[T]) Wait(ctx context.Context) error {
	for {
		s.mu.Lock()
		idle := s.idle
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-idle:
		}

		s.mu.Lock()
		done := s.pending == 0
		s.mu.Unlock()
		if done {
			return nil
		}
	}
}

// DisplayText is the text shown in the input once c is selected, or "" if ok
// is false. It pairs with Selection: s.DisplayText(s.Selection()).
func (s *Selector[T]) DisplayText(c T, ok bool) string {
	if !ok || isNil(c) {
		return ""
	}
	return s.acc.Show(c)
}

// Emit returns the value handed to the parent for c.
func (s *Selector[T]) Emit(c T) any {
	if s.acc.Get == nil {
		return c
	}
	return s.acc.Get(c)
}

// Query returns the visible query.
func (s *Selector[T]) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// View returns a copy of the filtered view.
func (s *Selector[T]) View() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, len(s.view))
	copy(out, s.view)
	return out
}

// State returns the current state.
func (s *Selector[T]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the user-facing error, if any.
func (s *Selector[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Selection returns the current selection.
func (s *Selector[T]) Selection() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection, s.hasSelection
}

// Label returns the configured label.
func (s *Selector[T]) Label() string { return s.opts.label }

// Required reports whether the selector is required.
func (s *Selector[T]) Required() bool { return s.opts.required }

// Candidates returns the candidate list the selector was built with.
func (s *Selector[T]) Candidates() []T { return s.candidates }

// Dirty reports whether the query was edited since initialization.
func (s *Selector[T]) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Touched reports whether Blur was called since initialization.
func (s *Selector[T]) Touched() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

func (s *Selector[T]) restartDebounceLocked() {
	s.stopDebounceLocked()
	id := s.debounceID
	s.acquireLocked()
	s.debounce = s.opts.scheduler.AfterFunc(s.opts.debounce, func() {
		s.onDebounce(id)
	})
}

// stopDebounceLocked cancels the pending debounce. A callback that already
// started sees a newer debounceID and does nothing.
func (s *Selector[T]) stopDebounceLocked() {
	if s.debounce != nil && s.debounce.Stop() {
		s.releaseLocked()
	}
	s.debounce = nil
	s.debounceID++
}

func (s *Selector[T]) onDebounce(id uint64) {
	defer s.release()

	s.mu.Lock()
	if s.closed || id != s.debounceID {
		s.mu.Unlock()
		return
	}
	s.debounce = nil

	q := s.query
	var events []func()
	if q == s.lastProcessed {
		s.opts.metrics.skipped()
		s.opts.log.V(1).Info("debounce expired with unchanged query", "query", q)
	} else {
		events = s.recomputeLocked(q, events)
	}
	s.queue = append(s.queue, events...)
	s.mu.Unlock()

	s.drain()
}

func (s *Selector[T]) scheduleValidationLocked(value string, gen uint64, commit bool, done func(Result[T])) {
	s.nextValID++
	id := s.nextValID
	s.acquireLocked()
	s.validations[id] = s.opts.scheduler.AfterFunc(s.opts.validationDelay, func() {
		s.onValidation(id, gen, value, commit, done)
	})
}

func (s *Selector[T]) onValidation(id, gen uint64, value string, commit bool, done func(Result[T])) {
	defer s.release()

	s.mu.Lock()
	delete(s.validations, id)
	if s.closed {
		s.mu.Unlock()
		return
	}

	c, err := s.Validate(value)
	res := Result[T]{Query: value, Candidate: c, Err: err, Stale: gen != s.gen}

	var events []func()
	switch {
	case res.Stale:
		s.opts.metrics.validation("stale")
		s.opts.log.V(1).Info("discarding stale validation", "query", value, "current", s.query)
	case err == nil:
		s.opts.metrics.validation("valid")
		s.opts.log.V(1).Info("query matched", "query", value)
		if commit {
			s.pendingErr = nil
			events = s.selectLocked(c, "match", events)
			events = s.setStateLocked(StateMatched, nil, events)
		}
	default:
		s.opts.metrics.validation("invalid")
		s.opts.log.V(1).Info("query matched no candidate", "query", value)
		if commit {
			if s.touched {
				events = s.setStateLocked(StateInvalid, err, events)
			} else {
				s.pendingErr = err
			}
		}
	}
	if done != nil {
		events = append(events, func() { done(res) })
	}
	s.queue = append(s.queue, events...)
	s.mu.Unlock()

	s.drain()
}

func (s *Selector[T]) recomputeLocked(q string, events []func()) []func() {
	view := FilterView(s.candidates, s.acc.Show, q)
	s.view = view
	s.lastProcessed = q
	s.opts.metrics.recompute()
	s.opts.log.V(1).Info("recomputed filtered view", "query", q, "matches", len(view))

	if fn := s.opts.onView; fn != nil {
		out := make([]T, len(view))
		copy(out, view)
		events = append(events, func() { fn(out) })
	}
	return events
}

func (s *Selector[T]) selectLocked(c T, source string, events []func()) []func() {
	s.selection = c
	s.hasSelection = true
	s.opts.metrics.selection(source)
	if fn := s.opts.onSelection; fn != nil {
		events = append(events, func() { fn(c) })
	}
	return events
}

func (s *Selector[T]) clearSelectionLocked() {
	var zero T
	s.selection = zero
	s.hasSelection = false
}

func (s *Selector[T]) setStateLocked(state State, err error, events []func()) []func() {
	if s.state == state && s.err == err {
		return events
	}
	s.state = state
	s.err = err
	if fn := s.opts.onState; fn != nil {
		events = append(events, func() { fn(state, err) })
	}
	return events
}

func (s *Selector[T]) stopTimersLocked() {
	s.stopDebounceLocked()
	for id, t := range s.validations {
		if t.Stop() {
			s.releaseLocked()
		}
		delete(s.validations, id)
	}
}

func (s *Selector[T]) acquireLocked() {
	if s.pending == 0 {
		s.idle = make(chan struct{})
	}
	s.pending++
}

func (s *Selector[T]) releaseLocked() {
	s.pending--
	if s.pending == 0 {
		close(s.idle)
	}
}

func (s *Selector[T]) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked()
}

// drain delivers queued events outside the lock. If another goroutine is
// already draining, it returns at once and leaves the events to that one.
func (s *Selector[T]) drain() {
	s.mu.Lock()
	if s.draining || len(s.queue) == 0 {
		s.mu.Unlock()
		return
	}
	s.draining = true
	s.acquireLocked()
	for len(s.queue) > 0 {
		fn := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.mu.Unlock()
		s.deliver(fn)
		s.mu.Lock()
	}
	s.queue = nil
	s.draining = false
	s.releaseLocked()
	s.mu.Unlock()
}

// deliver runs one handler. A panicking handler is logged and does not stop
// delivery of later events.
func (s *Selector[T]) deliver(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.opts.log.Error(fmt.Errorf("%v", r), "event handler panicked")
		}
	}()
	fn()
}

// isNil reports whether v is nil or a nil pointer, map, slice, interface,
// func or channel.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
