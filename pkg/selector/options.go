package selector

import (
	"time"

	"github.com/go-logr/logr"
)

const (
	// DefaultDebounce is the quiet period before the filtered view is recomputed.
	DefaultDebounce = 300 * time.Millisecond
	// DefaultValidationDelay is the latency of the asynchronous validation.
	DefaultValidationDelay = 300 * time.Millisecond
)

type options[T any] struct {
	label           string
	required        bool
	debounce        time.Duration
	validationDelay time.Duration
	scheduler       Scheduler
	log             logr.Logger
	metrics         *Metrics
	onSelection     func(T)
	onView          func([]T)
	onState         func(State, error)
}

func defaultOptions[T any]() options[T] {
	return options[T]{
		debounce:        DefaultDebounce,
		validationDelay: DefaultValidationDelay,
		scheduler:       RealScheduler{},
		log:             logr.Discard(),
	}
}

func (o options[T]) validate() error {
	if o.debounce < 0 {
		return NewConfigurationError("debounce", "must be non-negative")
	}
	if o.validationDelay < 0 {
		return NewConfigurationError("validation_delay", "must be non-negative")
	}
	if o.scheduler == nil {
		return NewConfigurationError("scheduler", "scheduler is nil")
	}
	return nil
}

// Option configures a Selector.
type Option[T any] func(*options[T])

// WithLabel sets the label shown by the renderer.
func WithLabel[T any](label string) Option[T] {
	return func(o *options[T]) { o.label = label }
}

// WithRequired marks the selector as required. An empty query on a touched
// required selector reports ErrRequired.
func WithRequired[T any](required bool) Option[T] {
	return func(o *options[T]) { o.required = required }
}

// WithDebounce overrides DefaultDebounce.
func WithDebounce[T any](d time.Duration) Option[T] {
	return func(o *options[T]) { o.debounce = d }
}

// WithValidationDelay overrides DefaultValidationDelay.
func WithValidationDelay[T any](d time.Duration) Option[T] {
	return func(o *options[T]) { o.validationDelay = d }
}

// WithScheduler replaces the runtime timer, mainly for tests.
func WithScheduler[T any](s Scheduler) Option[T] {
	return func(o *options[T]) { o.scheduler = s }
}

// WithLogger sets the logger. Activity is logged at V(1).
func WithLogger[T any](log logr.Logger) Option[T] {
	return func(o *options[T]) { o.log = log }
}

// WithMetrics records activity in m.
func WithMetrics[T any](m *Metrics) Option[T] {
	return func(o *options[T]) { o.metrics = m }
}

// WithSelectionHandler is called whenever a selection is established,
// by exact-match validation or by an explicit pick.
func WithSelectionHandler[T any](fn func(T)) Option[T] {
	return func(o *options[T]) { o.onSelection = fn }
}

// WithViewHandler is called with every recomputed filtered view.
func WithViewHandler[T any](fn func([]T)) Option[T] {
	return func(o *options[T]) { o.onView = fn }
}

// WithStateHandler is called when the state or its user-facing error changes.
func WithStateHandler[T any](fn func(State, error)) Option[T] {
	return func(o *options[T]) { o.onState = fn }
}
