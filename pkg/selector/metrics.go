package selector

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts selector activity. A nil *Metrics records nothing.
type Metrics struct {
	Recomputes      prometheus.Counter
	DebounceSkipped prometheus.Counter
	Validations     *prometheus.CounterVec
	Selections      *prometheus.CounterVec
}

// NewMetrics creates the selector counters and registers them with reg.
// An AlreadyRegisteredError reuses the existing collector so several
// selectors can share one registry.
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	m := &Metrics{
		Recomputes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "selector",
			Name:      "recomputes_total",
			Help:      "Number of filtered view recomputations",
		}),
		DebounceSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "selector",
			Name:      "debounce_skipped_total",
			Help:      "Debounce expiries skipped because the query was unchanged",
		}),
		Validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "selector",
			Name:      "validations_total",
			Help:      "Asynchronous validations by result",
		}, []string{"result"}),
		Selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "selector",
			Name:      "selections_total",
			Help:      "Selections emitted by source",
		}, []string{"source"}),
	}
	if reg == nil {
		return m, nil
	}

	var err error
	if m.Recomputes, err = registerCounter(reg, m.Recomputes); err != nil {
		return nil, err
	}
	if m.DebounceSkipped, err = registerCounter(reg, m.DebounceSkipped); err != nil {
		return nil, err
	}
	if m.Validations, err = registerCounterVec(reg, m.Validations); err != nil {
		return nil, err
	}
	if m.Selections, err = registerCounterVec(reg, m.Selections); err != nil {
		return nil, err
	}
	return m, nil
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter) (prometheus.Counter, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return c, nil
}

func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return c, nil
}

func (m *Metrics) recompute() {
	if m != nil {
		m.Recomputes.Inc()
	}
}

func (m *Metrics) skipped() {
	if m != nil {
		m.DebounceSkipped.Inc()
	}
}

func (m *Metrics) validation(result string) {
	if m != nil {
		m.Validations.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) selection(source string) {
	if m != nil {
		m.Selections.WithLabelValues(source).Inc()
	}
}
