package selector

import (
	"sort"
	"sync"
	"time"
)

// manualScheduler fires callbacks only when the test advances its clock.
type manualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	s       *manualScheduler
	due     time.Duration
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{}
}

func (m *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{s: m, due: m.now + d, seq: m.seq, fn: f}
	m.timers = append(m.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock forward by d, firing due timers in due order.
func (m *manualScheduler) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.nextDueLocked(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = next.due
		next.fired = true
		m.mu.Unlock()
		next.fn()
	}
}

// Pending returns the timers that have neither fired nor been stopped,
// ordered by creation.
func (m *manualScheduler) Pending() []*manualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*manualTimer
	for _, t := range m.timers {
		if !t.fired && !t.stopped {
			out = append(out, t)
		}
	}
	return out
}

// Fire runs t immediately, regardless of its due time.
func (t *manualTimer) Fire() {
	t.s.mu.Lock()
	if t.fired || t.stopped {
		t.s.mu.Unlock()
		return
	}
	t.fired = true
	t.s.mu.Unlock()
	t.fn()
}

// FireAsync runs t on a new goroutine, the way a real timer would, and
// closes the returned channel once the callback has returned.
func (t *manualTimer) FireAsync() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		t.Fire()
	}()
	return done
}

func (m *manualScheduler) nextDueLocked(target time.Duration) *manualTimer {
	var due []*manualTimer
	for _, t := range m.timers {
		if !t.fired && !t.stopped && t.due <= target {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].due == due[j].due {
			return due[i].seq < due[j].seq
		}
		return due[i].due < due[j].due
	})
	return due[0]
}
