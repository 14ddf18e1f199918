package selector

import "time"

// Timer is a pending scheduled callback.
type Timer interface {
	// Stop cancels the callback. It returns false if the callback already
	// ran or is running.
	Stop() bool
}

// Scheduler runs callbacks after a delay. The debounce and validation delays
// are both driven through it so tests can advance time deterministically.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealScheduler schedules callbacks on the runtime timer.
type RealScheduler struct{}

// AfterFunc implements Scheduler.
func (RealScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
