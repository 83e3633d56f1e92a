// Package clock provides cancellable single-shot timers. Components that
// schedule delayed work take a Scheduler so tests can drive time by hand.
package clock

import "time"

// Timer is a scheduled callback that can be cancelled before it fires.
type Timer interface {
	// Stop cancels the timer. It reports whether the call prevented the
	// callback from running.
	Stop() bool
}

// Scheduler runs f once after d has elapsed.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Real schedules callbacks on the runtime timer wheel.
type Real struct{}

// AfterFunc wraps time.AfterFunc.
func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
