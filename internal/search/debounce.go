package search

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period before a typed query runs.
const DefaultDebounce = 300 * time.Millisecond

// Timer is a pending callback.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock returns a Clock backed by the time package.
func SystemClock() Clock {
	return realClock{}
}

// Debouncer holds at most one armed callback. Arming replaces whatever was
// armed before; only the most recently armed callback can run.
type Debouncer struct {
	delay      time.Duration
	clock      Clock
	mutex      sync.Mutex
	timer      Timer
	generation uint64
}

// NewDebouncer creates a debouncer. A nil clock uses the system clock.
func NewDebouncer(delay time.Duration, clock Clock) *Debouncer {
	if clock == nil {
		clock = SystemClock()
	}
	return &Debouncer{delay: delay, clock: clock}
}

// Delay returns the quiet period.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Arm schedules f after the delay, superseding any armed callback.
func (d *Debouncer) Arm(f func()) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.generation++
	gen := d.generation

	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.mutex.Lock()
		if gen != d.generation {
			// superseded after the timer had already fired
			d.mutex.Unlock()
			return
		}
		d.timer = nil
		d.mutex.Unlock()
		f()
	})
}

// Cancel drops the armed callback, if any.
func (d *Debouncer) Cancel() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.generation++
}

// Pending reports whether a callback is armed.
func (d *Debouncer) Pending() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.timer != nil
}
