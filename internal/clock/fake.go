package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake is a manually advanced Scheduler. Callbacks run synchronously inside
// Advance, in deadline order, on the calling goroutine.
type Fake struct {
	mu      sync.Mutex
	now     time.Duration
	seq     int
	pending []*fakeTimer
}

type fakeTimer struct {
	fake     *Fake
	deadline time.Duration
	seq      int
	f        func()
	stopped  bool
	fired    bool
}

// NewFake returns a Fake positioned at time zero.
func NewFake() *Fake {
	return &Fake{}
}

// AfterFunc registers f to run once the fake clock has advanced by d.
func (c *Fake) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &fakeTimer{fake: c, deadline: c.now + d, seq: c.seq, f: f}
	c.pending = append(c.pending, t)
	return t
}

// Advance moves the clock forward and fires every timer whose deadline has
// been reached, including timers scheduled by callbacks during the advance.
func (c *Fake) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()

	for {
		c.mu.Lock()
		next := c.nextLocked(target)
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		c.now = next.deadline
		next.fired = true
		c.mu.Unlock()

		next.f()
	}
}

// Pending returns the number of timers that have neither fired nor been
// stopped.
func (c *Fake) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.pending {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// nextLocked pops the earliest live timer due at or before target.
func (c *Fake) nextLocked(target time.Duration) *fakeTimer {
	live := c.pending[:0]
	for _, t := range c.pending {
		if !t.stopped && !t.fired {
			live = append(live, t)
		}
	}
	c.pending = live
	sort.SliceStable(c.pending, func(i, j int) bool {
		if c.pending[i].deadline == c.pending[j].deadline {
			return c.pending[i].seq < c.pending[j].seq
		}
		return c.pending[i].deadline < c.pending[j].deadline
	})
	if len(c.pending) == 0 || c.pending[0].deadline > target {
		return nil
	}
	return c.pending[0]
}

func (t *fakeTimer) Stop() bool {
	t.fake.mu.Lock()
	defer t.fake.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}
