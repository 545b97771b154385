// Package clock provides the cancellable timers the game engines run on.
//
// Engines never call time.AfterFunc directly. They arm timers through a Slot,
// which holds at most one pending timer and drops any callback that fires
// after the slot was re-armed or cancelled.
package clock

import (
	"sync"
	"time"
)

// Timer is a handle to a pending callback.
type Timer interface {
	// Stop prevents the callback from firing. It reports whether the call
	// stopped the timer, false if it already fired or was stopped.
	Stop() bool
}

// Clock is the source of time and single-shot timers.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

// Real returns a Clock backed by the time package.
func Real() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Slot owns at most one pending timer for an engine.
//
// All Slot methods must be called with the engine lock held. The callback
// passed to Arm also runs with that lock held, and after the lock is released
// the slot invokes the engine's after hook (used to flush deferred reports
// and events outside the lock).
type Slot struct {
	clock Clock
	mu    sync.Locker
	after func()

	timer Timer
	epoch uint64
}

// NewSlot creates a slot bound to the engine lock mu. after may be nil.
func NewSlot(c Clock, mu sync.Locker, after func()) *Slot {
	if c == nil {
		c = Real()
	}
	return &Slot{clock: c, mu: mu, after: after}
}

// Arm schedules fn after d, cancelling whatever the slot held before.
func (s *Slot) Arm(d time.Duration, fn func()) {
	s.Cancel()
	epoch := s.epoch
	s.timer = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		if s.epoch != epoch {
			s.mu.Unlock()
			return
		}
		s.timer = nil
		s.epoch++
		fn()
		s.mu.Unlock()
		if s.after != nil {
			s.after()
		}
	})
}

// Cancel stops the pending timer, if any. A callback that already started
// waiting on the engine lock sees the bumped epoch and returns.
func (s *Slot) Cancel() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.epoch++
}

// Pending reports whether a callback is scheduled.
func (s *Slot) Pending() bool { return s.timer != nil }
