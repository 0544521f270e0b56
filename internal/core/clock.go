package core

import "time"

// Clock is a source of time for the frame driver. Production code uses the
// wall clock; tests inject a ManualClock to get exact, reproducible deltas.
type Clock interface {
	Now() time.Time
}

// RealClock reads the wall clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// ManualClock only moves when Advance is called.
type ManualClock struct {
	now time.Time
}

// NewManualClock creates a clock frozen at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the current manual time.
func (c *ManualClock) Now() time.Time {
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// FrameTimer converts successive clock readings into frame deltas.
// Deltas are capped at MaxDelta so a stalled terminal or a suspended laptop
// does not teleport the bird through a pipe on the next frame.
type FrameTimer struct {
	clock    Clock
	last     time.Time
	started  bool
	MaxDelta time.Duration
}

// NewFrameTimer creates a frame timer over the given clock.
func NewFrameTimer(clock Clock, maxDelta time.Duration) *FrameTimer {
	if clock == nil {
		clock = RealClock{}
	}
	return &FrameTimer{clock: clock, MaxDelta: maxDelta}
}

// Delta returns the time elapsed since the previous call.
// The first call returns zero.
func (t *FrameTimer) Delta() time.Duration {
	now := t.clock.Now()
	if !t.started {
		t.started = true
		t.last = now
		return 0
	}
	dt := now.Sub(t.last)
	t.last = now
	if dt < 0 {
		return 0
	}
	if t.MaxDelta > 0 && dt > t.MaxDelta {
		return t.MaxDelta
	}
	return dt
}

// Reset forgets the previous reading so the next Delta returns zero.
func (t *FrameTimer) Reset() {
	t.started = false
}
