// Package clock provides the tick source used for elapsed-time measurement.
// Ticks are opaque: callers only subtract them from each other and convert
// the result to milliseconds through the same Clock that produced them.
package clock

import (
	"sync/atomic"
	"time"
)

// Clock is a monotonic source of ticks.
type Clock interface {
	// Now returns the current reading in ticks.
	Now() int64
	// Millis converts a tick count (or tick difference) to milliseconds.
	Millis(ticks int64) float64
}

// monotonic reads Go's monotonic clock relative to a fixed origin so that
// wall-clock adjustments never affect a measurement. One tick is one
// nanosecond.
type monotonic struct {
	origin time.Time
}

var process = &monotonic{origin: time.Now()}

// Monotonic returns the process-wide monotonic clock.
func Monotonic() Clock { return process }

// Now returns nanoseconds elapsed since the clock origin.
func (m *monotonic) Now() int64 { return int64(time.Since(m.origin)) }

// Millis converts nanosecond ticks to milliseconds.
func (m *monotonic) Millis(ticks int64) float64 {
	return float64(ticks) / float64(time.Millisecond)
}

// Manual is a clock that only moves when told to. It is intended for tests
// that need exact elapsed values. One tick is one nanosecond.
// The zero value is ready to use and safe for concurrent use.
type Manual struct {
	ticks atomic.Int64
}

// NewManual returns a Manual clock positioned at start.
func NewManual(start time.Duration) *Manual {
	m := &Manual{}
	m.ticks.Store(int64(start))
	return m
}

// Now returns the current manual reading.
func (m *Manual) Now() int64 { return m.ticks.Load() }

// Millis converts nanosecond ticks to milliseconds.
func (m *Manual) Millis(ticks int64) float64 {
	return float64(ticks) / float64(time.Millisecond)
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) { m.ticks.Add(int64(d)) }

// Set positions the clock at an absolute reading.
func (m *Manual) Set(d time.Duration) { m.ticks.Store(int64(d)) }
