// Package timer implements a lap timer with explicit pause/resume semantics.
//
// A Timer accumulates ticks only while running. Resume subtracts the current
// clock reading from the accumulator and the matching pause adds the reading
// back, so the accumulator always holds the sum of (end - start) over every
// running interval without storing the boundaries. Laps count repetitions
// independently of the interval boundaries, which lets untimed setup and
// validation work be excluded while still producing a single mean.
package timer

import (
	"fmt"

	"github.com/agbru/parsort/internal/clock"
	apperrors "github.com/agbru/parsort/internal/errors"
	"github.com/agbru/parsort/internal/logging"
)

// Timer measures elapsed time over one or more running intervals.
// A Timer is not safe for concurrent use.
type Timer struct {
	clock   clock.Clock
	logger  logging.Logger
	ticks   int64
	laps    int
	running bool
}

// Option configures a Timer.
type Option func(*Timer)

// WithClock sets the tick source. The default is clock.Monotonic().
func WithClock(c clock.Clock) Option {
	return func(t *Timer) { t.clock = c }
}

// WithLogger sets the logger used for repeat tracing.
func WithLogger(l logging.Logger) Option {
	return func(t *Timer) { t.logger = l }
}

// New creates a Timer and starts it.
func New(opts ...Option) *Timer {
	t := &Timer{clock: clock.Monotonic(), logger: logging.Nop()}
	for _, opt := range opts {
		opt(t)
	}
	// A fresh timer is paused, so Resume cannot fail here.
	_ = t.Resume()
	return t
}

// Resume starts a new running interval.
func (t *Timer) Resume() error {
	if t.running {
		return &StateError{Op: "Resume", Running: true}
	}
	t.ticks -= t.clock.Now()
	t.running = true
	return nil
}

// Lap marks a repetition boundary; the timer keeps running.
func (t *Timer) Lap() error {
	if !t.running {
		return &StateError{Op: "Lap", Running: false}
	}
	t.laps++
	return nil
}

// PauseAndLap counts a lap and ends the current running interval.
func (t *Timer) PauseAndLap() error {
	if !t.running {
		return &StateError{Op: "PauseAndLap", Running: false}
	}
	t.laps++
	t.ticks += t.clock.Now()
	t.running = false
	return nil
}

// Pause ends the current running interval without counting it as a lap.
func (t *Timer) Pause() error {
	if !t.running {
		return &StateError{Op: "Pause", Running: false}
	}
	if err := t.PauseAndLap(); err != nil {
		return err
	}
	t.laps--
	return nil
}

// Stop counts a final lap, pauses, and returns the mean lap time in
// milliseconds.
func (t *Timer) Stop() (float64, error) {
	if err := t.PauseAndLap(); err != nil {
		return 0, err
	}
	return t.MeanLapTime()
}

// MeanLapTime returns the accumulated milliseconds divided by the lap count.
// The timer must be paused and at least one lap must have completed.
func (t *Timer) MeanLapTime() (float64, error) {
	if t.running {
		return 0, &StateError{Op: "MeanLapTime", Running: true}
	}
	if t.laps == 0 {
		return 0, ErrNoLaps
	}
	return t.clock.Millis(t.ticks) / float64(t.laps), nil
}

// Millisecs returns the total accumulated milliseconds. The timer must be
// paused.
func (t *Timer) Millisecs() (float64, error) {
	if t.running {
		return 0, &StateError{Op: "Millisecs", Running: true}
	}
	return t.clock.Millis(t.ticks), nil
}

// Laps returns the number of completed laps.
func (t *Timer) Laps() int { return t.laps }

// Running reports whether the timer is inside a running interval.
func (t *Timer) Running() bool { return t.running }

// String describes the timer state. Elapsed time is only shown when paused.
func (t *Timer) String() string {
	if t.running {
		return fmt.Sprintf("Timer{running, laps=%d}", t.laps)
	}
	return fmt.Sprintf("Timer{paused, laps=%d, elapsed=%.3fms}", t.laps, t.clock.Millis(t.ticks))
}

// Repeat calls fn n times, counting a lap after each call, and returns the
// mean lap time in milliseconds. The timer must be running on entry and is
// running again on return.
func (t *Timer) Repeat(n int, fn func()) (float64, error) {
	if n <= 0 {
		return 0, apperrors.NewValidationError("n", "repetitions must be positive", n)
	}
	t.logger.Debug("repeat", logging.Int("runs", n))
	for i := 0; i < n; i++ {
		fn()
		if err := t.Lap(); err != nil {
			return 0, err
		}
	}
	if err := t.Pause(); err != nil {
		return 0, err
	}
	mean, err := t.MeanLapTime()
	if err != nil {
		return 0, err
	}
	return mean, t.Resume()
}

// RepeatWith runs fn n times on fresh inputs from supplier and returns the
// mean lap time in milliseconds. Only the fn call is timed: supplier, pre
// and post run while the timer is paused. pre and post may be nil.
//
// The timer must be running on entry and is left paused on return; call
// Resume to continue timing. Any state or callback failure aborts the loop.
func RepeatWith[T, U any](t *Timer, n int, supplier func() T, fn func(T) U, pre func(T) T, post func(U)) (float64, error) {
	if n <= 0 {
		return 0, apperrors.NewValidationError("n", "repetitions must be positive", n)
	}
	if supplier == nil || fn == nil {
		return 0, apperrors.NewValidationError("fn", "supplier and function are required", nil)
	}
	t.logger.Debug("repeat with supplier", logging.Int("runs", n))
	for i := 0; i < n; i++ {
		if err := t.Pause(); err != nil {
			return 0, err
		}
		input := supplier()
		if pre != nil {
			input = pre(input)
		}
		if err := t.Resume(); err != nil {
			return 0, err
		}
		result := fn(input)
		if err := t.PauseAndLap(); err != nil {
			return 0, err
		}
		if post != nil {
			post(result)
		}
		if err := t.Resume(); err != nil {
			return 0, err
		}
	}
	if err := t.Pause(); err != nil {
		return 0, err
	}
	return t.MeanLapTime()
}
