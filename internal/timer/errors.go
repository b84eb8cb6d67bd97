package timer

import (
	"errors"
	"fmt"
)

var (
	// ErrRunning is matched by operations that require a paused timer.
	ErrRunning = errors.New("timer is running")
	// ErrNotRunning is matched by operations that require a running timer.
	ErrNotRunning = errors.New("timer is not running")
	// ErrNoLaps is returned when a mean is requested before any lap completed.
	ErrNoLaps = errors.New("timer has no completed laps")
)

// StateError reports an operation attempted in the wrong timer state.
type StateError struct {
	// Op is the operation that was attempted (e.g. "Lap").
	Op string
	// Running is the state the timer was in.
	Running bool
}

func (e *StateError) Error() string {
	return fmt.Sprintf("timer.%s: %v", e.Op, e.Unwrap())
}

// Unwrap returns ErrRunning or ErrNotRunning.
func (e *StateError) Unwrap() error {
	if e.Running {
		return ErrRunning
	}
	return ErrNotRunning
}
