// Package parallel provides the fork-join worker pool used by the sort
// engine, together with small helpers for collecting errors from
// concurrent work.
package parallel

import (
	"errors"
	"fmt"
	"sync"
)

// ErrPoolClosed is returned at the join point of any task submitted to a
// pool that has been closed.
var ErrPoolClosed = errors.New("parallel: pool is closed")

// PanicError carries a panic recovered from a task so it can be surfaced at
// the join point instead of crashing a worker.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("parallel: task panicked: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// ErrorCollector collects the first error from parallel goroutines.
// It is thread-safe and can be used by multiple goroutines simultaneously.
//
// Usage:
//
//	var ec parallel.ErrorCollector
//	ec.SetError(scope.Join(left))
//	ec.SetError(rightErr)
//	if err := ec.Err(); err != nil {
//	    return err
//	}
type ErrorCollector struct {
	once sync.Once
	err  error
}

// SetError records an error if one hasn't been recorded yet.
// Nil errors are ignored. This method is thread-safe.
func (c *ErrorCollector) SetError(err error) {
	if err != nil {
		c.once.Do(func() {
			c.err = err
		})
	}
}

// Err returns the first recorded error, or nil if no error was recorded.
// It should be called after all contributing goroutines have completed.
func (c *ErrorCollector) Err() error {
	return c.err
}
