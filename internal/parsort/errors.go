package parsort

import "fmt"

// RangeError reports a [Lo, Hi) range that does not fit a slice of length
// Len. It is returned before any work is scheduled.
type RangeError struct {
	Lo, Hi, Len int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("parsort: invalid range [%d, %d) for length %d", e.Lo, e.Hi, e.Len)
}

func checkRange(n, lo, hi int) error {
	if lo < 0 || hi > n || lo > hi {
		return &RangeError{Lo: lo, Hi: hi, Len: n}
	}
	return nil
}
