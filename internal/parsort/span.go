package parsort

import "cmp"

// span is one sort task's view of the input: the elements it owns and an
// equally sized slice of scratch space for the merge. Both are capped with
// full slice expressions, so a span cannot reach its sibling's elements.
type span[T cmp.Ordered] struct {
	data []T
	buf  []T
}

func newSpan[T cmp.Ordered](data []T, lo, hi int) span[T] {
	return span[T]{data: data[lo:hi:hi], buf: make([]T, hi-lo)}
}

func (s span[T]) len() int { return len(s.data) }

// split divides s at its midpoint. The halves are disjoint.
func (s span[T]) split() (left, right span[T], mid int) {
	mid = len(s.data) / 2
	left = span[T]{data: s.data[:mid:mid], buf: s.buf[:mid:mid]}
	right = span[T]{data: s.data[mid:], buf: s.buf[mid:]}
	return left, right, mid
}

// merge combines the sorted halves s.data[:mid] and s.data[mid:] in place.
// Equal elements keep their left-before-right order.
func (s span[T]) merge(mid int) {
	data := s.data
	if mid == 0 || mid == len(data) || cmp.Compare(data[mid-1], data[mid]) <= 0 {
		return
	}
	buf := s.buf
	copy(buf, data)
	i, j, k := 0, mid, 0
	for i < mid && j < len(buf) {
		if cmp.Less(buf[j], buf[i]) {
			data[k] = buf[j]
			j++
		} else {
			data[k] = buf[i]
			i++
		}
		k++
	}
	// Any right-half tail is already in place.
	copy(data[k:], buf[i:mid])
}
