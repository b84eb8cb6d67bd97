// Package sequential holds the single-threaded sort routines the parallel
// engine hands sub-ranges to once they fall below the cutoff.
package sequential

import (
	"cmp"
	"fmt"
	"slices"
)

// Func sorts xs in place, ascending. Implementations must not retain xs.
type Func[T cmp.Ordered] func(xs []T)

// Standard sorts with slices.Sort (pattern-defeating quicksort).
func Standard[T cmp.Ordered](xs []T) {
	slices.Sort(xs)
}

// Insertion is a plain insertion sort. It is quadratic and only sensible for
// small cutoffs, which is what makes it interesting in a sweep.
func Insertion[T cmp.Ordered](xs []T) {
	for i := 1; i < len(xs); i++ {
		v := xs[i]
		j := i
		for j > 0 && cmp.Less(v, xs[j-1]) {
			xs[j] = xs[j-1]
			j--
		}
		xs[j] = v
	}
}

// Heap is an in-place heapsort.
func Heap[T cmp.Ordered](xs []T) {
	n := len(xs)
	for i := n/2 - 1; i >= 0; i-- {
		siftDown(xs, i, n)
	}
	for end := n - 1; end > 0; end-- {
		xs[0], xs[end] = xs[end], xs[0]
		siftDown(xs, 0, end)
	}
}

func siftDown[T cmp.Ordered](xs []T, root, n int) {
	for {
		child := 2*root + 1
		if child >= n {
			return
		}
		if child+1 < n && cmp.Less(xs[child], xs[child+1]) {
			child++
		}
		if !cmp.Less(xs[root], xs[child]) {
			return
		}
		xs[root], xs[child] = xs[child], xs[root]
		root = child
	}
}

// Names lists the algorithms accepted by ByName, sorted.
func Names() []string {
	return []string{"heap", "insertion", "std"}
}

// ByName returns the algorithm registered under name.
func ByName[T cmp.Ordered](name string) (Func[T], error) {
	switch name {
	case "", "std":
		return Standard[T], nil
	case "insertion":
		return Insertion[T], nil
	case "heap":
		return Heap[T], nil
	default:
		return nil, fmt.Errorf("unknown sequential algorithm %q (available: %v)", name, Names())
	}
}
