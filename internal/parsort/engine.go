// Package parsort implements a parallel divide-and-conquer merge sort on top
// of the fork-join worker pool.
//
// A range is split in half until a piece is no longer than the configured
// cutoff; such pieces are handed to a sequential sort and the sorted halves
// are merged on the way back up. The cutoff is the tuning parameter the sweep
// driver searches over.
package parsort

import (
	"cmp"
	"errors"

	"github.com/rs/zerolog"

	apperrors "github.com/agbru/parsort/internal/errors"
	"github.com/agbru/parsort/internal/parallel"
	"github.com/agbru/parsort/internal/sequential"
)

// ErrNilPool is returned by New when no pool is supplied.
var ErrNilPool = errors.New("parsort: nil worker pool")

// Config holds the per-engine tuning knobs.
type Config[T cmp.Ordered] struct {
	// Cutoff is the largest range sorted sequentially. Must be at least 1.
	Cutoff int
	// Sequential sorts ranges at or below Cutoff. Defaults to
	// sequential.Standard.
	Sequential sequential.Func[T]
	// Logger receives debug events. Nil discards them.
	Logger *zerolog.Logger
}

// Engine sorts slices in parallel using a shared worker pool. An Engine is
// safe for concurrent use if its Sequential function is.
type Engine[T cmp.Ordered] struct {
	pool *parallel.Pool
	cfg  Config[T]
	log  zerolog.Logger
}

// New returns an engine that runs on pool with cfg.
func New[T cmp.Ordered](pool *parallel.Pool, cfg Config[T]) (*Engine[T], error) {
	if pool == nil {
		return nil, ErrNilPool
	}
	if cfg.Cutoff < 1 {
		return nil, apperrors.NewValidationError("cutoff", "must be at least 1", cfg.Cutoff)
	}
	if cfg.Sequential == nil {
		cfg.Sequential = sequential.Standard[T]
	}
	e := &Engine[T]{pool: pool, cfg: cfg, log: zerolog.Nop()}
	if cfg.Logger != nil {
		e.log = *cfg.Logger
	}
	return e, nil
}

// Cutoff returns the engine's sequential threshold.
func (e *Engine[T]) Cutoff() int { return e.cfg.Cutoff }

// Parallelism returns the number of workers of the underlying pool.
func (e *Engine[T]) Parallelism() int { return e.pool.Parallelism() }

// SortAll sorts the whole of data.
func (e *Engine[T]) SortAll(data []T) error {
	return e.Sort(data, 0, len(data))
}

// Sort sorts data[lo:hi] in place and returns once every subtask has
// finished. Elements outside the range are not touched. On error the range
// contents are unspecified and must not be treated as sorted.
func (e *Engine[T]) Sort(data []T, lo, hi int) error {
	if err := checkRange(len(data), lo, hi); err != nil {
		return err
	}
	n := hi - lo
	e.log.Debug().
		Int("n", n).
		Int("cutoff", e.cfg.Cutoff).
		Int("parallelism", e.pool.Parallelism()).
		Msg("parallel sort started")

	var root span[T]
	if n <= e.cfg.Cutoff {
		root = span[T]{data: data[lo:hi:hi]}
	} else {
		root = newSpan(data, lo, hi)
	}
	err := e.pool.Invoke(func(s *parallel.Scope) error {
		return e.sort(s, root)
	})
	if err != nil {
		e.log.Debug().Err(err).Int("n", n).Msg("parallel sort failed")
	}
	return err
}

func (e *Engine[T]) sort(s *parallel.Scope, sp span[T]) error {
	if sp.len() <= e.cfg.Cutoff {
		e.cfg.Sequential(sp.data)
		return nil
	}
	left, right, mid := sp.split()
	err := s.Both(
		func(s *parallel.Scope) error { return e.sort(s, left) },
		func(s *parallel.Scope) error { return e.sort(s, right) },
	)
	if err != nil {
		return err
	}
	sp.merge(mid)
	return nil
}
