package sweep

import (
	"time"

	apperrors "github.com/agbru/parsort/internal/errors"
)

// Sample is the measurement of one (parallelism, cutoff) configuration.
type Sample struct {
	Parallelism int `json:"parallelism"`
	Cutoff      int `json:"cutoff"`
	// PerRunMs is the estimated cost of one sort in milliseconds.
	PerRunMs float64 `json:"per_run_ms"`
	// TotalMs is the measured time of the whole batch.
	TotalMs float64 `json:"total_ms"`
	// Runs is the number of timed sorts that TotalMs covers.
	Runs int `json:"runs"`
}

// Failure records a configuration that produced no sample.
type Failure struct {
	Parallelism int    `json:"parallelism"`
	Cutoff      int    `json:"cutoff"`
	Err         error  `json:"-"`
	Message     string `json:"error"`
}

// Summary aggregates the samples of one parallelism level.
type Summary struct {
	Parallelism int `json:"parallelism"`
	// MinMs is the fastest per-run time, reached at BestCutoff.
	MinMs      float64 `json:"min_ms"`
	BestCutoff int     `json:"best_cutoff"`
	// MeanMs averages the per-run time over all successful samples.
	MeanMs   float64 `json:"mean_ms"`
	Samples  int     `json:"samples"`
	Failures int     `json:"failures"`
}

// Result is the outcome of a sweep.
type Result struct {
	RunID     string    `json:"run_id"`
	Plan      Plan      `json:"plan"`
	Started   time.Time `json:"started"`
	Finished  time.Time `json:"finished"`
	Samples   []Sample  `json:"samples"`
	Summaries []Summary `json:"summaries"`
	Failures  []Failure `json:"failures,omitempty"`
}

// Best returns the fastest sample overall. ok is false when the sweep has
// no successful sample.
func (r *Result) Best() (best Sample, ok bool) {
	for i, s := range r.Samples {
		if i == 0 || s.PerRunMs < best.PerRunMs {
			best = s
		}
	}
	return best, len(r.Samples) > 0
}

// Duration is the wall time of the sweep.
func (r *Result) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Err returns a PartialFailureError when some configurations failed.
func (r *Result) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	return apperrors.PartialFailureError{
		Failed: len(r.Failures),
		Total:  len(r.Failures) + len(r.Samples),
	}
}

// summarize builds the summary of one level. Ties on the minimum go to the
// earlier cutoff.
func summarize(parallelism int, samples []Sample, failures int) Summary {
	s := Summary{Parallelism: parallelism, Samples: len(samples), Failures: failures}
	if len(samples) == 0 {
		return s
	}
	var sum float64
	for i, smp := range samples {
		sum += smp.PerRunMs
		if i == 0 || smp.PerRunMs < s.MinMs {
			s.MinMs = smp.PerRunMs
			s.BestCutoff = smp.Cutoff
		}
	}
	s.MeanMs = sum / float64(len(samples))
	return s
}
