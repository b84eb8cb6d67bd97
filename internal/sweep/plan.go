package sweep

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	apperrors "github.com/agbru/parsort/internal/errors"
	"github.com/agbru/parsort/internal/sequential"
)

// Timing selects how a batch of runs is measured.
type Timing string

const (
	// TimingBatch reads the clock once before and once after the whole
	// batch, input regeneration included.
	TimingBatch Timing = "batch"
	// TimingLap times each sort on its own with a Timer, excluding input
	// generation and verification.
	TimingLap Timing = "lap"
)

// Plan describes the parameter grid of a sweep.
type Plan struct {
	// Size is the number of elements sorted per run.
	Size int `yaml:"size" json:"size"`
	// Bound is the exclusive upper bound of generated values.
	Bound int `yaml:"bound" json:"bound"`

	// Parallelisms lists the pool sizes to try. When empty, powers of two
	// from 1 up to MaxParallelism are used.
	Parallelisms   []int `yaml:"parallelisms,omitempty" json:"parallelisms,omitempty"`
	MaxParallelism int   `yaml:"max_parallelism" json:"max_parallelism"`

	// Cutoffs lists the cutoff candidates. When empty, CutoffCount values
	// starting at CutoffStart spaced CutoffStep apart are used.
	Cutoffs     []int `yaml:"cutoffs,omitempty" json:"cutoffs,omitempty"`
	CutoffStart int   `yaml:"cutoff_start" json:"cutoff_start"`
	CutoffStep  int   `yaml:"cutoff_step" json:"cutoff_step"`
	CutoffCount int   `yaml:"cutoff_count" json:"cutoff_count"`

	// Runs is the number of timed sorts per configuration.
	Runs int `yaml:"runs" json:"runs"`
	// Warmup is the number of untimed sorts before the timed batch.
	Warmup int `yaml:"warmup" json:"warmup"`

	Seed      uint64 `yaml:"seed" json:"seed"`
	Algorithm string `yaml:"algorithm" json:"algorithm"`
	Timing    Timing `yaml:"timing" json:"timing"`
	// Verify checks sort output and records unsorted results as failures.
	Verify bool `yaml:"verify" json:"verify"`

	// Normalization scales cutoffs for CSV output: x = cutoff / (2 * Normalization).
	Normalization float64 `yaml:"normalization" json:"normalization"`
}

// DefaultPlan returns the full-size sweep: 10,000,000 values below
// 10,000,000, parallelism 1 to 32, cutoffs 510,000 to 1,000,000 in steps of
// 10,000, twenty runs each.
func DefaultPlan() Plan {
	return Plan{
		Size:           10_000_000,
		Bound:          10_000_000,
		MaxParallelism: 32,
		CutoffStart:    510_000,
		CutoffStep:     10_000,
		CutoffCount:    50,
		Runs:           20,
		Seed:           1,
		Algorithm:      "std",
		Timing:         TimingBatch,
		Normalization:  1_000_000,
	}
}

// Validate reports the first invalid field.
func (p Plan) Validate() error {
	switch {
	case p.Size < 1:
		return apperrors.NewValidationError("size", "must be at least 1", p.Size)
	case p.Bound < 1:
		return apperrors.NewValidationError("bound", "must be at least 1", p.Bound)
	case len(p.Parallelisms) == 0 && p.MaxParallelism < 1:
		return apperrors.NewValidationError("max_parallelism", "must be at least 1", p.MaxParallelism)
	case len(p.Cutoffs) == 0 && p.CutoffStart < 1:
		return apperrors.NewValidationError("cutoff_start", "must be at least 1", p.CutoffStart)
	case len(p.Cutoffs) == 0 && p.CutoffStep < 1:
		return apperrors.NewValidationError("cutoff_step", "must be at least 1", p.CutoffStep)
	case len(p.Cutoffs) == 0 && p.CutoffCount < 1:
		return apperrors.NewValidationError("cutoff_count", "must be at least 1", p.CutoffCount)
	case p.Runs < 1:
		return apperrors.NewValidationError("runs", "must be at least 1", p.Runs)
	case p.Warmup < 0:
		return apperrors.NewValidationError("warmup", "must not be negative", p.Warmup)
	case p.Normalization <= 0:
		return apperrors.NewValidationError("normalization", "must be positive", p.Normalization)
	case p.Timing != TimingBatch && p.Timing != TimingLap:
		return apperrors.NewValidationError("timing", `must be "batch" or "lap"`, p.Timing)
	}
	for _, n := range p.Parallelisms {
		if n < 1 {
			return apperrors.NewValidationError("parallelisms", "entries must be at least 1", n)
		}
	}
	for _, c := range p.Cutoffs {
		if c < 1 {
			return apperrors.NewValidationError("cutoffs", "entries must be at least 1", c)
		}
	}
	if _, err := sequential.ByName[int](p.Algorithm); err != nil {
		return apperrors.NewValidationError("algorithm", err.Error(), p.Algorithm)
	}
	return nil
}

// ParallelismLevels returns the pool sizes in sweep order.
func (p Plan) ParallelismLevels() []int {
	if len(p.Parallelisms) > 0 {
		return slices.Clone(p.Parallelisms)
	}
	var levels []int
	for n := 1; n <= p.MaxParallelism; n *= 2 {
		levels = append(levels, n)
	}
	return levels
}

// CutoffCandidates returns the cutoffs in sweep order.
func (p Plan) CutoffCandidates() []int {
	if len(p.Cutoffs) > 0 {
		return slices.Clone(p.Cutoffs)
	}
	cutoffs := make([]int, p.CutoffCount)
	for i := range cutoffs {
		cutoffs[i] = p.CutoffStart + i*p.CutoffStep
	}
	return cutoffs
}

// Configurations returns the number of (parallelism, cutoff) pairs.
func (p Plan) Configurations() int {
	return len(p.ParallelismLevels()) * len(p.CutoffCandidates())
}

// LoadPlan reads a YAML plan from path. Fields absent from the file keep
// their DefaultPlan values; unknown fields are rejected.
func LoadPlan(path string) (Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return Plan{}, fmt.Errorf("open plan: %w", err)
	}
	defer f.Close()
	return DecodePlan(f)
}

// DecodePlan reads a YAML plan from r on top of DefaultPlan.
func DecodePlan(r io.Reader) (Plan, error) {
	plan := DefaultPlan()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&plan); err != nil && !errors.Is(err, io.EOF) {
		return Plan{}, apperrors.NewConfigError("invalid plan: %v", err)
	}
	if err := plan.Validate(); err != nil {
		return Plan{}, err
	}
	return plan, nil
}
