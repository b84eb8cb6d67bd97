package sweep

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/agbru/parsort/internal/errors"
)

func TestDefaultPlanShape(t *testing.T) {
	t.Parallel()
	p := DefaultPlan()
	require.NoError(t, p.Validate())

	assert.Equal(t, []int{1, 2, 4, 8, 16, 32}, p.ParallelismLevels())
	cutoffs := p.CutoffCandidates()
	require.Len(t, cutoffs, 50)
	assert.Equal(t, 510_000, cutoffs[0])
	assert.Equal(t, 1_000_000, cutoffs[len(cutoffs)-1])
	assert.Equal(t, 300, p.Configurations())
}

func TestExplicitListsWin(t *testing.T) {
	t.Parallel()
	p := DefaultPlan()
	p.Parallelisms = []int{3, 1}
	p.Cutoffs = []int{7, 5}
	assert.Equal(t, []int{3, 1}, p.ParallelismLevels())
	assert.Equal(t, []int{7, 5}, p.CutoffCandidates())

	// Returned slices are copies.
	p.ParallelismLevels()[0] = 99
	assert.Equal(t, 3, p.Parallelisms[0])
}

func TestNonPowerOfTwoMax(t *testing.T) {
	t.Parallel()
	p := DefaultPlan()
	p.MaxParallelism = 6
	assert.Equal(t, []int{1, 2, 4}, p.ParallelismLevels())
}

func TestValidateRejects(t *testing.T) {
	t.Parallel()
	tests := []struct {
		field  string
		mutate func(*Plan)
	}{
		{"size", func(p *Plan) { p.Size = 0 }},
		{"bound", func(p *Plan) { p.Bound = 0 }},
		{"max_parallelism", func(p *Plan) { p.MaxParallelism = 0 }},
		{"parallelisms", func(p *Plan) { p.Parallelisms = []int{2, 0} }},
		{"cutoff_start", func(p *Plan) { p.CutoffStart = 0 }},
		{"cutoff_step", func(p *Plan) { p.CutoffStep = -1 }},
		{"cutoff_count", func(p *Plan) { p.CutoffCount = 0 }},
		{"cutoffs", func(p *Plan) { p.Cutoffs = []int{0} }},
		{"runs", func(p *Plan) { p.Runs = 0 }},
		{"warmup", func(p *Plan) { p.Warmup = -1 }},
		{"normalization", func(p *Plan) { p.Normalization = 0 }},
		{"timing", func(p *Plan) { p.Timing = "wall" }},
		{"algorithm", func(p *Plan) { p.Algorithm = "bogo" }},
	}
	for _, tc := range tests {
		t.Run(tc.field, func(t *testing.T) {
			t.Parallel()
			p := DefaultPlan()
			tc.mutate(&p)
			var ve apperrors.ValidationError
			require.ErrorAs(t, p.Validate(), &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestDecodePlanOverlaysDefaults(t *testing.T) {
	t.Parallel()
	src := `
size: 5000
parallelisms: [1, 4]
cutoffs: [100, 200]
runs: 3
timing: lap
verify: true
`
	p, err := DecodePlan(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, 5000, p.Size)
	assert.Equal(t, []int{1, 4}, p.ParallelismLevels())
	assert.Equal(t, []int{100, 200}, p.CutoffCandidates())
	assert.Equal(t, TimingLap, p.Timing)
	assert.True(t, p.Verify)
	assert.Equal(t, 10_000_000, p.Bound, "unset fields keep defaults")
	assert.Equal(t, 1_000_000.0, p.Normalization)
}

func TestDecodePlanEmptyIsDefault(t *testing.T) {
	t.Parallel()
	p, err := DecodePlan(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultPlan(), p)
}

func TestDecodePlanErrors(t *testing.T) {
	t.Parallel()
	_, err := DecodePlan(strings.NewReader("threads: 4\n"))
	var ce apperrors.ConfigError
	assert.True(t, errors.As(err, &ce), "unknown field should be a config error, got %v", err)

	_, err = DecodePlan(strings.NewReader("runs: 0\n"))
	var ve apperrors.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestLoadPlan(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("size: 64\nmax_parallelism: 2\n"), 0o600))

	p, err := LoadPlan(path)
	require.NoError(t, err)
	assert.Equal(t, 64, p.Size)
	assert.Equal(t, []int{1, 2}, p.ParallelismLevels())

	_, err = LoadPlan(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
