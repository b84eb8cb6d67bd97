package sweep

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"time"

	"golang.org/x/sys/cpu"
)

const (
	// CurrentProfileVersion is bumped on incompatible format changes.
	CurrentProfileVersion = 1

	// DefaultProfileFileName is the profile file name in the home directory.
	DefaultProfileFileName = ".parsort_profile.json"

	// DefaultProfileMaxAge is how long a stored profile is trusted.
	DefaultProfileMaxAge = 30 * 24 * time.Hour
)

// LevelCutoff is the best cutoff measured at one parallelism level.
type LevelCutoff struct {
	Parallelism int     `json:"parallelism"`
	Cutoff      int     `json:"cutoff"`
	PerRunMs    float64 `json:"per_run_ms"`
}

// Profile persists the outcome of a sweep together with the hardware it
// was measured on, so later runs can reuse tuned cutoffs.
type Profile struct {
	CPUModel    string   `json:"cpu_model"`
	NumCPU      int      `json:"num_cpu"`
	GOARCH      string   `json:"goarch"`
	GOOS        string   `json:"goos"`
	GoVersion   string   `json:"go_version"`
	WordSize    int      `json:"word_size"`
	CPUFeatures []string `json:"cpu_features,omitempty"`

	Size      int           `json:"size"`
	Algorithm string        `json:"algorithm"`
	Levels    []LevelCutoff `json:"levels"`

	RunID          string    `json:"run_id"`
	CreatedAt      time.Time `json:"created_at"`
	ProfileVersion int       `json:"profile_version"`
}

// DefaultProfilePath returns the profile path in the user's home directory,
// or the bare file name when the home directory is unknown.
func DefaultProfilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultProfileFileName
	}
	return filepath.Join(home, DefaultProfileFileName)
}

// NewProfile returns an empty profile stamped with the current hardware.
func NewProfile() *Profile {
	return &Profile{
		CPUModel:       fmt.Sprintf("%s-%d-cores", runtime.GOARCH, runtime.NumCPU()),
		NumCPU:         runtime.NumCPU(),
		GOARCH:         runtime.GOARCH,
		GOOS:           runtime.GOOS,
		GoVersion:      runtime.Version(),
		WordSize:       32 << (^uint(0) >> 63),
		CPUFeatures:    cpuFeatures(),
		CreatedAt:      time.Now(),
		ProfileVersion: CurrentProfileVersion,
	}
}

// ProfileFromResult records the best cutoff of every level that produced
// at least one sample.
func ProfileFromResult(res *Result) *Profile {
	p := NewProfile()
	p.RunID = res.RunID
	p.Size = res.Plan.Size
	p.Algorithm = res.Plan.Algorithm
	for _, s := range res.Summaries {
		if s.Samples == 0 {
			continue
		}
		p.Levels = append(p.Levels, LevelCutoff{
			Parallelism: s.Parallelism,
			Cutoff:      s.BestCutoff,
			PerRunMs:    s.MinMs,
		})
	}
	return p
}

// cpuFeatures lists the SIMD features relevant to memory-bound sorting.
func cpuFeatures() []string {
	var fs []string
	add := func(ok bool, name string) {
		if ok {
			fs = append(fs, name)
		}
	}
	add(cpu.X86.HasAVX2, "avx2")
	add(cpu.X86.HasAVX512F, "avx512f")
	add(cpu.X86.HasBMI2, "bmi2")
	add(cpu.X86.HasERMS, "erms")
	add(cpu.ARM64.HasASIMD, "asimd")
	add(cpu.ARM64.HasSVE, "sve")
	return fs
}

// LoadProfile reads a profile from path (DefaultProfilePath when empty).
func LoadProfile(path string) (*Profile, error) {
	if path == "" {
		path = DefaultProfilePath()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	return &p, nil
}

// Save writes the profile to path (DefaultProfilePath when empty).
func (p *Profile) Save(path string) error {
	if path == "" {
		path = DefaultProfilePath()
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}

// IsValid reports whether the profile was measured on hardware matching
// the current machine.
func (p *Profile) IsValid() bool {
	if p == nil || p.ProfileVersion != CurrentProfileVersion {
		return false
	}
	return p.NumCPU == runtime.NumCPU() &&
		p.GOARCH == runtime.GOARCH &&
		p.WordSize == 32<<(^uint(0)>>63) &&
		slices.Equal(p.CPUFeatures, cpuFeatures())
}

// IsStale reports whether the profile is older than maxAge.
func (p *Profile) IsStale(maxAge time.Duration) bool {
	return p == nil || time.Since(p.CreatedAt) > maxAge
}

// CutoffFor returns the tuned cutoff for a parallelism level. Without an
// exact match it uses the largest measured level below parallelism, or the
// smallest level when all are above it.
func (p *Profile) CutoffFor(parallelism int) (int, bool) {
	if p == nil || len(p.Levels) == 0 {
		return 0, false
	}
	var below, lowest *LevelCutoff
	for i := range p.Levels {
		l := &p.Levels[i]
		if l.Parallelism == parallelism {
			return l.Cutoff, true
		}
		if l.Parallelism < parallelism && (below == nil || l.Parallelism > below.Parallelism) {
			below = l
		}
		if lowest == nil || l.Parallelism < lowest.Parallelism {
			lowest = l
		}
	}
	if below != nil {
		return below.Cutoff, true
	}
	return lowest.Cutoff, true
}

// String returns a one-line description of the profile.
func (p *Profile) String() string {
	if p == nil {
		return "<nil profile>"
	}
	return fmt.Sprintf("Profile{CPU: %s, Size: %d, Levels: %d, Created: %s}",
		p.CPUModel, p.Size, len(p.Levels), p.CreatedAt.Format(time.RFC3339))
}

// LoadOrCreateProfile loads the profile at path, or returns a fresh one
// when it is missing or was measured on different hardware. loaded reports
// which case applied.
func LoadOrCreateProfile(path string) (p *Profile, loaded bool) {
	p, err := LoadProfile(path)
	if err != nil || !p.IsValid() {
		return NewProfile(), false
	}
	return p, true
}

// UpdateProfile records the best cutoffs of res in the profile at path
// (DefaultProfilePath when empty) and saves it. Levels of a stored profile
// for the same hardware, size and algorithm that res did not measure are
// kept; anything else is replaced.
func UpdateProfile(path string, res *Result) (*Profile, error) {
	if path == "" {
		path = DefaultProfilePath()
	}
	stored, loaded := LoadOrCreateProfile(path)
	next := ProfileFromResult(res)
	if loaded && stored.Size == next.Size && stored.Algorithm == next.Algorithm {
		next.Levels = mergeLevels(stored.Levels, next.Levels)
	}
	if err := next.Save(path); err != nil {
		return nil, err
	}
	return next, nil
}

// mergeLevels overlays fresh on old by parallelism, sorted by parallelism.
func mergeLevels(old, fresh []LevelCutoff) []LevelCutoff {
	merged := slices.Clone(fresh)
	for _, l := range old {
		if !slices.ContainsFunc(fresh, func(f LevelCutoff) bool { return f.Parallelism == l.Parallelism }) {
			merged = append(merged, l)
		}
	}
	slices.SortFunc(merged, func(a, b LevelCutoff) int { return a.Parallelism - b.Parallelism })
	return merged
}
