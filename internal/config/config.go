// Package config parses the parsort command line into an AppConfig and turns
// it into a sweep plan.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	apperrors "github.com/agbru/parsort/internal/errors"
	"github.com/agbru/parsort/internal/logging"
	"github.com/agbru/parsort/internal/sequential"
	"github.com/agbru/parsort/internal/sweep"
)

// EnvPrefix is the prefix of every environment variable read by parsort.
const EnvPrefix = "PARSORT_"

// DefaultLogLevel keeps routine sweep logging off the console; the report
// printers already show progress.
const DefaultLogLevel = "warn"

// StdoutPath selects standard output for the -csv and -json exports.
const StdoutPath = "-"

// AppConfig holds everything the command line can set.
type AppConfig struct {
	// N is the number of elements per sort (-N or -n).
	N int
	// Bound is the exclusive upper bound of the generated values.
	Bound int
	// Parallelisms lists explicit pool sizes; empty means doubling up to
	// MaxParallelism.
	Parallelisms   IntList
	MaxParallelism int
	// Cutoffs lists explicit cutoff candidates; empty means the arithmetic
	// progression CutoffStart, CutoffStep, CutoffCount.
	Cutoffs       IntList
	CutoffStart   int
	CutoffStep    int
	CutoffCount   int
	Runs          int
	Warmup        int
	Seed          uint64
	Algo          string
	Timing        string
	Verify        bool
	Normalization float64
	// PlanFile is a YAML sweep plan. Flags set explicitly override it.
	PlanFile string

	// ShowParallelism prints the default parallelism and exits (-P).
	ShowParallelism bool
	// Verbose prints every sample as it is measured.
	Verbose bool
	Quiet   bool
	NoColor bool

	CSVOutput   string
	JSONOutput  string
	ProfilePath string
	SaveProfile bool

	MetricsAddr string
	LogLevel    string
	// LogJSON writes logs as JSON lines instead of console text.
	LogJSON bool
	// Timeout bounds the whole sweep; zero means no limit.
	Timeout time.Duration

	// Ignored lists unrecognised arguments dropped before parsing.
	Ignored []string

	explicit map[string]bool
}

// Validate checks the options that are not part of the sweep plan.
func (c AppConfig) Validate() error {
	if c.Timeout < 0 {
		return apperrors.NewConfigError("timeout cannot be negative: %v", c.Timeout)
	}
	if c.CSVOutput == StdoutPath && c.JSONOutput == StdoutPath {
		return apperrors.NewConfigError("-csv and -json cannot both write to standard output")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return apperrors.NewConfigError("invalid log level %q", c.LogLevel)
	}
	if _, err := sequential.ByName[int](c.Algo); err != nil {
		return apperrors.NewConfigError("unrecognized algorithm: '%s'. Valid algorithms are: [%s]",
			c.Algo, strings.Join(sequential.Names(), ", "))
	}
	if t := sweep.Timing(c.Timing); t != sweep.TimingBatch && t != sweep.TimingLap {
		return apperrors.NewConfigError("timing must be 'batch' or 'lap', got '%s'", c.Timing)
	}
	return nil
}

// ExportsToStdout reports whether an export writes to standard output, in
// which case the human-readable reports must go elsewhere.
func (c AppConfig) ExportsToStdout() bool {
	return c.CSVOutput == StdoutPath || c.JSONOutput == StdoutPath
}

// IsSet reports whether any of the named flags was given on the command
// line or through its environment variable.
func (c AppConfig) IsSet(names ...string) bool {
	for _, n := range names {
		if c.explicit[n] {
			return true
		}
	}
	return false
}

// ToPlan builds the sweep plan. Without a plan file every option applies;
// with one, only options set explicitly override the file.
func (c AppConfig) ToPlan() (sweep.Plan, error) {
	plan := sweep.DefaultPlan()
	if c.PlanFile != "" {
		loaded, err := sweep.LoadPlan(c.PlanFile)
		if err != nil {
			return sweep.Plan{}, err
		}
		plan = loaded
	}
	use := func(names ...string) bool { return c.PlanFile == "" || c.IsSet(names...) }

	if use("N", "n") {
		plan.Size = c.N
	}
	if use("bound") {
		plan.Bound = c.Bound
	}
	if use("parallelism") {
		plan.Parallelisms = c.Parallelisms
	}
	if use("max-parallelism") {
		plan.MaxParallelism = c.MaxParallelism
	}
	if use("cutoffs") {
		plan.Cutoffs = c.Cutoffs
	}
	if use("cutoff-start") {
		plan.CutoffStart = c.CutoffStart
	}
	if use("cutoff-step") {
		plan.CutoffStep = c.CutoffStep
	}
	if use("cutoff-count") {
		plan.CutoffCount = c.CutoffCount
	}
	if use("runs") {
		plan.Runs = c.Runs
	}
	if use("warmup") {
		plan.Warmup = c.Warmup
	}
	if use("seed") {
		plan.Seed = c.Seed
	}
	if use("algo") {
		plan.Algorithm = c.Algo
	}
	if use("timing") {
		plan.Timing = sweep.Timing(c.Timing)
	}
	if use("verify") {
		plan.Verify = c.Verify
	}
	if use("normalization") {
		plan.Normalization = c.Normalization
	}
	if err := plan.Validate(); err != nil {
		return sweep.Plan{}, apperrors.NewConfigError("invalid sweep plan: %v", err)
	}
	return plan, nil
}

func newFlagSet(programName string, config *AppConfig) *flag.FlagSet {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	def := sweep.DefaultPlan()

	fs.IntVar(&config.N, "N", def.Size, "Number of elements sorted per run.")
	fs.IntVar(&config.N, "n", def.Size, "Alias for -N.")
	fs.IntVar(&config.Bound, "bound", def.Bound, "Exclusive upper bound of generated values.")
	fs.Var(&config.Parallelisms, "parallelism", "Comma-separated pool sizes (default: powers of two up to -max-parallelism).")
	fs.IntVar(&config.MaxParallelism, "max-parallelism", def.MaxParallelism, "Largest pool size when -parallelism is not given.")
	fs.Var(&config.Cutoffs, "cutoffs", "Comma-separated cutoff candidates (default: the -cutoff-start progression).")
	fs.IntVar(&config.CutoffStart, "cutoff-start", def.CutoffStart, "First cutoff candidate.")
	fs.IntVar(&config.CutoffStep, "cutoff-step", def.CutoffStep, "Spacing between cutoff candidates.")
	fs.IntVar(&config.CutoffCount, "cutoff-count", def.CutoffCount, "Number of cutoff candidates.")
	fs.IntVar(&config.Runs, "runs", def.Runs, "Timed sorts per configuration.")
	fs.IntVar(&config.Warmup, "warmup", def.Warmup, "Untimed sorts before each configuration.")
	fs.Uint64Var(&config.Seed, "seed", def.Seed, "Seed of the input generator.")
	fs.StringVar(&config.Algo, "algo", def.Algorithm, fmt.Sprintf("Sequential sort below the cutoff: one of [%s].", strings.Join(sequential.Names(), ", ")))
	fs.StringVar(&config.Timing, "timing", string(def.Timing), "Timing mode: 'batch' (whole batch, input generation included) or 'lap' (sorts only).")
	fs.BoolVar(&config.Verify, "verify", def.Verify, "Check that every measured sort produced sorted output.")
	fs.Float64Var(&config.Normalization, "normalization", def.Normalization, "CSV x scale: x = cutoff / (2 * normalization).")
	fs.StringVar(&config.PlanFile, "plan", "", "YAML sweep plan; explicit flags override it.")

	fs.BoolVar(&config.ShowParallelism, "P", false, "Print the default degree of parallelism and exit.")
	fs.BoolVar(&config.Verbose, "v", false, "Print every sample as it is measured.")
	fs.BoolVar(&config.Quiet, "quiet", false, "Suppress progress and reports.")
	fs.BoolVar(&config.Quiet, "q", false, "Alias for -quiet.")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable colored output (also respects NO_COLOR).")

	fs.StringVar(&config.CSVOutput, "csv", "", "Write x,y CSV rows to this file ('-' for stdout; reports then go to stderr).")
	fs.StringVar(&config.JSONOutput, "json", "", "Write the full result as JSON to this file ('-' for stdout; reports then go to stderr).")
	fs.StringVar(&config.ProfilePath, "profile", "", "Tuning profile path (default: ~/.parsort_profile.json).")
	fs.BoolVar(&config.SaveProfile, "save-profile", false, "Save the best cutoff per parallelism to the profile.")

	fs.StringVar(&config.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address during the sweep (e.g. :9090).")
	fs.StringVar(&config.LogLevel, "log-level", DefaultLogLevel, "Log level: debug, info, warn, error.")
	fs.BoolVar(&config.LogJSON, "log-json", false, "Write logs as JSON lines.")
	fs.DurationVar(&config.Timeout, "timeout", 0, "Maximum duration of the sweep (0 for no limit).")
	return fs
}

// ParseConfig parses args into an AppConfig. Unrecognised flags are dropped
// and reported on errorWriter; malformed values of known flags fail.
// Environment variables fill in flags not given on the command line.
func ParseConfig(programName string, args []string, errorWriter io.Writer) (AppConfig, error) {
	config := AppConfig{explicit: make(map[string]bool)}
	fs := newFlagSet(programName, &config)
	fs.SetOutput(errorWriter)
	setCustomUsage(fs)

	kept, ignored := filterUnknown(fs, args)
	for _, arg := range ignored {
		fmt.Fprintf(errorWriter, "ignoring unrecognized argument %q\n", arg)
	}
	config.Ignored = ignored

	if err := fs.Parse(kept); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return AppConfig{}, err
		}
		return AppConfig{}, apperrors.NewConfigError("%v", err)
	}
	fs.Visit(func(f *flag.Flag) { config.explicit[f.Name] = true })

	if err := applyEnvOverrides(&config, fs); err != nil {
		return AppConfig{}, err
	}

	config.Algo = strings.ToLower(config.Algo)
	config.Timing = strings.ToLower(config.Timing)
	if err := config.Validate(); err != nil {
		fmt.Fprintln(errorWriter, "Configuration error:", err)
		fs.Usage()
		return AppConfig{}, err
	}
	return config, nil
}
