// Package cli renders sweep results for the terminal and exports them as
// CSV and JSON.
package cli

import (
	"fmt"
	"io"
	"runtime"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/agbru/parsort/internal/sweep"
	"github.com/agbru/parsort/internal/ui"
)

// FormatExecutionDuration formats d as µs below a millisecond, ms below a
// second, and with time.Duration's own format otherwise.
func FormatExecutionDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	} else if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.String()
}

// FormatMillis formats a millisecond figure with a precision suited to its
// magnitude.
func FormatMillis(ms float64) string {
	switch {
	case ms < 1:
		return fmt.Sprintf("%.3fms", ms)
	case ms < 100:
		return fmt.Sprintf("%.2fms", ms)
	default:
		return fmt.Sprintf("%.0fms", ms)
	}
}

// PrintParallelism reports the default degree of parallelism.
func PrintParallelism(out io.Writer) {
	th := ui.Current()
	fmt.Fprintf(out, "Degree of parallelism: %s%d%s\n", th.Accent, runtime.GOMAXPROCS(0), th.Reset)
}

// PrintPlan describes the sweep about to run.
func PrintPlan(plan sweep.Plan, out io.Writer) {
	th := ui.Current()
	levels := plan.ParallelismLevels()
	cutoffs := plan.CutoffCandidates()
	fmt.Fprintf(out, "%s--- Sweep ---%s\n", th.Bold, th.Reset)
	fmt.Fprintf(out, "Size: %s%d%s values below %d, %s runs per configuration (%s timing)\n",
		th.Accent, plan.Size, th.Reset, plan.Bound, plural(plan.Runs, "sort"), plan.Timing)
	fmt.Fprintf(out, "Parallelism: %s%v%s\n", th.Accent, levels, th.Reset)
	fmt.Fprintf(out, "Cutoffs: %s%d%s candidates from %d to %d\n",
		th.Accent, len(cutoffs), th.Reset, cutoffs[0], cutoffs[len(cutoffs)-1])
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// PrintSample prints one measured configuration.
func PrintSample(s sweep.Sample, out io.Writer) {
	th := ui.Current()
	fmt.Fprintf(out, "cutoff: %-10d %s x %s%s%s per run\n",
		s.Cutoff, plural(s.Runs, "run"), th.Warn, FormatMillis(s.PerRunMs), th.Reset)
}

// PrintLevel prints the one-line summary of a parallelism level.
func PrintLevel(s sweep.Summary, out io.Writer) {
	th := ui.Current()
	if s.Samples == 0 {
		fmt.Fprintf(out, "For parallelism %s%d%s: %sno successful configuration%s\n",
			th.Accent, s.Parallelism, th.Reset, th.Bad, th.Reset)
		return
	}
	fmt.Fprintf(out, "For parallelism %s%d%s min is %s%s%s at cutoff %s%d%s and average is %s\n",
		th.Accent, s.Parallelism, th.Reset,
		th.Warn, FormatMillis(s.MinMs), th.Reset,
		th.Good, s.BestCutoff, th.Reset,
		FormatMillis(s.MeanMs))
}

// PrintSummary prints the per-level table and the failures, if any.
func PrintSummary(res *sweep.Result, out io.Writer) {
	th := ui.Current()
	best, haveBest := res.Best()

	fmt.Fprintf(out, "\n--- Sweep Summary (run %s) ---\n", res.RunID)
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "  %sParallelism%s\t%sBest cutoff%s\t%sMin/run%s\t%sMean/run%s\t%sFailed%s\n",
		th.Underline, th.Reset, th.Underline, th.Reset, th.Underline, th.Reset,
		th.Underline, th.Reset, th.Underline, th.Reset)
	for _, s := range res.Summaries {
		if s.Samples == 0 {
			fmt.Fprintf(tw, "  %s%d%s\t%sN/A%s\t-\t-\t%d\n",
				th.Accent, s.Parallelism, th.Reset, th.Bad, th.Reset, s.Failures)
			continue
		}
		highlight := ""
		if haveBest && s.Parallelism == best.Parallelism && s.BestCutoff == best.Cutoff {
			highlight = fmt.Sprintf(" %s(Optimal)%s", th.Good, th.Reset)
		}
		fmt.Fprintf(tw, "  %s%d%s\t%d%s\t%s%s%s\t%s%s%s\t%d\n",
			th.Accent, s.Parallelism, th.Reset,
			s.BestCutoff, highlight,
			th.Warn, FormatMillis(s.MinMs), th.Reset,
			th.Muted, FormatMillis(s.MeanMs), th.Reset,
			s.Failures)
	}
	tw.Flush()

	if len(res.Failures) > 0 {
		fmt.Fprintf(out, "\n%sFailed configurations:%s\n", th.Bad, th.Reset)
		for _, f := range res.Failures {
			fmt.Fprintf(out, "  parallelism=%d cutoff=%d: %s\n", f.Parallelism, f.Cutoff, f.Message)
		}
	}
	if haveBest {
		fmt.Fprintf(out, "\n%sFastest%s: parallelism %d with cutoff %d (%s per run), sweep took %s\n",
			th.Good, th.Reset, best.Parallelism, best.Cutoff, FormatMillis(best.PerRunMs),
			FormatExecutionDuration(res.Duration()))
	}
}

// PrintBest prints the fastest configuration on one line, for quiet mode:
// parallelism, cutoff and per-run milliseconds.
func PrintBest(res *sweep.Result, out io.Writer) {
	best, ok := res.Best()
	if !ok {
		return
	}
	fmt.Fprintf(out, "%d %d %s\n", best.Parallelism, best.Cutoff,
		strconv.FormatFloat(best.PerRunMs, 'f', -1, 64))
}

// PrintProfile shows the cutoffs a stored profile tuned for the levels
// about to be measured.
func PrintProfile(p *sweep.Profile, levels []int, out io.Writer) {
	th := ui.Current()
	fmt.Fprintf(out, "Stored profile from %s (size %d, %s):\n",
		p.CreatedAt.Format(time.DateOnly), p.Size, p.Algorithm)
	for _, level := range levels {
		if cutoff, ok := p.CutoffFor(level); ok {
			fmt.Fprintf(out, "  parallelism %s%d%s: cutoff %s%d%s\n",
				th.Accent, level, th.Reset, th.Good, cutoff, th.Reset)
		}
	}
}
