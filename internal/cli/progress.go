package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/parsort/internal/sweep"
)

const (
	// ProgressRefreshRate is how often the spinner line is redrawn.
	ProgressRefreshRate = 200 * time.Millisecond
	// ProgressBarWidth is the width of the progress bar in characters.
	ProgressBarWidth = 40
)

// Spinner abstracts the terminal spinner so DisplayProgress can be tested.
type Spinner interface {
	Start()
	Stop()
	UpdateSuffix(suffix string)
}

type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start()                     { rs.s.Start() }
func (rs *realSpinner) Stop()                      { rs.s.Stop() }
func (rs *realSpinner) UpdateSuffix(suffix string) { rs.s.Suffix = suffix }

var newSpinner = func(options ...spinner.Option) Spinner {
	s := spinner.New(spinner.CharSets[11], ProgressRefreshRate, options...)
	return &realSpinner{s}
}

func progressBar(progress float64, length int) string {
	progress = min(max(progress, 0), 1)
	count := int(progress * float64(length))
	var b strings.Builder
	b.Grow(length * 3)
	for i := 0; i < length; i++ {
		if i < count {
			b.WriteRune('█')
		} else {
			b.WriteRune('░')
		}
	}
	return b.String()
}

// estimateRemaining extrapolates the time left from the elapsed time and
// the completed fraction. It returns 0 until there is something to
// extrapolate from.
func estimateRemaining(elapsed time.Duration, fraction float64) time.Duration {
	if fraction <= 0 || fraction >= 1 {
		return 0
	}
	return time.Duration(float64(elapsed) * (1 - fraction) / fraction)
}

func formatETA(eta time.Duration) string {
	switch {
	case eta <= 0:
		return "--"
	case eta < time.Second:
		return "< 1s"
	case eta < time.Hour:
		return eta.Round(time.Second).String()
	default:
		return eta.Round(time.Minute).String()
	}
}

func progressLine(p sweep.Progress, elapsed time.Duration) string {
	return fmt.Sprintf(" P=%d cutoff=%d  %6.2f%% [%s] ETA: %s",
		p.Parallelism, p.Cutoff, p.Fraction()*100,
		progressBar(p.Fraction(), ProgressBarWidth),
		formatETA(estimateRemaining(elapsed, p.Fraction())))
}

// DisplayProgress renders sweep progress with a spinner until updates is
// closed, then prints a final line. It is meant to run in its own
// goroutine and calls wg.Done on return.
func DisplayProgress(wg *sync.WaitGroup, updates <-chan sweep.Progress, out io.Writer) {
	defer wg.Done()

	start := time.Now()
	s := newSpinner(spinner.WithWriter(out))
	s.Start()
	stopped := false
	defer func() {
		if !stopped {
			s.Stop()
		}
	}()

	ticker := time.NewTicker(ProgressRefreshRate)
	defer ticker.Stop()

	var last sweep.Progress
	for {
		select {
		case p, ok := <-updates:
			if !ok {
				s.Stop()
				stopped = true
				fmt.Fprintf(out, "Progress: %6.2f%% [%s] %d/%d configurations in %s\n",
					last.Fraction()*100, progressBar(last.Fraction(), ProgressBarWidth),
					last.Done, last.Total, FormatExecutionDuration(time.Since(start)))
				return
			}
			last = p
		case <-ticker.C:
			s.UpdateSuffix(progressLine(last, time.Since(start)))
		}
	}
}
