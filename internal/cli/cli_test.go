package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/parsort/internal/sweep"
	"github.com/agbru/parsort/internal/testutil"
	"github.com/agbru/parsort/internal/ui"
)

func TestMain(m *testing.M) {
	ui.Use(ui.PlainTheme)
	os.Exit(m.Run())
}

type mockSpinner struct {
	mu      sync.Mutex
	started bool
	stopped bool
	suffix  string
}

func (m *mockSpinner) Start() { m.mu.Lock(); m.started = true; m.mu.Unlock() }
func (m *mockSpinner) Stop()  { m.mu.Lock(); m.stopped = true; m.mu.Unlock() }
func (m *mockSpinner) UpdateSuffix(s string) {
	m.mu.Lock()
	m.suffix = s
	m.mu.Unlock()
}

func sampleResult() *sweep.Result {
	plan := sweep.DefaultPlan()
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return &sweep.Result{
		RunID:    "run-42",
		Plan:     plan,
		Started:  start,
		Finished: start.Add(3 * time.Second),
		Samples: []sweep.Sample{
			{Parallelism: 1, Cutoff: 510_000, PerRunMs: 120, TotalMs: 2400, Runs: 20},
			{Parallelism: 1, Cutoff: 520_000, PerRunMs: 110.5, TotalMs: 2210, Runs: 20},
			{Parallelism: 2, Cutoff: 510_000, PerRunMs: 70, TotalMs: 1400, Runs: 20},
		},
		Summaries: []sweep.Summary{
			{Parallelism: 1, MinMs: 110.4, BestCutoff: 520_000, MeanMs: 115.2, Samples: 2},
			{Parallelism: 2, MinMs: 70, BestCutoff: 510_000, MeanMs: 70, Samples: 1, Failures: 1},
			{Parallelism: 4, Failures: 2},
		},
		Failures: []sweep.Failure{
			{Parallelism: 2, Cutoff: 520_000, Message: "output is not sorted"},
		},
	}
}

func TestFormatExecutionDuration(t *testing.T) {
	t.Parallel()
	tests := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Nanosecond, "0µs"},
		{10 * time.Microsecond, "10µs"},
		{10 * time.Millisecond, "10ms"},
		{2 * time.Second, "2s"},
	}
	for _, tt := range tests {
		if got := FormatExecutionDuration(tt.d); got != tt.want {
			t.Errorf("FormatExecutionDuration(%v) = %s; want %s", tt.d, got, tt.want)
		}
	}
}

func TestFormatMillis(t *testing.T) {
	t.Parallel()
	tests := map[float64]string{
		0.1234: "0.123ms",
		12.346: "12.35ms",
		1234.4: "1234ms",
	}
	for in, want := range tests {
		if got := FormatMillis(in); got != want {
			t.Errorf("FormatMillis(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestProgressBar(t *testing.T) {
	t.Parallel()
	tests := []struct {
		progress float64
		want     string
	}{
		{0.0, "░░░░░░░░░░"},
		{0.5, "█████░░░░░"},
		{1.0, "██████████"},
		{1.2, "██████████"},
		{-0.1, "░░░░░░░░░░"},
	}
	for _, tt := range tests {
		if got := progressBar(tt.progress, 10); got != tt.want {
			t.Errorf("progressBar(%f) = %s; want %s", tt.progress, got, tt.want)
		}
	}
}

func TestEstimateRemaining(t *testing.T) {
	t.Parallel()
	if got := estimateRemaining(10*time.Second, 0.25); got != 30*time.Second {
		t.Errorf("estimateRemaining = %v, want 30s", got)
	}
	if got := estimateRemaining(time.Second, 0); got != 0 {
		t.Errorf("no progress should give 0, got %v", got)
	}
	if got := formatETA(0); got != "--" {
		t.Errorf("formatETA(0) = %q", got)
	}
	if got := formatETA(90 * time.Second); got != "1m30s" {
		t.Errorf("formatETA(90s) = %q", got)
	}
}

// Replaces the package spinner factory, so not parallel.
func TestDisplayProgress(t *testing.T) {
	mock := &mockSpinner{}
	orig := newSpinner
	newSpinner = func(...spinner.Option) Spinner { return mock }
	defer func() { newSpinner = orig }()

	var out bytes.Buffer
	updates := make(chan sweep.Progress)
	var wg sync.WaitGroup
	wg.Add(1)
	go DisplayProgress(&wg, updates, &out)

	updates <- sweep.Progress{Done: 1, Total: 4, Parallelism: 1, Cutoff: 10}
	updates <- sweep.Progress{Done: 4, Total: 4, Parallelism: 2, Cutoff: 20}
	close(updates)
	wg.Wait()

	if !mock.started || !mock.stopped {
		t.Errorf("spinner started=%v stopped=%v", mock.started, mock.stopped)
	}
	if !strings.Contains(out.String(), "100.00%") || !strings.Contains(out.String(), "4/4 configurations") {
		t.Errorf("final line missing: %q", out.String())
	}
}

func TestPrintLevel(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	res := sampleResult()
	PrintLevel(res.Summaries[0], &buf)
	PrintLevel(res.Summaries[2], &buf)
	want := "For parallelism 1 min is 110ms at cutoff 520000 and average is 115ms\n" +
		"For parallelism 4: no successful configuration\n"
	if buf.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

// Not parallel: it switches the global theme.
func TestPrintLevelColored(t *testing.T) {
	ui.Use(ui.DarkTheme)
	defer ui.Use(ui.PlainTheme)

	var buf bytes.Buffer
	PrintLevel(sampleResult().Summaries[1], &buf)
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("expected escape codes in %q", buf.String())
	}
	want := "For parallelism 2 min is 70.00ms at cutoff 510000 and average is 70.00ms"
	if got := testutil.NonEmptyLines(testutil.StripAnsiCodes(buf.String())); len(got) != 1 || got[0] != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPrintSummary(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	PrintSummary(sampleResult(), &buf)
	out := buf.String()
	for _, want := range []string{
		"run-42",
		"(Optimal)",
		"N/A",
		"parallelism=2 cutoff=520000: output is not sorted",
		"Fastest: parallelism 2 with cutoff 510000 (70.00ms per run), sweep took 3s",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestPrintPlanAndSample(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	PrintPlan(sweep.DefaultPlan(), &buf)
	PrintSample(sweep.Sample{Cutoff: 100, PerRunMs: 2.5, Runs: 1}, &buf)
	out := buf.String()
	for _, want := range []string{
		"Size: 10000000 values below 10000000, 20 sorts per configuration (batch timing)",
		"Parallelism: [1 2 4 8 16 32]",
		"Cutoffs: 50 candidates from 510000 to 1000000",
		"1 run x 2.50ms per run",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleResult()); err != nil {
		t.Fatal(err)
	}
	want := "0.255,120\n0.26,110.5\n0.255,70\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}

	bad := sampleResult()
	bad.Plan.Normalization = 0
	if err := WriteCSV(&buf, bad); err == nil {
		t.Error("expected error for zero normalization")
	}
}

func TestWriteJSONFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "out", "result.json")
	if err := WriteFile(path, sampleResult(), WriteJSON); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		RunID    string `json:"run_id"`
		Samples  []sweep.Sample
		Failures []struct {
			Error string `json:"error"`
		}
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.RunID != "run-42" || len(decoded.Samples) != 3 || decoded.Failures[0].Error != "output is not sorted" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestWriteFileErrors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	err := WriteFile(filepath.Join(blocker, "sweep.csv"), sampleResult(), WriteCSV)
	var pathErr *fs.PathError
	if !errors.As(err, &pathErr) {
		t.Fatalf("WriteFile under a regular file: err = %v, want a wrapped *fs.PathError", err)
	}
	if !strings.HasPrefix(err.Error(), "failed to create directory "+blocker) {
		t.Errorf("error %q does not name the directory", err)
	}

	errWrite := errors.New("disk full")
	err = WriteFile(filepath.Join(dir, "ok.csv"), sampleResult(),
		func(io.Writer, *sweep.Result) error { return errWrite })
	if !errors.Is(err, errWrite) {
		t.Errorf("err = %v, want the writer's error", err)
	}
}

func TestPrintProfile(t *testing.T) {
	t.Parallel()
	p := &sweep.Profile{
		Size:      1000,
		Algorithm: "std",
		CreatedAt: time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
		Levels: []sweep.LevelCutoff{
			{Parallelism: 1, Cutoff: 500},
			{Parallelism: 4, Cutoff: 250},
		},
	}
	var buf bytes.Buffer
	PrintProfile(p, []int{1, 2, 8}, &buf)
	want := "Stored profile from 2024-05-06 (size 1000, std):\n" +
		"  parallelism 1: cutoff 500\n" +
		"  parallelism 2: cutoff 500\n" +
		"  parallelism 8: cutoff 250\n"
	if buf.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}
