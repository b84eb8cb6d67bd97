// Package sweep drives the cutoff tuning experiment: for every parallelism
// level it builds a worker pool, times the parallel sort at each cutoff
// candidate on freshly generated input, and reports the fastest cutoff.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/agbru/parsort/internal/clock"
	"github.com/agbru/parsort/internal/generator"
	"github.com/agbru/parsort/internal/logging"
	"github.com/agbru/parsort/internal/parallel"
	"github.com/agbru/parsort/internal/parsort"
	"github.com/agbru/parsort/internal/sequential"
	"github.com/agbru/parsort/internal/timer"
)

// ErrUnsorted is recorded for a configuration whose output was not sorted.
var ErrUnsorted = errors.New("sweep: output is not sorted")

var (
	runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "parsort_sweep_run_milliseconds",
			Help:    "Estimated per-run sort time of each sweep configuration",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 24),
		},
		[]string{"parallelism"},
	)
	failedConfigs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parsort_sweep_failed_configurations_total",
		Help: "Sweep configurations that produced no sample",
	})
)

// Progress describes the sweep position after a configuration finished.
type Progress struct {
	Done        int
	Total       int
	Parallelism int
	Cutoff      int
	Failed      bool
}

// Fraction returns the completed share in [0, 1].
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 1
	}
	return float64(p.Done) / float64(p.Total)
}

// Option configures Run.
type Option func(*runner)

// WithLogger sets the logger for level summaries and per-sample events.
func WithLogger(l logging.Logger) Option {
	return func(r *runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock replaces the monotonic clock used for measurements.
func WithClock(c clock.Clock) Option {
	return func(r *runner) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithProgress registers a callback invoked after every configuration.
// It runs on the sweep goroutine.
func WithProgress(fn func(Progress)) Option {
	return func(r *runner) { r.progress = fn }
}

// WithTracer replaces the OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(r *runner) {
		if t != nil {
			r.tracer = t
		}
	}
}

type runner struct {
	plan     Plan
	logger   logging.Logger
	zl       zerolog.Logger
	clock    clock.Clock
	tracer   trace.Tracer
	progress func(Progress)
	seq      sequential.Func[int]

	src  *generator.Source
	data []int
}

// Run executes plan and returns its result. Per-configuration failures are
// recorded in the result and do not stop the sweep; Run itself fails only
// for an invalid plan or when ctx is done. Cancellation is observed between
// configurations, never inside a sort. On cancellation the partial result
// gathered so far is returned alongside the context error.
func Run(ctx context.Context, plan Plan, opts ...Option) (*Result, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	seq, err := sequential.ByName[int](plan.Algorithm)
	if err != nil {
		return nil, err
	}
	r := &runner{
		plan:   plan,
		logger: logging.Nop(),
		clock:  clock.Monotonic(),
		tracer: otel.Tracer("parsort/sweep"),
		seq:    seq,
		src:    generator.New(plan.Seed),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.zl = zerolog.Nop()
	if za, ok := r.logger.(*logging.ZerologAdapter); ok {
		r.zl = za.Zerolog()
	}
	return r.run(ctx)
}

func (r *runner) run(ctx context.Context) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), Plan: r.plan, Started: time.Now()}
	defer func() { res.Finished = time.Now() }()

	ctx, span := r.tracer.Start(ctx, "sweep.Run", trace.WithAttributes(
		attribute.String("sweep.run_id", res.RunID),
		attribute.Int("sweep.size", r.plan.Size),
		attribute.Int("sweep.runs", r.plan.Runs),
	))
	defer span.End()

	levels := r.plan.ParallelismLevels()
	cutoffs := r.plan.CutoffCandidates()
	total := len(levels) * len(cutoffs)
	r.logger.Info("sweep started",
		logging.String("run_id", res.RunID),
		logging.Int("size", r.plan.Size),
		logging.Int("levels", len(levels)),
		logging.Int("cutoffs", len(cutoffs)),
		logging.String("timing", string(r.plan.Timing)),
		logging.Bool("verify", r.plan.Verify),
	)

	r.data = make([]int, r.plan.Size)
	done := 0
	for _, p := range levels {
		if err := r.runLevel(ctx, res, p, cutoffs, &done, total); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return res, err
		}
	}

	if len(res.Failures) > 0 {
		span.SetStatus(codes.Error, res.Err().Error())
	}
	r.logger.Info("sweep finished",
		logging.String("run_id", res.RunID),
		logging.Int("samples", len(res.Samples)),
		logging.Int("failures", len(res.Failures)),
		logging.Duration("elapsed", time.Since(res.Started)),
	)
	return res, nil
}

// runLevel measures every cutoff at one parallelism level on a dedicated
// pool, which is closed before returning.
func (r *runner) runLevel(ctx context.Context, res *Result, parallelism int, cutoffs []int, done *int, total int) error {
	ctx, span := r.tracer.Start(ctx, "sweep.level",
		trace.WithAttributes(attribute.Int("sweep.parallelism", parallelism)))
	defer span.End()

	var samples []Sample
	failures := 0
	defer func() {
		sum := summarize(parallelism, samples, failures)
		res.Summaries = append(res.Summaries, sum)
		r.logger.Info("level finished",
			logging.Int("parallelism", parallelism),
			logging.Float64("min_ms", sum.MinMs),
			logging.Int("best_cutoff", sum.BestCutoff),
			logging.Float64("mean_ms", sum.MeanMs),
			logging.Int("failures", failures),
		)
	}()

	pool, err := parallel.NewPool(parallelism, parallel.WithLogger(r.logger))
	if err != nil {
		return err
	}
	defer func() {
		if err := pool.Close(); err != nil {
			r.logger.Error("failed to close worker pool", err, logging.Int("parallelism", parallelism))
		}
	}()

	label := strconv.Itoa(parallelism)
	for _, cutoff := range cutoffs {
		if err := ctx.Err(); err != nil {
			return err
		}
		s, err := r.measure(ctx, pool, cutoff)
		*done++
		if err != nil {
			failures++
			failedConfigs.Inc()
			res.Failures = append(res.Failures, Failure{
				Parallelism: parallelism,
				Cutoff:      cutoff,
				Err:         err,
				Message:     err.Error(),
			})
			r.logger.Error("configuration failed", err,
				logging.Int("parallelism", parallelism),
				logging.Int("cutoff", cutoff),
			)
		} else {
			samples = append(samples, s)
			res.Samples = append(res.Samples, s)
			runDuration.WithLabelValues(label).Observe(s.PerRunMs)
			r.logger.Debug("sample",
				logging.Int("parallelism", parallelism),
				logging.Int("cutoff", cutoff),
				logging.Float64("per_run_ms", s.PerRunMs),
			)
		}
		if r.progress != nil {
			r.progress(Progress{
				Done:        *done,
				Total:       total,
				Parallelism: parallelism,
				Cutoff:      cutoff,
				Failed:      err != nil,
			})
		}
	}
	return nil
}

// measure times Runs sorts of fresh input at one cutoff.
func (r *runner) measure(ctx context.Context, pool *parallel.Pool, cutoff int) (s Sample, err error) {
	_, span := r.tracer.Start(ctx, "sweep.sample", trace.WithAttributes(
		attribute.Int("sweep.parallelism", pool.Parallelism()),
		attribute.Int("sweep.cutoff", cutoff),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	eng, err := parsort.New(pool, parsort.Config[int]{
		Cutoff:     cutoff,
		Sequential: r.seq,
		Logger:     &r.zl,
	})
	if err != nil {
		return Sample{}, err
	}
	for i := 0; i < r.plan.Warmup; i++ {
		r.src.Fill(r.data, r.plan.Bound)
		if err := eng.SortAll(r.data); err != nil {
			return Sample{}, fmt.Errorf("warmup: %w", err)
		}
	}

	s = Sample{Parallelism: pool.Parallelism(), Cutoff: cutoff, Runs: r.plan.Runs}
	switch r.plan.Timing {
	case TimingLap:
		s.PerRunMs, err = r.timeLaps(eng)
		s.TotalMs = s.PerRunMs * float64(s.Runs)
	default:
		s.TotalMs, err = r.timeBatch(eng)
		s.PerRunMs = s.TotalMs / float64(s.Runs)
	}
	if err != nil {
		return Sample{}, err
	}
	return s, nil
}

// timeBatch returns the elapsed milliseconds of the whole batch. With
// Verify, the output of the last run is checked after the clock stops.
func (r *runner) timeBatch(eng *parsort.Engine[int]) (float64, error) {
	start := r.clock.Now()
	for i := 0; i < r.plan.Runs; i++ {
		r.src.Fill(r.data, r.plan.Bound)
		if err := eng.SortAll(r.data); err != nil {
			return 0, err
		}
	}
	elapsed := r.clock.Millis(r.clock.Now() - start)
	if r.plan.Verify && !slices.IsSorted(r.data) {
		return 0, ErrUnsorted
	}
	return elapsed, nil
}

// timeLaps returns the mean milliseconds of the sorts alone. With Verify,
// every run is checked outside the timed section.
func (r *runner) timeLaps(eng *parsort.Engine[int]) (float64, error) {
	var sortErr error
	t := timer.New(timer.WithClock(r.clock), timer.WithLogger(r.logger))
	mean, err := timer.RepeatWith[[]int, error](t, r.plan.Runs,
		func() []int {
			r.src.Fill(r.data, r.plan.Bound)
			return r.data
		},
		eng.SortAll,
		nil,
		func(err error) {
			switch {
			case sortErr != nil:
			case err != nil:
				sortErr = err
			case r.plan.Verify && !slices.IsSorted(r.data):
				sortErr = ErrUnsorted
			}
		},
	)
	if sortErr != nil {
		return 0, sortErr
	}
	return mean, err
}
