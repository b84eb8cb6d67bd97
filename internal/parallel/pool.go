package parallel

import (
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/agbru/parsort/internal/errors"
	"github.com/agbru/parsort/internal/logging"
)

var (
	tasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parsort_pool_tasks_total",
			Help: "Fork-join tasks handled by worker pools, by how they were executed",
		},
		[]string{"parallelism", "kind"},
	)
	poolsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parsort_pools_created_total",
		Help: "Worker pools created",
	})
)

const (
	taskPending int32 = iota
	taskClaimed
)

// Task is a unit of fork-join work. It is created by Scope.Fork and
// completed exactly once, by whichever worker claims it first.
type Task struct {
	fn    func(*Scope) error
	state atomic.Int32
	done  chan struct{}
	err   error
}

func newTask(fn func(*Scope) error) *Task {
	return &Task{fn: fn, done: make(chan struct{})}
}

// failedTask returns a task that is already complete with err.
func failedTask(err error) *Task {
	t := &Task{done: make(chan struct{}), err: err}
	t.state.Store(taskClaimed)
	close(t.done)
	return t
}

func (t *Task) claim() bool {
	return t.state.CompareAndSwap(taskPending, taskClaimed)
}

// Done is closed when the task has finished.
func (t *Task) Done() <-chan struct{} { return t.done }

func call(fn func(*Scope) error, s *Scope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn(s)
}

// Stats counts what a pool has done since it was created.
type Stats struct {
	// Forked is the number of tasks pushed by Scope.Fork.
	Forked uint64
	// Stolen is the number of tasks taken from another worker's deque.
	Stolen uint64
	// Inlined is the number of forked tasks run by their own joiner.
	Inlined uint64
	// Completed is the number of tasks run to completion, roots included.
	Completed uint64
}

// Pool is a fixed-size work-stealing pool for recursive fork-join tasks.
//
// A Pool is created for one parallelism level and closed when that level is
// no longer needed; it is never resized. Close waits for in-flight Invoke
// calls, so a pool is never torn down while tasks are outstanding.
type Pool struct {
	parallelism int
	workers     []*worker
	inject      deque
	wake        chan struct{}
	quit        chan struct{}
	group       errgroup.Group

	mu        sync.RWMutex
	closed    atomic.Bool
	closeOnce sync.Once

	forked, stolen, inlined, completed atomic.Uint64

	logger logging.Logger
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the logger used for pool lifecycle events.
func WithLogger(l logging.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPool starts a pool with the given number of workers.
func NewPool(parallelism int, opts ...Option) (*Pool, error) {
	if parallelism < 1 {
		return nil, apperrors.NewValidationError("parallelism", "must be at least 1", parallelism)
	}
	p := &Pool{
		parallelism: parallelism,
		workers:     make([]*worker, parallelism),
		wake:        make(chan struct{}, parallelism),
		quit:        make(chan struct{}),
		logger:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	for i := range p.workers {
		p.workers[i] = &worker{id: i, pool: p, victim: uint32(i + 1)}
	}
	for _, w := range p.workers {
		p.group.Go(w.loop)
	}
	poolsCreated.Inc()
	p.logger.Debug("worker pool started", logging.Int("parallelism", parallelism))
	return p, nil
}

// Parallelism returns the number of workers.
func (p *Pool) Parallelism() int { return p.parallelism }

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Forked:    p.forked.Load(),
		Stolen:    p.stolen.Load(),
		Inlined:   p.inlined.Load(),
		Completed: p.completed.Load(),
	}
}

// Invoke runs fn as the root of a fork-join tree and blocks until it and
// every task it joined have finished. It returns fn's error, or
// ErrPoolClosed if the pool no longer accepts work.
//
// Invoke must not be called from a task running on the same pool: the
// calling worker blocks without helping, which deadlocks a pool of one
// worker and can wait behind a pending Close. Nested work goes through
// Scope.Fork and Scope.Join (or Scope.Both) instead.
func (p *Pool) Invoke(fn func(*Scope) error) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed.Load() {
		return ErrPoolClosed
	}
	t := newTask(fn)
	p.inject.push(t)
	p.signal()
	<-t.done
	return t.err
}

// Close stops the workers after in-flight invocations complete. Further
// submissions fail with ErrPoolClosed. Close is idempotent.
func (p *Pool) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed.Store(true)
		p.mu.Unlock()
		close(p.quit)
		err = p.group.Wait()
		p.flushMetrics()
		st := p.Stats()
		p.logger.Debug("worker pool closed",
			logging.Int("parallelism", p.parallelism),
			logging.Int64("forked", int64(st.Forked)),
			logging.Int64("stolen", int64(st.Stolen)),
			logging.Int64("completed", int64(st.Completed)),
		)
	})
	return err
}

func (p *Pool) flushMetrics() {
	label := strconv.Itoa(p.parallelism)
	s := p.Stats()
	tasksTotal.WithLabelValues(label, "forked").Add(float64(s.Forked))
	tasksTotal.WithLabelValues(label, "stolen").Add(float64(s.Stolen))
	tasksTotal.WithLabelValues(label, "inlined").Add(float64(s.Inlined))
	tasksTotal.WithLabelValues(label, "completed").Add(float64(s.Completed))
}

func (p *Pool) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// execute runs a claimed task. Counters are updated before done is closed
// so a joiner observes them.
func (p *Pool) execute(t *Task, s *Scope) {
	defer close(t.done)
	t.err = call(t.fn, s)
	p.completed.Add(1)
}

type worker struct {
	id     int
	pool   *Pool
	local  deque
	victim uint32
}

func (w *worker) loop() error {
	s := &Scope{pool: w.pool, w: w}
	for {
		if t := w.find(); t != nil {
			w.pool.execute(t, s)
			continue
		}
		select {
		case <-w.pool.quit:
			return nil
		case <-w.pool.wake:
		}
	}
}

// find returns the next task for w: its own newest task first, then the
// oldest task of another worker, then a root task.
func (w *worker) find() *Task {
	if t := w.local.pop(); t != nil {
		return t
	}
	p := w.pool
	n := len(p.workers)
	if n > 1 {
		start := int(w.nextVictim() % uint32(n))
		for i := 0; i < n; i++ {
			v := p.workers[(start+i)%n]
			if v == w {
				continue
			}
			if t := v.local.steal(); t != nil {
				p.stolen.Add(1)
				return t
			}
		}
	}
	return p.inject.steal()
}

// nextVictim is a xorshift step; victims only need to be spread, not random.
func (w *worker) nextVictim() uint32 {
	x := w.victim
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	w.victim = x
	return x
}

// Scope is the handle a running task uses to fork and join children. It is
// bound to the worker executing the task and must not be retained after the
// task returns.
type Scope struct {
	pool *Pool
	w    *worker
}

// Parallelism returns the size of the pool the scope belongs to.
func (s *Scope) Parallelism() int { return s.pool.parallelism }

// Fork schedules fn to run in parallel with the caller. The returned task
// must be joined with Join.
func (s *Scope) Fork(fn func(*Scope) error) *Task {
	if s.pool.closed.Load() {
		return failedTask(ErrPoolClosed)
	}
	t := newTask(fn)
	s.w.local.push(t)
	s.pool.forked.Add(1)
	s.pool.signal()
	return t
}

// Join waits for t and returns its error. If no worker has started t yet,
// the caller runs it itself; otherwise the caller runs other queued tasks
// until t completes, so a worker never sits idle while work is pending.
func (s *Scope) Join(t *Task) error {
	if t.claim() {
		s.pool.inlined.Add(1)
		s.pool.execute(t, s)
		return t.err
	}
	for {
		select {
		case <-t.done:
			return t.err
		default:
		}
		if other := s.w.find(); other != nil {
			s.pool.execute(other, s)
			continue
		}
		select {
		case <-t.done:
			return t.err
		case <-s.pool.wake:
		}
	}
}

// Both runs a and b in parallel and returns the first error, preferring
// b's since it ran on the caller.
func (s *Scope) Both(a, b func(*Scope) error) error {
	t := s.Fork(a)
	var ec ErrorCollector
	ec.SetError(call(b, s))
	ec.SetError(s.Join(t))
	return ec.Err()
}
