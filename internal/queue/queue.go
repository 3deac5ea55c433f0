// Package queue runs repository mutations one at a time in submission order.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

var (
	// ErrClosed is returned for work submitted after Close.
	ErrClosed = errors.New("queue closed")
	// ErrPanic wraps a panic recovered from a task.
	ErrPanic = errors.New("task panicked")
)

// DefaultLatency is the pause before each task starts, modelling the cost
// of spawning a process.
const DefaultLatency = 400 * time.Millisecond

// Listener is told when the queue starts a task (busy=true, its name) and
// when it runs dry (busy=false, "").
type Listener func(busy bool, task string)

// ErrorHandler receives every failed task.
type ErrorHandler func(task string, err error)

// Stats counts tasks handled so far.
type Stats struct {
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
	Pending   int   `json:"pending"`
}

// Option configures a Queue.
type Option func(*Queue)

// WithLatency sets the pause before each task. Zero disables it.
func WithLatency(d time.Duration) Option {
	return func(q *Queue) { q.latency = d }
}

// WithListener registers the busy listener.
func WithListener(l Listener) Option {
	return func(q *Queue) { q.listener = l }
}

// WithErrorHandler registers a callback for failed tasks.
func WithErrorHandler(h ErrorHandler) Option {
	return func(q *Queue) { q.onError = h }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(q *Queue) { q.logger = l }
}

type job struct {
	name string
	run  func(ctx context.Context) error
}

// Queue is a FIFO task runner with a single worker. Submitting never blocks;
// a failing task is reported and the next one runs.
type Queue struct {
	latency  time.Duration
	listener Listener
	onError  ErrorHandler
	logger   *log.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	pending []job
	current string
	closed  bool
	done    chan struct{}

	processed atomic.Int64
	failed    atomic.Int64
}

// New starts a queue and its worker.
func New(opts ...Option) *Queue {
	q := &Queue{
		latency: DefaultLatency,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.logger == nil {
		q.logger = log.Default()
	}
	q.logger = q.logger.WithPrefix("queue")
	q.cond = sync.NewCond(&q.mu)
	go q.worker()
	return q
}

// SetListener replaces the busy listener.
func (q *Queue) SetListener(l Listener) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.listener = l
}

func (q *Queue) submit(j job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	q.pending = append(q.pending, j)
	q.cond.Signal()
	return nil
}

func (q *Queue) worker() {
	defer close(q.done)
	ctx := context.Background()
	for {
		q.mu.Lock()
		for len(q.pending) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return
		}
		j := q.pending[0]
		q.pending = q.pending[1:]
		q.current = j.name
		listener := q.listener
		q.mu.Unlock()

		if listener != nil {
			listener(true, j.name)
		}
		if q.latency > 0 {
			time.Sleep(q.latency)
		}
		q.execute(ctx, j)

		q.mu.Lock()
		q.current = ""
		idle := len(q.pending) == 0
		listener = q.listener
		q.mu.Unlock()
		if idle && listener != nil {
			listener(false, "")
		}
	}
}

func (q *Queue) execute(ctx context.Context, j job) {
	start := time.Now()
	err := j.run(ctx)
	q.processed.Add(1)
	if err == nil {
		q.logger.Debug("task done", "task", j.name, "elapsed", time.Since(start).Round(time.Millisecond))
		return
	}
	q.failed.Add(1)
	q.logger.Warn("task failed", "task", j.name, "err", err)
	if q.onError != nil {
		q.onError(j.name, err)
	}
}

// Busy reports whether a task is running and its name.
func (q *Queue) Busy() (bool, string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current != "", q.current
}

// Stats returns the task counters.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	pending := len(q.pending)
	q.mu.Unlock()
	return Stats{
		Processed: q.processed.Load(),
		Failed:    q.failed.Load(),
		Pending:   pending,
	}
}

// Close stops accepting work, lets queued tasks finish, and waits for the
// worker to exit or ctx to end.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Future is the eventual result of a queued task.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) settle(v T, err error) {
	f.val, f.err = v, err
	close(f.done)
}

// Done is closed once the task has finished.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Wait blocks until the task finishes or ctx ends. A ctx that ends first
// does not cancel the task.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Enqueue submits op under name and returns immediately.
func Enqueue[T any](q *Queue, name string, op func(ctx context.Context) (T, error)) *Future[T] {
	f := newFuture[T]()
	err := q.submit(job{
		name: name,
		run: func(ctx context.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: %s: %v", ErrPanic, name, r)
					var zero T
					f.settle(zero, err)
				}
			}()
			v, err := op(ctx)
			f.settle(v, err)
			return err
		},
	})
	if err != nil {
		var zero T
		f.settle(zero, fmt.Errorf("%s: %w", name, err))
	}
	return f
}

// Sleep pauses a running task for d, returning early if ctx ends.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
