package git

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kurobon/nexusvc/internal/diff"
	"github.com/kurobon/nexusvc/internal/logging"
	"github.com/kurobon/nexusvc/internal/merge"
	"github.com/kurobon/nexusvc/internal/queue"
	"github.com/kurobon/nexusvc/internal/state"
	"github.com/kurobon/nexusvc/internal/status"
)

// RemoteRegistry persists configured remotes across sessions.
type RemoteRegistry interface {
	GetAll(ctx context.Context) ([]state.Remote, error)
	Add(ctx context.Context, name, url string) error
	Remove(ctx context.Context, name string) error
}

// Delays are the simulated durations of the queued operations.
type Delays struct {
	Push         time.Duration
	Pull         time.Duration
	RemoteConfig time.Duration
	RemoveRemote time.Duration
	Revert       time.Duration
	Reset        time.Duration
	Branch       time.Duration
	CherryPick   time.Duration
	Commit       time.Duration
	Task         time.Duration
	Checkout     time.Duration
}

// DefaultDelays mirror how long the real operations feel.
func DefaultDelays() Delays {
	return Delays{
		Push:         2000 * time.Millisecond,
		Pull:         1500 * time.Millisecond,
		RemoteConfig: 1500 * time.Millisecond,
		RemoveRemote: 500 * time.Millisecond,
		Revert:       800 * time.Millisecond,
		Reset:        1000 * time.Millisecond,
		Branch:       500 * time.Millisecond,
		CherryPick:   800 * time.Millisecond,
		Commit:       800 * time.Millisecond,
		Task:         600 * time.Millisecond,
		Checkout:     500 * time.Millisecond,
	}
}

// Scaled multiplies every delay by f. Zero disables them.
func (d Delays) Scaled(f float64) Delays {
	s := func(v time.Duration) time.Duration { return time.Duration(float64(v) * f) }
	return Delays{
		Push:         s(d.Push),
		Pull:         s(d.Pull),
		RemoteConfig: s(d.RemoteConfig),
		RemoveRemote: s(d.RemoveRemote),
		Revert:       s(d.Revert),
		Reset:        s(d.Reset),
		Branch:       s(d.Branch),
		CherryPick:   s(d.CherryPick),
		Commit:       s(d.Commit),
		Task:         s(d.Task),
		Checkout:     s(d.Checkout),
	}
}

// Options configures an Engine. The zero value is usable.
type Options struct {
	Cache           status.Cache
	Remotes         RemoteRegistry
	Predicate       merge.Predicate
	Logger          *log.Logger
	Delays          Delays
	PushFailureRate float64
	// Rand returns a value in [0,1) used for simulated push rejection.
	Rand   func() float64
	Trunk  string
	Author string
	Now    func() time.Time
}

// Engine owns one simulated repository. Reads see the latest published
// snapshot; every mutation runs on the queue and publishes a new one.
type Engine struct {
	store     *state.Store
	queue     *queue.Queue
	resolver  *status.Resolver
	remotes   RemoteRegistry
	predicate merge.Predicate
	logger    *log.Logger

	delays          Delays
	pushFailureRate float64
	rand            func() float64
	trunk           string
	author          string
	now             func() time.Time
}

// NewEngine wraps initial, which must validate, and submits mutations to q.
func NewEngine(initial *state.Repository, q *queue.Queue, opts Options) (*Engine, error) {
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		store:           state.NewStore(initial),
		queue:           q,
		remotes:         opts.Remotes,
		predicate:       opts.Predicate,
		logger:          opts.Logger,
		delays:          opts.Delays,
		pushFailureRate: opts.PushFailureRate,
		rand:            opts.Rand,
		trunk:           opts.Trunk,
		author:          opts.Author,
		now:             opts.Now,
	}
	if e.logger == nil {
		e.logger = log.Default()
	}
	if e.predicate == nil {
		e.predicate = merge.ThreeWay{}
	}
	if e.rand == nil {
		e.rand = rand.Float64
	}
	if e.trunk == "" {
		e.trunk = "master"
	}
	if e.author == "" {
		e.author = "You"
	}
	if e.now == nil {
		e.now = time.Now
	}
	e.resolver = status.NewResolver(opts.Cache, e.logger)
	e.resolver.Refresh(context.Background(), state.StatusInput(initial))
	return e, nil
}

// OnChange registers fn for every published snapshot.
func (e *Engine) OnChange(fn func(*state.Repository)) { e.store.OnChange(fn) }

// Queue returns the queue the engine submits to.
func (e *Engine) Queue() *queue.Queue { return e.queue }

// Snapshot returns the current repository. It must not be modified.
func (e *Engine) Snapshot() *state.Repository { return e.store.Load() }

// GraphState is the observable view including queue activity.
func (e *Engine) GraphState() *state.GraphState {
	gs := state.BuildGraphState(e.store.Load())
	gs.Busy, gs.Task = e.queue.Busy()
	return gs
}

// Status classifies every file of the current snapshot.
func (e *Engine) Status() map[string]status.Code {
	return status.Classify(state.StatusInput(e.store.Load()))
}

// FileStatus resolves a single file, consulting the status cache.
func (e *Engine) FileStatus(ctx context.Context, name string) status.Code {
	return e.resolver.Lookup(ctx, state.StatusInput(e.store.Load()), name)
}

// RefreshStatus reclassifies the working tree and writes the result through
// to the cache when it changed.
func (e *Engine) RefreshStatus(ctx context.Context) (map[string]status.Code, bool) {
	return e.resolver.Refresh(ctx, state.StatusInput(e.store.Load()))
}

// Diff compares the HEAD version of name with the working tree.
func (e *Engine) Diff(name string) []diff.Line {
	r := e.store.Load()
	return diff.Lines(r.OriginalFiles[name], r.Files[name])
}

// UnifiedDiff renders the change to name as a unified patch. An unchanged
// file yields "".
func (e *Engine) UnifiedDiff(name string) (string, error) {
	r := e.store.Load()
	return diff.Unified(name, lookup(r.OriginalFiles, name), lookup(r.Files, name), 3)
}

// WorkingDiff concatenates the unified diffs of every changed file.
func (e *Engine) WorkingDiff() (string, error) {
	var out string
	for _, name := range status.Changed(e.Status()) {
		p, err := e.UnifiedDiff(name)
		if err != nil {
			return "", err
		}
		out += p
	}
	return out, nil
}

// ThreeWay returns the merge view of name.
func (e *Engine) ThreeWay(name string) (merge.View, error) {
	return merge.ThreeWayView(e.store.Load(), name)
}

// apply publishes fn's mutation and refreshes the status cache.
func (e *Engine) apply(ctx context.Context, fn func(r *state.Repository) error) (*state.Repository, error) {
	next, err := e.store.Update(fn)
	if err != nil {
		return nil, err
	}
	e.resolver.Refresh(ctx, state.StatusInput(next))
	return next, nil
}

// submit queues a mutation under name after the simulated delay. Failures
// come back as *OpError.
func submit[T any](e *Engine, name string, delay time.Duration, op func(ctx context.Context) (T, error)) *queue.Future[T] {
	return queue.Enqueue(e.queue, name, func(ctx context.Context) (T, error) {
		done := logging.Op(e.logger, name)
		var zero T
		if err := queue.Sleep(ctx, delay); err != nil {
			done(err)
			return zero, opError(name, err)
		}
		v, err := op(ctx)
		done(err)
		if err != nil {
			return zero, opError(name, err)
		}
		return v, nil
	})
}

func lookup(m map[string]string, name string) *string {
	if v, ok := m[name]; ok {
		return &v
	}
	return nil
}
