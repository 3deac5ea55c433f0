package git

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/kurobon/nexusvc/internal/queue"
	"github.com/kurobon/nexusvc/internal/state"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// sampleRepo has master at c2 (pushed) and feature at c3, both children of
// the root c1. Only app.js diverges.
func sampleRepo() *state.Repository {
	tree := func(app string) map[string]string {
		return map[string]string{"README.md": "# demo\n", "app.js": app}
	}
	return &state.Repository{
		CurrentBranch: "master",
		Files:         tree("v2\n"),
		OriginalFiles: tree("v2\n"),
		Commits: []state.Commit{
			{ID: "c333333", Message: "Feature work", Author: "Dev", Timestamp: testNow.Add(-time.Hour), Changes: tree("feature\n"), Parent: "c111111", Lane: 1},
			{ID: "c222222", Message: "Bump to v2", Author: "Dev", Timestamp: testNow.Add(-2 * time.Hour), Changes: tree("v2\n"), Parent: "c111111"},
			{ID: "c111111", Message: "Initial commit", Author: "Dev", Timestamp: testNow.Add(-3 * time.Hour), Changes: tree("v1\n"), Tags: []string{"v0.1"}},
		},
		Branches: []state.Branch{
			{Name: "master", Head: "c222222", RemoteHead: "c222222"},
			{Name: "feature", Head: "c333333"},
		},
		GitIgnore: []string{"*.log"},
	}
}

func discard() *log.Logger { return log.New(io.Discard) }

func newTestEngine(t *testing.T, r *state.Repository, opts Options) *Engine {
	t.Helper()
	q := queue.New(queue.WithLatency(0), queue.WithLogger(discard()))
	t.Cleanup(func() { _ = q.Close(context.Background()) })

	if opts.Logger == nil {
		opts.Logger = discard()
	}
	if opts.Rand == nil {
		opts.Rand = func() float64 { return 0.99 }
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return testNow }
	}
	e, err := NewEngine(r, q, opts)
	require.NoError(t, err)
	return e
}

func wait[T any](t *testing.T, f *queue.Future[T], err error) (T, error) {
	t.Helper()
	require.NoError(t, err, "policy error")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return f.Wait(ctx)
}

func mustWait[T any](t *testing.T, f *queue.Future[T], err error) T {
	t.Helper()
	v, err := wait(t, f, err)
	require.NoError(t, err)
	return v
}

// waitOn adapts a direct (future, error) call result for wait.
func waitOn[T any](f *queue.Future[T], err error) func(*testing.T) (T, error) {
	return func(t *testing.T) (T, error) {
		t.Helper()
		return wait(t, f, err)
	}
}

// mustWaitOn adapts a direct (future, error) call result for mustWait.
func mustWaitOn[T any](f *queue.Future[T], err error) func(*testing.T) T {
	return func(t *testing.T) T {
		t.Helper()
		return mustWait(t, f, err)
	}
}

// memRegistry is an in-memory RemoteRegistry.
type memRegistry struct {
	mu        sync.Mutex
	remotes   []state.Remote
	failAdd   bool
	failRem   bool
	addCalled int
}

var errRegistry = errors.New("registry unavailable")

func (m *memRegistry) GetAll(context.Context) ([]state.Remote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]state.Remote(nil), m.remotes...), nil
}

func (m *memRegistry) Add(_ context.Context, name, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addCalled++
	if m.failAdd {
		return errRegistry
	}
	for i := range m.remotes {
		if m.remotes[i].Name == name {
			m.remotes[i].URL = url
			return nil
		}
	}
	m.remotes = append(m.remotes, state.Remote{Name: name, URL: url})
	return nil
}

func (m *memRegistry) Remove(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRem {
		return errRegistry
	}
	for i := range m.remotes {
		if m.remotes[i].Name == name {
			m.remotes = append(m.remotes[:i], m.remotes[i+1:]...)
			break
		}
	}
	return nil
}
