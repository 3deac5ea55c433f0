package git

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurobon/nexusvc/internal/state"
)

func newTestManager(t *testing.T, opts ManagerOptions) *SessionManager {
	t.Helper()
	opts.Logger = discard()
	if opts.Seed == nil {
		opts.Seed = func(context.Context) (*state.Repository, error) { return sampleRepo(), nil }
	}
	sm := NewSessionManager(opts)
	t.Cleanup(func() { _ = sm.Close(context.Background()) })
	return sm
}

func TestSessionManager(t *testing.T) {
	sm := newTestManager(t, ManagerOptions{})
	ctx := context.Background()

	s1, err := sm.CreateSession(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", s1.ID)
	assert.Equal(t, "c222222", s1.Engine.Snapshot().Head())

	again, err := sm.CreateSession(ctx, "alpha")
	require.NoError(t, err)
	assert.Same(t, s1, again)

	anon, err := sm.CreateSession(ctx, "")
	require.NoError(t, err)
	assert.Len(t, anon.ID, 36)

	got, ok := sm.GetSession("alpha")
	assert.True(t, ok)
	assert.Same(t, s1, got)
	_, ok = sm.GetSession("missing")
	assert.False(t, ok)

	assert.ElementsMatch(t, []string{"alpha", anon.ID}, sm.SessionIDs())
}

func TestSessionManager_Isolation(t *testing.T) {
	sm := newTestManager(t, ManagerOptions{})
	ctx := context.Background()

	a, err := sm.CreateSession(ctx, "a")
	require.NoError(t, err)
	b, err := sm.CreateSession(ctx, "b")
	require.NoError(t, err)

	mustWaitOn(a.Engine.WriteFile("app.js", "only in a\n"))(t)
	assert.Equal(t, "only in a\n", a.Engine.Snapshot().Files["app.js"])
	assert.Equal(t, "v2\n", b.Engine.Snapshot().Files["app.js"])
}

func TestSessionManager_DefaultSeed(t *testing.T) {
	sm := NewSessionManager(ManagerOptions{Logger: discard(), Trunk: "main"})
	t.Cleanup(func() { _ = sm.Close(context.Background()) })

	s, err := sm.CreateSession(context.Background(), "empty")
	require.NoError(t, err)
	r := s.Engine.Snapshot()
	assert.Equal(t, "main", r.CurrentBranch)
	assert.Empty(t, r.Commits)
	assert.Empty(t, r.Head())
}

func TestSessionManager_CreateSessionFrom(t *testing.T) {
	sm := newTestManager(t, ManagerOptions{})
	initial := sampleRepo()
	initial.CurrentBranch = "feature"

	s, err := sm.CreateSessionFrom(context.Background(), "mission", initial)
	require.NoError(t, err)
	assert.Equal(t, "feature", s.Engine.Snapshot().CurrentBranch)

	initial.Files["app.js"] = "mutated later"
	assert.Equal(t, "v2\n", s.Engine.Snapshot().Files["app.js"], "the session owns a copy")
}

func TestSessionManager_RestoresRemotes(t *testing.T) {
	reg := &memRegistry{remotes: []state.Remote{
		{Name: "origin", URL: "https://github.com/octo/demo.git"},
		{Name: "backup", URL: "https://example.com/backup.git"},
	}}
	sm := newTestManager(t, ManagerOptions{Remotes: reg})

	s, err := sm.CreateSession(context.Background(), "r")
	require.NoError(t, err)
	r := s.Engine.Snapshot()
	assert.Equal(t, reg.remotes, r.Remotes)
	assert.True(t, r.GitHub.Connected)
	assert.Equal(t, "octo", r.GitHub.Username)
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) add(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) ofType(typ EventType) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Event
	for _, ev := range l.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func TestSessionManager_Events(t *testing.T) {
	sm := newTestManager(t, ManagerOptions{})
	events := &eventLog{}
	unsubscribe := sm.Subscribe(events.add)

	s, err := sm.CreateSession(context.Background(), "ev")
	require.NoError(t, err)

	mustWaitOn(s.Engine.WriteFile("app.js", "v3\n"))(t)
	_, err = waitOn(s.Engine.ConfigureRemote("origin", "https://invalid.example/x.git"))(t)
	require.ErrorIs(t, err, ErrHostUnresolved)

	require.Eventually(t, func() bool {
		busy := events.ofType(EventBusy)
		return len(busy) > 0 && !busy[len(busy)-1].Data.(BusyEvent).Busy && len(events.ofType(EventError)) == 1
	}, time.Second, 5*time.Millisecond)

	states := events.ofType(EventState)
	require.NotEmpty(t, states)
	gs := states[0].Data.(*state.GraphState)
	assert.Equal(t, "ev", states[0].Session)
	assert.Equal(t, "M", gs.FileStatuses["app.js"])

	busy := events.ofType(EventBusy)
	first := busy[0].Data.(BusyEvent)
	assert.True(t, first.Busy)
	assert.Equal(t, "Edit app.js", first.Task)

	errEv := events.ofType(EventError)[0].Data.(ErrorEvent)
	assert.Equal(t, "Configure remote 'origin'", errEv.Op)
	assert.Equal(t, "unable to access 'https://invalid.example/x.git': could not resolve host", errEv.Message)

	unsubscribe()
	n := len(events.ofType(EventState))
	mustWaitOn(s.Engine.WriteFile("app.js", "v4\n"))(t)
	assert.Len(t, events.ofType(EventState), n)
}

func TestErrorEvent(t *testing.T) {
	ev := errorEvent("Push to remote", opError("Push to remote", ErrNonFastForward))
	assert.Equal(t, "pull", ev.Action)
	assert.Equal(t, ErrNonFastForward.Error(), ev.Message)

	ev = errorEvent("Task", context.Canceled)
	assert.Equal(t, "context canceled", ev.Message)
	assert.Empty(t, ev.Action)
}
