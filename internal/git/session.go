package git

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/kurobon/nexusvc/internal/merge"
	"github.com/kurobon/nexusvc/internal/queue"
	"github.com/kurobon/nexusvc/internal/state"
	"github.com/kurobon/nexusvc/internal/status"
)

// EventType names what changed in a session.
type EventType string

const (
	EventState EventType = "state"
	EventBusy  EventType = "busy"
	EventError EventType = "error"
)

// Event is pushed to subscribers whenever a session changes.
type Event struct {
	Type    EventType `json:"type"`
	Session string    `json:"session"`
	Data    any       `json:"data"`
}

// BusyEvent is the payload of EventBusy.
type BusyEvent struct {
	Busy bool   `json:"busy"`
	Task string `json:"task,omitempty"`
}

// ErrorEvent is the payload of EventError.
type ErrorEvent struct {
	Op      string `json:"op"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
}

// Session is one user's simulated repository.
type Session struct {
	ID        string
	Engine    *Engine
	CreatedAt time.Time
	Reflog    []ReflogEntry
	mu        sync.RWMutex
}

// ReflogEntry records a command executed in the session.
type ReflogEntry struct {
	Command   string    `json:"command"`
	Timestamp time.Time `json:"timestamp"`
	Branch    string    `json:"branch"`
	Hash      string    `json:"hash"`
}

// RecordReflog adds an entry for cmd at the current head.
func (s *Session) RecordReflog(cmd string) {
	r := s.Engine.Snapshot()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Reflog = append(s.Reflog, ReflogEntry{
		Command:   cmd,
		Timestamp: time.Now(),
		Branch:    r.CurrentBranch,
		Hash:      r.Head(),
	})
}

// History returns the recorded commands, oldest first.
func (s *Session) History() []ReflogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ReflogEntry(nil), s.Reflog...)
}

// ManagerOptions configures the engines a SessionManager creates.
type ManagerOptions struct {
	// Seed builds the initial repository of a new session. Defaults to an
	// empty repository on the trunk branch.
	Seed func(ctx context.Context) (*state.Repository, error)
	// NewCache returns the status cache of a session; nil disables caching.
	NewCache        func(sessionID string) status.Cache
	Remotes         RemoteRegistry
	Predicate       merge.Predicate
	Logger          *log.Logger
	QueueLatency    time.Duration
	Delays          Delays
	PushFailureRate float64
	Trunk           string
	Author          string
}

// SessionManager handles concurrent access to sessions.
type SessionManager struct {
	opts ManagerOptions

	sessions map[string]*Session
	mu       sync.RWMutex

	subMu   sync.RWMutex
	subs    map[int]func(Event)
	nextSub int
}

// NewSessionManager creates a new session manager.
func NewSessionManager(opts ManagerOptions) *SessionManager {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Trunk == "" {
		opts.Trunk = "master"
	}
	if opts.Seed == nil {
		trunk := opts.Trunk
		opts.Seed = func(context.Context) (*state.Repository, error) {
			return &state.Repository{CurrentBranch: trunk, Branches: []state.Branch{{Name: trunk}}}, nil
		}
	}
	return &SessionManager{
		opts:     opts,
		sessions: make(map[string]*Session),
		subs:     make(map[int]func(Event)),
	}
}

// CreateSession returns the session for id, creating it on first use. An
// empty id gets a fresh uuid.
func (sm *SessionManager) CreateSession(ctx context.Context, id string) (*Session, error) {
	return sm.createSession(ctx, id, sm.opts.Seed)
}

// CreateSessionFrom is CreateSession with an explicit initial repository.
// An existing session with the same id is returned unchanged.
func (sm *SessionManager) CreateSessionFrom(ctx context.Context, id string, initial *state.Repository) (*Session, error) {
	return sm.createSession(ctx, id, func(context.Context) (*state.Repository, error) {
		return initial.Clone(), nil
	})
}

func (sm *SessionManager) createSession(ctx context.Context, id string, seed func(context.Context) (*state.Repository, error)) (*Session, error) {
	if id == "" {
		id = uuid.NewString()
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if s, exists := sm.sessions[id]; exists {
		return s, nil
	}

	initial, err := seed(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed session %s: %w", id, err)
	}
	if err := sm.restoreRemotes(ctx, initial); err != nil {
		sm.opts.Logger.Warn("could not restore remotes", "session", id, "err", err)
	}

	logger := sm.opts.Logger.With("session", id)
	q := queue.New(
		queue.WithLatency(sm.opts.QueueLatency),
		queue.WithLogger(logger),
		queue.WithListener(func(busy bool, task string) {
			sm.publish(Event{Type: EventBusy, Session: id, Data: BusyEvent{Busy: busy, Task: task}})
		}),
		queue.WithErrorHandler(func(task string, err error) {
			sm.publish(Event{Type: EventError, Session: id, Data: errorEvent(task, err)})
		}),
	)

	var cache status.Cache
	if sm.opts.NewCache != nil {
		cache = sm.opts.NewCache(id)
	}
	engine, err := NewEngine(initial, q, Options{
		Cache:           cache,
		Remotes:         sm.opts.Remotes,
		Predicate:       sm.opts.Predicate,
		Logger:          logger.WithPrefix("engine"),
		Delays:          sm.opts.Delays,
		PushFailureRate: sm.opts.PushFailureRate,
		Trunk:           sm.opts.Trunk,
		Author:          sm.opts.Author,
	})
	if err != nil {
		_ = q.Close(ctx)
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	engine.OnChange(func(*state.Repository) {
		sm.publish(Event{Type: EventState, Session: id, Data: engine.GraphState()})
	})

	s := &Session{ID: id, Engine: engine, CreatedAt: time.Now()}
	sm.sessions[id] = s
	logger.Info("session created")
	return s, nil
}

func (sm *SessionManager) restoreRemotes(ctx context.Context, r *state.Repository) error {
	if sm.opts.Remotes == nil {
		return nil
	}
	remotes, err := sm.opts.Remotes.GetAll(ctx)
	if err != nil {
		return err
	}
	for _, rm := range remotes {
		r.SetRemote(rm.Name, rm.URL)
		if rm.Name == "origin" {
			r.GitHub = connectGitHub(r.GitHub, rm.URL)
		}
	}
	return nil
}

// GetSession retrieves a session by ID.
func (sm *SessionManager) GetSession(id string) (*Session, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	s, ok := sm.sessions[id]
	return s, ok
}

// SessionIDs lists the live sessions, sorted.
func (sm *SessionManager) SessionIDs() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	ids := make([]string, 0, len(sm.sessions))
	for id := range sm.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Subscribe registers fn for every session event and returns a function
// that removes it. fn runs on the queue worker and must not block.
func (sm *SessionManager) Subscribe(fn func(Event)) func() {
	sm.subMu.Lock()
	defer sm.subMu.Unlock()
	id := sm.nextSub
	sm.nextSub++
	sm.subs[id] = fn
	return func() {
		sm.subMu.Lock()
		defer sm.subMu.Unlock()
		delete(sm.subs, id)
	}
}

func (sm *SessionManager) publish(ev Event) {
	sm.subMu.RLock()
	defer sm.subMu.RUnlock()
	for _, fn := range sm.subs {
		fn(ev)
	}
}

// Close drains and stops every session queue.
func (sm *SessionManager) Close(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	var errs []error
	for id, s := range sm.sessions {
		if err := s.Engine.Queue().Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

func errorEvent(task string, err error) ErrorEvent {
	ev := ErrorEvent{Op: task, Message: err.Error()}
	var oe *OpError
	if errors.As(err, &oe) {
		ev.Message = oe.Message()
		ev.Action = oe.Action
	}
	return ev
}
