package mission

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kurobon/nexusvc/internal/git"
)

type Engine struct {
	Loader  *Loader
	Manager *git.SessionManager
}

func NewEngine(loader *Loader, manager *git.SessionManager) *Engine {
	return &Engine{
		Loader:  loader,
		Manager: manager,
	}
}

// StartMission creates a fresh session seeded from the mission and runs its
// setup commands. It returns the new session id.
func (e *Engine) StartMission(ctx context.Context, missionID string) (string, error) {
	m, err := e.Loader.LoadMission(missionID)
	if err != nil {
		return "", err
	}
	initial, err := e.Loader.Seed(missionID)
	if err != nil {
		return "", err
	}

	sessionID := fmt.Sprintf("mission-%s-%s", missionID, uuid.NewString()[:8])
	sess, err := e.Manager.CreateSessionFrom(ctx, sessionID, initial)
	if err != nil {
		return "", err
	}

	for _, cmdStr := range m.Setup {
		name, args := git.ParseCommand(cmdStr)
		if name == "" {
			continue
		}
		if _, err := git.Dispatch(ctx, sess, name, args); err != nil {
			return "", fmt.Errorf("setup failed at '%s': %w", cmdStr, err)
		}
	}
	return sessionID, nil
}

// VerifyMission checks the session's current repository against the
// mission's validation rules.
func (e *Engine) VerifyMission(sessionID string, missionID string) (*VerificationResult, error) {
	m, err := e.Loader.LoadMission(missionID)
	if err != nil {
		return nil, err
	}
	sess, ok := e.Manager.GetSession(sessionID)
	if !ok {
		return nil, fmt.Errorf("session not found")
	}
	return Verify(m, sess.Engine.Snapshot()), nil
}
