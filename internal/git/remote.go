package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/kurobon/nexusvc/internal/queue"
	"github.com/kurobon/nexusvc/internal/state"
)

// PushResult describes a finished push.
type PushResult struct {
	Remote   string `json:"remote"`
	Branch   string `json:"branch"`
	From     string `json:"from,omitempty"`
	To       string `json:"to"`
	UpToDate bool   `json:"upToDate"`
}

func (p PushResult) String() string {
	if p.UpToDate {
		return "Everything up-to-date"
	}
	from := p.From
	if from == "" {
		return fmt.Sprintf(" * [new branch]      %s -> %s", p.Branch, p.Branch)
	}
	return fmt.Sprintf("   %s..%s  %s -> %s", from, p.To, p.Branch, p.Branch)
}

// Push publishes the current branch head to origin.
func (e *Engine) Push() (*queue.Future[PushResult], error) {
	if _, ok := e.store.Load().Remote("origin"); !ok {
		return nil, ErrNoOrigin
	}
	return e.push(), nil
}

func (e *Engine) push() *queue.Future[PushResult] {
	return submit(e, "Push to remote", e.delays.Push, func(ctx context.Context) (PushResult, error) {
		var res PushResult
		_, err := e.apply(ctx, func(r *state.Repository) error {
			b, ok := r.Branch(r.CurrentBranch)
			if !ok {
				return ErrDetachedHead
			}
			if b.Head == "" {
				return fmt.Errorf("src refspec %s does not match any: %w", b.Name, state.ErrNoHead)
			}
			res = PushResult{Remote: "origin", Branch: b.Name, From: b.RemoteHead, To: b.Head}
			if b.Head == b.RemoteHead {
				res.UpToDate = true
				return nil
			}
			if b.RemoteHead != "" && !r.IsAncestor(b.RemoteHead, b.Head) {
				return fmt.Errorf("push %s: %w", b.Name, ErrNonFastForward)
			}
			if e.rand() < e.pushFailureRate {
				return fmt.Errorf("push %s: %w", b.Name, ErrNonFastForward)
			}
			b.RemoteHead = b.Head
			return nil
		})
		if err != nil {
			return PushResult{}, err
		}
		return res, nil
	})
}

// Pull acknowledges a pull without fetching anything and returns the
// command it stands for.
func (e *Engine) Pull(rebase bool) (*queue.Future[string], error) {
	r := e.store.Load()
	if r.CurrentBranch == "" {
		return nil, ErrDetachedHead
	}
	line := "git pull origin " + r.CurrentBranch
	if rebase {
		line = "git pull --rebase origin " + r.CurrentBranch
	}
	return submit(e, "Pull from remote", e.delays.Pull, func(ctx context.Context) (string, error) {
		return line, nil
	}), nil
}

// ConfigureRemote adds or updates a remote and persists it.
func (e *Engine) ConfigureRemote(name, url string) (*queue.Future[state.Remote], error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, ErrRemoteURLRequired
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "origin"
	}
	if strings.ContainsAny(name, " \t/") {
		return nil, fmt.Errorf("'%s': %w", name, ErrInvalidName)
	}

	task := fmt.Sprintf("Configure remote '%s'", name)
	return submit(e, task, e.delays.RemoteConfig, func(ctx context.Context) (state.Remote, error) {
		if strings.Contains(url, "invalid") {
			return state.Remote{}, fmt.Errorf("unable to access '%s': %w", url, ErrHostUnresolved)
		}
		if e.remotes != nil {
			if err := e.remotes.Add(ctx, name, url); err != nil {
				return state.Remote{}, fmt.Errorf("persist remote %s: %w", name, err)
			}
		}
		_, err := e.apply(ctx, func(r *state.Repository) error {
			r.SetRemote(name, url)
			r.GitHub = connectGitHub(r.GitHub, url)
			return nil
		})
		if err != nil {
			return state.Remote{}, err
		}
		e.logger.Info("remote configured", "name", name, "url", url)
		return state.Remote{Name: name, URL: url}, nil
	}), nil
}

// RemoveRemote drops a remote from the repository and the registry.
func (e *Engine) RemoveRemote(name string) (*queue.Future[struct{}], error) {
	if _, ok := e.store.Load().Remote(name); !ok {
		return nil, fmt.Errorf("'%s': %w", name, ErrRemoteNotFound)
	}
	task := fmt.Sprintf("Remove remote '%s'", name)
	return submit(e, task, e.delays.RemoveRemote, func(ctx context.Context) (struct{}, error) {
		_, err := e.apply(ctx, func(r *state.Repository) error {
			if !r.RemoveRemote(name) {
				return fmt.Errorf("'%s': %w", name, ErrRemoteNotFound)
			}
			if name == "origin" {
				r.GitHub = state.GitHub{Username: r.GitHub.Username}
			}
			return nil
		})
		if err != nil {
			return struct{}{}, err
		}
		if e.remotes != nil {
			if err := e.remotes.Remove(ctx, name); err != nil {
				e.logger.Warn("remote registry remove failed", "name", name, "err", err)
			}
		}
		return struct{}{}, nil
	}), nil
}
