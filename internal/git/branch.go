package git

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/kurobon/nexusvc/internal/queue"
	"github.com/kurobon/nexusvc/internal/state"
	"github.com/kurobon/nexusvc/internal/status"
)

// CreateBranch creates name at from (the current head when empty) and
// switches to it. The working tree is carried over.
func (e *Engine) CreateBranch(name, from string) (*queue.Future[state.Branch], error) {
	if err := validBranchName(name); err != nil {
		return nil, err
	}
	return e.branch("Create branch "+name, e.delays.Branch, name, from)
}

// StartTask creates and switches to the branch for a task of the given
// type, named "<type>/<kebab-case name>".
func (e *Engine) StartTask(taskType, name string) (*queue.Future[state.Branch], error) {
	branch, err := state.TaskBranchName(taskType, name)
	if err != nil {
		return nil, err
	}
	return e.branch("Start task: "+branch, e.delays.Task, branch, "")
}

func (e *Engine) branch(task string, delay time.Duration, name, from string) (*queue.Future[state.Branch], error) {
	r := e.store.Load()
	if r.Merge.Merging {
		return nil, ErrMergeInProgress
	}
	if _, ok := r.Branch(name); ok {
		return nil, fmt.Errorf("a branch named '%s' already exists: %w", name, state.ErrBranchExists)
	}
	if from != "" {
		c, err := r.ResolveCommit(from)
		if err != nil {
			return nil, err
		}
		from = c.ID
	}
	return submit(e, task, delay, func(ctx context.Context) (state.Branch, error) {
		var b state.Branch
		_, err := e.apply(ctx, func(r *state.Repository) error {
			start := from
			if start == "" {
				start = r.Head()
			}
			if err := r.CreateBranch(name, start); err != nil {
				return err
			}
			r.CurrentBranch = name
			nb, _ := r.Branch(name)
			b = *nb
			return nil
		})
		return b, err
	}), nil
}

// Checkout switches to an existing branch and loads its head snapshot into
// both the HEAD snapshot and the working tree.
func (e *Engine) Checkout(name string) (*queue.Future[state.Branch], error) {
	r := e.store.Load()
	if r.Merge.Merging {
		return nil, ErrMergeInProgress
	}
	if _, ok := r.Branch(name); !ok {
		return nil, fmt.Errorf("pathspec '%s' did not match any branch: %w", name, state.ErrBranchNotFound)
	}
	if !status.Clean(status.Classify(state.StatusInput(r))) {
		return nil, fmt.Errorf("checkout %s: %w", name, ErrDirtyWorkingTree)
	}
	return submit(e, "Checkout "+name, e.delays.Checkout, func(ctx context.Context) (state.Branch, error) {
		var b state.Branch
		_, err := e.apply(ctx, func(r *state.Repository) error {
			nb, ok := r.Branch(name)
			if !ok {
				return fmt.Errorf("checkout %s: %w", name, state.ErrBranchNotFound)
			}
			snapshot := r.Snapshot(nb.Head)
			r.CurrentBranch = name
			r.OriginalFiles = maps.Clone(snapshot)
			r.Files = maps.Clone(snapshot)
			b = *nb
			return nil
		})
		return b, err
	}), nil
}

func validBranchName(name string) error {
	switch {
	case name == "",
		strings.ContainsAny(name, " \t~^:?*[\\"),
		strings.HasPrefix(name, "-"),
		strings.HasPrefix(name, "/"),
		strings.HasSuffix(name, "/"),
		strings.Contains(name, ".."):
		return fmt.Errorf("'%s': %w", name, ErrInvalidName)
	}
	return nil
}
