package git

import (
	"context"
	"fmt"
	"maps"

	"github.com/kurobon/nexusvc/internal/merge"
	"github.com/kurobon/nexusvc/internal/queue"
	"github.com/kurobon/nexusvc/internal/state"
)

func short(id string) string {
	if len(id) > state.IDLength {
		return id[:state.IDLength]
	}
	return id
}

// RevertCommit records a commit that reverts ref on the current branch.
// The working content is not inverted: the new commit carries the current
// HEAD snapshot.
func (e *Engine) RevertCommit(ref string) (*queue.Future[state.Commit], error) {
	target, err := e.store.Load().ResolveCommit(ref)
	if err != nil {
		return nil, err
	}
	return submit(e, "Revert commit "+short(target.ID), e.delays.Revert, func(ctx context.Context) (state.Commit, error) {
		var c state.Commit
		_, err := e.apply(ctx, func(r *state.Repository) error {
			b, ok := r.Branch(r.CurrentBranch)
			if !ok {
				return ErrDetachedHead
			}
			var err error
			c, err = r.CreateCommit(state.CommitSpec{
				Parent:   b.Head,
				Snapshot: r.Snapshot(b.Head),
				Message:  fmt.Sprintf("Revert %q", target.Message),
				Author:   e.author,
				Lane:     target.Lane,
				Time:     e.now(),
			})
			if err != nil {
				return err
			}
			b.Head = c.ID
			return nil
		})
		return c, err
	}), nil
}

// HardReset moves the current branch to ref, discarding every commit listed
// after it, and replaces both the HEAD snapshot and the working tree with
// the target's tree.
func (e *Engine) HardReset(ref string) (*queue.Future[state.Commit], error) {
	r := e.store.Load()
	if r.CurrentBranch == "" {
		return nil, ErrDetachedHead
	}
	target, err := r.ResolveCommit(ref)
	if err != nil {
		return nil, err
	}
	return submit(e, "Reset hard -> "+short(target.ID), e.delays.Reset, func(ctx context.Context) (state.Commit, error) {
		_, err := e.apply(ctx, func(r *state.Repository) error {
			if err := r.HardReset(r.CurrentBranch, target.ID); err != nil {
				return err
			}
			r.OriginalFiles = maps.Clone(target.Changes)
			r.Files = maps.Clone(target.Changes)
			merge.Reset(r)
			return nil
		})
		if err != nil {
			return state.Commit{}, err
		}
		e.logger.Info("hard reset", "to", target.ID)
		return target, nil
	}), nil
}

// CherryPick acknowledges picking ref onto the current branch. No content
// is applied.
func (e *Engine) CherryPick(ref string) (*queue.Future[string], error) {
	r := e.store.Load()
	target, err := r.ResolveCommit(ref)
	if err != nil {
		return nil, err
	}
	branch := r.CurrentBranch
	return submit(e, "Cherry-pick "+short(target.ID), e.delays.CherryPick, func(ctx context.Context) (string, error) {
		return fmt.Sprintf("[%s] cherry-picked %s %s", branch, short(target.ID), Subject(target.Message)), nil
	}), nil
}
