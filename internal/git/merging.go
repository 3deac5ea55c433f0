package git

import (
	"context"
	"fmt"

	"github.com/kurobon/nexusvc/internal/merge"
	"github.com/kurobon/nexusvc/internal/queue"
	"github.com/kurobon/nexusvc/internal/state"
)

// Merge starts merging source into the current branch. The merge stays
// open until a commit finalizes it or AbortMerge is called.
func (e *Engine) Merge(source string) (*queue.Future[merge.Result], error) {
	r := e.store.Load()
	if r.Merge.Merging {
		return nil, ErrMergeInProgress
	}
	if _, ok := r.Branch(source); !ok {
		return nil, fmt.Errorf("merge: %s - not something we can merge: %w", source, state.ErrBranchNotFound)
	}
	return submit(e, "Merge "+source, 0, func(ctx context.Context) (merge.Result, error) {
		var res merge.Result
		_, err := e.apply(ctx, func(r *state.Repository) error {
			var err error
			res, err = merge.Begin(r, source, e.predicate)
			return err
		})
		if err != nil {
			return merge.Result{}, err
		}
		e.logger.Info("merge started", "source", source, "conflicts", len(res.Conflicts), "upToDate", res.UpToDate)
		return res, nil
	}), nil
}

// ResolveConflict writes the resolved content of a conflicted file.
func (e *Engine) ResolveConflict(name, content string) (*queue.Future[struct{}], error) {
	if !e.store.Load().Merge.Merging {
		return nil, merge.ErrNoMergeInProgress
	}
	return submit(e, "Resolve "+name, 0, func(ctx context.Context) (struct{}, error) {
		_, err := e.apply(ctx, func(r *state.Repository) error {
			return merge.Resolve(r, name, content)
		})
		return struct{}{}, err
	}), nil
}

// AbortMerge restores the working tree from before the merge.
func (e *Engine) AbortMerge() (*queue.Future[struct{}], error) {
	if !e.store.Load().Merge.Merging {
		return nil, merge.ErrNoMergeInProgress
	}
	return submit(e, "Abort merge", 0, func(ctx context.Context) (struct{}, error) {
		_, err := e.apply(ctx, merge.Abort)
		return struct{}{}, err
	}), nil
}
