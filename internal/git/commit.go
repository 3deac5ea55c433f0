package git

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/kurobon/nexusvc/internal/merge"
	"github.com/kurobon/nexusvc/internal/queue"
	"github.com/kurobon/nexusvc/internal/state"
	"github.com/kurobon/nexusvc/internal/status"
)

// CommitOptions selects what to commit.
type CommitOptions struct {
	Message string
	// Files are the selected working files. Empty is allowed when amending;
	// when finalizing a merge it selects every changed file.
	Files []string
	Amend bool
	// Push enqueues a push right after the commit.
	Push bool
	// AllowLongSubject accepts a subject over MaxSubjectLength characters.
	AllowLongSubject bool
}

// CommitResult is what a finished commit produced.
type CommitResult struct {
	Commit state.Commit `json:"commit"`
	Branch string       `json:"branch"`
	Merged bool         `json:"merged"`
}

// Subject is the first line of a commit message.
func Subject(message string) string {
	subject, _, _ := strings.Cut(message, "\n")
	return strings.TrimSpace(subject)
}

// Commit records the selected files on the current branch. With Push set,
// the returned push future settles after the commit has run; otherwise it
// is nil.
func (e *Engine) Commit(opts CommitOptions) (*queue.Future[CommitResult], *queue.Future[PushResult], error) {
	r := e.store.Load()
	msg, err := e.checkCommit(r, &opts)
	if err != nil {
		return nil, nil, err
	}
	if opts.Push {
		if _, ok := r.Remote("origin"); !ok {
			return nil, nil, ErrNoOrigin
		}
	}
	files := slices.Clone(opts.Files)

	cf := submit(e, "Commit changes", e.delays.Commit, func(ctx context.Context) (CommitResult, error) {
		var res CommitResult
		_, err := e.apply(ctx, func(r *state.Repository) error {
			if r.Merge.Unresolved() {
				return ErrUnresolvedConflicts
			}
			b, ok := r.Branch(r.CurrentBranch)
			if !ok {
				return ErrDetachedHead
			}

			snapshot := maps.Clone(r.OriginalFiles)
			if snapshot == nil {
				snapshot = map[string]string{}
			}
			for _, f := range files {
				if v, ok := r.Files[f]; ok {
					snapshot[f] = v
				} else {
					delete(snapshot, f)
				}
			}

			var (
				c   state.Commit
				err error
			)
			if opts.Amend {
				c, err = r.Amend(snapshot, msg, e.author, e.now())
			} else {
				spec := state.CommitSpec{
					Parent:   b.Head,
					Snapshot: snapshot,
					Message:  msg,
					Author:   e.author,
					Lane:     state.LaneFor(r.CurrentBranch, e.trunk),
					Time:     e.now(),
				}
				if r.Merge.Merging {
					if src, ok := r.Branch(r.Merge.Source); ok {
						spec.SecondaryParent = src.Head
					}
				}
				c, err = r.CreateCommit(spec)
			}
			if err != nil {
				return err
			}

			b.Head = c.ID
			r.OriginalFiles = maps.Clone(snapshot)
			res = CommitResult{Commit: c, Branch: r.CurrentBranch, Merged: r.Merge.Merging}
			merge.Reset(r)
			return nil
		})
		if err != nil {
			return CommitResult{}, err
		}
		e.resolver.MarkClean(ctx, files...)
		e.logger.Info("committed", "id", res.Commit.ID, "branch", res.Branch, "files", len(files))
		return res, nil
	})

	var pf *queue.Future[PushResult]
	if opts.Push {
		pf = e.push()
	}
	return cf, pf, nil
}

// checkCommit applies the commit policy and returns the message to use.
func (e *Engine) checkCommit(r *state.Repository, opts *CommitOptions) (string, error) {
	if r.Merge.Unresolved() {
		return "", ErrUnresolvedConflicts
	}
	if len(opts.Files) == 0 && !opts.Amend && !r.Merge.Merging {
		return "", ErrNothingToCommit
	}

	msg := strings.TrimSpace(opts.Message)
	if msg == "" && r.Merge.Merging {
		msg = merge.DraftMessage(r.Merge.Source, r.CurrentBranch)
	}
	if msg == "" && opts.Amend {
		if c, ok := r.Commit(r.Head()); ok {
			msg = c.Message
		}
	}
	if msg == "" {
		return "", ErrEmptyMessage
	}
	if n := len([]rune(Subject(msg))); n > MaxSubjectLength && !opts.AllowLongSubject {
		return "", fmt.Errorf("%w: %d characters (recommended %d)", ErrSubjectTooLong, n, MaxSubjectLength)
	}

	changed := status.Changed(status.Classify(state.StatusInput(r)))
	if r.Merge.Merging && len(opts.Files) == 0 {
		// Concluding a merge records the merged working tree.
		opts.Files = changed
	}
	for _, f := range opts.Files {
		if !slices.Contains(changed, f) {
			return "", fmt.Errorf("%s: %w", f, ErrNotStageable)
		}
	}
	return msg, nil
}
