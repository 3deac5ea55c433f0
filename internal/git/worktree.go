package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/kurobon/nexusvc/internal/merge"
	"github.com/kurobon/nexusvc/internal/queue"
	"github.com/kurobon/nexusvc/internal/state"
	"github.com/kurobon/nexusvc/internal/status"
)

// WriteFile stores content for name in the working tree.
func (e *Engine) WriteFile(name, content string) (*queue.Future[struct{}], error) {
	if err := validPath(name); err != nil {
		return nil, err
	}
	return e.edit("Edit "+name, name, &content), nil
}

// DeleteFile removes name from the working tree.
func (e *Engine) DeleteFile(name string) (*queue.Future[struct{}], error) {
	if err := validPath(name); err != nil {
		return nil, err
	}
	if _, ok := e.store.Load().Files[name]; !ok {
		return nil, fmt.Errorf("pathspec '%s' did not match any files", name)
	}
	return e.edit("Delete "+name, name, nil), nil
}

// ApplyUpdateFile applies an assistant file update. It behaves exactly like
// a user edit.
func (e *Engine) ApplyUpdateFile(name, content string) (*queue.Future[struct{}], error) {
	if err := validPath(name); err != nil {
		return nil, err
	}
	return e.edit("Apply update "+name, name, &content), nil
}

func (e *Engine) edit(task, name string, content *string) *queue.Future[struct{}] {
	return submit(e, task, 0, func(ctx context.Context) (struct{}, error) {
		_, err := e.apply(ctx, func(r *state.Repository) error {
			if content == nil {
				delete(r.Files, name)
				return nil
			}
			r.Files[name] = *content
			return nil
		})
		return struct{}{}, err
	})
}

// RevertFile discards working changes to name. An untracked file is
// removed.
func (e *Engine) RevertFile(name string) (*queue.Future[struct{}], error) {
	if err := validPath(name); err != nil {
		return nil, err
	}
	return submit(e, "Revert "+name, 0, func(ctx context.Context) (struct{}, error) {
		_, err := e.apply(ctx, func(r *state.Repository) error {
			if v, ok := r.OriginalFiles[name]; ok {
				r.Files[name] = v
			} else {
				delete(r.Files, name)
			}
			return nil
		})
		if err != nil {
			return struct{}{}, err
		}
		e.resolver.MarkClean(ctx, name)
		return struct{}{}, nil
	}), nil
}

// Stageable lists what a commit may include.
type Stageable struct {
	Files   []string `json:"files"`
	Merging bool     `json:"merging"`
	// Draft is the prefilled commit message while merging.
	Draft string `json:"draft,omitempty"`
}

// Stageable returns the files a commit can select: everything that is
// neither unmodified nor ignored. A clean tree is an error unless a merge
// is waiting to be committed.
func (e *Engine) Stageable() (Stageable, error) {
	r := e.store.Load()
	out := Stageable{
		Files:   status.Changed(status.Classify(state.StatusInput(r))),
		Merging: r.Merge.Merging,
	}
	if out.Merging {
		out.Draft = merge.DraftMessage(r.Merge.Source, r.CurrentBranch)
	}
	if len(out.Files) == 0 && !out.Merging {
		return out, ErrCleanWorkingTree
	}
	return out, nil
}

func validPath(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("empty path: %w", ErrInvalidName)
	}
	return nil
}
