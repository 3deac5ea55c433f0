package git

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/kurobon/nexusvc/internal/state"
)

// scratchRef is where HEAD points while commits are replayed, so that a
// commit without parents is created as a root.
const scratchRef = plumbing.ReferenceName("refs/heads/nexusvc-export")

// ExportResult maps the simulated history onto a real git repository.
type ExportResult struct {
	// Hashes maps simulated commit ids to git commit hashes.
	Hashes map[string]string `json:"hashes"`
	Head   string            `json:"head,omitempty"`
	// Log is the one-line log of the current branch, newest first.
	Log []string `json:"log"`

	Repository *gogit.Repository `json:"-"`
}

// Export replays every commit of the current snapshot into an in-memory git
// repository and recreates its branches and tags. Simulated ids are left
// untouched.
func (e *Engine) Export() (*ExportResult, error) {
	return Export(e.store.Load())
}

// Export materializes r. Parents that are no longer listed are skipped.
func Export(r *state.Repository) (*ExportResult, error) {
	fs := memfs.New()
	repo, err := gogit.Init(memory.NewStorage(), fs)
	if err != nil {
		return nil, fmt.Errorf("export: init: %w", err)
	}
	w, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("export: worktree: %w", err)
	}
	if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, scratchRef)); err != nil {
		return nil, err
	}

	res := &ExportResult{Hashes: make(map[string]string, len(r.Commits)), Repository: repo}
	current := map[string]string{}

	for _, c := range slices.Backward(r.Commits) {
		if err := writeTree(w, current, c.Changes); err != nil {
			return nil, fmt.Errorf("export %s: %w", c.ID, err)
		}
		current = c.Changes

		var parents []plumbing.Hash
		for _, p := range []string{c.Parent, c.SecondaryParent} {
			if h, ok := res.Hashes[p]; ok {
				parents = append(parents, plumbing.NewHash(h))
			}
		}
		if err := repo.Storer.RemoveReference(scratchRef); err != nil && !errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, err
		}
		sig := Signature(c.Author, c.Timestamp)
		h, err := w.Commit(c.Message, &gogit.CommitOptions{
			Author:            sig,
			Committer:         sig,
			Parents:           parents,
			AllowEmptyCommits: true,
		})
		if err != nil {
			return nil, fmt.Errorf("export %s: commit: %w", c.ID, err)
		}
		res.Hashes[c.ID] = h.String()

		for _, tag := range c.Tags {
			if _, err := repo.CreateTag(tag, h, nil); err != nil {
				return nil, fmt.Errorf("export tag %s: %w", tag, err)
			}
		}
	}

	if err := repo.Storer.RemoveReference(scratchRef); err != nil && !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, err
	}
	for _, b := range r.Branches {
		h, ok := res.Hashes[b.Head]
		if !ok {
			continue
		}
		ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(b.Name), plumbing.NewHash(h))
		if err := repo.Storer.SetReference(ref); err != nil {
			return nil, fmt.Errorf("export branch %s: %w", b.Name, err)
		}
	}
	if r.CurrentBranch != "" {
		head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(r.CurrentBranch))
		if err := repo.Storer.SetReference(head); err != nil {
			return nil, err
		}
	}

	if h, ok := res.Hashes[r.Head()]; ok {
		res.Head = h
		log, err := oneLineLog(repo, plumbing.NewHash(h))
		if err != nil {
			return nil, err
		}
		res.Log = log
	}
	return res, nil
}

// writeTree turns the worktree holding prev into next and stages the
// difference.
func writeTree(w *gogit.Worktree, prev, next map[string]string) error {
	for name := range prev {
		if _, ok := next[name]; ok {
			continue
		}
		if _, err := w.Remove(name); err != nil {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	names := make([]string, 0, len(next))
	for name := range next {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := util.WriteFile(w.Filesystem, name, []byte(next[name]), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		if _, err := w.Add(name); err != nil {
			return fmt.Errorf("add %s: %w", name, err)
		}
	}
	return nil
}

func oneLineLog(repo *gogit.Repository, from plumbing.Hash) ([]string, error) {
	iter, err := repo.Log(&gogit.LogOptions{From: from})
	if err != nil {
		return nil, fmt.Errorf("export log: %w", err)
	}
	defer iter.Close()
	var out []string
	err = iter.ForEach(func(c *object.Commit) error {
		out = append(out, fmt.Sprintf("%s %s", c.Hash.String()[:state.IDLength], Subject(c.Message)))
		return nil
	})
	return out, err
}
