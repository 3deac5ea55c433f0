package state

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// IDLength is the number of hex characters in a commit id.
const IDLength = 7

// NewID returns a fresh short commit id that is not yet used in r.
func (r *Repository) NewID() string {
	for {
		id := strings.ReplaceAll(uuid.NewString(), "-", "")[:IDLength]
		if _, ok := r.Commit(id); !ok {
			return id
		}
	}
}

// CommitSpec describes a commit to be created.
type CommitSpec struct {
	Parent          string
	SecondaryParent string
	Snapshot        map[string]string
	Message         string
	Author          string
	Lane            int
	Time            time.Time
}

// CreateCommit adds a new commit at the front of the list and returns it.
// Moving a branch head is left to the caller.
func (r *Repository) CreateCommit(spec CommitSpec) (Commit, error) {
	if spec.Parent != "" {
		if _, ok := r.Commit(spec.Parent); !ok {
			return Commit{}, fmt.Errorf("parent %s: %w", spec.Parent, ErrCommitNotFound)
		}
	}
	if spec.SecondaryParent != "" {
		if _, ok := r.Commit(spec.SecondaryParent); !ok {
			return Commit{}, fmt.Errorf("secondary parent %s: %w", spec.SecondaryParent, ErrCommitNotFound)
		}
	}
	if spec.Time.IsZero() {
		spec.Time = time.Now()
	}
	c := Commit{
		ID:              r.NewID(),
		Message:         spec.Message,
		Author:          spec.Author,
		Timestamp:       spec.Time,
		Changes:         maps.Clone(spec.Snapshot),
		Parent:          spec.Parent,
		SecondaryParent: spec.SecondaryParent,
		Lane:            spec.Lane,
	}
	if c.Changes == nil {
		c.Changes = map[string]string{}
	}
	r.Commits = append([]Commit{c}, r.Commits...)
	return c, nil
}

// Amend replaces the current branch head with a commit carrying the same
// parents and lane. The old head disappears from the list.
func (r *Repository) Amend(snapshot map[string]string, message, author string, now time.Time) (Commit, error) {
	head := r.Head()
	if head == "" {
		return Commit{}, fmt.Errorf("amend on %s: %w", r.CurrentBranch, ErrNoHead)
	}
	old, ok := r.Commit(head)
	if !ok {
		return Commit{}, fmt.Errorf("amend %s: %w", head, ErrCommitNotFound)
	}
	r.Commits = slices.DeleteFunc(r.Commits, func(c Commit) bool { return c.ID == head })

	c, err := r.CreateCommit(CommitSpec{
		Parent:          old.Parent,
		SecondaryParent: old.SecondaryParent,
		Snapshot:        snapshot,
		Message:         message,
		Author:          author,
		Lane:            old.Lane,
		Time:            now,
	})
	if err != nil {
		return Commit{}, err
	}
	c.Tags = slices.Clone(old.Tags)
	r.Commits[0] = c
	return c, nil
}

// CreateBranch adds a branch pointing at from. It does not switch to it.
func (r *Repository) CreateBranch(name, from string) error {
	if name == "" {
		return fmt.Errorf("branch name required")
	}
	if _, ok := r.Branch(name); ok {
		return fmt.Errorf("a branch named '%s' already exists: %w", name, ErrBranchExists)
	}
	if from != "" {
		if _, ok := r.Commit(from); !ok {
			return fmt.Errorf("start point %s: %w", from, ErrCommitNotFound)
		}
	}
	r.Branches = append(r.Branches, Branch{Name: name, Head: from})
	return nil
}

// HardReset moves branch to target and truncates the commit list to the
// slice starting at target.
//
// The truncation is by list position, not reachability: commits of other
// branches that were created after target are dropped as well.
func (r *Repository) HardReset(branch, target string) error {
	idx := slices.IndexFunc(r.Commits, func(c Commit) bool { return c.ID == target })
	if idx < 0 {
		return fmt.Errorf("reset to %s: %w", target, ErrCommitNotFound)
	}
	b, ok := r.Branch(branch)
	if !ok {
		return fmt.Errorf("reset %s: %w", branch, ErrBranchNotFound)
	}
	r.Commits = slices.Clone(r.Commits[idx:])
	b.Head = target
	return nil
}

// LaneFor returns the rendering lane for commits made on branch.
func LaneFor(branch, trunk string) int {
	if branch == trunk {
		return 0
	}
	return 1
}

// Commit looks a commit up by id.
func (r *Repository) Commit(id string) (Commit, bool) {
	if id == "" {
		return Commit{}, false
	}
	for _, c := range r.Commits {
		if c.ID == id {
			return c, true
		}
	}
	return Commit{}, false
}

// ResolveCommit accepts a full id or a unique prefix.
func (r *Repository) ResolveCommit(ref string) (Commit, error) {
	if ref == "" {
		return Commit{}, fmt.Errorf("empty revision: %w", ErrCommitNotFound)
	}
	if b, ok := r.Branch(ref); ok && b.Head != "" {
		ref = b.Head
	}
	var found []Commit
	for _, c := range r.Commits {
		if c.ID == ref {
			return c, nil
		}
		if strings.HasPrefix(c.ID, ref) {
			found = append(found, c)
		}
	}
	switch len(found) {
	case 0:
		return Commit{}, fmt.Errorf("revision %s: %w", ref, ErrCommitNotFound)
	case 1:
		return found[0], nil
	}
	return Commit{}, fmt.Errorf("short revision %s is ambiguous", ref)
}

// Branch returns a pointer to the named branch. Callers may only write
// through it on a repository they own.
func (r *Repository) Branch(name string) (*Branch, bool) {
	for i := range r.Branches {
		if r.Branches[i].Name == name {
			return &r.Branches[i], true
		}
	}
	return nil, false
}

// Head returns the head commit id of the current branch.
func (r *Repository) Head() string {
	if b, ok := r.Branch(r.CurrentBranch); ok {
		return b.Head
	}
	return ""
}

// Snapshot returns the tree of commit id, or an empty map for "".
func (r *Repository) Snapshot(id string) map[string]string {
	if c, ok := r.Commit(id); ok {
		return c.Changes
	}
	return map[string]string{}
}

// Remote returns the named remote.
func (r *Repository) Remote(name string) (Remote, bool) {
	for _, rm := range r.Remotes {
		if rm.Name == name {
			return rm, true
		}
	}
	return Remote{}, false
}

// SetRemote adds or replaces a remote.
func (r *Repository) SetRemote(name, url string) {
	for i := range r.Remotes {
		if r.Remotes[i].Name == name {
			r.Remotes[i].URL = url
			return
		}
	}
	r.Remotes = append(r.Remotes, Remote{Name: name, URL: url})
}

// RemoveRemote drops a remote and reports whether it existed.
func (r *Repository) RemoveRemote(name string) bool {
	n := len(r.Remotes)
	r.Remotes = slices.DeleteFunc(r.Remotes, func(rm Remote) bool { return rm.Name == name })
	return len(r.Remotes) != n
}
