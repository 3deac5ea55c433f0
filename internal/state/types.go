package state

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"
)

var (
	ErrBranchExists   = errors.New("branch already exists")
	ErrBranchNotFound = errors.New("branch not found")
	ErrCommitNotFound = errors.New("commit not found")
	ErrNoHead         = errors.New("branch has no commits yet")
	ErrInvalidState   = errors.New("invalid repository state")
)

// Commit is a node of the history graph. Changes holds the complete tree at
// this commit, not a delta. Commits are never mutated once published; amend
// replaces the tip with a new commit.
type Commit struct {
	ID              string            `json:"id"`
	Message         string            `json:"message"`
	Author          string            `json:"author"`
	Timestamp       time.Time         `json:"timestamp"`
	Changes         map[string]string `json:"changes"`
	Parent          string            `json:"parent,omitempty"`
	SecondaryParent string            `json:"secondaryParent,omitempty"`
	Tags            []string          `json:"tags,omitempty"`
	Lane            int               `json:"lane"`
}

// IsMerge reports whether c has a secondary parent.
func (c Commit) IsMerge() bool { return c.SecondaryParent != "" }

// Branch is a named pointer. Empty Head means no commits yet; RemoteHead
// only moves on a successful push.
type Branch struct {
	Name       string `json:"name"`
	Head       string `json:"head,omitempty"`
	RemoteHead string `json:"remoteHead,omitempty"`
}

// Remote is a configured remote repository.
type Remote struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// GitHub is the hosted identity the remotes were connected with.
type GitHub struct {
	Connected bool   `json:"connected"`
	RepoURL   string `json:"repoUrl,omitempty"`
	Username  string `json:"username,omitempty"`
}

// MergeState is the transient merge bookkeeping. When Merging is false the
// conflict set is empty.
type MergeState struct {
	Merging   bool              `json:"merging"`
	Source    string            `json:"source,omitempty"`
	Conflicts []string          `json:"conflicts"`
	Theirs    map[string]string `json:"theirs,omitempty"`
	// Saved is the working tree as it was before the merge began.
	Saved map[string]string `json:"-"`
}

// Unresolved reports whether any conflicts remain.
func (m MergeState) Unresolved() bool { return len(m.Conflicts) > 0 }

// Repository is the aggregate every mutation replaces wholesale. Values
// published through a Store must be treated as read-only.
type Repository struct {
	CurrentBranch string            `json:"currentBranch"`
	Files         map[string]string `json:"files"`
	OriginalFiles map[string]string `json:"originalFiles"`
	// Commits is ordered newest first.
	Commits   []Commit   `json:"commits"`
	Branches  []Branch   `json:"branches"`
	Remotes   []Remote   `json:"remotes"`
	GitHub    GitHub     `json:"github"`
	GitIgnore []string   `json:"gitignore"`
	Merge     MergeState `json:"merge"`
}

// Clone returns a copy that can be mutated without affecting r. Commit
// snapshots are shared because commits are immutable.
func (r *Repository) Clone() *Repository {
	c := &Repository{
		CurrentBranch: r.CurrentBranch,
		Files:         cloneFiles(r.Files),
		OriginalFiles: cloneFiles(r.OriginalFiles),
		Commits:       slices.Clone(r.Commits),
		Branches:      slices.Clone(r.Branches),
		Remotes:       slices.Clone(r.Remotes),
		GitHub:        r.GitHub,
		GitIgnore:     slices.Clone(r.GitIgnore),
		Merge: MergeState{
			Merging:   r.Merge.Merging,
			Source:    r.Merge.Source,
			Conflicts: slices.Clone(r.Merge.Conflicts),
			Theirs:    maps.Clone(r.Merge.Theirs),
			Saved:     maps.Clone(r.Merge.Saved),
		},
	}
	return c
}

// Validate checks the invariants that must hold after every mutation.
// Branch heads are not checked against the commit list: a hard reset
// truncates by list position and may strand other branches.
func (r *Repository) Validate() error {
	seen := make(map[string]struct{}, len(r.Branches))
	for _, b := range r.Branches {
		if _, dup := seen[b.Name]; dup {
			return fmt.Errorf("%w: duplicate branch %s", ErrInvalidState, b.Name)
		}
		seen[b.Name] = struct{}{}
	}
	if r.CurrentBranch != "" {
		if _, ok := seen[r.CurrentBranch]; !ok {
			return fmt.Errorf("%w: current branch %s does not exist", ErrInvalidState, r.CurrentBranch)
		}
	}
	if !r.Merge.Merging && len(r.Merge.Conflicts) > 0 {
		return fmt.Errorf("%w: conflicts recorded outside of a merge", ErrInvalidState)
	}
	return nil
}

func cloneFiles(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return maps.Clone(m)
}
