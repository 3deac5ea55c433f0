// Package merge owns the transient merge state: starting a merge, resolving
// conflicted files one by one, and aborting.
package merge

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"

	"github.com/kurobon/nexusvc/internal/state"
)

var (
	ErrMergeInProgress   = errors.New("a merge is already in progress")
	ErrNoMergeInProgress = errors.New("there is no merge in progress")
	ErrNotConflicted     = errors.New("file is not in conflict")
	ErrSelfMerge         = errors.New("cannot merge a branch into itself")
)

// Phase is the state machine position.
type Phase int

const (
	Idle Phase = iota
	Merging
)

func (p Phase) String() string {
	if p == Merging {
		return "merging"
	}
	return "idle"
}

// PhaseOf reports where ms is in the state machine.
func PhaseOf(ms state.MergeState) Phase {
	if ms.Merging {
		return Merging
	}
	return Idle
}

// Result describes what Begin did.
type Result struct {
	Source    string   `json:"source"`
	Conflicts []string `json:"conflicts"`
	// Applied lists files taken from the source branch without conflict.
	Applied  []string `json:"applied"`
	UpToDate bool     `json:"upToDate"`
	// Message is the drafted merge commit message.
	Message string `json:"message,omitempty"`
}

// Begin starts merging source into the current branch of r, which must be
// a copy owned by the caller.
//
// An already merged source leaves r untouched and reports UpToDate.
// Otherwise r enters the merging state, possibly with an empty conflict
// set; the finalizing commit takes the source head as secondary parent.
func Begin(r *state.Repository, source string, p Predicate) (Result, error) {
	if r.Merge.Merging {
		return Result{}, ErrMergeInProgress
	}
	if source == r.CurrentBranch {
		return Result{}, fmt.Errorf("%s: %w", source, ErrSelfMerge)
	}
	src, ok := r.Branch(source)
	if !ok {
		return Result{}, fmt.Errorf("merge: %s - not something we can merge: %w", source, state.ErrBranchNotFound)
	}
	if src.Head == "" {
		return Result{}, fmt.Errorf("merge %s: %w", source, state.ErrNoHead)
	}
	if p == nil {
		p = ThreeWay{}
	}

	res := Result{Source: source, Conflicts: []string{}, Applied: []string{}}
	head := r.Head()
	if r.IsAncestor(src.Head, head) {
		res.UpToDate = true
		return res, nil
	}

	base := r.Snapshot(r.MergeBase(head, src.Head))
	theirs := r.Snapshot(src.Head)
	ours := r.Files
	saved := maps.Clone(r.Files)
	incoming := map[string]string{}

	for _, path := range unionPaths(base, ours, theirs) {
		b, o, t := lookup(base, path), lookup(ours, path), lookup(theirs, path)
		switch p.Decide(path, b, o, t) {
		case Take:
			if t == nil {
				delete(r.Files, path)
			} else {
				r.Files[path] = *t
			}
			res.Applied = append(res.Applied, path)
		case Conflict:
			their := deref(t)
			r.Files[path] = Markers(deref(o), their, source)
			incoming[path] = their
			res.Conflicts = append(res.Conflicts, path)
		}
	}

	r.Merge = state.MergeState{
		Merging:   true,
		Source:    source,
		Conflicts: res.Conflicts,
		Theirs:    incoming,
		Saved:     saved,
	}
	res.Conflicts = slices.Clone(res.Conflicts)
	res.Message = DraftMessage(source, r.CurrentBranch)
	return res, nil
}

// Markers frames both sides of a conflicting file with conflict delimiters.
func Markers(ours, theirs, source string) string {
	return "<<<<<<< HEAD\n" + ours + "\n=======\n" + theirs + "\n>>>>>>> " + source
}

// DraftMessage is the default message of a merge commit.
func DraftMessage(source, target string) string {
	return fmt.Sprintf("Merge branch '%s' into '%s'", source, target)
}

// Resolve writes content for a conflicted file and drops it from the
// conflict set. The content is not checked for leftover markers.
func Resolve(r *state.Repository, path, content string) error {
	if !r.Merge.Merging {
		return ErrNoMergeInProgress
	}
	idx := slices.Index(r.Merge.Conflicts, path)
	if idx < 0 {
		return fmt.Errorf("%s: %w", path, ErrNotConflicted)
	}
	r.Files[path] = content
	r.Merge.Conflicts = slices.Delete(r.Merge.Conflicts, idx, idx+1)
	return nil
}

// Abort restores the working tree saved when the merge began and returns
// to Idle.
func Abort(r *state.Repository) error {
	if !r.Merge.Merging {
		return ErrNoMergeInProgress
	}
	if r.Merge.Saved != nil {
		r.Files = maps.Clone(r.Merge.Saved)
	}
	Reset(r)
	return nil
}

// Reset returns r to Idle without touching the working tree. Used when a
// commit finalizes the merge.
func Reset(r *state.Repository) {
	r.Merge = state.MergeState{Conflicts: []string{}}
}

// View is the three-way arrangement of one file: HEAD content, incoming
// content and the editable result.
type View struct {
	Path       string `json:"path"`
	Ours       string `json:"ours"`
	Theirs     string `json:"theirs"`
	Result     string `json:"result"`
	Conflicted bool   `json:"conflicted"`
}

// ThreeWayView returns the view of path during a merge.
func ThreeWayView(r *state.Repository, path string) (View, error) {
	if !r.Merge.Merging {
		return View{}, ErrNoMergeInProgress
	}
	return View{
		Path:       path,
		Ours:       r.OriginalFiles[path],
		Theirs:     r.Merge.Theirs[path],
		Result:     r.Files[path],
		Conflicted: slices.Contains(r.Merge.Conflicts, path),
	}, nil
}

func unionPaths(trees ...map[string]string) []string {
	seen := map[string]struct{}{}
	for _, m := range trees {
		for k := range m {
			seen[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func lookup(m map[string]string, path string) *string {
	if v, ok := m[path]; ok {
		return &v
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
