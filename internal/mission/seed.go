package mission

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/kurobon/nexusvc/internal/state"
)

// Repository builds the repository described by s. The HEAD snapshot is the
// current branch head's tree, and the working tree is that snapshot with
// Files and Deleted applied.
func (s Seed) Repository(now time.Time) (*state.Repository, error) {
	r := &state.Repository{
		CurrentBranch: s.CurrentBranch,
		GitIgnore:     slices.Clone(s.GitIgnore),
		Merge:         state.MergeState{Conflicts: []string{}},
	}

	seen := make(map[string]bool, len(s.Commits))
	for _, sc := range s.Commits {
		if sc.ID == "" {
			return nil, fmt.Errorf("seed: commit %q has no id", sc.Message)
		}
		if seen[sc.ID] {
			return nil, fmt.Errorf("seed: duplicate commit %s", sc.ID)
		}
		for _, p := range []string{sc.Parent, sc.SecondaryParent} {
			if p != "" && !seen[p] {
				return nil, fmt.Errorf("seed: commit %s lists parent %s before it is defined", sc.ID, p)
			}
		}
		seen[sc.ID] = true

		ts := sc.Timestamp
		if ts.IsZero() {
			ts = now.Add(-sc.Age)
		}
		changes := maps.Clone(sc.Files)
		if changes == nil {
			changes = map[string]string{}
		}
		c := state.Commit{
			ID:              sc.ID,
			Message:         sc.Message,
			Author:          sc.Author,
			Timestamp:       ts,
			Changes:         changes,
			Parent:          sc.Parent,
			SecondaryParent: sc.SecondaryParent,
			Tags:            slices.Clone(sc.Tags),
			Lane:            sc.Lane,
		}
		r.Commits = append([]state.Commit{c}, r.Commits...)
	}

	for _, sb := range s.Branches {
		for _, id := range []string{sb.Head, sb.RemoteHead} {
			if id != "" && !seen[id] {
				return nil, fmt.Errorf("seed: branch %s points at unknown commit %s", sb.Name, id)
			}
		}
		r.Branches = append(r.Branches, state.Branch{Name: sb.Name, Head: sb.Head, RemoteHead: sb.RemoteHead})
	}
	if r.CurrentBranch == "" && len(r.Branches) > 0 {
		r.CurrentBranch = r.Branches[0].Name
	}
	for _, rm := range s.Remotes {
		r.SetRemote(rm.Name, rm.URL)
	}

	r.OriginalFiles = maps.Clone(r.Snapshot(r.Head()))
	r.Files = maps.Clone(r.OriginalFiles)
	maps.Copy(r.Files, s.Files)
	for _, name := range s.Deleted {
		delete(r.Files, name)
	}

	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	return r, nil
}
