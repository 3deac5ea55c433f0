package state

import (
	"sort"
	"time"

	"github.com/kurobon/nexusvc/internal/status"
)

// GraphState is the serialized view any presentation layer renders.
type GraphState struct {
	CurrentBranch  string            `json:"currentBranch"`
	HEAD           Head              `json:"HEAD"`
	Commits        []CommitView      `json:"commits"`
	Branches       map[string]string `json:"branches"`
	RemoteBranches map[string]string `json:"remoteBranches"`
	Tags           map[string]string `json:"tags"`
	FileStatuses   map[string]string `json:"fileStatuses"`
	Files          []string          `json:"files"`
	Merge          MergeView         `json:"merge"`
	Remotes        []Remote          `json:"remotes"`
	GitHub         GitHub            `json:"github"`
	Busy           bool              `json:"busy"`
	Task           string            `json:"task,omitempty"`
}

type Head struct {
	Type string `json:"type"` // "branch" or "none"
	Ref  string `json:"ref,omitempty"`
	ID   string `json:"id,omitempty"`
}

// CommitView is a commit without its snapshot.
type CommitView struct {
	ID             string   `json:"id"`
	Message        string   `json:"message"`
	Author         string   `json:"author"`
	Timestamp      string   `json:"timestamp"`
	ParentID       string   `json:"parentId,omitempty"`
	SecondParentID string   `json:"secondParentId,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	Lane           int      `json:"lane"`
	FileCount      int      `json:"fileCount"`
}

type MergeView struct {
	Merging   bool     `json:"merging"`
	Source    string   `json:"source,omitempty"`
	Conflicts []string `json:"conflicts"`
}

// BuildGraphState constructs the observable view of r. Commits keep the
// repository order (newest first).
func BuildGraphState(r *Repository) *GraphState {
	gs := &GraphState{
		CurrentBranch:  r.CurrentBranch,
		Commits:        make([]CommitView, 0, len(r.Commits)),
		Branches:       make(map[string]string),
		RemoteBranches: make(map[string]string),
		Tags:           make(map[string]string),
		FileStatuses:   make(map[string]string),
		Remotes:        append([]Remote{}, r.Remotes...),
		GitHub:         r.GitHub,
		Merge: MergeView{
			Merging:   r.Merge.Merging,
			Source:    r.Merge.Source,
			Conflicts: append([]string{}, r.Merge.Conflicts...),
		},
	}

	populateHEAD(r, gs)
	populateBranchesAndTags(r, gs)
	for _, c := range r.Commits {
		gs.Commits = append(gs.Commits, CommitView{
			ID:             c.ID,
			Message:        c.Message,
			Author:         c.Author,
			Timestamp:      c.Timestamp.Format(time.RFC3339),
			ParentID:       c.Parent,
			SecondParentID: c.SecondaryParent,
			Tags:           c.Tags,
			Lane:           c.Lane,
			FileCount:      len(c.Changes),
		})
	}
	populateFileStatuses(r, gs)
	return gs
}

func populateHEAD(r *Repository, gs *GraphState) {
	if r.CurrentBranch == "" {
		gs.HEAD = Head{Type: "none"}
		return
	}
	gs.HEAD = Head{Type: "branch", Ref: r.CurrentBranch, ID: r.Head()}
}

func populateBranchesAndTags(r *Repository, gs *GraphState) {
	for _, b := range r.Branches {
		gs.Branches[b.Name] = b.Head
		if b.RemoteHead != "" {
			// remote-tracking heads are shown under the only remote that pushes
			gs.RemoteBranches["origin/"+b.Name] = b.RemoteHead
		}
	}
	for _, c := range r.Commits {
		for _, t := range c.Tags {
			gs.Tags[t] = c.ID
		}
	}
}

func populateFileStatuses(r *Repository, gs *GraphState) {
	codes := status.Classify(StatusInput(r))
	for name, c := range codes {
		gs.FileStatuses[name] = string(c)
	}
	for name := range r.Files {
		gs.Files = append(gs.Files, name)
	}
	sort.Strings(gs.Files)
}

// StatusInput adapts r for the status classifier.
func StatusInput(r *Repository) status.Input {
	return status.Input{
		Files:     r.Files,
		Head:      r.OriginalFiles,
		Ignore:    r.GitIgnore,
		Conflicts: r.Merge.Conflicts,
	}
}
