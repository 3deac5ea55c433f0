package mission

import (
	"strings"

	"github.com/kurobon/nexusvc/internal/state"
	"github.com/kurobon/nexusvc/internal/status"
)

// Check types understood by Verify.
const (
	CheckNoConflict       = "no_conflict"
	CheckCommitExists     = "commit_exists"
	CheckFileContent      = "file_content"
	CheckFileTracked      = "file_tracked"
	CheckCleanWorkingTree = "clean_working_tree"
	CheckBranchExists     = "branch_exists"
	CheckCurrentBranch    = "current_branch"
	CheckRemoteConfigured = "remote_configured"
	CheckPushed           = "pushed"
)

type VerificationResult struct {
	Success   bool          `json:"success"`
	MissionID string        `json:"missionId"`
	Progress  []CheckResult `json:"progress"`
}

type CheckResult struct {
	Description string `json:"description"`
	Passed      bool   `json:"passed"`
}

// Verify evaluates every check of m against r.
func Verify(m *Mission, r *state.Repository) *VerificationResult {
	res := &VerificationResult{Success: true, MissionID: m.ID, Progress: []CheckResult{}}
	for _, check := range m.Validation.Checks {
		passed := evaluate(check, r)
		if check.Negate {
			passed = !passed
		}
		res.Progress = append(res.Progress, CheckResult{Description: check.Description, Passed: passed})
		if !passed {
			res.Success = false
		}
	}
	return res
}

func evaluate(check Check, r *state.Repository) bool {
	switch check.Type {
	case CheckNoConflict:
		return !r.Merge.Unresolved()

	case CheckCommitExists:
		for _, c := range r.Commits {
			if strings.Contains(c.Message, check.MessagePattern) {
				return true
			}
		}
		return false

	case CheckFileContent:
		content, ok := r.Files[check.Path]
		if !ok {
			return false
		}
		for _, substr := range check.Contains {
			if !strings.Contains(content, substr) {
				return false
			}
		}
		return true

	case CheckFileTracked:
		_, ok := r.OriginalFiles[check.Path]
		return ok

	case CheckCleanWorkingTree:
		return !r.Merge.Merging && status.Clean(status.Classify(state.StatusInput(r)))

	case CheckBranchExists:
		_, ok := r.Branch(check.Name)
		return ok

	case CheckCurrentBranch:
		return r.CurrentBranch == check.Name

	case CheckRemoteConfigured:
		name := check.Name
		if name == "" {
			name = "origin"
		}
		_, ok := r.Remote(name)
		return ok

	case CheckPushed:
		name := check.Name
		if name == "" {
			name = r.CurrentBranch
		}
		b, ok := r.Branch(name)
		return ok && b.Head != "" && b.Head == b.RemoteHead
	}
	return false
}
