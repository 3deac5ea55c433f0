package git

import (
	"errors"
	"fmt"

	"github.com/kurobon/nexusvc/internal/merge"
)

// Policy violations, returned before anything is queued.
var (
	ErrNothingToCommit     = errors.New("nothing added to commit")
	ErrCleanWorkingTree    = errors.New("nothing to commit, working tree clean")
	ErrEmptyMessage        = errors.New("aborting commit due to empty commit message")
	ErrSubjectTooLong      = errors.New("commit subject line is too long")
	ErrUnresolvedConflicts = errors.New("committing is not possible because you have unmerged files")
	ErrNotStageable        = errors.New("pathspec did not match any changed file")
	ErrRemoteURLRequired   = errors.New("remote URL required")
	ErrNoOrigin            = errors.New("no remote 'origin' configured")
	ErrRemoteNotFound      = errors.New("no such remote")
	ErrDirtyWorkingTree    = errors.New("your local changes would be overwritten")
	ErrMergeInProgress     = merge.ErrMergeInProgress
	ErrInvalidName         = errors.New("not a valid name")
)

// Simulated failures, surfaced through the queued task.
var (
	ErrNonFastForward = errors.New("updates were rejected because the remote contains work that you do not have locally")
	ErrHostUnresolved = errors.New("could not resolve host")
	ErrDetachedHead   = errors.New("you are not currently on a branch")
)

// MaxSubjectLength is the recommended limit for a commit subject line.
const MaxSubjectLength = 50

// OpError is a failed queued operation, carrying what to offer the user
// next when there is an obvious corrective action.
type OpError struct {
	Op     string `json:"op"`
	Err    error  `json:"-"`
	Action string `json:"action,omitempty"`
}

func (e *OpError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s: %v (hint: try '%s')", e.Op, e.Err, e.Action)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// Message is the underlying failure without the operation prefix.
func (e *OpError) Message() string { return e.Err.Error() }

func opError(op string, err error) error {
	if err == nil {
		return nil
	}
	var oe *OpError
	if errors.As(err, &oe) {
		return err
	}
	e := &OpError{Op: op, Err: err}
	if errors.Is(err, ErrNonFastForward) {
		e.Action = "pull"
	}
	return e
}
