package git

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurobon/nexusvc/internal/merge"
	"github.com/kurobon/nexusvc/internal/state"
	"github.com/kurobon/nexusvc/internal/status"
)

func TestNewEngine_RejectsInvalidState(t *testing.T) {
	r := sampleRepo()
	r.CurrentBranch = "gone"
	_, err := NewEngine(r, nil, Options{})
	assert.ErrorIs(t, err, state.ErrInvalidState)
}

func TestEngine_Commit(t *testing.T) {
	e := newTestEngine(t, sampleRepo(), Options{Author: "Alice"})
	mustWaitOn(e.WriteFile("app.js", "v3\n"))(t)
	mustWaitOn(e.WriteFile("notes.txt", "todo\n"))(t)

	cf, pf, err := e.Commit(CommitOptions{Message: "Bump to v3", Files: []string{"app.js"}})
	require.Nil(t, pf)
	res := mustWait(t, cf, err)

	assert.Equal(t, "master", res.Branch)
	assert.False(t, res.Merged)
	assert.Equal(t, "Alice", res.Commit.Author)
	assert.Equal(t, testNow, res.Commit.Timestamp)
	assert.Len(t, res.Commit.ID, state.IDLength)

	r := e.Snapshot()
	assert.Equal(t, res.Commit.ID, r.Head())
	assert.Equal(t, res.Commit.ID, r.Commits[0].ID, "newest first")
	assert.Equal(t, map[string]string{"README.md": "# demo\n", "app.js": "v3\n"}, r.Commits[0].Changes)
	assert.Equal(t, r.Commits[0].Changes, r.OriginalFiles)
	assert.Equal(t, map[string]status.Code{
		"README.md": status.Unmodified,
		"app.js":    status.Unmodified,
		"notes.txt": status.Untracked,
	}, e.Status())
}

func TestEngine_CommitDeletion(t *testing.T) {
	e := newTestEngine(t, sampleRepo(), Options{})
	mustWaitOn(e.DeleteFile("README.md"))(t)
	assert.Equal(t, status.Modified, e.Status()["README.md"])

	cf, _, err := e.Commit(CommitOptions{Message: "Drop readme", Files: []string{"README.md"}})
	res := mustWait(t, cf, err)
	assert.NotContains(t, res.Commit.Changes, "README.md")
	assert.NotContains(t, e.Status(), "README.md")
}

func TestEngine_CommitLane(t *testing.T) {
	e := newTestEngine(t, sampleRepo(), Options{})
	mustWaitOn(e.CreateBranch("topic", ""))(t)
	mustWaitOn(e.WriteFile("app.js", "topic\n"))(t)

	cf, _, err := e.Commit(CommitOptions{Message: "Topic", Files: []string{"app.js"}})
	res := mustWait(t, cf, err)
	assert.Equal(t, 1, res.Commit.Lane)
	assert.Equal(t, "c222222", res.Commit.Parent)
}

func TestEngine_CommitPolicy(t *testing.T) {
	e := newTestEngine(t, sampleRepo(), Options{})
	mustWaitOn(e.WriteFile("app.js", "v3\n"))(t)

	tests := []struct {
		name string
		opts CommitOptions
		want error
	}{
		{"no files", CommitOptions{Message: "x"}, ErrNothingToCommit},
		{"blank message", CommitOptions{Message: " \n ", Files: []string{"app.js"}}, ErrEmptyMessage},
		{"long subject", CommitOptions{Message: "This subject line is definitely longer than fifty characters", Files: []string{"app.js"}}, ErrSubjectTooLong},
		{"unchanged file", CommitOptions{Message: "x", Files: []string{"README.md"}}, ErrNotStageable},
		{"push without origin", CommitOptions{Message: "x", Files: []string{"app.js"}, Push: true}, ErrNoOrigin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := e.Queue().Stats().Processed
			cf, pf, err := e.Commit(tt.opts)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, cf)
			assert.Nil(t, pf)
			assert.Equal(t, before, e.Queue().Stats().Processed, "nothing may be queued")
		})
	}

	t.Run("long subject allowed", func(t *testing.T) {
		cf, _, err := e.Commit(CommitOptions{
			Message:          "This subject line is definitely longer than fifty characters\n\nbody",
			Files:            []string{"app.js"},
			AllowLongSubject: true,
		})
		mustWait(t, cf, err)
	})
}

func TestEngine_Amend(t *testing.T) {
	e := newTestEngine(t, sampleRepo(), Options{})

	cf, _, err := e.Commit(CommitOptions{Amend: true, Message: "Bump to v2 (fixed)"})
	res := mustWait(t, cf, err)

	r := e.Snapshot()
	_, ok := r.Commit("c222222")
	assert.False(t, ok)
	assert.Equal(t, "c111111", res.Commit.Parent)
	assert.Equal(t, res.Commit.ID, r.Head())
	assert.Len(t, r.Commits, 3)

	cf, _, err = e.Commit(CommitOptions{Amend: true})
	res = mustWait(t, cf, err)
	assert.Equal(t, "Bump to v2 (fixed)", res.Commit.Message, "amend keeps the message by default")
}

func TestEngine_Push(t *testing.T) {
	withOrigin := func() *state.Repository {
		r := sampleRepo()
		r.SetRemote("origin", "https://github.com/octo/demo.git")
		return r
	}

	t.Run("requires origin", func(t *testing.T) {
		e := newTestEngine(t, sampleRepo(), Options{})
		_, err := e.Push()
		assert.ErrorIs(t, err, ErrNoOrigin)
	})

	t.Run("up to date", func(t *testing.T) {
		e := newTestEngine(t, withOrigin(), Options{})
		res := mustWaitOn(e.Push())(t)
		assert.True(t, res.UpToDate)
		assert.Equal(t, "Everything up-to-date", res.String())
	})

	t.Run("commit then push", func(t *testing.T) {
		e := newTestEngine(t, withOrigin(), Options{})
		mustWaitOn(e.WriteFile("app.js", "v3\n"))(t)

		cf, pf, err := e.Commit(CommitOptions{Message: "v3", Files: []string{"app.js"}, Push: true})
		require.NoError(t, err)
		require.NotNil(t, pf)
		c := mustWait(t, cf, nil)
		p := mustWait(t, pf, nil)

		assert.Equal(t, "c222222", p.From)
		assert.Equal(t, c.Commit.ID, p.To)
		b, _ := e.Snapshot().Branch("master")
		assert.Equal(t, c.Commit.ID, b.RemoteHead)
	})

	t.Run("simulated rejection", func(t *testing.T) {
		e := newTestEngine(t, withOrigin(), Options{
			PushFailureRate: 0.3,
			Rand:            func() float64 { return 0.1 },
		})
		mustWaitOn(e.WriteFile("app.js", "v3\n"))(t)
		cf, _, err := e.Commit(CommitOptions{Message: "v3", Files: []string{"app.js"}})
		mustWait(t, cf, err)

		_, err = waitOn(e.Push())(t)
		require.ErrorIs(t, err, ErrNonFastForward)
		var oe *OpError
		require.True(t, errors.As(err, &oe))
		assert.Equal(t, "pull", oe.Action)
		assert.Equal(t, "Push to remote", oe.Op)

		b, _ := e.Snapshot().Branch("master")
		assert.Equal(t, "c222222", b.RemoteHead, "remote head only moves on success")
	})

	t.Run("diverged", func(t *testing.T) {
		e := newTestEngine(t, withOrigin(), Options{})
		mustWaitOn(e.HardReset("c111111"))(t)
		mustWaitOn(e.WriteFile("app.js", "other\n"))(t)
		cf, _, err := e.Commit(CommitOptions{Message: "other", Files: []string{"app.js"}})
		mustWait(t, cf, err)

		_, err = waitOn(e.Push())(t)
		assert.ErrorIs(t, err, ErrNonFastForward)
	})

	t.Run("new branch", func(t *testing.T) {
		e := newTestEngine(t, withOrigin(), Options{})
		mustWaitOn(e.Checkout("feature"))(t)
		res := mustWaitOn(e.Push())(t)
		assert.Equal(t, " * [new branch]      feature -> feature", res.String())
	})
}

func TestEngine_Pull(t *testing.T) {
	e := newTestEngine(t, sampleRepo(), Options{})
	assert.Equal(t, "git pull origin master", mustWaitOn(e.Pull(false))(t))
	assert.Equal(t, "git pull --rebase origin master", mustWaitOn(e.Pull(true))(t))
}

func TestEngine_Remotes(t *testing.T) {
	t.Run("configure and remove", func(t *testing.T) {
		reg := &memRegistry{}
		e := newTestEngine(t, sampleRepo(), Options{Remotes: reg})

		rm := mustWaitOn(e.ConfigureRemote("", "git@github.com:octo/demo.git"))(t)
		assert.Equal(t, state.Remote{Name: "origin", URL: "git@github.com:octo/demo.git"}, rm)

		r := e.Snapshot()
		assert.Equal(t, []state.Remote{rm}, r.Remotes)
		assert.Equal(t, state.GitHub{Connected: true, RepoURL: rm.URL, Username: "octo"}, r.GitHub)
		stored, _ := reg.GetAll(context.Background())
		assert.Equal(t, []state.Remote{rm}, stored)

		mustWaitOn(e.RemoveRemote("origin"))(t)
		r = e.Snapshot()
		assert.Empty(t, r.Remotes)
		assert.False(t, r.GitHub.Connected)
		assert.Equal(t, "octo", r.GitHub.Username)
		stored, _ = reg.GetAll(context.Background())
		assert.Empty(t, stored)
	})

	t.Run("policy", func(t *testing.T) {
		e := newTestEngine(t, sampleRepo(), Options{})
		_, err := e.ConfigureRemote("origin", "  ")
		assert.ErrorIs(t, err, ErrRemoteURLRequired)
		_, err = e.ConfigureRemote("my remote", "https://example.com/x.git")
		assert.ErrorIs(t, err, ErrInvalidName)
		_, err = e.RemoveRemote("origin")
		assert.ErrorIs(t, err, ErrRemoteNotFound)
	})

	t.Run("unresolvable host", func(t *testing.T) {
		reg := &memRegistry{}
		e := newTestEngine(t, sampleRepo(), Options{Remotes: reg})
		_, err := waitOn(e.ConfigureRemote("origin", "https://invalid.host/x.git"))(t)
		assert.ErrorIs(t, err, ErrHostUnresolved)
		assert.Zero(t, reg.addCalled)
		assert.Empty(t, e.Snapshot().Remotes)
	})

	t.Run("registry failure", func(t *testing.T) {
		reg := &memRegistry{failAdd: true}
		e := newTestEngine(t, sampleRepo(), Options{Remotes: reg})
		_, err := waitOn(e.ConfigureRemote("origin", "https://github.com/octo/demo.git"))(t)
		assert.ErrorIs(t, err, errRegistry)
		assert.Empty(t, e.Snapshot().Remotes, "state is untouched when persisting fails")
	})

	t.Run("registry remove failure is not fatal", func(t *testing.T) {
		reg := &memRegistry{failRem: true}
		r := sampleRepo()
		r.SetRemote("upstream", "https://example.com/up.git")
		e := newTestEngine(t, r, Options{Remotes: reg})
		mustWaitOn(e.RemoveRemote("upstream"))(t)
		assert.Empty(t, e.Snapshot().Remotes)
	})
}

func TestEngine_Branches(t *testing.T) {
	e := newTestEngine(t, sampleRepo(), Options{})
	mustWaitOn(e.WriteFile("app.js", "wip\n"))(t)

	b := mustWaitOn(e.CreateBranch("topic", ""))(t)
	assert.Equal(t, state.Branch{Name: "topic", Head: "c222222"}, b)
	r := e.Snapshot()
	assert.Equal(t, "topic", r.CurrentBranch)
	assert.Equal(t, "wip\n", r.Files["app.js"])

	_, err := e.CreateBranch("topic", "")
	assert.ErrorIs(t, err, state.ErrBranchExists)
	_, err = e.CreateBranch("-bad", "")
	assert.ErrorIs(t, err, ErrInvalidName)
	_, err = e.CreateBranch("x", "nope")
	assert.ErrorIs(t, err, state.ErrCommitNotFound)

	b = mustWaitOn(e.CreateBranch("from-tag", "c111"))(t)
	assert.Equal(t, "c111111", b.Head)

	_, err = e.Checkout("feature")
	assert.ErrorIs(t, err, ErrDirtyWorkingTree)
	_, err = e.Checkout("nope")
	assert.ErrorIs(t, err, state.ErrBranchNotFound)

	mustWaitOn(e.RevertFile("app.js"))(t)
	mustWaitOn(e.Checkout("feature"))(t)
	r = e.Snapshot()
	assert.Equal(t, "feature", r.CurrentBranch)
	assert.Equal(t, "feature\n", r.Files["app.js"])
	assert.True(t, status.Clean(e.Status()))
}

func TestEngine_StartTask(t *testing.T) {
	e := newTestEngine(t, sampleRepo(), Options{})
	b := mustWaitOn(e.StartTask("bugfix", "  Null Pointer  in Login "))(t)
	assert.Equal(t, "bugfix/null-pointer-in-login", b.Name)
	assert.Equal(t, "c222222", b.Head)

	_, err := e.StartTask("spike", "x")
	assert.Error(t, err)
	_, err = e.StartTask("feature", " ")
	assert.Error(t, err)
}

func TestEngine_History(t *testing.T) {
	t.Run("revert", func(t *testing.T) {
		e := newTestEngine(t, sampleRepo(), Options{})
		c := mustWaitOn(e.RevertCommit("c333333"))(t)
		assert.Equal(t, `Revert "Feature work"`, c.Message)
		assert.Equal(t, 1, c.Lane, "lane follows the reverted commit")
		assert.Equal(t, "c222222", c.Parent)
		assert.Equal(t, "v2\n", c.Changes["app.js"])
		assert.Equal(t, c.ID, e.Snapshot().Head())
	})

	t.Run("hard reset", func(t *testing.T) {
		e := newTestEngine(t, sampleRepo(), Options{})
		mustWaitOn(e.WriteFile("app.js", "wip\n"))(t)

		target := mustWaitOn(e.HardReset("c222222"))(t)
		assert.Equal(t, "c222222", target.ID)

		r := e.Snapshot()
		require.Len(t, r.Commits, 2)
		_, ok := r.Commit("c333333")
		assert.False(t, ok, "commits listed before the target are pruned")
		b, _ := r.Branch("feature")
		assert.Equal(t, "c333333", b.Head, "other branches keep their stale head")
		assert.Equal(t, "v2\n", r.Files["app.js"])
		assert.True(t, status.Clean(e.Status()))
	})

	t.Run("hard reset loads the target tree", func(t *testing.T) {
		e := newTestEngine(t, sampleRepo(), Options{})
		mustWaitOn(e.WriteFile("app.js", "wip\n"))(t)
		mustWaitOn(e.WriteFile("notes.txt", "scratch\n"))(t)

		mustWaitOn(e.HardReset("c111111"))(t)

		r := e.Snapshot()
		assert.Equal(t, "c111111", r.Head())
		assert.Equal(t, "v1\n", r.OriginalFiles["app.js"], "HEAD snapshot follows the target")
		assert.Equal(t, r.OriginalFiles, r.Files, "working tree is the new HEAD snapshot")
		assert.NotContains(t, r.Files, "notes.txt")
		assert.True(t, status.Clean(e.Status()))
	})

	t.Run("hard reset aborts a merge", func(t *testing.T) {
		e := newTestEngine(t, sampleRepo(), Options{})
		mustWaitOn(e.Merge("feature"))(t)
		mustWaitOn(e.HardReset("c222222"))(t)
		assert.False(t, e.Snapshot().Merge.Merging)
	})

	t.Run("cherry-pick is acknowledged only", func(t *testing.T) {
		e := newTestEngine(t, sampleRepo(), Options{})
		out := mustWaitOn(e.CherryPick("c333333"))(t)
		assert.Equal(t, "[master] cherry-picked c333333 Feature work", out)
		assert.Len(t, e.Snapshot().Commits, 3)
	})

	t.Run("unknown revision", func(t *testing.T) {
		e := newTestEngine(t, sampleRepo(), Options{})
		_, err := e.RevertCommit("zzz")
		assert.ErrorIs(t, err, state.ErrCommitNotFound)
		_, err = e.HardReset("zzz")
		assert.ErrorIs(t, err, state.ErrCommitNotFound)
		_, err = e.CherryPick("zzz")
		assert.ErrorIs(t, err, state.ErrCommitNotFound)
	})
}

func TestEngine_Merge(t *testing.T) {
	t.Run("conflict", func(t *testing.T) {
		e := newTestEngine(t, sampleRepo(), Options{})
		res := mustWaitOn(e.Merge("feature"))(t)
		assert.Equal(t, []string{"app.js"}, res.Conflicts)

		st, err := e.Stageable()
		require.NoError(t, err)
		assert.True(t, st.Merging)
		assert.Equal(t, "Merge branch 'feature' into 'master'", st.Draft)

		view, err := e.ThreeWay("app.js")
		require.NoError(t, err)
		assert.Equal(t, "v2\n", view.Ours)
		assert.Equal(t, "feature\n", view.Theirs)
		assert.True(t, view.Conflicted)

		_, _, err = e.Commit(CommitOptions{Message: "too early"})
		assert.ErrorIs(t, err, ErrUnresolvedConflicts)
		_, err = e.Merge("feature")
		assert.ErrorIs(t, err, ErrMergeInProgress)
		_, err = e.CreateBranch("x", "")
		assert.ErrorIs(t, err, ErrMergeInProgress)

		mustWaitOn(e.ResolveConflict("app.js", "both\n"))(t)
		_, err = waitOn(e.ResolveConflict("app.js", "again\n"))(t)
		assert.ErrorIs(t, err, merge.ErrNotConflicted)

		cf, _, err := e.Commit(CommitOptions{})
		res2 := mustWait(t, cf, err)
		assert.True(t, res2.Merged)
		assert.Equal(t, "c333333", res2.Commit.SecondaryParent)
		assert.Equal(t, "both\n", res2.Commit.Changes["app.js"])
		assert.Equal(t, "Merge branch 'feature' into 'master'", res2.Commit.Message)

		r := e.Snapshot()
		assert.False(t, r.Merge.Merging)
		assert.Empty(t, r.Merge.Conflicts)
	})

	t.Run("without conflicts", func(t *testing.T) {
		r := sampleRepo()
		// master never touched app.js after the root.
		r.Commits[1].Changes = r.Commits[2].Changes
		r.Files = map[string]string{"README.md": "# demo\n", "app.js": "v1\n"}
		r.OriginalFiles = map[string]string{"README.md": "# demo\n", "app.js": "v1\n"}
		e := newTestEngine(t, r, Options{})

		res := mustWaitOn(e.Merge("feature"))(t)
		assert.Empty(t, res.Conflicts)
		assert.Equal(t, []string{"app.js"}, res.Applied)
		assert.True(t, e.Snapshot().Merge.Merging, "a clean merge still waits for its commit")

		cf, _, err := e.Commit(CommitOptions{})
		c := mustWait(t, cf, err)
		assert.Equal(t, "feature\n", c.Commit.Changes["app.js"])
		assert.True(t, c.Commit.IsMerge())
	})

	t.Run("abort", func(t *testing.T) {
		e := newTestEngine(t, sampleRepo(), Options{})
		mustWaitOn(e.WriteFile("notes.txt", "keep me\n"))(t)
		mustWaitOn(e.Merge("feature"))(t)
		mustWaitOn(e.AbortMerge())(t)

		r := e.Snapshot()
		assert.False(t, r.Merge.Merging)
		assert.Equal(t, "v2\n", r.Files["app.js"])
		assert.Equal(t, "keep me\n", r.Files["notes.txt"])

		_, err := e.AbortMerge()
		assert.ErrorIs(t, err, merge.ErrNoMergeInProgress)
		_, err = e.ResolveConflict("app.js", "")
		assert.ErrorIs(t, err, merge.ErrNoMergeInProgress)
	})

	t.Run("custom predicate", func(t *testing.T) {
		theirsWins := merge.PredicateFunc(func(string, *string, *string, *string) merge.Decision {
			return merge.Take
		})
		e := newTestEngine(t, sampleRepo(), Options{Predicate: theirsWins})
		res := mustWaitOn(e.Merge("feature"))(t)
		assert.Empty(t, res.Conflicts)
		assert.Equal(t, "feature\n", e.Snapshot().Files["app.js"])
	})
}

func TestEngine_WorkingTree(t *testing.T) {
	e := newTestEngine(t, sampleRepo(), Options{})

	_, err := e.Stageable()
	assert.ErrorIs(t, err, ErrCleanWorkingTree)

	_, err = e.WriteFile(" ", "x")
	assert.ErrorIs(t, err, ErrInvalidName)
	_, err = e.DeleteFile("missing.txt")
	assert.Error(t, err)

	mustWaitOn(e.ApplyUpdateFile("app.js", "v2\nassistant\n"))(t)
	mustWaitOn(e.WriteFile("trace.log", "ignored\n"))(t)
	st, err := e.Stageable()
	require.NoError(t, err)
	assert.Equal(t, []string{"app.js"}, st.Files)

	lines := e.Diff("app.js")
	assert.NotEmpty(t, lines)
	patch, err := e.UnifiedDiff("app.js")
	require.NoError(t, err)
	assert.Contains(t, patch, "+assistant")
	all, err := e.WorkingDiff()
	require.NoError(t, err)
	assert.Equal(t, patch, all)

	unchanged, err := e.UnifiedDiff("README.md")
	require.NoError(t, err)
	assert.Empty(t, unchanged)

	assert.Equal(t, status.Modified, e.FileStatus(context.Background(), "app.js"))
	mustWaitOn(e.RevertFile("app.js"))(t)
	mustWaitOn(e.RevertFile("trace.log"))(t)
	assert.Equal(t, status.Unmodified, e.FileStatus(context.Background(), "app.js"))
	assert.NotContains(t, e.Snapshot().Files, "trace.log")
}

func TestEngine_SnapshotsAreImmutable(t *testing.T) {
	e := newTestEngine(t, sampleRepo(), Options{})
	before := e.Snapshot()
	mustWaitOn(e.WriteFile("app.js", "changed\n"))(t)

	assert.Equal(t, "v2\n", before.Files["app.js"])
	assert.Equal(t, "changed\n", e.Snapshot().Files["app.js"])
}

func TestEngine_OnChangeAndGraphState(t *testing.T) {
	e := newTestEngine(t, sampleRepo(), Options{})
	changes := make(chan *state.Repository, 4)
	e.OnChange(func(r *state.Repository) { changes <- r })

	mustWaitOn(e.WriteFile("app.js", "v3\n"))(t)
	r := <-changes
	assert.Equal(t, "v3\n", r.Files["app.js"])

	gs := e.GraphState()
	assert.Equal(t, "master", gs.CurrentBranch)
	assert.Equal(t, "M", gs.FileStatuses["app.js"])
	assert.Equal(t, "c222222", gs.Branches["master"])
}

func TestDelays(t *testing.T) {
	d := DefaultDelays()
	half := d.Scaled(0.5)
	assert.Equal(t, d.Push/2, half.Push)
	assert.Equal(t, d.Checkout/2, half.Checkout)
	assert.Equal(t, Delays{}, d.Scaled(0))
}
