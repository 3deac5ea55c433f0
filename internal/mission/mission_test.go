package mission

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurobon/nexusvc/internal/git"
	_ "github.com/kurobon/nexusvc/internal/git/commands"
	"github.com/kurobon/nexusvc/internal/state"
)

func discard() *log.Logger { return log.New(io.Discard) }

func TestLoader_Builtin(t *testing.T) {
	l := NewLoader("", discard())

	missions, err := l.ListMissions()
	require.NoError(t, err)
	ids := make([]string, 0, len(missions))
	for _, m := range missions {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"default", "merge-conflict"}, ids)

	m, err := l.LoadMission("merge-conflict")
	require.NoError(t, err)
	assert.Equal(t, "intermediate", m.Difficulty.Level)
	assert.Equal(t, []string{"git merge feature/retry"}, m.Setup)
	assert.Len(t, m.Validation.Checks, 4)

	for _, id := range []string{"", "../default", ".hidden", "missing"} {
		_, err := l.LoadMission(id)
		assert.ErrorIs(t, err, ErrNotFound, id)
	}
}

func TestLoader_Overlay(t *testing.T) {
	dir := t.TempDir()
	custom := `
title: Custom
seed:
  commits:
    - id: aaaaaaa
      message: Initial commit
      files:
        a.txt: a
  branches:
    - name: main
      head: aaaaaaa
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "custom.yaml"), []byte(custom), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("seed: ["), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	l := NewLoader(dir, discard())
	missions, err := l.ListMissions()
	require.NoError(t, err)
	ids := make([]string, 0, len(missions))
	for _, m := range missions {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"custom", "default", "merge-conflict"}, ids)

	r, err := l.Seed("custom")
	require.NoError(t, err)
	assert.Equal(t, "main", r.CurrentBranch, "current branch defaults to the first branch")
	assert.Equal(t, map[string]string{"a.txt": "a"}, r.Files)
}

func TestDefaultSeed(t *testing.T) {
	r, err := DefaultSeed()
	require.NoError(t, err)

	assert.Equal(t, "master", r.CurrentBranch)
	assert.Equal(t, []string{"*.log"}, r.GitIgnore)
	require.Len(t, r.Commits, 5)
	assert.Equal(t, "d5e6f7g", r.Commits[0].ID, "newest first")
	assert.Equal(t, "a1b2c3d", r.Commits[4].ID)
	assert.Equal(t, "c9d8e7f", r.Head())

	merge, ok := r.Commit("c9d8e7f")
	require.True(t, ok)
	assert.Equal(t, "a1b2c3d", merge.Parent)
	assert.Equal(t, "b2c3d4e", merge.SecondaryParent)

	for _, name := range []string{"README.md", "app.config.ts", "service.js", "index.html", "debug.log"} {
		assert.Contains(t, r.Files, name)
	}
	assert.Equal(t, r.OriginalFiles, r.Files, "the seed starts clean")

	ui, ok := r.Branch("feature/ui-refresh")
	require.True(t, ok)
	assert.Equal(t, "e4f5a6b", ui.Head)
	assert.False(t, r.IsAncestor(ui.Head, r.Head()), "feature/ui-refresh has unmerged work")

	refresh, ok := r.Commit("e4f5a6b")
	require.True(t, ok)
	assert.Contains(t, refresh.Changes["service.js"], `console.log("Connecting V2...");`)
	assert.Equal(t, r.Files["index.html"], refresh.Changes["index.html"], "merge key keeps the shared tree")
	assert.NotEqual(t, r.Snapshot("a1b2c3d")["service.js"], r.Files["service.js"], "master changed service.js")
}

func TestDefaultSeed_MergeUIRefreshConflicts(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	seed, err := DefaultSeed()
	require.NoError(t, err)
	sess, err := e.Manager.CreateSessionFrom(ctx, "ui-refresh", seed)
	require.NoError(t, err)
	ours := sess.Engine.Snapshot().Files["service.js"]

	name, args := git.ParseCommand("git merge feature/ui-refresh")
	_, err = git.Dispatch(ctx, sess, name, args)
	require.NoError(t, err)

	r := sess.Engine.Snapshot()
	require.True(t, r.Merge.Merging)
	assert.Equal(t, "feature/ui-refresh", r.Merge.Source)
	assert.Equal(t, []string{"service.js"}, r.Merge.Conflicts)

	theirs := r.Merge.Theirs["service.js"]
	assert.Contains(t, theirs, "const v2 = true;")
	assert.Equal(t, "<<<<<<< HEAD\n"+ours+"\n=======\n"+theirs+"\n>>>>>>> feature/ui-refresh", r.Files["service.js"])

	view, err := sess.Engine.ThreeWay("service.js")
	require.NoError(t, err)
	assert.True(t, view.Conflicted)
	assert.Equal(t, ours, view.Ours)
	assert.Equal(t, theirs, view.Theirs)
}

func TestSeed_Repository(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("working tree edits", func(t *testing.T) {
		s := Seed{
			Commits: []SeedCommit{
				{ID: "1111111", Message: "init", Age: time.Hour, Files: map[string]string{"a": "1", "b": "2"}},
			},
			Branches: []SeedBranch{{Name: "master", Head: "1111111"}},
			Remotes:  []SeedRemote{{Name: "origin", URL: "https://github.com/acme/app.git"}},
			Files:    map[string]string{"a": "changed", "c": "new"},
			Deleted:  []string{"b"},
		}
		r, err := s.Repository(now)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"a": "1", "b": "2"}, r.OriginalFiles)
		assert.Equal(t, map[string]string{"a": "changed", "c": "new"}, r.Files)
		assert.Equal(t, now.Add(-time.Hour), r.Commits[0].Timestamp)
		_, ok := r.Remote("origin")
		assert.True(t, ok)
	})

	tests := []struct {
		name string
		seed Seed
	}{
		{"missing id", Seed{Commits: []SeedCommit{{Message: "x"}}}},
		{"duplicate id", Seed{Commits: []SeedCommit{{ID: "1111111"}, {ID: "1111111"}}}},
		{"parent defined later", Seed{Commits: []SeedCommit{{ID: "2222222", Parent: "1111111"}, {ID: "1111111"}}}},
		{"branch on unknown commit", Seed{
			Commits:  []SeedCommit{{ID: "1111111"}},
			Branches: []SeedBranch{{Name: "master", Head: "9999999"}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.seed.Repository(now)
			assert.Error(t, err)
		})
	}
}

func TestVerify(t *testing.T) {
	r := &state.Repository{
		CurrentBranch: "master",
		Files:         map[string]string{"a.txt": "hello world"},
		OriginalFiles: map[string]string{"a.txt": "hello world"},
		Commits:       []state.Commit{{ID: "1111111", Message: "Initial commit", Changes: map[string]string{"a.txt": "hello world"}}},
		Branches:      []state.Branch{{Name: "master", Head: "1111111", RemoteHead: "1111111"}},
		Merge:         state.MergeState{Conflicts: []string{}},
	}
	r.SetRemote("origin", "https://github.com/acme/app.git")

	tests := []struct {
		check Check
		want  bool
	}{
		{Check{Type: CheckNoConflict}, true},
		{Check{Type: CheckCommitExists, MessagePattern: "Initial"}, true},
		{Check{Type: CheckCommitExists, MessagePattern: "Merge"}, false},
		{Check{Type: CheckFileContent, Path: "a.txt", Contains: []string{"hello", "world"}}, true},
		{Check{Type: CheckFileContent, Path: "a.txt", Contains: []string{"bye"}}, false},
		{Check{Type: CheckFileContent, Path: "missing.txt"}, false},
		{Check{Type: CheckFileTracked, Path: "a.txt"}, true},
		{Check{Type: CheckCleanWorkingTree}, true},
		{Check{Type: CheckBranchExists, Name: "master"}, true},
		{Check{Type: CheckBranchExists, Name: "develop"}, false},
		{Check{Type: CheckBranchExists, Name: "develop", Negate: true}, true},
		{Check{Type: CheckCurrentBranch, Name: "master"}, true},
		{Check{Type: CheckRemoteConfigured}, true},
		{Check{Type: CheckRemoteConfigured, Name: "upstream"}, false},
		{Check{Type: CheckPushed}, true},
		{Check{Type: "unknown"}, false},
	}
	for _, tt := range tests {
		res := Verify(&Mission{ID: "m", Validation: Validation{Checks: []Check{tt.check}}}, r)
		assert.Equal(t, tt.want, res.Success, "%+v", tt.check)
		require.Len(t, res.Progress, 1)
		assert.Equal(t, tt.want, res.Progress[0].Passed)
	}

	res := Verify(&Mission{ID: "empty"}, r)
	assert.True(t, res.Success)
	assert.NotNil(t, res.Progress)
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	sm := git.NewSessionManager(git.ManagerOptions{Logger: discard()})
	t.Cleanup(func() { _ = sm.Close(context.Background()) })
	return NewEngine(NewLoader("", discard()), sm)
}

func TestEngine_MergeConflictMission(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	id, err := e.StartMission(ctx, "merge-conflict")
	require.NoError(t, err)
	assert.Regexp(t, `^mission-merge-conflict-[0-9a-f]{8}$`, id)

	sess, ok := e.Manager.GetSession(id)
	require.True(t, ok)
	r := sess.Engine.Snapshot()
	require.True(t, r.Merge.Merging, "setup starts the merge")
	assert.Equal(t, []string{"service.js"}, r.Merge.Conflicts)

	res, err := e.VerifyMission(id, "merge-conflict")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.False(t, res.Progress[0].Passed)

	for _, cmd := range []string{
		"edit service.js connect({ retry: 3, timeout: 5000 })",
		"resolve service.js",
		"commit",
	} {
		name, args := git.ParseCommand(cmd)
		_, err := git.Dispatch(ctx, sess, name, args)
		require.NoError(t, err, cmd)
	}

	res, err = e.VerifyMission(id, "merge-conflict")
	require.NoError(t, err)
	for _, p := range res.Progress {
		assert.True(t, p.Passed, p.Description)
	}
	assert.True(t, res.Success)
}

func TestEngine_Errors(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	_, err := e.StartMission(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.VerifyMission("no-such-session", "default")
	assert.Error(t, err)

	id, err := e.StartMission(ctx, DefaultID)
	require.NoError(t, err)
	_, err = e.VerifyMission(id, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
