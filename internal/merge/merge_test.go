package merge

import (
	"maps"
	"testing"

	"github.com/kurobon/nexusvc/internal/state"
	"github.com/kurobon/nexusvc/internal/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// divergent returns master and feature branches that both edited
// service.js, while only feature touched ui.css and only master README.md.
func divergent(t *testing.T) *state.Repository {
	t.Helper()
	r := &state.Repository{
		CurrentBranch: "master",
		Branches:      []state.Branch{{Name: "master"}},
	}
	root, err := r.CreateCommit(state.CommitSpec{Message: "root", Snapshot: map[string]string{
		"service.js": "connect()",
		"README.md":  "# v1",
		"old.txt":    "legacy",
	}})
	require.NoError(t, err)
	require.NoError(t, r.CreateBranch("feature", root.ID))

	feat, err := r.CreateCommit(state.CommitSpec{Parent: root.ID, Message: "feature work", Lane: 1, Snapshot: map[string]string{
		"service.js": "connectV2()",
		"README.md":  "# v1",
		"ui.css":     "body{}",
	}})
	require.NoError(t, err)
	main, err := r.CreateCommit(state.CommitSpec{Parent: root.ID, Message: "master work", Snapshot: map[string]string{
		"service.js": "connect(retry)",
		"README.md":  "# v2",
		"old.txt":    "legacy",
	}})
	require.NoError(t, err)

	m, _ := r.Branch("master")
	m.Head = main.ID
	f, _ := r.Branch("feature")
	f.Head = feat.ID
	r.OriginalFiles = maps.Clone(main.Changes)
	r.Files = maps.Clone(main.Changes)
	r.Merge = state.MergeState{Conflicts: []string{}}
	return r
}

func TestBegin_Conflict(t *testing.T) {
	r := divergent(t)

	res, err := Begin(r, "feature", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"service.js"}, res.Conflicts)
	assert.ElementsMatch(t, []string{"ui.css", "old.txt"}, res.Applied)
	assert.Equal(t, "Merge branch 'feature' into 'master'", res.Message)

	assert.Equal(t, Merging, PhaseOf(r.Merge))
	assert.Equal(t, "feature", r.Merge.Source)
	assert.Equal(t, "connectV2()", r.Merge.Theirs["service.js"])
	assert.Equal(t,
		"<<<<<<< HEAD\nconnect(retry)\n=======\nconnectV2()\n>>>>>>> feature",
		r.Files["service.js"])
	assert.Equal(t, "body{}", r.Files["ui.css"], "incoming-only additions are applied")
	assert.NotContains(t, r.Files, "old.txt", "incoming deletions are applied")
	assert.Equal(t, "# v2", r.Files["README.md"], "our-only edits are kept")

	codes := status.Classify(state.StatusInput(r))
	assert.Equal(t, status.Conflicted, codes["service.js"])
}

func TestBegin_ResolveThenReset(t *testing.T) {
	r := divergent(t)
	_, err := Begin(r, "feature", nil)
	require.NoError(t, err)

	require.NoError(t, Resolve(r, "service.js", "connectV2(retry)"))
	assert.Empty(t, r.Merge.Conflicts)
	assert.True(t, r.Merge.Merging, "still merging until a commit finalizes it")
	assert.Equal(t, "connectV2(retry)", r.Files["service.js"])

	assert.ErrorIs(t, Resolve(r, "service.js", "again"), ErrNotConflicted)

	Reset(r)
	assert.Equal(t, Idle, PhaseOf(r.Merge))
	require.NoError(t, r.Validate())
}

func TestResolve_DoesNotInspectMarkers(t *testing.T) {
	r := divergent(t)
	_, err := Begin(r, "feature", nil)
	require.NoError(t, err)

	left := r.Files["service.js"]
	require.NoError(t, Resolve(r, "service.js", left))
	assert.Contains(t, r.Files["service.js"], "<<<<<<< HEAD")
}

func TestBegin_CleanMerge(t *testing.T) {
	r := divergent(t)
	noConflicts := PredicateFunc(func(_ string, _, ours, theirs *string) Decision {
		if ours == nil {
			return Take
		}
		return Keep
	})

	res, err := Begin(r, "feature", noConflicts)
	require.NoError(t, err)
	assert.Empty(t, res.Conflicts)
	assert.True(t, r.Merge.Merging)
	assert.Empty(t, r.Merge.Conflicts)
	assert.Equal(t, "body{}", r.Files["ui.css"])
}

func TestBegin_Guards(t *testing.T) {
	r := divergent(t)

	_, err := Begin(r, "master", nil)
	assert.ErrorIs(t, err, ErrSelfMerge)

	_, err = Begin(r, "nope", nil)
	assert.ErrorIs(t, err, state.ErrBranchNotFound)

	require.NoError(t, r.CreateBranch("empty", ""))
	_, err = Begin(r, "empty", nil)
	assert.ErrorIs(t, err, state.ErrNoHead)

	_, err = Begin(r, "feature", nil)
	require.NoError(t, err)
	_, err = Begin(r, "feature", nil)
	assert.ErrorIs(t, err, ErrMergeInProgress)
}

func TestBegin_UpToDate(t *testing.T) {
	r := divergent(t)
	master, _ := r.Branch("master")
	require.NoError(t, r.CreateBranch("behind", master.Head))
	before := r.Clone()

	res, err := Begin(r, "behind", nil)
	require.NoError(t, err)
	assert.True(t, res.UpToDate)
	assert.Equal(t, before, r)
}

func TestAbort(t *testing.T) {
	r := divergent(t)
	original := maps.Clone(r.Files)

	assert.ErrorIs(t, Abort(r), ErrNoMergeInProgress)

	_, err := Begin(r, "feature", nil)
	require.NoError(t, err)
	require.NoError(t, Abort(r))
	assert.Equal(t, original, r.Files)
	assert.Equal(t, Idle, PhaseOf(r.Merge))
}

func TestThreeWayView(t *testing.T) {
	r := divergent(t)
	_, err := ThreeWayView(r, "service.js")
	assert.ErrorIs(t, err, ErrNoMergeInProgress)

	_, err = Begin(r, "feature", nil)
	require.NoError(t, err)

	v, err := ThreeWayView(r, "service.js")
	require.NoError(t, err)
	assert.Equal(t, "connect(retry)", v.Ours)
	assert.Equal(t, "connectV2()", v.Theirs)
	assert.Contains(t, v.Result, "=======")
	assert.True(t, v.Conflicted)
}

func TestThreeWay_Decide(t *testing.T) {
	s := func(v string) *string { return &v }
	tests := []struct {
		name               string
		base, ours, theirs *string
		want               Decision
	}{
		{"all equal", s("a"), s("a"), s("a"), Keep},
		{"both same change", s("a"), s("b"), s("b"), Keep},
		{"theirs changed", s("a"), s("a"), s("b"), Take},
		{"theirs deleted", s("a"), s("a"), nil, Take},
		{"theirs added", nil, nil, s("b"), Take},
		{"ours changed", s("a"), s("b"), s("a"), Keep},
		{"ours deleted", s("a"), nil, s("a"), Keep},
		{"both changed", s("a"), s("b"), s("c"), Conflict},
		{"both added differently", nil, s("b"), s("c"), Conflict},
		{"modify/delete", s("a"), s("b"), nil, Conflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ThreeWay{}.Decide("f", tt.base, tt.ours, tt.theirs))
		})
	}
}
