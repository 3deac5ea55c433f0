package commands

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/kurobon/nexusvc/internal/git"
	"github.com/kurobon/nexusvc/internal/state"
)

// testRepo is a small history with a diverged feature branch:
//
//	3333333 (feature)  app.js = "feature"
//	2222222 (master)   app.js = "v2"
//	1111111            app.js = "v1"
func testRepo() *state.Repository {
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	tree := func(app string) map[string]string {
		return map[string]string{"README.md": "# demo\n", "app.js": app}
	}
	return &state.Repository{
		CurrentBranch: "master",
		Files:         tree("v2\n"),
		OriginalFiles: tree("v2\n"),
		Commits: []state.Commit{
			{ID: "3333333", Message: "Feature work", Author: "Dev", Timestamp: base.Add(2 * time.Hour), Changes: tree("feature\n"), Parent: "1111111", Lane: 1},
			{ID: "2222222", Message: "Bump to v2", Author: "Dev", Timestamp: base.Add(time.Hour), Changes: tree("v2\n"), Parent: "1111111"},
			{ID: "1111111", Message: "Initial commit", Author: "Dev", Timestamp: base, Changes: tree("v1\n"), Tags: []string{"v0.1"}},
		},
		Branches: []state.Branch{
			{Name: "master", Head: "2222222", RemoteHead: "2222222"},
			{Name: "feature", Head: "3333333"},
		},
		GitIgnore: []string{"*.log"},
	}
}

func newTestSession(t *testing.T) *git.Session {
	t.Helper()
	sm := git.NewSessionManager(git.ManagerOptions{
		Seed:   func(context.Context) (*state.Repository, error) { return testRepo(), nil },
		Logger: log.New(io.Discard),
	})
	t.Cleanup(func() { _ = sm.Close(context.Background()) })

	s, err := sm.CreateSession(context.Background(), "test")
	require.NoError(t, err)
	return s
}

// run parses and dispatches input the way the terminal does.
func run(t *testing.T, s *git.Session, input string) (string, error) {
	t.Helper()
	name, args := git.ParseCommand(input)
	return git.Dispatch(context.Background(), s, name, args)
}

func mustRun(t *testing.T, s *git.Session, input string) string {
	t.Helper()
	out, err := run(t, s, input)
	require.NoError(t, err, input)
	return out
}
