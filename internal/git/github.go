package git

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kurobon/nexusvc/internal/state"
)

// Pattern: https://github.com/owner/repo or git@github.com:owner/repo
var githubURL = regexp.MustCompile(`github\.com[/:]([^/]+)/([^/]+)$`)

// ParseGitHubURL extracts owner and repository name from a GitHub URL.
func ParseGitHubURL(url string) (owner, repo string, err error) {
	url = strings.TrimSuffix(strings.TrimSpace(url), "/")
	url = strings.TrimSuffix(url, ".git")
	m := githubURL.FindStringSubmatch(url)
	if len(m) != 3 {
		return "", "", fmt.Errorf("invalid GitHub URL format: %s", url)
	}
	return m[1], m[2], nil
}

// connectGitHub records the hosting identity for a newly configured URL.
// Non-GitHub hosts keep the previous username.
func connectGitHub(prev state.GitHub, url string) state.GitHub {
	gh := state.GitHub{Connected: true, RepoURL: url, Username: prev.Username}
	if owner, _, err := ParseGitHubURL(url); err == nil {
		gh.Username = owner
	}
	return gh
}
