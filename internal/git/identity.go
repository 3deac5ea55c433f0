package git

import (
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing/object"
)

// Signature returns the author/committer signature for a simulated author.
// The email is derived from the name since the simulation has no user
// configuration.
func Signature(author string, when time.Time) *object.Signature {
	if author == "" {
		author = "You"
	}
	local := strings.ToLower(strings.Join(strings.Fields(author), "."))
	return &object.Signature{
		Name:  author,
		Email: local + "@nexusvc.local",
		When:  when,
	}
}
