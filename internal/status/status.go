// Package status classifies working-tree files against the HEAD snapshot.
package status

import (
	"maps"
	"sort"
	"strings"
)

// Code is a porcelain-style per-file status.
type Code string

const (
	Unmodified     Code = "unmodified"
	Modified       Code = "M"
	Staged         Code = "A"
	Untracked      Code = "??"
	Ignored        Code = "!!"
	Conflicted     Code = "UU"
	ModifiedStaged Code = "MM"
)

// Valid reports whether c is one of the known codes.
func (c Code) Valid() bool {
	switch c {
	case Unmodified, Modified, Staged, Untracked, Ignored, Conflicted, ModifiedStaged:
		return true
	}
	return false
}

// Input is everything classification reads. Maps are never modified.
type Input struct {
	Files     map[string]string
	Head      map[string]string
	Ignore    []string
	Conflicts []string
}

// Classify returns a status for every file in either map, except untracked
// files matched by an ignore pattern, which are left out entirely.
//
// Priority per file: conflicted, untracked, deleted (reported as Modified),
// modified, unmodified.
func Classify(in Input) map[string]Code {
	conflicted := make(map[string]struct{}, len(in.Conflicts))
	for _, f := range in.Conflicts {
		conflicted[f] = struct{}{}
	}

	out := make(map[string]Code, len(in.Files)+len(in.Head))
	for _, name := range names(in) {
		working, inWorking := in.Files[name]
		head, inHead := in.Head[name]

		if _, ok := conflicted[name]; ok {
			out[name] = Conflicted
			continue
		}
		switch {
		case inWorking && !inHead:
			if !Matches(in.Ignore, name) {
				out[name] = Untracked
			}
		case !inWorking && inHead:
			out[name] = Modified
		case working != head:
			out[name] = Modified
		default:
			out[name] = Unmodified
		}
	}
	return out
}

// Changed returns the sorted names whose status is neither Unmodified nor
// Ignored: the files a commit may select.
func Changed(codes map[string]Code) []string {
	var out []string
	for name, c := range codes {
		if c != Unmodified && c != Ignored {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Clean reports whether nothing is changed.
func Clean(codes map[string]Code) bool {
	return len(Changed(codes)) == 0
}

// Equal compares two classifications by value.
func Equal(a, b map[string]Code) bool {
	return maps.Equal(a, b)
}

// Matches reports whether name is matched by any ignore pattern. A pattern
// starting with "*" matches any name ending in the rest of the pattern;
// other patterns must equal the name.
func Matches(patterns []string, name string) bool {
	for _, p := range patterns {
		if suffix, ok := strings.CutPrefix(p, "*"); ok {
			if strings.HasSuffix(name, suffix) {
				return true
			}
			continue
		}
		if p == name {
			return true
		}
	}
	return false
}

func names(in Input) []string {
	seen := make(map[string]struct{}, len(in.Files)+len(in.Head)+len(in.Conflicts))
	for n := range in.Files {
		seen[n] = struct{}{}
	}
	for n := range in.Head {
		seen[n] = struct{}{}
	}
	for _, n := range in.Conflicts {
		seen[n] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
