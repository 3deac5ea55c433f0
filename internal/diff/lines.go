// Package diff computes line-level differences between two text blobs.
//
// Lines produces the edit script using a longest-common-subsequence table;
// Unified renders the same script as a git-style patch.
package diff

import (
	"fmt"
	"strings"
)

// Kind is the operation a Line represents.
type Kind int

const (
	Equal Kind = iota
	Insert
	Delete
)

func (k Kind) String() string {
	switch k {
	case Equal:
		return "equal"
	case Insert:
		return "insert"
	case Delete:
		return "delete"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText lets Kind serialize as its name in JSON responses.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses the names written by MarshalText.
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "equal":
		*k = Equal
	case "insert":
		*k = Insert
	case "delete":
		*k = Delete
	default:
		return fmt.Errorf("diff: unknown line kind %q", b)
	}
	return nil
}

// Line is one entry of an edit script. Line numbers are 1-based; zero means
// the side does not apply (inserts have no old number, deletes no new one).
type Line struct {
	Kind      Kind   `json:"kind"`
	Content   string `json:"content"`
	OldNumber int    `json:"oldLineNumber,omitempty"`
	NewNumber int    `json:"newLineNumber,omitempty"`
}

// Stats summarizes an edit script.
type Stats struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

// Lines returns the edit script turning original into modified.
//
// Both texts are split on "\n". The backtrack walks from the end of both
// inputs and, on a mismatch, consumes from modified whenever the left cell
// is at least as long as the upper one, so a substitution comes out as
// delete followed by insert once the script is reversed.
func Lines(original, modified string) []Line {
	a := strings.Split(original, "\n")
	b := strings.Split(modified, "\n")
	n, m := len(a), len(b)

	dp := make([][]int, n+1)
	for i := range dp {
		dp[i] = make([]int, m+1)
	}
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			if a[i-1] == b[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else {
				dp[i][j] = max(dp[i-1][j], dp[i][j-1])
			}
		}
	}

	out := make([]Line, 0, n+m)
	i, j := n, m
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && a[i-1] == b[j-1]:
			out = append(out, Line{Kind: Equal, Content: a[i-1], OldNumber: i, NewNumber: j})
			i--
			j--
		case j > 0 && (i == 0 || dp[i][j-1] >= dp[i-1][j]):
			out = append(out, Line{Kind: Insert, Content: b[j-1], NewNumber: j})
			j--
		default:
			out = append(out, Line{Kind: Delete, Content: a[i-1], OldNumber: i})
			i--
		}
	}

	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}

// Stat counts inserted and deleted lines.
func Stat(lines []Line) Stats {
	var s Stats
	for _, l := range lines {
		switch l.Kind {
		case Insert:
			s.Added++
		case Delete:
			s.Removed++
		}
	}
	return s
}

// Changed reports whether the script contains any insert or delete.
func Changed(lines []Line) bool {
	for _, l := range lines {
		if l.Kind != Equal {
			return true
		}
	}
	return false
}

// Apply replays an edit script on original and returns the result. It fails
// when an equal or delete entry does not match the original text.
func Apply(original string, lines []Line) (string, error) {
	src := strings.Split(original, "\n")
	dst := make([]string, 0, len(src))
	pos := 0
	for _, l := range lines {
		switch l.Kind {
		case Equal, Delete:
			if pos >= len(src) || src[pos] != l.Content {
				return "", fmt.Errorf("apply %s at line %d: original does not match", l.Kind, pos+1)
			}
			if l.Kind == Equal {
				dst = append(dst, src[pos])
			}
			pos++
		case Insert:
			dst = append(dst, l.Content)
		}
	}
	if pos != len(src) {
		return "", fmt.Errorf("apply: %d trailing original lines not covered", len(src)-pos)
	}
	return strings.Join(dst, "\n"), nil
}
