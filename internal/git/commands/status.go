package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kurobon/nexusvc/internal/git"
	"github.com/kurobon/nexusvc/internal/state"
	"github.com/kurobon/nexusvc/internal/status"
)

func init() {
	git.RegisterCommand("status", func() git.Command { return &StatusCommand{} })
}

type StatusCommand struct{}

// Ensure StatusCommand implements git.Command
var _ git.Command = (*StatusCommand)(nil)

type StatusOptions struct {
	Short  bool
	Branch bool
}

func (c *StatusCommand) Execute(ctx context.Context, s *git.Session, args []string) (string, error) {
	opts, err := c.parseArgs(args)
	if err != nil {
		if errors.Is(err, errHelpRequested) {
			return c.Help(), nil
		}
		return "", err
	}

	r := s.Engine.Snapshot()
	in := state.StatusInput(r)
	if opts.Short {
		return c.formatShortInfo(r, in, opts.Branch), nil
	}
	return c.formatLongInfo(r, in), nil
}

func (c *StatusCommand) parseArgs(args []string) (*StatusOptions, error) {
	opts := &StatusOptions{}
	for _, arg := range args[1:] {
		switch arg {
		case "-s", "--short":
			opts.Short = true
		case "-b", "--branch":
			opts.Branch = true
		case "-sb", "-bs":
			opts.Short = true
			opts.Branch = true
		case "-h", "--help":
			return nil, errHelpRequested
		default:
			return nil, unknownOption(arg)
		}
	}
	return opts, nil
}

func (c *StatusCommand) formatLongInfo(r *state.Repository, in status.Input) string {
	var sb strings.Builder

	// 1. Branch Info
	if r.CurrentBranch == "" {
		sb.WriteString("Not currently on any branch.\n")
	} else {
		sb.WriteString(fmt.Sprintf("On branch %s\n", r.CurrentBranch))
		if line := trackingInfo(r); line != "" {
			sb.WriteString(line + "\n")
		}
	}

	// 2. Classify Files
	codes := status.Classify(in)
	var conflicted, unstaged, untracked []string
	for _, path := range sortedNames(codes) {
		switch codes[path] {
		case status.Conflicted:
			conflicted = append(conflicted, fmt.Sprintf("%-16s%s", "both modified:", path))
		case status.Untracked:
			untracked = append(untracked, path)
		case status.Modified:
			label := "modified:"
			if _, ok := in.Files[path]; !ok {
				label = "deleted:"
			}
			unstaged = append(unstaged, fmt.Sprintf("%-12s%s", label, path))
		}
	}

	if r.Merge.Merging {
		if len(conflicted) > 0 {
			sb.WriteString("You have unmerged paths.\n  (fix conflicts and run \"resolve <file>\")\n  (use \"merge --abort\" to abort the merge)\n")
		} else {
			sb.WriteString("All conflicts fixed but you are still merging.\n  (use \"commit\" to conclude merge)\n")
		}
	}

	hasChanges := false

	// 3. Print Conflicts
	if len(conflicted) > 0 {
		sb.WriteString("\nUnmerged paths:\n")
		for _, line := range conflicted {
			sb.WriteString(fmt.Sprintf("\t\x1b[31m%s\x1b[0m\n", line)) // Red
		}
		hasChanges = true
	}

	// 4. Print Unstaged
	if len(unstaged) > 0 {
		sb.WriteString("\nChanges not staged for commit:\n  (use \"commit <file>...\" to record them)\n  (use \"restore <file>...\" to discard changes in working directory)\n")
		for _, line := range unstaged {
			sb.WriteString(fmt.Sprintf("\t\x1b[31m%s\x1b[0m\n", line)) // Red
		}
		hasChanges = true
	}

	// 5. Print Untracked
	if len(untracked) > 0 {
		sb.WriteString("\nUntracked files:\n  (use \"commit <file>...\" to include in what will be committed)\n")
		for _, line := range untracked {
			sb.WriteString(fmt.Sprintf("\t\x1b[31m%s\x1b[0m\n", line)) // Red
		}
		hasChanges = true
	}

	if !hasChanges && !r.Merge.Merging {
		sb.WriteString("nothing to commit, working tree clean\n")
	}
	return sb.String()
}

func (c *StatusCommand) formatShortInfo(r *state.Repository, in status.Input, showBranch bool) string {
	var sb strings.Builder
	if showBranch {
		if r.CurrentBranch == "" {
			sb.WriteString("## HEAD (no branch)\n")
		} else {
			sb.WriteString(fmt.Sprintf("## %s\n", r.CurrentBranch))
		}
	}
	if p := status.Porcelain(in); p != "" {
		sb.WriteString(strings.ReplaceAll(p, "\x00", "\n"))
		sb.WriteString("\n")
	}
	return sb.String()
}

// trackingInfo compares the current branch with its remote-tracking head.
func trackingInfo(r *state.Repository) string {
	b, ok := r.Branch(r.CurrentBranch)
	if !ok || b.RemoteHead == "" || b.Head == "" {
		return ""
	}
	upstream := "origin/" + b.Name
	if b.Head == b.RemoteHead {
		return fmt.Sprintf("Your branch is up to date with '%s'.", upstream)
	}
	ahead := countExclusive(r, b.Head, b.RemoteHead)
	behind := countExclusive(r, b.RemoteHead, b.Head)
	switch {
	case ahead > 0 && behind > 0:
		return fmt.Sprintf("Your branch and '%s' have diverged,\nand have %d and %d different commits each, respectively.", upstream, ahead, behind)
	case ahead > 0:
		return fmt.Sprintf("Your branch is ahead of '%s' by %d commit%s.\n  (use \"push\" to publish your local commits)", upstream, ahead, plural(ahead))
	case behind > 0:
		return fmt.Sprintf("Your branch is behind '%s' by %d commit%s.", upstream, behind, plural(behind))
	}
	return ""
}

// countExclusive counts commits reachable from a but not from b.
func countExclusive(r *state.Repository, a, b string) int {
	exclude := map[string]bool{}
	for _, id := range r.Ancestors(b) {
		exclude[id] = true
	}
	n := 0
	for _, id := range r.Ancestors(a) {
		if !exclude[id] {
			n++
		}
	}
	return n
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func sortedNames(codes map[string]status.Code) []string {
	paths := make([]string, 0, len(codes))
	for path := range codes {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func (c *StatusCommand) Help() string {
	return `📘 STATUS (1)                                           NexusVC Manual

 💡 DESCRIPTION
    作業ツリーの状態を表示します。
    コンフリクト中のファイル、変更されたファイル、未追跡のファイルを
    分類して一覧にします。無視パターンに一致するファイルは表示されません。

 📋 SYNOPSIS
    status [-s] [-b]

 ⚙️  COMMON OPTIONS
    -s, --short
        短い形式 (UU / ?? / " M" / " D") で表示します。

    -b, --branch
        短い形式でもブランチ名を表示します。

 🛠  EXAMPLES
    1. 変更の一覧を確認
       $ status
    2. 短い形式で確認
       $ status -s
`
}
