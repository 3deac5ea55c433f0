package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kurobon/nexusvc/internal/git"
	"github.com/kurobon/nexusvc/internal/state"
)

func init() {
	git.RegisterCommand("log", func() git.Command { return &LogCommand{} })
}

type LogCommand struct{}

var _ git.Command = (*LogCommand)(nil)

type LogOptions struct {
	Oneline bool
	All     bool
	Limit   int
}

func (c *LogCommand) Execute(ctx context.Context, s *git.Session, args []string) (string, error) {
	opts, err := c.parseArgs(args)
	if err != nil {
		if errors.Is(err, errHelpRequested) {
			return c.Help(), nil
		}
		return "", err
	}

	r := s.Engine.Snapshot()
	head := r.Head()
	if head == "" && !opts.All {
		return "", fmt.Errorf("fatal: your current branch '%s' does not have any commits yet", r.CurrentBranch)
	}
	reachable := map[string]bool{}
	for _, id := range r.Ancestors(head) {
		reachable[id] = true
	}
	decorations := decorate(r)

	var sb strings.Builder
	n := 0
	for _, cm := range r.Commits {
		if !opts.All && !reachable[cm.ID] {
			continue
		}
		if opts.Limit > 0 && n >= opts.Limit {
			break
		}
		n++
		deco := ""
		if d := decorations[cm.ID]; len(d) > 0 {
			deco = " (" + strings.Join(d, ", ") + ")"
		}
		if opts.Oneline {
			sb.WriteString(fmt.Sprintf("\x1b[33m%s\x1b[0m%s %s\n", short(cm.ID), deco, git.Subject(cm.Message)))
			continue
		}
		sb.WriteString(fmt.Sprintf("\x1b[33mcommit %s\x1b[0m%s\n", cm.ID, deco))
		if cm.IsMerge() {
			sb.WriteString(fmt.Sprintf("Merge: %s %s\n", short(cm.Parent), short(cm.SecondaryParent)))
		}
		sb.WriteString(fmt.Sprintf("Author: %s\nDate:   %s\n\n", cm.Author, cm.Timestamp.Format("Mon Jan 2 15:04:05 2006 -0700")))
		for _, line := range strings.Split(cm.Message, "\n") {
			sb.WriteString("    " + line + "\n")
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func (c *LogCommand) parseArgs(args []string) (*LogOptions, error) {
	opts := &LogOptions{}
	cmdArgs := args[1:]
	for i := 0; i < len(cmdArgs); i++ {
		arg := cmdArgs[i]
		switch {
		case arg == "--oneline":
			opts.Oneline = true
		case arg == "--all":
			opts.All = true
		case arg == "-n" || arg == "--max-count":
			if i+1 >= len(cmdArgs) {
				return nil, fmt.Errorf("error: switch `n' requires a value")
			}
			i++
			n, err := strconv.Atoi(cmdArgs[i])
			if err != nil || n < 0 {
				return nil, fmt.Errorf("fatal: '%s': not a valid count", cmdArgs[i])
			}
			opts.Limit = n
		case strings.HasPrefix(arg, "-") && len(arg) > 1 && isDigits(arg[1:]):
			opts.Limit, _ = strconv.Atoi(arg[1:])
		case arg == "-h" || arg == "--help":
			return nil, errHelpRequested
		default:
			return nil, unknownOption(arg)
		}
	}
	return opts, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// decorate lists the refs pointing at each commit, HEAD first.
func decorate(r *state.Repository) map[string][]string {
	out := map[string][]string{}
	for _, b := range r.Branches {
		if b.Head == "" {
			continue
		}
		name := b.Name
		if b.Name == r.CurrentBranch {
			name = "HEAD -> " + b.Name
			out[b.Head] = append([]string{name}, out[b.Head]...)
		} else {
			out[b.Head] = append(out[b.Head], name)
		}
	}
	for _, b := range r.Branches {
		if b.RemoteHead != "" {
			out[b.RemoteHead] = append(out[b.RemoteHead], "origin/"+b.Name)
		}
	}
	for _, cm := range r.Commits {
		for _, t := range cm.Tags {
			out[cm.ID] = append(out[cm.ID], "tag: "+t)
		}
	}
	return out
}

func (c *LogCommand) Help() string {
	return `📘 LOG (1)                                              NexusVC Manual

 💡 DESCRIPTION
    現在のブランチから辿れるコミットの履歴を新しい順に表示します。
    ブランチ、リモート追跡ブランチ、タグの位置も一緒に表示されます。

 📋 SYNOPSIS
    log [--oneline] [--all] [-n <number>]

 ⚙️  COMMON OPTIONS
    --oneline
        1コミット1行で表示します。

    --all
        どのブランチからも辿れないコミットも含め、全て表示します。

    -n <number>, -<number>
        表示するコミット数を制限します。

 🛠  EXAMPLES
    1. 直近5件を1行ずつ表示
       $ log --oneline -n 5
`
}
