package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/kurobon/nexusvc/internal/git"
)

func init() {
	git.RegisterCommand("branch", func() git.Command { return &BranchCommand{} })
}

type BranchCommand struct{}

var _ git.Command = (*BranchCommand)(nil)

func (c *BranchCommand) Execute(ctx context.Context, s *git.Session, args []string) (string, error) {
	var positional []string
	remotes := false
	for _, arg := range args[1:] {
		switch {
		case arg == "-h" || arg == "--help":
			return c.Help(), nil
		case arg == "-r" || arg == "--remotes":
			remotes = true
		case strings.HasPrefix(arg, "-"):
			return "", unknownOption(arg)
		default:
			positional = append(positional, arg)
		}
	}

	switch len(positional) {
	case 0:
		return c.list(s, remotes), nil
	case 1, 2:
		from := ""
		if len(positional) == 2 {
			from = positional[1]
		}
		f, err := s.Engine.CreateBranch(positional[0], from)
		b, err := await(ctx, f, err)
		if err != nil {
			return "", fatal(err)
		}
		return fmt.Sprintf("Switched to a new branch '%s'", b.Name), nil
	}
	return "", fmt.Errorf("usage: branch [<name> [<start-point>]]")
}

func (c *BranchCommand) list(s *git.Session, remotes bool) string {
	r := s.Engine.Snapshot()
	var sb strings.Builder
	for _, b := range r.Branches {
		if remotes {
			if b.RemoteHead != "" {
				sb.WriteString(fmt.Sprintf("  \x1b[31morigin/%s\x1b[0m\n", b.Name))
			}
			continue
		}
		if b.Name == r.CurrentBranch {
			sb.WriteString(fmt.Sprintf("* \x1b[32m%s\x1b[0m\n", b.Name))
		} else {
			sb.WriteString(fmt.Sprintf("  %s\n", b.Name))
		}
	}
	return sb.String()
}

func (c *BranchCommand) Help() string {
	return `📘 BRANCH (1)                                           NexusVC Manual

 💡 DESCRIPTION
    ブランチを一覧表示、または作成します。
    作成したブランチには自動的に切り替わります。作業ツリーの変更はそのまま残ります。

 📋 SYNOPSIS
    branch [-r]
    branch <name> [<start-point>]

 ⚙️  COMMON OPTIONS
    -r, --remotes
        リモート追跡ブランチを表示します。

 🛠  EXAMPLES
    1. 現在の位置から新しいブランチを作成
       $ branch feature/login
`
}
