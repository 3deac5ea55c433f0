package commands

import (
	"context"

	"github.com/kurobon/nexusvc/internal/git"
)

func init() {
	git.RegisterCommand("pull", func() git.Command { return &PullCommand{} })
}

type PullCommand struct{}

var _ git.Command = (*PullCommand)(nil)

func (c *PullCommand) Execute(ctx context.Context, s *git.Session, args []string) (string, error) {
	rebase := false
	for _, arg := range args[1:] {
		switch arg {
		case "--rebase", "-r":
			rebase = true
		case "--no-rebase":
			rebase = false
		case "-h", "--help":
			return c.Help(), nil
		case "origin":
		default:
			return "", unknownOption(arg)
		}
	}
	f, err := s.Engine.Pull(rebase)
	line, err := await(ctx, f, err)
	if err != nil {
		return "", err
	}
	return "$ " + line + "\nAlready up to date.", nil
}

func (c *PullCommand) Help() string {
	return `📘 PULL (1)                                             NexusVC Manual

 💡 DESCRIPTION
    origin から変更を取り込みます。
    シミュレーションでは内容の取得は行わず、実行されるコマンドだけを表示します。

 📋 SYNOPSIS
    pull [--rebase]

 ⚙️  COMMON OPTIONS
    --rebase, -r
        マージの代わりにリベースで取り込みます。
`
}
