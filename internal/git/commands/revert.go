package commands

import (
	"context"
	"fmt"

	"github.com/kurobon/nexusvc/internal/git"
)

func init() {
	git.RegisterCommand("revert", func() git.Command { return &RevertCommand{} })
}

type RevertCommand struct{}

var _ git.Command = (*RevertCommand)(nil)

func (c *RevertCommand) Execute(ctx context.Context, s *git.Session, args []string) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("usage: revert <commit>")
	}
	if args[1] == "-h" || args[1] == "--help" {
		return c.Help(), nil
	}
	f, err := s.Engine.RevertCommit(args[1])
	cm, err := await(ctx, f, err)
	if err != nil {
		return "", fatal(err)
	}
	return fmt.Sprintf("[%s %s] %s", s.Engine.Snapshot().CurrentBranch, short(cm.ID), cm.Message), nil
}

func (c *RevertCommand) Help() string {
	return `📘 REVERT (1)                                           NexusVC Manual

 💡 DESCRIPTION
    指定したコミットを取り消す新しいコミットを作成します。
    履歴は書き換えません。

 📋 SYNOPSIS
    revert <commit>
`
}
