package commands

import (
	"context"
	"fmt"

	"github.com/kurobon/nexusvc/internal/git"
)

func init() {
	git.RegisterCommand("cherry-pick", func() git.Command { return &CherryPickCommand{} })
}

type CherryPickCommand struct{}

var _ git.Command = (*CherryPickCommand)(nil)

func (c *CherryPickCommand) Execute(ctx context.Context, s *git.Session, args []string) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("usage: cherry-pick <commit>")
	}
	if args[1] == "-h" || args[1] == "--help" {
		return c.Help(), nil
	}
	f, err := s.Engine.CherryPick(args[1])
	out, err := await(ctx, f, err)
	if err != nil {
		return "", fatal(err)
	}
	return out, nil
}

func (c *CherryPickCommand) Help() string {
	return `📘 CHERRY-PICK (1)                                      NexusVC Manual

 💡 DESCRIPTION
    指定したコミットを現在のブランチに取り込みます。
    シミュレーションでは操作を受け付けるだけで、内容は適用されません。

 📋 SYNOPSIS
    cherry-pick <commit>
`
}
