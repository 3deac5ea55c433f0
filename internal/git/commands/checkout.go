package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/kurobon/nexusvc/internal/git"
)

func init() {
	git.RegisterCommand("checkout", func() git.Command { return &CheckoutCommand{} })
}

type CheckoutCommand struct{}

var _ git.Command = (*CheckoutCommand)(nil)

func (c *CheckoutCommand) Execute(ctx context.Context, s *git.Session, args []string) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("usage: checkout [-b] <branch>")
	}
	switch args[1] {
	case "-h", "--help":
		return c.Help(), nil
	case "-b", "-c":
		if len(args) < 3 {
			return "", fmt.Errorf("error: switch `%s' requires a value", args[1][1:])
		}
		from := ""
		if len(args) > 3 {
			from = args[3]
		}
		f, err := s.Engine.CreateBranch(args[2], from)
		b, err := await(ctx, f, err)
		if err != nil {
			return "", fatal(err)
		}
		return fmt.Sprintf("Switched to a new branch '%s'", b.Name), nil
	}

	name := args[1]
	if name == s.Engine.Snapshot().CurrentBranch {
		return fmt.Sprintf("Already on '%s'", name), nil
	}
	f, err := s.Engine.Checkout(name)
	b, err := await(ctx, f, err)
	if errors.Is(err, git.ErrDirtyWorkingTree) {
		return "", fmt.Errorf("error: %w by checkout.\nPlease commit your changes or restore them before you switch branches.", err)
	}
	if err != nil {
		return "", fatal(err)
	}
	return fmt.Sprintf("Switched to branch '%s'", b.Name), nil
}

func (c *CheckoutCommand) Help() string {
	return `📘 CHECKOUT (1)                                         NexusVC Manual

 💡 DESCRIPTION
    ブランチを切り替えます。作業ツリーは切り替え先のブランチの内容になります。
    未コミットの変更がある場合やマージ中は切り替えできません。
    switch でも同じ動作になります。

 📋 SYNOPSIS
    checkout <branch>
    checkout -b <new-branch> [<start-point>]

 🛠  EXAMPLES
    1. feature/ui-refresh に切り替え
       $ checkout feature/ui-refresh
`
}
