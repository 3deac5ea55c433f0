package commands

import (
	"context"
	"fmt"

	"github.com/kurobon/nexusvc/internal/git"
)

func init() {
	git.RegisterCommand("reset", func() git.Command { return &ResetCommand{} })
}

type ResetCommand struct{}

var _ git.Command = (*ResetCommand)(nil)

func (c *ResetCommand) Execute(ctx context.Context, s *git.Session, args []string) (string, error) {
	hard := false
	target := ""
	for _, arg := range args[1:] {
		switch arg {
		case "--hard":
			hard = true
		case "--soft", "--mixed":
			return "", fmt.Errorf("fatal: only 'reset --hard' is supported; there is no index to reset")
		case "-h", "--help":
			return c.Help(), nil
		default:
			if target != "" {
				return "", fmt.Errorf("fatal: too many revisions: %s %s", target, arg)
			}
			target = arg
		}
	}
	if !hard {
		return "", fmt.Errorf("fatal: use 'reset --hard <commit>'")
	}
	if target == "" || target == "HEAD" {
		target = s.Engine.Snapshot().Head()
	}

	f, err := s.Engine.HardReset(target)
	cm, err := await(ctx, f, err)
	if err != nil {
		return "", fatal(err)
	}
	return fmt.Sprintf("HEAD is now at %s %s", short(cm.ID), git.Subject(cm.Message)), nil
}

func (c *ResetCommand) Help() string {
	return `📘 RESET (1)                                            NexusVC Manual

 💡 DESCRIPTION
    現在のブランチを指定したコミットへ戻し、作業ツリーもその内容に置き換えます。
    ⚠️  コミット一覧上で指定コミットより新しいコミットは、他のブランチのものも含めて
    全て削除されます。元に戻せません。

 📋 SYNOPSIS
    reset --hard <commit>

 🛠  EXAMPLES
    1. 最初のコミットまで戻す
       $ reset --hard a1b2c3d
`
}
