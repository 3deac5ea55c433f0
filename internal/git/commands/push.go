package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/kurobon/nexusvc/internal/git"
)

func init() {
	git.RegisterCommand("push", func() git.Command { return &PushCommand{} })
}

type PushCommand struct{}

var _ git.Command = (*PushCommand)(nil)

func (c *PushCommand) Execute(ctx context.Context, s *git.Session, args []string) (string, error) {
	for _, arg := range args[1:] {
		switch arg {
		case "-h", "--help":
			return c.Help(), nil
		case "origin", "-u", "--set-upstream":
		default:
			if arg != s.Engine.Snapshot().CurrentBranch {
				return "", fmt.Errorf("error: only the current branch can be pushed (got '%s')", arg)
			}
		}
	}

	f, err := s.Engine.Push()
	res, err := await(ctx, f, err)
	if errors.Is(err, git.ErrNoOrigin) {
		return "", fmt.Errorf("fatal: %w\n(use \"remote add origin <url>\" first)", err)
	}
	if err != nil {
		var oe *git.OpError
		if errors.As(err, &oe) && errors.Is(err, git.ErrNonFastForward) {
			return "", fmt.Errorf(" ! [rejected]        %s (non-fast-forward)\nerror: %s\nhint: try '%s' first", s.Engine.Snapshot().CurrentBranch, oe.Message(), oe.Action)
		}
		return "", err
	}
	if res.UpToDate {
		return res.String(), nil
	}
	url := ""
	if rm, ok := s.Engine.Snapshot().Remote(res.Remote); ok {
		url = rm.URL
	}
	return fmt.Sprintf("To %s\n%s", url, res), nil
}

func (c *PushCommand) Help() string {
	return `📘 PUSH (1)                                             NexusVC Manual

 💡 DESCRIPTION
    現在のブランチを origin へ送信します (シミュレーション)。
    リモートに手元にないコミットがある場合は拒否されます。
    拒否された場合は pull してから再度 push してください。

 📋 SYNOPSIS
    push [origin [<branch>]]

 🛠  EXAMPLES
    1. 現在のブランチをプッシュ
       $ push
`
}
