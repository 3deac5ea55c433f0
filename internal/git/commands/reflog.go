package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/kurobon/nexusvc/internal/git"
)

func init() {
	git.RegisterCommand("reflog", func() git.Command { return &ReflogCommand{} })
}

type ReflogCommand struct{}

var _ git.Command = (*ReflogCommand)(nil)

func (c *ReflogCommand) Execute(_ context.Context, s *git.Session, args []string) (string, error) {
	if len(args) > 1 && (args[1] == "-h" || args[1] == "--help") {
		return c.Help(), nil
	}
	history := s.History()
	var sb strings.Builder
	// Newest first, like git.
	for i := len(history) - 1; i >= 0; i-- {
		e := history[i]
		idx := len(history) - 1 - i
		sb.WriteString(fmt.Sprintf("\x1b[33m%s\x1b[0m HEAD@{%d}: %s\n", short(e.Hash), idx, e.Command))
	}
	return sb.String(), nil
}

func (c *ReflogCommand) Help() string {
	return `📘 REFLOG (1)                                           NexusVC Manual

 💡 DESCRIPTION
    このセッションで成功したコマンドの履歴を、実行時点の HEAD とともに表示します。
    reset --hard で失ったコミットを探すのに使えます。

 📋 SYNOPSIS
    reflog
`
}
