package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/kurobon/nexusvc/internal/git"
)

func init() {
	git.RegisterCommand("restore", func() git.Command { return &RestoreCommand{} })
}

type RestoreCommand struct{}

var _ git.Command = (*RestoreCommand)(nil)

func (c *RestoreCommand) Execute(ctx context.Context, s *git.Session, args []string) (string, error) {
	var files []string
	for _, arg := range args[1:] {
		switch {
		case arg == "-h" || arg == "--help":
			return c.Help(), nil
		case strings.HasPrefix(arg, "-"):
			return "", unknownOption(arg)
		default:
			files = append(files, arg)
		}
	}
	if len(files) == 0 {
		return "", fmt.Errorf("fatal: you must specify path(s) to restore")
	}

	// Each file is its own queued task; wait for all of them in order.
	for _, name := range files {
		f, err := s.Engine.RevertFile(name)
		if _, err := await(ctx, f, err); err != nil {
			return "", fatal(err)
		}
	}
	return "", nil
}

func (c *RestoreCommand) Help() string {
	return `📘 RESTORE (1)                                          NexusVC Manual

 💡 DESCRIPTION
    作業ツリーの変更を取り消し、最後のコミットの内容に戻します。
    未追跡のファイルは削除されます。

 📋 SYNOPSIS
    restore <file>...

 🛠  EXAMPLES
    1. app.js の変更を破棄
       $ restore app.js
`
}
