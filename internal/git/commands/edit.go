package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/kurobon/nexusvc/internal/git"
)

func init() {
	git.RegisterCommand("edit", func() git.Command { return &EditCommand{} })
	git.RegisterCommand("rm", func() git.Command { return &RemoveCommand{} })
}

// EditCommand replaces the working content of a file. It stands in for the
// editor panel of the UI.
type EditCommand struct{}

var _ git.Command = (*EditCommand)(nil)

func (c *EditCommand) Execute(ctx context.Context, s *git.Session, args []string) (string, error) {
	if len(args) > 1 && (args[1] == "-h" || args[1] == "--help") {
		return c.Help(), nil
	}
	if len(args) < 3 {
		return "", fmt.Errorf("usage: edit <file> <content>")
	}
	content := strings.ReplaceAll(strings.Join(args[2:], " "), `\n`, "\n")
	f, err := s.Engine.WriteFile(args[1], content)
	if _, err := await(ctx, f, err); err != nil {
		return "", fatal(err)
	}
	return "", nil
}

func (c *EditCommand) Help() string {
	return `📘 EDIT (1)                                             NexusVC Manual

 💡 DESCRIPTION
    ファイルの内容を書き換えます。ファイルがなければ作成します。
    内容中の "\n" は改行として扱われます。

 📋 SYNOPSIS
    edit <file> <content>

 🛠  EXAMPLES
    1. README.md を書き換える
       $ edit README.md "# NexusVC\nsimulated"
`
}

type RemoveCommand struct{}

var _ git.Command = (*RemoveCommand)(nil)

func (c *RemoveCommand) Execute(ctx context.Context, s *git.Session, args []string) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("usage: rm <file>...")
	}
	var out []string
	for _, name := range args[1:] {
		if name == "-h" || name == "--help" {
			return c.Help(), nil
		}
		f, err := s.Engine.DeleteFile(name)
		if _, err := await(ctx, f, err); err != nil {
			return "", fatal(err)
		}
		out = append(out, fmt.Sprintf("rm '%s'", name))
	}
	return strings.Join(out, "\n"), nil
}

func (c *RemoveCommand) Help() string {
	return `📘 RM (1)                                               NexusVC Manual

 💡 DESCRIPTION
    作業ツリーからファイルを削除します。
    削除はコミットするまで記録されません。

 📋 SYNOPSIS
    rm <file>...
`
}
