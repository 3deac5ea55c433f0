package commands

import (
	"context"
	"fmt"

	"github.com/kurobon/nexusvc/internal/git"
)

func init() {
	git.RegisterCommand("resolve", func() git.Command { return &ResolveCommand{} })
}

// ResolveCommand marks a conflicted file as resolved, taking either side or
// the current working content.
type ResolveCommand struct{}

var _ git.Command = (*ResolveCommand)(nil)

func (c *ResolveCommand) Execute(ctx context.Context, s *git.Session, args []string) (string, error) {
	var file, side string
	for _, arg := range args[1:] {
		switch arg {
		case "-h", "--help":
			return c.Help(), nil
		case "--ours", "--theirs":
			side = arg
		default:
			if file != "" {
				return "", fmt.Errorf("usage: resolve <file> [--ours|--theirs]")
			}
			file = arg
		}
	}
	if file == "" {
		return "", fmt.Errorf("usage: resolve <file> [--ours|--theirs]")
	}

	view, err := s.Engine.ThreeWay(file)
	if err != nil {
		return "", fatal(err)
	}
	content := view.Result
	switch side {
	case "--ours":
		content = view.Ours
	case "--theirs":
		content = view.Theirs
	}

	f, err := s.Engine.ResolveConflict(file, content)
	if _, err := await(ctx, f, err); err != nil {
		return "", fatal(err)
	}
	return fmt.Sprintf("Resolved '%s'", file), nil
}

func (c *ResolveCommand) Help() string {
	return `📘 RESOLVE (1)                                          NexusVC Manual

 💡 DESCRIPTION
    コンフリクトしたファイルを解決済みにします。
    オプションを付けない場合は、現在の作業ツリーの内容をそのまま採用します。
    先に edit でマーカーを取り除いておいてください。

 📋 SYNOPSIS
    resolve <file> [--ours | --theirs]

 ⚙️  COMMON OPTIONS
    --ours
        現在のブランチ (HEAD) 側の内容を採用します。

    --theirs
        取り込もうとしているブランチ側の内容を採用します。
`
}
