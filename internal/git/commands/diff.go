package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kurobon/nexusvc/internal/diff"
	"github.com/kurobon/nexusvc/internal/git"
	"github.com/kurobon/nexusvc/internal/status"
)

func init() {
	git.RegisterCommand("diff", func() git.Command { return &DiffCommand{} })
}

type DiffCommand struct{}

var _ git.Command = (*DiffCommand)(nil)

type DiffOptions struct {
	Stat  bool
	Paths []string
}

func (c *DiffCommand) Execute(ctx context.Context, s *git.Session, args []string) (string, error) {
	opts, err := c.parseArgs(args)
	if err != nil {
		if errors.Is(err, errHelpRequested) {
			return c.Help(), nil
		}
		return "", err
	}

	paths := opts.Paths
	if len(paths) == 0 {
		paths = status.Changed(s.Engine.Status())
	}

	if opts.Stat {
		return c.stat(s, paths), nil
	}

	var sb strings.Builder
	for _, p := range paths {
		out, err := s.Engine.UnifiedDiff(p)
		if err != nil {
			return "", err
		}
		sb.WriteString(out)
	}
	return sb.String(), nil
}

func (c *DiffCommand) parseArgs(args []string) (*DiffOptions, error) {
	opts := &DiffOptions{}
	for _, arg := range args[1:] {
		switch {
		case arg == "--stat":
			opts.Stat = true
		case arg == "-h" || arg == "--help":
			return nil, errHelpRequested
		case arg == "--":
		case strings.HasPrefix(arg, "-"):
			return nil, unknownOption(arg)
		default:
			opts.Paths = append(opts.Paths, arg)
		}
	}
	return opts, nil
}

func (c *DiffCommand) stat(s *git.Session, paths []string) string {
	var (
		sb             strings.Builder
		added, removed int
		files          int
	)
	for _, p := range paths {
		st := diff.Stat(s.Engine.Diff(p))
		if st.Added == 0 && st.Removed == 0 {
			continue
		}
		files++
		added += st.Added
		removed += st.Removed
		sb.WriteString(fmt.Sprintf(" %s | %d %s%s\n", p, st.Added+st.Removed,
			strings.Repeat("+", min(st.Added, 40)), strings.Repeat("-", min(st.Removed, 40))))
	}
	if files == 0 {
		return ""
	}
	sb.WriteString(fmt.Sprintf(" %d file%s changed, %d insertion%s(+), %d deletion%s(-)\n",
		files, plural(files), added, plural(added), removed, plural(removed)))
	return sb.String()
}

func (c *DiffCommand) Help() string {
	return `📘 DIFF (1)                                             NexusVC Manual

 💡 DESCRIPTION
    HEADの内容と作業ツリーの差分を unified 形式で表示します。
    ファイルを指定しない場合は、変更のある全てのファイルを表示します。

 📋 SYNOPSIS
    diff [--stat] [<file>...]

 ⚙️  COMMON OPTIONS
    --stat
        ファイルごとの追加・削除行数だけを表示します。

 🛠  EXAMPLES
    1. service.js の変更を確認
       $ diff service.js
`
}
