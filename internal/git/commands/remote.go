package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kurobon/nexusvc/internal/git"
)

func init() {
	git.RegisterCommand("remote", func() git.Command { return &RemoteCommand{} })
}

type RemoteCommand struct{}

var _ git.Command = (*RemoteCommand)(nil)

func (c *RemoteCommand) Execute(ctx context.Context, s *git.Session, args []string) (string, error) {
	if len(args) < 2 {
		return c.list(s, false), nil
	}

	switch args[1] {
	case "-v", "--verbose":
		return c.list(s, true), nil
	case "-h", "--help":
		return c.Help(), nil
	case "add", "set-url":
		if len(args) < 4 {
			return "", fmt.Errorf("usage: remote %s <name> <url>", args[1])
		}
		name, url := args[2], args[3]
		if args[1] == "add" {
			if _, ok := s.Engine.Snapshot().Remote(name); ok {
				return "", fmt.Errorf("error: remote %s already exists.", name)
			}
		}
		f, err := s.Engine.ConfigureRemote(name, url)
		rm, err := await(ctx, f, err)
		if errors.Is(err, git.ErrHostUnresolved) {
			return "", fmt.Errorf("fatal: unable to access '%s': Could not resolve host", url)
		}
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("remote '%s' -> %s", rm.Name, rm.URL), nil
	case "remove", "rm":
		if len(args) < 3 {
			return "", fmt.Errorf("usage: remote remove <name>")
		}
		f, err := s.Engine.RemoveRemote(args[2])
		if _, err := await(ctx, f, err); err != nil {
			if errors.Is(err, git.ErrRemoteNotFound) {
				return "", fmt.Errorf("error: No such remote: '%s'", args[2])
			}
			return "", err
		}
		return "", nil
	}
	return "", fmt.Errorf("error: unknown subcommand: `%s`", args[1])
}

func (c *RemoteCommand) list(s *git.Session, verbose bool) string {
	var sb strings.Builder
	for _, rm := range s.Engine.Snapshot().Remotes {
		if verbose {
			sb.WriteString(fmt.Sprintf("%s\t%s (fetch)\n%s\t%s (push)\n", rm.Name, rm.URL, rm.Name, rm.URL))
		} else {
			sb.WriteString(rm.Name + "\n")
		}
	}
	return sb.String()
}

func (c *RemoteCommand) Help() string {
	return `📘 REMOTE (1)                                           NexusVC Manual

 💡 DESCRIPTION
    リモートリポジトリの設定を管理します。
    設定したリモートはデータベースに保存され、次のセッションでも復元されます。
    GitHub のURLを設定すると、所有者名がユーザー名として表示されます。

 📋 SYNOPSIS
    remote [-v]
    remote add <name> <url>
    remote set-url <name> <url>
    remote remove <name>

 🛠  EXAMPLES
    1. origin を追加
       $ remote add origin https://github.com/acme/nexus.git
`
}
