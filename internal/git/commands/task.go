package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/kurobon/nexusvc/internal/git"
	"github.com/kurobon/nexusvc/internal/state"
)

func init() {
	git.RegisterCommand("task", func() git.Command { return &TaskCommand{} })
}

// TaskCommand is the task wizard: it starts a typed work branch.
type TaskCommand struct{}

var _ git.Command = (*TaskCommand)(nil)

func (c *TaskCommand) Execute(ctx context.Context, s *git.Session, args []string) (string, error) {
	if len(args) < 2 || args[1] == "--list" || args[1] == "-l" {
		var sb strings.Builder
		for _, t := range state.GetTaskTypes() {
			sb.WriteString(fmt.Sprintf("%-9s %s\n", t.ID, t.Description))
		}
		return sb.String(), nil
	}
	if args[1] == "-h" || args[1] == "--help" {
		return c.Help(), nil
	}
	if len(args) < 3 {
		return "", fmt.Errorf("usage: task <type> <name>")
	}
	f, err := s.Engine.StartTask(args[1], strings.Join(args[2:], " "))
	b, err := await(ctx, f, err)
	if err != nil {
		return "", fatal(err)
	}
	return fmt.Sprintf("Switched to a new branch '%s'", b.Name), nil
}

func (c *TaskCommand) Help() string {
	return `📘 TASK (1)                                             NexusVC Manual

 💡 DESCRIPTION
    作業の種類に応じたブランチを作成して切り替えます。
    ブランチ名は "<type>/<name>" になり、name は小文字のケバブケースに変換されます。

 📋 SYNOPSIS
    task [--list]
    task <feature|bugfix|hotfix|release> <name>

 🛠  EXAMPLES
    1. ログイン画面の機能ブランチを開始
       $ task feature Login Screen
       Switched to a new branch 'feature/login-screen'
`
}
