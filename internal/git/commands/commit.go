package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kurobon/nexusvc/internal/git"
)

func init() {
	git.RegisterCommand("commit", func() git.Command { return &CommitCommand{} })
}

type CommitCommand struct{}

var _ git.Command = (*CommitCommand)(nil)

type CommitOptions struct {
	Messages     []string
	Amend        bool
	All          bool
	Push         bool
	ForceSubject bool
	Files        []string
}

func (c *CommitCommand) Execute(ctx context.Context, s *git.Session, args []string) (string, error) {
	opts, err := c.parseArgs(args)
	if err != nil {
		if errors.Is(err, errHelpRequested) {
			return c.Help(), nil
		}
		return "", err
	}

	files := opts.Files
	if opts.All {
		st, err := s.Engine.Stageable()
		if err != nil && !errors.Is(err, git.ErrCleanWorkingTree) {
			return "", err
		}
		files = st.Files
	}

	cf, pf, err := s.Engine.Commit(git.CommitOptions{
		Message:          strings.Join(opts.Messages, "\n\n"),
		Files:            files,
		Amend:            opts.Amend,
		Push:             opts.Push,
		AllowLongSubject: opts.ForceSubject,
	})
	switch {
	case errors.Is(err, git.ErrSubjectTooLong):
		return "", fmt.Errorf("%w\n(use --force-subject to keep it)", err)
	case errors.Is(err, git.ErrNothingToCommit):
		return "", fmt.Errorf("%w (use \"commit <file>...\" or \"commit --all\")", err)
	case err != nil:
		return "", err
	}

	res, err := cf.Wait(ctx)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s %s] %s\n", res.Branch, short(res.Commit.ID), git.Subject(res.Commit.Message)))
	if n := len(files); n > 0 {
		sb.WriteString(fmt.Sprintf(" %d file%s changed\n", n, plural(n)))
	}
	if pf != nil {
		pushed, err := pf.Wait(ctx)
		if err != nil {
			return sb.String(), err
		}
		sb.WriteString(pushed.String() + "\n")
	}
	return sb.String(), nil
}

func (c *CommitCommand) parseArgs(args []string) (*CommitOptions, error) {
	opts := &CommitOptions{}
	cmdArgs := args[1:]
	for i := 0; i < len(cmdArgs); i++ {
		arg := cmdArgs[i]
		switch {
		case arg == "-m" || arg == "--message":
			if i+1 >= len(cmdArgs) {
				return nil, fmt.Errorf("error: switch `m' requires a value")
			}
			i++
			opts.Messages = append(opts.Messages, cmdArgs[i])
		case strings.HasPrefix(arg, "--message="):
			opts.Messages = append(opts.Messages, strings.TrimPrefix(arg, "--message="))
		case arg == "--amend":
			opts.Amend = true
		case arg == "-a" || arg == "--all":
			opts.All = true
		case arg == "--push":
			opts.Push = true
		case arg == "--force-subject":
			opts.ForceSubject = true
		case arg == "-am":
			opts.All = true
			if i+1 >= len(cmdArgs) {
				return nil, fmt.Errorf("error: switch `m' requires a value")
			}
			i++
			opts.Messages = append(opts.Messages, cmdArgs[i])
		case arg == "-h" || arg == "--help":
			return nil, errHelpRequested
		case arg == "--":
		case strings.HasPrefix(arg, "-"):
			return nil, unknownOption(arg)
		default:
			opts.Files = append(opts.Files, arg)
		}
	}
	if opts.All && len(opts.Files) > 0 {
		return nil, fmt.Errorf("fatal: paths '%s ...' with --all does not make sense", opts.Files[0])
	}
	return opts, nil
}

func (c *CommitCommand) Help() string {
	return `📘 COMMIT (1)                                           NexusVC Manual

 💡 DESCRIPTION
    選択したファイルの変更を新しいコミットとして記録します。
    ステージングはありません。コミットに含めるファイルを直接指定します。
    マージ中はファイル指定なしでもマージコミットを作成できます。
    件名 (1行目) は50文字以内を推奨します。

 📋 SYNOPSIS
    commit -m <message> [<file>...]
    commit -a -m <message>
    commit --amend [-m <message>]

 ⚙️  COMMON OPTIONS
    -m <message>
        コミットメッセージを指定します。複数指定すると段落として連結します。

    -a, --all
        変更のある全てのファイルをコミットします。

    --amend
        直前のコミットを置き換えます。

    --push
        コミット後、続けて origin へプッシュします。

    --force-subject
        50文字を超える件名をそのまま使います。

 🛠  EXAMPLES
    1. service.js だけをコミット
       $ commit -m "fix: retry connection" service.js
    2. コンフリクト解消後にマージを完了
       $ commit
`
}
