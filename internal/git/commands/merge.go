package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/kurobon/nexusvc/internal/git"
)

func init() {
	git.RegisterCommand("merge", func() git.Command { return &MergeCommand{} })
}

type MergeCommand struct{}

var _ git.Command = (*MergeCommand)(nil)

func (c *MergeCommand) Execute(ctx context.Context, s *git.Session, args []string) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("usage: merge <branch> | merge --abort")
	}
	switch args[1] {
	case "-h", "--help":
		return c.Help(), nil
	case "--abort":
		f, err := s.Engine.AbortMerge()
		if _, err := await(ctx, f, err); err != nil {
			return "", fatal(err)
		}
		return "Merge aborted.", nil
	}
	if strings.HasPrefix(args[1], "-") {
		return "", unknownOption(args[1])
	}

	f, err := s.Engine.Merge(args[1])
	res, err := await(ctx, f, err)
	if err != nil {
		return "", fatal(err)
	}
	if res.UpToDate {
		return "Already up to date.", nil
	}

	var sb strings.Builder
	for _, path := range res.Applied {
		sb.WriteString(fmt.Sprintf("Updating %s\n", path))
	}
	for _, path := range res.Conflicts {
		sb.WriteString(fmt.Sprintf("Auto-merging %s\nCONFLICT (content): Merge conflict in %s\n", path, path))
	}
	if len(res.Conflicts) > 0 {
		sb.WriteString("Automatic merge failed; fix conflicts and then commit the result.")
	} else {
		sb.WriteString("Automatic merge went well; run \"commit\" to conclude the merge.")
	}
	return sb.String(), nil
}

func (c *MergeCommand) Help() string {
	return `📘 MERGE (1)                                            NexusVC Manual

 💡 DESCRIPTION
    指定したブランチの変更を現在のブランチに取り込みます。
    両方のブランチで同じファイルが変更されているとコンフリクトになり、
    ファイルにコンフリクトマーカーが書き込まれます。
    マージはコミットするまで完了しません。

 📋 SYNOPSIS
    merge <branch>
    merge --abort

 ⚙️  COMMON OPTIONS
    --abort
        マージを中止し、マージ前の作業ツリーに戻します。

 🛠  EXAMPLES
    1. feature/ui-refresh を master に取り込む
       $ merge feature/ui-refresh
    2. コンフリクトを解消してマージを完了
       $ resolve app.js --theirs
       $ commit
`
}
