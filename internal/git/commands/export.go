package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/kurobon/nexusvc/internal/git"
)

func init() {
	git.RegisterCommand("export", func() git.Command { return &ExportCommand{} })
}

// ExportCommand replays the simulated history into a real in-memory git
// repository and prints its log.
type ExportCommand struct{}

var _ git.Command = (*ExportCommand)(nil)

func (c *ExportCommand) Execute(_ context.Context, s *git.Session, args []string) (string, error) {
	if len(args) > 1 && (args[1] == "-h" || args[1] == "--help") {
		return c.Help(), nil
	}
	res, err := s.Engine.Export()
	if err != nil {
		return "", fatal(err)
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Exported %d commit%s\n", len(res.Hashes), plural(len(res.Hashes))))
	for _, line := range res.Log {
		sb.WriteString(line + "\n")
	}
	return sb.String(), nil
}

func (c *ExportCommand) Help() string {
	return `📘 EXPORT (1)                                           NexusVC Manual

 💡 DESCRIPTION
    シミュレーションの履歴を本物の Git リポジトリ (メモリ上) に書き出し、
    現在のブランチのログを表示します。
    ブランチとタグも再現されます。コミット ID は Git のハッシュになります。

 📋 SYNOPSIS
    export
`
}
