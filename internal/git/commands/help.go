package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kurobon/nexusvc/internal/git"
)

func init() {
	git.RegisterCommand("help", func() git.Command { return &HelpCommand{} })
}

type HelpCommand struct{}

var _ git.Command = (*HelpCommand)(nil)

type cmdMeta struct {
	Category string
	Desc     string
}

const (
	CatWork    = "Work on the current change"
	CatHistory = "Examine the history and state"
	CatGrow    = "Grow, mark and tweak your common history"
	CatCollab  = "Collaborate"
	CatUtil    = "Utilities"
)

var commandMetadata = map[string]cmdMeta{
	"edit":    {CatWork, "Write content to a working tree file"},
	"restore": {CatWork, "Discard working tree changes to a file"},
	"rm":      {CatWork, "Remove files from the working tree"},
	"resolve": {CatWork, "Mark a conflicted file as resolved"},

	"diff":   {CatHistory, "Show working tree changes against HEAD"},
	"log":    {CatHistory, "Show commit logs"},
	"reflog": {CatHistory, "Show the commands run in this session"},
	"status": {CatHistory, "Show the working tree status"},

	"branch":      {CatGrow, "List or create branches"},
	"checkout":    {CatGrow, "Switch branches"},
	"cherry-pick": {CatGrow, "Apply the changes introduced by an existing commit"},
	"commit":      {CatGrow, "Record changes to the repository"},
	"merge":       {CatGrow, "Join two development histories together"},
	"reset":       {CatGrow, "Reset current HEAD to the specified state"},
	"revert":      {CatGrow, "Revert an existing commit"},
	"task":        {CatGrow, "Start a typed work branch"},

	"pull":   {CatCollab, "Integrate changes from origin (simulated)"},
	"push":   {CatCollab, "Update remote refs (simulated)"},
	"remote": {CatCollab, "Manage set of tracked repositories"},

	"export":  {CatUtil, "Replay the history into a real git repository"},
	"help":    {CatUtil, "Display help information"},
	"version": {CatUtil, "Show version info"},
}

var categoryOrder = []string{CatWork, CatHistory, CatGrow, CatCollab, CatUtil}

func (c *HelpCommand) Execute(_ context.Context, _ *git.Session, args []string) (string, error) {
	if len(args) > 1 {
		sub := args[1]
		if sub == "switch" {
			sub = "checkout"
		}
		text, err := git.GetCommandHelp(sub)
		if err != nil {
			return fmt.Sprintf("help: unknown command '%s'", args[1]), nil
		}
		return text, nil
	}

	grouped := make(map[string][]string)
	maxLen := 0
	for _, cmd := range git.GetSupportedCommands() {
		meta, ok := commandMetadata[cmd]
		if !ok {
			continue
		}
		grouped[meta.Category] = append(grouped[meta.Category], cmd)
		maxLen = max(maxLen, len(cmd))
	}

	var sb strings.Builder
	sb.WriteString("usage: [git] [--version] [--help] <command> [<args>]\n\n")
	sb.WriteString("These are the commands available in this simulation:\n")
	for _, cat := range categoryOrder {
		list := grouped[cat]
		if len(list) == 0 {
			continue
		}
		sort.Strings(list)
		sb.WriteString(fmt.Sprintf("\n%s:\n", cat))
		for _, cmd := range list {
			padding := strings.Repeat(" ", maxLen-len(cmd)+3)
			sb.WriteString(fmt.Sprintf("   %s%s%s\n", cmd, padding, commandMetadata[cmd].Desc))
		}
	}
	sb.WriteString("\nType 'help <command>' for more information about a specific command.")
	return sb.String(), nil
}

func (c *HelpCommand) Help() string {
	return `📘 HELP (1)                                             NexusVC Manual

 💡 DESCRIPTION
    コマンドの使い方やオプションを確認します。
    困った時はまずこれを使ってみてください。
    引数なしで実行すると、利用可能なコマンド一覧を表示します。

 📋 SYNOPSIS
    help [<command>]

 🛠  EXAMPLES
    1. コマンドの使い方を調べる
       $ help commit
`
}
