package commands

import (
	"context"

	"github.com/kurobon/nexusvc/internal/git"
)

// Version is the simulator version reported by the version command.
const Version = "0.4.0"

func init() {
	git.RegisterCommand("version", func() git.Command { return &VersionCommand{} })
}

type VersionCommand struct{}

func (c *VersionCommand) Execute(ctx context.Context, s *git.Session, args []string) (string, error) {
	return "nexusvc version " + Version + " (simulated git)", nil
}

func (c *VersionCommand) Help() string {
	return `📘 VERSION (1)                                          NexusVC Manual

 💡 DESCRIPTION
    NexusVCシミュレータのバージョンを表示します。

 📋 SYNOPSIS
    version
`
}
