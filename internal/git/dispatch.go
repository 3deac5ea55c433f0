package git

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Command defines the interface for all commands.
type Command interface {
	Execute(ctx context.Context, session *Session, args []string) (string, error)
	Help() string
}

// CommandFactory allows creating new instances of commands
type CommandFactory func() Command

var (
	registryMu sync.RWMutex
	registry   = make(map[string]CommandFactory)
)

// RegisterCommand registers a command factory
func RegisterCommand(name string, factory CommandFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Dispatch runs cmdName against session and records it in the reflog.
func Dispatch(ctx context.Context, session *Session, cmdName string, args []string) (string, error) {
	registryMu.RLock()
	factory, ok := registry[cmdName]
	registryMu.RUnlock()
	if !ok {
		return "", fmt.Errorf("'%s' is not a recognized command. See 'help'", cmdName)
	}

	out, err := factory().Execute(ctx, session, args)
	if err == nil {
		session.RecordReflog(strings.Join(args, " "))
	}
	return out, err
}

// GetSupportedCommands returns all registered commands, sorted.
func GetSupportedCommands() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	cmds := make([]string, 0, len(registry))
	for k := range registry {
		cmds = append(cmds, k)
	}
	sort.Strings(cmds)
	return cmds
}

// GetCommandHelp returns the help string for a command
func GetCommandHelp(name string) (string, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return "", fmt.Errorf("command not found")
	}
	return factory().Help(), nil
}

// ParseCommand parses the raw input string and returns the resolved command
// name and arguments. A leading "git" is optional. Quoted arguments keep
// their spaces. The returned args slice always starts with the resolved
// command name (args[0] == cmdName).
func ParseCommand(input string) (string, []string) {
	parts := splitArgs(input)
	if len(parts) == 0 {
		return "", nil
	}

	if parts[0] == "git" {
		if len(parts) == 1 {
			return "help", []string{"help"}
		}
		parts = parts[1:]
	}

	switch parts[0] {
	case "-v", "--version":
		return "version", []string{"version"}
	case "-h", "--help":
		return "help", []string{"help"}
	case "switch":
		// switch and checkout share the implementation
		return "checkout", append([]string{"checkout"}, parts[1:]...)
	}
	return parts[0], parts
}

// splitArgs splits on whitespace, honouring single and double quotes.
func splitArgs(input string) []string {
	var (
		out   []string
		cur   strings.Builder
		quote rune
		inArg bool
	)
	for _, r := range input {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			cur.WriteRune(r)
		case r == '\'' || r == '"':
			quote = r
			inArg = true
		case r == ' ' || r == '\t' || r == '\n':
			if inArg {
				out = append(out, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(r)
			inArg = true
		}
	}
	if inArg {
		out = append(out, cur.String())
	}
	return out
}
