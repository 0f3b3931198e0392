package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/gateway"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string       { return "help" }
func (c *HelpCmd) Aliases() []string  { return nil }
func (c *HelpCmd) Synopsis() string   { return "Print usage" }
func (c *HelpCmd) Usage() string      { return "tasksync help" }
func (c *HelpCmd) NeedsGateway() bool { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, gw gateway.Gateway, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	fmt.Fprintln(out, "\nCommands:")
	for _, cmd := range DefaultRegistry.All() {
		name := cmd.Name()
		if aliases := cmd.Aliases(); len(aliases) > 0 {
			name += " (" + strings.Join(aliases, ", ") + ")"
		}
		fmt.Fprintf(out, "  %-18s %s\n", name, cmd.Synopsis())
	}
	return exitcode.Success
}

const helpText = `Usage:
  tasksync                                   List all tasks
  tasksync list [common flags] [--open]      List tasks, numbered by position
  tasksync add [common flags] [--description <text>] [--due <YYYY-MM-DD>] <title...>
  tasksync show [common flags] <ref>
  tasksync edit [common flags] [--title <text>] [--description <text>]
                [--due <YYYY-MM-DD> | --clear-due] <ref>
  tasksync done [common flags] <ref>
  tasksync undone [common flags] <ref>
  tasksync rm [common flags] [--yes] <ref>
  tasksync tui [common flags]
  tasksync serve [common flags] [--addr <host:port>] [--db <path>]
  tasksync login [common flags]
  tasksync logout [common flags]
  tasksync help
  tasksync version

A <ref> is a task number as printed by list, or id:<task-id>.

Common flags:
  --config <dir>      Override config directory
  --quiet             Suppress informational output
  --debug             Print debug logs to stderr
  --backend <name>    Task backend: http or googletasks
  --base-url <url>    Tasks service address for the http backend
`
