package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/gateway"
	"tasksync/internal/tui"
)

func init() {
	Register(&TuiCmd{})
}

// TuiCmd opens the interactive view.
type TuiCmd struct{}

func (c *TuiCmd) Name() string       { return "tui" }
func (c *TuiCmd) Aliases() []string  { return []string{"ui"} }
func (c *TuiCmd) Synopsis() string   { return "Open the interactive view" }
func (c *TuiCmd) Usage() string      { return "tasksync tui" }
func (c *TuiCmd) NeedsGateway() bool { return true }

func (c *TuiCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *TuiCmd) Run(ctx context.Context, cfg *config.Config, gw gateway.Gateway, args []string, out, errOut io.Writer) int {
	if err := tui.Run(ctx, gw); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	return exitcode.Success
}
