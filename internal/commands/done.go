package commands

import (
	"context"
	"flag"
	"io"

	"tasksync/internal/config"
	"tasksync/internal/gateway"
)

func init() {
	Register(&DoneCmd{})
	Register(&UndoneCmd{})
}

// DoneCmd implements the done command.
type DoneCmd struct{}

func (c *DoneCmd) Name() string       { return "done" }
func (c *DoneCmd) Aliases() []string  { return nil }
func (c *DoneCmd) Synopsis() string   { return "Mark a task completed" }
func (c *DoneCmd) Usage() string      { return "tasksync done <ref>" }
func (c *DoneCmd) NeedsGateway() bool { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, gw gateway.Gateway, args []string, out, errOut io.Writer) int {
	return runSetCompleted(ctx, cfg, gw, true, args, out, errOut)
}

// UndoneCmd reopens a completed task.
type UndoneCmd struct{}

func (c *UndoneCmd) Name() string       { return "undone" }
func (c *UndoneCmd) Aliases() []string  { return []string{"reopen"} }
func (c *UndoneCmd) Synopsis() string   { return "Mark a task open again" }
func (c *UndoneCmd) Usage() string      { return "tasksync undone <ref>" }
func (c *UndoneCmd) NeedsGateway() bool { return true }

func (c *UndoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *UndoneCmd) Run(ctx context.Context, cfg *config.Config, gw gateway.Gateway, args []string, out, errOut io.Writer) int {
	return runSetCompleted(ctx, cfg, gw, false, args, out, errOut)
}

// runSetCompleted is the shared implementation for done and undone.
func runSetCompleted(ctx context.Context, cfg *config.Config, gw gateway.Gateway, completed bool, args []string, out, errOut io.Writer) int {
	st, t, code := loadRef(ctx, gw, args, errOut)
	if st == nil {
		return code
	}
	defer st.Close()

	if err := st.SetCompleted(ctx, t.ID, completed); err != nil {
		return ReportError(errOut, err)
	}
	return printOK(cfg.Quiet, out)
}
