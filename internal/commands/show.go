package commands

import (
	"context"
	"flag"
	"io"
	"time"

	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/gateway"
	"tasksync/internal/output"
)

func init() {
	Register(&ShowCmd{})
}

// ShowCmd prints every field of one task.
type ShowCmd struct {
	now func() time.Time
}

// SetClock fixes the time used for relative dates (for testing).
func (c *ShowCmd) SetClock(now func() time.Time) {
	c.now = now
}

func (c *ShowCmd) Name() string       { return "show" }
func (c *ShowCmd) Aliases() []string  { return nil }
func (c *ShowCmd) Synopsis() string   { return "Show task details" }
func (c *ShowCmd) Usage() string      { return "tasksync show <ref>" }
func (c *ShowCmd) NeedsGateway() bool { return true }

func (c *ShowCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ShowCmd) Run(ctx context.Context, cfg *config.Config, gw gateway.Gateway, args []string, out, errOut io.Writer) int {
	st, t, code := loadRef(ctx, gw, args, errOut)
	if st == nil {
		return code
	}
	defer st.Close()

	now := time.Now
	if c.now != nil {
		now = c.now
	}
	output.FormatDetail(out, t, now())
	return exitcode.Success
}
