package commands

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/gateway"
	"tasksync/internal/session"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct {
	yes bool
	in  io.Reader
}

// SetInput replaces stdin for the confirmation prompt (for testing).
func (c *RmCmd) SetInput(r io.Reader) {
	c.in = r
}

// SetYes skips the confirmation prompt (for testing).
func (c *RmCmd) SetYes(yes bool) {
	c.yes = yes
}

func (c *RmCmd) Name() string       { return "rm" }
func (c *RmCmd) Aliases() []string  { return []string{"delete"} }
func (c *RmCmd) Synopsis() string   { return "Delete a task" }
func (c *RmCmd) Usage() string      { return "tasksync rm [--yes] <ref>" }
func (c *RmCmd) NeedsGateway() bool { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.yes, "yes", false, "")
	fs.BoolVar(&c.yes, "y", false, "")
}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, gw gateway.Gateway, args []string, out, errOut io.Writer) int {
	st, t, code := loadRef(ctx, gw, args, errOut)
	if st == nil {
		return code
	}
	defer st.Close()

	es := session.NewEditSession(t.ID, st)
	if err := es.RequestDelete(); err != nil {
		return ReportError(errOut, err)
	}

	if !c.yes && !c.confirm(t.Title, errOut) {
		_ = es.CancelDelete()
		if !cfg.Quiet {
			fmt.Fprintln(out, "cancelled")
		}
		return exitcode.Success
	}

	if err := es.ConfirmDelete(ctx); err != nil {
		return ReportError(errOut, err)
	}
	return printOK(cfg.Quiet, out)
}

// confirm asks on errOut and reads one answer line. Anything but y/yes is no.
func (c *RmCmd) confirm(title string, prompt io.Writer) bool {
	in := c.in
	if in == nil {
		in = os.Stdin
	}
	fmt.Fprintf(prompt, "delete %q? [y/N] ", title)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
