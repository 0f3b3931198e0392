package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/gateway"
	"tasksync/internal/output"
	"tasksync/internal/session"
	"tasksync/internal/store"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	description string
	due         string
}

// SetDescription sets the description flag (for testing).
func (c *AddCmd) SetDescription(description string) {
	c.description = description
}

// SetDue sets the due date flag (for testing).
func (c *AddCmd) SetDue(due string) {
	c.due = due
}

func (c *AddCmd) Name() string       { return "add" }
func (c *AddCmd) Aliases() []string  { return []string{"create"} }
func (c *AddCmd) Synopsis() string   { return "Create a task" }
func (c *AddCmd) Usage() string      { return "tasksync add [--description <text>] [--due <YYYY-MM-DD>] <title...>" }
func (c *AddCmd) NeedsGateway() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.description, "description", "", "")
	fs.StringVar(&c.description, "d", "", "")
	fs.StringVar(&c.due, "due", "", "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, gw gateway.Gateway, args []string, out, errOut io.Writer) int {
	title := strings.Join(args, " ")
	if strings.TrimSpace(title) == "" {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}

	st := store.New(gw)
	defer st.Close()

	cs := session.NewCreationSession(gw, st)
	cs.SetTitle(title)
	cs.SetDescription(c.description)
	if c.due != "" {
		due, err := output.ParseDate(c.due)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		cs.SetDueDate(&due)
	}

	// An insert failure after a confirmed create still leaves the task on
	// the server.
	created, err := cs.Submit(ctx)
	if err != nil && !created.Persisted() {
		if errors.Is(err, session.ErrTitleRequired) {
			fmt.Fprintln(errOut, "error: title required")
			return exitcode.UserError
		}
		return ReportError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "ok %s\n", created.ID)
	}
	return exitcode.Success
}
