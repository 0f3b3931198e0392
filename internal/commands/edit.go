package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/gateway"
	"tasksync/internal/output"
	"tasksync/internal/session"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd implements the edit command. Only the fields given as flags change.
type EditCmd struct {
	title       optionalString
	description optionalString
	due         optionalString
	clearDue    bool
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Edit a task" }
func (c *EditCmd) Usage() string {
	return "tasksync edit [--title <text>] [--description <text>] [--due <YYYY-MM-DD> | --clear-due] <ref>"
}
func (c *EditCmd) NeedsGateway() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.Var(&c.title, "title", "")
	fs.Var(&c.title, "t", "")
	fs.Var(&c.description, "description", "")
	fs.Var(&c.description, "d", "")
	fs.Var(&c.due, "due", "")
	fs.BoolVar(&c.clearDue, "clear-due", false, "")
}

// SetTitle sets the title flag (for testing).
func (c *EditCmd) SetTitle(title string) { _ = c.title.Set(title) }

// SetDescription sets the description flag (for testing).
func (c *EditCmd) SetDescription(description string) { _ = c.description.Set(description) }

// SetDue sets the due flag (for testing).
func (c *EditCmd) SetDue(due string) { _ = c.due.Set(due) }

// SetClearDue sets the clear-due flag (for testing).
func (c *EditCmd) SetClearDue(clear bool) { c.clearDue = clear }

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, gw gateway.Gateway, args []string, out, errOut io.Writer) int {
	if c.due.set && c.clearDue {
		fmt.Fprintln(errOut, "error: cannot use both --due and --clear-due")
		return exitcode.UserError
	}
	if !c.title.set && !c.description.set && !c.due.set && !c.clearDue {
		fmt.Fprintln(errOut, "error: nothing to edit")
		return exitcode.UserError
	}

	var due *time.Time
	if c.due.set {
		d, err := output.ParseDate(c.due.value)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		due = &d
	}

	st, t, code := loadRef(ctx, gw, args, errOut)
	if st == nil {
		return code
	}
	defer st.Close()

	es := session.NewEditSession(t.ID, st)
	if err := es.StartEdit(); err != nil {
		return ReportError(errOut, err)
	}
	if c.title.set {
		_ = es.SetTitle(c.title.value)
	}
	if c.description.set {
		_ = es.SetDescription(c.description.value)
	}
	if c.due.set || c.clearDue {
		_ = es.SetDueDate(due)
	}

	if err := es.Save(ctx); err != nil {
		if errors.Is(err, session.ErrTitleRequired) {
			fmt.Fprintln(errOut, "error: title required")
			return exitcode.UserError
		}
		return ReportError(errOut, err)
	}
	return printOK(cfg.Quiet, out)
}

// optionalString is a flag.Value that records whether it was given, so an
// explicit empty value can be told apart from an absent flag.
type optionalString struct {
	value string
	set   bool
}

func (s *optionalString) String() string { return s.value }

func (s *optionalString) Set(v string) error {
	s.value = v
	s.set = true
	return nil
}
