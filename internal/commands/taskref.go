package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"tasksync/internal/exitcode"
	"tasksync/internal/gateway"
	"tasksync/internal/store"
	"tasksync/internal/task"
)

// idPrefix marks a reference by server id rather than position.
const idPrefix = "id:"

// TaskRef represents a parsed task reference.
type TaskRef struct {
	Position int    // 1-based position in server order, 0 when ID is set
	ID       string // server id from an "id:<id>" reference
}

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ParseTaskRef parses a task reference from args.
//
// A reference is either all digits (a position as printed by list) or
// "id:<id>". Extra arguments are rejected.
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 {
		return TaskRef{}, ErrTaskRefRequired
	}
	if len(args) > 1 {
		return TaskRef{}, fmt.Errorf("unexpected argument: %s", args[1])
	}

	arg := args[0]
	if id, ok := strings.CutPrefix(arg, idPrefix); ok {
		if strings.TrimSpace(id) == "" {
			return TaskRef{}, ErrTaskRefRequired
		}
		return TaskRef{ID: id}, nil
	}

	if !isAllDigits(arg) {
		return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
	}
	num, err := strconv.Atoi(arg)
	if err != nil {
		return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
	}
	return TaskRef{Position: num}, nil
}

func (r TaskRef) String() string {
	if r.ID != "" {
		return idPrefix + r.ID
	}
	return strconv.Itoa(r.Position)
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// openStore loads the collection once for a one-shot command. The caller
// closes the store.
func openStore(ctx context.Context, gw gateway.Gateway) (*store.Store, error) {
	st := store.New(gw)
	if err := st.Load(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// resolve looks the reference up in a loaded store.
func resolve(st *store.Store, ref TaskRef) (task.Task, error) {
	if ref.ID != "" {
		t, ok := st.Get(ref.ID)
		if !ok {
			return task.Task{}, fmt.Errorf("task not found: %s", ref.ID)
		}
		return t, nil
	}
	t, ok := st.At(ref.Position)
	if !ok {
		return task.Task{}, fmt.Errorf("task number out of range: %d", ref.Position)
	}
	return t, nil
}

// loadRef parses args, loads the collection and resolves the reference.
// On failure it has already reported the error and returns a non-zero code.
func loadRef(ctx context.Context, gw gateway.Gateway, args []string, errOut io.Writer) (*store.Store, task.Task, int) {
	ref, err := ParseTaskRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return nil, task.Task{}, exitcode.UserError
	}

	st, err := openStore(ctx, gw)
	if err != nil {
		return nil, task.Task{}, ReportError(errOut, err)
	}

	t, err := resolve(st, ref)
	if err != nil {
		st.Close()
		fmt.Fprintf(errOut, "error: %v\n", err)
		return nil, task.Task{}, exitcode.UserError
	}
	return st, t, exitcode.Success
}

// ReportError prints err with a category prefix and returns its exit code.
func ReportError(errOut io.Writer, err error) int {
	code := exitcode.FromError(err)
	switch code {
	case exitcode.AuthError:
		fmt.Fprintf(errOut, "error: auth error: %v\n", err)
	case exitcode.BackendError:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
	default:
		fmt.Fprintf(errOut, "error: %v\n", err)
	}
	return code
}

func printOK(quiet bool, out io.Writer) int {
	if !quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
