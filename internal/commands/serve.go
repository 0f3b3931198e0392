package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"tasksync/internal/config"
	"tasksync/internal/devserver"
	"tasksync/internal/exitcode"
	"tasksync/internal/gateway"
)

func init() {
	Register(&ServeCmd{})
}

// ServeCmd runs the local tasks service until interrupted.
type ServeCmd struct {
	addr   string
	dbPath string
	ready  func(url string)
}

// SetReady registers a callback invoked with the listen URL (for testing).
func (c *ServeCmd) SetReady(fn func(url string)) {
	c.ready = fn
}

func (c *ServeCmd) Name() string       { return "serve" }
func (c *ServeCmd) Aliases() []string  { return nil }
func (c *ServeCmd) Synopsis() string   { return "Run the local tasks service" }
func (c *ServeCmd) Usage() string      { return "tasksync serve [--addr <host:port>] [--db <path>]" }
func (c *ServeCmd) NeedsGateway() bool { return false }

func (c *ServeCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.addr, "addr", "", "")
	fs.StringVar(&c.dbPath, "db", "", "")
}

func (c *ServeCmd) Run(ctx context.Context, cfg *config.Config, gw gateway.Gateway, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	addr := c.addr
	if addr == "" {
		addr = cfg.Settings.Server.Addr
	}
	dbPath := c.dbPath
	if dbPath == "" {
		if err := cfg.EnsureDir(); err != nil {
			fmt.Fprintf(errOut, "error: failed to create config directory: %v\n", err)
			return exitcode.UserError
		}
		dbPath = cfg.DBPath()
	}

	srv, err := devserver.StartEmbedded(dbPath, addr)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	defer srv.Stop()

	if !cfg.Quiet {
		fmt.Fprintf(out, "listening on %s\n", srv.URL())
	}
	if c.ready != nil {
		c.ready(srv.URL())
	}

	select {
	case <-ctx.Done():
	case <-srv.Done():
		fmt.Fprintln(errOut, "error: server stopped unexpectedly")
		return exitcode.BackendError
	}
	return exitcode.Success
}
