// Package cli parses the command line and dispatches to commands.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"tasksync/internal/commands"
	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/gateway"
	"tasksync/internal/log"
	"tasksync/internal/sentry"
)

// GatewayFactory creates a Gateway from config.
// Used to inject the backend during dispatch.
type GatewayFactory func(ctx context.Context, cfg *config.Config) (gateway.Gateway, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  GatewayFactory

	// OnConfig, if set, runs once the config is resolved and before the
	// command. main uses it to set up logging and crash reporting.
	OnConfig func(cfg *config.Config)
}

// NewDispatcher creates a new dispatcher with the given registry and gateway factory.
func NewDispatcher(registry *commands.Registry, factory GatewayFactory) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> dispatch to "list" command with no args
	if len(args) == 0 {
		return d.dispatch(ctx, "list", nil, out, errOut)
	}

	cmdName := args[0]

	// If first token starts with -, it's an error (flags require a command)
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	return d.dispatch(ctx, cmdName, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

// commonFlags are accepted by every command.
type commonFlags struct {
	configDir string
	quiet     bool
	debug     bool
	baseURL   string
	backend   string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configDir, "config", "", "")
	fs.BoolVar(&c.quiet, "quiet", false, "")
	fs.BoolVar(&c.quiet, "q", false, "")
	fs.BoolVar(&c.debug, "debug", false, "")
	fs.StringVar(&c.baseURL, "base-url", "", "")
	fs.StringVar(&c.backend, "backend", "", "")
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	// Create flag set with custom error handling
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves

	var common commonFlags
	common.register(fs)

	// Register command-specific flags
	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", flagErrorMessage(err))
		return exitcode.UserError
	}

	// Check if first positional arg starts with - (should have been parsed as flag)
	positionalArgs := fs.Args()
	if len(positionalArgs) > 0 && strings.HasPrefix(positionalArgs[0], "-") {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positionalArgs[0])
		return exitcode.UserError
	}

	cfg, err := d.loadConfig(common)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}

	if d.OnConfig != nil {
		d.OnConfig(cfg)
	}
	if cfg.Debug {
		log.SetOutput(errOut, true)
	}
	sentry.SetContext(cfg.Settings.Backend, cfg.Settings.BaseURL, cmd.Name())

	var gw gateway.Gateway
	if cmd.NeedsGateway() {
		if code, ok := preflight(cfg, errOut); !ok {
			return code
		}
		if d.factory == nil {
			fmt.Fprintln(errOut, "error: no backend available")
			return exitcode.UserError
		}
		gw, err = d.factory(ctx, cfg)
		if err != nil {
			return commands.ReportError(errOut, err)
		}
	}

	return cmd.Run(ctx, cfg, gw, positionalArgs, out, errOut)
}

// loadConfig reads the config directory and applies the common flags on top
// of the file and environment.
func (d *Dispatcher) loadConfig(common commonFlags) (*config.Config, error) {
	cfg, err := config.New(common.configDir)
	if err != nil {
		return nil, err
	}
	cfg.Quiet = common.quiet
	cfg.Debug = common.debug
	if common.baseURL != "" {
		cfg.Settings.BaseURL = common.baseURL
	}
	if common.backend != "" {
		cfg.Settings.Backend = common.backend
	}
	if err := cfg.Settings.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// preflight reports missing Google credentials before any backend call.
func preflight(cfg *config.Config, errOut io.Writer) (int, bool) {
	if cfg.Settings.Backend != config.BackendGoogleTasks {
		return exitcode.Success, true
	}
	if !cfg.HasOAuthClient() {
		fmt.Fprintf(errOut, "error: %s not found in %s\n", config.OAuthClientFile, cfg.Dir)
		return exitcode.AuthError, false
	}
	if !cfg.HasToken() {
		fmt.Fprintln(errOut, "error: not logged in (run: tasksync login)")
		return exitcode.AuthError, false
	}
	return exitcode.Success, true
}

// flagErrorMessage rewrites flag package errors into the CLI's wording.
func flagErrorMessage(err error) string {
	errStr := err.Error()

	// Check for missing flag value
	if strings.HasPrefix(errStr, "flag needs an argument:") {
		flagName := strings.TrimSpace(strings.TrimPrefix(errStr, "flag needs an argument:"))
		return "flag needs an argument: " + flagName
	}

	// Check for unknown flag
	if strings.HasPrefix(errStr, "flag provided but not defined:") {
		return "unknown flag: " + strings.TrimPrefix(errStr, "flag provided but not defined: ")
	}

	return errStr
}
