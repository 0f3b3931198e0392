// Package main is the entry point for the tasksync CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tasksync/internal/cli"
	"tasksync/internal/commands"
	"tasksync/internal/config"
	"tasksync/internal/log"
	"tasksync/internal/sentry"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Create context that cancels on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer sentry.Flush()
	defer sentry.RecoverPanic()
	defer log.Close()

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, cli.NewGateway)
	dispatcher.OnConfig = func(cfg *config.Config) {
		// Non-fatal: a missing log file or sentry must not block the command
		if err := sentry.Init(cfg.Settings.SentryDSN, commands.Version, cfg.Settings.TelemetryEnabled()); err != nil {
			fmt.Fprintf(os.Stderr, "warning: crash reporting disabled: %v\n", err)
		}
		if err := log.Initialize(log.DefaultPath(), cfg.Debug); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}

	return dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}
