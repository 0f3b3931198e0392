package cli

import (
	"context"
	"fmt"

	"tasksync/internal/backend/googletasks"
	"tasksync/internal/backend/httpapi"
	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/gateway"
)

// NewGateway builds the gateway selected by cfg.Settings.Backend.
func NewGateway(ctx context.Context, cfg *config.Config) (gateway.Gateway, error) {
	switch cfg.Settings.Backend {
	case config.BackendGoogleTasks:
		gw, err := googletasks.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", exitcode.ErrAuth, err)
		}
		return gw, nil
	case config.BackendHTTP, "":
		return httpapi.New(cfg.Settings.BaseURL, httpapi.WithTimeout(cfg.Settings.Timeout.Duration))
	default:
		return nil, fmt.Errorf("unknown backend: %s", cfg.Settings.Backend)
	}
}
