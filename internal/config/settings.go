package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Backend names accepted by the `backend` setting.
const (
	BackendHTTP        = "http"
	BackendGoogleTasks = "googletasks"
)

// Environment variables that override config.toml.
const (
	EnvBaseURL = "TASKSYNC_BASE_URL"
	EnvBackend = "TASKSYNC_BACKEND"
)

// Defaults applied when config.toml omits a key.
const (
	DefaultBaseURL    = "http://localhost:8080"
	DefaultTaskList   = "@default"
	DefaultServerAddr = "127.0.0.1:8080"

	// DefaultTimeout of zero leaves gateway calls unbounded.
	DefaultTimeout time.Duration = 0
)

// Duration is a time.Duration written as a Go duration string ("5s").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Settings is the content of config.toml.
type Settings struct {
	// Backend selects the gateway: "http" or "googletasks".
	Backend string `toml:"backend"`
	// BaseURL is the tasks service address for the http backend.
	BaseURL string `toml:"base_url"`
	// Timeout bounds every gateway call. Zero means no limit.
	Timeout Duration `toml:"timeout"`
	// TaskList is the Google Tasks list id for the googletasks backend.
	TaskList string `toml:"task_list"`
	// Telemetry enables crash reporting when SentryDSN is also set.
	Telemetry bool `toml:"telemetry"`
	// SentryDSN is the crash reporting endpoint.
	SentryDSN string `toml:"sentry_dsn"`
	// Server configures the `serve` command.
	Server ServerSettings `toml:"server"`
}

// ServerSettings is the [server] table.
type ServerSettings struct {
	Addr   string `toml:"addr"`
	DBPath string `toml:"db_path"`
}

// DefaultSettings returns the settings used when config.toml is absent.
func DefaultSettings() Settings {
	return Settings{
		Backend:  BackendHTTP,
		BaseURL:  DefaultBaseURL,
		Timeout:  Duration{DefaultTimeout},
		TaskList: DefaultTaskList,
		Server: ServerSettings{
			Addr: DefaultServerAddr,
		},
	}
}

// LoadSettings reads path over the defaults. A missing file is not an error.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("read %s: %w", path, err)
	}

	md, err := toml.Decode(string(data), &s)
	if err != nil {
		return DefaultSettings(), fmt.Errorf("parse %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return DefaultSettings(), fmt.Errorf("parse %s: unknown key %q", path, undecoded[0].String())
	}
	return s, nil
}

// ApplyEnv overrides settings from the environment.
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		s.BaseURL = v
	}
	if v, ok := lookup(EnvBackend); ok && v != "" {
		s.Backend = v
	}
}

// Validate reports settings that cannot be used.
func (s Settings) Validate() error {
	switch s.Backend {
	case BackendHTTP, BackendGoogleTasks:
	default:
		return fmt.Errorf("unknown backend %q (want %q or %q)", s.Backend, BackendHTTP, BackendGoogleTasks)
	}
	if s.Timeout.Duration < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}

// TelemetryEnabled reports whether crash reporting should be initialized.
func (s Settings) TelemetryEnabled() bool {
	return s.Telemetry && s.SentryDSN != ""
}
