package driver

import (
	"bytes"
	"context"
	"strings"
	"time"

	"opsconsole/cmd/config"
	"opsconsole/internal/cli"
	"opsconsole/internal/console"
	"opsconsole/internal/infra/storage"
	"opsconsole/internal/infra/tenantclient"
)

// ConsoleDriver runs console commands the way a user types them, sharing
// one session storage between invocations.
type ConsoleDriver struct {
	sandbox *Sandbox
	backend *storage.MemoryBackend
	store   storage.Storage
	history *console.History
	session config.SessionConfig
}

func NewConsoleDriver(sandbox *Sandbox) *ConsoleDriver {
	backend := storage.NewMemoryBackend()
	return &ConsoleDriver{
		sandbox: sandbox,
		backend: backend,
		store:   backend.Open(),
		history: &console.History{},
		session: config.SessionConfig{IdleTimeout: 15 * time.Minute, WarningDuration: time.Minute},
	}
}

func (d *ConsoleDriver) Close() {
	d.backend.Close()
}

func (d *ConsoleDriver) Storage() storage.Storage {
	return d.store
}

func (d *ConsoleDriver) History() *console.History {
	return d.history
}

// SetIdleTimeout shortens the idle timers of later invocations.
func (d *ConsoleDriver) SetIdleTimeout(idle, warning time.Duration) {
	d.session = config.SessionConfig{IdleTimeout: idle, WarningDuration: warning}
}

// Run executes one command line and returns what it printed.
func (d *ConsoleDriver) Run(ctx context.Context, input string, args ...string) (string, error) {
	out := &bytes.Buffer{}
	app := cli.NewApp(d.config())
	app.In = strings.NewReader(input)
	app.Out = out
	app.Storage = d.store
	app.Navigator = d.history
	err := app.Execute(ctx, args...)
	return out.String(), err
}

func (d *ConsoleDriver) config() config.AppConfig {
	return config.AppConfig{
		General: config.GeneralConfig{LogLevel: "error"},
		API: config.APIConfig{
			BaseURLTemplate: d.sandbox.BaseURLTemplate(),
			RefreshPath:     "/auth/token/refresh/",
			Timeout:         10 * time.Second,
			RateLimit:       50,
			Burst:           10,
		},
		Session: d.session,
		Storage: config.StorageConfig{Backend: cli.BackendMemory},
		Options: config.OptionsConfig{CacheTTL: time.Minute, RefreshSchedule: "*/5 * * * *"},
	}
}

// Client is the tenant client of the stored session, for checks the
// console output does not show directly.
func (d *ConsoleDriver) Client(ctx context.Context) (*tenantclient.Client, error) {
	app := cli.NewApp(d.config())
	app.Storage = d.store
	app.Navigator = &console.History{}
	return app.Client(ctx)
}
