package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"opsconsole/cmd/config"
	"opsconsole/internal/auth"
	"opsconsole/internal/console"
	"opsconsole/internal/infra/storage"
	"opsconsole/internal/infra/tenantclient"
	"opsconsole/internal/logger"
	"opsconsole/internal/session"
	"opsconsole/internal/shared_kernel/domain"
)

var (
	ErrNoTenant       = errors.New("no tenant: pass --tenant or log in first")
	ErrUnknownBackend = errors.New("unknown storage backend")
)

const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// App carries the configuration and the collaborators shared by every
// command of one invocation.
type App struct {
	Config    config.AppConfig
	In        io.Reader
	Out       io.Writer
	Storage   storage.Storage
	Navigator console.Navigator
	Clock     session.Clock
	// InstallLogger routes slog through zap before the command runs.
	InstallLogger bool

	tenant  string
	closers []func()
}

func NewApp(cfg config.AppConfig) *App {
	return &App{Config: cfg, In: os.Stdin, Out: os.Stdout}
}

// Execute runs the command line args and releases what the command opened.
func (a *App) Execute(ctx context.Context, args ...string) error {
	defer a.close()

	root := NewRootCmd(a)
	root.SetArgs(args)
	root.SetOut(a.Out)
	root.SetErr(a.Out)
	return root.ExecuteContext(ctx)
}

func (a *App) prepare() error {
	if a.InstallLogger {
		flush, err := logger.Install(a.Config.General.LogLevel, a.Config.General.LogFormat)
		if err != nil {
			return fmt.Errorf("installing logger: %w", err)
		}
		a.closers = append(a.closers, flush)
	}
	if a.Out == nil {
		a.Out = io.Discard
	}
	if a.In == nil {
		a.In = strings.NewReader("")
	}
	if a.Storage == nil {
		store, closeFn, err := OpenStorage(a.Config)
		if err != nil {
			return err
		}
		a.Storage = store
		a.closers = append(a.closers, closeFn)
	}
	if a.Navigator == nil {
		a.Navigator = console.NewPrinter(a.Out)
	}
	if a.Clock == nil {
		a.Clock = session.SystemClock{}
	}
	return nil
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// OpenStorage opens the backend named by the storage section.
func OpenStorage(cfg config.AppConfig) (storage.Storage, func(), error) {
	switch strings.ToLower(cfg.Storage.Backend) {
	case BackendMemory:
		backend := storage.NewMemoryBackend()
		return backend.Open(), backend.Close, nil
	case BackendRedis:
		store, err := storage.NewRedis(&storage.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
			Channel:  cfg.Redis.Channel,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	case "", BackendFile:
		store, err := storage.NewFile(os.ExpandEnv(cfg.Storage.Path))
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Storage.Backend)
	}
}

// Tenant is the --tenant flag, else the tenant of the stored session.
func (a *App) Tenant(ctx context.Context) (domain.TenantSchema, error) {
	if a.tenant != "" {
		tenant := domain.TenantSchema(strings.ToLower(a.tenant))
		if err := tenant.Validate(); err != nil {
			return "", err
		}
		return tenant, nil
	}

	tenant, found, err := storage.GetJSON[domain.TenantSchema](ctx, a.Storage, storage.KeyTenantSchemaName)
	if err != nil {
		return "", fmt.Errorf("reading stored tenant: %w", err)
	}
	if !found || tenant.Validate() != nil {
		return "", ErrNoTenant
	}
	return tenant, nil
}

func (a *App) clientConfig() tenantclient.Config {
	return tenantclient.Config{
		BaseURLTemplate: a.Config.API.BaseURLTemplate,
		RefreshPath:     a.Config.API.RefreshPath,
		Timeout:         a.Config.API.Timeout,
	}
}

func (a *App) clientOptions() []tenantclient.Option {
	opts := []tenantclient.Option{
		tenantclient.WithRateLimit(a.Config.API.RateLimit, a.Config.API.Burst),
	}
	if a.Config.API.Timeout > 0 {
		opts = append(opts, tenantclient.WithHTTPClient(&http.Client{Timeout: a.Config.API.Timeout}))
	}
	return opts
}

func (a *App) Flow(ctx context.Context) (*auth.Flow, error) {
	tenant, err := a.Tenant(ctx)
	if err != nil {
		return nil, err
	}
	return auth.NewFlowBuilder().
		WithConfig(a.clientConfig()).
		WithTenant(tenant).
		WithStorage(a.Storage).
		WithNavigator(a.Navigator).
		WithClientOptions(a.clientOptions()...).
		Build()
}

// Client restores the signed-in tenant client from storage.
func (a *App) Client(ctx context.Context) (*tenantclient.Client, error) {
	flow, err := a.Flow(ctx)
	if err != nil {
		return nil, err
	}
	return flow.Restore(ctx)
}

// fail shows err the way the console presents it and hands it back to cobra.
func (a *App) fail(err error) error {
	if err == nil {
		return nil
	}
	if _, werr := fmt.Fprintln(a.Out, console.Describe(err).Render()); werr != nil {
		slog.Error("printing error", slog.String("error", werr.Error()))
	}
	return err
}

func (a *App) printf(format string, args ...any) {
	if _, err := fmt.Fprintf(a.Out, format, args...); err != nil {
		slog.Error("printing output", slog.String("error", err.Error()))
	}
}
