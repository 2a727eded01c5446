package di

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/wire"

	"github.com/sandeepkv93/loginform/internal/client"
	"github.com/sandeepkv93/loginform/internal/config"
	"github.com/sandeepkv93/loginform/internal/form"
	"github.com/sandeepkv93/loginform/internal/login"
	"github.com/sandeepkv93/loginform/internal/observability"
	"github.com/sandeepkv93/loginform/internal/tools/ui"
)

const shutdownTimeout = 5 * time.Second

// ConfigSource says where configuration comes from. Nil overrides leave the
// environment value in place.
type ConfigSource struct {
	EnvFile        string
	Endpoint       *string
	RequestTimeout *time.Duration
	LogFile        *string
}

// Application is the object graph behind one loginform invocation.
type Application struct {
	Config     *config.Config
	Runtime    *observability.Runtime
	Logger     *slog.Logger
	State      *form.State
	Notifier   *ui.Notifier
	Controller *login.Controller
}

var ConfigSet = wire.NewSet(provideConfig)

var ObservabilitySet = wire.NewSet(
	provideObservabilityRuntime,
	provideAppLogger,
)

var LoginSet = wire.NewSet(
	form.NewState,
	ui.NewNotifier,
	provideLoginClient,
	provideLoginController,
	wire.Bind(new(login.Authenticator), new(*client.Client)),
	wire.Bind(new(login.Notifier), new(*ui.Notifier)),
)

var AppSet = wire.NewSet(wire.Struct(new(Application), "*"))

func provideConfig(src ConfigSource) (*config.Config, error) {
	if err := config.LoadEnvFile(src.EnvFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if src.Endpoint != nil {
		cfg.LoginEndpoint = *src.Endpoint
	}
	if src.RequestTimeout != nil {
		cfg.LoginRequestTimeout = *src.RequestTimeout
	}
	if src.LogFile != nil {
		cfg.LogFile = *src.LogFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func provideObservabilityRuntime(ctx context.Context, cfg *config.Config) (*observability.Runtime, func(), error) {
	logOut, err := observability.OpenLogWriter(cfg.LogFile)
	if err != nil {
		return nil, nil, err
	}
	rt, err := observability.InitRuntime(ctx, cfg, logOut)
	if err != nil {
		_ = logOut.Close()
		return nil, nil, err
	}
	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = rt.Shutdown(shutdownCtx)
	}
	return rt, cleanup, nil
}

func provideAppLogger(rt *observability.Runtime) *slog.Logger {
	return rt.Logger
}

func provideLoginClient(cfg *config.Config, logger *slog.Logger) *client.Client {
	return client.New(cfg.LoginEndpoint, client.WithLogger(logger))
}

func provideLoginController(cfg *config.Config, logger *slog.Logger, state *form.State, auth login.Authenticator, notifier login.Notifier) *login.Controller {
	controller := login.NewController(state, auth, notifier,
		login.WithRequestTimeout(cfg.LoginRequestTimeout),
		login.WithLogger(logger),
	)
	controller.OnStatus(func(s login.Snapshot) {
		logger.Debug("login.status", "phase", s.Phase.String(), "in_flight", s.Status.InFlight)
	})
	return controller
}
