package loginstub

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sandeepkv93/loginform/internal/config"
	"github.com/sandeepkv93/loginform/internal/observability"
	"github.com/sandeepkv93/loginform/internal/stub"
)

type options struct {
	envFile        string
	port           string
	rejectPassword string
	shutdown       time.Duration
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:          "loginstub",
		Short:        "Serve a local login endpoint for exercising loginform",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.envFile, "env-file", ".env", "optional KEY=VALUE file loaded before the environment is read")
	cmd.Flags().StringVar(&opts.port, "port", "", "listen port (overrides STUB_HTTP_PORT)")
	cmd.Flags().StringVar(&opts.rejectPassword, "reject-password", "", "password answered with 401 (overrides STUB_REJECT_PASSWORD)")
	cmd.Flags().DurationVar(&opts.shutdown, "shutdown-timeout", 10*time.Second, "graceful shutdown budget")
	return cmd
}

func serve(cmd *cobra.Command, opts *options) error {
	if err := config.LoadEnvFile(opts.envFile); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.StubHTTPPort = opts.port
	}
	if cmd.Flags().Changed("reject-password") {
		cfg.StubRejectPassword = opts.rejectPassword
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logOut, err := observability.OpenLogWriter("-")
	if err != nil {
		return err
	}
	rt, err := observability.InitRuntime(cmd.Context(), cfg, logOut)
	if err != nil {
		_ = logOut.Close()
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), opts.shutdown)
		defer cancel()
		if err := rt.Shutdown(ctx); err != nil {
			rt.Logger.Error("failed to shutdown observability", "error", err)
		}
	}()

	srv := &http.Server{
		Addr: net.JoinHostPort("", cfg.StubHTTPPort),
		Handler: stub.NewRouter(stub.Config{
			RejectPassword: cfg.StubRejectPassword,
			EnableOTelHTTP: cfg.OTELTracingEnabled,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return Serve(cmd.Context(), srv, opts.shutdown, rt.Logger)
}

// Serve runs srv until ctx is cancelled, then drains it within shutdownTimeout.
func Serve(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, logger *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("login stub listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown http server", "error", err)
			return err
		}
		return nil
	})
	return g.Wait()
}
