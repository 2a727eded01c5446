package loginform

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/loginform/internal/di"
	"github.com/sandeepkv93/loginform/internal/form"
	"github.com/sandeepkv93/loginform/internal/login"
	"github.com/sandeepkv93/loginform/internal/tools/common"
	"github.com/sandeepkv93/loginform/internal/tools/ui"
	"github.com/sandeepkv93/loginform/internal/validation"
)

const exitCodeFailure = 4

type options struct {
	envFile  string
	endpoint string
	timeout  time.Duration
	logFile  string
	ci       bool

	email         string
	password      string
	passwordStdin bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:          "loginform",
		Short:        "Log in to a remote endpoint from the terminal",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runForm(cmd, opts)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "optional KEY=VALUE file loaded before the environment is read")
	cmd.PersistentFlags().StringVar(&opts.endpoint, "endpoint", "", "login endpoint URL (overrides LOGIN_ENDPOINT)")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "per-request timeout, 0 disables (overrides LOGIN_REQUEST_TIMEOUT)")
	cmd.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "log destination, - for stderr (overrides LOG_FILE)")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.AddCommand(newFormCommand(opts), newSubmitCommand(opts), newValidateCommand(opts))
	return cmd
}

func newFormCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "form",
		Short: "Open the interactive login form",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runForm(cmd, opts)
		},
	}
}

func newSubmitCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit one login attempt without the form",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd.InOrStdin(), opts)
			if err != nil {
				return err
			}
			app, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer app.shutdown()

			const title = "loginform submit"
			details, err := run(cmd.Context(), opts, title, "Logging in...", func(ctx context.Context) ([]string, error) {
				return app.submit(ctx, opts.email, password)
			})
			if opts.ci {
				common.PrintCIResult(cmd.OutOrStdout(), title, details, err)
			}
			if err != nil {
				app.shutdown()
				os.Exit(exitCodeFailure)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.email, "email", "", "account email")
	cmd.Flags().StringVar(&opts.password, "password", "", "account password (prefer --password-stdin)")
	cmd.Flags().BoolVar(&opts.passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

func newValidateCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a password against the form's password rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd.InOrStdin(), opts)
			if err != nil {
				return err
			}
			details, err := checkPassword(password)
			if opts.ci {
				common.PrintCIResult(cmd.OutOrStdout(), "loginform validate", details, err)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(details, "\n"))
			}
			if err != nil {
				os.Exit(exitCodeFailure)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.password, "password", "", "password to check")
	cmd.Flags().BoolVar(&opts.passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

func runForm(cmd *cobra.Command, opts *options) error {
	if opts.ci {
		return errors.New("the interactive form is not available with --ci; use submit")
	}
	app, err := setup(cmd, opts)
	if err != nil {
		return err
	}
	defer app.shutdown()
	return ui.RunForm(cmd.Context(), ui.FormDeps{
		Controller:    app.Controller,
		Notifier:      app.Notifier,
		ToastDuration: app.Config.ToastDuration,
		Endpoint:      app.Config.LoginEndpoint,
	})
}

func run(ctx context.Context, opts *options, title, caption string, fn func(context.Context) ([]string, error)) ([]string, error) {
	if opts.ci {
		return fn(ctx)
	}
	return ui.Run(ctx, title, caption, fn)
}

func readPassword(in io.Reader, opts *options) (string, error) {
	if !opts.passwordStdin {
		return opts.password, nil
	}
	if opts.password != "" {
		return "", errors.New("--password and --password-stdin are mutually exclusive")
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func checkPassword(password string) ([]string, error) {
	if err := validation.ValidatePassword(password); err != nil {
		rule := "unknown"
		var verr *validation.Error
		if errors.As(err, &verr) {
			rule = string(verr.Rule)
		}
		return []string{"valid=false", "rule=" + rule}, err
	}
	return []string{"valid=true"}, nil
}

type application struct {
	*di.Application
	cleanup func()
	once    sync.Once
}

// setup translates the command line into configuration overrides and builds
// the application graph.
func setup(cmd *cobra.Command, opts *options) (*application, error) {
	src := di.ConfigSource{EnvFile: opts.envFile}
	flags := cmd.Flags()
	if flags.Changed("endpoint") {
		src.Endpoint = &opts.endpoint
	}
	if flags.Changed("timeout") {
		src.RequestTimeout = &opts.timeout
	}
	switch {
	case flags.Changed("log-file"):
		src.LogFile = &opts.logFile
	case opts.ci:
		stderr := "-"
		src.LogFile = &stderr
	}

	app, cleanup, err := di.InitializeApplication(cmd.Context(), src)
	if err != nil {
		return nil, err
	}
	app.Logger.Info("loginform started", "endpoint", app.Config.LoginEndpoint, "request_timeout", app.Config.LoginRequestTimeout.String())
	return &application{Application: app, cleanup: cleanup}, nil
}

// submit fills the form with the given values and runs a single attempt.
// A success notice is captured into the returned details.
func (a *application) submit(ctx context.Context, email, password string) ([]string, error) {
	email = validation.NormalizeEmail(email)
	if err := validation.CheckRequired(email, password); err != nil {
		return nil, err
	}
	if err := a.State.UpdateField(form.FieldEmail, email); err != nil {
		return nil, err
	}
	if err := a.State.UpdateField(form.FieldPassword, password); err != nil {
		return nil, err
	}
	outcome, err := a.Controller.Submit(ctx)
	if err != nil {
		return nil, err
	}
	details := []string{"outcome=" + string(outcome), "endpoint=" + a.Config.LoginEndpoint}
	if outcome != login.OutcomeSucceeded {
		return details, errors.New(a.Controller.Snapshot().Status.ErrorMessage)
	}
	return append(details, login.SuccessMessage(email)), nil
}

func (a *application) shutdown() {
	a.once.Do(func() {
		if a.cleanup != nil {
			a.cleanup()
		}
	})
}
