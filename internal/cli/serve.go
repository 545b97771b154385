package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MJE43/mindful-arcade/internal/app"
	"github.com/MJE43/mindful-arcade/internal/logging"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr   string
	NoAuth bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local HTTP API",
		Long: `Run the arcade engines behind a local JSON HTTP API.

Mutating routes require "Authorization: Bearer <token>". The token comes
from the config (api_token / MINDFUL_API_TOKEN) or the OS keyring, and is
generated on first run.

Example:
  mindful serve
  mindful serve --addr 127.0.0.1:9000 --no-auth`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides http_addr)")
	cmd.Flags().BoolVar(&opts.NoAuth, "no-auth", false, "disable the bearer token check")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cfg := opts.cfg
	if opts.Addr != "" {
		cfg.HTTPAddr = opts.Addr
		if err := cfg.Validate(); err != nil {
			return WrapExitError(ExitCommandError, "invalid --addr", err)
		}
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build logger", err)
	}
	defer log.Sync()

	token := ""
	if !opts.NoAuth {
		if token, err = resolveToken(cmd, opts.RootOptions); err != nil {
			return WrapExitError(ExitCommandError, "failed to resolve API token", err)
		}
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, app.Options{Config: cfg, Logger: log, Token: token})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open arcade", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("close arcade", zap.Error(err))
		}
	}()

	if err := a.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// resolveToken prefers the configured token and otherwise loads or creates
// one in the token store.
func resolveToken(cmd *cobra.Command, opts *RootOptions) (string, error) {
	if opts.cfg.APIToken != "" {
		return opts.cfg.APIToken, nil
	}
	token, created, err := opts.Tokens.Ensure()
	if err != nil {
		return "", err
	}
	if created {
		fmt.Fprintln(cmd.ErrOrStderr(), "Generated a new API token. Show it with: mindful token show")
	}
	return token, nil
}
