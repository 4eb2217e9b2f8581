package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/elee1766/playground/src/app"
	"github.com/elee1766/playground/src/config"
	"github.com/elee1766/playground/src/theme"
)

// loadConfig loads the configuration from the default locations, the
// explicit --config file and the global flags
func (cli *CLI) loadConfig() (*config.Config, error) {
	precedence := config.GetConfigPaths()
	precedence.ExplicitConfig = cli.Config

	cfg, err := config.NewLoader(precedence).LoadWithOverrides(cli.overrides())
	if err != nil {
		return nil, &configError{err: err}
	}
	return cfg, nil
}

func (cli *CLI) overrides() config.Overrides {
	return config.Overrides{
		APIBase:  cli.APIBase,
		UserID:   cli.User,
		LogLevel: cli.LogLevel,
		LogFile:  cli.LogFile,
		DBPath:   cli.DB,
	}
}

// runtime is an opened App plus what the commands need to print.
type runtime struct {
	app    *app.App
	styles theme.Styles
	out    io.Writer
	logger *slog.Logger

	closeLog func() error
}

// open loads config, builds the App and restores the saved session.
func (cli *CLI) open(ctx context.Context) (*runtime, error) {
	cfg, err := cli.loadConfig()
	if err != nil {
		return nil, err
	}
	return openRuntime(ctx, cfg, os.Stdout, os.Stderr, cli.Plain)
}

func openRuntime(ctx context.Context, cfg *config.Config, out, stderr io.Writer, plain bool) (*runtime, error) {
	logger, closeLog := createLogger(cfg.Logging, stderr)

	a, err := app.New(ctx, app.Options{Config: cfg, Logger: logger})
	if err != nil {
		closeLog()
		return nil, err
	}
	if err := a.Restore(ctx); err != nil {
		// a stale saved conversation should not block the command
		logger.Warn("failed to restore session", "error", err)
	}

	return &runtime{
		app:      a,
		styles:   theme.NewStyles(plain),
		out:      out,
		logger:   logger,
		closeLog: closeLog,
	}, nil
}

// Close saves client state and releases the database and log file.
func (r *runtime) Close() error {
	// saving must outlive an interrupted command context
	saveErr := r.app.Save(context.Background())
	if saveErr != nil {
		r.logger.Error("failed to save client state", "error", saveErr)
	}
	return errors.Join(saveErr, r.app.Close(), r.closeLog())
}
