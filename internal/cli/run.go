package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/kiln/internal/config"
	"github.com/roach88/kiln/internal/site"
)

// formatter builds the output formatter for cmd.
func formatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Diagnostics go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// newLogger returns a text logger on w at the config's level, or debug
// under --verbose.
func newLogger(opts *RootOptions, level slog.Level, w io.Writer) *slog.Logger {
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads the config file and resolves its paths against the
// directory it lives in. Without --config, ./kiln.yaml is optional and the
// defaults apply to the current directory.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg := config.NewDefaultConfig()

	path := opts.Config
	if path == "" {
		if _, err := config.LoadOptional(config.DefaultFilename, cfg); err != nil {
			return nil, err
		}
		path = config.DefaultFilename
	} else if err := config.Load(path, cfg); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	cfg.Resolve(filepath.Dir(abs))
	return cfg, nil
}

// openSite loads the config and builds a Site logging to cmd's stderr.
func openSite(opts *RootOptions, cmd *cobra.Command, extra ...site.Option) (*site.Site, *slog.Logger, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(opts, cfg.LogLevel, cmd.ErrOrStderr())
	return site.New(cfg, siteOptions(opts, logger, extra...)...), logger, nil
}

// siteOptions returns the Site options every command shares.
func siteOptions(opts *RootOptions, logger *slog.Logger, extra ...site.Option) []site.Option {
	siteOpts := []site.Option{site.WithLogger(logger)}
	if opts.RunIDs != nil {
		siteOpts = append(siteOpts, site.WithRunIDs(opts.RunIDs))
	}
	return append(siteOpts, extra...)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM, or when
// cmd's own context ends.
func signalContext(cmd *cobra.Command, logger *slog.Logger) (context.Context, context.CancelFunc) {
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
