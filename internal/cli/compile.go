package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/kiln/internal/site"
	"github.com/roach88/kiln/internal/timing"
	"github.com/roach88/kiln/internal/watch"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Timing bool
	Watch  bool
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile the site",
		Long: `Compile every outdated rep and write the results to the output directory.

Reps whose item, attributes, recipe, layouts and dependencies are unchanged
since the last successful run are skipped. With --watch, kiln keeps running
and recompiles whenever content, layouts or rules change.

Example:
  kiln compile
  kiln compile --timing
  kiln compile --watch --config site/kiln.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Timing, "timing", false, "print filter, phase and stage timings")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "recompile when sources change")

	return cmd
}

func runCompile(opts *CompileOptions, cmd *cobra.Command) error {
	f := formatter(opts.RootOptions, cmd)

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}
	logger := newLogger(opts.RootOptions, cfg.LogLevel, cmd.ErrOrStderr())

	var rec *timing.Recorder
	var extra []site.Option
	if opts.Timing {
		rec = timing.NewRecorder(nil, logger)
		extra = append(extra, site.WithSinks(rec))
	}
	s := site.New(cfg, siteOptions(opts.RootOptions, logger, extra...)...)

	if !opts.Watch {
		res, err := s.Compile(cmd.Context())
		if err != nil {
			return f.Fail(ExitFailure, ErrCodeCompile, "compilation failed", err)
		}
		if err := outputCompileSuccess(f, res); err != nil {
			return err
		}
		return printTiming(f, rec)
	}

	ctx, cancel := signalContext(cmd, logger)
	defer cancel()

	compileOnce := func(ctx context.Context) {
		res, err := s.Compile(ctx)
		if err != nil {
			if ctx.Err() == nil {
				_ = f.Error(ErrCodeCompile, fmt.Sprintf("compilation failed: %v", err), nil)
			}
			return
		}
		_ = outputCompileSuccess(f, res)
	}

	compileOnce(ctx)

	w := watch.New(
		[]string{cfg.Site.ContentDir, cfg.Site.LayoutsDir},
		[]string{cfg.Site.Rules},
		cfg.Watch.Debounce,
		logger,
	)
	err = w.Run(ctx, func(ctx context.Context, changed []string) {
		logger.Info("sources changed, recompiling", slog.Int("paths", len(changed)))
		compileOnce(ctx)
	})
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "watch failed", err)
	}
	return printTiming(f, rec)
}

// outputCompileSuccess outputs a compilation summary.
func outputCompileSuccess(f *OutputFormatter, res *site.CompileResult) error {
	var b strings.Builder
	fmt.Fprintf(&b, "✓ Compiled %d of %d rep(s), wrote %d file(s) (run %s)\n",
		len(res.Compiled), res.Reps, len(res.Written), res.RunID)

	if len(res.Outdated) > 0 && f.Verbose {
		b.WriteString("\nOutdated:\n")
		for _, rep := range res.Outdated {
			fmt.Fprintf(&b, "  - %s (%s)\n", rep, res.Reasons[rep.String()])
		}
	}
	if len(res.Written) > 0 {
		b.WriteString("\nWritten:\n")
		for _, p := range res.Written {
			fmt.Fprintf(&b, "  - %s\n", p)
		}
	}
	if len(res.Pruned) > 0 {
		b.WriteString("\nPruned:\n")
		for _, p := range res.Pruned {
			fmt.Fprintf(&b, "  - %s\n", p)
		}
	}
	return f.Success(res, b.String())
}

// printTiming writes the timing tables to stderr in JSON mode so stdout
// stays a single response.
func printTiming(f *OutputFormatter, rec *timing.Recorder) error {
	if rec == nil {
		return nil
	}
	w := f.Writer
	if f.JSON() {
		w = f.GetErrWriter()
	} else {
		fmt.Fprintln(w)
	}
	return rec.Print(w)
}
