package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/kiln/internal/deploy"
)

// DeployOptions holds flags for the deploy command.
type DeployOptions struct {
	*RootOptions
	DryRun bool
}

// NewDeployCommand creates the deploy command.
func NewDeployCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeployOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "deploy <target>",
		Short: "Mirror the output directory to a deploy target",
		Long: `Mirror the compiled output directory to the named deploy target from
kiln.yaml. Remote objects without a local file are deleted and every local
file is uploaded.

Example:
  kiln deploy production
  kiln deploy staging --dry-run`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "report changes without applying them")

	return cmd
}

func runDeploy(opts *DeployOptions, name string, cmd *cobra.Command) error {
	f := formatter(opts.RootOptions, cmd)

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}
	logger := newLogger(opts.RootOptions, cfg.LogLevel, cmd.ErrOrStderr())

	target, err := cfg.Target(name)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeUnknownTarget, "unknown deploy target", err)
	}

	ctx, cancel := signalContext(cmd, logger)
	defer cancel()

	res, err := deploy.Deploy(ctx, target, cfg.Site.OutputDir,
		deploy.WithDryRun(opts.DryRun),
		deploy.WithLogger(logger),
	)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeDeploy, "deployment failed", err)
	}

	var b strings.Builder
	verb := "Deployed"
	if res.DryRun {
		verb = "Would deploy"
	}
	fmt.Fprintf(&b, "✓ %s to %s: %d upload(s), %d delete(s)\n", verb, name, len(res.Uploaded), len(res.Deleted))
	if f.Verbose || res.DryRun {
		for _, key := range res.Deleted {
			fmt.Fprintf(&b, "  - delete %s\n", key)
		}
		for _, key := range res.Uploaded {
			fmt.Fprintf(&b, "  - upload %s\n", key)
		}
	}
	return f.Success(res, b.String())
}
