package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "runs",
		Short:         "List recorded compilation runs",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(rootOpts, cmd)
		},
	}
}

func runRuns(opts *RootOptions, cmd *cobra.Command) error {
	f := formatter(opts, cmd)

	s, _, err := openSite(opts, cmd)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}
	runs, err := s.Runs(cmd.Context())
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to read run history", err)
	}

	var b strings.Builder
	if len(runs) == 0 {
		b.WriteString("No runs recorded\n")
	}
	for _, r := range runs {
		fmt.Fprintf(&b, "%4d  %s  %s  %d/%d compiled, %d written (%s)\n",
			r.Seq, r.ID, r.StartedAt.Format(time.RFC3339),
			r.Compiled, r.RepCount, r.Written,
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	}
	return f.Success(runs, b.String())
}
