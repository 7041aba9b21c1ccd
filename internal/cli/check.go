package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/kiln/internal/site"
)

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check the site for problems",
		Long: `Load the site and report problems without compiling: invalid recipes,
filters and layouts that do not exist, and output files no rep writes.

Exits with status 1 when any issue is found.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, cmd)
		},
	}
}

func runCheck(opts *RootOptions, cmd *cobra.Command) error {
	f := formatter(opts, cmd)

	s, _, err := openSite(opts, cmd)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}
	issues, err := s.Check()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeLoad, "failed to load site", err)
	}
	if issues == nil {
		issues = []site.Issue{}
	}

	if len(issues) == 0 {
		return f.Success(issues, "✓ No issues found\n")
	}

	if f.JSON() {
		if err := f.Error(ErrCodeCheck, fmt.Sprintf("%d issue(s) found", len(issues)), issues); err != nil {
			return err
		}
	} else {
		var b strings.Builder
		fmt.Fprintf(&b, "✗ %d issue(s) found:\n", len(issues))
		for _, issue := range issues {
			fmt.Fprintf(&b, "  - %s\n", issue)
		}
		if _, err := fmt.Fprint(f.Writer, b.String()); err != nil {
			return err
		}
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%d issue(s) found", len(issues)))
}
