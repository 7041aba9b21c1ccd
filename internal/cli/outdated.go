package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/kiln/internal/outdated"
)

// OutdatedRep is one entry of the outdated command's output.
type OutdatedRep struct {
	Rep    string          `json:"rep"`
	Reason outdated.Reason `json:"reason"`
}

// NewOutdatedCommand creates the outdated command.
func NewOutdatedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "outdated",
		Short: "List reps the next compile would recompile",
		Long: `List every rep the next compilation would recompile, with the first
outdatedness rule that fired for it. Nothing is compiled or written.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOutdated(rootOpts, cmd)
		},
	}
}

func runOutdated(opts *RootOptions, cmd *cobra.Command) error {
	f := formatter(opts, cmd)

	s, _, err := openSite(opts, cmd)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}
	res, err := s.Outdated(cmd.Context())
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeLoad, "failed to load site", err)
	}

	reps := make([]OutdatedRep, 0, len(res.Outdated))
	for _, key := range res.Outdated {
		reps = append(reps, OutdatedRep{Rep: key.String(), Reason: res.Reasons[key]})
	}

	var b strings.Builder
	if len(reps) == 0 {
		b.WriteString("✓ Nothing to compile\n")
	} else {
		fmt.Fprintf(&b, "%d outdated rep(s):\n", len(reps))
		for _, r := range reps {
			fmt.Fprintf(&b, "  - %s (%s)\n", r.Rep, r.Reason)
		}
	}
	return f.Success(reps, b.String())
}
