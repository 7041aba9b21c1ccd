package site

import (
	"fmt"

	"github.com/roach88/kiln/internal/engine"
	"github.com/roach88/kiln/internal/ir"
	"github.com/roach88/kiln/internal/output"
)

// Issue kinds reported by Check.
const (
	IssueInvalidRecipe = "invalid_recipe"
	IssueUnknownFilter = "unknown_filter"
	IssueUnknownLayout = "unknown_layout"
	IssueStaleOutput   = "stale_output"
)

// Issue is a problem Check found.
type Issue struct {
	Kind    string `json:"kind"`
	Rep     string `json:"rep,omitempty"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	subject := i.Rep
	if subject == "" {
		subject = i.Path
	}
	return fmt.Sprintf("%s: %s: %s", i.Kind, subject, i.Message)
}

// Check loads the site and reports problems a compilation would hit or
// leave behind: invalid recipes, unknown filters and layouts, and output
// files no rep writes. A load failure is returned as an error.
func (s *Site) Check() ([]Issue, error) {
	sources, reps, err := s.Load()
	if err != nil {
		return nil, err
	}

	layouts := engine.NewLayoutIndex(sources.Layouts)

	var issues []Issue
	for _, rep := range reps {
		if err := rep.Recipe.Validate(rep.Key); err != nil {
			issues = append(issues, Issue{Kind: IssueInvalidRecipe, Rep: rep.Key.String(), Message: err.Error()})
		}
		for i, step := range rep.Recipe {
			switch st := step.(type) {
			case ir.FilterStep:
				if _, ok := s.filters.Lookup(st.Name); !ok {
					issues = append(issues, Issue{
						Kind:    IssueUnknownFilter,
						Rep:     rep.Key.String(),
						Message: fmt.Sprintf("step %d: filter %q is not registered", i, st.Name),
					})
				}
			case ir.LayoutStep:
				if _, ok := layouts.Lookup(st.Name); !ok {
					issues = append(issues, Issue{
						Kind:    IssueUnknownLayout,
						Rep:     rep.Key.String(),
						Message: fmt.Sprintf("step %d: layout %q not found", i, st.Name),
					})
				}
			}
		}
	}

	stale, err := output.NewWriter(s.cfg.Site.OutputDir, s.logger).Stale(sitePaths(s.router, reps))
	if err != nil {
		return nil, fmt.Errorf("scan output: %w", err)
	}
	for _, p := range stale {
		issues = append(issues, Issue{Kind: IssueStaleOutput, Path: p, Message: "not written by any rep"})
	}
	return issues, nil
}
