package recipe

import (
	"fmt"

	"github.com/roach88/kiln/internal/ir"
	"github.com/roach88/kiln/internal/output"
)

// PathConflictError reports two reps routed to the same output path.
type PathConflictError struct {
	Path  string
	First ir.RepKey
	Other ir.RepKey
}

func (e *PathConflictError) Error() string {
	return fmt.Sprintf("reps %s and %s both write %s", e.First, e.Other, e.Path)
}

// Resolve builds the reps of items in order. For each item every rule is
// tried in declaration order and the first rule per rep name wins. Items no
// rule matches produce no reps.
//
// The router is used to reject reps that would write the same output path.
func (rs Rules) Resolve(items []*ir.Item, router output.Router) ([]*ir.Rep, error) {
	var reps []*ir.Rep
	written := make(map[string]ir.RepKey)

	for _, item := range items {
		seen := make(map[string]bool)
		for _, rule := range rs {
			if seen[rule.RepName] || !rule.Matches(item.Identifier) {
				continue
			}
			seen[rule.RepName] = true

			rep := ir.NewRep(item, rule.RepName, append(ir.Recipe(nil), rule.Recipe...))
			for _, p := range output.SitePaths(router, rep) {
				if prev, ok := written[p]; ok && prev != rep.Key {
					return nil, &PathConflictError{Path: p, First: prev, Other: rep.Key}
				}
				written[p] = rep.Key
			}
			reps = append(reps, rep)
		}
	}
	return reps, nil
}
