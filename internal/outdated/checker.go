package outdated

import (
	"fmt"
	"log/slog"

	"github.com/roach88/kiln/internal/events"
	"github.com/roach88/kiln/internal/ir"
	"github.com/roach88/kiln/internal/snapshot"
)

// Checker evaluates outdatedness rules against prior metadata.
//
// Snapshots, OutputPaths and Exists are optional; a rule whose input is
// missing never fires.
type Checker struct {
	// Snapshots answers whether a rep still has compiled state.
	Snapshots *snapshot.Store

	// OutputPaths returns the files a rep writes.
	OutputPaths func(rep *ir.Rep) []string

	// Exists reports whether an output file is present.
	Exists func(path string) bool

	// Layouts resolves layout step names for the LayoutModified rule.
	Layouts LayoutResolver

	Bus    *events.Bus
	Logger *slog.Logger
}

// Result is the outdated set of a run.
type Result struct {
	// Outdated lists outdated reps in declaration order.
	Outdated []ir.RepKey

	// Reasons maps every outdated rep to the rule that fired first.
	Reasons map[ir.RepKey]Reason
}

// IsOutdated reports whether rep is in the set.
func (r *Result) IsOutdated(rep ir.RepKey) bool {
	_, ok := r.Reasons[rep]
	return ok
}

type check struct {
	checker *Checker
	prior   *Prior
	current map[string]string
}

func (c *check) changed(subject string) bool {
	old, ok := c.prior.Checksums[subject]
	return !ok || old != c.current[subject]
}

// Checksums computes every subject the rules compare: item content, item
// attributes, recipes and the layouts the recipes use.
func (c *Checker) Checksums(reps []*ir.Rep) (map[string]string, error) {
	sums, err := Checksums(reps)
	if err != nil {
		return nil, err
	}
	layouts, err := LayoutChecksums(reps, c.Layouts)
	if err != nil {
		return nil, err
	}
	for k, v := range layouts {
		sums[k] = v
	}
	return sums, nil
}

// OutdatedSet returns the reps that must be recompiled.
// A nil prior means a from-scratch run.
func (c *Checker) OutdatedSet(reps []*ir.Rep, prior *Prior) (*Result, error) {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	current, err := c.Checksums(reps)
	if err != nil {
		return nil, err
	}
	ck := &check{checker: c, prior: prior, current: current}

	res := &Result{Reasons: make(map[ir.RepKey]Reason)}
	for _, rep := range reps {
		for _, r := range rules {
			c.Bus.Post(events.OutdatednessRuleStarted, rep.Key, string(r.reason))
			fired, err := r.check(ck, rep)
			c.Bus.Post(events.OutdatednessRuleEnded, rep.Key, string(r.reason))
			if err != nil {
				return nil, fmt.Errorf("outdatedness rule %s on %s: %w", r.reason, rep.Key, err)
			}
			if fired {
				res.Reasons[rep.Key] = r.reason
				break
			}
		}
	}

	if prior != nil {
		propagate(reps, prior.Edges, res.Reasons)
	}

	for _, rep := range reps {
		if reason, ok := res.Reasons[rep.Key]; ok {
			res.Outdated = append(res.Outdated, rep.Key)
			logger.Debug("rep outdated", "rep", rep.Key.String(), "reason", string(reason))
		}
	}
	return res, nil
}

// propagate marks every transitive reader of an outdated rep as outdated.
// A rep that read a rep which no longer exists is outdated as well.
func propagate(reps []*ir.Rep, edges []ir.DependencyEdge, reasons map[ir.RepKey]Reason) {
	known := make(map[ir.RepKey]bool, len(reps))
	for _, rep := range reps {
		known[rep.Key] = true
	}
	readers := make(map[ir.RepKey][]ir.RepKey)
	for _, e := range edges {
		readers[e.To] = append(readers[e.To], e.From)
	}

	var queue []ir.RepKey
	for _, e := range edges {
		if known[e.From] && !known[e.To] {
			if _, ok := reasons[e.From]; !ok {
				reasons[e.From] = DependencyOutdated
			}
		}
	}
	for _, rep := range reps {
		if _, ok := reasons[rep.Key]; ok {
			queue = append(queue, rep.Key)
		}
	}
	for len(queue) > 0 {
		target := queue[0]
		queue = queue[1:]
		for _, reader := range readers[target] {
			if !known[reader] {
				continue
			}
			if _, ok := reasons[reader]; ok {
				continue
			}
			reasons[reader] = DependencyOutdated
			queue = append(queue, reader)
		}
	}
}
