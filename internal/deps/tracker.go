// Package deps records which reps read which other reps during a pass.
//
// The edge set plays no part in intra-run correctness; it is persisted so
// the next run can propagate outdatedness from a changed rep to every rep
// that read it.
package deps

import (
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/kiln/internal/ir"
)

// Tracker is an idempotent set of dependency edges.
//
// Thread-safety: all methods are safe for concurrent use.
type Tracker struct {
	mu    sync.Mutex
	edges map[ir.DependencyEdge]struct{}
	order []ir.DependencyEdge // insertion order
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{edges: make(map[ir.DependencyEdge]struct{})}
}

// Load creates a tracker pre-populated with edges, e.g. from a prior run.
// Invalid edges are rejected.
func Load(edges []ir.DependencyEdge) (*Tracker, error) {
	t := NewTracker()
	for _, e := range edges {
		if err := t.Record(e.From, e.To, e.Kind); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Record adds the edge from -[kind]-> to. Recording an existing edge is a
// no-op. Self edges are ignored.
func (t *Tracker) Record(from, to ir.RepKey, kind ir.EdgeKind) error {
	if !ir.ValidEdgeKinds[kind] {
		return fmt.Errorf("invalid dependency kind %q for %s -> %s", kind, from, to)
	}
	if from == to {
		return nil
	}

	e := ir.DependencyEdge{From: from, To: to, Kind: kind}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.edges[e]; ok {
		return nil
	}
	t.edges[e] = struct{}{}
	t.order = append(t.order, e)
	return nil
}

// EdgesFrom returns the edges whose reader is rep, in insertion order.
func (t *Tracker) EdgesFrom(rep ir.RepKey) []ir.DependencyEdge {
	return t.filter(func(e ir.DependencyEdge) bool { return e.From == rep })
}

// EdgesTo returns the edges whose target is rep, in insertion order.
func (t *Tracker) EdgesTo(rep ir.RepKey) []ir.DependencyEdge {
	return t.filter(func(e ir.DependencyEdge) bool { return e.To == rep })
}

// Edges returns every edge, in insertion order.
func (t *Tracker) Edges() []ir.DependencyEdge {
	return t.filter(func(ir.DependencyEdge) bool { return true })
}

// Len returns the number of distinct edges.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.order)
}

func (t *Tracker) filter(keep func(ir.DependencyEdge) bool) []ir.DependencyEdge {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []ir.DependencyEdge
	for _, e := range t.order {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// Merge builds the graph to persist after a run.
//
// Reps in recompiled take their edges from current; every other reader
// keeps its prior edges, since it did not run this pass. Edges whose reader
// is not in live are dropped. The result is sorted for stable persistence.
func Merge(prior, current *Tracker, recompiled, live []ir.RepKey) []ir.DependencyEdge {
	redone := make(map[ir.RepKey]bool, len(recompiled))
	for _, r := range recompiled {
		redone[r] = true
	}
	alive := make(map[ir.RepKey]bool, len(live))
	for _, r := range live {
		alive[r] = true
	}

	seen := make(map[ir.DependencyEdge]bool)
	var out []ir.DependencyEdge
	add := func(e ir.DependencyEdge) {
		if !alive[e.From] || seen[e] {
			return
		}
		seen[e] = true
		out = append(out, e)
	}

	if prior != nil {
		for _, e := range prior.Edges() {
			if !redone[e.From] {
				add(e)
			}
		}
	}
	if current != nil {
		for _, e := range current.Edges() {
			if redone[e.From] {
				add(e)
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}
