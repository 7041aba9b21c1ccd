package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/kiln/internal/deps"
	"github.com/roach88/kiln/internal/events"
	"github.com/roach88/kiln/internal/filters"
	"github.com/roach88/kiln/internal/ir"
	"github.com/roach88/kiln/internal/outdated"
	"github.com/roach88/kiln/internal/output"
	"github.com/roach88/kiln/internal/snapshot"
)

// Stage labels posted around the phases of a run.
const (
	StageOutdatedness = "determine_outdatedness"
	StageCompile      = "compile_reps"
)

// defaultLayoutFilter runs layouts whose step and attributes name no filter.
const defaultLayoutFilter = "template"

// Output is where write steps put compiled content.
// Implemented by *output.Writer.
type Output interface {
	Write(sitePath string, body []byte) (changed bool, err error)
	FilePath(sitePath string) string
	Exists(sitePath string) bool
}

// Compiler drives the outdated reps of a site to a fixpoint.
//
// CRITICAL: Run must be called from exactly one goroutine. All rep state is
// mutated by that goroutine.
//
// INVARIANTS:
//   - reps are compiled in declaration order unless demanded earlier
//   - a rep becomes Compiled only after every step ran without suspension
//   - a rep on the active stack is never re-entered
type Compiler struct {
	reps      map[ir.RepKey]*ir.Rep
	order     []*ir.Rep // declaration order
	snapshots *snapshot.Store
	filters   *filters.Registry
	out       Output
	layouts   LayoutIndex
	router    output.Router
	tracker   *deps.Tracker
	bus       *events.Bus
	logger    *slog.Logger

	// Per-run state, reset by Run.
	stack    *ActiveStack
	execs    map[ir.RepKey]*Execution
	status   map[ir.RepKey]ir.Status
	cleared  map[ir.RepKey]bool
	compiled []ir.RepKey
	written  []string
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLayouts sets the layouts available to layout steps.
func WithLayouts(layouts []*ir.Layout) Option {
	return func(c *Compiler) {
		c.layouts = NewLayoutIndex(layouts)
	}
}

// WithRouter sets the router for write steps without an explicit path.
// Default: output.PrettyRouter.
func WithRouter(r output.Router) Option {
	return func(c *Compiler) { c.router = r }
}

// WithBus sets the event bus. Default: none.
func WithBus(b *events.Bus) Option {
	return func(c *Compiler) { c.bus = b }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) { c.logger = l }
}

// WithTracker sets the dependency tracker reads are recorded in.
// Default: a fresh tracker.
func WithTracker(t *deps.Tracker) Option {
	return func(c *Compiler) { c.tracker = t }
}

// New creates a Compiler for reps.
//
// The reps slice must be in declaration order; that order drives
// compilation. Rep keys must be unique.
func New(
	reps []*ir.Rep,
	store *snapshot.Store,
	registry *filters.Registry,
	out Output,
	opts ...Option,
) (*Compiler, error) {
	c := &Compiler{
		reps:      make(map[ir.RepKey]*ir.Rep, len(reps)),
		order:     make([]*ir.Rep, 0, len(reps)),
		snapshots: store,
		filters:   registry,
		out:       out,
		layouts:   LayoutIndex{},
		router:    output.PrettyRouter{},
		tracker:   deps.NewTracker(),
		logger:    slog.Default(),
	}
	for _, rep := range reps {
		if _, dup := c.reps[rep.Key]; dup {
			return nil, fmt.Errorf("duplicate rep %s", rep.Key)
		}
		c.reps[rep.Key] = rep
		c.order = append(c.order, rep)
	}
	for _, opt := range opts {
		opt(c)
	}
	c.reset()
	return c, nil
}

func (c *Compiler) reset() {
	c.stack = NewActiveStack()
	c.execs = make(map[ir.RepKey]*Execution)
	c.status = make(map[ir.RepKey]ir.Status)
	c.cleared = make(map[ir.RepKey]bool)
	c.compiled = nil
	c.written = nil
}

// Result summarizes a run.
type Result struct {
	// Outdated lists the reps the checker selected, in declaration order.
	Outdated []ir.RepKey

	// Reasons maps each outdated rep to the rule that selected it.
	Reasons map[ir.RepKey]outdated.Reason

	// Compiled lists reps in the order they reached Compiled.
	Compiled []ir.RepKey

	// Written lists the site paths written this run.
	Written []string
}

// Tracker returns the dependency tracker of the compiler.
func (c *Compiler) Tracker() *deps.Tracker { return c.tracker }

// Status returns the status of rep in the current or last run.
func (c *Compiler) Status(rep ir.RepKey) ir.Status { return c.status[rep] }

// Execution returns the execution of rep in the current or last run.
func (c *Compiler) Execution(rep ir.RepKey) *Execution { return c.execs[rep] }

// Reps returns the reps in declaration order.
func (c *Compiler) Reps() []*ir.Rep {
	return append([]*ir.Rep(nil), c.order...)
}

// SitePaths returns the site paths rep writes to.
func (c *Compiler) SitePaths(rep *ir.Rep) []string {
	return output.SitePaths(c.router, rep)
}

// Checker returns the outdatedness checker wired to this compiler's
// snapshot store, router and output.
func (c *Compiler) Checker() *outdated.Checker {
	return &outdated.Checker{
		Snapshots:   c.snapshots,
		OutputPaths: c.SitePaths,
		Exists:      c.out.Exists,
		Layouts:     c.layouts,
		Bus:         c.bus,
		Logger:      c.logger,
	}
}

// Run compiles every outdated rep. A nil prior compiles everything.
//
// Context cancellation is honoured between reps only; a rep that started
// compiling runs to completion or failure.
//
// Any error aborts the run: no further reps are compiled. Reps compiled
// before the failure keep their snapshots.
func (c *Compiler) Run(ctx context.Context, prior *outdated.Prior) (*Result, error) {
	c.reset()

	var set *outdated.Result
	err := c.bus.Stage(StageOutdatedness, func() error {
		var err error
		set, err = c.Checker().OutdatedSet(c.order, prior)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("determine outdated reps: %w", err)
	}

	for _, key := range set.Outdated {
		if err := c.reps[key].Recipe.Validate(key); err != nil {
			var dup *ir.DuplicateSnapshotError
			if errors.As(err, &dup) {
				return nil, NewDuplicateSnapshotError(key, dup.StepIndex, dup)
			}
			return nil, fmt.Errorf("invalid recipe for %s: %w", key, err)
		}
	}

	if err := c.snapshots.BeginPass(set.Outdated); err != nil {
		return nil, err
	}
	for _, key := range set.Outdated {
		c.cleared[key] = true
	}
	queue := newRepQueue(set.Outdated)

	c.logger.Info("compiling", "outdated", len(set.Outdated), "reps", len(c.order))

	err = c.bus.Stage(StageCompile, func() error {
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			key, ok := queue.TryDequeue()
			if !ok {
				return nil
			}
			if err := c.compile(key); err != nil {
				return err
			}
		}
	})
	if err != nil {
		var ue *UnmetDependencyError
		if errors.As(err, &ue) {
			err = &RuntimeError{
				Code:      ErrCodeUnmetDependency,
				Message:   "internal error: suspension escaped the compiler",
				Rep:       ue.Rep,
				StepIndex: -1,
				Err:       ue,
			}
		}
		return nil, err
	}

	return &Result{
		Outdated: set.Outdated,
		Reasons:  set.Reasons,
		Compiled: append([]ir.RepKey(nil), c.compiled...),
		Written:  append([]string(nil), c.written...),
	}, nil
}

// compile drives rep to Compiled, compiling its dependencies on demand.
func (c *Compiler) compile(key ir.RepKey) error {
	if c.status[key] == ir.StatusCompiled {
		return nil
	}
	if c.stack.Contains(key) {
		return NewRecursiveCompilationError(c.stack.CycleFrom(key))
	}
	rep, ok := c.reps[key]
	if !ok {
		return &RuntimeError{
			Code:      ErrCodeUnknownRep,
			Message:   fmt.Sprintf("rep %s does not exist", key),
			StepIndex: -1,
		}
	}

	if !c.cleared[key] {
		// Not outdated: its snapshots from a previous run stand.
		done, err := c.snapshots.IsCompiled(key)
		if err != nil {
			return err
		}
		if done {
			c.status[key] = ir.StatusCompiled
			return nil
		}
		if err := rep.Recipe.Validate(key); err != nil {
			var dup *ir.DuplicateSnapshotError
			if errors.As(err, &dup) {
				return NewDuplicateSnapshotError(key, dup.StepIndex, dup)
			}
			return err
		}
		if err := c.snapshots.BeginPass([]ir.RepKey{key}); err != nil {
			return err
		}
		c.cleared[key] = true
	}

	x := c.execs[key]
	if x == nil {
		x = newExecution(c, rep)
		c.execs[key] = x
	}

	c.stack.Push(key)
	defer c.stack.Pop()
	c.status[key] = ir.StatusRunning

	for {
		err := x.Resume()
		var unmet *UnmetDependencyError
		if errors.As(err, &unmet) {
			c.status[key] = ir.StatusSuspended
			if err := c.compile(unmet.Target); err != nil {
				c.status[key] = ir.StatusFailed
				x.Abort(err)
				return err
			}
			c.status[key] = ir.StatusRunning
			continue
		}
		if err != nil {
			c.status[key] = ir.StatusFailed
			c.logger.Debug("rep failed", "rep", key.String(), "error", err)
			return err
		}
		break
	}

	if err := c.snapshots.MarkCompiled(key); err != nil {
		return err
	}
	c.status[key] = ir.StatusCompiled
	c.compiled = append(c.compiled, key)
	c.logger.Debug("rep compiled", "rep", key.String())
	return nil
}

// isCompiled reports whether target's content is final for this pass.
func (c *Compiler) isCompiled(target ir.RepKey) (bool, error) {
	if c.status[target] == ir.StatusCompiled {
		return true, nil
	}
	if c.cleared[target] {
		return false, nil
	}
	return c.snapshots.IsCompiled(target)
}

// layout finds a layout by name.
func (c *Compiler) layout(name string) (*ir.Layout, bool) {
	return c.layouts.Lookup(name)
}

// layoutFilter picks the filter a layout step runs: the step's "filter"
// arg, else the layout's "filter" attribute, else the template filter.
func (c *Compiler) layoutFilter(st ir.LayoutStep) (string, map[string]any) {
	if name, ok := st.Args["filter"].(string); ok && name != "" {
		return name, st.Args
	}
	if l, ok := c.layout(st.Name); ok {
		if name, ok := l.Attributes["filter"].(string); ok && name != "" {
			return name, st.Args
		}
	}
	return defaultLayoutFilter, st.Args
}
