package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/kiln/internal/events"
	"github.com/roach88/kiln/internal/filters"
	"github.com/roach88/kiln/internal/ir"
	"github.com/roach88/kiln/internal/output"
)

// phaseExecute is the label of the phase spanning a rep's recipe.
const phaseExecute = "execute"

// ExecState is the state of an Execution.
type ExecState int

const (
	ExecNotStarted ExecState = iota
	ExecRunning
	ExecSuspended
	ExecCompleted
	ExecFailed
)

// String returns the lower-case state name.
func (s ExecState) String() string {
	switch s {
	case ExecNotStarted:
		return "not_started"
	case ExecRunning:
		return "running"
	case ExecSuspended:
		return "suspended"
	case ExecCompleted:
		return "completed"
	case ExecFailed:
		return "failed"
	default:
		return fmt.Sprintf("exec_state(%d)", int(s))
	}
}

// Continuation is the saved resume point of an execution.
type Continuation struct {
	// StepIndex is the next step to run. The step at StepIndex has not
	// taken effect.
	StepIndex int

	// FilterOpen is set while the step at StepIndex is a filter or layout
	// whose filtering_started event was posted but not yet closed.
	FilterOpen bool
}

// Execution runs one rep's recipe as a resumable state machine.
//
// Not safe for concurrent use; driven by the compiler's control loop.
type Execution struct {
	c   *Compiler
	rep *ir.Rep

	state      ExecState
	index      int
	content    ir.Content // content before step index
	filterOpen bool

	pending *UnmetDependencyError // read miss during the current step
	fatal   error                 // fatal read error during the current step
	err     error                 // terminal error
}

func newExecution(c *Compiler, rep *ir.Rep) *Execution {
	return &Execution{c: c, rep: rep}
}

// State returns the execution state.
func (x *Execution) State() ExecState { return x.state }

// Continuation returns where a resume continues.
func (x *Execution) Continuation() Continuation {
	return Continuation{StepIndex: x.index, FilterOpen: x.filterOpen}
}

// Awaiting returns the rep a suspended execution waits for.
func (x *Execution) Awaiting() (ir.RepKey, bool) {
	if x.state != ExecSuspended || x.pending == nil {
		return ir.RepKey{}, false
	}
	return x.pending.Target, true
}

// Content returns the current content of the rep.
func (x *Execution) Content() ir.Content { return x.content }

// Resume runs the recipe from the continuation until it completes,
// suspends or fails.
//
// Returns nil on completion, an *UnmetDependencyError on suspension and any
// other error on failure. Resuming a completed execution is a no-op;
// resuming a failed one returns its error again.
func (x *Execution) Resume() error {
	key := x.rep.Key
	bus := x.c.bus

	switch x.state {
	case ExecCompleted:
		return nil
	case ExecFailed:
		return x.err
	case ExecRunning:
		return fmt.Errorf("execution of %s resumed while running", key)
	case ExecNotStarted:
		bus.Post(events.CompilationStarted, key, "")
		bus.Post(events.PhaseStarted, key, phaseExecute)
		x.state = ExecRunning
		x.content = x.rep.Item.Content
		if err := x.putSnapshot(-1, ir.SnapshotRaw); err != nil {
			return x.fail(err)
		}
	case ExecSuspended:
		bus.Post(events.CompilationResumed, key, "")
		bus.Post(events.PhaseResumed, key, phaseExecute)
		x.state = ExecRunning
	}

	for x.index < len(x.rep.Recipe) {
		x.pending, x.fatal = nil, nil

		err := x.runStep(x.index, x.rep.Recipe[x.index])
		if x.pending != nil {
			x.state = ExecSuspended
			x.c.logger.Debug("rep suspended",
				"rep", key.String(),
				"step", x.index,
				"awaiting", x.pending.Target.String())
			bus.Post(events.PhaseYielded, key, phaseExecute)
			bus.Post(events.CompilationSuspended, key, x.pending.Target.String())
			return x.pending
		}
		if x.fatal != nil {
			err = x.fatal
		}
		if err != nil {
			return x.fail(err)
		}
		x.index++
	}

	if err := x.putSnapshot(-1, ir.SnapshotLast); err != nil {
		return x.fail(err)
	}
	x.state = ExecCompleted
	bus.Post(events.PhaseEnded, key, phaseExecute)
	bus.Post(events.CompilationEnded, key, "")
	return nil
}

// Abort fails a suspended execution whose dependency could not be
// compiled.
func (x *Execution) Abort(cause error) {
	if x.state == ExecSuspended || x.state == ExecRunning {
		_ = x.fail(cause)
	}
}

func (x *Execution) fail(err error) error {
	if x.filterOpen {
		x.filterOpen = false
		x.c.bus.Post(events.FilteringEnded, x.rep.Key, x.filterName())
	}
	x.state = ExecFailed
	x.err = err
	x.c.bus.Post(events.PhaseAborted, x.rep.Key, phaseExecute)
	return err
}

// filterName is the filter run by the current step.
func (x *Execution) filterName() string {
	if x.index >= len(x.rep.Recipe) {
		return ""
	}
	switch st := x.rep.Recipe[x.index].(type) {
	case ir.FilterStep:
		return st.Name
	case ir.LayoutStep:
		name, _ := x.c.layoutFilter(st)
		return name
	}
	return ""
}

func (x *Execution) runStep(index int, step ir.Step) error {
	switch st := step.(type) {
	case ir.FilterStep:
		return x.runFilter(index, step, st.Name, x.content.Body, st.Args, x.assigns())

	case ir.LayoutStep:
		layout, ok := x.c.layout(st.Name)
		if !ok {
			return NewStepError(x.rep.Key, index, step, fmt.Errorf("layout %q not found", st.Name))
		}
		name, args := x.c.layoutFilter(st)
		assigns := x.assigns()
		assigns["layout"] = layout.Attributes
		return x.runFilter(index, step, name, layout.Content.Body, args, assigns)

	case ir.SnapshotStep:
		return x.putSnapshot(index, st.Name)

	case ir.WriteStep:
		sitePath := output.Resolve(x.c.router, x.rep.Key, st)
		if _, err := x.c.out.Write(sitePath, []byte(x.content.Body)); err != nil {
			return NewStepError(x.rep.Key, index, step, err)
		}
		x.c.written = append(x.c.written, sitePath)
		x.c.bus.Post(events.RepWritten, x.rep.Key, sitePath)
		return nil

	default:
		return fmt.Errorf("unknown step type %T", step)
	}
}

// runFilter applies filter name to body. The result replaces the current
// content only if no read missed.
func (x *Execution) runFilter(index int, step ir.Step, name, body string, args, assigns map[string]any) error {
	key := x.rep.Key

	if x.content.Binary {
		return NewStepError(key, index, step, fmt.Errorf("cannot run filter %q on binary content", name))
	}
	f, ok := x.c.filters.Lookup(name)
	if !ok {
		return NewStepError(key, index, step, fmt.Errorf("filter %q not registered", name))
	}

	if !x.filterOpen {
		x.c.bus.Post(events.FilteringStarted, key, name)
		x.filterOpen = true
	}

	out, err := f(&filterContext{x: x, assigns: assigns}, body, args)
	if x.pending != nil || x.fatal != nil {
		return nil
	}
	if err != nil {
		return NewStepError(key, index, step, err)
	}

	x.filterOpen = false
	x.c.bus.Post(events.FilteringEnded, key, name)
	x.content = ir.TextContent(out)
	return nil
}

func (x *Execution) putSnapshot(index int, name string) error {
	err := x.c.snapshots.Put(x.rep.Key, name, x.content)
	var dup *ir.DuplicateSnapshotError
	if errors.As(err, &dup) {
		return NewDuplicateSnapshotError(x.rep.Key, index, dup)
	}
	return err
}

func (x *Execution) assigns() map[string]any {
	return map[string]any{
		"content":    x.content.Body,
		"item":       x.rep.Item.Attributes,
		"identifier": x.rep.Item.Identifier,
		"rep":        x.rep.Key.Name,
	}
}

// read resolves a cross-rep read. A miss records the awaited rep on the
// execution and returns the suspension signal.
func (x *Execution) read(ref, snapshot string, kind ir.EdgeKind) (*ir.Rep, ir.Content, error) {
	target, err := parseRef(ref)
	if err != nil {
		return x.readFailed(&RuntimeError{
			Code: ErrCodeUnknownRep, Message: err.Error(), Rep: x.rep.Key, StepIndex: x.index,
		})
	}

	if err := x.c.tracker.Record(x.rep.Key, target, kind); err != nil {
		return x.readFailed(err)
	}

	rep, ok := x.c.reps[target]
	if !ok {
		return x.readFailed(&RuntimeError{
			Code:      ErrCodeUnknownRep,
			Message:   fmt.Sprintf("rep %s does not exist", target),
			Rep:       x.rep.Key,
			StepIndex: x.index,
		})
	}

	compiled, err := x.c.isCompiled(target)
	if err != nil {
		return x.readFailed(err)
	}

	if snapshot != "" && kind == ir.EdgeCompiledContent {
		content, found, err := x.c.snapshots.Get(target, snapshot)
		if err != nil {
			return x.readFailed(err)
		}
		if found {
			return rep, content, nil
		}
		if compiled {
			return x.readFailed(&RuntimeError{
				Code:      ErrCodeNoSuchSnapshot,
				Message:   fmt.Sprintf("rep %s has no snapshot %q", target, snapshot),
				Rep:       x.rep.Key,
				StepIndex: x.index,
			})
		}
		return x.suspend(target, snapshot)
	}

	if !compiled {
		return x.suspend(target, "")
	}
	if kind == ir.EdgeRawPath {
		return rep, ir.Content{}, nil
	}
	content, found, err := x.c.snapshots.Get(target, ir.SnapshotLast)
	if err != nil {
		return x.readFailed(err)
	}
	if !found {
		return x.readFailed(&RuntimeError{
			Code:      ErrCodeNoSuchSnapshot,
			Message:   fmt.Sprintf("rep %s is compiled but has no %q snapshot", target, ir.SnapshotLast),
			Rep:       x.rep.Key,
			StepIndex: x.index,
		})
	}
	return rep, content, nil
}

func (x *Execution) suspend(target ir.RepKey, snapshot string) (*ir.Rep, ir.Content, error) {
	ue := &UnmetDependencyError{Rep: x.rep.Key, Target: target, Snapshot: snapshot}
	if x.pending == nil {
		x.pending = ue
	}
	return nil, ir.Content{}, ue
}

func (x *Execution) readFailed(err error) (*ir.Rep, ir.Content, error) {
	if x.fatal == nil {
		x.fatal = err
	}
	return nil, ir.Content{}, err
}

// parseRef parses "<item>" or "<item>#<rep>".
func parseRef(ref string) (ir.RepKey, error) {
	if ref == "" {
		return ir.RepKey{}, fmt.Errorf("empty rep reference")
	}
	for i := len(ref) - 1; i >= 0; i-- {
		if ref[i] == '#' {
			return ir.ParseRepKey(ref)
		}
	}
	return ir.NewRepKey(ref, ""), nil
}

// filterContext is the filters.Context handed to filters.
type filterContext struct {
	x       *Execution
	assigns map[string]any
}

var _ filters.Context = (*filterContext)(nil)

func (f *filterContext) Rep() ir.RepKey          { return f.x.rep.Key }
func (f *filterContext) Item() *ir.Item          { return f.x.rep.Item }
func (f *filterContext) Assigns() map[string]any { return f.assigns }

func (f *filterContext) Compiled(ref string) (string, error) {
	_, content, err := f.x.read(ref, "", ir.EdgeCompiledContent)
	return content.Body, err
}

func (f *filterContext) CompiledAt(ref, snapshot string) (string, error) {
	if snapshot == "" {
		return f.Compiled(ref)
	}
	_, content, err := f.x.read(ref, snapshot, ir.EdgeCompiledContent)
	return content.Body, err
}

func (f *filterContext) RawPath(ref string) (string, error) {
	rep, _, err := f.x.read(ref, "", ir.EdgeRawPath)
	if err != nil {
		return "", err
	}
	paths := output.SitePaths(f.x.c.router, rep)
	if len(paths) == 0 {
		return "", nil
	}
	return f.x.c.out.FilePath(paths[0]), nil
}
