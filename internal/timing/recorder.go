package timing

import (
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/kiln/internal/events"
	"github.com/roach88/kiln/internal/ir"
)

// Clock is the wall-clock source of a Recorder.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type repLabel struct {
	rep   ir.RepKey
	label string
}

// Recorder is an events.Sink that measures filters, phases, stages and
// outdatedness rules.
//
// Filters nest per rep. A compilation_suspended event pauses every open
// filter of the rep; the next compilation_started or compilation_resumed
// of the rep resumes them, so recorded filter durations exclude the time
// spent compiling dependencies. Phases pause on phase_yielded and resume
// on phase_resumed; an aborted phase records its active time.
type Recorder struct {
	mu     sync.Mutex
	clock  Clock
	logger *slog.Logger

	filterStacks map[ir.RepKey][]*namedWatch
	phases       map[repLabel]*stopwatch
	stageStarts  map[string]time.Time
	ruleStarts   map[repLabel]time.Time

	filters *Summary
	phasesS *Summary
	stages  *Summary
	rules   *Summary
}

type namedWatch struct {
	name string
	w    stopwatch
}

var _ events.Sink = (*Recorder)(nil)

// NewRecorder creates a recorder. A nil clock uses the system clock.
func NewRecorder(clock Clock, logger *slog.Logger) *Recorder {
	if clock == nil {
		clock = systemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		clock:        clock,
		logger:       logger,
		filterStacks: make(map[ir.RepKey][]*namedWatch),
		phases:       make(map[repLabel]*stopwatch),
		stageStarts:  make(map[string]time.Time),
		ruleStarts:   make(map[repLabel]time.Time),
		filters:      newSummary(),
		phasesS:      newSummary(),
		stages:       newSummary(),
		rules:        newSummary(),
	}
}

// Filters returns filter durations keyed by filter name.
func (r *Recorder) Filters() *Summary { return r.filters }

// Phases returns phase durations keyed by phase name.
func (r *Recorder) Phases() *Summary { return r.phasesS }

// Stages returns stage durations keyed by stage name.
func (r *Recorder) Stages() *Summary { return r.stages }

// Rules returns outdatedness rule durations keyed by rule name.
func (r *Recorder) Rules() *Summary { return r.rules }

// Emit implements events.Sink.
func (r *Recorder) Emit(e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	key := repLabel{rep: e.Rep, label: e.Label}

	switch e.Kind {
	case events.FilteringStarted:
		nw := &namedWatch{name: e.Label}
		nw.w.start(now)
		r.filterStacks[e.Rep] = append(r.filterStacks[e.Rep], nw)

	case events.FilteringEnded:
		stack := r.filterStacks[e.Rep]
		if len(stack) == 0 {
			r.logger.Warn("filtering_ended without filtering_started", "rep", e.Rep.String(), "filter", e.Label)
			return
		}
		top := stack[len(stack)-1]
		r.filterStacks[e.Rep] = stack[:len(stack)-1]
		r.filters.add(top.name, top.w.stop(now))

	case events.CompilationSuspended:
		for _, nw := range r.filterStacks[e.Rep] {
			nw.w.pause(now)
		}

	case events.CompilationStarted, events.CompilationResumed:
		for _, nw := range r.filterStacks[e.Rep] {
			nw.w.start(now)
		}

	case events.PhaseStarted:
		w := &stopwatch{}
		w.start(now)
		r.phases[key] = w

	case events.PhaseYielded:
		if w, ok := r.phases[key]; ok {
			w.pause(now)
		}

	case events.PhaseResumed:
		if w, ok := r.phases[key]; ok {
			w.start(now)
		}

	case events.PhaseEnded, events.PhaseAborted:
		if w, ok := r.phases[key]; ok {
			delete(r.phases, key)
			r.phasesS.add(e.Label, w.stop(now))
		}

	case events.StageStarted:
		r.stageStarts[e.Label] = now

	case events.StageEnded:
		if start, ok := r.stageStarts[e.Label]; ok {
			delete(r.stageStarts, e.Label)
			r.stages.add(e.Label, now.Sub(start))
		}

	case events.OutdatednessRuleStarted:
		r.ruleStarts[key] = now

	case events.OutdatednessRuleEnded:
		if start, ok := r.ruleStarts[key]; ok {
			delete(r.ruleStarts, key)
			r.rules.add(e.Label, now.Sub(start))
		}
	}
}
