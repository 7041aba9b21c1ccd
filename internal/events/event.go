package events

import (
	"fmt"

	"github.com/roach88/kiln/internal/ir"
)

// Kind names a lifecycle event.
type Kind string

const (
	StageStarted Kind = "stage_started"
	StageEnded   Kind = "stage_ended"

	OutdatednessRuleStarted Kind = "outdatedness_rule_started"
	OutdatednessRuleEnded   Kind = "outdatedness_rule_ended"

	CompilationStarted   Kind = "compilation_started"
	CompilationSuspended Kind = "compilation_suspended"
	CompilationResumed   Kind = "compilation_resumed"
	CompilationEnded     Kind = "compilation_ended"

	FilteringStarted Kind = "filtering_started"
	FilteringEnded   Kind = "filtering_ended"

	PhaseStarted Kind = "phase_started"
	PhaseEnded   Kind = "phase_ended"
	PhaseYielded Kind = "phase_yielded"
	PhaseResumed Kind = "phase_resumed"
	PhaseAborted Kind = "phase_aborted"

	RepWritten Kind = "rep_written"
)

// Event is one lifecycle notification.
//
// Rep is the zero RepKey for run-level events (stages).
// Label carries the filter, phase, stage or rule name; for
// compilation_suspended it carries the awaited rep; for rep_written the
// output path.
type Event struct {
	Seq   int64     `json:"seq"`
	Kind  Kind      `json:"kind"`
	Rep   ir.RepKey `json:"rep"`
	Label string    `json:"label,omitempty"`
}

// String renders the event as a single trace line.
func (e Event) String() string {
	rep := "-"
	if e.Rep != (ir.RepKey{}) {
		rep = e.Rep.String()
	}
	if e.Label == "" {
		return fmt.Sprintf("%d %s %s", e.Seq, e.Kind, rep)
	}
	return fmt.Sprintf("%d %s %s %s", e.Seq, e.Kind, rep, e.Label)
}

// Sink consumes events. Emit is called synchronously, in order.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

// Emit implements Sink.
func (f SinkFunc) Emit(e Event) { f(e) }
