package events

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/roach88/kiln/internal/ir"
)

// Recorder is a sink that keeps every event in memory.
// Used by tests and by the CLI trace output.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Emit implements Sink.
func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Kinds returns the kinds of the recorded events for rep, in order.
func (r *Recorder) Kinds(rep ir.RepKey) []Kind {
	var kinds []Kind
	for _, e := range r.Events() {
		if e.Rep == rep {
			kinds = append(kinds, e.Kind)
		}
	}
	return kinds
}

// Count returns the number of events of kind.
func (r *Recorder) Count(kind Kind) int {
	n := 0
	for _, e := range r.Events() {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Trace renders the recorded events one per line.
func (r *Recorder) Trace() string {
	var sb strings.Builder
	for _, e := range r.Events() {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// LogSink logs every event at debug level.
type LogSink struct {
	Logger *slog.Logger
}

// Emit implements Sink.
func (s LogSink) Emit(e Event) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{"seq", e.Seq, "event", string(e.Kind)}
	if e.Rep != (ir.RepKey{}) {
		attrs = append(attrs, "rep", e.Rep.String())
	}
	if e.Label != "" {
		attrs = append(attrs, "label", e.Label)
	}
	logger.Debug("compile event", attrs...)
}
