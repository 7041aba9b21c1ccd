package events

import (
	"sync"

	"github.com/roach88/kiln/internal/ir"
)

// Bus fans lifecycle events out to its sinks, stamping each with a seq.
//
// A nil *Bus is valid and drops every event, so components can be used
// without observability wiring.
type Bus struct {
	mu    sync.Mutex
	clock *Clock
	sinks []Sink
}

// NewBus creates a bus delivering to sinks in order.
func NewBus(sinks ...Sink) *Bus {
	return &Bus{
		clock: NewClock(),
		sinks: append([]Sink(nil), sinks...),
	}
}

// Attach adds a sink. Events already posted are not replayed.
func (b *Bus) Attach(s Sink) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = append(b.sinks, s)
}

// Post stamps and delivers an event.
// Delivery happens under the bus lock so sinks observe a total order.
func (b *Bus) Post(kind Kind, rep ir.RepKey, label string) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	ev := Event{
		Seq:   b.clock.Next(),
		Kind:  kind,
		Rep:   rep,
		Label: label,
	}
	for _, s := range b.sinks {
		s.Emit(ev)
	}
}

// Stage runs fn between stage_started and stage_ended events.
// stage_ended is posted even when fn fails.
func (b *Bus) Stage(name string, fn func() error) error {
	b.Post(StageStarted, ir.RepKey{}, name)
	defer b.Post(StageEnded, ir.RepKey{}, name)
	return fn()
}
