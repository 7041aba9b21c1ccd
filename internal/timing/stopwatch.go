package timing

import "time"

// stopwatch accumulates running time across pauses.
type stopwatch struct {
	elapsed time.Duration
	started time.Time
	running bool
}

func (w *stopwatch) start(now time.Time) {
	if w.running {
		return
	}
	w.started = now
	w.running = true
}

func (w *stopwatch) pause(now time.Time) {
	if !w.running {
		return
	}
	w.elapsed += now.Sub(w.started)
	w.running = false
}

// stop pauses the watch and returns the accumulated time.
func (w *stopwatch) stop(now time.Time) time.Duration {
	w.pause(now)
	return w.elapsed
}
