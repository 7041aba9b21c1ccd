package engine

import "github.com/roach88/kiln/internal/ir"

// repQueue is a FIFO queue of reps waiting to be compiled.
//
// The compiler enqueues the outdated set in declaration order and its
// control loop dequeues one rep at a time. Reps compiled on demand while
// another rep was suspended are still dequeued later; compile is memoized
// so they are skipped. Only the control loop touches the queue.
type repQueue struct {
	reps []ir.RepKey
}

// newRepQueue creates a queue holding reps in order.
func newRepQueue(reps []ir.RepKey) *repQueue {
	return &repQueue{reps: append([]ir.RepKey(nil), reps...)}
}

// TryDequeue removes and returns the front rep.
// Returns (RepKey{}, false) if the queue is empty.
func (q *repQueue) TryDequeue() (ir.RepKey, bool) {
	if len(q.reps) == 0 {
		return ir.RepKey{}, false
	}
	rep := q.reps[0]
	q.reps = q.reps[1:]
	return rep, true
}
