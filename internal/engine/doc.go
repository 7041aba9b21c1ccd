// Package engine implements the incremental compiler of kiln.
//
// ARCHITECTURE:
//
// Single Control Loop:
// The Compiler owns every piece of per-run state (rep statuses, the active
// stack, the suspended executions, the snapshot store) and mutates it from
// one goroutine. At most one rep executes a step at any instant. There is
// no parallel rep execution.
//
// Run Flow:
//  1. The outdatedness checker computes the outdated set (stage
//     "determine_outdatedness").
//  2. Every outdated recipe is validated; a duplicate snapshot name fails
//     the run before any step executes.
//  3. Outdated reps are queued in declaration order and compiled one at a
//     time (stage "compile_reps").
//
// Suspension:
// Each rep runs inside an Execution, an explicit resumable state machine
// holding {step index, open filter}. When a filter reads another rep whose
// content is not ready, the read records the awaited rep on the execution
// and the execution yields an *UnmetDependencyError. The compiler then
// compiles the awaited rep and resumes the same execution at the same step.
// The interrupted step is retried from its start; completed steps never run
// again.
//
// Cycles:
// The compiler keeps an active stack of reps mid-compilation. Entering a rep
// already on the stack fails with RECURSIVE_COMPILATION and reports the
// stack suffix as the cycle witness.
//
// Events:
// Every lifecycle transition is posted to the injected events.Bus. Pairing
// discipline: compilation_started/ended and phase_started/ended bracket a
// rep's execution; a suspension posts phase_yielded then
// compilation_suspended; the matching resume posts compilation_resumed then
// phase_resumed. A filter interrupted by a suspension stays open: its
// filtering_started is posted once and its filtering_ended after the retry
// completes.
package engine
