// Package events implements the lifecycle event bus of a compile run.
//
// A Bus is created per run and injected into every component that emits
// events (compiler, execution, outdatedness checker, site). There is no
// global notification center: tests and observability consumers attach
// their own sinks without shared mutable state.
//
// Every event is stamped with a monotonic logical sequence number from the
// bus Clock. Consumers rely on the emission order, not on wall time:
//   - started/ended events form a matched stack per rep and label
//   - compilation_suspended pauses the currently open timers of a rep
//     without closing them; the next compilation_started or
//     compilation_resumed for that rep resumes them
package events
