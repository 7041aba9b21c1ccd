package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/kiln/internal/ir"
)

// RuntimeError represents a fatal error detected during compilation.
//
// Runtime errors include:
//   - Recursive compilation: a rep re-entered while on the active stack
//   - Duplicate snapshot: a rep wrote a snapshot name twice in one pass
//   - Step failure: a filter or layout reported an error
//   - No such snapshot: a compiled rep never wrote the snapshot read
//   - Unknown rep: a filter read a rep that does not exist
//
// RuntimeError includes structured fields for diagnostics.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Rep identifies the rep being compiled.
	Rep ir.RepKey

	// StepIndex is the failing step, or -1 when not step specific.
	StepIndex int

	// Step describes the failing step ("filter upcase").
	Step string

	// Cycle is the rep chain for recursive compilation errors. The first
	// and last elements are the re-entered rep.
	Cycle []ir.RepKey

	// Err is the underlying error, returned unchanged by Unwrap.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeRecursiveCompilation indicates a dependency cycle.
	ErrCodeRecursiveCompilation RuntimeErrorCode = "RECURSIVE_COMPILATION"

	// ErrCodeDuplicateSnapshot indicates a snapshot name was written twice.
	ErrCodeDuplicateSnapshot RuntimeErrorCode = "DUPLICATE_SNAPSHOT"

	// ErrCodeStepFailed indicates a filter or layout failure.
	ErrCodeStepFailed RuntimeErrorCode = "STEP_FAILED"

	// ErrCodeNoSuchSnapshot indicates a read of a snapshot a compiled rep
	// never wrote.
	ErrCodeNoSuchSnapshot RuntimeErrorCode = "NO_SUCH_SNAPSHOT"

	// ErrCodeUnknownRep indicates a read of a rep that does not exist.
	ErrCodeUnknownRep RuntimeErrorCode = "UNKNOWN_REP"

	// ErrCodeUnmetDependency indicates a suspension signal escaped the
	// compiler. Always an internal bug.
	ErrCodeUnmetDependency RuntimeErrorCode = "UNMET_DEPENDENCY"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s", e.Code, e.Message)
	if e.Rep != (ir.RepKey{}) && e.Step != "" {
		fmt.Fprintf(&sb, " (rep=%s, step=%d %s)", e.Rep, e.StepIndex, e.Step)
	} else if e.Rep != (ir.RepKey{}) {
		fmt.Fprintf(&sb, " (rep=%s)", e.Rep)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	return sb.String()
}

// Unwrap returns the underlying error.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsRecursiveCompilation returns true if the error is a cycle error.
// Uses errors.As to handle wrapped errors.
func IsRecursiveCompilation(err error) bool {
	return hasCode(err, ErrCodeRecursiveCompilation)
}

// IsDuplicateSnapshot returns true if the error is a duplicate snapshot
// error, raised either by recipe validation or by the snapshot store.
func IsDuplicateSnapshot(err error) bool {
	if hasCode(err, ErrCodeDuplicateSnapshot) {
		return true
	}
	var de *ir.DuplicateSnapshotError
	return errors.As(err, &de)
}

// IsStepFailure returns true if a filter or layout failed.
func IsStepFailure(err error) bool {
	return hasCode(err, ErrCodeStepFailed)
}

// IsNoSuchSnapshot returns true if a read named a snapshot that was never
// written.
func IsNoSuchSnapshot(err error) bool {
	return hasCode(err, ErrCodeNoSuchSnapshot)
}

// IsUnknownRep returns true if a read named a rep that does not exist.
func IsUnknownRep(err error) bool {
	return hasCode(err, ErrCodeUnknownRep)
}

// IsUnmetDependency returns true for the suspension signal, either raw or
// converted into a RuntimeError at the top of a run.
func IsUnmetDependency(err error) bool {
	if hasCode(err, ErrCodeUnmetDependency) {
		return true
	}
	var ue *UnmetDependencyError
	return errors.As(err, &ue)
}

// CycleOf returns the cycle witness of a recursive compilation error.
func CycleOf(err error) []ir.RepKey {
	var re *RuntimeError
	if errors.As(err, &re) && re.Code == ErrCodeRecursiveCompilation {
		return re.Cycle
	}
	return nil
}

// NewRecursiveCompilationError creates a RuntimeError for a cycle.
func NewRecursiveCompilationError(cycle []ir.RepKey) *RuntimeError {
	names := make([]string, len(cycle))
	for i, k := range cycle {
		names[i] = k.String()
	}
	var rep ir.RepKey
	if len(cycle) > 0 {
		rep = cycle[0]
	}
	return &RuntimeError{
		Code:      ErrCodeRecursiveCompilation,
		Message:   "recursive compilation: " + strings.Join(names, " -> "),
		Rep:       rep,
		StepIndex: -1,
		Cycle:     cycle,
	}
}

// NewStepError creates a RuntimeError for a failing step.
func NewStepError(rep ir.RepKey, index int, step ir.Step, err error) *RuntimeError {
	return &RuntimeError{
		Code:      ErrCodeStepFailed,
		Message:   "step failed",
		Rep:       rep,
		StepIndex: index,
		Step:      step.String(),
		Err:       err,
	}
}

// NewDuplicateSnapshotError wraps a duplicate snapshot failure of rep.
func NewDuplicateSnapshotError(rep ir.RepKey, index int, err *ir.DuplicateSnapshotError) *RuntimeError {
	re := &RuntimeError{
		Code:      ErrCodeDuplicateSnapshot,
		Message:   fmt.Sprintf("snapshot %q written twice", err.Snapshot),
		Rep:       rep,
		StepIndex: index,
		Err:       err,
	}
	if index >= 0 {
		re.Step = ir.Snapshot(err.Snapshot).String()
	}
	return re
}

// UnmetDependencyError is the suspension signal: Rep cannot proceed until
// Target is compiled (or has written Snapshot, when set).
//
// It is consumed by the compiler and never reaches users.
type UnmetDependencyError struct {
	Rep      ir.RepKey
	Target   ir.RepKey
	Snapshot string
}

// Error implements the error interface.
func (e *UnmetDependencyError) Error() string {
	if e.Snapshot != "" {
		return fmt.Sprintf("%s: %s awaits %s at snapshot %q", ErrCodeUnmetDependency, e.Rep, e.Target, e.Snapshot)
	}
	return fmt.Sprintf("%s: %s awaits %s", ErrCodeUnmetDependency, e.Rep, e.Target)
}
