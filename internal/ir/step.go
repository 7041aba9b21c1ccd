package ir

import "fmt"

// Step is a sealed interface representing one recipe step.
// Only FilterStep, LayoutStep, SnapshotStep and WriteStep implement it.
type Step interface {
	step() // Sealed - only these types implement it
	String() string
}

// FilterStep runs the named filter over the current content.
type FilterStep struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

func (FilterStep) step() {}

func (s FilterStep) String() string { return "filter " + s.Name }

// LayoutStep wraps the current content in the named layout.
type LayoutStep struct {
	Name string         `json:"name"` // Layout identifier, e.g. "/default.html"
	Args map[string]any `json:"args,omitempty"`
}

func (LayoutStep) step() {}

func (s LayoutStep) String() string { return "layout " + s.Name }

// SnapshotStep captures the current content under a name.
type SnapshotStep struct {
	Name string `json:"name"`
}

func (SnapshotStep) step() {}

func (s SnapshotStep) String() string { return "snapshot " + s.Name }

// WriteStep writes the current content to an output path.
// An empty Path means the router decides.
type WriteStep struct {
	Path string `json:"path"`
}

func (WriteStep) step() {}

func (s WriteStep) String() string {
	if s.Path == "" {
		return "write (routed)"
	}
	return "write " + s.Path
}

// Filter creates a FilterStep.
func Filter(name string, args map[string]any) Step {
	return FilterStep{Name: name, Args: args}
}

// ApplyLayout creates a LayoutStep.
func ApplyLayout(name string, args map[string]any) Step {
	return LayoutStep{Name: name, Args: args}
}

// Snapshot creates a SnapshotStep.
func Snapshot(name string) Step {
	return SnapshotStep{Name: name}
}

// Write creates a WriteStep.
func Write(path string) Step {
	return WriteStep{Path: path}
}

// Reserved snapshot names. The engine writes SnapshotRaw before the first
// step and SnapshotLast once the recipe completes.
const (
	SnapshotRaw  = "raw"
	SnapshotLast = "last"
)

// ReservedSnapshots lists snapshot names a recipe may not declare.
var ReservedSnapshots = map[string]bool{
	SnapshotRaw:  true,
	SnapshotLast: true,
}

// Recipe is the ordered list of steps producing a rep.
type Recipe []Step

// Validate checks the structural rules of a recipe for rep.
// A snapshot name may appear at most once and may not shadow a reserved name.
func (r Recipe) Validate(rep RepKey) error {
	seen := make(map[string]bool, len(r))
	for i, st := range r {
		switch s := st.(type) {
		case SnapshotStep:
			if s.Name == "" {
				return fmt.Errorf("rep %s: step %d: snapshot name is empty", rep, i)
			}
			if seen[s.Name] || ReservedSnapshots[s.Name] {
				return &DuplicateSnapshotError{Rep: rep, Snapshot: s.Name, StepIndex: i}
			}
			seen[s.Name] = true
		case FilterStep:
			if s.Name == "" {
				return fmt.Errorf("rep %s: step %d: filter name is empty", rep, i)
			}
		case LayoutStep:
			if s.Name == "" {
				return fmt.Errorf("rep %s: step %d: layout name is empty", rep, i)
			}
		case WriteStep:
		case nil:
			return fmt.Errorf("rep %s: step %d: nil step", rep, i)
		}
	}
	return nil
}

// SnapshotNames returns the declared snapshot names in recipe order.
func (r Recipe) SnapshotNames() []string {
	var names []string
	for _, st := range r {
		if s, ok := st.(SnapshotStep); ok {
			names = append(names, s.Name)
		}
	}
	return names
}

// WritePaths returns the explicit paths of all write steps in recipe order.
// Routed writes (empty path) are returned as "".
func (r Recipe) WritePaths() []string {
	var paths []string
	for _, st := range r {
		if s, ok := st.(WriteStep); ok {
			paths = append(paths, s.Path)
		}
	}
	return paths
}

// DuplicateSnapshotError is raised when a rep writes a snapshot name it
// already wrote in this pass. It is fatal for the whole run.
type DuplicateSnapshotError struct {
	Rep       RepKey
	Snapshot  string
	StepIndex int // -1 when raised by the store rather than recipe validation
}

// Error implements the error interface.
func (e *DuplicateSnapshotError) Error() string {
	return fmt.Sprintf("DUPLICATE_SNAPSHOT: rep %s cannot create multiple snapshots named %q", e.Rep, e.Snapshot)
}
