package testutil

// StaticRunID generates the same run ID every time.
//
// It makes the run ID in single-compile output deterministic. A metadata
// store rejects a second run with the same ID.
//
// Thread-safety: StaticRunID is stateless and safe for concurrent use.
type StaticRunID struct {
	id string
}

// NewStaticRunID creates a static run ID generator.
// If id is empty, Generate() returns "test-run-default".
func NewStaticRunID(id string) *StaticRunID {
	if id == "" {
		id = "test-run-default"
	}
	return &StaticRunID{id: id}
}

// Generate returns the fixed run ID.
func (g *StaticRunID) Generate() string {
	return g.id
}
