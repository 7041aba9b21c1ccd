package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/kiln/internal/ir"
)

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var testEpoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// createTestRun creates a run record with one edge and two checksums.
func createTestRun(id string) RunRecord {
	foo := ir.NewRepKey("/foo.html", "")
	bar := ir.NewRepKey("/bar.html", "")
	return RunRecord{
		ID:         id,
		StartedAt:  testEpoch,
		FinishedAt: testEpoch.Add(1500 * time.Millisecond),
		RepCount:   2,
		Written:    2,
		Checksums: map[string]string{
			"content:/foo.html": "aaa",
			"content:/bar.html": "bbb",
		},
		Edges: []ir.DependencyEdge{
			{From: foo, To: bar, Kind: ir.EdgeCompiledContent},
		},
		Compiled: []ir.RepKey{foo, bar},
	}
}
