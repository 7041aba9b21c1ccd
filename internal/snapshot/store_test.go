package snapshot

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kiln/internal/ir"
)

// backends returns a fresh Store per backend so every behaviour test runs
// against both implementations.
func backends(t *testing.T) map[string]*Store {
	t.Helper()

	badgerMem, err := OpenBadger(BadgerConfig{InMemory: true})
	require.NoError(t, err)

	badgerDisk, err := OpenBadger(BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)

	stores := map[string]*Store{
		"memory":        NewMemory(),
		"badger-memory": New(badgerMem),
		"badger-disk":   New(badgerDisk),
	}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

var (
	repA = ir.NewRepKey("/a.html", "")
	repB = ir.NewRepKey("/b.html", "")
)

// =============================================================================
// Put / Get
// =============================================================================

func TestStore_PutGet(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put(repA, "raw", ir.TextContent("hello")))

			got, found, err := s.Get(repA, "raw")
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, "hello", got.Body)

			_, found, err = s.Get(repA, "missing")
			require.NoError(t, err)
			assert.False(t, found)

			_, found, err = s.Get(repB, "raw")
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestStore_GetDefaultsToLastWritten(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, found, err := s.Get(repA, "")
			require.NoError(t, err)
			assert.False(t, found, "no snapshot written yet")

			require.NoError(t, s.Put(repA, "raw", ir.TextContent("one")))
			require.NoError(t, s.Put(repA, "pre", ir.TextContent("two")))

			got, found, err := s.Get(repA, "")
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, "two", got.Body)

			names, err := s.Names(repA)
			require.NoError(t, err)
			assert.Equal(t, []string{"raw", "pre"}, names)
		})
	}
}

func TestStore_PutDuplicateFails(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put(repA, "aaa", ir.TextContent("first")))

			err := s.Put(repA, "aaa", ir.TextContent("second"))
			require.Error(t, err)

			var dup *ir.DuplicateSnapshotError
			require.True(t, errors.As(err, &dup))
			assert.Equal(t, repA, dup.Rep)
			assert.Equal(t, "aaa", dup.Snapshot)

			got, _, err := s.Get(repA, "aaa")
			require.NoError(t, err)
			assert.Equal(t, "first", got.Body, "existing content must not be overwritten")
		})
	}
}

func TestStore_PutEmptyNameFails(t *testing.T) {
	s := NewMemory()
	assert.Error(t, s.Put(repA, "", ir.TextContent("x")))
}

func TestStore_BinaryContentRoundTrips(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			in := ir.Content{Body: "\x89PNG\x00\x01", Binary: true}
			require.NoError(t, s.Put(repA, "raw", in))
			got, found, err := s.Get(repA, "raw")
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, in, got)
		})
	}
}

// failingBackend rejects batched writes once fail is set.
type failingBackend struct {
	*MemoryBackend
	fail bool
}

func (f *failingBackend) SetMany(entries ...Entry) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.MemoryBackend.SetMany(entries...)
}

func TestStore_FailedPutLeavesLastSnapshotIntact(t *testing.T) {
	backend := &failingBackend{MemoryBackend: NewMemoryBackend()}
	s := New(backend)
	require.NoError(t, s.Put(repA, "raw", ir.TextContent("one")))

	backend.fail = true
	require.Error(t, s.Put(repA, "pre", ir.TextContent("two")))

	got, found, err := s.Get(repA, "")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "one", got.Body)

	names, err := s.Names(repA)
	require.NoError(t, err)
	assert.Equal(t, []string{"raw"}, names)

	found, err = s.Has(repA, "pre")
	require.NoError(t, err)
	assert.False(t, found)

	backend.fail = false
	require.NoError(t, s.Put(repA, "pre", ir.TextContent("two")), "name is free after a failed write")
}

// =============================================================================
// Compiled markers and passes
// =============================================================================

func TestStore_CompiledMarker(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ok, err := s.IsCompiled(repA)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.MarkCompiled(repA))
			ok, err = s.IsCompiled(repA)
			require.NoError(t, err)
			assert.True(t, ok)

			reps, err := s.CompiledReps()
			require.NoError(t, err)
			assert.Equal(t, []ir.RepKey{repA}, reps)
		})
	}
}

func TestStore_BeginPassClearsOnlyListedReps(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put(repA, "raw", ir.TextContent("a")))
			require.NoError(t, s.MarkCompiled(repA))
			require.NoError(t, s.Put(repB, "raw", ir.TextContent("b")))
			require.NoError(t, s.MarkCompiled(repB))

			require.NoError(t, s.BeginPass([]ir.RepKey{repA}))

			_, found, err := s.Get(repA, "raw")
			require.NoError(t, err)
			assert.False(t, found)
			ok, err := s.IsCompiled(repA)
			require.NoError(t, err)
			assert.False(t, ok)
			names, err := s.Names(repA)
			require.NoError(t, err)
			assert.Empty(t, names)

			got, found, err := s.Get(repB, "raw")
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, "b", got.Body)
			ok, err = s.IsCompiled(repB)
			require.NoError(t, err)
			assert.True(t, ok)

			// The cleared rep can write the same names again.
			require.NoError(t, s.Put(repA, "raw", ir.TextContent("a2")))
		})
	}
}

func TestStore_BeginPassDoesNotTouchSimilarKeys(t *testing.T) {
	s := NewMemory()
	other := ir.NewRepKey("/a.html", "default2")
	require.NoError(t, s.Put(other, "raw", ir.TextContent("x")))
	require.NoError(t, s.MarkCompiled(other))

	require.NoError(t, s.BeginPass([]ir.RepKey{repA}))

	ok, err := s.IsCompiled(other)
	require.NoError(t, err)
	assert.True(t, ok)
	found, err := s.Has(other, "raw")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestBadger_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	b, err := OpenBadger(BadgerConfig{Path: dir, SyncWrites: true})
	require.NoError(t, err)
	s := New(b)
	require.NoError(t, s.Put(repA, "last", ir.TextContent("kept")))
	require.NoError(t, s.MarkCompiled(repA))
	require.NoError(t, s.Close())

	b, err = OpenBadger(BadgerConfig{Path: dir})
	require.NoError(t, err)
	s = New(b)
	defer s.Close()

	got, found, err := s.Get(repA, "")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "kept", got.Body)
	ok, err := s.IsCompiled(repA)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOpenBadger_RequiresPath(t *testing.T) {
	_, err := OpenBadger(BadgerConfig{})
	assert.Error(t, err)
}
