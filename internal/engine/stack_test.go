package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kiln/internal/ir"
)

func TestActiveStack(t *testing.T) {
	a := ir.NewRepKey("/a", "")
	b := ir.NewRepKey("/b", "")
	c := ir.NewRepKey("/c", "")

	s := NewActiveStack()
	assert.False(t, s.Contains(a))
	assert.Nil(t, s.CycleFrom(a))

	s.Push(a)
	s.Push(b)
	s.Push(c)
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Contains(b))
	assert.Equal(t, []ir.RepKey{a, b, c}, s.Path())
	assert.Equal(t, []ir.RepKey{b, c, b}, s.CycleFrom(b))
	assert.Equal(t, []ir.RepKey{c, c}, s.CycleFrom(c))

	s.Pop()
	assert.False(t, s.Contains(c))
	assert.Equal(t, 2, s.Len())

	s.Pop()
	s.Pop()
	s.Pop() // popping an empty stack is harmless
	assert.Equal(t, 0, s.Len())
}

func TestRepQueue_FIFO(t *testing.T) {
	var reps []ir.RepKey
	for i := 0; i < 3; i++ {
		reps = append(reps, ir.NewRepKey(fmt.Sprintf("/%d", i), ""))
	}
	q := newRepQueue(reps)
	reps[0] = ir.NewRepKey("/changed", "")

	for i := 0; i < 3; i++ {
		k, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("/%d", i), k.Item)
	}
	_, ok := q.TryDequeue()
	assert.False(t, ok)
}

func TestRepQueue_Empty(t *testing.T) {
	_, ok := newRepQueue(nil).TryDequeue()
	assert.False(t, ok)
}

// =============================================================================
// Errors
// =============================================================================

func TestErrorHelpers(t *testing.T) {
	a := ir.NewRepKey("/a", "")
	b := ir.NewRepKey("/b", "")

	cycle := NewRecursiveCompilationError([]ir.RepKey{a, b, a})
	wrapped := fmt.Errorf("compile: %w", cycle)
	assert.True(t, IsRecursiveCompilation(wrapped))
	assert.Equal(t, []ir.RepKey{a, b, a}, CycleOf(wrapped))
	assert.False(t, IsStepFailure(wrapped))

	boom := errors.New("boom")
	step := NewStepError(a, 2, ir.Filter("erb", nil), boom)
	assert.True(t, IsStepFailure(step))
	assert.ErrorIs(t, step, boom)
	assert.Equal(t, "STEP_FAILED: step failed (rep=/a#default, step=2 filter erb): boom", step.Error())
	assert.Nil(t, CycleOf(step))

	dup := &ir.DuplicateSnapshotError{Rep: a, Snapshot: "x", StepIndex: 1}
	assert.True(t, IsDuplicateSnapshot(dup))
	assert.True(t, IsDuplicateSnapshot(NewDuplicateSnapshotError(a, 1, dup)))

	unmet := &UnmetDependencyError{Rep: a, Target: b}
	assert.True(t, IsUnmetDependency(unmet))
	assert.Equal(t, "UNMET_DEPENDENCY: /a#default awaits /b#default", unmet.Error())
	assert.Contains(t, (&UnmetDependencyError{Rep: a, Target: b, Snapshot: "pre"}).Error(), `at snapshot "pre"`)

	assert.False(t, IsUnknownRep(nil))
	assert.False(t, IsNoSuchSnapshot(boom))
}

func TestParseRef(t *testing.T) {
	k, err := parseRef("/a.html")
	require.NoError(t, err)
	assert.Equal(t, ir.NewRepKey("/a.html", ""), k)

	k, err = parseRef("/a.html#amp")
	require.NoError(t, err)
	assert.Equal(t, ir.NewRepKey("/a.html", "amp"), k)

	_, err = parseRef("")
	assert.Error(t, err)
}

func TestExecState_String(t *testing.T) {
	assert.Equal(t, "suspended", ExecSuspended.String())
	assert.Equal(t, "exec_state(42)", ExecState(42).String())
}
