package site

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuns_ListsCompilations(t *testing.T) {
	f := newFixture(t)
	s := f.site()
	ctx := context.Background()

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs)

	_, err = s.Compile(ctx)
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	_, err = s.Compile(ctx)
	require.NoError(t, err)

	runs, err = s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, "run-2", runs[1].ID)
	assert.True(t, runs[1].StartedAt.After(runs[0].StartedAt))
}
