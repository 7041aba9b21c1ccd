package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualClock(t *testing.T) {
	start := time.Date(2008, 9, 1, 10, 5, 0, 0, time.UTC)
	c := NewManualClock(start)
	assert.Equal(t, start, c.Now())

	c.Advance(2 * time.Second)
	assert.Equal(t, start.Add(2*time.Second), c.Now())

	c.Set(start)
	assert.Equal(t, start, c.Now())
}

func TestStaticRunID(t *testing.T) {
	assert.Equal(t, "run-1", NewStaticRunID("run-1").Generate())
	assert.Equal(t, "test-run-default", NewStaticRunID("").Generate())
}

func TestWriteAndReadFiles(t *testing.T) {
	dir := t.TempDir()
	WriteFiles(t, dir, map[string]string{
		"content/a.html":   "a",
		"content/x/b.html": "b",
	})
	assert.Equal(t, "a", ReadFile(t, dir, "content/a.html"))
	assert.Equal(t, "b", ReadFile(t, dir, "content/x/b.html"))
	assert.Equal(t, "", ReadFile(t, dir, "missing"))
}
