package engine

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/kiln/internal/events"
	"github.com/roach88/kiln/internal/filters"
	"github.com/roach88/kiln/internal/ir"
	"github.com/roach88/kiln/internal/output"
	"github.com/roach88/kiln/internal/snapshot"
)

// fixture bundles the collaborators of a compiler under test.
type fixture struct {
	t        *testing.T
	dir      string
	store    *snapshot.Store
	out      *output.Writer
	rec      *events.Recorder
	registry *filters.Registry
	logger   *slog.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{
		t:        t,
		dir:      dir,
		store:    snapshot.NewMemory(),
		out:      output.NewWriter(dir, logger),
		rec:      events.NewRecorder(),
		registry: filters.Builtin(),
		logger:   logger,
	}
}

func (f *fixture) compiler(reps []*ir.Rep, opts ...Option) *Compiler {
	f.t.Helper()
	base := []Option{WithBus(events.NewBus(f.rec)), WithLogger(f.logger)}
	c, err := New(reps, f.store, f.registry, f.out, append(base, opts...)...)
	require.NoError(f.t, err)
	return c
}

// file returns the content of a site path, or "" when it does not exist.
func (f *fixture) file(sitePath string) string {
	f.t.Helper()
	data, err := os.ReadFile(filepath.Join(f.dir, filepath.FromSlash(sitePath)))
	if os.IsNotExist(err) {
		return ""
	}
	require.NoError(f.t, err)
	return string(data)
}

func (f *fixture) exists(sitePath string) bool {
	_, err := os.Stat(filepath.Join(f.dir, filepath.FromSlash(sitePath)))
	return err == nil
}

func newRep(id, body string, steps ...ir.Step) *ir.Rep {
	item := &ir.Item{
		Identifier: id,
		Content:    ir.TextContent(body),
		Attributes: map[string]any{},
	}
	return ir.NewRep(item, "", ir.Recipe(steps))
}
