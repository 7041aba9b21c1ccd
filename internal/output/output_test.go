package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kiln/internal/ir"
)

func TestPrettyRouter(t *testing.T) {
	tests := []struct {
		item string
		rep  string
		want string
	}{
		{"/foo.html", "", "/foo/index.html"},
		{"/index.html", "", "/index.html"},
		{"/blog/post.html", "", "/blog/post/index.html"},
		{"/blog/index.html", "", "/blog/index.html"},
		{"/style.css", "", "/style.css"},
		{"/foo.html", "amp", "/amp/foo/index.html"},
		{"foo.htm", "", "/foo/index.html"},
	}
	for _, tt := range tests {
		t.Run(tt.item+"#"+tt.rep, func(t *testing.T) {
			assert.Equal(t, tt.want, PrettyRouter{}.Route(ir.NewRepKey(tt.item, tt.rep)))
		})
	}
}

func TestVerbatimRouter(t *testing.T) {
	assert.Equal(t, "/foo.html", VerbatimRouter{}.Route(ir.NewRepKey("/foo.html", "")))
	assert.Equal(t, "/blog/a.md", VerbatimRouter{}.Route(ir.NewRepKey("blog/a.md", "")))
	assert.Equal(t, "/raw/foo.html", VerbatimRouter{}.Route(ir.NewRepKey("/foo.html", "raw")))
}

func TestResolveAndSitePaths(t *testing.T) {
	item := &ir.Item{Identifier: "/foo.html"}
	rep := ir.NewRep(item, "", ir.Recipe{
		ir.Filter("upcase", nil),
		ir.Write(""),
		ir.Write("feed.xml"),
	})
	assert.Equal(t, []string{"/foo/index.html", "/feed.xml"}, SitePaths(PrettyRouter{}, rep))

	custom := RouterFunc(func(k ir.RepKey) string { return "/x" + k.Item })
	assert.Equal(t, "/x/foo.html", Resolve(custom, rep.Key, ir.WriteStep{}))
}

func TestWriter_WriteSkipsIdenticalContent(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, nil)

	changed, err := w.Write("/foo/index.html", []byte("hello"))
	require.NoError(t, err)
	assert.True(t, changed)

	data, err := os.ReadFile(filepath.Join(dir, "foo", "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	changed, err = w.Write("/foo/index.html", []byte("hello"))
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = w.Write("/foo/index.html", []byte("bye"))
	require.NoError(t, err)
	assert.True(t, changed)

	assert.True(t, w.Exists("/foo/index.html"))
	assert.False(t, w.Exists("/bar/index.html"))
}

func TestWriter_Prune(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, nil)

	_, err := w.Write("/keep/index.html", []byte("k"))
	require.NoError(t, err)
	_, err = w.Write("/stale/deep/index.html", []byte("s"))
	require.NoError(t, err)
	_, err = w.Write("/stale.css", []byte("s"))
	require.NoError(t, err)

	removed, err := w.Prune([]string{"/keep/index.html"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/stale.css", "/stale/deep/index.html"}, removed)

	assert.True(t, w.Exists("/keep/index.html"))
	_, err = os.Stat(filepath.Join(dir, "stale"))
	assert.True(t, os.IsNotExist(err), "empty directories are removed")
}

func TestWriter_PruneMissingDir(t *testing.T) {
	w := NewWriter(filepath.Join(t.TempDir(), "nope"), nil)
	removed, err := w.Prune(nil)
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestWriter_StaleAndFiles(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, nil)

	_, err := w.Write("/keep/index.html", []byte("a"))
	require.NoError(t, err)
	_, err = w.Write("/old.txt", []byte("b"))
	require.NoError(t, err)

	files, err := Files(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"/keep/index.html", "/old.txt"}, files)

	stale, err := w.Stale([]string{"/keep/index.html"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/old.txt"}, stale)
	assert.True(t, w.Exists("/old.txt"), "Stale does not remove")

	missing, err := Files(filepath.Join(dir, "nope"))
	require.NoError(t, err)
	assert.Empty(t, missing)
}
