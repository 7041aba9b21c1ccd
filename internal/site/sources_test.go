package site

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kiln/internal/testutil"
)

// removeFile deletes dir/rel.
func removeFile(dir, rel string) error {
	return os.Remove(filepath.Join(dir, filepath.FromSlash(rel)))
}

func TestLoadItems(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{
		"index.md":      "---\ntitle: Home\ntags: [a, b]\n---\n\nbody",
		"plain.txt":     "no frontmatter",
		"blog/post.md":  "---\n---\nempty frontmatter",
		"logo.png":      "\x89PNG\x00",
		"cafe\u0301.md": "decomposed name",
		"unclosed.md":   "---\ntitle: x\nno end",
	})

	items, err := LoadItems(dir)
	require.NoError(t, err)

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.Identifier
	}
	assert.Equal(t, []string{"/blog/post.md", "/caf\u00e9.md", "/index.md", "/logo.png", "/plain.txt", "/unclosed.md"}, ids)

	byID := map[string]int{}
	for i, id := range ids {
		byID[id] = i
	}

	home := items[byID["/index.md"]]
	assert.Equal(t, "body", home.Content.Body)
	assert.Equal(t, "Home", home.Attribute("title"))
	assert.Equal(t, []any{"a", "b"}, home.Attribute("tags"))

	assert.Equal(t, "empty frontmatter", items[byID["/blog/post.md"]].Content.Body)
	assert.NotNil(t, items[byID["/plain.txt"]].Attributes)

	logo := items[byID["/logo.png"]]
	assert.True(t, logo.Content.Binary)
	assert.Equal(t, "\x89PNG\x00", logo.Content.Body)

	assert.Equal(t, "---\ntitle: x\nno end", items[byID["/unclosed.md"]].Content.Body)
}

func TestLoadItems_InvalidFrontmatter(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{
		"bad.md": "---\ntitle: [unclosed\n---\nbody",
	})

	_, err := LoadItems(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/bad.md")
}

func TestLoadItems_MissingDir(t *testing.T) {
	_, err := LoadItems(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestLoadLayouts_MissingDirIsEmpty(t *testing.T) {
	layouts, err := LoadLayouts(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, layouts)

	layouts, err = LoadLayouts("")
	require.NoError(t, err)
	assert.Empty(t, layouts)
}

func TestSplitFrontmatter(t *testing.T) {
	fm, body, err := splitFrontmatter([]byte("---\nfilter: erb\n---\n<%= yield %>"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"filter": "erb"}, fm)
	assert.Equal(t, "<%= yield %>", body)

	fm, body, err = splitFrontmatter([]byte("----- not frontmatter"))
	require.NoError(t, err)
	assert.Nil(t, fm)
	assert.Equal(t, "----- not frontmatter", body)
}
