package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobMatch(t *testing.T) {
	tests := []struct {
		pattern string
		match   []string
		noMatch []string
	}{
		{"/*.md", []string{"/a.md", "/index.md"}, []string{"/blog/a.md", "/a.html"}},
		{"/**/*.md", []string{"/a.md", "/blog/a.md", "/x/y/z.md"}, []string{"/a.mdx", "a.md"}},
		{"/blog/**", []string{"/blog/a", "/blog/x/y.md"}, []string{"/blogx/a", "/about"}},
		{"/?.txt", []string{"/a.txt"}, []string{"/ab.txt", "//.txt"}},
		{"/about.html", []string{"/about.html"}, []string{"/aboutXhtml"}},
		{"/**", []string{"/", "/a", "/a/b/c"}, []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			g, err := CompileGlob(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.pattern, g.String())
			for _, s := range tt.match {
				assert.True(t, g.Match(s), "%q should match %q", tt.pattern, s)
			}
			for _, s := range tt.noMatch {
				assert.False(t, g.Match(s), "%q should not match %q", tt.pattern, s)
			}
		})
	}
}

func TestGlobInvalid(t *testing.T) {
	_, err := CompileGlob("")
	assert.Error(t, err)

	_, err = CompileGlob("/***")
	assert.Error(t, err)
}
