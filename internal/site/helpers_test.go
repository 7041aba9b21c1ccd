package site

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/roach88/kiln/internal/config"
	"github.com/roach88/kiln/internal/store"
	"github.com/roach88/kiln/internal/testutil"
)

var testEpoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

const pageRules = `
rules: [
	{pattern: "/*.html", steps: [
		{filter: "template"},
		{snapshot: "pre"},
		{layout: "/default.html"},
		{write: ""},
	]},
	{pattern: "/**", steps: [{write: ""}]},
]
`

// fixture is a site on disk with a fixed clock and run IDs.
type fixture struct {
	root  string
	cfg   *config.Config
	clock *testutil.ManualClock
	runs  *store.FixedGenerator
}

// newFixture writes a three-item site: about, index (reads about) and a
// binary file.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{
		"content/about.html":   "---\ntitle: About\n---\nabout us",
		"content/index.html":   "---\ntitle: Home\n---\nsee {{ compiled \"/about.html\" }}",
		"content/img.bin":      "\x00\x01bin",
		"layouts/default.html": "<h1>{{ .item.title }}</h1>{{ .content }}",
		"rules.cue":            pageRules,
	})

	cfg := config.NewDefaultConfig()
	cfg.Resolve(root)
	return &fixture{
		root:  root,
		cfg:   cfg,
		clock: testutil.NewManualClock(testEpoch),
		runs:  store.NewFixedGenerator("run-1", "run-2", "run-3"),
	}
}

func (f *fixture) site(opts ...Option) *Site {
	base := []Option{
		WithClock(f.clock),
		WithRunIDs(f.runs),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	return New(f.cfg, append(base, opts...)...)
}

func (f *fixture) write(t *testing.T, rel, content string) {
	t.Helper()
	testutil.WriteFiles(t, f.root, map[string]string{rel: content})
}

func (f *fixture) output(t *testing.T, rel string) string {
	t.Helper()
	return testutil.ReadFile(t, f.cfg.Site.OutputDir, rel)
}
