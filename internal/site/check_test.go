package site

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_Clean(t *testing.T) {
	f := newFixture(t)

	issues, err := f.site().Check()
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestCheck_ReportsProblems(t *testing.T) {
	f := newFixture(t)
	f.write(t, "rules.cue", `
rules: [
	{pattern: "/about.html", steps: [{filter: "nope"}, {write: ""}]},
	{pattern: "/index.html", steps: [{layout: "/missing.html"}, {write: ""}]},
	{pattern: "/**", steps: [{write: ""}]},
]
`)
	f.write(t, "output/stale.txt", "x")

	issues, err := f.site().Check()
	require.NoError(t, err)

	var kinds []string
	for _, i := range issues {
		kinds = append(kinds, i.Kind)
	}
	assert.Equal(t, []string{IssueUnknownFilter, IssueUnknownLayout, IssueStaleOutput}, kinds)
	assert.Equal(t, "/about.html#default", issues[0].Rep)
	assert.Equal(t, "/stale.txt", issues[2].Path)
	assert.Equal(t, `stale_output: /stale.txt: not written by any rep`, issues[2].String())
}

func TestCheck_LoadErrors(t *testing.T) {
	f := newFixture(t)
	f.write(t, "rules.cue", `rules: [{steps: []}]`)

	_, err := f.site().Check()
	assert.Error(t, err)
}
