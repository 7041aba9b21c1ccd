package recipe

import (
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kiln/internal/ir"
)

func TestCompileRuleBasic(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`{
		pattern: "/**/*.md"
		steps: [
			{filter: "template", args: {name: "page"}},
			{snapshot: "pre"},
			{layout: "/default.html"},
			{write: ""},
		]
	}`)
	require.NoError(t, v.Err())

	rule, err := CompileRule(v)
	require.NoError(t, err)

	assert.Equal(t, "/**/*.md", rule.Pattern)
	assert.Equal(t, ir.DefaultRepName, rule.RepName)
	assert.Equal(t, ir.Recipe{
		ir.Filter("template", map[string]any{"name": "page"}),
		ir.Snapshot("pre"),
		ir.ApplyLayout("/default.html", nil),
		ir.Write(""),
	}, rule.Recipe)
	assert.True(t, rule.Matches("/blog/post.md"))
	assert.False(t, rule.Matches("/blog/post.html"))
}

func TestCompileRuleNamedRep(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`{pattern: "/*.txt", rep: "text", steps: [{write: "/out.txt"}]}`)

	rule, err := CompileRule(v)
	require.NoError(t, err)
	assert.Equal(t, "text", rule.RepName)
	assert.Equal(t, ir.Recipe{ir.Write("/out.txt")}, rule.Recipe)
}

func TestCompileRuleNullWriteIsRouted(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`{pattern: "/*", steps: [{write: null}]}`)

	rule, err := CompileRule(v)
	require.NoError(t, err)
	assert.Equal(t, ir.Recipe{ir.Write("")}, rule.Recipe)
}

// ============================================================================
// Errors
// ============================================================================

func TestCompileRuleErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{"missing pattern", `{steps: []}`, "pattern"},
		{"pattern not string", `{pattern: 3, steps: []}`, "pattern"},
		{"bad pattern", `{pattern: "/***", steps: []}`, "pattern"},
		{"empty rep", `{pattern: "/*", rep: "", steps: []}`, "rep"},
		{"missing steps", `{pattern: "/*"}`, "steps"},
		{"steps not list", `{pattern: "/*", steps: "x"}`, "steps"},
		{"empty step", `{pattern: "/*", steps: [{}]}`, "step"},
		{"two kinds", `{pattern: "/*", steps: [{filter: "a", write: ""}]}`, "step"},
		{"filter not string", `{pattern: "/*", steps: [{filter: 1}]}`, "filter"},
		{"empty filter", `{pattern: "/*", steps: [{filter: ""}]}`, "filter"},
		{"empty layout", `{pattern: "/*", steps: [{layout: ""}]}`, "layout"},
		{"args not struct", `{pattern: "/*", steps: [{filter: "a", args: [1]}]}`, "args"},
		{"args on write", `{pattern: "/*", steps: [{write: "", args: {a: "b"}}]}`, "args"},
		{"duplicate snapshot", `{pattern: "/*", steps: [{snapshot: "a"}, {snapshot: "a"}]}`, "snapshot"},
		{"reserved snapshot", `{pattern: "/*", steps: [{snapshot: "last"}]}`, "snapshot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := cuecontext.New()
			v := ctx.CompileString(tt.src)
			require.NoError(t, v.Err())

			_, err := CompileRule(v)
			require.Error(t, err)
			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestCompileErrorFormat(t *testing.T) {
	err := &CompileError{Field: "steps", Message: "steps is required"}
	assert.Equal(t, "steps: steps is required", err.Error())
}
