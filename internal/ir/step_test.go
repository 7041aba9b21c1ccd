package ir

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipe_Validate_OK(t *testing.T) {
	r := Recipe{
		Snapshot("guts"),
		Filter("template", nil),
		ApplyLayout("/default.html", nil),
		Snapshot("post"),
		Write(""),
	}
	assert.NoError(t, r.Validate(NewRepKey("/a.html", "")))
}

func TestRecipe_Validate_DuplicateSnapshot(t *testing.T) {
	key := NewRepKey("/stuff", "")
	r := Recipe{Snapshot("aaa"), Snapshot("aaa"), Write("/index.html")}

	err := r.Validate(key)
	require.Error(t, err)

	var dup *DuplicateSnapshotError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, key, dup.Rep)
	assert.Equal(t, "aaa", dup.Snapshot)
	assert.Equal(t, 1, dup.StepIndex)
	assert.Contains(t, err.Error(), "DUPLICATE_SNAPSHOT")
}

func TestRecipe_Validate_ReservedSnapshot(t *testing.T) {
	for name := range ReservedSnapshots {
		t.Run(name, func(t *testing.T) {
			err := Recipe{Snapshot(name)}.Validate(NewRepKey("/x", ""))
			var dup *DuplicateSnapshotError
			assert.True(t, errors.As(err, &dup))
		})
	}
}

func TestRecipe_Validate_EmptyNames(t *testing.T) {
	key := NewRepKey("/x", "")
	assert.Error(t, Recipe{Snapshot("")}.Validate(key))
	assert.Error(t, Recipe{Filter("", nil)}.Validate(key))
	assert.Error(t, Recipe{ApplyLayout("", nil)}.Validate(key))
	assert.Error(t, Recipe{nil}.Validate(key))
}

func TestRecipe_SnapshotNamesAndWritePaths(t *testing.T) {
	r := Recipe{Snapshot("a"), Write("/a.html"), Filter("upcase", nil), Snapshot("b"), Write("")}
	assert.Equal(t, []string{"a", "b"}, r.SnapshotNames())
	assert.Equal(t, []string{"/a.html", ""}, r.WritePaths())
}

func TestStep_String(t *testing.T) {
	assert.Equal(t, "filter template", Filter("template", nil).String())
	assert.Equal(t, "layout /default.html", ApplyLayout("/default.html", nil).String())
	assert.Equal(t, "snapshot guts", Snapshot("guts").String())
	assert.Equal(t, "write /index.html", Write("/index.html").String())
	assert.Equal(t, "write (routed)", Write("").String())
}

func TestApplyLayout_NamesLayoutByIdentifier(t *testing.T) {
	layout := &Layout{Identifier: "/default.html", Content: TextContent("{{ .content }}")}
	step := ApplyLayout(layout.Identifier, map[string]any{"filter": "template"})

	ls, ok := step.(LayoutStep)
	require.True(t, ok)
	assert.Equal(t, layout.Identifier, ls.Name)
	assert.Equal(t, "template", ls.Args["filter"])
}
